package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/poke-max/jomach-sub000/internal/infrastructure/identity"
	httpHandler "github.com/poke-max/jomach-sub000/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1, behind the
// bearer-token middleware.
func RegisterRoutes(r *gin.Engine, jwtSecret string, deps httpHandler.Deps) {
	v1 := r.Group("/api/v1")
	v1.Use(identity.Middleware(jwtSecret))
	httpHandler.RegisterRoutes(v1, deps)
}
