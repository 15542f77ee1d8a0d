package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poke-max/jomach-sub000/internal/infrastructure/identity"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/usecase"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
)

// CreateConversationController handles the get-or-create endpoint
// One controller per endpoint
type CreateConversationController struct {
	UC *usecase.GetOrCreateConversationUseCase
}

func NewCreateConversationController(repo repository.ConversationRepository, hub *feed.Hub) *CreateConversationController {
	return &CreateConversationController{UC: usecase.NewGetOrCreateConversationUseCase(repo, hub)}
}

type createConversationRequest struct {
	PeerID string `json:"peer_id" binding:"required"`
}

func (h *CreateConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.GetOrCreateConversationInput{UserA: userID, UserB: req.PeerID})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, conversationJSON(*conv))
	}
}
