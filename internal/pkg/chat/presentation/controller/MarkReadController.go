package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poke-max/jomach-sub000/internal/infrastructure/identity"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/unread"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/usecase"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
)

// MarkReadController triggers the read-state reconciler for one conversation
// (one controller per endpoint). Calling it with nothing left to mark is still
// a 200: the operation is idempotent by contract.
type MarkReadController struct {
	UC *usecase.MarkConversationReadUseCase
}

func NewMarkReadController(repo repository.ConversationRepository, hub *feed.Hub, bridge *unread.Bridge) *MarkReadController {
	return &MarkReadController{UC: usecase.NewMarkConversationReadUseCase(repo, hub, bridge)}
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		updated, err := h.UC.Execute(ctx, usecase.MarkConversationReadInput{
			ConversationID: c.Param("conversationId"),
			UserID:         userID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"marked": updated})
	}
}
