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

// DeleteConversationController removes a conversation with all its messages
// (one controller per endpoint)
type DeleteConversationController struct {
	UC *usecase.DeleteConversationUseCase
}

func NewDeleteConversationController(repo repository.ConversationRepository, hub *feed.Hub) *DeleteConversationController {
	return &DeleteConversationController{UC: usecase.NewDeleteConversationUseCase(repo, hub)}
}

func (h *DeleteConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		err := h.UC.Execute(ctx, usecase.DeleteConversationInput{
			ConversationID: c.Param("conversationId"),
			RequesterID:    userID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
