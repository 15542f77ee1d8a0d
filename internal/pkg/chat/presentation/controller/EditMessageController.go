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

// EditMessageController handles message edits (one controller per endpoint)
type EditMessageController struct {
	UC *usecase.EditMessageUseCase
}

func NewEditMessageController(repo repository.ConversationRepository, hub *feed.Hub) *EditMessageController {
	return &EditMessageController{UC: usecase.NewEditMessageUseCase(repo, hub)}
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *EditMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		var req editMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.EditMessageInput{
			ConversationID: c.Param("conversationId"),
			MessageID:      c.Param("messageId"),
			EditorID:       userID,
			NewContent:     req.Content,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, messageJSON(*msg))
	}
}
