package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poke-max/jomach-sub000/internal/infrastructure/identity"
	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
)

// UnreadController serves a one-shot unread summary over HTTP. Clients that
// hold a websocket session get the same numbers pushed reactively; this
// endpoint exists for badge polling and cold app starts.
type UnreadController struct {
	Repo repository.ConversationRepository
}

func NewUnreadController(repo repository.ConversationRepository) *UnreadController {
	return &UnreadController{Repo: repo}
}

func (h *UnreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		convs, err := h.Repo.ListConversationsByUser(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}

		per := make(map[string]int, len(convs))
		total := 0
		for _, conv := range convs {
			msgs, err := h.Repo.GetMessagesByConversation(ctx, conv.ID)
			if err != nil {
				respondError(c, err)
				return
			}
			if n := chat.CountUnread(msgs, userID); n > 0 {
				per[conv.ID] = n
				total += n
			}
		}

		c.JSON(http.StatusOK, gin.H{"total": total, "per_conversation": per})
	}
}
