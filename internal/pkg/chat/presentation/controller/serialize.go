package controller

import (
	"github.com/gin-gonic/gin"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
)

func conversationJSON(c chat.Conversation) gin.H {
	return gin.H{
		"id":              c.ID,
		"participants":    []string{c.Participants[0], c.Participants[1]},
		"last_message":    c.LastMessage,
		"last_message_at": c.LastMessageAt,
		"created_at":      c.CreatedAt,
		"updated_at":      c.UpdatedAt,
	}
}

func messageJSON(m chat.Message) gin.H {
	return gin.H{
		"id":              m.ID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"content":         m.Content,
		"msg_type":        m.MsgType,
		"metadata":        m.Metadata,
		"sent_at":         m.SentAt,
		"read_by":         m.ReadBy,
		"is_edited":       m.IsEdited,
		"edited_at":       m.EditedAt,
	}
}

func messagesJSON(msgs []chat.Message) []gin.H {
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageJSON(m))
	}
	return out
}
