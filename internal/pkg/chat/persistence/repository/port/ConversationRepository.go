package repository

import (
	"context"
	"time"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
)

// ConversationRepository defines persistence operations for the messaging domain.
// Implementations must keep the conversation's denormalized LastMessage/
// LastMessageAt in step with the message log inside the same atomic write, so
// subscribers never observe a partially updated state.
type ConversationRepository interface {
	// GetOrCreateConversation resolves the deterministic conversation for the
	// user pair, creating it with an empty summary when absent. Safe to call
	// concurrently from both sides; the derived key, not check-then-create,
	// guarantees uniqueness.
	GetOrCreateConversation(ctx context.Context, userA, userB string) (chat.Conversation, error)

	GetConversation(ctx context.Context, conversationID string) (chat.Conversation, error)

	// ListConversationsByUser returns conversations containing userID,
	// ordered by UpdatedAt descending.
	ListConversationsByUser(ctx context.Context, userID string) ([]chat.Conversation, error)

	// DeleteConversation removes the conversation and all its messages as one
	// atomic batch.
	DeleteConversation(ctx context.Context, conversationID string) error

	// SaveMessage appends m, assigning ID and the server-side SentAt, and
	// updates the parent summary. Returns the stored message.
	SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error)

	GetMessage(ctx context.Context, conversationID, messageID string) (chat.Message, error)

	// GetMessagesByConversation returns the full message list ordered by
	// SentAt ascending.
	GetMessagesByConversation(ctx context.Context, conversationID string) ([]chat.Message, error)

	// UpdateMessageContent rewrites a text message body, marking it edited,
	// and repairs the summary when the message is the conversation tail.
	UpdateMessageContent(ctx context.Context, conversationID, messageID, content string, editedAt time.Time) (chat.Message, error)

	// DeleteMessage removes the message and re-derives the summary from the
	// remaining tail (or nulls it) in the same atomic write.
	DeleteMessage(ctx context.Context, conversationID, messageID string) error

	// MarkConversationRead adds userID to ReadBy on every message with a
	// different sender that does not already carry it, as one batch. Returns
	// the number of messages updated; zero updates is success, not an error.
	MarkConversationRead(ctx context.Context, conversationID, userID string) (int, error)
}
