package chat

import (
	"time"

	"github.com/google/uuid"
)

// nsConversation namespaces deterministic conversation ids so the same user
// pair always maps to the same conversation regardless of which side creates it.
var nsConversation = uuid.MustParse("7f9bd3ae-1c24-49c7-9b6d-8c2f64a0c11b")

// Conversation represents a 1:1 thread between two users.
// Participants are kept sorted; the pair is the identity.
type Conversation struct {
	ID            string     `db:"id"`
	Participants  [2]string  `db:"-"`
	LastMessage   *string    `db:"last_message"`
	LastMessageAt *time.Time `db:"last_message_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// PairKey returns the two user ids in canonical (sorted) order.
func PairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ConversationID derives the deterministic id for a user pair.
// ConversationID(a, b) == ConversationID(b, a) by construction, which makes
// get-or-create idempotent without a check-then-create race.
func ConversationID(a, b string) string {
	pair := PairKey(a, b)
	return uuid.NewSHA1(nsConversation, []byte(pair[0]+"\x00"+pair[1])).String()
}

// HasParticipant tells whether userID is part of this conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// OtherParticipant returns the peer of userID, or "" when userID is not a member.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.Participants[0]:
		return c.Participants[1]
	case c.Participants[1]:
		return c.Participants[0]
	}
	return ""
}
