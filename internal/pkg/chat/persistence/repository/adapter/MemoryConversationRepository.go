package adapter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// MemoryConversationRepository is a map-backed implementation of the
// repository port with the same observable semantics as the Postgres adapter:
// server-assigned strictly increasing SentAt per process, atomic batch
// mutations under one lock, summary kept in step with the log.
//
// It backs the test suite and local development without a database.
type MemoryConversationRepository struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	messages      map[string][]chat.Message // conversationID -> ordered by SentAt asc
	lastStamp     time.Time

	// now is swappable so tests can control timestamps.
	now func() time.Time
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string][]chat.Message),
		now:           time.Now,
	}
}

// SetClock overrides the timestamp source. Test hook.
func (r *MemoryConversationRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// stamp returns a strictly increasing timestamp so two sends in the same
// nanosecond still order deterministically.
func (r *MemoryConversationRepository) stamp() time.Time {
	t := r.now().UTC()
	if !t.After(r.lastStamp) {
		t = r.lastStamp.Add(time.Microsecond)
	}
	r.lastStamp = t
	return t
}

func (r *MemoryConversationRepository) GetOrCreateConversation(_ context.Context, userA, userB string) (chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := chat.ConversationID(userA, userB)
	if c, ok := r.conversations[id]; ok {
		return *c, nil
	}
	now := r.stamp()
	c := &chat.Conversation{
		ID:           id,
		Participants: chat.PairKey(userA, userB),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.conversations[id] = c
	return *c, nil
}

func (r *MemoryConversationRepository) GetConversation(_ context.Context, conversationID string) (chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationID]
	if !ok {
		return chat.Conversation{}, appErrors.ErrConversationNotFound
	}
	return *c, nil
}

func (r *MemoryConversationRepository) ListConversationsByUser(_ context.Context, userID string) ([]chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var convs []chat.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			convs = append(convs, *c)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

func (r *MemoryConversationRepository) DeleteConversation(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversationID]; !ok {
		return appErrors.ErrConversationNotFound
	}
	delete(r.conversations, conversationID)
	delete(r.messages, conversationID)
	return nil
}

func (r *MemoryConversationRepository) SaveMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[m.ConversationID]
	if !ok {
		return chat.Message{}, appErrors.ErrConversationNotFound
	}

	m.ID = uuid.NewString()
	m.SentAt = r.stamp()
	m.ReadBy = append([]string(nil), m.ReadBy...)
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)

	r.repairSummaryLocked(c, m.SentAt)
	return m, nil
}

func (r *MemoryConversationRepository) GetMessage(_ context.Context, conversationID, messageID string) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages[conversationID] {
		if m.ID == messageID {
			return cloneMessage(m), nil
		}
	}
	return chat.Message{}, appErrors.ErrMessageNotFound
}

func (r *MemoryConversationRepository) GetMessagesByConversation(_ context.Context, conversationID string) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.messages[conversationID]
	msgs := make([]chat.Message, 0, len(stored))
	for _, m := range stored {
		msgs = append(msgs, cloneMessage(m))
	}
	return msgs, nil
}

func (r *MemoryConversationRepository) UpdateMessageContent(_ context.Context, conversationID, messageID, content string, editedAt time.Time) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationID]
	if !ok {
		return chat.Message{}, appErrors.ErrConversationNotFound
	}
	msgs := r.messages[conversationID]
	for i := range msgs {
		if msgs[i].ID != messageID {
			continue
		}
		msgs[i].Content = content
		msgs[i].IsEdited = true
		at := editedAt.UTC()
		msgs[i].EditedAt = &at
		r.repairSummaryLocked(c, r.stamp())
		return cloneMessage(msgs[i]), nil
	}
	return chat.Message{}, appErrors.ErrMessageNotFound
}

func (r *MemoryConversationRepository) DeleteMessage(_ context.Context, conversationID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationID]
	if !ok {
		return appErrors.ErrConversationNotFound
	}
	msgs := r.messages[conversationID]
	for i := range msgs {
		if msgs[i].ID != messageID {
			continue
		}
		r.messages[conversationID] = append(msgs[:i:i], msgs[i+1:]...)
		r.repairSummaryLocked(c, r.stamp())
		return nil
	}
	return appErrors.ErrMessageNotFound
}

func (r *MemoryConversationRepository) MarkConversationRead(_ context.Context, conversationID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversationID]; !ok {
		return 0, appErrors.ErrConversationNotFound
	}
	updated := 0
	msgs := r.messages[conversationID]
	for i := range msgs {
		// same predicate the Postgres adapter pushes into the UPDATE
		if msgs[i].SenderID == userID || msgs[i].ReadByUser(userID) {
			continue
		}
		msgs[i].ReadBy = append(msgs[i].ReadBy, userID)
		updated++
	}
	return updated, nil
}

func (r *MemoryConversationRepository) repairSummaryLocked(c *chat.Conversation, at time.Time) {
	last, lastAt := chat.DeriveLastMessage(r.messages[c.ID])
	c.LastMessage = last
	c.LastMessageAt = lastAt
	c.UpdatedAt = at
}

func cloneMessage(m chat.Message) chat.Message {
	m.ReadBy = append([]string(nil), m.ReadBy...)
	if m.Metadata != nil {
		meta := *m.Metadata
		m.Metadata = &meta
	}
	if m.EditedAt != nil {
		at := *m.EditedAt
		m.EditedAt = &at
	}
	return m
}
