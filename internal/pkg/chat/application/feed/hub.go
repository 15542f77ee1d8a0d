package feed

import (
	"context"
	"sync"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

// Hub is the change-subscription primitive over the conversation store.
// Mutating use cases invalidate a conversation or a set of users; the hub
// re-queries the repository and pushes the full current result set (never a
// diff) to every live subscriber. A listen error degrades to an empty snapshot
// instead of surfacing, since subscription callbacks have no caller to report to.
type Hub struct {
	repo repository.ConversationRepository
	log  *logger.Logger

	mu       sync.Mutex
	nextID   int
	msgSubs  map[string]map[int]func([]chat.Message)      // conversationID -> subID -> callback
	convSubs map[string]map[int]func([]chat.Conversation) // userID -> subID -> callback
}

func NewHub(repo repository.ConversationRepository, log *logger.Logger) *Hub {
	return &Hub{
		repo:     repo,
		log:      log,
		msgSubs:  make(map[string]map[int]func([]chat.Message)),
		convSubs: make(map[string]map[int]func([]chat.Conversation)),
	}
}

// SubscribeMessages registers fn for the conversation's message feed and
// delivers the current snapshot immediately. The returned disposer must be
// called when the subscriber loses interest; it is safe to call twice.
func (h *Hub) SubscribeMessages(ctx context.Context, conversationID string, fn func([]chat.Message)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	subs := h.msgSubs[conversationID]
	if subs == nil {
		subs = make(map[int]func([]chat.Message))
		h.msgSubs[conversationID] = subs
	}
	subs[id] = fn
	h.mu.Unlock()

	fn(h.loadMessages(ctx, conversationID))

	return func() {
		h.mu.Lock()
		if subs, ok := h.msgSubs[conversationID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.msgSubs, conversationID)
			}
		}
		h.mu.Unlock()
	}
}

// SubscribeConversations registers fn for the user's conversation list feed,
// ordered by UpdatedAt descending, and delivers the current snapshot immediately.
func (h *Hub) SubscribeConversations(ctx context.Context, userID string, fn func([]chat.Conversation)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	subs := h.convSubs[userID]
	if subs == nil {
		subs = make(map[int]func([]chat.Conversation))
		h.convSubs[userID] = subs
	}
	subs[id] = fn
	h.mu.Unlock()

	fn(h.loadConversations(ctx, userID))

	return func() {
		h.mu.Lock()
		if subs, ok := h.convSubs[userID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.convSubs, userID)
			}
		}
		h.mu.Unlock()
	}
}

// InvalidateMessages re-queries the conversation's messages and fans the
// snapshot out to its subscribers.
func (h *Hub) InvalidateMessages(ctx context.Context, conversationID string) {
	h.mu.Lock()
	callbacks := make([]func([]chat.Message), 0, len(h.msgSubs[conversationID]))
	for _, fn := range h.msgSubs[conversationID] {
		callbacks = append(callbacks, fn)
	}
	h.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	msgs := h.loadMessages(ctx, conversationID)
	for _, fn := range callbacks {
		fn(msgs)
	}
}

// InvalidateConversations re-queries and pushes each listed user's
// conversation list.
func (h *Hub) InvalidateConversations(ctx context.Context, userIDs ...string) {
	for _, userID := range userIDs {
		h.mu.Lock()
		callbacks := make([]func([]chat.Conversation), 0, len(h.convSubs[userID]))
		for _, fn := range h.convSubs[userID] {
			callbacks = append(callbacks, fn)
		}
		h.mu.Unlock()

		if len(callbacks) == 0 {
			continue
		}
		convs := h.loadConversations(ctx, userID)
		for _, fn := range callbacks {
			fn(convs)
		}
	}
}

func (h *Hub) loadMessages(ctx context.Context, conversationID string) []chat.Message {
	msgs, err := h.repo.GetMessagesByConversation(ctx, conversationID)
	if err != nil {
		h.log.Warn("message feed query failed, pushing empty snapshot",
			"conversation_id", conversationID, "err", err)
		return nil
	}
	return msgs
}

func (h *Hub) loadConversations(ctx context.Context, userID string) []chat.Conversation {
	convs, err := h.repo.ListConversationsByUser(ctx, userID)
	if err != nil {
		h.log.Warn("conversation feed query failed, pushing empty snapshot",
			"user_id", userID, "err", err)
		return nil
	}
	return convs
}
