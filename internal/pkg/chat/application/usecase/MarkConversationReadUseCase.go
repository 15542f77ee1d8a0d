package usecase

import (
	"context"

	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/unread"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// MarkConversationReadInput identifies the conversation and the reading user.
type MarkConversationReadInput struct {
	ConversationID string
	UserID         string
}

// MarkConversationReadUseCase is the read-state reconciler: it adds the user
// to ReadBy on every message from the other participant in one batch.
// Idempotent by design — it runs both on conversation-open and on every
// incoming-message event while the conversation stays open, so a call with
// nothing to update is success with zero writes, not an error.
// One class per use case (own file)
type MarkConversationReadUseCase struct {
	Repo   repository.ConversationRepository
	Feed   *feed.Hub
	Bridge *unread.Bridge
}

func NewMarkConversationReadUseCase(repo repository.ConversationRepository, hub *feed.Hub, bridge *unread.Bridge) *MarkConversationReadUseCase {
	return &MarkConversationReadUseCase{Repo: repo, Feed: hub, Bridge: bridge}
}

// Execute returns the number of messages newly marked.
func (uc *MarkConversationReadUseCase) Execute(ctx context.Context, in MarkConversationReadInput) (int, error) {
	if in.ConversationID == "" || in.UserID == "" {
		return 0, appErrors.InvalidArg("conversation_id and user_id are required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return 0, mapStoreError(err)
	}
	if !conv.HasParticipant(in.UserID) {
		return 0, appErrors.ErrNotParticipant
	}

	updated, err := uc.Repo.MarkConversationRead(ctx, in.ConversationID, in.UserID)
	if err != nil {
		return 0, mapStoreError(err)
	}

	// The signal fires even on a zero-write call: the aggregator zeroes the
	// conversation immediately instead of waiting for its own snapshot,
	// closing the gap between the write and its change notification.
	if uc.Bridge != nil {
		uc.Bridge.Publish(unread.Signal{ConversationID: in.ConversationID, UserID: in.UserID})
	}
	if uc.Feed != nil && updated > 0 {
		uc.Feed.InvalidateMessages(ctx, in.ConversationID)
	}
	return updated, nil
}
