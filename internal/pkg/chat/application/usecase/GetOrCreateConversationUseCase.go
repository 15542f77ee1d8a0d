package usecase

import (
	"context"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// GetOrCreateConversationInput carries the user pair to resolve.
// Argument order is irrelevant: the conversation id is derived from the
// sorted pair.
type GetOrCreateConversationInput struct {
	UserA string
	UserB string
}

// GetOrCreateConversationUseCase resolves the single conversation for a user
// pair, creating it on first contact.
// Hexagonal: depends on repository port only; feed invalidation is optional.
// One class per use case (own file)
type GetOrCreateConversationUseCase struct {
	Repo repository.ConversationRepository
	Feed *feed.Hub
}

func NewGetOrCreateConversationUseCase(repo repository.ConversationRepository, hub *feed.Hub) *GetOrCreateConversationUseCase {
	return &GetOrCreateConversationUseCase{Repo: repo, Feed: hub}
}

// Execute returns the conversation for the pair, idempotently.
func (uc *GetOrCreateConversationUseCase) Execute(ctx context.Context, in GetOrCreateConversationInput) (*chat.Conversation, error) {
	if in.UserA == "" || in.UserB == "" {
		return nil, appErrors.ErrMissingUser
	}
	if in.UserA == in.UserB {
		return nil, appErrors.ErrSelfConversation
	}

	conv, err := uc.Repo.GetOrCreateConversation(ctx, in.UserA, in.UserB)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if uc.Feed != nil {
		uc.Feed.InvalidateConversations(ctx, conv.Participants[0], conv.Participants[1])
	}
	return &conv, nil
}
