package usecase

import (
	"context"

	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// DeleteConversationInput identifies the conversation and the requesting user.
type DeleteConversationInput struct {
	ConversationID string
	RequesterID    string
}

// DeleteConversationUseCase removes a conversation and all of its messages as
// one atomic batch. Only a participant may delete.
// One class per use case (own file)
type DeleteConversationUseCase struct {
	Repo repository.ConversationRepository
	Feed *feed.Hub
}

func NewDeleteConversationUseCase(repo repository.ConversationRepository, hub *feed.Hub) *DeleteConversationUseCase {
	return &DeleteConversationUseCase{Repo: repo, Feed: hub}
}

func (uc *DeleteConversationUseCase) Execute(ctx context.Context, in DeleteConversationInput) error {
	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return mapStoreError(err)
	}
	if !conv.HasParticipant(in.RequesterID) {
		return appErrors.ErrNotParticipant
	}

	if err := uc.Repo.DeleteConversation(ctx, in.ConversationID); err != nil {
		return mapStoreError(err)
	}

	if uc.Feed != nil {
		// subscribers of the deleted conversation receive an empty snapshot
		uc.Feed.InvalidateMessages(ctx, in.ConversationID)
		uc.Feed.InvalidateConversations(ctx, conv.Participants[0], conv.Participants[1])
	}
	return nil
}
