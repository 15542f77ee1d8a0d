package usecase

import (
	"context"

	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// DeleteMessageInput identifies the message and the actor requesting removal.
type DeleteMessageInput struct {
	ConversationID string
	MessageID      string
	RequesterID    string
}

// DeleteMessageUseCase removes a single message; the store re-derives the
// conversation summary from the remaining tail in the same atomic write.
// One class per use case (own file)
type DeleteMessageUseCase struct {
	Repo repository.ConversationRepository
	Feed *feed.Hub
}

func NewDeleteMessageUseCase(repo repository.ConversationRepository, hub *feed.Hub) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo, Feed: hub}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) error {
	msg, err := uc.Repo.GetMessage(ctx, in.ConversationID, in.MessageID)
	if err != nil {
		return mapStoreError(err)
	}
	if msg.SenderID != in.RequesterID {
		return appErrors.ErrNotMessageSender
	}

	if err := uc.Repo.DeleteMessage(ctx, in.ConversationID, in.MessageID); err != nil {
		return mapStoreError(err)
	}

	if uc.Feed != nil {
		uc.Feed.InvalidateMessages(ctx, in.ConversationID)
		if conv, err := uc.Repo.GetConversation(ctx, in.ConversationID); err == nil {
			uc.Feed.InvalidateConversations(ctx, conv.Participants[0], conv.Participants[1])
		}
	}
	return nil
}
