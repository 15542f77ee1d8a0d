package usecase

import (
	"context"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// GetMessagesInput carries parameters to fetch messages of a conversation.
// The requester must be a participant.
type GetMessagesInput struct {
	ConversationID string
	RequesterID    string
}

// GetMessagesUseCase fetches the full ordered message list for a conversation.
// One class per use case (own file)
type GetMessagesUseCase struct {
	Repo repository.ConversationRepository
}

func NewGetMessagesUseCase(repo repository.ConversationRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

// Execute returns messages ordered by SentAt ascending.
func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]chat.Message, error) {
	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !conv.HasParticipant(in.RequesterID) {
		return nil, appErrors.ErrNotParticipant
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return msgs, nil
}
