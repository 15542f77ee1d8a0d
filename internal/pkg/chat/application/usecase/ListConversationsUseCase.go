package usecase

import (
	"context"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// ListConversationsInput wraps the user whose conversation list is requested.
type ListConversationsInput struct {
	UserID string
}

// ListConversationsUseCase returns the user's conversations ordered by most
// recent activity.
// One class per use case (own file)
type ListConversationsUseCase struct {
	Repo repository.ConversationRepository
}

func NewListConversationsUseCase(repo repository.ConversationRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]chat.Conversation, error) {
	if in.UserID == "" {
		return nil, appErrors.InvalidArg("user_id is required")
	}
	convs, err := uc.Repo.ListConversationsByUser(ctx, in.UserID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return convs, nil
}
