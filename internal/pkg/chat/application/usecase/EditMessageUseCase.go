package usecase

import (
	"context"
	"strings"
	"time"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// EditMessageInput identifies the message and the actor performing the edit.
type EditMessageInput struct {
	ConversationID string
	MessageID      string
	EditorID       string
	NewContent     string
}

// EditMessageUseCase rewrites a text message body. Only the original sender
// may edit, and only text messages are editable.
// One class per use case (own file)
type EditMessageUseCase struct {
	Repo repository.ConversationRepository
	Feed *feed.Hub
}

func NewEditMessageUseCase(repo repository.ConversationRepository, hub *feed.Hub) *EditMessageUseCase {
	return &EditMessageUseCase{Repo: repo, Feed: hub}
}

func (uc *EditMessageUseCase) Execute(ctx context.Context, in EditMessageInput) (*chat.Message, error) {
	content := strings.TrimSpace(in.NewContent)
	if content == "" {
		return nil, appErrors.InvalidArg("new content must not be empty")
	}

	msg, err := uc.Repo.GetMessage(ctx, in.ConversationID, in.MessageID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if msg.SenderID != in.EditorID {
		return nil, appErrors.ErrNotMessageSender
	}
	if msg.MsgType != chat.MessageTypeText {
		return nil, appErrors.ErrNotEditable
	}

	updated, err := uc.Repo.UpdateMessageContent(ctx, in.ConversationID, in.MessageID, content, time.Now().UTC())
	if err != nil {
		return nil, mapStoreError(err)
	}

	if uc.Feed != nil {
		uc.Feed.InvalidateMessages(ctx, in.ConversationID)
		uc.invalidateParticipants(ctx, in.ConversationID)
	}
	return &updated, nil
}

func (uc *EditMessageUseCase) invalidateParticipants(ctx context.Context, conversationID string) {
	conv, err := uc.Repo.GetConversation(ctx, conversationID)
	if err != nil {
		return
	}
	uc.Feed.InvalidateConversations(ctx, conv.Participants[0], conv.Participants[1])
}
