package usecase

import (
	"context"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

// SendMessageInput carries the data needed to send a new message.
// Metadata is only meaningful for image/file messages.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	MsgType        chat.MessageType
	Metadata       *chat.Attachment
}

// SendMessageUseCase appends a message and keeps the conversation summary in
// step, then fans the change out to message and conversation feeds.
// Hexagonal: depends on repository port, returns domain entity
// One class per use case (own file)
type SendMessageUseCase struct {
	Repo repository.ConversationRepository
	Feed *feed.Hub
}

func NewSendMessageUseCase(repo repository.ConversationRepository, hub *feed.Hub) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Feed: hub}
}

// Execute persists a new message for a conversation. The sender must be a
// participant; ReadBy starts as {sender} and SentAt is assigned by the store.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !conv.HasParticipant(in.SenderID) {
		return nil, appErrors.ErrNotParticipant
	}

	msg, err := chat.NewMessage(in.ConversationID, in.SenderID, in.Content, in.MsgType, in.Metadata)
	if err != nil {
		return nil, appErrors.InvalidArg(err.Error())
	}

	saved, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if uc.Feed != nil {
		uc.Feed.InvalidateMessages(ctx, conv.ID)
		uc.Feed.InvalidateConversations(ctx, conv.Participants[0], conv.Participants[1])
	}
	return &saved, nil
}
