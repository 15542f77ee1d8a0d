package task

import (
	"context"
	"encoding/json"
	"time"

	qport "github.com/poke-max/jomach-sub000/internal/infrastructure/queue/port"
	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/usecase"
)

// SendMessageTaskType is the queue task name for sending a message.
const SendMessageTaskType = "chat:send_message"

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	ConversationID string           `json:"conversationId"`
	SenderID       string           `json:"senderId"`
	Content        string           `json:"content"`
	MsgType        int16            `json:"msgType"`
	Metadata       *chat.Attachment `json:"metadata,omitempty"`
}

// RegisterSendMessageTask binds the task handler to the provided server.
// The handler executes the send use case, which also fans the change out to
// the feeds of both participants.
func RegisterSendMessageTask(srv qport.Server, uc *usecase.SendMessageUseCase) {
	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		in := usecase.SendMessageInput{
			ConversationID: p.ConversationID,
			SenderID:       p.SenderID,
			Content:        p.Content,
			MsgType:        chat.MessageType(p.MsgType),
			Metadata:       p.Metadata,
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		_, err := uc.Execute(ctx, in)
		return err
	})
}
