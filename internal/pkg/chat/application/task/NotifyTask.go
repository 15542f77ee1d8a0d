package task

import (
	"context"
	"encoding/json"

	qport "github.com/poke-max/jomach-sub000/internal/infrastructure/queue/port"
	"github.com/poke-max/jomach-sub000/internal/infrastructure/realtime"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/unread"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

// NotifyTaskType is the queue task name for local notification delivery.
const NotifyTaskType = "chat:notify"

// NotifyTaskPayload mirrors unread.Notification on the wire.
type NotifyTaskPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	Title          string `json:"title"`
	Body           string `json:"body"`
}

// notificationFrame is what the client receives on its socket.
type notificationFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
}

// RegisterNotifyTask binds delivery to the provided server. A recipient with
// no live session is not an error; the unread badge still carries the state.
func RegisterNotifyTask(srv qport.Server, router *realtime.Router, log *logger.Logger) {
	srv.Register(NotifyTaskType, func(_ context.Context, t qport.Task) error {
		var p NotifyTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return err
		}
		frame := notificationFrame{
			Type:           "notification",
			ConversationID: p.ConversationID,
			MessageID:      p.MessageID,
			Title:          p.Title,
			Body:           p.Body,
		}
		payload, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		if !router.NotifyUser(p.UserID, payload) {
			log.Debug("notification dropped, user offline", "user_id", p.UserID)
		}
		return nil
	})
}

// QueueNotifier implements unread.Notifier by enqueuing delivery tasks, so a
// burst of arrivals never blocks the aggregator's recompute path.
type QueueNotifier struct {
	client qport.Client
}

func NewQueueNotifier(client qport.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

var _ unread.Notifier = (*QueueNotifier)(nil)

// RequestPermission is answered per recipient at Notify time; the enqueue
// channel itself is always available.
func (q *QueueNotifier) RequestPermission(_ context.Context) (bool, error) {
	return true, nil
}

func (q *QueueNotifier) Notify(ctx context.Context, n unread.Notification) error {
	b, err := json.Marshal(NotifyTaskPayload{
		UserID:         n.UserID,
		ConversationID: n.ConversationID,
		MessageID:      n.MessageID,
		Title:          n.Title,
		Body:           n.Body,
	})
	if err != nil {
		return err
	}
	_, err = q.client.Enqueue(ctx, qport.Task{Type: NotifyTaskType, Payload: b},
		qport.EnqueueOption{Queue: "chat", MaxRetry: 3})
	return err
}
