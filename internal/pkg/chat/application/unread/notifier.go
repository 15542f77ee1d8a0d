package unread

import "context"

// Notification is one local alert for a just-arrived unread message.
type Notification struct {
	UserID         string // recipient
	ConversationID string
	MessageID      string
	Title          string // sender display name
	Body           string // type-aware message summary
}

// Notifier delivers local notifications. It is a soft dependency: failures are
// logged and swallowed by the aggregator, never surfaced to users.
type Notifier interface {
	// RequestPermission asks the underlying channel whether notifications may
	// be shown. Returning false with a nil error means "denied", a degraded
	// but valid state.
	RequestPermission(ctx context.Context) (bool, error)

	Notify(ctx context.Context, n Notification) error
}

// NameResolver maps a user id to a display name for notification titles.
type NameResolver interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}
