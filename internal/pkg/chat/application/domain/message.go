package chat

import (
	"errors"
	"strings"
	"time"
)

// MessageType represents type of message content
// 0=text, 1=image, 2=file
type MessageType int16

const (
	MessageTypeText  MessageType = 0
	MessageTypeImage MessageType = 1
	MessageTypeFile  MessageType = 2
)

func (t MessageType) Valid() bool {
	return t == MessageTypeText || t == MessageTypeImage || t == MessageTypeFile
}

// Display placeholders used for the denormalized conversation summary and for
// notification bodies. Non-text content never leaks raw URLs into list views.
const (
	ImagePlaceholder      = "\U0001F4F7 Image"
	filePlaceholderPrefix = "\U0001F4CE "
	fileFallbackName      = "File"
)

// Attachment carries metadata for image/file messages. Nil for text.
type Attachment struct {
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	FileType string `json:"file_type,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Message is one unit of communication inside a conversation.
// SentAt is assigned by the store, never by the client, so concurrent senders
// end up in one consistent per-conversation order. ReadBy only ever grows.
type Message struct {
	ID             string      `db:"id"`
	ConversationID string      `db:"conversation_id"`
	SenderID       string      `db:"sender_id"`
	Content        string      `db:"content"`
	MsgType        MessageType `db:"msg_type"`
	Metadata       *Attachment `db:"metadata"`
	SentAt         time.Time   `db:"sent_at"`
	ReadBy         []string    `db:"read_by"`
	IsEdited       bool        `db:"is_edited"`
	EditedAt       *time.Time  `db:"edited_at"`
}

// NewMessage validates and normalizes an outgoing message before persistence.
// The store fills ID and SentAt; ReadBy starts with the sender.
func NewMessage(conversationID, senderID, content string, msgType MessageType, meta *Attachment) (*Message, error) {
	if conversationID == "" || senderID == "" {
		return nil, errors.New("conversation_id and sender_id are required")
	}
	if !msgType.Valid() {
		return nil, errors.New("unknown message type")
	}
	if msgType == MessageTypeText {
		content = strings.TrimSpace(content)
		if content == "" {
			return nil, errors.New("text message must have content")
		}
	} else if content == "" && (meta == nil || meta.URL == "") {
		return nil, errors.New("non-text message must carry a content reference or attachment url")
	}
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		MsgType:        msgType,
		Metadata:       meta,
		ReadBy:         []string{senderID},
	}, nil
}

// ReadByUser reports whether userID has been credited with seeing the message.
func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// UnreadFor reports whether the message counts as unread for userID:
// sent by someone else and not yet in ReadBy.
func (m *Message) UnreadFor(userID string) bool {
	return m.SenderID != userID && !m.ReadByUser(userID)
}

// Summary renders the type-aware display string: text verbatim, image and file
// as fixed placeholders.
func (m *Message) Summary() string {
	switch m.MsgType {
	case MessageTypeImage:
		return ImagePlaceholder
	case MessageTypeFile:
		name := fileFallbackName
		if m.Metadata != nil && m.Metadata.FileName != "" {
			name = m.Metadata.FileName
		}
		return filePlaceholderPrefix + name
	}
	return m.Content
}

// DeriveLastMessage computes the denormalized conversation summary from the
// current message list (ordered by SentAt ascending). It is the single source
// of repair after send, edit and delete. Returns nil/nil when no messages remain.
func DeriveLastMessage(messages []Message) (*string, *time.Time) {
	if len(messages) == 0 {
		return nil, nil
	}
	last := messages[len(messages)-1]
	text := last.Summary()
	at := last.SentAt
	return &text, &at
}
