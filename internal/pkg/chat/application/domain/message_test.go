package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageTextValidation(t *testing.T) {
	_, err := NewMessage("conv", "user1", "   ", MessageTypeText, nil)
	assert.Error(t, err)

	m, err := NewMessage("conv", "user1", "  hello  ", MessageTypeText, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Content)
	assert.Equal(t, []string{"user1"}, m.ReadBy)
}

func TestNewMessageRequiresIdentity(t *testing.T) {
	_, err := NewMessage("", "user1", "hi", MessageTypeText, nil)
	assert.Error(t, err)
	_, err = NewMessage("conv", "", "hi", MessageTypeText, nil)
	assert.Error(t, err)
	_, err = NewMessage("conv", "user1", "hi", MessageType(9), nil)
	assert.Error(t, err)
}

func TestNewMessageNonTextNeedsReference(t *testing.T) {
	_, err := NewMessage("conv", "user1", "", MessageTypeImage, nil)
	assert.Error(t, err)

	m, err := NewMessage("conv", "user1", "", MessageTypeImage, &Attachment{URL: "/attachments/x.png"})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeImage, m.MsgType)
}

func TestUnreadFor(t *testing.T) {
	m := Message{SenderID: "user1", ReadBy: []string{"user1"}}
	assert.False(t, m.UnreadFor("user1"), "own messages never count")
	assert.True(t, m.UnreadFor("user2"))

	m.ReadBy = append(m.ReadBy, "user2")
	assert.False(t, m.UnreadFor("user2"))
}

func TestSummaryByType(t *testing.T) {
	text := Message{MsgType: MessageTypeText, Content: "hello"}
	assert.Equal(t, "hello", text.Summary())

	img := Message{MsgType: MessageTypeImage, Content: "https://cdn/img.png"}
	assert.Equal(t, ImagePlaceholder, img.Summary(), "raw URL must not leak into list views")

	file := Message{MsgType: MessageTypeFile, Metadata: &Attachment{FileName: "cv.pdf"}}
	assert.Equal(t, "\U0001F4CE cv.pdf", file.Summary())

	anon := Message{MsgType: MessageTypeFile}
	assert.Equal(t, "\U0001F4CE File", anon.Summary())
}

func TestDeriveLastMessage(t *testing.T) {
	empty, at := DeriveLastMessage(nil)
	assert.Nil(t, empty)
	assert.Nil(t, at)

	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	msgs := []Message{
		{MsgType: MessageTypeText, Content: "first", SentAt: t1},
		{MsgType: MessageTypeImage, SentAt: t2},
	}
	text, ts := DeriveLastMessage(msgs)
	require.NotNil(t, text)
	require.NotNil(t, ts)
	assert.Equal(t, ImagePlaceholder, *text)
	assert.Equal(t, t2, *ts)
}

func TestUnreadProjection(t *testing.T) {
	msgs := []Message{
		{ID: "m1", SenderID: "user1", ReadBy: []string{"user1"}},
		{ID: "m2", SenderID: "user1", ReadBy: []string{"user1", "user2"}},
		{ID: "m3", SenderID: "user2", ReadBy: []string{"user2"}},
	}
	unread := UnreadMessages(msgs, "user2")
	require.Len(t, unread, 1)
	assert.Equal(t, "m1", unread[0].ID)
	assert.Equal(t, 1, CountUnread(msgs, "user2"))
	assert.Equal(t, 1, CountUnread(msgs, "user1"))
}
