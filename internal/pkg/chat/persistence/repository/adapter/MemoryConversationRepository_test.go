package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

func mustSend(t *testing.T, repo *MemoryConversationRepository, convID, sender, content string) chat.Message {
	t.Helper()
	m, err := chat.NewMessage(convID, sender, content, chat.MessageTypeText, nil)
	require.NoError(t, err)
	saved, err := repo.SaveMessage(context.Background(), *m)
	require.NoError(t, err)
	return saved
}

func TestGetOrCreateConversationIsIdempotent(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	c1, err := repo.GetOrCreateConversation(ctx, "user1", "user2")
	require.NoError(t, err)
	c2, err := repo.GetOrCreateConversation(ctx, "user2", "user1")
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, chat.PairKey("user1", "user2"), c1.Participants)
	assert.Equal(t, c1.CreatedAt, c2.CreatedAt)
}

func TestSaveMessageAssignsStrictOrder(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, err := repo.GetOrCreateConversation(ctx, "user1", "user2")
	require.NoError(t, err)

	m1 := mustSend(t, repo, conv.ID, "user1", "one")
	m2 := mustSend(t, repo, conv.ID, "user1", "two")
	m3 := mustSend(t, repo, conv.ID, "user2", "three")

	assert.True(t, m1.SentAt.Before(m2.SentAt))
	assert.True(t, m2.SentAt.Before(m3.SentAt))

	msgs, err := repo.GetMessagesByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
}

func TestSaveMessageUpdatesSummary(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, err := repo.GetOrCreateConversation(ctx, "user1", "user2")
	require.NoError(t, err)
	require.Nil(t, conv.LastMessage)

	mustSend(t, repo, conv.ID, "user1", "hello")

	got, err := repo.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "hello", *got.LastMessage)
	assert.NotNil(t, got.LastMessageAt)
	assert.True(t, got.UpdatedAt.After(conv.UpdatedAt))
}

func TestEditRepairsSummary(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")

	m := mustSend(t, repo, conv.ID, "user1", "hello")
	edited, err := repo.UpdateMessageContent(ctx, conv.ID, m.ID, "hello there", m.SentAt)
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	require.NotNil(t, edited.EditedAt)

	got, _ := repo.GetConversation(ctx, conv.ID)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "hello there", *got.LastMessage)
}

func TestDeleteTailRepairsSummary(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")

	mustSend(t, repo, conv.ID, "user1", "first")
	tail := mustSend(t, repo, conv.ID, "user2", "second")

	require.NoError(t, repo.DeleteMessage(ctx, conv.ID, tail.ID))

	got, _ := repo.GetConversation(ctx, conv.ID)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "first", *got.LastMessage)

	msgs, _ := repo.GetMessagesByConversation(ctx, conv.ID)
	require.Len(t, msgs, 1)

	require.NoError(t, repo.DeleteMessage(ctx, conv.ID, msgs[0].ID))
	got, _ = repo.GetConversation(ctx, conv.ID)
	assert.Nil(t, got.LastMessage)
	assert.Nil(t, got.LastMessageAt)
}

func TestMarkConversationRead(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")

	mustSend(t, repo, conv.ID, "user1", "a")
	mustSend(t, repo, conv.ID, "user1", "b")
	mine := mustSend(t, repo, conv.ID, "user2", "c")

	updated, err := repo.MarkConversationRead(ctx, conv.ID, "user2")
	require.NoError(t, err)
	assert.Equal(t, 2, updated, "own message is never touched")

	// second call finds nothing to mark and still succeeds
	updated, err = repo.MarkConversationRead(ctx, conv.ID, "user2")
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	msgs, _ := repo.GetMessagesByConversation(ctx, conv.ID)
	for _, m := range msgs {
		if m.ID == mine.ID {
			assert.Equal(t, []string{"user2"}, m.ReadBy)
			continue
		}
		assert.ElementsMatch(t, []string{"user1", "user2"}, m.ReadBy)
	}
}

func TestReadByIsMonotone(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")
	m := mustSend(t, repo, conv.ID, "user1", "hello")

	for i := 0; i < 3; i++ {
		_, err := repo.MarkConversationRead(ctx, conv.ID, "user2")
		require.NoError(t, err)
	}
	got, err := repo.GetMessage(ctx, conv.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user1", "user2"}, got.ReadBy, "no duplicate entries")
}

func TestDeleteConversationIsAtomic(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")
	mustSend(t, repo, conv.ID, "user1", "gone soon")

	require.NoError(t, repo.DeleteConversation(ctx, conv.ID))

	_, err := repo.GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, appErrors.ErrConversationNotFound)
	msgs, err := repo.GetMessagesByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestNotFoundErrorsAreTyped(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	_, err := repo.GetConversation(ctx, "missing")
	assert.True(t, appErrors.Is(err, appErrors.CodeNotFound))

	conv, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")
	_, err = repo.GetMessage(ctx, conv.ID, "missing")
	assert.ErrorIs(t, err, appErrors.ErrMessageNotFound)

	_, err = repo.MarkConversationRead(ctx, "missing", "user1")
	assert.ErrorIs(t, err, appErrors.ErrConversationNotFound)
}

func TestListConversationsOrderedByActivity(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	c1, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")
	c2, _ := repo.GetOrCreateConversation(ctx, "user1", "user3")

	mustSend(t, repo, c1.ID, "user2", "older")
	mustSend(t, repo, c2.ID, "user3", "newer")

	convs, err := repo.ListConversationsByUser(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, c2.ID, convs[0].ID)
	assert.Equal(t, c1.ID, convs[1].ID)

	// activity in the older conversation bumps it back to the top
	mustSend(t, repo, c1.ID, "user2", "latest")
	convs, _ = repo.ListConversationsByUser(ctx, "user1")
	assert.Equal(t, c1.ID, convs[0].ID)
}

func TestGetMessagesReturnsCopies(t *testing.T) {
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	conv, _ := repo.GetOrCreateConversation(ctx, "user1", "user2")
	mustSend(t, repo, conv.ID, "user1", "hello")

	msgs, _ := repo.GetMessagesByConversation(ctx, conv.ID)
	msgs[0].ReadBy = append(msgs[0].ReadBy, "intruder")

	again, _ := repo.GetMessagesByConversation(ctx, conv.ID)
	assert.Equal(t, []string{"user1"}, again[0].ReadBy)
}
