package unread

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/adapter"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

// fakeNotifier records every trigger and grants permission unless told not to.
type fakeNotifier struct {
	mu      sync.Mutex
	grant   bool
	fired   []Notification
	permErr error
}

func (f *fakeNotifier) RequestPermission(context.Context) (bool, error) {
	return f.grant, f.permErr
}

func (f *fakeNotifier) Notify(_ context.Context, n Notification) error {
	f.mu.Lock()
	f.fired = append(f.fired, n)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) notifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.fired...)
}

// fakeNames maps user ids to display names.
type fakeNames map[string]string

func (f fakeNames) DisplayName(_ context.Context, userID string) (string, error) {
	if name, ok := f[userID]; ok {
		return name, nil
	}
	return "", nil
}

type world struct {
	repo     *adapter.MemoryConversationRepository
	hub      *feed.Hub
	bridge   *Bridge
	notifier *fakeNotifier
	agg      *Aggregator
}

func newWorld(t *testing.T, userID string) *world {
	t.Helper()
	repo := adapter.NewMemoryConversationRepository()
	hub := feed.NewHub(repo, logger.Nop())
	bridge := NewBridge()
	notifier := &fakeNotifier{grant: true}
	names := fakeNames{"user1": "Ana Gomez", "user3": "Luis Perez"}

	agg := NewAggregator(userID, hub, bridge, notifier, names, logger.Nop())
	agg.Start(context.Background())
	t.Cleanup(agg.Close)

	return &world{repo: repo, hub: hub, bridge: bridge, notifier: notifier, agg: agg}
}

func (w *world) open(t *testing.T, a, b string) chat.Conversation {
	t.Helper()
	ctx := context.Background()
	conv, err := w.repo.GetOrCreateConversation(ctx, a, b)
	require.NoError(t, err)
	w.hub.InvalidateConversations(ctx, a, b)
	return conv
}

func (w *world) send(t *testing.T, convID, sender, content string) chat.Message {
	t.Helper()
	ctx := context.Background()
	m, err := chat.NewMessage(convID, sender, content, chat.MessageTypeText, nil)
	require.NoError(t, err)
	saved, err := w.repo.SaveMessage(ctx, *m)
	require.NoError(t, err)
	w.hub.InvalidateMessages(ctx, convID)
	return saved
}

func (w *world) markRead(t *testing.T, convID, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := w.repo.MarkConversationRead(ctx, convID, userID)
	require.NoError(t, err)
	w.bridge.Publish(Signal{ConversationID: convID, UserID: userID})
	w.hub.InvalidateMessages(ctx, convID)
}

func totalIsSum(t *testing.T, s Snapshot) {
	t.Helper()
	sum := 0
	for id, n := range s.PerConversation {
		require.Positive(t, n, "zero entries must be removed, found one for %s", id)
		sum += n
	}
	assert.Equal(t, sum, s.Total)
}

func TestIncomingMessageRaisesCounts(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "hello")

	snap := w.agg.Snapshot()
	assert.Equal(t, 1, snap.Total)
	assert.Equal(t, 1, snap.PerConversation[conv.ID])
	assert.True(t, w.agg.HasUnread(conv.ID))
	totalIsSum(t, snap)
}

func TestOwnMessagesNeverCount(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user2", "my own words")

	snap := w.agg.Snapshot()
	assert.Equal(t, 0, snap.Total)
	assert.Empty(t, snap.PerConversation)
	assert.False(t, w.agg.HasUnread(conv.ID))
}

func TestMarkReadZeroesConversation(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "one")
	w.send(t, conv.ID, "user1", "two")
	require.Equal(t, 2, w.agg.Snapshot().Total)

	w.markRead(t, conv.ID, "user2")

	snap := w.agg.Snapshot()
	assert.Equal(t, 0, snap.Total)
	assert.False(t, w.agg.HasUnread(conv.ID))

	// a second mark-read changes nothing and breaks nothing
	w.markRead(t, conv.ID, "user2")
	assert.Equal(t, 0, w.agg.Snapshot().Total)
}

func TestSignalBeforeSnapshotConverges(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "hello")

	// signal arrives before the store write, then the snapshot catches up;
	// the end state must be the same either way
	w.bridge.Publish(Signal{ConversationID: conv.ID, UserID: "user2"})
	assert.Equal(t, 0, w.agg.Snapshot().Total)

	_, err := w.repo.MarkConversationRead(context.Background(), conv.ID, "user2")
	require.NoError(t, err)
	w.hub.InvalidateMessages(context.Background(), conv.ID)
	assert.Equal(t, 0, w.agg.Snapshot().Total)
}

func TestSignalForOtherUserIsIgnored(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "hello")

	w.bridge.Publish(Signal{ConversationID: conv.ID, UserID: "user1"})
	assert.Equal(t, 1, w.agg.Snapshot().Total)
}

func TestCountsAcrossConversations(t *testing.T) {
	w := newWorld(t, "user2")
	c1 := w.open(t, "user1", "user2")
	c2 := w.open(t, "user2", "user3")

	w.send(t, c1.ID, "user1", "a")
	w.send(t, c1.ID, "user1", "b")
	w.send(t, c2.ID, "user3", "c")

	snap := w.agg.Snapshot()
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.PerConversation[c1.ID])
	assert.Equal(t, 1, snap.PerConversation[c2.ID])
	totalIsSum(t, snap)
}

func TestSubscriberReceivesCurrentStateImmediately(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "pending")

	var got []Snapshot
	dispose := w.agg.Subscribe(func(s Snapshot) { got = append(got, s) })
	defer dispose()

	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].Total)

	w.send(t, conv.ID, "user1", "another")
	assert.Equal(t, 2, got[len(got)-1].Total)
}

func TestFreshMessagesNotifyOncePerMessage(t *testing.T) {
	w := newWorld(t, "user2")
	require.True(t, w.agg.RequestNotificationPermission(context.Background()))
	conv := w.open(t, "user1", "user2")

	m1 := w.send(t, conv.ID, "user1", "first")
	m2 := w.send(t, conv.ID, "user1", "second")
	// an extra push with no new messages must not re-notify
	w.hub.InvalidateMessages(context.Background(), conv.ID)

	fired := w.notifier.notifications()
	require.Len(t, fired, 2, "exactly one trigger per message")
	assert.Equal(t, m1.ID, fired[0].MessageID)
	assert.Equal(t, m2.ID, fired[1].MessageID)
	for _, n := range fired {
		assert.Equal(t, "user2", n.UserID)
		assert.Equal(t, "Ana Gomez", n.Title)
		assert.Equal(t, conv.ID, n.ConversationID)
	}
	assert.Equal(t, "first", fired[0].Body)
}

func TestBacklogOutsideRecencyWindowDoesNotNotify(t *testing.T) {
	w := newWorld(t, "user2")
	require.True(t, w.agg.RequestNotificationPermission(context.Background()))

	// pretend the aggregator's clock runs well ahead of the store stamps
	w.agg.SetClock(func() time.Time { return time.Now().Add(time.Hour) })

	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "old news")

	assert.Empty(t, w.notifier.notifications())
	assert.Equal(t, 1, w.agg.Snapshot().Total, "counting still works without notifications")
}

func TestNotificationsOffByDefault(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "quiet")

	assert.False(t, w.agg.NotificationsEnabled())
	assert.Empty(t, w.notifier.notifications())
}

func TestPermissionFailureDisablesNotifications(t *testing.T) {
	w := newWorld(t, "user2")
	w.notifier.permErr = assert.AnError
	w.notifier.grant = true

	assert.False(t, w.agg.RequestNotificationPermission(context.Background()))
	assert.False(t, w.agg.NotificationsEnabled())

	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "still counted")
	assert.Equal(t, 1, w.agg.Snapshot().Total)
}

func TestNotificationFallsBackToIDPrefix(t *testing.T) {
	w := newWorld(t, "user2")
	require.True(t, w.agg.RequestNotificationPermission(context.Background()))

	conv := w.open(t, "user2", "unknown-user-xyz")
	w.send(t, conv.ID, "unknown-user-xyz", "hi")

	fired := w.notifier.notifications()
	require.Len(t, fired, 1)
	assert.Equal(t, "unknown-", fired[0].Title)
}

func TestImageNotificationUsesPlaceholderBody(t *testing.T) {
	w := newWorld(t, "user2")
	require.True(t, w.agg.RequestNotificationPermission(context.Background()))
	conv := w.open(t, "user1", "user2")

	m, err := chat.NewMessage(conv.ID, "user1", "", chat.MessageTypeImage, &chat.Attachment{URL: "/attachments/x.png"})
	require.NoError(t, err)
	_, err = w.repo.SaveMessage(context.Background(), *m)
	require.NoError(t, err)
	w.hub.InvalidateMessages(context.Background(), conv.ID)

	fired := w.notifier.notifications()
	require.Len(t, fired, 1)
	assert.Equal(t, chat.ImagePlaceholder, fired[0].Body)
}

func TestRemovedConversationDropsFromCounts(t *testing.T) {
	w := newWorld(t, "user2")
	conv := w.open(t, "user1", "user2")
	w.send(t, conv.ID, "user1", "hello")
	require.Equal(t, 1, w.agg.Snapshot().Total)

	ctx := context.Background()
	require.NoError(t, w.repo.DeleteConversation(ctx, conv.ID))
	w.hub.InvalidateConversations(ctx, "user1", "user2")

	snap := w.agg.Snapshot()
	assert.Equal(t, 0, snap.Total)
	assert.Empty(t, snap.PerConversation)
}

func TestCloseDisposesEverything(t *testing.T) {
	repo := adapter.NewMemoryConversationRepository()
	hub := feed.NewHub(repo, logger.Nop())
	bridge := NewBridge()
	notifier := &fakeNotifier{grant: true}

	agg := NewAggregator("user2", hub, bridge, notifier, fakeNames{}, logger.Nop())
	agg.Start(context.Background())

	ctx := context.Background()
	conv, err := repo.GetOrCreateConversation(ctx, "user1", "user2")
	require.NoError(t, err)
	hub.InvalidateConversations(ctx, "user1", "user2")

	var pushes int
	agg.Subscribe(func(Snapshot) { pushes++ })
	before := pushes

	agg.Close()
	agg.Close() // idempotent

	m, err := chat.NewMessage(conv.ID, "user1", "after close", chat.MessageTypeText, nil)
	require.NoError(t, err)
	_, err = repo.SaveMessage(ctx, *m)
	require.NoError(t, err)
	hub.InvalidateMessages(ctx, conv.ID)
	hub.InvalidateConversations(ctx, "user1", "user2")
	bridge.Publish(Signal{ConversationID: conv.ID, UserID: "user2"})

	assert.Equal(t, before, pushes, "no deliveries after Close")
	assert.Equal(t, 0, agg.Snapshot().Total)
}

// Randomized interleaving of sends, mark-reads and redundant pushes must
// always converge to the recompute-from-scratch oracle.
func TestInterleavingConvergesToOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		w := newWorld(t, "user2")
		c1 := w.open(t, "user1", "user2")
		c2 := w.open(t, "user2", "user3")
		convs := []chat.Conversation{c1, c2}
		senders := map[string]string{c1.ID: "user1", c2.ID: "user3"}

		for step := 0; step < 30; step++ {
			conv := convs[rng.Intn(len(convs))]
			switch rng.Intn(4) {
			case 0, 1:
				w.send(t, conv.ID, senders[conv.ID], "msg")
			case 2:
				w.markRead(t, conv.ID, "user2")
			case 3:
				w.hub.InvalidateMessages(context.Background(), conv.ID)
			}
		}

		ctx := context.Background()
		want := 0
		perWant := map[string]int{}
		for _, conv := range convs {
			msgs, err := w.repo.GetMessagesByConversation(ctx, conv.ID)
			require.NoError(t, err)
			if n := chat.CountUnread(msgs, "user2"); n > 0 {
				perWant[conv.ID] = n
				want += n
			}
		}

		snap := w.agg.Snapshot()
		assert.Equal(t, want, snap.Total, "round %d diverged from oracle", round)
		assert.Equal(t, perWant, snap.PerConversation, "round %d per-conversation mismatch", round)
		totalIsSum(t, snap)
	}
}
