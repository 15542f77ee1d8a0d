package unread

import (
	"context"
	"sync"
	"time"

	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

// DefaultRecencyWindow separates "just arrived" messages, which deserve a
// notification, from historical unread backlog replayed on first subscription.
const DefaultRecencyWindow = 5 * time.Second

// Snapshot is the published unread state for one user. PerConversation never
// contains a zero entry, so "has unread" is a key-presence check.
type Snapshot struct {
	Total           int            `json:"total"`
	PerConversation map[string]int `json:"per_conversation"`
}

// Aggregator is a reactive projection from raw message state to per-conversation
// and total unread counts for a single user, plus notification triggering.
// It subscribes to the user's conversation feed and, per conversation, to the
// message feed; each snapshot recomputes the count from scratch. A read signal
// from the reconciler zeroes a conversation immediately, without waiting for
// the next snapshot; either arrival order converges to the same counts.
type Aggregator struct {
	userID   string
	hub      *feed.Hub
	bridge   *Bridge
	notifier Notifier
	names    NameResolver
	log      *logger.Logger

	recencyWindow time.Duration
	now           func() time.Time

	ctx context.Context

	mu            sync.Mutex
	counts        map[string]int
	peers         map[string]string              // conversationID -> other participant
	notified      map[string]map[string]struct{} // conversationID -> message ids already notified
	msgDisposers  map[string]func()
	convDispose   func()
	bridgeDispose func()
	subs          map[int]func(Snapshot)
	nextSubID     int
	notifications bool
	closed        bool
}

func NewAggregator(userID string, hub *feed.Hub, bridge *Bridge, notifier Notifier, names NameResolver, log *logger.Logger) *Aggregator {
	return &Aggregator{
		userID:        userID,
		hub:           hub,
		bridge:        bridge,
		notifier:      notifier,
		names:         names,
		log:           log,
		recencyWindow: DefaultRecencyWindow,
		now:           time.Now,
		counts:        make(map[string]int),
		peers:         make(map[string]string),
		notified:      make(map[string]map[string]struct{}),
		msgDisposers:  make(map[string]func()),
		subs:          make(map[int]func(Snapshot)),
	}
}

// SetRecencyWindow overrides the notification recency threshold. Test hook.
func (a *Aggregator) SetRecencyWindow(d time.Duration) {
	a.mu.Lock()
	a.recencyWindow = d
	a.mu.Unlock()
}

// SetClock overrides the time source. Test hook.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.mu.Lock()
	a.now = now
	a.mu.Unlock()
}

// Start opens the conversation-list subscription and the reconciler signal
// subscription. ctx bounds the store queries issued on each recomputation.
func (a *Aggregator) Start(ctx context.Context) {
	a.mu.Lock()
	if a.closed || a.convDispose != nil {
		a.mu.Unlock()
		return
	}
	a.ctx = ctx
	a.mu.Unlock()

	bridgeDispose := a.bridge.Subscribe(a.onReadSignal)
	convDispose := a.hub.SubscribeConversations(ctx, a.userID, a.onConversations)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		bridgeDispose()
		convDispose()
		return
	}
	a.bridgeDispose = bridgeDispose
	a.convDispose = convDispose
	a.mu.Unlock()
}

// Close tears down every subscription. Subscribers receive nothing further.
func (a *Aggregator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	disposers := make([]func(), 0, len(a.msgDisposers)+2)
	if a.convDispose != nil {
		disposers = append(disposers, a.convDispose)
	}
	if a.bridgeDispose != nil {
		disposers = append(disposers, a.bridgeDispose)
	}
	for _, d := range a.msgDisposers {
		disposers = append(disposers, d)
	}
	a.msgDisposers = make(map[string]func())
	a.subs = make(map[int]func(Snapshot))
	a.mu.Unlock()

	for _, d := range disposers {
		d()
	}
}

// Subscribe registers fn for unread snapshots and delivers the current state
// immediately. Returns a disposer.
func (a *Aggregator) Subscribe(fn func(Snapshot)) func() {
	a.mu.Lock()
	id := a.nextSubID
	a.nextSubID++
	a.subs[id] = fn
	snap := a.snapshotLocked()
	a.mu.Unlock()

	fn(snap)

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// Snapshot returns the current unread state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// HasUnread is a key-presence check, per the zero-entries-removed invariant.
func (a *Aggregator) HasUnread(conversationID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.counts[conversationID]
	return ok
}

// NotificationsEnabled reports the soft notification flag.
func (a *Aggregator) NotificationsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notifications
}

// RequestNotificationPermission asks the notifier for permission and records
// the result. An unavailable or denied channel is not an error: counting and
// badges keep working with notifications off.
func (a *Aggregator) RequestNotificationPermission(ctx context.Context) bool {
	granted := false
	if a.notifier != nil {
		var err error
		granted, err = a.notifier.RequestPermission(ctx)
		if err != nil {
			a.log.Warn("notification permission request failed", "user_id", a.userID, "err", err)
			granted = false
		}
	}
	a.mu.Lock()
	a.notifications = granted
	a.mu.Unlock()
	return granted
}

// onConversations reconciles per-conversation message subscriptions against
// the new conversation list: stale subscriptions are disposed before new ones
// open, so a resubscribe never double-counts.
func (a *Aggregator) onConversations(convs []chat.Conversation) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	ctx := a.ctx

	current := make(map[string]struct{}, len(convs))
	var toSubscribe []chat.Conversation
	for _, c := range convs {
		current[c.ID] = struct{}{}
		a.peers[c.ID] = c.OtherParticipant(a.userID)
		if _, ok := a.msgDisposers[c.ID]; !ok {
			toSubscribe = append(toSubscribe, c)
			// placeholder so a concurrent push cannot double-subscribe
			a.msgDisposers[c.ID] = func() {}
		}
	}

	var stale []func()
	changed := false
	for id, dispose := range a.msgDisposers {
		if _, ok := current[id]; ok {
			continue
		}
		stale = append(stale, dispose)
		delete(a.msgDisposers, id)
		delete(a.peers, id)
		delete(a.notified, id)
		if _, had := a.counts[id]; had {
			delete(a.counts, id)
			changed = true
		}
	}
	a.mu.Unlock()

	for _, dispose := range stale {
		dispose()
	}
	for _, c := range toSubscribe {
		conversationID := c.ID
		dispose := a.hub.SubscribeMessages(ctx, conversationID, func(msgs []chat.Message) {
			a.onMessages(conversationID, msgs)
		})
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			dispose()
			continue
		}
		a.msgDisposers[conversationID] = dispose
		a.mu.Unlock()
	}

	if changed {
		a.publish()
	}
}

// onMessages recomputes one conversation's count from the full snapshot.
func (a *Aggregator) onMessages(conversationID string, msgs []chat.Message) {
	unread := chat.UnreadMessages(msgs, a.userID)
	count := len(unread)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	prev := a.counts[conversationID]
	if count == 0 {
		delete(a.counts, conversationID)
	} else {
		a.counts[conversationID] = count
	}
	// Keep the notified set trimmed to messages still unread so it cannot
	// grow without bound, and so a message re-entering unread cannot happen
	// silently (ReadBy is monotone; it never does).
	seen := a.notified[conversationID]
	trimmed := make(map[string]struct{}, len(unread))
	for _, m := range unread {
		if _, ok := seen[m.ID]; ok {
			trimmed[m.ID] = struct{}{}
		}
	}

	var fresh []chat.Message
	if count > prev && a.notifications {
		cutoff := a.now().Add(-a.recencyWindow)
		for _, m := range unread {
			if m.SentAt.Before(cutoff) {
				continue
			}
			if _, ok := trimmed[m.ID]; ok {
				continue
			}
			trimmed[m.ID] = struct{}{}
			fresh = append(fresh, m)
		}
	}
	a.notified[conversationID] = trimmed
	peer := a.peers[conversationID]
	ctx := a.ctx
	a.mu.Unlock()

	for _, m := range fresh {
		a.notify(ctx, peer, m)
	}
	a.publish()
}

// onReadSignal zeroes a conversation the moment the reconciler reports it
// read, covering the latency between the batched write and its own snapshot.
func (a *Aggregator) onReadSignal(s Signal) {
	if s.UserID != a.userID {
		return
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	delete(a.counts, s.ConversationID)
	a.mu.Unlock()
	a.publish()
}

func (a *Aggregator) notify(ctx context.Context, senderID string, m chat.Message) {
	if a.notifier == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	title := a.resolveName(ctx, senderID, m.SenderID)
	n := Notification{
		UserID:         a.userID,
		ConversationID: m.ConversationID,
		MessageID:      m.ID,
		Title:          title,
		Body:           m.Summary(),
	}
	if err := a.notifier.Notify(ctx, n); err != nil {
		a.log.Warn("notification delivery failed", "user_id", a.userID,
			"conversation_id", m.ConversationID, "err", err)
	}
}

func (a *Aggregator) resolveName(ctx context.Context, peerID, senderID string) string {
	id := peerID
	if id == "" {
		id = senderID
	}
	if a.names != nil {
		if name, err := a.names.DisplayName(ctx, id); err == nil && name != "" {
			return name
		}
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *Aggregator) publish() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	snap := a.snapshotLocked()
	callbacks := make([]func(Snapshot), 0, len(a.subs))
	for _, fn := range a.subs {
		callbacks = append(callbacks, fn)
	}
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(snap)
	}
}

func (a *Aggregator) snapshotLocked() Snapshot {
	per := make(map[string]int, len(a.counts))
	total := 0
	for id, n := range a.counts {
		per[id] = n
		total += n
	}
	return Snapshot{Total: total, PerConversation: per}
}
