package websocket

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartvillage/backend/models"
)

// ReplayLimit is how many events are retained per user for catch-up after a
// reconnect. Anything older has to come from the persisted notification feed.
const ReplayLimit = 200

// Event is one message pushed to a user. Seq is monotonically increasing per
// user and never reused, so clients can detect gaps.
type Event struct {
	Seq       int64       `json:"seq"`
	Kind      string      `json:"kind"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReplayGapError reports a reconnect whose lastSeq has already been trimmed
// from the replay window. The client must refetch state over HTTP and
// resubscribe from OldestRetained.
type ReplayGapError struct {
	OldestRetained int64
}

func (e *ReplayGapError) Error() string {
	return fmt.Sprintf("requested events no longer retained, oldest available seq is %d", e.OldestRetained)
}

// RoleDirectory resolves a role name to the ids of the users holding it.
// Backed by the user repository.
type RoleDirectory interface {
	UserIDsByRole(ctx context.Context, role string) ([]string, error)
}

// FeedStore persists a durable copy of each delivered event, browsable after
// the replay window has passed. Optional; a nil store disables persistence.
type FeedStore interface {
	Append(ctx context.Context, userID string, seq int64, kind string, payload interface{}, at time.Time) error
}

// Channel is one live subscription. Events arrives in seq order; the hub
// closes it when the subscriber falls too far behind or unsubscribes.
type Channel struct {
	ID     string
	UserID string
	Events chan Event
}

// userLog holds a user's recent events and the sequence counter. Sequence
// numbers keep counting after trimming so replay gaps are detectable.
type userLog struct {
	mu           sync.Mutex
	lastAssigned int64
	events       []Event
}

// Hub fans domain events out to connected clients. Publishing never blocks:
// a subscriber whose channel buffer is full is dropped and has to
// reconnect through the replay path.
type Hub struct {
	mu        sync.RWMutex
	channels  map[string]map[*Channel]bool
	logs      map[string]*userLog
	directory RoleDirectory
	feed      FeedStore
}

// NewHub creates a new Hub instance.
func NewHub(directory RoleDirectory, feed FeedStore) *Hub {
	return &Hub{
		channels:  make(map[string]map[*Channel]bool),
		logs:      make(map[string]*userLog),
		directory: directory,
		feed:      feed,
	}
}

func (h *Hub) userLogFor(userID string) *userLog {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.logs[userID]
	if !ok {
		l = &userLog{}
		h.logs[userID] = l
	}
	return l
}

// PublishToUser appends an event to the user's log and pushes it to every
// live subscription. Slow subscribers are detached rather than waited on.
func (h *Hub) PublishToUser(userID, kind string, payload interface{}) {
	l := h.userLogFor(userID)

	l.mu.Lock()
	l.lastAssigned++
	event := Event{
		Seq:       l.lastAssigned,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	l.events = append(l.events, event)
	if len(l.events) > ReplayLimit {
		l.events = l.events[len(l.events)-ReplayLimit:]
	}

	// Fan out while still holding the log lock, so a concurrent Subscribe
	// either replays this event or receives it live, never both.
	var slow []*Channel
	h.mu.RLock()
	for ch := range h.channels[userID] {
		select {
		case ch.Events <- event:
		default:
			slow = append(slow, ch)
		}
	}
	h.mu.RUnlock()
	l.mu.Unlock()

	for _, ch := range slow {
		log.Printf("Subscriber %s for user %s is too slow, dropping connection", ch.ID, userID)
		h.Unsubscribe(ch)
	}

	if h.feed != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.feed.Append(ctx, userID, event.Seq, kind, payload, event.Timestamp); err != nil {
				log.Printf("Failed to persist notification for user %s: %v", userID, err)
			}
		}()
	}
}

// PublishToRole delivers an event to every user currently holding the role.
// Each recipient gets their own sequence number.
func (h *Hub) PublishToRole(ctx context.Context, role, kind string, payload interface{}) {
	if h.directory == nil {
		return
	}
	userIDs, err := h.directory.UserIDsByRole(ctx, role)
	if err != nil {
		log.Printf("Failed to resolve role %s for event %s: %v", role, kind, err)
		return
	}
	for _, id := range userIDs {
		h.PublishToUser(id, kind, payload)
	}
}

// Broadcast delivers an event to every known user, resident and admin alike.
func (h *Hub) Broadcast(ctx context.Context, kind string, payload interface{}) {
	h.PublishToRole(ctx, models.RoleResident, kind, payload)
	h.PublishToRole(ctx, models.RoleAdmin, kind, payload)
}

// Subscribe opens a live subscription for userID. When lastSeq >= 0 the
// retained events after lastSeq are queued on the channel before it goes
// live; a lastSeq older than the window, or ahead of anything this hub has
// assigned (a client that outlived a restart), is a ReplayGapError. Pass a
// negative lastSeq to subscribe live-only.
func (h *Hub) Subscribe(userID string, lastSeq int64) (*Channel, error) {
	l := h.userLogFor(userID)
	ch := &Channel{
		ID:     uuid.New().String(),
		UserID: userID,
		Events: make(chan Event, ReplayLimit+16),
	}

	// Replay and registration happen under the log lock so no event
	// published in between is missed or duplicated.
	l.mu.Lock()
	if lastSeq >= 0 {
		var oldest int64
		if len(l.events) > 0 {
			oldest = l.events[0].Seq
		}
		if lastSeq < oldest-1 || lastSeq > l.lastAssigned {
			l.mu.Unlock()
			return nil, &ReplayGapError{OldestRetained: oldest}
		}
		for _, e := range l.events {
			if e.Seq > lastSeq {
				ch.Events <- e
			}
		}
	}

	h.mu.Lock()
	if h.channels[userID] == nil {
		h.channels[userID] = make(map[*Channel]bool)
	}
	h.channels[userID][ch] = true
	h.mu.Unlock()
	l.mu.Unlock()

	return ch, nil
}

// Unsubscribe detaches a subscription and closes its channel. Safe to call
// more than once.
func (h *Hub) Unsubscribe(ch *Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[ch.UserID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(h.channels, ch.UserID)
	}
	close(ch.Events)
}
