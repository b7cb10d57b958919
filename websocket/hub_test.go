package websocket

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartvillage/backend/models"
)

type fakeDirectory struct {
	roles map[string][]string
}

func (d *fakeDirectory) UserIDsByRole(ctx context.Context, role string) ([]string, error) {
	return d.roles[role], nil
}

func collect(ch *Channel, n int) []Event {
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, <-ch.Events)
	}
	return out
}

func TestPublishAssignsMonotonicSeq(t *testing.T) {
	hub := NewHub(nil, nil)
	ch, err := hub.Subscribe("alice", -1)
	require.NoError(t, err)
	defer hub.Unsubscribe(ch)

	for i := 0; i < 5; i++ {
		hub.PublishToUser("alice", models.EventBookingCreated, nil)
	}

	events := collect(ch, 5)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, models.EventBookingCreated, e.Kind)
	}
}

func TestSeqIsPerUser(t *testing.T) {
	hub := NewHub(nil, nil)
	a, err := hub.Subscribe("alice", -1)
	require.NoError(t, err)
	b, err := hub.Subscribe("bob", -1)
	require.NoError(t, err)

	hub.PublishToUser("alice", "e", nil)
	hub.PublishToUser("alice", "e", nil)
	hub.PublishToUser("bob", "e", nil)

	assert.Equal(t, int64(2), collect(a, 2)[1].Seq)
	assert.Equal(t, int64(1), collect(b, 1)[0].Seq)
}

func TestSubscribeReplaysAfterLastSeq(t *testing.T) {
	hub := NewHub(nil, nil)
	for i := 0; i < 10; i++ {
		hub.PublishToUser("alice", fmt.Sprintf("event-%d", i+1), nil)
	}

	ch, err := hub.Subscribe("alice", 6)
	require.NoError(t, err)
	defer hub.Unsubscribe(ch)

	events := collect(ch, 4)
	assert.Equal(t, int64(7), events[0].Seq)
	assert.Equal(t, int64(10), events[3].Seq)
	assert.Equal(t, "event-7", events[0].Kind)
}

func TestSubscribeLastSeqZeroReplaysEverything(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.PublishToUser("alice", "first", nil)
	hub.PublishToUser("alice", "second", nil)

	ch, err := hub.Subscribe("alice", 0)
	require.NoError(t, err)
	defer hub.Unsubscribe(ch)

	events := collect(ch, 2)
	assert.Equal(t, "first", events[0].Kind)
	assert.Equal(t, "second", events[1].Kind)
}

func TestSubscribeGapAfterTrim(t *testing.T) {
	hub := NewHub(nil, nil)
	total := ReplayLimit + 50
	for i := 0; i < total; i++ {
		hub.PublishToUser("alice", "e", nil)
	}

	// Everything up to seq 50 has been trimmed.
	_, err := hub.Subscribe("alice", 10)
	var gap *ReplayGapError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, int64(51), gap.OldestRetained)

	// The oldest retained event itself is still reachable.
	ch, err := hub.Subscribe("alice", 50)
	require.NoError(t, err)
	defer hub.Unsubscribe(ch)
	assert.Equal(t, int64(51), collect(ch, 1)[0].Seq)
}

func TestSubscribeAheadOfLogIsGap(t *testing.T) {
	hub := NewHub(nil, nil)
	for i := 0; i < 3; i++ {
		hub.PublishToUser("alice", "e", nil)
	}

	// A lastSeq beyond anything assigned means the client's sequence numbers
	// come from a previous hub lifetime.
	_, err := hub.Subscribe("alice", 10)
	var gap *ReplayGapError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, int64(1), gap.OldestRetained)

	// Same for a user this hub has never published to.
	_, err = hub.Subscribe("ghost", 7)
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, int64(0), gap.OldestRetained)

	// The newest assigned seq is still a valid resume point.
	ch, err := hub.Subscribe("alice", 3)
	require.NoError(t, err)
	hub.Unsubscribe(ch)
}

func TestReplayWindowBounded(t *testing.T) {
	hub := NewHub(nil, nil)
	for i := 0; i < ReplayLimit*2; i++ {
		hub.PublishToUser("alice", "e", nil)
	}

	l := hub.userLogFor("alice")
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.events, ReplayLimit)
	assert.Equal(t, int64(ReplayLimit*2), l.lastAssigned)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := NewHub(nil, nil)
	ch, err := hub.Subscribe("alice", -1)
	require.NoError(t, err)

	// Never read: once the buffer fills the hub must drop the channel
	// rather than block the publisher.
	for i := 0; i < cap(ch.Events)+10; i++ {
		hub.PublishToUser("alice", "e", nil)
	}

	_, open := <-ch.Events
	for open {
		_, open = <-ch.Events
	}

	hub.mu.RLock()
	_, registered := hub.channels["alice"]
	hub.mu.RUnlock()
	assert.False(t, registered)
}

func TestPublishToRoleFansOut(t *testing.T) {
	dir := &fakeDirectory{roles: map[string][]string{
		models.RoleAdmin: {"admin1", "admin2"},
	}}
	hub := NewHub(dir, nil)

	a, err := hub.Subscribe("admin1", -1)
	require.NoError(t, err)
	b, err := hub.Subscribe("admin2", -1)
	require.NoError(t, err)

	hub.PublishToRole(context.Background(), models.RoleAdmin, models.EventTicketCreated, nil)

	assert.Equal(t, models.EventTicketCreated, collect(a, 1)[0].Kind)
	assert.Equal(t, models.EventTicketCreated, collect(b, 1)[0].Kind)
}

func TestBroadcastReachesResidentsAndAdmins(t *testing.T) {
	dir := &fakeDirectory{roles: map[string][]string{
		models.RoleResident: {"res1"},
		models.RoleAdmin:    {"admin1"},
	}}
	hub := NewHub(dir, nil)

	r, err := hub.Subscribe("res1", -1)
	require.NoError(t, err)
	a, err := hub.Subscribe("admin1", -1)
	require.NoError(t, err)

	hub.Broadcast(context.Background(), models.EventNewAnnouncement, nil)

	assert.Equal(t, models.EventNewAnnouncement, collect(r, 1)[0].Kind)
	assert.Equal(t, models.EventNewAnnouncement, collect(a, 1)[0].Kind)
}

func TestConcurrentPublishNoGapsNoDuplicates(t *testing.T) {
	hub := NewHub(nil, nil)
	ch, err := hub.Subscribe("alice", -1)
	require.NoError(t, err)
	defer hub.Unsubscribe(ch)

	const publishers = 4
	const perPublisher = 20
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				hub.PublishToUser("alice", "e", nil)
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for i := 0; i < publishers*perPublisher; i++ {
		e := <-ch.Events
		assert.False(t, seen[e.Seq], "duplicate seq %d", e.Seq)
		seen[e.Seq] = true
	}
	for seq := int64(1); seq <= publishers*perPublisher; seq++ {
		assert.True(t, seen[seq], "missing seq %d", seq)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	hub := NewHub(nil, nil)
	ch, err := hub.Subscribe("alice", -1)
	require.NoError(t, err)

	hub.Unsubscribe(ch)
	hub.Unsubscribe(ch)

	// Publishing after unsubscribe must not panic on the closed channel.
	hub.PublishToUser("alice", "e", nil)
}
