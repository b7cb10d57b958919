package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/smartvillage/backend/models"
)

type fakeRepairStore struct {
	mu      sync.Mutex
	tickets map[primitive.ObjectID]*models.RepairTicket
}

func newFakeRepairStore() *fakeRepairStore {
	return &fakeRepairStore{tickets: make(map[primitive.ObjectID]*models.RepairTicket)}
}

func (s *fakeRepairStore) Insert(ctx context.Context, t *models.RepairTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

func (s *fakeRepairStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RepairTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	cp.History = append([]models.TicketStatusChange(nil), t.History...)
	return &cp, nil
}

func (s *fakeRepairStore) ApplyTransition(ctx context.Context, id primitive.ObjectID, status string, change models.TicketStatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	t.History = append(t.History, change)
	t.UpdatedAt = change.Timestamp
	return nil
}

func TestNextTicketStatus(t *testing.T) {
	tests := []struct {
		name    string
		current string
		event   string
		role    string
		want    string
		wantErr error
	}{
		{"start submitted", models.TicketStatusSubmitted, models.TicketEventStart, models.RoleAdmin, models.TicketStatusInProgress, nil},
		{"complete in progress", models.TicketStatusInProgress, models.TicketEventComplete, models.RoleAdmin, models.TicketStatusCompleted, nil},
		{"complete without start", models.TicketStatusSubmitted, models.TicketEventComplete, models.RoleAdmin, "", &InvalidTransitionError{}},
		{"start twice", models.TicketStatusInProgress, models.TicketEventStart, models.RoleAdmin, "", &InvalidTransitionError{}},
		{"completed is terminal", models.TicketStatusCompleted, models.TicketEventStart, models.RoleAdmin, "", &InvalidTransitionError{}},
		{"resident cannot drive", models.TicketStatusSubmitted, models.TicketEventStart, models.RoleResident, "", ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextTicketStatus(tt.current, tt.event, tt.role)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			if tt.wantErr == ErrForbidden {
				assert.ErrorIs(t, err, ErrForbidden)
				return
			}
			var invalid *InvalidTransitionError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestCreateTicketRecordsHistoryAndNotifiesAdmins(t *testing.T) {
	store := newFakeRepairStore()
	pub := &fakePublisher{}
	svc := NewRepairService(store, pub)
	requester := primitive.NewObjectID()

	ticket, err := svc.Create(context.Background(), requester, "Broken tap", "plumbing", "Kitchen tap leaks", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusSubmitted, ticket.Status)
	require.Len(t, ticket.History, 1)
	assert.Equal(t, models.TicketStatusSubmitted, ticket.History[0].Status)
	assert.Equal(t, requester, ticket.History[0].ActorID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "role:"+models.RoleAdmin, pub.events[0].Target)
	assert.Equal(t, models.EventTicketCreated, pub.events[0].Kind)
}

func TestTransitionTicketFullLifecycle(t *testing.T) {
	store := newFakeRepairStore()
	pub := &fakePublisher{}
	svc := NewRepairService(store, pub)
	ctx := context.Background()
	requester := primitive.NewObjectID()
	admin := primitive.NewObjectID()

	ticket, err := svc.Create(ctx, requester, "Broken tap", "", "leaks", nil)
	require.NoError(t, err)

	ticket, err = svc.Transition(ctx, ticket.ID, models.TicketEventStart, admin, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusInProgress, ticket.Status)

	ticket, err = svc.Transition(ctx, ticket.ID, models.TicketEventComplete, admin, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCompleted, ticket.Status)

	// submitted + start + complete
	require.Len(t, ticket.History, 3)
	assert.Equal(t, admin, ticket.History[2].ActorID)

	// The creator heard about both transitions.
	var toCreator int
	for _, e := range pub.events {
		if e.Target == requester.Hex() && e.Kind == models.EventTicketStatusChanged {
			toCreator++
		}
	}
	assert.Equal(t, 2, toCreator)
}

func TestTransitionTicketRejectsIllegalEvent(t *testing.T) {
	store := newFakeRepairStore()
	svc := NewRepairService(store, &fakePublisher{})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, primitive.NewObjectID(), "t", "", "d", nil)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, ticket.ID, models.TicketEventComplete, primitive.NewObjectID(), models.RoleAdmin)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.TicketStatusSubmitted, invalid.Current)

	// Failed transition leaves history untouched.
	got, err := store.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 1)
}

func TestTransitionTicketForbiddenForResidents(t *testing.T) {
	store := newFakeRepairStore()
	svc := NewRepairService(store, &fakePublisher{})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, primitive.NewObjectID(), "t", "", "d", nil)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, ticket.ID, models.TicketEventStart, ticket.UserID, models.RoleResident)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConcurrentTicketTransitionsOneWins(t *testing.T) {
	store := newFakeRepairStore()
	svc := NewRepairService(store, &fakePublisher{})
	ctx := context.Background()

	ticket, err := svc.Create(ctx, primitive.NewObjectID(), "t", "", "d", nil)
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Transition(ctx, ticket.ID, models.TicketEventStart, primitive.NewObjectID(), models.RoleAdmin)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var invalid *InvalidTransitionError
		assert.ErrorAs(t, err, &invalid)
	}
	assert.Equal(t, 1, succeeded)

	got, err := store.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusInProgress, got.Status)
	assert.Len(t, got.History, 2)
	assert.WithinDuration(t, time.Now(), got.UpdatedAt, time.Minute)
}
