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

type publishedEvent struct {
	Target string
	Kind   string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishToUser(userID, kind string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Target: userID, Kind: kind})
}

func (p *fakePublisher) PublishToRole(ctx context.Context, role, kind string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Target: "role:" + role, Kind: kind})
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]*models.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[primitive.ObjectID]*models.Booking)}
}

func (s *fakeBookingStore) Insert(ctx context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *fakeBookingStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeBookingStore) ListActive(ctx context.Context, facilityID primitive.ObjectID) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.FacilityID != facilityID {
			continue
		}
		if b.Status == models.BookingStatusPending || b.Status == models.BookingStatusApproved {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	return nil
}

func newBookingFixture() (*BookingService, *fakeBookingStore, *fakePublisher) {
	store := newFakeBookingStore()
	pub := &fakePublisher{}
	svc := NewBookingService(store, pub)
	return svc, store, pub
}

func hour(h int) time.Time {
	return time.Date(2026, 9, 1, h, 0, 0, 0, time.UTC)
}

func rng(from, to int) models.TimeRange {
	return models.TimeRange{Start: hour(from), End: hour(to)}
}

func TestSubmitBookingCreatesPending(t *testing.T) {
	svc, _, pub := newBookingFixture()
	facility := primitive.NewObjectID()
	user := primitive.NewObjectID()

	booking, err := svc.Submit(context.Background(), facility, user, rng(9, 11), "yoga class", 12)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, facility, booking.FacilityID)
	assert.Contains(t, pub.kinds(), models.EventBookingCreated)
}

func TestSubmitBookingRejectsInvalidRange(t *testing.T) {
	svc, _, _ := newBookingFixture()

	_, err := svc.Submit(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), rng(11, 9), "", 1)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.Submit(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), rng(9, 9), "", 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSubmitBookingConflictsWithActive(t *testing.T) {
	svc, _, _ := newBookingFixture()
	facility := primitive.NewObjectID()
	ctx := context.Background()

	first, err := svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, facility, primitive.NewObjectID(), rng(10, 12), "", 1)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID.Hex(), conflict.BookingID)
}

func TestSubmitBookingAdjacentRangesAllowed(t *testing.T) {
	svc, _, _ := newBookingFixture()
	facility := primitive.NewObjectID()
	ctx := context.Background()

	_, err := svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
	require.NoError(t, err)

	// [11,13) starts exactly where [9,11) ends.
	_, err = svc.Submit(ctx, facility, primitive.NewObjectID(), rng(11, 13), "", 1)
	assert.NoError(t, err)
}

func TestSubmitBookingOtherFacilityDoesNotConflict(t *testing.T) {
	svc, _, _ := newBookingFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, primitive.NewObjectID(), primitive.NewObjectID(), rng(9, 11), "", 1)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, primitive.NewObjectID(), primitive.NewObjectID(), rng(9, 11), "", 1)
	assert.NoError(t, err)
}

func TestSubmitBookingIgnoresRejectedAndCancelled(t *testing.T) {
	svc, store, _ := newBookingFixture()
	facility := primitive.NewObjectID()
	ctx := context.Background()

	old, err := svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatus(ctx, old.ID, models.BookingStatusCancelled, hour(8)))

	_, err = svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
	assert.NoError(t, err)
}

func TestDecideApproveAutoRejectsOverlappingPending(t *testing.T) {
	svc, store, pub := newBookingFixture()
	facility := primitive.NewObjectID()
	ctx := context.Background()

	winner, err := svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
	require.NoError(t, err)

	// A pending sibling overlapping the winner, inserted directly so the
	// submit-time conflict check does not block it.
	loser := &models.Booking{
		ID:         primitive.NewObjectID(),
		FacilityID: facility,
		UserID:     primitive.NewObjectID(),
		Range:      rng(10, 12),
		Status:     models.BookingStatusPending,
	}
	require.NoError(t, store.Insert(ctx, loser))

	// And a pending sibling outside the winner's range that must survive.
	bystander := &models.Booking{
		ID:         primitive.NewObjectID(),
		FacilityID: facility,
		UserID:     primitive.NewObjectID(),
		Range:      rng(14, 16),
		Status:     models.BookingStatusPending,
	}
	require.NoError(t, store.Insert(ctx, bystander))

	decided, err := svc.Decide(ctx, winner.ID, models.BookingDecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusApproved, decided.Status)

	got, err := store.FindByID(ctx, loser.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRejected, got.Status)

	got, err = store.FindByID(ctx, bystander.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, got.Status)

	assert.Contains(t, pub.kinds(), models.EventBookingApproved)
	assert.Contains(t, pub.kinds(), models.EventBookingAutoRejected)
}

func TestDecideRejectsNonPending(t *testing.T) {
	svc, _, _ := newBookingFixture()
	facility := primitive.NewObjectID()
	ctx := context.Background()

	booking, err := svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, booking.ID, models.BookingDecisionApprove)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, booking.ID, models.BookingDecisionApprove)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.BookingStatusApproved, invalid.Current)
}

func TestDecideUnknownBooking(t *testing.T) {
	svc, _, _ := newBookingFixture()

	_, err := svc.Decide(context.Background(), primitive.NewObjectID(), models.BookingDecisionApprove)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelByRequesterBeforeStart(t *testing.T) {
	svc, _, pub := newBookingFixture()
	user := primitive.NewObjectID()
	ctx := context.Background()
	svc.now = func() time.Time { return hour(8) }

	booking, err := svc.Submit(ctx, primitive.NewObjectID(), user, rng(9, 11), "", 1)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, booking.ID, user)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Contains(t, pub.kinds(), models.EventBookingCancelled)
}

func TestCancelByOtherUserForbidden(t *testing.T) {
	svc, _, _ := newBookingFixture()
	ctx := context.Background()
	svc.now = func() time.Time { return hour(8) }

	booking, err := svc.Submit(ctx, primitive.NewObjectID(), primitive.NewObjectID(), rng(9, 11), "", 1)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelAfterStartTooLate(t *testing.T) {
	svc, _, _ := newBookingFixture()
	user := primitive.NewObjectID()
	ctx := context.Background()
	svc.now = func() time.Time { return hour(8) }

	booking, err := svc.Submit(ctx, primitive.NewObjectID(), user, rng(9, 11), "", 1)
	require.NoError(t, err)

	// Exactly at the start is already too late.
	svc.now = func() time.Time { return hour(9) }
	_, err = svc.Cancel(ctx, booking.ID, user)
	assert.ErrorIs(t, err, ErrTooLate)
}

func TestCancelFreedSlotReusable(t *testing.T) {
	svc, _, _ := newBookingFixture()
	user := primitive.NewObjectID()
	facility := primitive.NewObjectID()
	ctx := context.Background()
	svc.now = func() time.Time { return hour(8) }

	booking, err := svc.Submit(ctx, facility, user, rng(9, 11), "", 1)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, booking.ID, user)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
	assert.NoError(t, err)
}

func TestConcurrentSubmitsOneWins(t *testing.T) {
	svc, store, _ := newBookingFixture()
	facility := primitive.NewObjectID()
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, facility, primitive.NewObjectID(), rng(9, 11), "", 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, succeeded)

	active, err := store.ListActive(ctx, facility)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
