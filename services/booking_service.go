// services/booking_service.go
package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/smartvillage/backend/models"
)

// BookingStore is the persistence boundary of the conflict engine.
// Implementations must return ErrNotFound for unknown ids.
type BookingStore interface {
	Insert(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	// ListActive returns the facility's bookings with status pending or
	// approved, the only ones that reserve the slot.
	ListActive(ctx context.Context, facilityID primitive.ObjectID) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error
}

// BookingService owns all reservations. Every mutating call on a facility
// runs under that facility's lock, so the overlap check and the write it
// guards are atomic; bookings on different facilities never serialize
// against each other.
type BookingService struct {
	store BookingStore
	pub   Publisher
	locks lockMap
	now   func() time.Time
}

// NewBookingService creates a new booking service.
func NewBookingService(store BookingStore, pub Publisher) *BookingService {
	return &BookingService{store: store, pub: pub, now: time.Now}
}

// Submit validates and inserts a new pending booking. Overlap against any
// pending or approved booking on the same facility is a ConflictError
// naming the colliding booking. Adjacent ranges are legal.
func (s *BookingService) Submit(ctx context.Context, facilityID, requesterID primitive.ObjectID, rng models.TimeRange, purpose string, attendees int) (*models.Booking, error) {
	if !rng.IsValid() {
		return nil, ErrInvalidRange
	}

	unlock := s.locks.lock(facilityID.Hex())
	defer unlock()

	active, err := s.store.ListActive(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	for _, b := range active {
		if b.Range.Overlaps(rng) {
			return nil, &ConflictError{BookingID: b.ID.Hex()}
		}
	}

	now := s.now()
	booking := &models.Booking{
		ID:            primitive.NewObjectID(),
		FacilityID:    facilityID,
		UserID:        requesterID,
		Range:         rng,
		Purpose:       purpose,
		AttendeeCount: attendees,
		Status:        models.BookingStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, booking); err != nil {
		return nil, err
	}

	s.pub.PublishToUser(requesterID.Hex(), models.EventBookingCreated, booking)
	s.pub.PublishToRole(ctx, models.RoleAdmin, models.EventBookingCreated, booking)
	return booking, nil
}

// Decide approves or rejects a pending booking. Approval does not re-check
// the approved booking itself (it was conflict-free when submitted and held
// its slot since); instead every other pending booking on the facility that
// overlaps the newly approved range is auto-rejected, resolving the
// ambiguity left by allowing overlapping pending submissions.
func (s *BookingService) Decide(ctx context.Context, bookingID primitive.ObjectID, decision string) (*models.Booking, error) {
	booking, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(booking.FacilityID.Hex())
	defer unlock()

	// Re-read under the facility lock; the status may have moved while we
	// were acquiring it.
	booking, err = s.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, &InvalidTransitionError{Current: booking.Status, Event: decision}
	}

	now := s.now()
	switch decision {
	case models.BookingDecisionApprove:
		if err := s.store.UpdateStatus(ctx, bookingID, models.BookingStatusApproved, now); err != nil {
			return nil, err
		}
		booking.Status = models.BookingStatusApproved
		booking.UpdatedAt = now
		s.pub.PublishToUser(booking.UserID.Hex(), models.EventBookingApproved, booking)
		s.autoRejectOverlapping(ctx, booking, now)
	case models.BookingDecisionReject:
		if err := s.store.UpdateStatus(ctx, bookingID, models.BookingStatusRejected, now); err != nil {
			return nil, err
		}
		booking.Status = models.BookingStatusRejected
		booking.UpdatedAt = now
		s.pub.PublishToUser(booking.UserID.Hex(), models.EventBookingRejected, booking)
	default:
		return nil, &InvalidTransitionError{Current: booking.Status, Event: decision}
	}
	return booking, nil
}

// autoRejectOverlapping rejects every still-pending booking on the facility
// whose range intersects the newly approved one. Runs under the facility
// lock held by Decide.
func (s *BookingService) autoRejectOverlapping(ctx context.Context, approved *models.Booking, at time.Time) {
	active, err := s.store.ListActive(ctx, approved.FacilityID)
	if err != nil {
		log.Printf("Failed to scan facility %s for conflicting pending bookings: %v", approved.FacilityID.Hex(), err)
		return
	}
	for i := range active {
		sib := active[i]
		if sib.ID == approved.ID || sib.Status != models.BookingStatusPending {
			continue
		}
		if !sib.Range.Overlaps(approved.Range) {
			continue
		}
		if err := s.store.UpdateStatus(ctx, sib.ID, models.BookingStatusRejected, at); err != nil {
			log.Printf("Failed to auto-reject booking %s: %v", sib.ID.Hex(), err)
			continue
		}
		sib.Status = models.BookingStatusRejected
		sib.UpdatedAt = at
		s.pub.PublishToUser(sib.UserID.Hex(), models.EventBookingAutoRejected, &sib)
	}
}

// Cancel frees a slot. Only the original requester may cancel, only from
// pending or approved, and only before the range starts.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(booking.FacilityID.Hex())
	defer unlock()

	booking, err = s.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID {
		return nil, ErrForbidden
	}
	if booking.Status != models.BookingStatusPending && booking.Status != models.BookingStatusApproved {
		return nil, &InvalidTransitionError{Current: booking.Status, Event: "cancel"}
	}
	now := s.now()
	if !now.Before(booking.Range.Start) {
		return nil, ErrTooLate
	}

	if err := s.store.UpdateStatus(ctx, bookingID, models.BookingStatusCancelled, now); err != nil {
		return nil, err
	}
	booking.Status = models.BookingStatusCancelled
	booking.UpdatedAt = now
	s.pub.PublishToUser(booking.UserID.Hex(), models.EventBookingCancelled, booking)
	return booking, nil
}
