// services/repair_service.go
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/smartvillage/backend/models"
)

type ticketRule struct {
	From  string
	Event string
}

// The full repair ticket lifecycle. Anything not in this table is illegal,
// which makes "completed" terminal by omission.
var ticketTransitions = map[ticketRule]string{
	{models.TicketStatusSubmitted, models.TicketEventStart}:     models.TicketStatusInProgress,
	{models.TicketStatusInProgress, models.TicketEventComplete}: models.TicketStatusCompleted,
}

// NextTicketStatus is the repair ticket state machine: a pure function of
// (current status, event, actor role). Only admins drive transitions.
func NextTicketStatus(current, event, role string) (string, error) {
	if role != models.RoleAdmin {
		return "", ErrForbidden
	}
	next, ok := ticketTransitions[ticketRule{From: current, Event: event}]
	if !ok {
		return "", &InvalidTransitionError{Current: current, Event: event}
	}
	return next, nil
}

// RepairStore is the persistence boundary for repair tickets.
// Implementations must return ErrNotFound for unknown ids.
type RepairStore interface {
	Insert(ctx context.Context, ticket *models.RepairTicket) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.RepairTicket, error)
	// ApplyTransition sets the new status and appends the history entry.
	ApplyTransition(ctx context.Context, id primitive.ObjectID, status string, change models.TicketStatusChange) error
}

// RepairService drives repair tickets through their lifecycle under a
// per-ticket lock, so two admins racing on the same ticket serialize and
// the loser gets an InvalidTransitionError instead of silently overwriting.
type RepairService struct {
	store RepairStore
	pub   Publisher
	locks lockMap
	now   func() time.Time
}

// NewRepairService creates a new repair service.
func NewRepairService(store RepairStore, pub Publisher) *RepairService {
	return &RepairService{store: store, pub: pub, now: time.Now}
}

// Create opens a ticket in "submitted" with its first history entry and
// notifies the admin role.
func (s *RepairService) Create(ctx context.Context, requesterID primitive.ObjectID, title, category, description string, imageURLs []string) (*models.RepairTicket, error) {
	now := s.now()
	ticket := &models.RepairTicket{
		ID:          primitive.NewObjectID(),
		UserID:      requesterID,
		Title:       title,
		Category:    category,
		Description: description,
		ImageURLs:   imageURLs,
		Status:      models.TicketStatusSubmitted,
		History: []models.TicketStatusChange{
			{Status: models.TicketStatusSubmitted, Timestamp: now, ActorID: requesterID},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, ticket); err != nil {
		return nil, err
	}
	s.pub.PublishToRole(ctx, models.RoleAdmin, models.EventTicketCreated, ticket)
	return ticket, nil
}

// Transition applies one lifecycle event to a ticket and notifies its
// creator. Each successful transition appends exactly one history entry.
func (s *RepairService) Transition(ctx context.Context, ticketID primitive.ObjectID, event string, actorID primitive.ObjectID, role string) (*models.RepairTicket, error) {
	unlock := s.locks.lock(ticketID.Hex())
	defer unlock()

	ticket, err := s.store.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	next, err := NextTicketStatus(ticket.Status, event, role)
	if err != nil {
		return nil, err
	}

	change := models.TicketStatusChange{Status: next, Timestamp: s.now(), ActorID: actorID}
	if err := s.store.ApplyTransition(ctx, ticketID, next, change); err != nil {
		return nil, err
	}
	ticket.Status = next
	ticket.History = append(ticket.History, change)
	ticket.UpdatedAt = change.Timestamp

	s.pub.PublishToUser(ticket.UserID.Hex(), models.EventTicketStatusChanged, ticket)
	return ticket, nil
}
