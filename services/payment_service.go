// services/payment_service.go
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/smartvillage/backend/models"
)

type paymentRule struct {
	From  string
	Event string
	Role  string
}

// The full bill payment lifecycle. Rejection returns the payment to
// "unpaid" so the payer can submit a corrected slip; "approved" is
// terminal by omission.
var paymentTransitions = map[paymentRule]string{
	{models.PaymentStatusUnpaid, models.PaymentEventSubmit, models.RoleResident}:  models.PaymentStatusSubmitted,
	{models.PaymentStatusSubmitted, models.PaymentEventApprove, models.RoleAdmin}: models.PaymentStatusApproved,
	{models.PaymentStatusSubmitted, models.PaymentEventReject, models.RoleAdmin}:  models.PaymentStatusUnpaid,
}

// NextPaymentStatus is the bill payment state machine: a pure function of
// (current status, event, actor role). A transition that exists for another
// role is ErrForbidden; one that exists for no role is an
// InvalidTransitionError.
func NextPaymentStatus(current, event, role string) (string, error) {
	if next, ok := paymentTransitions[paymentRule{From: current, Event: event, Role: role}]; ok {
		return next, nil
	}
	for rule := range paymentTransitions {
		if rule.From == current && rule.Event == event {
			return "", ErrForbidden
		}
	}
	return "", &InvalidTransitionError{Current: current, Event: event}
}

// BillStore is the persistence boundary for issued bills.
type BillStore interface {
	Insert(ctx context.Context, bill *models.Bill) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bill, error)
}

// PaymentStore is the persistence boundary for per-payer bill payments.
// Implementations must return ErrNotFound for unknown ids.
type PaymentStore interface {
	Insert(ctx context.Context, payment *models.BillPayment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BillPayment, error)
	// Update sets the new status and, when proofURL is non-empty, records it.
	Update(ctx context.Context, id primitive.ObjectID, status, proofURL string, at time.Time) error
}

// PaymentService issues bills and drives the resulting payments through
// their lifecycle under a per-payment lock.
type PaymentService struct {
	bills    BillStore
	payments PaymentStore
	pub      Publisher
	locks    lockMap
	now      func() time.Time
}

// NewPaymentService creates a new payment service.
func NewPaymentService(bills BillStore, payments PaymentStore, pub Publisher) *PaymentService {
	return &PaymentService{bills: bills, payments: payments, pub: pub, now: time.Now}
}

// IssueBill records the bill and creates one unpaid payment per payer,
// pushing a bill_issued event to each.
func (s *PaymentService) IssueBill(ctx context.Context, bill *models.Bill, payerIDs []primitive.ObjectID) (*models.Bill, []models.BillPayment, error) {
	now := s.now()
	bill.ID = primitive.NewObjectID()
	bill.CreatedAt = now
	if err := s.bills.Insert(ctx, bill); err != nil {
		return nil, nil, err
	}

	payments := make([]models.BillPayment, 0, len(payerIDs))
	for _, payerID := range payerIDs {
		payment := models.BillPayment{
			ID:        primitive.NewObjectID(),
			BillID:    bill.ID,
			PayerID:   payerID,
			Amount:    bill.Amount,
			Status:    models.PaymentStatusUnpaid,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.payments.Insert(ctx, &payment); err != nil {
			return nil, nil, err
		}
		payments = append(payments, payment)
		s.pub.PublishToUser(payerID.Hex(), models.EventBillIssued, &payment)
	}
	return bill, payments, nil
}

// Submit attaches a proof of payment and moves the payment to "submitted".
// Only the payer may submit, and a proof is mandatory.
func (s *PaymentService) Submit(ctx context.Context, paymentID, payerID primitive.ObjectID, proofURL string) (*models.BillPayment, error) {
	unlock := s.locks.lock(paymentID.Hex())
	defer unlock()

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.PayerID != payerID {
		return nil, ErrForbidden
	}
	if proofURL == "" {
		return nil, ErrInvalidProof
	}
	next, err := NextPaymentStatus(payment.Status, models.PaymentEventSubmit, models.RoleResident)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.payments.Update(ctx, paymentID, next, proofURL, now); err != nil {
		return nil, err
	}
	payment.Status = next
	payment.ProofURL = proofURL
	payment.UpdatedAt = now

	s.pub.PublishToUser(payment.PayerID.Hex(), models.EventPaymentStatusChanged, payment)
	s.pub.PublishToRole(ctx, models.RoleAdmin, models.EventPaymentStatusChanged, payment)
	return payment, nil
}

// Decide approves a submitted payment or rejects it back to "unpaid". The
// rejected payment keeps its proof so the audit trail survives resubmission.
func (s *PaymentService) Decide(ctx context.Context, paymentID primitive.ObjectID, event, role string) (*models.BillPayment, error) {
	unlock := s.locks.lock(paymentID.Hex())
	defer unlock()

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	next, err := NextPaymentStatus(payment.Status, event, role)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.payments.Update(ctx, paymentID, next, "", now); err != nil {
		return nil, err
	}
	payment.Status = next
	payment.UpdatedAt = now

	s.pub.PublishToUser(payment.PayerID.Hex(), models.EventPaymentStatusChanged, payment)
	return payment, nil
}
