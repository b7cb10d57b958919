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

type fakeBillStore struct {
	mu    sync.Mutex
	bills map[primitive.ObjectID]*models.Bill
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{bills: make(map[primitive.ObjectID]*models.Bill)}
}

func (s *fakeBillStore) Insert(ctx context.Context, b *models.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bills[b.ID] = &cp
	return nil
}

func (s *fakeBillStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[primitive.ObjectID]*models.BillPayment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[primitive.ObjectID]*models.BillPayment)}
}

func (s *fakePaymentStore) Insert(ctx context.Context, p *models.BillPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *fakePaymentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BillPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePaymentStore) Update(ctx context.Context, id primitive.ObjectID, status, proofURL string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	if proofURL != "" {
		p.ProofURL = proofURL
	}
	p.UpdatedAt = at
	return nil
}

func newPaymentFixture() (*PaymentService, *fakePaymentStore, *fakePublisher) {
	payments := newFakePaymentStore()
	pub := &fakePublisher{}
	svc := NewPaymentService(newFakeBillStore(), payments, pub)
	return svc, payments, pub
}

func TestNextPaymentStatus(t *testing.T) {
	tests := []struct {
		name    string
		current string
		event   string
		role    string
		want    string
		wantErr error
	}{
		{"resident submits", models.PaymentStatusUnpaid, models.PaymentEventSubmit, models.RoleResident, models.PaymentStatusSubmitted, nil},
		{"admin approves", models.PaymentStatusSubmitted, models.PaymentEventApprove, models.RoleAdmin, models.PaymentStatusApproved, nil},
		{"admin rejects back to unpaid", models.PaymentStatusSubmitted, models.PaymentEventReject, models.RoleAdmin, models.PaymentStatusUnpaid, nil},
		{"resident cannot approve", models.PaymentStatusSubmitted, models.PaymentEventApprove, models.RoleResident, "", ErrForbidden},
		{"admin cannot submit", models.PaymentStatusUnpaid, models.PaymentEventSubmit, models.RoleAdmin, "", ErrForbidden},
		{"approve unpaid", models.PaymentStatusUnpaid, models.PaymentEventApprove, models.RoleAdmin, "", &InvalidTransitionError{}},
		{"approved is terminal", models.PaymentStatusApproved, models.PaymentEventReject, models.RoleAdmin, "", &InvalidTransitionError{}},
		{"double submit", models.PaymentStatusSubmitted, models.PaymentEventSubmit, models.RoleResident, "", &InvalidTransitionError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextPaymentStatus(tt.current, tt.event, tt.role)
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

func TestIssueBillCreatesPaymentPerPayer(t *testing.T) {
	svc, payments, pub := newPaymentFixture()
	payers := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}

	bill := &models.Bill{
		ItemName:  "Garbage collection",
		Amount:    25,
		DueDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Recipient: models.RecipientAll,
		IssuedBy:  primitive.NewObjectID(),
	}
	_, created, err := svc.IssueBill(context.Background(), bill, payers)
	require.NoError(t, err)
	require.Len(t, created, 3)
	for _, p := range created {
		assert.Equal(t, models.PaymentStatusUnpaid, p.Status)
		assert.Equal(t, bill.ID, p.BillID)
		assert.Equal(t, bill.Amount, p.Amount)
	}
	assert.Len(t, payments.payments, 3)

	// One bill_issued push per payer.
	issued := 0
	for _, e := range pub.events {
		if e.Kind == models.EventBillIssued {
			issued++
		}
	}
	assert.Equal(t, 3, issued)
}

func TestSubmitPaymentRequiresProof(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	payer := primitive.NewObjectID()
	_, created, err := svc.IssueBill(context.Background(), &models.Bill{Amount: 10}, []primitive.ObjectID{payer})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), created[0].ID, payer, "")
	assert.ErrorIs(t, err, ErrInvalidProof)
}

func TestSubmitPaymentByOtherUserForbidden(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	payer := primitive.NewObjectID()
	_, created, err := svc.IssueBill(context.Background(), &models.Bill{Amount: 10}, []primitive.ObjectID{payer})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), created[0].ID, primitive.NewObjectID(), "/uploads/slip.png")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitThenApprove(t *testing.T) {
	svc, _, pub := newPaymentFixture()
	payer := primitive.NewObjectID()
	ctx := context.Background()
	_, created, err := svc.IssueBill(ctx, &models.Bill{Amount: 10}, []primitive.ObjectID{payer})
	require.NoError(t, err)

	payment, err := svc.Submit(ctx, created[0].ID, payer, "/uploads/slip.png")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSubmitted, payment.Status)
	assert.Equal(t, "/uploads/slip.png", payment.ProofURL)

	payment, err = svc.Decide(ctx, payment.ID, models.PaymentEventApprove, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, payment.Status)

	changed := 0
	for _, e := range pub.events {
		if e.Target == payer.Hex() && e.Kind == models.EventPaymentStatusChanged {
			changed++
		}
	}
	assert.Equal(t, 2, changed)
}

func TestRejectReturnsToUnpaidAndKeepsProof(t *testing.T) {
	svc, payments, _ := newPaymentFixture()
	payer := primitive.NewObjectID()
	ctx := context.Background()
	_, created, err := svc.IssueBill(ctx, &models.Bill{Amount: 10}, []primitive.ObjectID{payer})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, created[0].ID, payer, "/uploads/slip.png")
	require.NoError(t, err)

	payment, err := svc.Decide(ctx, created[0].ID, models.PaymentEventReject, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, payment.Status)

	stored, err := payments.FindByID(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/slip.png", stored.ProofURL)

	// The payer can submit a corrected slip.
	payment, err = svc.Submit(ctx, created[0].ID, payer, "/uploads/slip2.png")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSubmitted, payment.Status)
	assert.Equal(t, "/uploads/slip2.png", payment.ProofURL)
}

func TestDecideByResidentForbidden(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	payer := primitive.NewObjectID()
	ctx := context.Background()
	_, created, err := svc.IssueBill(ctx, &models.Bill{Amount: 10}, []primitive.ObjectID{payer})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, created[0].ID, payer, "/uploads/slip.png")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, created[0].ID, models.PaymentEventApprove, models.RoleResident)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConcurrentDecisionsOneWins(t *testing.T) {
	svc, payments, _ := newPaymentFixture()
	payer := primitive.NewObjectID()
	ctx := context.Background()
	_, created, err := svc.IssueBill(ctx, &models.Bill{Amount: 10}, []primitive.ObjectID{payer})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created[0].ID, payer, "/uploads/slip.png")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	events := []string{models.PaymentEventApprove, models.PaymentEventReject}
	for i := range events {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Decide(ctx, created[0].ID, events[i], models.RoleAdmin)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := payments.FindByID(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Contains(t, []string{models.PaymentStatusApproved, models.PaymentStatusUnpaid}, stored.Status)
}
