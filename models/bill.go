// models/bill.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecipientAll addresses a bill to every approved resident.
const RecipientAll = "all"

// Bill payment statuses. A rejected submission returns to "unpaid" so the
// payer can resubmit; "approved" is terminal.
const (
	PaymentStatusUnpaid    = "unpaid"
	PaymentStatusSubmitted = "submitted"
	PaymentStatusApproved  = "approved"
)

// Bill payment lifecycle events
const (
	PaymentEventSubmit  = "submit"
	PaymentEventApprove = "approve"
	PaymentEventReject  = "reject"
)

// Bill model. Issued by an admin to one resident or to all of them.
type Bill struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ItemName  string             `json:"itemName" bson:"itemName"`
	Amount    float64            `json:"amount" bson:"amount"`
	DueDate   time.Time          `json:"dueDate" bson:"dueDate"`
	Recipient string             `json:"recipient" bson:"recipient"` // "all" or a user id hex
	IssuedBy  primitive.ObjectID `json:"issuedBy" bson:"issuedBy"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// BillPayment tracks one payer's obligation for one bill.
type BillPayment struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BillID    primitive.ObjectID `json:"billId" bson:"billId"`
	PayerID   primitive.ObjectID `json:"payerId" bson:"payerId"`
	Amount    float64            `json:"amount" bson:"amount"`
	Status    string             `json:"status" bson:"status"`
	ProofURL  string             `json:"proofUrl,omitempty" bson:"proofUrl,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BillRequest model for the admin issue-bill endpoint
type BillRequest struct {
	ItemName  string    `json:"itemName" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	DueDate   time.Time `json:"dueDate" validate:"required"`
	Recipient string    `json:"recipient" validate:"required"`
}

// PaymentSubmitRequest model. The proof is an uploaded payment slip.
type PaymentSubmitRequest struct {
	ProofFile string `json:"proofFile" validate:"required"` // base64 encoded slip image
	ProofName string `json:"proofName,omitempty"`
}

// PaymentDecisionRequest model for the admin approve/reject endpoint
type PaymentDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}
