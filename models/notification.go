// models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event kinds pushed through the notification hub.
const (
	EventBookingCreated       = "booking_created"
	EventBookingApproved      = "booking_approved"
	EventBookingRejected      = "booking_rejected"
	EventBookingAutoRejected  = "booking_auto_rejected"
	EventBookingCancelled     = "booking_cancelled"
	EventTicketCreated        = "ticket_created"
	EventTicketStatusChanged  = "ticket_status_changed"
	EventBillIssued           = "bill_issued"
	EventPaymentStatusChanged = "payment_status_changed"
	EventNewAnnouncement      = "new_announcement"
)

// Notification is the persisted copy of a delivered event. The hub's
// in-memory log bounds replay; this collection is the durable feed users
// browse after the replay window has passed.
type Notification struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Seq       int64              `json:"seq" bson:"seq"`
	Kind      string             `json:"kind" bson:"kind"`
	Payload   interface{}        `json:"payload,omitempty" bson:"payload,omitempty"`
	IsRead    bool               `json:"isRead" bson:"isRead"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
