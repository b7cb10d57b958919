// models/booking.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking statuses
const (
	BookingStatusPending   = "pending"
	BookingStatusApproved  = "approved"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
)

// Booking decisions
const (
	BookingDecisionApprove = "approve"
	BookingDecisionReject  = "reject"
)

// TimeRange is a half-open interval [Start, End): the start instant is
// included, the end instant is not, so back-to-back bookings never collide.
type TimeRange struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// IsValid reports whether the range is well-formed (Start strictly before End).
func (r TimeRange) IsValid() bool {
	return r.Start.Before(r.End)
}

// Overlaps reports whether two half-open ranges strictly intersect.
// Adjacent ranges (r.End == o.Start) do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Booking model. Bookings are never deleted, only transitioned, so the
// collection doubles as the reservation audit history.
type Booking struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FacilityID    primitive.ObjectID `json:"facilityId" bson:"facilityId"`
	UserID        primitive.ObjectID `json:"userId" bson:"userId"`
	Range         TimeRange          `json:"range" bson:"range"`
	Purpose       string             `json:"purpose,omitempty" bson:"purpose,omitempty"`
	AttendeeCount int                `json:"attendeeCount,omitempty" bson:"attendeeCount,omitempty"`
	Status        string             `json:"status" bson:"status"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BookingRequest model
type BookingRequest struct {
	FacilityID    string    `json:"facilityId" validate:"required"`
	Start         time.Time `json:"start" validate:"required"`
	End           time.Time `json:"end" validate:"required"`
	Purpose       string    `json:"purpose,omitempty"`
	AttendeeCount int       `json:"attendeeCount,omitempty"`
}

// BookingDecisionRequest model for the admin approve/reject endpoint
type BookingDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}
