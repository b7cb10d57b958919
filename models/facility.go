// models/facility.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Facility categories
const (
	FacilityMeetingRoom = "meeting-room"
	FacilitySportsField = "sports-field"
	FacilityClubhouse   = "clubhouse"
)

// Facility is immutable reference data created by an admin.
type Facility struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Category  string             `json:"category" bson:"category"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// FacilityRequest model
type FacilityRequest struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required,oneof=meeting-room sports-field clubhouse"`
}
