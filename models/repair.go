// models/repair.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repair ticket statuses. "completed" is terminal.
const (
	TicketStatusSubmitted  = "submitted"
	TicketStatusInProgress = "in_progress"
	TicketStatusCompleted  = "completed"
)

// Repair ticket lifecycle events, driven by admins only.
const (
	TicketEventStart    = "start"
	TicketEventComplete = "complete"
)

// TicketStatusChange is one entry of a ticket's status history.
type TicketStatusChange struct {
	Status    string             `json:"status" bson:"status"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
	ActorID   primitive.ObjectID `json:"actorId" bson:"actorId"`
}

// RepairTicket model
type RepairTicket struct {
	ID          primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      primitive.ObjectID   `json:"userId" bson:"userId"`
	Title       string               `json:"title" bson:"title"`
	Category    string               `json:"category,omitempty" bson:"category,omitempty"`
	Description string               `json:"description" bson:"description"`
	ImageURLs   []string             `json:"imageUrls,omitempty" bson:"imageUrls,omitempty"`
	Status      string               `json:"status" bson:"status"`
	History     []TicketStatusChange `json:"history" bson:"history"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// RepairTicketRequest model
type RepairTicketRequest struct {
	Title       string   `json:"title" validate:"required"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description" validate:"required"`
	Images      []string `json:"images,omitempty"`     // base64 encoded photos
	ImageNames  []string `json:"imageNames,omitempty"` // original filenames
}

// TicketEventRequest model for the admin status-update endpoint
type TicketEventRequest struct {
	Event string `json:"event" validate:"required,oneof=start complete"`
}
