// models/visitor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visitor is a resident's pre-registered guest. The pass code is encoded
// into the QR gate pass shown at the entrance.
type Visitor struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Name      string             `json:"name" bson:"name"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	VisitDate time.Time          `json:"visitDate" bson:"visitDate"`
	Purpose   string             `json:"purpose,omitempty" bson:"purpose,omitempty"`
	PassCode  string             `json:"passCode" bson:"passCode"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// VisitorRequest model
type VisitorRequest struct {
	Name      string    `json:"name" validate:"required"`
	Phone     string    `json:"phone,omitempty"`
	VisitDate time.Time `json:"visitDate" validate:"required"`
	Purpose   string    `json:"purpose,omitempty"`
}
