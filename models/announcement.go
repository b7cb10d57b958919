// models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement model
type Announcement struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Content     string             `json:"content" bson:"content"`
	Tag         string             `json:"tag,omitempty" bson:"tag,omitempty"`
	AuthorID    primitive.ObjectID `json:"authorId" bson:"authorId"`
	PublishedAt time.Time          `json:"publishedAt" bson:"publishedAt"`
}

// AnnouncementRequest model
type AnnouncementRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Tag     string `json:"tag,omitempty"`
}
