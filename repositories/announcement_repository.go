package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartvillage/backend/config"
	"github.com/smartvillage/backend/models"
)

type AnnouncementRepository struct {
	collection *mongo.Collection
}

func NewAnnouncementRepository(db *mongo.Client) *AnnouncementRepository {
	return &AnnouncementRepository{
		collection: config.GetCollection(db, "announcements"),
	}
}

func (r *AnnouncementRepository) Insert(ctx context.Context, announcement *models.Announcement) error {
	_, err := r.collection.InsertOne(ctx, announcement)
	return err
}

func (r *AnnouncementRepository) ListAll(ctx context.Context) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var announcements []models.Announcement
	if err := cursor.All(ctx, &announcements); err != nil {
		return nil, err
	}
	return announcements, nil
}
