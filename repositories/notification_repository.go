package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartvillage/backend/config"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/services"
)

// NotificationRepository is the durable notification feed behind the hub's
// bounded replay window. It implements websocket.FeedStore.
type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Client) *NotificationRepository {
	return &NotificationRepository{
		collection: config.GetCollection(db, "notifications"),
	}
}

func (r *NotificationRepository) Append(ctx context.Context, userID string, seq int64, kind string, payload interface{}, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    objID,
		Seq:       seq,
		Kind:      kind,
		Payload:   payload,
		IsRead:    false,
		CreatedAt: at,
	})
	return err
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, bson.M{
		"$set": bson.M{"isRead": true},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"userId": userID, "isRead": false}, bson.M{
		"$set": bson.M{"isRead": true},
	})
	return err
}
