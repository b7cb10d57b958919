package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartvillage/backend/config"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/services"
)

// RepairRepository implements services.RepairStore on MongoDB.
type RepairRepository struct {
	collection *mongo.Collection
}

func NewRepairRepository(db *mongo.Client) *RepairRepository {
	return &RepairRepository{
		collection: config.GetCollection(db, "repairTickets"),
	}
}

func (r *RepairRepository) Insert(ctx context.Context, ticket *models.RepairTicket) error {
	_, err := r.collection.InsertOne(ctx, ticket)
	return err
}

func (r *RepairRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RepairTicket, error) {
	var ticket models.RepairTicket
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *RepairRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, status string, change models.TicketStatusChange) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": change.Timestamp,
		},
		"$push": bson.M{"history": change},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *RepairRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.RepairTicket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []models.RepairTicket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *RepairRepository) ListAll(ctx context.Context) ([]models.RepairTicket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []models.RepairTicket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}
