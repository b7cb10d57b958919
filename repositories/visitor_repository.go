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

type VisitorRepository struct {
	collection *mongo.Collection
}

func NewVisitorRepository(db *mongo.Client) *VisitorRepository {
	return &VisitorRepository{
		collection: config.GetCollection(db, "visitors"),
	}
}

func (r *VisitorRepository) Insert(ctx context.Context, visitor *models.Visitor) error {
	_, err := r.collection.InsertOne(ctx, visitor)
	return err
}

func (r *VisitorRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Visitor, error) {
	var visitor models.Visitor
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&visitor)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (r *VisitorRepository) FindByPassCode(ctx context.Context, passCode string) (*models.Visitor, error) {
	var visitor models.Visitor
	err := r.collection.FindOne(ctx, bson.M{"passCode": passCode}).Decode(&visitor)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &visitor, nil
}

func (r *VisitorRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Visitor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "visitDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var visitors []models.Visitor
	if err := cursor.All(ctx, &visitors); err != nil {
		return nil, err
	}
	return visitors, nil
}
