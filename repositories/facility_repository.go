package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartvillage/backend/config"
	"github.com/smartvillage/backend/models"
	"github.com/smartvillage/backend/services"
)

type FacilityRepository struct {
	collection *mongo.Collection
}

func NewFacilityRepository(db *mongo.Client) *FacilityRepository {
	return &FacilityRepository{
		collection: config.GetCollection(db, "facilities"),
	}
}

func (r *FacilityRepository) Insert(ctx context.Context, facility *models.Facility) error {
	_, err := r.collection.InsertOne(ctx, facility)
	return err
}

func (r *FacilityRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Facility, error) {
	var facility models.Facility
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&facility)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &facility, nil
}

func (r *FacilityRepository) ListAll(ctx context.Context) ([]models.Facility, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facilities []models.Facility
	if err := cursor.All(ctx, &facilities); err != nil {
		return nil, err
	}
	return facilities, nil
}
