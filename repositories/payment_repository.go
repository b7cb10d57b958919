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

// BillRepository implements services.BillStore on MongoDB.
type BillRepository struct {
	collection *mongo.Collection
}

func NewBillRepository(db *mongo.Client) *BillRepository {
	return &BillRepository{
		collection: config.GetCollection(db, "bills"),
	}
}

func (r *BillRepository) Insert(ctx context.Context, bill *models.Bill) error {
	_, err := r.collection.InsertOne(ctx, bill)
	return err
}

func (r *BillRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bill, error) {
	var bill models.Bill
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&bill)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *BillRepository) ListAll(ctx context.Context) ([]models.Bill, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bills []models.Bill
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// PaymentRepository implements services.PaymentStore on MongoDB.
type PaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Client) *PaymentRepository {
	return &PaymentRepository{
		collection: config.GetCollection(db, "billPayments"),
	}
}

func (r *PaymentRepository) Insert(ctx context.Context, payment *models.BillPayment) error {
	_, err := r.collection.InsertOne(ctx, payment)
	return err
}

func (r *PaymentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BillPayment, error) {
	var payment models.BillPayment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Update(ctx context.Context, id primitive.ObjectID, status, proofURL string, at time.Time) error {
	set := bson.M{
		"status":    status,
		"updatedAt": at,
	}
	if proofURL != "" {
		set["proofUrl"] = proofURL
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) ListByPayer(ctx context.Context, payerID primitive.ObjectID) ([]models.BillPayment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"payerId": payerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []models.BillPayment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) ListByStatus(ctx context.Context, status string) ([]models.BillPayment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []models.BillPayment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
