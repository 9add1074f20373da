package repository

import (
	"context"
	"errors"
	"time"

	"medicare-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateCode is returned when creating a voucher whose code exists.
var ErrDuplicateCode = errors.New("voucher code already exists")

// VoucherRepository persists promotional vouchers. Codes are stored
// uppercased; lookups expect the caller to normalize first.
type VoucherRepository interface {
	Create(ctx context.Context, voucher *models.Voucher) error
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Voucher, int64, error)
	IncrementUsedCount(ctx context.Context, code string) error
	Deactivate(ctx context.Context, code string) error
}

type MongoVoucherRepository struct {
	collection *mongo.Collection
}

func NewMongoVoucherRepository(db *mongo.Database) *MongoVoucherRepository {
	return &MongoVoucherRepository{collection: db.Collection("vouchers")}
}

func (r *MongoVoucherRepository) Create(ctx context.Context, voucher *models.Voucher) error {
	_, err := r.collection.InsertOne(ctx, voucher)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *MongoVoucherRepository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&voucher)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (r *MongoVoucherRepository) FindAll(ctx context.Context, page, limit int) ([]models.Voucher, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var vouchers []models.Voucher
	if err := cursor.All(ctx, &vouchers); err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

func (r *MongoVoucherRepository) IncrementUsedCount(ctx context.Context, code string) error {
	update := bson.M{
		"$inc": bson.M{"used_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"code": code}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoVoucherRepository) Deactivate(ctx context.Context, code string) error {
	update := bson.M{
		"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"code": code}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
