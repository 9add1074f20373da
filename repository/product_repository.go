package repository

import (
	"context"
	"errors"
	"time"

	"medicare-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrProductInactive is returned when a product exists but is not sellable.
	ErrProductInactive = errors.New("product inactive")
	// ErrInsufficientStock is returned when a reserve would take stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository reads catalog snapshots and owns the stock counter.
type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (*models.Product, error)
	CheckStock(ctx context.Context, productID string, quantity int) (*models.StockCheckResult, error)
	Reserve(ctx context.Context, productID string, quantity int) error
	Release(ctx context.Context, productID string, quantity int) error
}

// MongoProductRepository implements ProductRepository on the products
// collection shared with the catalog service.
type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection("products")}
}

func (r *MongoProductRepository) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CheckStock is a point-in-time availability read for cart display and
// pre-checkout validation. Reserve is the purchase-time guarantee.
func (r *MongoProductRepository) CheckStock(ctx context.Context, productID string, quantity int) (*models.StockCheckResult, error) {
	product, err := r.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}
	return &models.StockCheckResult{
		ProductID: productID,
		Requested: quantity,
		Available: product.Stock,
		InStock:   product.Stock >= quantity,
	}, nil
}

// Reserve decrements stock by quantity only if at least that much is
// available, as a single conditional update. Two concurrent reserves of
// the last unit cannot both match the filter.
func (r *MongoProductRepository) Reserve(ctx context.Context, productID string, quantity int) error {
	filter := bson.M{
		"_id":       productID,
		"is_active": true,
		"stock":     bson.M{"$gte": quantity},
	}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 1 {
		return nil
	}

	// The conditional update missed; read once to report why.
	product, err := r.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return ErrProductInactive
	}
	return ErrInsufficientStock
}

// Release returns previously reserved stock, used to compensate a failed
// checkout and to restock cancelled orders.
func (r *MongoProductRepository) Release(ctx context.Context, productID string, quantity int) error {
	update := bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": productID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
