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

var (
	// ErrDuplicateOrderNumber is returned when an insert hits the unique
	// order_number index; the caller retries with a fresh sequence.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	// ErrVersionConflict is returned when a conditional status update
	// finds the order no longer in the expected state.
	ErrVersionConflict = errors.New("order state changed concurrently")
)

// StatusUpdate is the write half of one lifecycle transition: the history
// entry to append plus any timestamp fields stamped by the target state.
type StatusUpdate struct {
	Entry        models.StatusHistoryEntry
	ConfirmedAt  *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// OrderRepository persists orders. Orders are never deleted; after
// creation the only writes are status and payment updates.
type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, orderNumber string, from, to models.OrderStatus, upd StatusUpdate) error
	UpdatePaymentStatus(ctx context.Context, orderNumber string, status models.PaymentStatus, paidAt *time.Time) error
	NextDailySequence(ctx context.Context, day string) (int64, error)
}

type MongoOrderRepository struct {
	orders   *mongo.Collection
	counters *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		orders:   db.Collection("orders"),
		counters: db.Collection("counters"),
	}
}

func (r *MongoOrderRepository) Insert(ctx context.Context, order *models.Order) error {
	_, err := r.orders.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateOrderNumber
	}
	return err
}

func (r *MongoOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"order_number": orderNumber}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoOrderRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID}, page, limit)
}

func (r *MongoOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	return r.findPage(ctx, bson.M{}, page, limit)
}

func (r *MongoOrderRepository) findPage(ctx context.Context, filter bson.M, page, limit int) ([]models.Order, int64, error) {
	total, err := r.orders.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.orders.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus applies one transition as a conditional update filtered on
// the expected current status, so two concurrent transitions cannot both
// land. The history entry is appended in the same write.
func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, orderNumber string, from, to models.OrderStatus, upd StatusUpdate) error {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if upd.ConfirmedAt != nil {
		set["confirmed_at"] = upd.ConfirmedAt
	}
	if upd.DeliveredAt != nil {
		set["delivered_at"] = upd.DeliveredAt
	}
	if upd.CancelledAt != nil {
		set["cancelled_at"] = upd.CancelledAt
	}
	if upd.CancelReason != "" {
		set["cancel_reason"] = upd.CancelReason
	}

	filter := bson.M{"order_number": orderNumber, "status": from}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"status_history": upd.Entry},
	}

	res, err := r.orders.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// Missed the filter: either the order is gone or its status moved.
	if _, err := r.FindByNumber(ctx, orderNumber); err != nil {
		return err
	}
	return ErrVersionConflict
}

func (r *MongoOrderRepository) UpdatePaymentStatus(ctx context.Context, orderNumber string, status models.PaymentStatus, paidAt *time.Time) error {
	set := bson.M{
		"payment_status": status,
		"updated_at":     time.Now().UTC(),
	}
	if paidAt != nil {
		set["paid_at"] = paidAt
	}

	res, err := r.orders.UpdateOne(ctx, bson.M{"order_number": orderNumber}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// NextDailySequence atomically increments and returns the per-day order
// counter. FindOneAndUpdate with $inc and upsert is a single document
// operation, so concurrent checkouts each see a distinct sequence.
func (r *MongoOrderRepository) NextDailySequence(ctx context.Context, day string) (int64, error) {
	filter := bson.M{"_id": "orders:" + day}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
