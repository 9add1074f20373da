package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medicare-backend/models"

	"github.com/redis/go-redis/v9"
)

// CartRepository stores carts in Redis keyed by owner (user id or guest
// session id), with a rolling TTL so abandoned carts expire on their own.
type CartRepository interface {
	GetCart(ctx context.Context, owner string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, owner string) error
	MergeCarts(ctx context.Context, userID, sessionID string) (*models.Cart, error)
	GetIdempotency(ctx context.Context, key string) (string, error)
	SetIdempotency(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func (r *RedisCartRepository) getKey(owner string) string {
	return fmt.Sprintf("cart:%s", owner)
}

// GetCart returns the owner's cart, or nil if none exists.
func (r *RedisCartRepository) GetCart(ctx context.Context, owner string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(owner)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(cart.Owner), data, r.ttl).Err()
}

func (r *RedisCartRepository) DeleteCart(ctx context.Context, owner string) error {
	return r.client.Del(ctx, r.getKey(owner)).Err()
}

// MergeCarts folds the guest cart into the user cart and deletes the
// guest cart, all inside one WATCH transaction. If either cart changes
// between the read and the commit the transaction is retried, so a
// concurrent guest-side mutation is never silently dropped, and a second
// merge call finds no guest cart and changes nothing.
func (r *RedisCartRepository) MergeCarts(ctx context.Context, userID, sessionID string) (*models.Cart, error) {
	userKey := r.getKey(userID)
	guestKey := r.getKey(sessionID)

	var merged *models.Cart

	txn := func(tx *redis.Tx) error {
		guestCart, err := getCartTx(ctx, tx, guestKey)
		if err != nil {
			return err
		}
		userCart, err := getCartTx(ctx, tx, userKey)
		if err != nil {
			return err
		}

		if userCart == nil {
			userCart = &models.Cart{Owner: userID, Items: []models.CartItem{}}
		}
		userCart.Owner = userID

		if guestCart != nil {
			for _, guestItem := range guestCart.Items {
				if i := userCart.FindItem(guestItem.ProductID); i >= 0 {
					userCart.Items[i].Quantity += guestItem.Quantity
					userCart.Items[i].UnitPrice = guestItem.UnitPrice
				} else {
					userCart.Items = append(userCart.Items, guestItem)
				}
			}
		}
		userCart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(userCart)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey, data, r.ttl)
			pipe.Del(ctx, guestKey)
			return nil
		})
		if err != nil {
			return err
		}

		merged = userCart
		return nil
	}

	for attempt := 0; attempt < 5; attempt++ {
		err := r.client.Watch(ctx, txn, userKey, guestKey)
		if err == nil {
			return merged, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("cart merge aborted after repeated conflicts")
}

func getCartTx(ctx context.Context, tx *redis.Tx, key string) (*models.Cart, error) {
	data, err := tx.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Idempotency helpers guard duplicate cart submissions from network retries.

func (r *RedisCartRepository) getIdemKey(key string) string {
	return "idem:cart:" + key
}

func (r *RedisCartRepository) GetIdempotency(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.getIdemKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisCartRepository) SetIdempotency(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, r.getIdemKey(key), value, ttl).Err()
}
