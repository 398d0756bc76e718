package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// CartRepository loads and saves carts by session ID.
// Load returns an empty cart for unknown IDs; errors wrapping
// models.ErrMalformedState mean the stored value could not be decoded.
type CartRepository interface {
	Load(ctx context.Context, cartID string) (models.Cart, error)
	Save(ctx context.Context, cartID string, cart models.Cart) error
}

// InMemoryCartRepository keeps carts in process memory
type InMemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]models.Cart
}

// NewInMemoryCartRepository creates an empty in-memory cart repository
func NewInMemoryCartRepository() *InMemoryCartRepository {
	return &InMemoryCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// Load returns the stored cart or an empty one
func (r *InMemoryCartRepository) Load(ctx context.Context, cartID string) (models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.carts[cartID].Clone(), nil
}

// Save stores cart; empty carts are removed
func (r *InMemoryCartRepository) Save(ctx context.Context, cartID string, cart models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.IsEmpty() {
		delete(r.carts, cartID)
		return nil
	}
	r.carts[cartID] = cart.Clone()
	return nil
}

// RedisCartRepository stores each cart as a JSON document under its own key
type RedisCartRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCartRepository creates a cart repository backed by redis.
// A zero ttl keeps carts until they are emptied.
func NewRedisCartRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisCartRepository) key(cartID string) string {
	return r.prefix + ":cart:{" + cartID + "}"
}

// Load fetches and decodes the cart
func (r *RedisCartRepository) Load(ctx context.Context, cartID string) (models.Cart, error) {
	raw, err := r.client.Get(ctx, r.key(cartID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Cart{}, nil
		}
		return models.Cart{}, errors.Wrapf(err, "load cart %s", cartID)
	}

	var cart models.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return models.Cart{}, errors.Wrapf(models.ErrMalformedState, "decode cart %s: %v", cartID, err)
	}
	if err := validateCart(cart); err != nil {
		return models.Cart{}, errors.Wrapf(err, "cart %s", cartID)
	}
	return cart, nil
}

// Save encodes the cart, or deletes the key when the cart is empty
func (r *RedisCartRepository) Save(ctx context.Context, cartID string, cart models.Cart) error {
	if cart.IsEmpty() {
		if err := r.client.Del(ctx, r.key(cartID)).Err(); err != nil {
			return errors.Wrapf(err, "delete cart %s", cartID)
		}
		return nil
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		return errors.Wrapf(err, "encode cart %s", cartID)
	}
	if err := r.client.Set(ctx, r.key(cartID), raw, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "save cart %s", cartID)
	}
	return nil
}

// validateCart rejects decoded carts that break the line invariants
func validateCart(cart models.Cart) error {
	seen := make(map[string]bool, len(cart.Lines))
	for _, line := range cart.Lines {
		if line.ProductID == "" || line.Quantity <= 0 || seen[line.ProductID] {
			return errors.Wrapf(models.ErrMalformedState, "invalid line %+v", line)
		}
		seen[line.ProductID] = true
	}
	return nil
}
