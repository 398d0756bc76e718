package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrCouponsNotPersisted is returned when no coupon collection has been saved yet
var ErrCouponsNotPersisted = errors.New("coupon collection not persisted")

// CouponRepository loads and saves the whole coupon collection
type CouponRepository interface {
	Load(ctx context.Context) ([]models.Coupon, error)
	Save(ctx context.Context, coupons []models.Coupon) error
}

// InMemoryCouponRepository keeps the coupon collection in process memory
type InMemoryCouponRepository struct {
	mu      sync.RWMutex
	coupons []models.Coupon
	saved   bool
}

// NewInMemoryCouponRepository creates an in-memory coupon repository with nothing persisted
func NewInMemoryCouponRepository() *InMemoryCouponRepository {
	return &InMemoryCouponRepository{}
}

// Load returns a copy of the stored collection
func (r *InMemoryCouponRepository) Load(ctx context.Context) ([]models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.saved {
		return nil, ErrCouponsNotPersisted
	}
	return append([]models.Coupon(nil), r.coupons...), nil
}

// Save replaces the stored collection
func (r *InMemoryCouponRepository) Save(ctx context.Context, coupons []models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.coupons = append([]models.Coupon(nil), coupons...)
	r.saved = true
	return nil
}

// RedisCouponRepository stores the coupon collection as a single JSON array
type RedisCouponRepository struct {
	client *redis.Client
	key    string
}

// NewRedisCouponRepository creates a coupon repository backed by redis
func NewRedisCouponRepository(client *redis.Client, prefix string) *RedisCouponRepository {
	return &RedisCouponRepository{
		client: client,
		key:    prefix + ":coupons",
	}
}

// Load fetches and decodes the collection
func (r *RedisCouponRepository) Load(ctx context.Context) ([]models.Coupon, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCouponsNotPersisted
		}
		return nil, errors.Wrap(err, "load coupons")
	}

	var stored []models.Coupon
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, errors.Wrapf(models.ErrMalformedState, "decode coupons: %v", err)
	}

	// Rebuild through the registry so stored data obeys the same rules as admin adds
	coupons := make([]models.Coupon, 0, len(stored))
	for _, c := range stored {
		if coupons, err = coupon.Add(coupons, c); err != nil {
			return nil, errors.Wrapf(models.ErrMalformedState, "coupon %q: %v", c.Code, err)
		}
	}
	return coupons, nil
}

// Save encodes and stores the collection
func (r *RedisCouponRepository) Save(ctx context.Context, coupons []models.Coupon) error {
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	raw, err := json.Marshal(coupons)
	if err != nil {
		return errors.Wrap(err, "encode coupons")
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return errors.Wrap(err, "save coupons")
	}
	return nil
}
