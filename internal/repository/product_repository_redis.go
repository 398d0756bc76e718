package repository

import (
	"context"
	"encoding/json"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const maxCatalogTxAttempts = 5

// RedisProductRepository stores the catalog as one JSON array.
// Writes run under WATCH so concurrent debits never interleave.
type RedisProductRepository struct {
	client *redis.Client
	key    string
	seed   []models.Product
}

// NewRedisProductRepository creates a product repository backed by redis.
// seed is served until a catalog has been written.
func NewRedisProductRepository(client *redis.Client, prefix string, seed []models.Product) *RedisProductRepository {
	return &RedisProductRepository{
		client: client,
		key:    prefix + ":products",
		seed:   seed,
	}
}

// Init persists the seed catalog when none is stored. A stored catalog that
// cannot be decoded is replaced by the seed and the returned error wraps
// models.ErrMalformedState.
func (r *RedisProductRepository) Init(ctx context.Context) error {
	_, persisted, err := r.read(ctx, r.client)
	if err == nil && persisted {
		return nil
	}
	if err != nil && !errors.Is(err, models.ErrMalformedState) {
		return err
	}

	raw, encErr := encodeProducts(indexProducts(r.seed))
	if encErr != nil {
		return encErr
	}

	if err == nil {
		if setErr := r.client.SetNX(ctx, r.key, raw, 0).Err(); setErr != nil {
			return errors.Wrap(setErr, "seed catalog")
		}
		return nil
	}

	if setErr := r.client.Set(ctx, r.key, raw, 0).Err(); setErr != nil {
		return errors.Wrap(setErr, "reseed catalog")
	}
	return err
}

// GetAll returns all products ordered by ID
func (r *RedisProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	byID, _, err := r.read(ctx, r.client)
	if err != nil {
		return nil, err
	}
	return sortedProducts(byID), nil
}

// GetByID returns a product by its ID
func (r *RedisProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	byID, _, err := r.read(ctx, r.client)
	if err != nil {
		return nil, err
	}

	product, exists := byID[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Upsert inserts or replaces a product after validating it
func (r *RedisProductRepository) Upsert(ctx context.Context, product models.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	return r.update(ctx, func(byID map[string]models.Product) error {
		byID[product.ID] = product
		return nil
	})
}

// Remove deletes a product by its ID
func (r *RedisProductRepository) Remove(ctx context.Context, id string) error {
	return r.update(ctx, func(byID map[string]models.Product) error {
		return removeProduct(byID, id)
	})
}

// Debit subtracts ordered quantities from stock. Either every line is debited or none is.
func (r *RedisProductRepository) Debit(ctx context.Context, lines []models.CartLine) error {
	return r.update(ctx, func(byID map[string]models.Product) error {
		return debitStock(byID, lines)
	})
}

// Credit returns quantities to stock, reversing a Debit
func (r *RedisProductRepository) Credit(ctx context.Context, lines []models.CartLine) error {
	return r.update(ctx, func(byID map[string]models.Product) error {
		creditStock(byID, lines)
		return nil
	})
}

// update applies fn to the stored catalog inside a WATCH transaction,
// retrying when another writer changed the key first
func (r *RedisProductRepository) update(ctx context.Context, fn func(map[string]models.Product) error) error {
	txf := func(tx *redis.Tx) error {
		byID, _, err := r.read(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(byID); err != nil {
			return err
		}

		raw, err := encodeProducts(byID)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, raw, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxCatalogTxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return errors.Wrap(redis.TxFailedErr, "update catalog")
}

// read decodes the stored catalog, falling back to the seed when the key is absent
func (r *RedisProductRepository) read(ctx context.Context, cmd redis.Cmdable) (map[string]models.Product, bool, error) {
	raw, err := cmd.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return indexProducts(r.seed), false, nil
		}
		return nil, false, errors.Wrap(err, "load catalog")
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, true, errors.Wrapf(models.ErrMalformedState, "decode catalog: %v", err)
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, true, errors.Wrapf(models.ErrMalformedState, "product %q: %v", p.ID, err)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, true, errors.Wrapf(models.ErrMalformedState, "duplicate product %q", p.ID)
		}
		byID[p.ID] = p
	}
	return byID, true, nil
}

func encodeProducts(byID map[string]models.Product) ([]byte, error) {
	raw, err := json.Marshal(sortedProducts(byID))
	if err != nil {
		return nil, errors.Wrap(err, "encode catalog")
	}
	return raw, nil
}
