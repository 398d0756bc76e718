package coupon

import (
	"sync"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/bits-and-blooms/bloom/v3"
)

const falsePositiveRate = 0.01

// Index answers "does this coupon code still exist" for the current registry.
// A bloom filter rejects most unknown codes before the exact map lookup.
type Index struct {
	mu      sync.RWMutex
	filter  *bloom.BloomFilter
	coupons map[string]models.Coupon
}

// NewIndex creates an index over coupons
func NewIndex(coupons []models.Coupon) *Index {
	idx := &Index{}
	idx.Rebuild(coupons)
	return idx
}

// Rebuild replaces the indexed collection.
// Bloom filters cannot forget entries, so deletions require a full rebuild.
func (idx *Index) Rebuild(coupons []models.Coupon) {
	n := uint(len(coupons))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, falsePositiveRate)
	byCode := make(map[string]models.Coupon, len(coupons))
	for _, c := range coupons {
		filter.AddString(c.Code)
		byCode[c.Code] = c
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.filter = filter
	idx.coupons = byCode
}

// Lookup returns the coupon registered under code
func (idx *Index) Lookup(code string) (models.Coupon, bool) {
	if code == "" {
		return models.Coupon{}, false
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.filter.TestString(code) {
		return models.Coupon{}, false
	}
	c, ok := idx.coupons[code]
	return c, ok
}

// Contains reports whether code is registered
func (idx *Index) Contains(code string) bool {
	_, ok := idx.Lookup(code)
	return ok
}

// Stats returns statistics about the indexed coupons
func (idx *Index) Stats() map[string]interface{} {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["total_coupons"] = len(idx.coupons)
	stats["filter_bits"] = idx.filter.Cap()
	stats["filter_hashes"] = idx.filter.K()
	stats["approximated_size"] = idx.filter.ApproximatedSize()

	return stats
}
