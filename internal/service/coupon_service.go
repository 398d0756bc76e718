package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
)

// CouponService owns the coupon registry: it loads the persisted collection,
// applies add/delete through the registry functions and keeps the lookup index current.
type CouponService struct {
	repo     repository.CouponRepository
	defaults []models.Coupon
	index    *coupon.Index
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu sync.Mutex
}

// NewCouponService creates a coupon service. defaults is the collection used
// when nothing is persisted or the persisted value cannot be read.
func NewCouponService(repo repository.CouponRepository, defaults []models.Coupon, log *slog.Logger, m *metrics.Metrics) *CouponService {
	return &CouponService{
		repo:     repo,
		defaults: defaults,
		index:    coupon.NewIndex(nil),
		log:      log,
		metrics:  m,
	}
}

// Init loads the collection and builds the index
func (s *CouponService) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Rebuild(s.load(ctx))
}

// List returns the current coupon collection
func (s *CouponService) List(ctx context.Context) []models.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Add registers a new coupon. Rejections are reported in the outcome;
// the returned error is reserved for storage failures.
func (s *CouponService) Add(ctx context.Context, newCoupon models.Coupon) (models.Outcome, []models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load(ctx)
	next, err := coupon.Add(current, newCoupon)
	if err != nil {
		reason := models.ReasonFor(err)
		s.log.Info("coupon rejected", "code", newCoupon.Code, "reason", reason)
		return models.Outcome{Success: false, Message: err.Error(), Severity: models.SeverityError, Reason: reason}, current, nil
	}

	if err := s.save(ctx, next); err != nil {
		return models.Outcome{}, current, err
	}

	s.log.Info("coupon added", "code", newCoupon.Code, "type", newCoupon.DiscountType)
	return models.Outcome{Success: true, Message: "coupon added", Severity: models.SeveritySuccess}, next, nil
}

// Delete removes a coupon by code; unknown codes are a no-op
func (s *CouponService) Delete(ctx context.Context, code string) (models.Outcome, []models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := coupon.Delete(s.load(ctx), code)
	if err := s.save(ctx, next); err != nil {
		return models.Outcome{}, nil, err
	}

	s.log.Info("coupon deleted", "code", code)
	return models.Outcome{Success: true, Message: "coupon deleted", Severity: models.SeveritySuccess}, next, nil
}

// Lookup resolves a code against the index
func (s *CouponService) Lookup(code string) (models.Coupon, bool) {
	return s.index.Lookup(code)
}

// Index exposes the lookup index for cart reconciliation
func (s *CouponService) Index() *coupon.Index {
	return s.index
}

// load reads the persisted collection, falling back to the defaults
func (s *CouponService) load(ctx context.Context) []models.Coupon {
	coupons, err := s.repo.Load(ctx)
	if err == nil {
		return coupons
	}

	if !errors.Is(err, repository.ErrCouponsNotPersisted) {
		s.log.Warn("failed to load coupons, using defaults", "error", err, "reason", models.ReasonFor(err))
		s.metrics.ObserveRecovery("coupons")
	}
	return append([]models.Coupon(nil), s.defaults...)
}

func (s *CouponService) save(ctx context.Context, coupons []models.Coupon) error {
	if err := s.repo.Save(ctx, coupons); err != nil {
		s.log.Error("failed to save coupons", "error", err)
		return fmt.Errorf("failed to save coupons: %w", err)
	}
	s.index.Rebuild(coupons)
	return nil
}
