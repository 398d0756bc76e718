package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

type fixture struct {
	carts    *repository.InMemoryCartRepository
	products *repository.InMemoryProductRepository
	coupons  *CouponService
	svc      *CartService
}

func newFixture(t *testing.T, opts ...CartServiceOption) *fixture {
	t.Helper()

	log := logger.Discard()
	m := metrics.New(prometheus.NewRegistry())

	products := repository.NewInMemoryProductRepositoryWith([]models.Product{
		{ID: "p1", Name: "Widget", Price: 1000, Stock: 5},
		{ID: "p2", Name: "Bulk", Price: 1000, Stock: 50,
			Discounts: []models.DiscountTier{{MinQuantity: 10, Rate: decimal.RequireFromString("0.1")}}},
	})
	carts := repository.NewInMemoryCartRepository()
	coupons := NewCouponService(repository.NewInMemoryCouponRepository(), coupon.Defaults(), log, m)
	coupons.Init(context.Background())

	opts = append([]CartServiceOption{WithMetrics(m)}, opts...)
	return &fixture{
		carts:    carts,
		products: products,
		coupons:  coupons,
		svc:      NewCartService(carts, products, coupons, log, opts...),
	}
}

func TestCartService_AddItemStockLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := f.svc.AddItem(ctx, "c1", "p1")
		if err != nil {
			t.Fatalf("add #%d: unexpected error %v", i, err)
		}
		if !res.Outcome.Success {
			t.Fatalf("add #%d rejected: %s", i, res.Outcome.Message)
		}
	}

	res, err := f.svc.AddItem(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome.Success || res.Outcome.Reason != models.ReasonStockExceeded {
		t.Fatalf("expected StockExceeded, got %+v", res.Outcome)
	}
	if res.View.ItemCount != 5 {
		t.Errorf("item count = %d, want 5", res.View.ItemCount)
	}
	if res.View.Lines[0].RemainingStock != 0 {
		t.Errorf("remaining = %d, want 0", res.View.Lines[0].RemainingStock)
	}

	stored, _ := f.carts.Load(ctx, "c1")
	if line, _ := stored.Line("p1"); line.Quantity != 5 {
		t.Errorf("stored quantity = %d, want 5", line.Quantity)
	}
}

func TestCartService_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.AddItem(context.Background(), "c1", "nope"); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), ""); !errors.Is(err, ErrInvalidCartID) {
		t.Errorf("expected ErrInvalidCartID, got %v", err)
	}
}

func TestCartService_UpdateQuantityAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, "c1", "p2"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	res, err := f.svc.UpdateQuantity(ctx, "c1", "p2", 10)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if res.View.Totals.TotalBeforeDiscount != 10000 || res.View.Totals.TotalAfterDiscount != 9000 {
		t.Errorf("totals = %+v", res.View.Totals)
	}
	if res.View.Lines[0].ItemTotal != 9000 {
		t.Errorf("item total = %d, want 9000", res.View.Lines[0].ItemTotal)
	}

	res, err = f.svc.UpdateQuantity(ctx, "c1", "p2", 51)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if res.Outcome.Success || res.Outcome.Reason != models.ReasonStockExceeded {
		t.Errorf("expected StockExceeded, got %+v", res.Outcome)
	}
	if res.View.Lines[0].Quantity != 10 {
		t.Errorf("quantity = %d, want unchanged 10", res.View.Lines[0].Quantity)
	}

	res, err = f.svc.UpdateQuantity(ctx, "c1", "p2", 0)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(res.View.Lines) != 0 {
		t.Errorf("expected line removed, got %+v", res.View.Lines)
	}
}

func TestCartService_Coupons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ApplyCoupon(ctx, "c1", "PERCENT10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome.Success || res.Outcome.Reason != models.ReasonEmptyCart {
		t.Fatalf("expected EmptyCart, got %+v", res.Outcome)
	}
	if res.View.SelectedCoupon != nil {
		t.Error("selection changed on rejection")
	}

	if _, err := f.svc.AddItem(ctx, "c1", "p1"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	res, _ = f.svc.ApplyCoupon(ctx, "c1", "MISSING1")
	if res.Outcome.Reason != models.ReasonCouponNotFound {
		t.Errorf("expected CouponNotFound, got %+v", res.Outcome)
	}

	res, _ = f.svc.ApplyCoupon(ctx, "c1", "PERCENT10")
	if !res.Outcome.Success {
		t.Fatalf("apply rejected: %+v", res.Outcome)
	}
	if res.View.Totals.TotalAfterDiscount != 900 {
		t.Errorf("after discount = %d, want 900", res.View.Totals.TotalAfterDiscount)
	}

	res, _ = f.svc.ClearCoupon(ctx, "c1")
	if res.View.SelectedCoupon != nil || res.View.Totals.TotalAfterDiscount != 1000 {
		t.Errorf("expected coupon cleared, got %+v", res.View)
	}
}

func TestCartService_StaleCouponCleared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.svc.AddItem(ctx, "c1", "p1")
	if res, _ := f.svc.ApplyCoupon(ctx, "c1", "AMOUNT5000"); !res.Outcome.Success {
		t.Fatalf("apply rejected: %+v", res.Outcome)
	}

	if _, _, err := f.coupons.Delete(ctx, "AMOUNT5000"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	res, err := f.svc.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if res.Outcome.Severity != models.SeverityWarning {
		t.Errorf("severity = %q, want warning", res.Outcome.Severity)
	}
	if res.View.SelectedCoupon != nil {
		t.Error("expected stale coupon to be cleared")
	}

	stored, _ := f.carts.Load(ctx, "c1")
	if stored.HasCoupon() {
		t.Errorf("stale selection persisted: %q", stored.SelectedCoupon)
	}
}

func TestCartService_CompleteOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.CompleteOrder(ctx, "c1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome.Success || res.Outcome.Reason != models.ReasonEmptyCart {
			t.Errorf("expected EmptyCart, got %+v", res.Outcome)
		}
		if res.Order != nil {
			t.Error("expected no order")
		}
	})

	t.Run("stock untouched by default", func(t *testing.T) {
		f := newFixture(t)
		_, _ = f.svc.AddItem(ctx, "c1", "p1")
		_, _ = f.svc.AddItem(ctx, "c1", "p1")
		_, _ = f.svc.ApplyCoupon(ctx, "c1", "PERCENT10")

		res, err := f.svc.CompleteOrder(ctx, "c1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Outcome.Success || res.Order == nil {
			t.Fatalf("expected completed order, got %+v", res.Outcome)
		}
		if res.Order.TotalBeforeDiscount != 2000 || res.Order.TotalAfterDiscount != 1800 {
			t.Errorf("order totals = %d/%d", res.Order.TotalBeforeDiscount, res.Order.TotalAfterDiscount)
		}
		if res.Order.CouponCode != "PERCENT10" {
			t.Errorf("coupon = %q", res.Order.CouponCode)
		}
		if res.View.ItemCount != 0 || res.View.SelectedCoupon != nil {
			t.Errorf("cart not reset: %+v", res.View)
		}

		if p, _ := f.products.GetByID(ctx, "p1"); p.Stock != 5 {
			t.Errorf("stock = %d, want 5", p.Stock)
		}
	})

	t.Run("stock debited when enabled", func(t *testing.T) {
		f := newFixture(t, WithStockDebit(true))
		_, _ = f.svc.AddItem(ctx, "c1", "p1")
		_, _ = f.svc.AddItem(ctx, "c1", "p1")

		res, err := f.svc.CompleteOrder(ctx, "c1")
		if err != nil || !res.Outcome.Success {
			t.Fatalf("expected success, got %+v, %v", res, err)
		}
		if p, _ := f.products.GetByID(ctx, "p1"); p.Stock != 3 {
			t.Errorf("stock = %d, want 3", p.Stock)
		}
	})

	t.Run("debit rejected when stock dropped", func(t *testing.T) {
		f := newFixture(t, WithStockDebit(true))
		_, _ = f.svc.AddItem(ctx, "c1", "p1")
		_, _ = f.svc.AddItem(ctx, "c1", "p1")

		if err := f.products.Upsert(ctx, models.Product{ID: "p1", Name: "Widget", Price: 1000, Stock: 1}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		res, err := f.svc.CompleteOrder(ctx, "c1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome.Success || res.Outcome.Reason != models.ReasonStockExceeded {
			t.Errorf("expected StockExceeded, got %+v", res.Outcome)
		}
		if res.View.ItemCount != 2 {
			t.Errorf("cart should be kept, item count %d", res.View.ItemCount)
		}
	})
}

// brokenCartRepository always fails to decode stored carts
type brokenCartRepository struct {
	saved []models.Cart
}

func (r *brokenCartRepository) Load(ctx context.Context, cartID string) (models.Cart, error) {
	return models.Cart{}, models.ErrMalformedState
}

func (r *brokenCartRepository) Save(ctx context.Context, cartID string, cart models.Cart) error {
	r.saved = append(r.saved, cart)
	return nil
}

func TestCartService_MalformedStateRecovered(t *testing.T) {
	f := newFixture(t)
	repo := &brokenCartRepository{}
	svc := NewCartService(repo, f.products, f.coupons, logger.Discard())

	res, err := svc.AddItem(context.Background(), "c1", "p1")
	if err != nil {
		t.Fatalf("expected recovery, got error %v", err)
	}
	if !res.Outcome.Success || res.View.ItemCount != 1 {
		t.Errorf("expected add on empty cart, got %+v", res)
	}
	if len(repo.saved) != 1 {
		t.Errorf("expected one save, got %d", len(repo.saved))
	}
}

// unsavableCartRepository accepts writes until failSaves is set
type unsavableCartRepository struct {
	*repository.InMemoryCartRepository
	failSaves bool
}

func (r *unsavableCartRepository) Save(ctx context.Context, cartID string, cart models.Cart) error {
	if r.failSaves {
		return errors.New("redis down")
	}
	return r.InMemoryCartRepository.Save(ctx, cartID, cart)
}

func TestCartService_CompleteOrderSaveFailureRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	carts := &unsavableCartRepository{InMemoryCartRepository: repository.NewInMemoryCartRepository()}
	svc := NewCartService(carts, f.products, f.coupons, logger.Discard(), WithStockDebit(true))

	for i := 0; i < 3; i++ {
		if res, err := svc.AddItem(ctx, "c1", "p1"); err != nil || !res.Outcome.Success {
			t.Fatalf("add #%d failed: %+v, %v", i+1, res, err)
		}
	}

	carts.failSaves = true
	for attempt := 1; attempt <= 2; attempt++ {
		if _, err := svc.CompleteOrder(ctx, "c1"); err == nil {
			t.Fatalf("attempt %d: expected save error", attempt)
		}
		if p, _ := f.products.GetByID(ctx, "p1"); p.Stock != 5 {
			t.Fatalf("attempt %d: stock = %d, want 5", attempt, p.Stock)
		}
	}

	stored, _ := carts.Load(ctx, "c1")
	if line, _ := stored.Line("p1"); line.Quantity != 3 {
		t.Errorf("cart should keep its lines, quantity %d", line.Quantity)
	}

	carts.failSaves = false
	res, err := svc.CompleteOrder(ctx, "c1")
	if err != nil || !res.Outcome.Success {
		t.Fatalf("expected completed order, got %+v, %v", res, err)
	}
	if p, _ := f.products.GetByID(ctx, "p1"); p.Stock != 2 {
		t.Errorf("stock = %d, want 2 after one order", p.Stock)
	}
}

func TestCartService_ConcurrentAdds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.AddItem(ctx, "shared", "p1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if res.Outcome.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 5 {
		t.Errorf("successes = %d, want 5", successes)
	}
	stored, _ := f.carts.Load(ctx, "shared")
	if line, _ := stored.Line("p1"); line.Quantity != 5 {
		t.Errorf("stored quantity = %d, want 5", line.Quantity)
	}
	if len(f.svc.locks.locks) != 0 {
		t.Errorf("lock entries leaked: %d", len(f.svc.locks.locks))
	}
}

func TestCartService_NewCartID(t *testing.T) {
	f := newFixture(t)
	a, b := f.svc.NewCartID(), f.svc.NewCartID()
	if a == "" || a == b {
		t.Errorf("expected unique IDs, got %q and %q", a, b)
	}
}
