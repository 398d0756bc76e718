package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/cart"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/pricing"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/stock"
	"github.com/google/uuid"
)

var (
	ErrInvalidCartID = errors.New("invalid cart id")

	// errCartNotSaved marks failures after the operation ran but before its result was stored
	errCartNotSaved = errors.New("cart not saved")
)

const opGet = "get"

// LineView is a cart line priced against the current catalog
type LineView struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	Quantity       int    `json:"quantity"`
	ItemTotal      int64  `json:"itemTotal"`
	RemainingStock int    `json:"remainingStock"`
}

// CartView is the derived state returned after every cart operation
type CartView struct {
	ID             string         `json:"id"`
	Lines          []LineView     `json:"lines"`
	SelectedCoupon *models.Coupon `json:"selectedCoupon,omitempty"`
	Totals         pricing.Totals `json:"totals"`
	ItemCount      int            `json:"itemCount"`
}

// Result couples an operation outcome with the cart it produced
type Result struct {
	Outcome models.Outcome
	View    CartView
	Order   *models.Order
}

// CartService runs cart operations against persisted carts.
// Each call loads the cart, applies one engine operation and saves the result
// while holding a per-cart lock.
type CartService struct {
	carts      repository.CartRepository
	products   repository.ProductRepository
	coupons    *CouponService
	log        *slog.Logger
	metrics    *metrics.Metrics
	debitStock bool
	locks      *keyedMutex
	now        func() time.Time
}

// CartServiceOption customizes a CartService
type CartServiceOption func(*CartService)

// WithStockDebit makes order completion subtract ordered quantities from the catalog
func WithStockDebit(enabled bool) CartServiceOption {
	return func(s *CartService) {
		s.debitStock = enabled
	}
}

// WithMetrics attaches Prometheus collectors
func WithMetrics(m *metrics.Metrics) CartServiceOption {
	return func(s *CartService) {
		s.metrics = m
	}
}

// NewCartService creates a new cart service
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, coupons *CouponService, log *slog.Logger, opts ...CartServiceOption) *CartService {
	s := &CartService{
		carts:    carts,
		products: products,
		coupons:  coupons,
		log:      log,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCartID generates a session ID for a new cart
func (s *CartService) NewCartID() string {
	return uuid.New().String()
}

// Get returns the cart, clearing a selected coupon that no longer exists
func (s *CartService) Get(ctx context.Context, cartID string) (*Result, error) {
	return s.run(ctx, cartID, opGet, func(c models.Cart) (models.Outcome, error) {
		return models.Succeeded(c, ""), nil
	})
}

// AddItem adds one unit of productID
func (s *CartService) AddItem(ctx context.Context, cartID, productID string) (*Result, error) {
	return s.run(ctx, cartID, "add_item", func(c models.Cart) (models.Outcome, error) {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return models.Outcome{}, err
		}
		return cart.AddItem(c, *product), nil
	})
}

// UpdateQuantity sets the quantity of productID, bounded by the product's stock
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, productID string, quantity int) (*Result, error) {
	return s.run(ctx, cartID, "update_quantity", func(c models.Cart) (models.Outcome, error) {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return models.Outcome{}, err
		}
		return cart.UpdateItemQuantity(c, productID, quantity, product.Stock), nil
	})
}

// RemoveItem drops productID from the cart
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) (*Result, error) {
	return s.run(ctx, cartID, "remove_item", func(c models.Cart) (models.Outcome, error) {
		return cart.RemoveItem(c, productID), nil
	})
}

// ApplyCoupon selects the coupon registered under code
func (s *CartService) ApplyCoupon(ctx context.Context, cartID, code string) (*Result, error) {
	return s.run(ctx, cartID, "apply_coupon", func(c models.Cart) (models.Outcome, error) {
		selected, ok := s.coupons.Lookup(code)
		if !ok {
			return models.Failed(c, models.ReasonCouponNotFound, fmt.Sprintf("coupon %s not found", code)), nil
		}
		return cart.ApplyCoupon(c, selected), nil
	})
}

// ClearCoupon deselects the current coupon
func (s *CartService) ClearCoupon(ctx context.Context, cartID string) (*Result, error) {
	return s.run(ctx, cartID, "clear_coupon", func(c models.Cart) (models.Outcome, error) {
		return cart.ClearCoupon(c), nil
	})
}

// CompleteOrder finalizes the cart and returns an order receipt
func (s *CartService) CompleteOrder(ctx context.Context, cartID string) (*Result, error) {
	var (
		order   *models.Order
		debited []models.CartLine
	)

	res, err := s.run(ctx, cartID, "complete_order", func(c models.Cart) (models.Outcome, error) {
		out := cart.CompleteOrder(c)
		if !out.Success {
			return out, nil
		}

		catalog, err := s.catalog(ctx)
		if err != nil {
			return models.Outcome{}, err
		}
		totals := pricing.CartTotals(c, catalog, s.selectedCoupon(c))

		if s.debitStock {
			if err := s.products.Debit(ctx, c.Lines); err != nil {
				if errors.Is(err, models.ErrStockExceeded) {
					return models.Failed(c, models.ReasonStockExceeded, cart.MsgStockExceeded), nil
				}
				return models.Outcome{}, err
			}
			debited = c.Clone().Lines
		}

		order = &models.Order{
			ID:                  uuid.New().String(),
			Lines:               c.Clone().Lines,
			CouponCode:          c.SelectedCoupon,
			TotalBeforeDiscount: totals.TotalBeforeDiscount,
			TotalAfterDiscount:  totals.TotalAfterDiscount,
			CreatedAt:           s.now().UTC(),
		}
		return out, nil
	})
	if err != nil {
		if debited != nil && errors.Is(err, errCartNotSaved) {
			s.restock(ctx, cartID, debited)
		}
		return nil, err
	}

	if order != nil {
		res.Order = order
		s.metrics.ObserveOrder(*order)
		s.log.Info("order completed",
			"cart_id", cartID,
			"order_id", order.ID,
			"total", order.TotalAfterDiscount,
			"coupon", order.CouponCode,
		)
	}
	return res, nil
}

// run executes op under the cart lock and persists a successful result
func (s *CartService) run(ctx context.Context, cartID, operation string, op func(models.Cart) (models.Outcome, error)) (*Result, error) {
	if cartID == "" {
		return nil, ErrInvalidCartID
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	loaded := s.load(ctx, cartID)
	reconciled := cart.ReconcileCoupon(loaded, s.coupons.Index())

	out, err := op(reconciled.Cart)
	if err != nil {
		return nil, err
	}

	if reconciled.Severity == models.SeverityWarning {
		s.log.Warn("cleared stale coupon selection", "cart_id", cartID, "coupon", loaded.SelectedCoupon)
		if out.Message == "" {
			out.Message = reconciled.Message
			out.Severity = reconciled.Severity
			out.Reason = reconciled.Reason
		}
	}

	// Reads and rejected operations return the unchanged cart, which still has
	// to be saved when reconciliation dropped a stale coupon
	mutated := out.Success && operation != opGet
	if mutated || reconciled.Severity == models.SeverityWarning {
		if err := s.carts.Save(ctx, cartID, out.Cart); err != nil {
			s.log.Error("failed to save cart", "cart_id", cartID, "error", err)
			return nil, fmt.Errorf("%w: %w", errCartNotSaved, err)
		}
	}

	if operation != opGet {
		s.metrics.ObserveOutcome(operation, out)
		s.log.Debug("cart operation",
			"cart_id", cartID,
			"operation", operation,
			"success", out.Success,
			"reason", out.Reason,
		)
	}

	view, err := s.view(ctx, cartID, out.Cart)
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: out, View: view}, nil
}

// restock credits back a debit whose order could not be recorded
func (s *CartService) restock(ctx context.Context, cartID string, lines []models.CartLine) {
	if err := s.products.Credit(context.WithoutCancel(ctx), lines); err != nil {
		s.log.Error("failed to restore stock after unsaved order",
			"cart_id", cartID,
			"lines", lines,
			"error", err,
		)
		return
	}
	s.log.Warn("restored stock after unsaved order", "cart_id", cartID)
}

// load reads the cart, substituting an empty cart when storage fails
func (s *CartService) load(ctx context.Context, cartID string) models.Cart {
	c, err := s.carts.Load(ctx, cartID)
	if err != nil {
		s.log.Warn("failed to load cart, starting empty",
			"cart_id", cartID,
			"error", err,
			"reason", models.ReasonFor(err),
		)
		s.metrics.ObserveRecovery("cart")
		return models.Cart{}
	}
	return c
}

func (s *CartService) catalog(ctx context.Context) (pricing.Catalog, error) {
	products, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return pricing.NewCatalog(products), nil
}

func (s *CartService) selectedCoupon(c models.Cart) *models.Coupon {
	if !c.HasCoupon() {
		return nil
	}
	selected, ok := s.coupons.Lookup(c.SelectedCoupon)
	if !ok {
		return nil
	}
	return &selected
}

// view prices the cart against the current catalog
func (s *CartService) view(ctx context.Context, cartID string, c models.Cart) (CartView, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return CartView{}, err
	}

	selected := s.selectedCoupon(c)
	view := CartView{
		ID:             cartID,
		Lines:          make([]LineView, 0, len(c.Lines)),
		SelectedCoupon: selected,
		Totals:         pricing.CartTotals(c, catalog, selected),
		ItemCount:      c.ItemCount(),
	}

	for _, line := range c.Lines {
		lv := LineView{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			ItemTotal: pricing.ItemTotal(line, catalog),
		}
		if product, ok := catalog[line.ProductID]; ok {
			lv.Name = product.Name
			lv.Price = product.Price
			lv.RemainingStock = stock.Remaining(product, c)
		}
		view.Lines = append(view.Lines, lv)
	}

	return view, nil
}
