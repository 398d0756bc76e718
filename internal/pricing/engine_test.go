package pricing

import (
	"testing"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/shopspring/decimal"
)

func tieredProduct(t *testing.T) models.Product {
	t.Helper()

	tiers, err := models.NewDiscountTiers(
		models.DiscountTier{MinQuantity: 10, Rate: decimal.RequireFromString("0.1")},
		models.DiscountTier{MinQuantity: 20, Rate: decimal.RequireFromString("0.2")},
	)
	if err != nil {
		t.Fatalf("failed to build tiers: %v", err)
	}
	return models.Product{ID: "p1", Name: "Widget", Price: 1000, Stock: 50, Discounts: tiers}
}

func TestLineTotal(t *testing.T) {
	product := tieredProduct(t)

	tests := []struct {
		name     string
		quantity int
		want     int64
	}{
		{name: "below first tier", quantity: 9, want: 9000},
		{name: "at first tier", quantity: 10, want: 9000},
		{name: "between tiers", quantity: 15, want: 13500},
		{name: "at second tier", quantity: 20, want: 16000},
		{name: "zero quantity", quantity: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineTotal(product, tt.quantity); got != tt.want {
				t.Errorf("LineTotal(%d) = %d, want %d", tt.quantity, got, tt.want)
			}
		})
	}
}

func TestLineTotal_Truncates(t *testing.T) {
	product := models.Product{
		ID:        "p2",
		Name:      "Odd",
		Price:     333,
		Stock:     10,
		Discounts: []models.DiscountTier{{MinQuantity: 1, Rate: decimal.RequireFromString("0.1")}},
	}

	// 333 * 0.9 = 299.7
	if got := LineTotal(product, 1); got != 299 {
		t.Errorf("LineTotal() = %d, want 299", got)
	}
}

func TestLineTotal_ExactBelowSmallestThreshold(t *testing.T) {
	product := tieredProduct(t)
	for q := 1; q < 10; q++ {
		if got, want := LineTotal(product, q), product.Price*int64(q); got != want {
			t.Errorf("LineTotal(%d) = %d, want %d", q, got, want)
		}
	}
}

func TestLineTotal_MonotonicInQuantity(t *testing.T) {
	product := tieredProduct(t)

	prev := LineTotal(product, 0)
	for q := 1; q <= 40; q++ {
		got := LineTotal(product, q)
		if got < prev {
			t.Errorf("LineTotal(%d) = %d decreased from %d", q, got, prev)
		}
		prev = got
	}
}

func TestCartTotals(t *testing.T) {
	product := tieredProduct(t)
	plain := models.Product{ID: "p2", Name: "Gadget", Price: 500, Stock: 10}
	catalog := NewCatalog([]models.Product{product, plain})

	cart := models.Cart{Lines: []models.CartLine{
		{ProductID: "p1", Quantity: 10},
		{ProductID: "p2", Quantity: 2},
		{ProductID: "ghost", Quantity: 3},
	}}

	t.Run("no coupon", func(t *testing.T) {
		got := CartTotals(cart, catalog, nil)
		if got.TotalBeforeDiscount != 11000 {
			t.Errorf("TotalBeforeDiscount = %d, want 11000", got.TotalBeforeDiscount)
		}
		if got.TotalAfterDiscount != 10000 {
			t.Errorf("TotalAfterDiscount = %d, want 10000", got.TotalAfterDiscount)
		}
		if got.Discount() != 1000 {
			t.Errorf("Discount() = %d, want 1000", got.Discount())
		}
	})

	t.Run("coupon applies after tier discounts", func(t *testing.T) {
		selected := coupon.Defaults()[1] // 10% off
		got := CartTotals(cart, catalog, &selected)
		if got.TotalAfterDiscount != 9000 {
			t.Errorf("TotalAfterDiscount = %d, want 9000", got.TotalAfterDiscount)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		got := CartTotals(models.Cart{}, catalog, nil)
		if got != (Totals{}) {
			t.Errorf("expected zero totals, got %+v", got)
		}
	})
}

func TestCartTotals_AfterNeverExceedsBefore(t *testing.T) {
	product := tieredProduct(t)
	catalog := NewCatalog([]models.Product{product})

	selections := []*models.Coupon{nil}
	for _, c := range coupon.Defaults() {
		c := c
		selections = append(selections, &c)
	}

	for q := 1; q <= 30; q++ {
		cart := models.Cart{Lines: []models.CartLine{{ProductID: "p1", Quantity: q}}}
		for _, selected := range selections {
			got := CartTotals(cart, catalog, selected)
			if got.TotalAfterDiscount > got.TotalBeforeDiscount {
				t.Errorf("quantity %d: after %d > before %d", q, got.TotalAfterDiscount, got.TotalBeforeDiscount)
			}
			if got.TotalAfterDiscount < 0 {
				t.Errorf("quantity %d: negative total %d", q, got.TotalAfterDiscount)
			}
		}
	}
}

func TestItemTotal(t *testing.T) {
	catalog := NewCatalog([]models.Product{tieredProduct(t)})

	if got := ItemTotal(models.CartLine{ProductID: "p1", Quantity: 10}, catalog); got != 9000 {
		t.Errorf("ItemTotal() = %d, want 9000", got)
	}
	if got := ItemTotal(models.CartLine{ProductID: "missing", Quantity: 1}, catalog); got != 0 {
		t.Errorf("ItemTotal() for unknown product = %d, want 0", got)
	}
}
