// Package pricing computes line and cart totals under per-product bulk
// discount tiers. All amounts are minor currency units; fractional results
// are truncated toward zero.
package pricing

import (
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Catalog resolves product IDs for pricing
type Catalog map[string]models.Product

// NewCatalog indexes products by ID
func NewCatalog(products []models.Product) Catalog {
	catalog := make(Catalog, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	return catalog
}

// Totals holds the sticker subtotal and the payable amount
type Totals struct {
	TotalBeforeDiscount int64 `json:"totalBeforeDiscount"`
	TotalAfterDiscount  int64 `json:"totalAfterDiscount"`
}

// Discount returns the combined tier and coupon reduction
func (t Totals) Discount() int64 {
	return t.TotalBeforeDiscount - t.TotalAfterDiscount
}

// LineTotal returns the payable amount for quantity units of product
func LineTotal(product models.Product, quantity int) int64 {
	if quantity <= 0 {
		return 0
	}

	sticker := product.Price * int64(quantity)
	tier, ok := product.ApplicableTier(quantity)
	if !ok {
		return sticker
	}

	return decimal.NewFromInt(sticker).Mul(one.Sub(tier.Rate)).Truncate(0).IntPart()
}

// ItemTotal prices a single cart line; unknown products contribute nothing
func ItemTotal(line models.CartLine, catalog Catalog) int64 {
	product, ok := catalog[line.ProductID]
	if !ok {
		return 0
	}
	return LineTotal(product, line.Quantity)
}

// CartTotals sums the cart before and after discounts.
// selected may be nil when no coupon is active.
func CartTotals(cart models.Cart, catalog Catalog, selected *models.Coupon) Totals {
	var totals Totals
	for _, line := range cart.Lines {
		product, ok := catalog[line.ProductID]
		if !ok {
			continue
		}
		totals.TotalBeforeDiscount += product.Price * int64(line.Quantity)
		totals.TotalAfterDiscount += LineTotal(product, line.Quantity)
	}

	if selected != nil {
		totals.TotalAfterDiscount = coupon.Apply(totals.TotalAfterDiscount, *selected)
	}

	return totals
}
