// Package cart implements the cart state machine. Every operation derives a
// new cart from its input and reports the result as a models.Outcome; the
// caller's cart value is never modified.
package cart

import (
	"fmt"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/stock"
)

// Messages reported in outcomes
const (
	MsgAdded           = "added to cart"
	MsgStockExceeded   = "stock exceeded"
	MsgQuantityUpdated = "quantity updated"
	MsgExceedsStock    = "exceeds stock: at most %d available"
	MsgRemoved         = "removed from cart"
	MsgCouponApplied   = "coupon applied"
	MsgCouponEmptyCart = "add items before applying a coupon"
	MsgCouponCleared   = "coupon removed"
	MsgCouponGone      = "selected coupon %s is no longer available"
	MsgOrderCompleted  = "order completed"
	MsgNothingToOrder  = "nothing to order"
)

// AddItem adds one unit of product, bounded by its stock
func AddItem(c models.Cart, product models.Product) models.Outcome {
	if !stock.IsAvailable(product, c) {
		return models.Failed(c.Clone(), models.ReasonStockExceeded, MsgStockExceeded)
	}

	// Remaining stock is positive here, so one more unit always fits
	next := c.Clone()
	for i := range next.Lines {
		if next.Lines[i].ProductID == product.ID {
			next.Lines[i].Quantity++
			return models.Succeeded(next, MsgAdded)
		}
	}

	next.Lines = append(next.Lines, models.CartLine{ProductID: product.ID, Quantity: 1})
	return models.Succeeded(next, MsgAdded)
}

// UpdateItemQuantity sets a line's quantity. Non-positive quantities remove the
// line; quantities above stockLimit are rejected without clamping.
func UpdateItemQuantity(c models.Cart, productID string, newQuantity, stockLimit int) models.Outcome {
	if newQuantity <= 0 {
		return RemoveItem(c, productID)
	}
	if newQuantity > stockLimit {
		return models.Failed(c.Clone(), models.ReasonStockExceeded, fmt.Sprintf(MsgExceedsStock, stockLimit))
	}

	next := c.Clone()
	for i := range next.Lines {
		if next.Lines[i].ProductID == productID {
			next.Lines[i].Quantity = newQuantity
			return models.Succeeded(next, MsgQuantityUpdated)
		}
	}

	// Updating a product that is not in the cart leaves the cart unchanged
	return models.Succeeded(next, MsgQuantityUpdated)
}

// RemoveItem drops the line for productID. Removing an absent product is a no-op.
func RemoveItem(c models.Cart, productID string) models.Outcome {
	next := models.Cart{SelectedCoupon: c.SelectedCoupon}
	for _, line := range c.Lines {
		if line.ProductID != productID {
			next.Lines = append(next.Lines, line)
		}
	}
	return models.Succeeded(normalize(next), MsgRemoved)
}

// ApplyCoupon selects coupon for the cart if it passes validation
func ApplyCoupon(c models.Cart, selected models.Coupon) models.Outcome {
	if err := coupon.ValidateForApplication(c, selected); err != nil {
		return models.Failed(c.Clone(), models.ReasonFor(err), MsgCouponEmptyCart)
	}

	next := c.Clone()
	next.SelectedCoupon = selected.Code
	return models.Succeeded(next, MsgCouponApplied)
}

// ClearCoupon deselects the current coupon
func ClearCoupon(c models.Cart) models.Outcome {
	next := c.Clone()
	next.SelectedCoupon = ""
	return models.Succeeded(next, MsgCouponCleared)
}

// ReconcileCoupon clears the selection when its code is no longer registered.
// The outcome is a warning when a selection was dropped.
func ReconcileCoupon(c models.Cart, idx *coupon.Index) models.Outcome {
	if !c.HasCoupon() || idx.Contains(c.SelectedCoupon) {
		return models.Succeeded(c.Clone(), "")
	}

	next := c.Clone()
	next.SelectedCoupon = ""
	return models.Outcome{
		Cart:     next,
		Success:  true,
		Message:  fmt.Sprintf(MsgCouponGone, c.SelectedCoupon),
		Severity: models.SeverityWarning,
		Reason:   models.ReasonCouponNotFound,
	}
}

// CompleteOrder finalizes a non-empty cart, returning it to the empty state.
// Stock is not debited here.
func CompleteOrder(c models.Cart) models.Outcome {
	if c.IsEmpty() {
		return models.Failed(c.Clone(), models.ReasonEmptyCart, MsgNothingToOrder)
	}
	return models.Succeeded(models.Cart{}, MsgOrderCompleted)
}

// normalize enforces that an empty cart carries no coupon selection
func normalize(c models.Cart) models.Cart {
	if c.IsEmpty() {
		return models.Cart{}
	}
	return c
}
