package coupon

import (
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Apply reduces total by the coupon. Amount coupons floor at zero;
// percentage coupons truncate toward zero.
func Apply(total int64, c models.Coupon) int64 {
	switch c.DiscountType {
	case models.DiscountAmount:
		discounted := total - c.Value.IntPart()
		if discounted < 0 {
			return 0
		}
		return discounted
	case models.DiscountPercentage:
		return decimal.NewFromInt(total).Mul(one.Sub(c.Value)).Truncate(0).IntPart()
	default:
		return total
	}
}

// ValidateForApplication checks the business rules for selecting a coupon.
// Coupons cannot be applied to an empty order; any other coupon is applicable.
func ValidateForApplication(cart models.Cart, _ models.Coupon) error {
	if cart.IsEmpty() {
		return models.ErrEmptyCart
	}
	return nil
}
