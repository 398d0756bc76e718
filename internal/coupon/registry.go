package coupon

import (
	"fmt"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
)

// Add returns a new collection with newCoupon appended.
// The input collection is returned unchanged alongside the error on rejection.
func Add(coupons []models.Coupon, newCoupon models.Coupon) ([]models.Coupon, error) {
	if err := newCoupon.Validate(); err != nil {
		return coupons, err
	}
	if _, ok := Find(coupons, newCoupon.Code); ok {
		return coupons, fmt.Errorf("%w: %s", models.ErrDuplicateCouponCode, newCoupon.Code)
	}

	out := make([]models.Coupon, 0, len(coupons)+1)
	out = append(out, coupons...)
	return append(out, newCoupon), nil
}

// Delete returns a new collection without the coupon matching code.
// Deleting an unknown code is a no-op.
func Delete(coupons []models.Coupon, code string) []models.Coupon {
	out := make([]models.Coupon, 0, len(coupons))
	for _, c := range coupons {
		if c.Code != code {
			out = append(out, c)
		}
	}
	return out
}

// Find looks up a coupon by code
func Find(coupons []models.Coupon, code string) (models.Coupon, bool) {
	for _, c := range coupons {
		if c.Code == code {
			return c, true
		}
	}
	return models.Coupon{}, false
}
