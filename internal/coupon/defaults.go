package coupon

import (
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/shopspring/decimal"
)

// Defaults returns the coupon set used when nothing has been persisted yet
func Defaults() []models.Coupon {
	return []models.Coupon{
		{
			Name:         "5000 off",
			Code:         "AMOUNT5000",
			DiscountType: models.DiscountAmount,
			Value:        decimal.NewFromInt(5000),
		},
		{
			Name:         "10% off",
			Code:         "PERCENT10",
			DiscountType: models.DiscountPercentage,
			Value:        decimal.RequireFromString("0.1"),
		},
	}
}
