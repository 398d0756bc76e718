package coupon

import (
	"errors"
	"testing"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/shopspring/decimal"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		total  int64
		coupon models.Coupon
		want   int64
	}{
		{
			name:   "amount coupon",
			total:  10000,
			coupon: models.Coupon{Code: "FLAT3000", DiscountType: models.DiscountAmount, Value: decimal.NewFromInt(3000)},
			want:   7000,
		},
		{
			name:   "percentage coupon",
			total:  10000,
			coupon: models.Coupon{Code: "PCT20", DiscountType: models.DiscountPercentage, Value: decimal.RequireFromString("0.2")},
			want:   8000,
		},
		{
			name:   "amount larger than total floors at zero",
			total:  2000,
			coupon: models.Coupon{Code: "FLAT3000", DiscountType: models.DiscountAmount, Value: decimal.NewFromInt(3000)},
			want:   0,
		},
		{
			name:   "percentage truncates toward zero",
			total:  999,
			coupon: models.Coupon{Code: "PCT15", DiscountType: models.DiscountPercentage, Value: decimal.RequireFromString("0.15")},
			want:   849, // 849.15
		},
		{
			name:   "zero amount",
			total:  500,
			coupon: models.Coupon{Code: "ZERO", DiscountType: models.DiscountAmount, Value: decimal.Zero},
			want:   500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.total, tt.coupon); got != tt.want {
				t.Errorf("Apply(%d) = %d, want %d", tt.total, got, tt.want)
			}
		})
	}
}

func TestValidateForApplication(t *testing.T) {
	c := Defaults()[0]

	if err := ValidateForApplication(models.Cart{}, c); !errors.Is(err, models.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}

	cart := models.Cart{Lines: []models.CartLine{{ProductID: "p1", Quantity: 1}}}
	if err := ValidateForApplication(cart, c); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
