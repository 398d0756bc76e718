package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidCoupon is returned when a coupon record fails validation
var ErrInvalidCoupon = errors.New("invalid coupon")

// DiscountType selects how a coupon reduces the order total
type DiscountType string

const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

// Coupon is an order-level promotional reduction.
// For amount coupons Value is a whole number of minor currency units;
// for percentage coupons Value is a fraction in (0,1).
type Coupon struct {
	Name         string          `json:"name" yaml:"name"`
	Code         string          `json:"code" yaml:"code"`
	DiscountType DiscountType    `json:"discountType" yaml:"discountType"`
	Value        decimal.Decimal `json:"value" yaml:"value"`
}

// Validate checks the coupon code and value against its discount type
func (c Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	}

	switch c.DiscountType {
	case DiscountAmount:
		if c.Value.IsNegative() || !c.Value.IsInteger() {
			return fmt.Errorf("%w: amount %s must be a non-negative integer", ErrInvalidCoupon, c.Value)
		}
	case DiscountPercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: percentage %s outside (0,1)", ErrInvalidCoupon, c.Value)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidCoupon, c.DiscountType)
	}

	return nil
}
