package models

import "errors"

var (
	ErrStockExceeded       = errors.New("stock exceeded")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrDuplicateCouponCode = errors.New("duplicate coupon code")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrMalformedState      = errors.New("malformed persisted state")
)

// ReasonFor maps a sentinel error to the outcome reason reported to callers
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrStockExceeded):
		return ReasonStockExceeded
	case errors.Is(err, ErrEmptyCart):
		return ReasonEmptyCart
	case errors.Is(err, ErrDuplicateCouponCode):
		return ReasonDuplicateCoupon
	case errors.Is(err, ErrCouponNotFound):
		return ReasonCouponNotFound
	case errors.Is(err, ErrMalformedState):
		return ReasonMalformedState
	default:
		return Reason(err.Error())
	}
}
