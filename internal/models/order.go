package models

import "time"

// Order is the receipt produced when a cart is completed
type Order struct {
	ID                  string     `json:"id"`
	Lines               []CartLine `json:"lines"`
	CouponCode          string     `json:"couponCode,omitempty"`
	TotalBeforeDiscount int64      `json:"totalBeforeDiscount"`
	TotalAfterDiscount  int64      `json:"totalAfterDiscount"`
	CreatedAt           time.Time  `json:"createdAt"`
}
