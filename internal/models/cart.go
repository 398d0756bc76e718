package models

// CartLine is one product's quantity within a cart
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is the shopper's line sequence plus an optional selected coupon code.
// The cart references the coupon by code only; the registry owns the coupon.
type Cart struct {
	Lines          []CartLine `json:"lines"`
	SelectedCoupon string     `json:"selectedCoupon,omitempty"`
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// HasCoupon reports whether a coupon is currently selected
func (c Cart) HasCoupon() bool {
	return c.SelectedCoupon != ""
}

// Line returns the line for productID, if present
func (c Cart) Line(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// Clone returns a deep copy so callers can derive a new cart without touching c
func (c Cart) Clone() Cart {
	out := Cart{SelectedCoupon: c.SelectedCoupon}
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}

// ItemCount returns the total number of units across all lines
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}
