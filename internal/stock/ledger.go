// Package stock computes how many units of a product remain purchasable
// given what the current cart already holds.
package stock

import "github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"

// QuantityInCart returns the units of productID committed to cart
func QuantityInCart(cart models.Cart, productID string) int {
	line, ok := cart.Line(productID)
	if !ok {
		return 0
	}
	return line.Quantity
}

// Remaining returns product.Stock minus the quantity already in cart.
// A result <= 0 means unavailable; it is not an error.
func Remaining(product models.Product, cart models.Cart) int {
	return product.Stock - QuantityInCart(cart, product.ID)
}

// IsAvailable reports whether at least one more unit can be added
func IsAvailable(product models.Product, cart models.Cart) bool {
	return Remaining(product, cart) > 0
}
