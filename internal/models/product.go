package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTier is returned when discount tiers are out of order or out of range
	ErrInvalidTier = errors.New("invalid discount tier")
	// ErrInvalidProduct is returned when a product record fails validation
	ErrInvalidProduct = errors.New("invalid product")
)

// DiscountTier is a bulk-quantity discount: lines with at least MinQuantity units
// are charged (1 - Rate) of their sticker amount
type DiscountTier struct {
	MinQuantity int             `json:"minQuantity" yaml:"minQuantity"`
	Rate        decimal.Decimal `json:"rate" yaml:"rate"`
}

// Product represents a purchasable item in the storefront catalog.
// Price is expressed in the smallest currency unit.
type Product struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Price       int64          `json:"price" yaml:"price"`
	Stock       int            `json:"stock" yaml:"stock"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Discounts   []DiscountTier `json:"discounts,omitempty" yaml:"discounts,omitempty"`
}

// NewDiscountTiers validates tiers and returns a copy.
// Thresholds must be positive and strictly increasing, rates must lie in (0,1).
func NewDiscountTiers(tiers ...DiscountTier) ([]DiscountTier, error) {
	if len(tiers) == 0 {
		return nil, nil
	}

	out := make([]DiscountTier, len(tiers))
	for i, tier := range tiers {
		if tier.MinQuantity <= 0 {
			return nil, fmt.Errorf("%w: tier %d has non-positive minQuantity %d", ErrInvalidTier, i, tier.MinQuantity)
		}
		if !tier.Rate.IsPositive() || tier.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: tier %d rate %s outside (0,1)", ErrInvalidTier, i, tier.Rate)
		}
		if i > 0 && tier.MinQuantity <= tiers[i-1].MinQuantity {
			return nil, fmt.Errorf("%w: tier %d minQuantity %d not above %d", ErrInvalidTier, i, tier.MinQuantity, tiers[i-1].MinQuantity)
		}
		out[i] = tier
	}

	return out, nil
}

// Validate checks the product record, including its discount tiers
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: negative price %d", ErrInvalidProduct, p.Price)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: negative stock %d", ErrInvalidProduct, p.Stock)
	}
	if _, err := NewDiscountTiers(p.Discounts...); err != nil {
		return err
	}
	return nil
}

// ApplicableTier returns the tier with the largest threshold not above quantity
func (p Product) ApplicableTier(quantity int) (DiscountTier, bool) {
	var (
		best  DiscountTier
		found bool
	)
	for _, tier := range p.Discounts {
		if tier.MinQuantity > quantity {
			break
		}
		best, found = tier, true
	}
	return best, found
}

// Matches reports whether the product name or description contains term, ignoring case
func (p Product) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}
