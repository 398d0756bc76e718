package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Upsert(ctx context.Context, product models.Product) error
	Remove(ctx context.Context, id string) error
	Debit(ctx context.Context, lines []models.CartLine) error
	Credit(ctx context.Context, lines []models.CartLine) error
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// DefaultProducts returns the seed catalog
func DefaultProducts() []models.Product {
	tier := func(minQuantity int, rate string) models.DiscountTier {
		return models.DiscountTier{MinQuantity: minQuantity, Rate: decimal.RequireFromString(rate)}
	}

	return []models.Product{
		{ID: "p1", Name: "Chicken Waffle", Price: 1299, Stock: 20, Description: "Fried chicken on a buttermilk waffle",
			Discounts: []models.DiscountTier{tier(10, "0.1"), tier(20, "0.2")}},
		{ID: "p2", Name: "Belgian Waffle", Price: 1099, Stock: 20,
			Discounts: []models.DiscountTier{tier(10, "0.15")}},
		{ID: "p3", Name: "Chocolate Waffle", Price: 1199, Stock: 15},
		{ID: "p4", Name: "Caesar Salad", Price: 899, Stock: 30, Description: "Romaine, parmesan, croutons",
			Discounts: []models.DiscountTier{tier(5, "0.05"), tier(10, "0.1")}},
		{ID: "p5", Name: "Greek Salad", Price: 949, Stock: 25},
		{ID: "p6", Name: "Garden Salad", Price: 799, Stock: 25},
		{ID: "p7", Name: "Margherita Pizza", Price: 1499, Stock: 10, Description: "Tomato, mozzarella, basil",
			Discounts: []models.DiscountTier{tier(3, "0.1")}},
		{ID: "p8", Name: "Pepperoni Pizza", Price: 1699, Stock: 10},
		{ID: "p9", Name: "Veggie Pizza", Price: 1549, Stock: 10},
		{ID: "p10", Name: "Classic Burger", Price: 1399, Stock: 40,
			Discounts: []models.DiscountTier{tier(10, "0.1"), tier(25, "0.25")}},
	}
}

// NewInMemoryProductRepository creates a new in-memory product repository with seed data
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return NewInMemoryProductRepositoryWith(DefaultProducts())
}

// NewInMemoryProductRepositoryWith creates a repository holding products
func NewInMemoryProductRepositoryWith(products []models.Product) *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: indexProducts(products),
	}
}

// GetAll returns all products ordered by ID
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedProducts(r.products), nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Upsert inserts or replaces a product after validating it
func (r *InMemoryProductRepository) Upsert(ctx context.Context, product models.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = product
	return nil
}

// Remove deletes a product by its ID
func (r *InMemoryProductRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return removeProduct(r.products, id)
}

// Debit subtracts ordered quantities from stock. Either every line is debited or none is.
func (r *InMemoryProductRepository) Debit(ctx context.Context, lines []models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return debitStock(r.products, lines)
}

// Credit returns quantities to stock, reversing a Debit
func (r *InMemoryProductRepository) Credit(ctx context.Context, lines []models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	creditStock(r.products, lines)
	return nil
}

func indexProducts(products []models.Product) map[string]models.Product {
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}

func sortedProducts(byID map[string]models.Product) []models.Product {
	products := make([]models.Product, 0, len(byID))
	for _, product := range byID {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func removeProduct(byID map[string]models.Product, id string) error {
	if _, exists := byID[id]; !exists {
		return ErrProductNotFound
	}
	delete(byID, id)
	return nil
}

// debitStock checks every line before changing anything
func debitStock(byID map[string]models.Product, lines []models.CartLine) error {
	for _, line := range lines {
		product, exists := byID[line.ProductID]
		if !exists {
			return fmt.Errorf("debit %s: %w", line.ProductID, ErrProductNotFound)
		}
		if product.Stock < line.Quantity {
			return fmt.Errorf("debit %s: %w", line.ProductID, models.ErrStockExceeded)
		}
	}

	for _, line := range lines {
		product := byID[line.ProductID]
		product.Stock -= line.Quantity
		byID[line.ProductID] = product
	}
	return nil
}

// creditStock skips products removed since the debit
func creditStock(byID map[string]models.Product, lines []models.CartLine) {
	for _, line := range lines {
		product, exists := byID[line.ProductID]
		if !exists {
			continue
		}
		product.Stock += line.Quantity
		byID[line.ProductID] = product
	}
}
