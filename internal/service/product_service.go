package service

import (
	"context"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/stock"
	"github.com/google/uuid"
)

// ProductView is a catalog entry annotated with availability for one cart
type ProductView struct {
	models.Product
	RemainingStock int  `json:"remainingStock"`
	SoldOut        bool `json:"soldOut"`
}

// ProductService handles business logic for products
type ProductService struct {
	repo  repository.ProductRepository
	carts repository.CartRepository
}

// NewProductService creates a new product service.
// carts may be nil, in which case availability ignores cart contents.
func NewProductService(repo repository.ProductRepository, carts repository.CartRepository) *ProductService {
	return &ProductService{
		repo:  repo,
		carts: carts,
	}
}

// ListProducts returns all available products
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// SearchProducts returns products matching term, with remaining stock computed against cartID
func (s *ProductService) SearchProducts(ctx context.Context, term, cartID string) ([]ProductView, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if cartID != "" && s.carts != nil {
		// A cart that cannot be read counts as empty for availability
		if loaded, err := s.carts.Load(ctx, cartID); err == nil {
			cart = loaded
		}
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		if !p.Matches(term) {
			continue
		}
		remaining := stock.Remaining(p, cart)
		views = append(views, ProductView{
			Product:        p,
			RemainingStock: remaining,
			SoldOut:        remaining <= 0,
		})
	}
	return views, nil
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// UpsertProduct creates or replaces a product. A missing ID is generated.
func (s *ProductService) UpsertProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	if product.ID == "" {
		product.ID = "p" + uuid.New().String()
	}
	tiers, err := models.NewDiscountTiers(product.Discounts...)
	if err != nil {
		return nil, err
	}
	product.Discounts = tiers

	if err := s.repo.Upsert(ctx, product); err != nil {
		return nil, err
	}
	return &product, nil
}

// RemoveProduct deletes a product by ID
func (s *ProductService) RemoveProduct(ctx context.Context, id string) error {
	return s.repo.Remove(ctx, id)
}
