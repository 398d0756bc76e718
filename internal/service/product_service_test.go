package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
	"github.com/shopspring/decimal"
)

func TestProductService_SearchProducts(t *testing.T) {
	ctx := context.Background()
	products := repository.NewInMemoryProductRepositoryWith([]models.Product{
		{ID: "a", Name: "Green Tea", Price: 300, Stock: 2, Description: "loose leaf"},
		{ID: "b", Name: "Coffee", Price: 400, Stock: 1, Description: "dark roast"},
		{ID: "c", Name: "Mug", Price: 900, Stock: 0},
	})
	carts := repository.NewInMemoryCartRepository()
	_ = carts.Save(ctx, "c1", models.Cart{Lines: []models.CartLine{{ProductID: "b", Quantity: 1}}})

	svc := NewProductService(products, carts)

	tests := []struct {
		name    string
		term    string
		cartID  string
		wantIDs []string
		soldOut map[string]bool
	}{
		{name: "all", wantIDs: []string{"a", "b", "c"}, soldOut: map[string]bool{"c": true}},
		{name: "by name", term: "TEA", wantIDs: []string{"a"}},
		{name: "by description", term: "roast", wantIDs: []string{"b"}},
		{name: "cart consumes stock", cartID: "c1", wantIDs: []string{"a", "b", "c"}, soldOut: map[string]bool{"b": true, "c": true}},
		{name: "no match", term: "zzz", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.SearchProducts(ctx, tt.term, tt.cartID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(views) != len(tt.wantIDs) {
				t.Fatalf("got %d products, want %d", len(views), len(tt.wantIDs))
			}
			for i, v := range views {
				if v.ID != tt.wantIDs[i] {
					t.Errorf("views[%d].ID = %s, want %s", i, v.ID, tt.wantIDs[i])
				}
				if v.SoldOut != tt.soldOut[v.ID] {
					t.Errorf("%s soldOut = %v", v.ID, v.SoldOut)
				}
			}
		})
	}
}

func TestProductService_UpsertProduct(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryProductRepositoryWith(nil)
	svc := NewProductService(repo, nil)

	created, err := svc.UpsertProduct(ctx, models.Product{Name: "Kettle", Price: 2500, Stock: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(created.ID, "p") || len(created.ID) < 2 {
		t.Errorf("expected generated ID, got %q", created.ID)
	}
	if _, err := svc.GetProduct(ctx, created.ID); err != nil {
		t.Errorf("created product not stored: %v", err)
	}

	_, err = svc.UpsertProduct(ctx, models.Product{
		ID: "x", Name: "Bad", Price: 100, Stock: 1,
		Discounts: []models.DiscountTier{
			{MinQuantity: 5, Rate: decimal.RequireFromString("0.1")},
			{MinQuantity: 3, Rate: decimal.RequireFromString("0.2")},
		},
	})
	if !errors.Is(err, models.ErrInvalidTier) {
		t.Errorf("expected ErrInvalidTier, got %v", err)
	}

	if err := svc.RemoveProduct(ctx, created.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := svc.GetProduct(ctx, created.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}
