package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/service"
	"github.com/go-chi/chi/v5"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /api/product
// Optional query parameters: search filters by name or description,
// cartId computes remaining stock against that cart.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	products, err := h.service.SearchProducts(r.Context(), query.Get("search"), query.Get("cartId"))
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, products, h.logger)
}

// GetProduct handles GET /api/product/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		h.productError(w, productID, err)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// UpsertProduct handles PUT /api/admin/product
func (h *ProductHandler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := decodeJSON(r, &product); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	saved, err := h.service.UpsertProduct(r.Context(), product)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTier) || errors.Is(err, models.ErrInvalidProduct) {
			WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
			return
		}
		h.logger.Error("failed to upsert product", "productId", product.ID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	h.logger.Info("product saved", "productId", saved.ID)
	WriteJSON(w, http.StatusOK, saved, h.logger)
}

// RemoveProduct handles DELETE /api/admin/product/{productId}
func (h *ProductHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	if err := h.service.RemoveProduct(r.Context(), productID); err != nil {
		h.productError(w, productID, err)
		return
	}

	h.logger.Info("product removed", "productId", productID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) productError(w http.ResponseWriter, productID string, err error) {
	if errors.Is(err, repository.ErrProductNotFound) {
		h.logger.Info("product not found", "productId", productID)
		WriteError(w, http.StatusNotFound, "Product not found", h.logger)
		return
	}

	h.logger.Error("product lookup failed", "productId", productID, "error", err)
	WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
}
