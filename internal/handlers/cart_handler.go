package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/service"
	"github.com/go-chi/chi/v5"
)

// AddItemRequest is the body of POST /api/cart/{cartId}/items
type AddItemRequest struct {
	ProductID string `json:"productId"`
}

// UpdateItemRequest is the body of PUT /api/cart/{cartId}/items/{productId}
type UpdateItemRequest struct {
	Quantity *int `json:"quantity"`
}

// ApplyCouponRequest is the body of PUT /api/cart/{cartId}/coupon
type ApplyCouponRequest struct {
	Code string `json:"code"`
}

// CartHandler handles cart session HTTP requests
type CartHandler struct {
	carts *service.CartService
	log   *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *service.CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{
		carts: carts,
		log:   log,
	}
}

// Routes mounts the cart endpoints under /api/cart
func (h *CartHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateCart)
	r.Route("/{cartId}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productId}", h.UpdateItem)
		r.Delete("/items/{productId}", h.RemoveItem)
		r.Put("/coupon", h.ApplyCoupon)
		r.Delete("/coupon", h.ClearCoupon)
		r.Post("/order", h.CompleteOrder)
	})
}

// CreateCart handles POST /api/cart
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	res, err := h.carts.Get(r.Context(), h.carts.NewCartID())
	if err != nil {
		h.fail(w, "create cart", err)
		return
	}
	WriteJSON(w, http.StatusCreated, CartResponse{
		Success:  true,
		Severity: res.Outcome.Severity,
		Cart:     res.View,
		Totals:   res.View.Totals,
	}, h.log)
}

// GetCart handles GET /api/cart/{cartId}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	res, err := h.carts.Get(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		h.fail(w, "get cart", err)
		return
	}
	WriteResult(w, res, h.log)
}

// AddItem handles POST /api/cart/{cartId}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}
	if req.ProductID == "" {
		WriteError(w, http.StatusBadRequest, "productId is required", h.log)
		return
	}

	res, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "cartId"), req.ProductID)
	if err != nil {
		h.fail(w, "add item", err)
		return
	}
	WriteResult(w, res, h.log)
}

// UpdateItem handles PUT /api/cart/{cartId}/items/{productId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}
	if req.Quantity == nil {
		WriteError(w, http.StatusBadRequest, "quantity is required", h.log)
		return
	}

	res, err := h.carts.UpdateQuantity(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId"), *req.Quantity)
	if err != nil {
		h.fail(w, "update item", err)
		return
	}
	WriteResult(w, res, h.log)
}

// RemoveItem handles DELETE /api/cart/{cartId}/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	res, err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId"))
	if err != nil {
		h.fail(w, "remove item", err)
		return
	}
	WriteResult(w, res, h.log)
}

// ApplyCoupon handles PUT /api/cart/{cartId}/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}
	if req.Code == "" {
		WriteError(w, http.StatusBadRequest, "code is required", h.log)
		return
	}

	res, err := h.carts.ApplyCoupon(r.Context(), chi.URLParam(r, "cartId"), req.Code)
	if err != nil {
		h.fail(w, "apply coupon", err)
		return
	}
	WriteResult(w, res, h.log)
}

// ClearCoupon handles DELETE /api/cart/{cartId}/coupon
func (h *CartHandler) ClearCoupon(w http.ResponseWriter, r *http.Request) {
	res, err := h.carts.ClearCoupon(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		h.fail(w, "clear coupon", err)
		return
	}
	WriteResult(w, res, h.log)
}

// CompleteOrder handles POST /api/cart/{cartId}/order
func (h *CartHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.carts.CompleteOrder(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		h.fail(w, "complete order", err)
		return
	}
	WriteResult(w, res, h.log)
}

func (h *CartHandler) fail(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCartID):
		WriteError(w, http.StatusBadRequest, "Invalid cart ID", h.log)
	case errors.Is(err, repository.ErrProductNotFound):
		WriteError(w, http.StatusNotFound, "Product not found", h.log)
	default:
		h.log.Error("failed to "+action, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
	}
}
