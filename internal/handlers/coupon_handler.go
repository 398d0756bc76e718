package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/service"
	"github.com/go-chi/chi/v5"
)

// CouponHandler handles admin coupon requests
type CouponHandler struct {
	coupons *service.CouponService
	log     *slog.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(coupons *service.CouponService, log *slog.Logger) *CouponHandler {
	return &CouponHandler{
		coupons: coupons,
		log:     log,
	}
}

// ListCoupons handles GET /api/admin/coupon
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.coupons.List(r.Context()), h.log)
}

// AddCoupon handles POST /api/admin/coupon
func (h *CouponHandler) AddCoupon(w http.ResponseWriter, r *http.Request) {
	var c models.Coupon
	if err := decodeJSON(r, &c); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.log)
		return
	}

	out, coupons, err := h.coupons.Add(r.Context(), c)
	if err != nil {
		h.log.Error("failed to add coupon", "code", c.Code, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteOutcome(w, out, coupons, h.log)
}

// DeleteCoupon handles DELETE /api/admin/coupon/{couponCode}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "couponCode")

	out, coupons, err := h.coupons.Delete(r.Context(), code)
	if err != nil {
		h.log.Error("failed to delete coupon", "code", code, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteOutcome(w, out, coupons, h.log)
}

// GetStats handles GET /api/admin/coupon/stats
func (h *CouponHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.coupons.Index().Stats(), h.log)
}
