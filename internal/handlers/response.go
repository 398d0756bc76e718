package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/pricing"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/service"
)

// CartResponse is the envelope returned by every cart endpoint
type CartResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Severity models.Severity  `json:"severity"`
	Reason   models.Reason    `json:"reason,omitempty"`
	Cart     service.CartView `json:"cart"`
	Totals   pricing.Totals   `json:"totals"`
	Order    *models.Order    `json:"order,omitempty"`
}

// OutcomeResponse is returned by admin mutations that report an outcome
type OutcomeResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Severity models.Severity `json:"severity"`
	Reason   models.Reason   `json:"reason,omitempty"`
	Data     interface{}     `json:"data,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, logger)
}

// WriteResult writes a cart operation result, choosing the status from its outcome
func WriteResult(w http.ResponseWriter, res *service.Result, logger *slog.Logger) {
	WriteJSON(w, statusFor(res.Outcome), CartResponse{
		Success:  res.Outcome.Success,
		Message:  res.Outcome.Message,
		Severity: res.Outcome.Severity,
		Reason:   res.Outcome.Reason,
		Cart:     res.View,
		Totals:   res.View.Totals,
		Order:    res.Order,
	}, logger)
}

// WriteOutcome writes an admin outcome with its payload
func WriteOutcome(w http.ResponseWriter, out models.Outcome, data interface{}, logger *slog.Logger) {
	WriteJSON(w, statusFor(out), OutcomeResponse{
		Success:  out.Success,
		Message:  out.Message,
		Severity: out.Severity,
		Reason:   out.Reason,
		Data:     data,
	}, logger)
}

func statusFor(out models.Outcome) int {
	if out.Success {
		return http.StatusOK
	}

	switch out.Reason {
	case models.ReasonStockExceeded, models.ReasonDuplicateCoupon:
		return http.StatusConflict
	case models.ReasonEmptyCart:
		return http.StatusUnprocessableEntity
	case models.ReasonCouponNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
