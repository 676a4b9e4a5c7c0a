package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/app/checkout"
	"storefront/internal/domain"
	"storefront/internal/payment"
)

type OrderHandler struct {
	service checkout.CheckoutService
	logger  *zap.Logger
}

func NewOrderHandler(s checkout.CheckoutService, l *zap.Logger) *OrderHandler {
	return &OrderHandler{service: s, logger: l}
}

// Identity headers are set by the upstream gateway after authentication.
func callerIdentity(r *http.Request) (userID, userEmail string) {
	return r.Header.Get("X-User-ID"), r.Header.Get("X-User-Email")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, userEmail := callerIdentity(r)
	if userID == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req checkout.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateOrder", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.CreateOrder(r.Context(), userID, userEmail, &req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidOrder), errors.Is(err, payment.ErrUnsupportedMethod):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, checkout.ErrProductNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("Error creating order", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *OrderHandler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerIdentity(r)
	if userID == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	orders, err := h.service.GetUserOrders(r.Context(), userID)
	if err != nil {
		h.logger.Error("Error getting orders for user", zap.String("user_id", userID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerIdentity(r)
	if userID == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	orderID := chi.URLParam(r, "orderID")

	order, err := h.service.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting order", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) GetTracking(w http.ResponseWriter, r *http.Request) {
	userID, _ := callerIdentity(r)
	if userID == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	orderID := chi.URLParam(r, "orderID")

	tracking, err := h.service.GetTracking(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting tracking", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tracking)
}

func (h *OrderHandler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetAllOrders(r.Context())
	if err != nil {
		h.logger.Error("Error getting all orders", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req checkout.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for UpdateOrderStatus", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), orderID, &req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidStatusTransition):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("Error updating order status", zap.String("order_id", orderID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Analytics(r.Context())
	if err != nil {
		h.logger.Error("Error computing analytics", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
