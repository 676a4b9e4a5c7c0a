package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	cartapp "storefront/internal/app/cart"
	"storefront/internal/domain"
)

type CartHandler struct {
	service cartapp.CartService
	logger  *zap.Logger
}

func NewCartHandler(s cartapp.CartService, l *zap.Logger) *CartHandler {
	return &CartHandler{service: s, logger: l}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *CartHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("Error getting cart", zap.String("user_id", userID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var line domain.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Add(r.Context(), userID, line); err != nil {
		switch {
		case errors.Is(err, cartapp.ErrInvalidItem):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, cartapp.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		default:
			h.logger.Error("Error adding to cart", zap.String("user_id", userID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	h.respondWithCart(w, r, userID)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var line domain.CartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), userID, line); err != nil {
		switch {
		case errors.Is(err, cartapp.ErrInvalidItem):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, cartapp.ErrItemNotFound):
			http.Error(w, "Item not in cart", http.StatusNotFound)
		default:
			h.logger.Error("Error updating cart", zap.String("user_id", userID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	h.respondWithCart(w, r, userID)
}

// respondWithCart returns the current cart view after a mutation.
func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, userID string) {
	view, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("Error reloading cart", zap.String("user_id", userID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		h.logger.Error("Error clearing cart", zap.String("user_id", userID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
