package products

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/app/catalog"
	"storefront/internal/repository/product_repo"
)

type ProductHandler struct {
	service catalog.CatalogService
	logger  *zap.Logger
}

func NewProductHandler(s catalog.CatalogService, l *zap.Logger) *ProductHandler {
	return &ProductHandler{service: s, logger: l}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseFilter(r *http.Request) product_repo.ProductFilter {
	q := r.URL.Query()
	filter := product_repo.ProductFilter{
		Category: q.Get("category"),
		Sport:    q.Get("sport"),
		Search:   q.Get("search"),
	}
	if v := q.Get("featured"); v != "" {
		if featured, err := strconv.ParseBool(v); err == nil {
			filter.Featured = &featured
		}
	}
	if v := q.Get("min_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = &price
		}
	}
	if v := q.Get("max_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &price
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}
	return filter
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.ListProducts(r.Context(), parseFilter(r))
	if err != nil {
		h.logger.Error("Error listing products", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	product, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting product", zap.String("product_id", productID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.LowStock(r.Context())
	if err != nil {
		h.logger.Error("Error listing low stock products", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": h.service.LowStockThreshold(),
		"products":  products,
	})
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

func (h *ProductHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Stock < 0 {
		http.Error(w, "stock must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.service.SetStock(r.Context(), productID, req.Stock); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error setting stock", zap.String("product_id", productID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": productID, "stock": req.Stock})
}
