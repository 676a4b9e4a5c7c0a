package products

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/app/catalog"
)

func RegisterRoutes(r chi.Router, s catalog.CatalogService, l *zap.Logger) {
	handler := NewProductHandler(s, l.With(zap.String("component", "ProductHTTPHandler")))

	r.Route("/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
		r.Get("/{productID}", handler.GetProduct)
	})

	r.Route("/admin/inventory", func(r chi.Router) {
		r.Get("/low-stock", handler.LowStock)
		r.Put("/{productID}", handler.SetStock)
	})
}
