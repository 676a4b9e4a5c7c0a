package cart

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	cartapp "storefront/internal/app/cart"
)

func RegisterRoutes(r chi.Router, s cartapp.CartService, l *zap.Logger) {
	handler := NewCartHandler(s, l.With(zap.String("component", "CartHTTPHandler")))

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Post("/add", handler.Add)
		r.Put("/update", handler.UpdateQuantity)
		r.Delete("/clear", handler.Clear)
	})
}
