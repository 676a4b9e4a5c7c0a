package orders

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/app/checkout"
)

func RegisterRoutes(r chi.Router, s checkout.CheckoutService, l *zap.Logger) {
	handler := NewOrderHandler(s, l.With(zap.String("component", "OrderHTTPHandler")))

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.GetUserOrders)
		r.Get("/{orderID}", handler.GetOrder)
		r.Get("/{orderID}/tracking", handler.GetTracking)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/orders", handler.GetAllOrders)
		r.Put("/orders/{orderID}", handler.UpdateOrderStatus)
		r.Get("/analytics", handler.Analytics)
	})
}
