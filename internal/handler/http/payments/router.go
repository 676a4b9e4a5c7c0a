package payments

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/app/reconcile"
	"storefront/internal/config"
	"storefront/internal/gateway/rates"
)

func RegisterRoutes(r chi.Router, s reconcile.ReconcileService, rc *rates.Client, wallets config.CryptoWallets, bank config.BankDetails, l *zap.Logger) {
	handler := NewPaymentHandler(s, rc, wallets, bank, l.With(zap.String("component", "PaymentHTTPHandler")))

	r.Route("/payments", func(r chi.Router) {
		r.Post("/verify", handler.VerifyPayment)
		r.Post("/webhook", handler.Webhook)
	})
	r.Get("/crypto/rates", handler.CryptoRates)
	r.Get("/payment-methods", handler.PaymentMethods)
}
