package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/app/reconcile"
	"storefront/internal/config"
	"storefront/internal/gateway/rates"
)

const signatureHeader = "x-paystack-signature"

type PaymentHandler struct {
	service reconcile.ReconcileService
	rates   *rates.Client
	wallets config.CryptoWallets
	bank    config.BankDetails
	logger  *zap.Logger
}

func NewPaymentHandler(s reconcile.ReconcileService, rc *rates.Client, wallets config.CryptoWallets, bank config.BankDetails, l *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: s, rates: rc, wallets: wallets, bank: bank, logger: l}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req reconcile.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for VerifyPayment", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reference == "" || req.OrderID == "" {
		http.Error(w, "reference and order_id are required", http.StatusBadRequest)
		return
	}

	res, err := h.service.VerifyPayment(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, reconcile.ErrGatewayUnavailable):
			http.Error(w, "Payment gateway unavailable", http.StatusBadGateway)
		default:
			h.logger.Error("Error verifying payment", zap.String("reference", req.Reference), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader)); err != nil {
		if errors.Is(err, reconcile.ErrInvalidSignature) {
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		h.logger.Error("Error handling webhook", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PaymentHandler) CryptoRates(w http.ResponseWriter, r *http.Request) {
	prices := h.rates.SimplePrices(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"rates": prices})
}

func (h *PaymentHandler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods := []map[string]any{
		{"id": "paystack", "name": "Card Payment", "description": "Pay with debit or credit card"},
		{"id": "crypto_btc", "name": "Bitcoin", "wallet": h.wallets.BTC},
		{"id": "crypto_eth", "name": "Ethereum", "wallet": h.wallets.ETH},
		{"id": "crypto_usdt", "name": "USDT (TRC20)", "wallet": h.wallets.UsdtTRC20},
		{"id": "crypto_usdc", "name": "USDC (ERC20)", "wallet": h.wallets.UsdcERC20},
		{"id": "bank_transfer", "name": "Bank Transfer", "bank_name": h.bank.BankName, "account_number": h.bank.AccountNumber, "account_name": h.bank.AccountName},
	}
	writeJSON(w, http.StatusOK, map[string]any{"methods": methods})
}
