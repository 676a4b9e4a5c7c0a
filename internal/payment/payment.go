package payment

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
)

// Recognized payment method identifiers.
const (
	MethodPaystack     = "paystack"
	MethodCryptoBTC    = "crypto_btc"
	MethodCryptoETH    = "crypto_eth"
	MethodCryptoUSDT   = "crypto_usdt"
	MethodCryptoUSDC   = "crypto_usdc"
	MethodBankTransfer = "bank_transfer"

	cryptoPrefix = "crypto_"
)

var ErrUnsupportedMethod = errors.New("unsupported payment method")

// Descriptor is the method-specific data a customer needs to complete
// payment. Exactly one of the variant fields is set. It is recomputed per
// request from configuration and the order total, never persisted as order
// state.
type Descriptor struct {
	Method    string            `json:"method"`
	Reference string            `json:"reference,omitempty"`
	Card      *CardDescriptor   `json:"card,omitempty"`
	Crypto    *CryptoDescriptor `json:"crypto,omitempty"`
	Bank      *BankDescriptor   `json:"bank,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type CardDescriptor struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

type CryptoDescriptor struct {
	WalletAddress string  `json:"wallet_address"`
	CryptoType    string  `json:"crypto_type"`
	AmountNGN     float64 `json:"amount_ngn"`
}

type BankDescriptor struct {
	BankName      string  `json:"bank_name"`
	AccountNumber string  `json:"account_number"`
	AccountName   string  `json:"account_name"`
	Amount        float64 `json:"amount"`
}

// Initializer produces a payment descriptor for a created order. It must not
// mutate order state; reconciliation is the only writer of payment status.
type Initializer interface {
	Initialize(ctx context.Context, order *domain.Order) *Descriptor
}

// Registry resolves a method string to the initializer for its family.
type Registry struct {
	card   Initializer
	crypto Initializer
	bank   Initializer
}

func NewRegistry(card, crypto, bank Initializer) *Registry {
	return &Registry{card: card, crypto: crypto, bank: bank}
}

// Supported reports whether the method string matches a recognized family.
// Unknown methods are rejected at validation time, before order creation.
func (r *Registry) Supported(method string) bool {
	switch method {
	case MethodPaystack, MethodBankTransfer, MethodCryptoBTC, MethodCryptoETH, MethodCryptoUSDT, MethodCryptoUSDC:
		return true
	}
	return false
}

func (r *Registry) Resolve(method string) (Initializer, error) {
	switch {
	case method == MethodPaystack:
		return r.card, nil
	case method == MethodBankTransfer:
		return r.bank, nil
	case strings.HasPrefix(method, cryptoPrefix) && r.Supported(method):
		return r.crypto, nil
	}
	return nil, ErrUnsupportedMethod
}
