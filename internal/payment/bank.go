package payment

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/domain"
)

type bankInitializer struct {
	details config.BankDetails
}

func NewBankInitializer(details config.BankDetails) Initializer {
	return &bankInitializer{details: details}
}

// Initialize returns the static configured bank account details plus the
// order total. No external call.
func (i *bankInitializer) Initialize(ctx context.Context, order *domain.Order) *Descriptor {
	return &Descriptor{
		Method:    order.PaymentMethod,
		Reference: order.Reference,
		Bank: &BankDescriptor{
			BankName:      i.details.BankName,
			AccountNumber: i.details.AccountNumber,
			AccountName:   i.details.AccountName,
			Amount:        order.Total,
		},
	}
}
