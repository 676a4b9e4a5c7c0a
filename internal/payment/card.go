package payment

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/gateway/paystack"
)

// CardGateway is the slice of the Paystack client card initialization needs.
type CardGateway interface {
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (*paystack.InitializeResult, error)
}

type cardInitializer struct {
	gateway     CardGateway
	callbackURL string
	logger      *zap.Logger
}

func NewCardInitializer(gateway CardGateway, callbackURL string, l *zap.Logger) Initializer {
	return &cardInitializer{gateway: gateway, callbackURL: callbackURL, logger: l}
}

// Initialize opens a gateway transaction for the order total. A gateway
// failure yields an error descriptor instead of failing order creation; the
// order stays pending and verification can be retried separately.
func (i *cardInitializer) Initialize(ctx context.Context, order *domain.Order) *Descriptor {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	amountKobo := int64(math.Round(order.Total * 100))
	result, err := i.gateway.InitializeTransaction(ctx, order.UserEmail, amountKobo, order.Reference, i.callbackURL)
	if err != nil {
		i.logger.Error("Failed to initialize card payment",
			zap.String("order_id", order.ID),
			zap.String("reference", order.Reference),
			zap.Error(err))
		return &Descriptor{
			Method: order.PaymentMethod,
			Error:  "Failed to initialize payment",
		}
	}

	return &Descriptor{
		Method:    order.PaymentMethod,
		Reference: order.Reference,
		Card: &CardDescriptor{
			AuthorizationURL: result.AuthorizationURL,
			AccessCode:       result.AccessCode,
		},
	}
}
