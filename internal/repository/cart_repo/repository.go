package cart_repo

import (
	"context"

	"storefront/internal/domain"
)

type CartRepository interface {
	// Get returns the user's cart, or nil when none exists.
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) error
}
