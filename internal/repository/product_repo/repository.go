package product_repo

import (
	"context"

	"storefront/internal/domain"
)

type ProductFilter struct {
	Category string
	Sport    string
	Featured *bool
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Limit    int
	Offset   int
}

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	// DecrementStock atomically subtracts qty from the product's stock,
	// clamped at zero, and returns the resulting stock level.
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
	SetStock(ctx context.Context, id string, stock int) error
	LowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
	Count(ctx context.Context) (int, error)
}
