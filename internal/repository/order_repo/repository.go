package order_repo

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repository/outbox_repo"
)

// ErrReferenceConflict signals the generated reference code collided with an
// existing order. Creation should be retried with a fresh reference.
var ErrReferenceConflict = errors.New("order reference already exists")

type AnalyticsSummary struct {
	TotalOrders     int     `json:"total_orders"`
	PendingOrders   int     `json:"pending_orders"`
	ConfirmedOrders int     `json:"confirmed_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalCustomers  int     `json:"total_customers"`
	TotalProducts   int     `json:"total_products"`
}

type OrderRepository interface {
	// CreateOrderAndOutboxMessage persists the order, its lines and the
	// notification outbox message in one transaction.
	CreateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetAll(ctx context.Context) ([]*domain.Order, error)
	GetRecent(ctx context.Context, limit int) ([]*domain.Order, error)
	// MarkPaidByID conditionally flips pending -> paid/confirmed and reports
	// whether this call performed the transition.
	MarkPaidByID(ctx context.Context, id string) (bool, error)
	MarkPaidByReference(ctx context.Context, reference string) (bool, error)
	UpdateFulfillment(ctx context.Context, order *domain.Order) error
	Summary(ctx context.Context) (*AnalyticsSummary, error)
}
