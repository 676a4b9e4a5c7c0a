package checkout

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/repository/order_repo"
	"storefront/internal/repository/outbox_repo"
	"storefront/internal/repository/product_repo"
)

var errMockRepo = errors.New("mock repository error")

type mockOrderRepo struct {
	mu             sync.Mutex
	orders         map[string]*domain.Order
	outbox         []*outbox_repo.OutboxMessage
	createCalls    int
	conflictsLeft  int
	failCreate     bool
	failFulfilment bool
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) CreateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.failCreate {
		return errMockRepo
	}
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return order_repo.ErrReferenceConflict
	}
	m.orders[order.ID] = order
	m.outbox = append(m.outbox, msg)
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return order, nil
}

func (m *mockOrderRepo) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.Reference == reference {
			return order, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockOrderRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetAll(ctx context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Order, 0, len(m.orders))
	for _, order := range m.orders {
		out = append(out, order)
	}
	return out, nil
}

func (m *mockOrderRepo) GetRecent(ctx context.Context, limit int) ([]*domain.Order, error) {
	orders, _ := m.GetAll(ctx)
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (m *mockOrderRepo) MarkPaidByID(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}
	order.PaymentStatus = domain.PaymentStatusPaid
	order.Status = domain.OrderStatusConfirmed
	return true, nil
}

func (m *mockOrderRepo) MarkPaidByReference(ctx context.Context, reference string) (bool, error) {
	m.mu.Lock()
	var id string
	for _, order := range m.orders {
		if order.Reference == reference {
			id = order.ID
			break
		}
	}
	m.mu.Unlock()
	if id == "" {
		return false, nil
	}
	return m.MarkPaidByID(ctx, id)
}

func (m *mockOrderRepo) UpdateFulfillment(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFulfilment {
		return errMockRepo
	}
	if _, ok := m.orders[order.ID]; !ok {
		return sql.ErrNoRows
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) Summary(ctx context.Context) (*order_repo.AnalyticsSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := &order_repo.AnalyticsSummary{}
	customers := make(map[string]struct{})
	for _, order := range m.orders {
		summary.TotalOrders++
		customers[order.UserID] = struct{}{}
		switch order.Status {
		case domain.OrderStatusPending:
			summary.PendingOrders++
		case domain.OrderStatusConfirmed:
			summary.ConfirmedOrders++
		}
		if order.PaymentStatus == domain.PaymentStatusPaid {
			summary.TotalRevenue += order.Total
		}
	}
	summary.TotalCustomers = len(customers)
	return summary, nil
}

type mockProductRepo struct {
	mu            sync.Mutex
	products      map[string]*domain.Product
	decrements    map[string]int
	failDecrement bool
}

func newMockProductRepo(products ...*domain.Product) *mockProductRepo {
	m := &mockProductRepo{
		products:   make(map[string]*domain.Product),
		decrements: make(map[string]int),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *mockProductRepo) List(ctx context.Context, filter product_repo.ProductFilter) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockProductRepo) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDecrement {
		return 0, errMockRepo
	}
	p, ok := m.products[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	m.decrements[id] += qty
	return p.Stock, nil
}

func (m *mockProductRepo) SetStock(ctx context.Context, id string, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Stock = stock
	return nil
}

func (m *mockProductRepo) LowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

type mockCartRepo struct {
	mu        sync.Mutex
	carts     map[string]*domain.Cart
	cleared   []string
	failClear bool
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[userID], nil
}

func (m *mockCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = cart
	return nil
}

func (m *mockCartRepo) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear {
		return errMockRepo
	}
	delete(m.carts, userID)
	m.cleared = append(m.cleared, userID)
	return nil
}

type mockOutboxRepo struct {
	mu       sync.Mutex
	messages []*outbox_repo.OutboxMessage
}

func (m *mockOutboxRepo) Enqueue(ctx context.Context, msg *outbox_repo.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockOutboxRepo) ListPending(ctx context.Context, limit int) ([]*outbox_repo.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages, nil
}

func (m *mockOutboxRepo) MarkSent(ctx context.Context, id string) error {
	return nil
}
