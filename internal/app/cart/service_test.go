package cart

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository/product_repo"
)

type memCartRepo struct {
	carts map[string]*domain.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*domain.Cart)}
}

func (m *memCartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return m.carts[userID], nil
}

func (m *memCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	m.carts[cart.UserID] = cart
	return nil
}

func (m *memCartRepo) Clear(ctx context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type memProductRepo struct {
	products map[string]*domain.Product
}

func (m *memProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *memProductRepo) List(ctx context.Context, filter product_repo.ProductFilter) ([]*domain.Product, int, error) {
	return nil, 0, nil
}

func (m *memProductRepo) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	return 0, nil
}

func (m *memProductRepo) SetStock(ctx context.Context, id string, stock int) error { return nil }

func (m *memProductRepo) LowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	return nil, nil
}

func (m *memProductRepo) Count(ctx context.Context) (int, error) { return len(m.products), nil }

func newTestService(products ...*domain.Product) (CartService, *memCartRepo) {
	productRepo := &memProductRepo{products: make(map[string]*domain.Product)}
	for _, p := range products {
		productRepo.products[p.ID] = p
	}
	cartRepo := newMemCartRepo()
	return NewCartService(cartRepo, productRepo, zap.NewNop()), cartRepo
}

func TestAddAndGet(t *testing.T) {
	svc, _ := newTestService(
		&domain.Product{ID: "p1", Name: "Jersey", Price: 45000, Stock: 10},
		&domain.Product{ID: "p2", Name: "Tee", Price: 28000, Stock: 10},
	)
	ctx := context.Background()

	if err := svc.Add(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 2, Size: "M"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.Add(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 1, Size: "M"}); err != nil {
		t.Fatalf("Add again: %v", err)
	}
	if err := svc.Add(ctx, "user-1", domain.CartLine{ProductID: "p2", Quantity: 1}); err != nil {
		t.Fatalf("Add second product: %v", err)
	}

	view, err := svc.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("items = %d, want 2 (same size folds)", len(view.Items))
	}
	if view.Items[0].Quantity != 3 {
		t.Errorf("folded quantity = %d, want 3", view.Items[0].Quantity)
	}
	wantTotal := 45000.0*3 + 28000.0
	if view.Total != wantTotal {
		t.Errorf("total = %v, want %v", view.Total, wantTotal)
	}
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService(&domain.Product{ID: "p1", Price: 1000})
	ctx := context.Background()

	if err := svc.Add(ctx, "user-1", domain.CartLine{ProductID: "", Quantity: 1}); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("empty product err = %v, want ErrInvalidItem", err)
	}
	if err := svc.Add(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 0}); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("zero quantity err = %v, want ErrInvalidItem", err)
	}
	if err := svc.Add(ctx, "user-1", domain.CartLine{ProductID: "missing", Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("unknown product err = %v, want ErrProductNotFound", err)
	}
}

func TestGetEmptyCart(t *testing.T) {
	svc, _ := newTestService()
	view, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Items == nil || len(view.Items) != 0 || view.Total != 0 {
		t.Errorf("empty cart view = %+v", view)
	}
}

func TestGetSkipsRemovedProducts(t *testing.T) {
	svc, cartRepo := newTestService(&domain.Product{ID: "p1", Price: 1000})
	ctx := context.Background()

	cartRepo.Save(ctx, &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartLine{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "gone", Quantity: 2},
		},
	})

	view, err := svc.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ProductID != "p1" {
		t.Errorf("view items = %+v, want only p1", view.Items)
	}
}

func TestUpdateQuantity(t *testing.T) {
	svc, _ := newTestService(&domain.Product{ID: "p1", Price: 1000})
	ctx := context.Background()

	if err := svc.UpdateQuantity(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 1}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("update on empty cart err = %v, want ErrItemNotFound", err)
	}

	if err := svc.Add(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := svc.UpdateQuantity(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 5}); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}

	view, _ := svc.Get(ctx, "user-1")
	if view.Items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", view.Items[0].Quantity)
	}

	// Zero removes the line.
	if err := svc.UpdateQuantity(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 0}); err != nil {
		t.Fatalf("UpdateQuantity to zero: %v", err)
	}
	view, _ = svc.Get(ctx, "user-1")
	if len(view.Items) != 0 {
		t.Errorf("items after removal = %+v", view.Items)
	}
}

func TestClear(t *testing.T) {
	svc, cartRepo := newTestService(&domain.Product{ID: "p1", Price: 1000})
	ctx := context.Background()

	svc.Add(ctx, "user-1", domain.CartLine{ProductID: "p1", Quantity: 1})
	if err := svc.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cartRepo.carts["user-1"] != nil {
		t.Error("cart not removed")
	}
}
