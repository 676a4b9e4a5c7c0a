package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

func TestGetMissingCartReturnsNil(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCartRepository(client, zap.NewNop())

	mock.ExpectGet("cart:user-1").RedisNil()

	cart, err := repo.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cart != nil {
		t.Errorf("cart = %+v, want nil for missing key", cart)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSaveAndGetCart(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCartRepository(client, zap.NewNop())

	cart := &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartLine{{ProductID: "p1", Quantity: 2, Size: "M", Color: "Black"}},
	}
	data, err := json.Marshal(cart)
	if err != nil {
		t.Fatal(err)
	}

	mock.ExpectSet("cart:user-1", data, 0).SetVal("OK")
	if err := repo.Save(context.Background(), cart); err != nil {
		t.Fatalf("Save: %v", err)
	}

	mock.ExpectGet("cart:user-1").SetVal(string(data))
	got, err := repo.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || len(got.Items) != 1 || got.Items[0].ProductID != "p1" {
		t.Errorf("round-tripped cart = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetCorruptCart(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCartRepository(client, zap.NewNop())

	mock.ExpectGet("cart:user-1").SetVal("not json")

	if _, err := repo.Get(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error for corrupt cart payload")
	}
}

func TestClearCart(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCartRepository(client, zap.NewNop())

	mock.ExpectDel("cart:user-1").SetVal(1)

	if err := repo.Clear(context.Background(), "user-1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
