package reconcile

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/gateway/paystack"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/repository/order_repo"
	"storefront/internal/repository/outbox_repo"
)

const (
	testSecret = "sk_test_secret"
	testTopic  = "test_notifications"
)

type mockOrderRepo struct {
	orders    map[string]*domain.Order
	markCalls int
}

func newMockOrderRepo(orders ...*domain.Order) *mockOrderRepo {
	m := &mockOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) CreateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) error {
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return order, nil
}

func (m *mockOrderRepo) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	for _, order := range m.orders {
		if order.Reference == reference {
			return order, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockOrderRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) GetAll(ctx context.Context) ([]*domain.Order, error) { return nil, nil }

func (m *mockOrderRepo) GetRecent(ctx context.Context, limit int) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkPaidByID(ctx context.Context, id string) (bool, error) {
	m.markCalls++
	order, ok := m.orders[id]
	if !ok || order.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}
	order.PaymentStatus = domain.PaymentStatusPaid
	order.Status = domain.OrderStatusConfirmed
	return true, nil
}

func (m *mockOrderRepo) MarkPaidByReference(ctx context.Context, reference string) (bool, error) {
	for _, order := range m.orders {
		if order.Reference == reference {
			return m.MarkPaidByID(ctx, order.ID)
		}
	}
	m.markCalls++
	return false, nil
}

func (m *mockOrderRepo) UpdateFulfillment(ctx context.Context, order *domain.Order) error {
	return nil
}

func (m *mockOrderRepo) Summary(ctx context.Context) (*order_repo.AnalyticsSummary, error) {
	return &order_repo.AnalyticsSummary{}, nil
}

type mockOutboxRepo struct {
	messages []*outbox_repo.OutboxMessage
}

func (m *mockOutboxRepo) Enqueue(ctx context.Context, msg *outbox_repo.OutboxMessage) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockOutboxRepo) ListPending(ctx context.Context, limit int) ([]*outbox_repo.OutboxMessage, error) {
	return m.messages, nil
}

func (m *mockOutboxRepo) MarkSent(ctx context.Context, id string) error { return nil }

type mockVerifier struct {
	result *paystack.VerifyResult
	err    error
	calls  int
}

func (m *mockVerifier) VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	m.calls++
	return m.result, m.err
}

func pendingOrder(id, reference string) *domain.Order {
	return &domain.Order{
		ID:            id,
		Reference:     reference,
		UserID:        "user-1",
		UserEmail:     "user@example.com",
		Total:         45000,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
	}
}

func newTestService(orderRepo *mockOrderRepo, outboxRepo *mockOutboxRepo, verifier TransactionVerifier) ReconcileService {
	return NewReconcileService(orderRepo, outboxRepo, verifier, testSecret, testTopic,
		metrics.New(prometheus.NewRegistry()), zap.NewNop())
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookBody(event, reference string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"data":{"reference":%q}}`, event, reference))
}

func countKind(t *testing.T, messages []*outbox_repo.OutboxMessage, kind notify.Kind) int {
	t.Helper()
	var n int
	for _, msg := range messages {
		var env notify.Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			t.Fatalf("unmarshal outbox payload: %v", err)
		}
		if env.Kind == kind {
			n++
		}
	}
	return n
}

func TestVerifyPaymentFlipsOnce(t *testing.T) {
	order := pendingOrder("o1", "GSP-AAAA1111")
	orderRepo := newMockOrderRepo(order)
	outboxRepo := &mockOutboxRepo{}
	svc := newTestService(orderRepo, outboxRepo, &mockVerifier{result: &paystack.VerifyResult{Status: "success", Success: true}})

	req := &VerifyRequest{Reference: order.Reference, OrderID: order.ID}

	res, err := svc.VerifyPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if res.Status != "success" {
		t.Errorf("status = %q, want success", res.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid || order.Status != domain.OrderStatusConfirmed {
		t.Errorf("order state = %s/%s, want confirmed/paid", order.Status, order.PaymentStatus)
	}

	// Second verification of the same order is acknowledged but must not
	// produce a second confirmation notification.
	res, err = svc.VerifyPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("repeat VerifyPayment: %v", err)
	}
	if res.Status != "success" {
		t.Errorf("repeat status = %q, want success", res.Status)
	}
	if got := countKind(t, outboxRepo.messages, notify.KindPaymentReceived); got != 1 {
		t.Errorf("payment received notifications = %d, want 1", got)
	}
}

func TestVerifyPaymentGatewayFailureDoesNotMutate(t *testing.T) {
	order := pendingOrder("o1", "GSP-AAAA1111")
	orderRepo := newMockOrderRepo(order)
	svc := newTestService(orderRepo, &mockOutboxRepo{}, &mockVerifier{err: errors.New("dial tcp: timeout")})

	_, err := svc.VerifyPayment(context.Background(), &VerifyRequest{Reference: order.Reference, OrderID: order.ID})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("order mutated on gateway failure: %s", order.PaymentStatus)
	}
	if orderRepo.markCalls != 0 {
		t.Errorf("MarkPaid called %d times on gateway failure", orderRepo.markCalls)
	}
}

func TestVerifyPaymentDeclined(t *testing.T) {
	order := pendingOrder("o1", "GSP-AAAA1111")
	orderRepo := newMockOrderRepo(order)
	svc := newTestService(orderRepo, &mockOutboxRepo{}, &mockVerifier{result: &paystack.VerifyResult{Status: "failed"}})

	res, err := svc.VerifyPayment(context.Background(), &VerifyRequest{Reference: order.Reference, OrderID: order.ID})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if res.Status != "failed" {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("declined verification mutated order: %s", order.PaymentStatus)
	}
}

func TestVerifyPaymentReferenceMismatch(t *testing.T) {
	order := pendingOrder("o1", "GSP-AAAA1111")
	orderRepo := newMockOrderRepo(order)
	verifier := &mockVerifier{result: &paystack.VerifyResult{Status: "success", Success: true}}
	svc := newTestService(orderRepo, &mockOutboxRepo{}, verifier)

	res, err := svc.VerifyPayment(context.Background(), &VerifyRequest{Reference: "GSP-OTHER000", OrderID: order.ID})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if res.Status != "failed" {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if verifier.calls != 0 {
		t.Errorf("gateway called %d times for a foreign reference", verifier.calls)
	}
	if orderRepo.markCalls != 0 || order.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("foreign reference mutated order: %s", order.PaymentStatus)
	}
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	svc := newTestService(newMockOrderRepo(), &mockOutboxRepo{}, &mockVerifier{})
	_, err := svc.VerifyPayment(context.Background(), &VerifyRequest{Reference: "GSP-AAAA1111", OrderID: "missing"})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestWebhookConfirmsPayment(t *testing.T) {
	order := pendingOrder("o1", "GSP-AAAA1111")
	orderRepo := newMockOrderRepo(order)
	outboxRepo := &mockOutboxRepo{}
	svc := newTestService(orderRepo, outboxRepo, &mockVerifier{})

	body := webhookBody("charge.success", order.Reference)
	if err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("order not marked paid by webhook")
	}
	if got := countKind(t, outboxRepo.messages, notify.KindPaymentReceived); got != 1 {
		t.Errorf("payment received notifications = %d, want 1", got)
	}

	// Redelivery of the same event is acknowledged without a second
	// notification.
	if err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("redelivered HandleWebhook: %v", err)
	}
	if got := countKind(t, outboxRepo.messages, notify.KindPaymentReceived); got != 1 {
		t.Errorf("redelivery produced a duplicate notification")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	order := pendingOrder("o1", "GSP-AAAA1111")
	orderRepo := newMockOrderRepo(order)
	svc := newTestService(orderRepo, &mockOutboxRepo{}, &mockVerifier{})

	body := webhookBody("charge.success", order.Reference)
	tests := []struct {
		name      string
		signature string
	}{
		{"empty", ""},
		{"garbage", "deadbeef"},
		{"tampered body", sign(append([]byte(nil), webhookBody("charge.success", "GSP-OTHER000")...))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.HandleWebhook(context.Background(), body, tt.signature)
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("err = %v, want ErrInvalidSignature", err)
			}
		})
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("order mutated by unauthenticated webhook")
	}
	if orderRepo.markCalls != 0 {
		t.Errorf("MarkPaid called for rejected webhook")
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	order := pendingOrder("o1", "GSP-AAAA1111")
	orderRepo := newMockOrderRepo(order)
	svc := newTestService(orderRepo, &mockOutboxRepo{}, &mockVerifier{})

	body := webhookBody("transfer.success", order.Reference)
	if err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("non-charge event mutated order")
	}
}

func TestWebhookUnknownReferenceAcked(t *testing.T) {
	svc := newTestService(newMockOrderRepo(), &mockOutboxRepo{}, &mockVerifier{})

	body := webhookBody("charge.success", "GSP-UNKNOWN1")
	if err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("unknown reference should be acknowledged, got %v", err)
	}
}

func TestWebhookUnparseablePayloadAcked(t *testing.T) {
	svc := newTestService(newMockOrderRepo(), &mockOutboxRepo{}, &mockVerifier{})

	body := []byte("not json")
	if err := svc.HandleWebhook(context.Background(), body, sign(body)); err != nil {
		t.Fatalf("unparseable payload should be acknowledged, got %v", err)
	}
}
