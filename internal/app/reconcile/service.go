package reconcile

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/gateway/paystack"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/repository/order_repo"
	"storefront/internal/repository/outbox_repo"
	"storefront/internal/util"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// chargeSuccessEvent is the gateway webhook event that confirms payment.
const chargeSuccessEvent = "charge.success"

type VerifyRequest struct {
	Reference string `json:"reference"`
	OrderID   string `json:"order_id"`
}

type VerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TransactionVerifier is the slice of the gateway client pull verification
// needs.
type TransactionVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

// ReconcileService converges asynchronous payment confirmation, both
// client-initiated verification and the gateway webhook, onto one idempotent
// order state transition.
type ReconcileService interface {
	VerifyPayment(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

type reconcileService struct {
	orderRepo         order_repo.OrderRepository
	outboxRepo        outbox_repo.OutboxRepository
	verifier          TransactionVerifier
	webhookSecret     string
	notificationTopic string
	metrics           *metrics.Metrics
	logger            *zap.Logger
}

func NewReconcileService(
	orderRepo order_repo.OrderRepository,
	outboxRepo outbox_repo.OutboxRepository,
	verifier TransactionVerifier,
	webhookSecret string,
	notificationTopic string,
	m *metrics.Metrics,
	logger *zap.Logger,
) ReconcileService {
	return &reconcileService{
		orderRepo:         orderRepo,
		outboxRepo:        outboxRepo,
		verifier:          verifier,
		webhookSecret:     webhookSecret,
		notificationTopic: notificationTopic,
		metrics:           m,
		logger:            logger,
	}
}

// VerifyPayment queries the gateway for the transaction outcome. On success
// the order flips pending -> paid/confirmed exactly once; repeated success
// confirmations are no-ops. A gateway failure never mutates order state.
func (s *reconcileService) VerifyPayment(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to load order for verification", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if order.Reference != req.Reference {
		// A success verification of some other transaction must not confirm
		// this order.
		s.logger.Warn("Verification reference does not belong to order",
			zap.String("order_id", req.OrderID),
			zap.String("reference", req.Reference))
		return &VerifyResponse{Status: "failed", Message: "Reference does not match order"}, nil
	}

	result, err := s.verifier.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		s.logger.Error("Payment verification call failed",
			zap.String("order_id", req.OrderID),
			zap.String("reference", req.Reference),
			zap.Error(err))
		return nil, ErrGatewayUnavailable
	}
	if !result.Success {
		s.logger.Info("Payment verification reported failure",
			zap.String("order_id", req.OrderID),
			zap.String("reference", req.Reference),
			zap.String("gateway_status", result.Status))
		return &VerifyResponse{Status: "failed", Message: "Payment verification failed"}, nil
	}

	flipped, err := s.orderRepo.MarkPaidByID(ctx, req.OrderID)
	if err != nil {
		s.logger.Error("Failed to mark order as paid", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if flipped {
		s.onPaymentConfirmed(ctx, order)
	} else {
		s.logger.Info("Order already paid, verification is a no-op", zap.String("order_id", req.OrderID))
	}
	return &VerifyResponse{Status: "success", Message: "Payment verified"}, nil
}

// HandleWebhook processes a signed gateway delivery. The HMAC-SHA512
// signature over the raw body is checked before any lookup; a mismatch fails
// closed. Deliveries are at-least-once: replays and unknown references are
// acknowledged without side effects.
func (s *reconcileService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	mac := hmac.New(sha512.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		s.metrics.WebhooksRejected.Inc()
		s.logger.Warn("Webhook rejected: signature mismatch")
		return ErrInvalidSignature
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		s.logger.Warn("Webhook payload unparseable, acknowledging", zap.Error(err))
		return nil
	}
	if payload.Event != chargeSuccessEvent {
		s.logger.Debug("Ignoring webhook event", zap.String("event", payload.Event))
		return nil
	}

	flipped, err := s.orderRepo.MarkPaidByReference(ctx, payload.Data.Reference)
	if err != nil {
		s.logger.Error("Failed to apply webhook payment confirmation",
			zap.String("reference", payload.Data.Reference),
			zap.Error(err))
		return errors.New("internal server error")
	}
	if !flipped {
		// Unknown reference or already-paid order: acknowledge so the
		// gateway stops redelivering.
		s.logger.Info("Webhook confirmation was a no-op", zap.String("reference", payload.Data.Reference))
		return nil
	}

	order, err := s.orderRepo.GetByReference(ctx, payload.Data.Reference)
	if err != nil {
		s.logger.Error("Failed to load order after webhook confirmation",
			zap.String("reference", payload.Data.Reference),
			zap.Error(err))
		return nil
	}
	s.onPaymentConfirmed(ctx, order)
	return nil
}

func (s *reconcileService) onPaymentConfirmed(ctx context.Context, order *domain.Order) {
	s.metrics.PaymentsConfirmed.Inc()
	s.logger.Info("Payment confirmed",
		zap.String("order_id", order.ID),
		zap.String("reference", order.Reference))

	payload, err := notify.NewPaymentReceived(order)
	if err != nil {
		s.logger.Error("Failed to build payment received payload", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	msg := &outbox_repo.OutboxMessage{
		ID:        util.GenerateUUID(),
		Topic:     s.notificationTopic,
		Payload:   payload,
		Status:    outbox_repo.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.outboxRepo.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to enqueue payment received notification", zap.String("order_id", order.ID), zap.Error(err))
	}
}
