package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/repository/cart_repo"
	"storefront/internal/repository/order_repo"
	"storefront/internal/repository/outbox_repo"
	"storefront/internal/repository/product_repo"
	"storefront/internal/util"
)

var (
	ErrInvalidOrder    = errors.New("invalid order data")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// maxReferenceAttempts bounds the retry loop on a reference-code collision.
const maxReferenceAttempts = 3

type CheckoutService interface {
	CreateOrder(ctx context.Context, userID, userEmail string, req *CreateOrderRequest) (*CreateOrderResponse, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	GetUserOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	GetAllOrders(ctx context.Context) ([]*domain.Order, error)
	GetTracking(ctx context.Context, userID, orderID string) (*TrackingResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID string, req *StatusUpdateRequest) (*domain.Order, error)
	Analytics(ctx context.Context) (*AnalyticsResponse, error)
}

type checkoutService struct {
	orderRepo         order_repo.OrderRepository
	productRepo       product_repo.ProductRepository
	cartRepo          cart_repo.CartRepository
	outboxRepo        outbox_repo.OutboxRepository
	registry          *payment.Registry
	notificationTopic string
	lowStockThreshold int
	metrics           *metrics.Metrics
	logger            *zap.Logger
}

func NewCheckoutService(
	orderRepo order_repo.OrderRepository,
	productRepo product_repo.ProductRepository,
	cartRepo cart_repo.CartRepository,
	outboxRepo outbox_repo.OutboxRepository,
	registry *payment.Registry,
	notificationTopic string,
	lowStockThreshold int,
	m *metrics.Metrics,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:         orderRepo,
		productRepo:       productRepo,
		cartRepo:          cartRepo,
		outboxRepo:        outboxRepo,
		registry:          registry,
		notificationTopic: notificationTopic,
		lowStockThreshold: lowStockThreshold,
		metrics:           m,
		logger:            logger,
	}
}

func (s *checkoutService) CreateOrder(ctx context.Context, userID, userEmail string, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if userID == "" || len(req.Items) == 0 {
		return nil, ErrInvalidOrder
	}
	if !s.registry.Supported(req.PaymentMethod) {
		return nil, payment.ErrUnsupportedMethod
	}

	// Price every line from a catalog snapshot before any state changes. An
	// unknown product aborts the whole operation with no partial order and
	// the cart untouched.
	lines := make([]domain.OrderLine, 0, len(req.Items))
	products := make(map[string]*domain.Product, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidOrder
		}
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("Unknown product in checkout", zap.String("product_id", item.ProductID))
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
			}
			s.logger.Error("Failed to load product for pricing", zap.String("product_id", item.ProductID), zap.Error(err))
			return nil, errors.New("internal server error")
		}
		lines = append(lines, domain.OrderLine{
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductImage: product.FirstImage(),
			Quantity:     item.Quantity,
			Size:         item.Size,
			Color:        item.Color,
			UnitPrice:    product.Price,
			LineTotal:    product.Price * float64(item.Quantity),
		})
		products[product.ID] = product
	}

	order, err := s.persistOrder(ctx, userID, userEmail, lines, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("reference", order.Reference),
		zap.Float64("total", order.Total))
	s.metrics.OrdersCreated.Inc()

	// Clearing the cart belongs to the same logical operation; a failure
	// here leaves a stale cart, which is recoverable, so it is logged and
	// never fails the created order.
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart after order creation",
			zap.String("order_id", order.ID),
			zap.String("user_id", userID),
			zap.Error(err))
	}

	s.adjustInventory(ctx, order, products)

	initializer, err := s.registry.Resolve(order.PaymentMethod)
	if err != nil {
		// Already validated above; treated as invalid input if it happens.
		return nil, payment.ErrUnsupportedMethod
	}
	descriptor := initializer.Initialize(ctx, order)

	return &CreateOrderResponse{
		OrderID:       order.ID,
		Reference:     order.Reference,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		PaymentInfo:   descriptor,
	}, nil
}

// persistOrder stores the order together with its confirmation notification
// in one transaction, retrying with a fresh identifier and reference on a
// reference-code collision.
func (s *checkoutService) persistOrder(ctx context.Context, userID, userEmail string, lines []domain.OrderLine, req *CreateOrderRequest) (*domain.Order, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		order, err := domain.NewOrder(util.GenerateUUID(), util.GenerateReference(), userID, userEmail,
			lines, req.ShippingAddress, req.PaymentMethod, req.Notes)
		if err != nil {
			return nil, ErrInvalidOrder
		}

		payload, err := notify.NewOrderConfirmation(order)
		if err != nil {
			s.logger.Error("Failed to build order confirmation payload", zap.String("order_id", order.ID), zap.Error(err))
			return nil, errors.New("internal server error")
		}
		msg := &outbox_repo.OutboxMessage{
			ID:        util.GenerateUUID(),
			Topic:     s.notificationTopic,
			Payload:   payload,
			Status:    outbox_repo.StatusPending,
			CreatedAt: time.Now(),
		}

		err = s.orderRepo.CreateOrderAndOutboxMessage(ctx, order, msg)
		if err == nil {
			return order, nil
		}
		if errors.Is(err, order_repo.ErrReferenceConflict) {
			s.logger.Warn("Order reference collision, retrying with fresh reference",
				zap.String("reference", order.Reference),
				zap.Int("attempt", attempt+1))
			continue
		}
		s.logger.Error("Failed to persist order", zap.String("order_id", order.ID), zap.Error(err))
		return nil, errors.New("failed to create order")
	}
	return nil, errors.New("failed to create order")
}

// adjustInventory decrements stock per line, clamped at zero at the storage
// layer. A partial failure after some decrements is not rolled back; each
// failure is logged and the rest proceed. A low-stock alert fires only when
// the new level is above zero and at or below the threshold.
func (s *checkoutService) adjustInventory(ctx context.Context, order *domain.Order, products map[string]*domain.Product) {
	for _, line := range order.Lines {
		newStock, err := s.productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.logger.Error("Failed to decrement stock",
				zap.String("order_id", order.ID),
				zap.String("product_id", line.ProductID),
				zap.Error(err))
			continue
		}
		if newStock > 0 && newStock <= s.lowStockThreshold {
			s.enqueueLowStockAlert(ctx, products[line.ProductID], newStock)
		}
	}
}

func (s *checkoutService) enqueueLowStockAlert(ctx context.Context, product *domain.Product, newStock int) {
	payload, err := notify.NewLowStockAlert(product, newStock)
	if err != nil {
		s.logger.Error("Failed to build low stock alert payload", zap.String("product_id", product.ID), zap.Error(err))
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
		s.logger.Error("Failed to enqueue low stock alert", zap.String("product_id", product.ID), zap.Error(err))
		return
	}
	s.metrics.LowStockAlerts.Inc()
	s.logger.Info("Low stock alert enqueued",
		zap.String("product_id", product.ID),
		zap.Int("stock", newStock))
}

func (s *checkoutService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to get order", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	// An empty userID is the admin view; otherwise the order must belong to
	// the caller.
	if userID != "" && order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *checkoutService) GetUserOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get orders for user", zap.String("user_id", userID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return orders, nil
}

func (s *checkoutService) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to get all orders", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return orders, nil
}

func (s *checkoutService) GetTracking(ctx context.Context, userID, orderID string) (*TrackingResponse, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return &TrackingResponse{
		Status:          order.Status,
		Carrier:         order.Carrier,
		TrackingNumber:  order.TrackingNumber,
		TrackingURL:     order.TrackingURL,
		TrackingHistory: order.TrackingHistory,
	}, nil
}

func (s *checkoutService) UpdateOrderStatus(ctx context.Context, orderID string, req *StatusUpdateRequest) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, "", orderID)
	if err != nil {
		return nil, err
	}

	next := domain.OrderStatus(req.Status)
	if req.Carrier != "" {
		order.Carrier = req.Carrier
	}
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.TrackingURL != "" {
		order.TrackingURL = req.TrackingURL
	}

	description := req.Notes
	if description == "" {
		description = fmt.Sprintf("Order status updated to %s", req.Status)
	}
	event := domain.TrackingEvent{
		Status:      req.Status,
		Description: description,
		Timestamp:   time.Now(),
	}
	if err := order.AdvanceTo(next, event); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateFulfillment(ctx, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("Failed to update order status", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("new_status", req.Status))

	switch next {
	case domain.OrderStatusShipped, domain.OrderStatusOutForDelivery, domain.OrderStatusDelivered:
		s.enqueueShippingUpdate(ctx, order)
	}
	return order, nil
}

func (s *checkoutService) enqueueShippingUpdate(ctx context.Context, order *domain.Order) {
	payload, err := notify.NewShippingUpdate(order)
	if err != nil {
		s.logger.Error("Failed to build shipping update payload", zap.String("order_id", order.ID), zap.Error(err))
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
		s.logger.Error("Failed to enqueue shipping update", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *checkoutService) Analytics(ctx context.Context) (*AnalyticsResponse, error) {
	summary, err := s.orderRepo.Summary(ctx)
	if err != nil {
		s.logger.Error("Failed to compute order summary", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	productCount, err := s.productRepo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count products", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	summary.TotalProducts = productCount

	recent, err := s.orderRepo.GetRecent(ctx, 5)
	if err != nil {
		s.logger.Error("Failed to load recent orders", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return &AnalyticsResponse{AnalyticsSummary: *summary, RecentOrders: recent}, nil
}
