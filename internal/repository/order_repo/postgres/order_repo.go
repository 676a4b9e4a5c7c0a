package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository/order_repo"
	"storefront/internal/repository/outbox_repo"
)

const uniqueViolation = "23505"

type pgOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, l *zap.Logger) order_repo.OrderRepository {
	return &pgOrderRepository{db: db, logger: l}
}

// CreateOrderAndOutboxMessage persists the order, its lines and the outbox
// message in one transaction. The result is named so the deferred commit can
// propagate its error; a failed commit must surface as a failed creation.
func (r *pgOrderRepository) CreateOrderAndOutboxMessage(ctx context.Context, order *domain.Order, msg *outbox_repo.OutboxMessage) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction for order creation", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			r.logger.Warn("Rolling back order creation transaction", zap.String("order_id", order.ID), zap.Error(err))
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			r.logger.Error("Failed to commit order creation transaction", zap.String("order_id", order.ID), zap.Error(err))
			err = fmt.Errorf("failed to commit order creation: %w", err)
		}
	}()

	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}
	historyJSON, err := json.Marshal(order.TrackingHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking history: %w", err)
	}

	orderQuery := `INSERT INTO orders
		(id, reference, user_id, user_email, shipping_address, payment_method, subtotal, shipping_fee, total, status, payment_status, notes, tracking_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID, order.Reference, order.UserID, order.UserEmail, addressJSON,
		order.PaymentMethod, order.Subtotal, order.ShippingFee, order.Total,
		order.Status, order.PaymentStatus, order.Notes, historyJSON,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = fmt.Errorf("%w: %s", order_repo.ErrReferenceConflict, order.Reference)
			return err
		}
		err = fmt.Errorf("tx failed to create order: %w", err)
		return err
	}

	lineQuery := `INSERT INTO order_lines
		(order_id, product_id, product_name, product_image, quantity, size, color, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, lineQuery,
			order.ID, line.ProductID, line.ProductName, line.ProductImage,
			line.Quantity, line.Size, line.Color, line.UnitPrice, line.LineTotal)
		if err != nil {
			err = fmt.Errorf("tx failed to create order line: %w", err)
			return err
		}
	}

	outboxQuery := `INSERT INTO outbox_messages (id, topic, payload, status, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.ExecContext(ctx, outboxQuery, msg.ID, msg.Topic, msg.Payload, msg.Status, msg.CreatedAt)
	if err != nil {
		err = fmt.Errorf("tx failed to create outbox message: %w", err)
		return err
	}

	return err
}

const orderColumns = `id, reference, user_id, user_email, shipping_address, payment_method, subtotal, shipping_fee, total, status, payment_status, notes, carrier, tracking_number, tracking_url, tracking_history, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	var addressJSON, historyJSON []byte
	var notes, carrier, trackingNumber, trackingURL sql.NullString
	err := row.Scan(&order.ID, &order.Reference, &order.UserID, &order.UserEmail,
		&addressJSON, &order.PaymentMethod, &order.Subtotal, &order.ShippingFee,
		&order.Total, &order.Status, &order.PaymentStatus, &notes,
		&carrier, &trackingNumber, &trackingURL, &historyJSON,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &order.TrackingHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tracking history: %w", err)
	}
	order.Notes = notes.String
	order.Carrier = carrier.String
	order.TrackingNumber = trackingNumber.String
	order.TrackingURL = trackingURL.String
	return order, nil
}

func (r *pgOrderRepository) loadLines(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, order *domain.Order) error {
	query := `SELECT product_id, product_name, product_image, quantity, size, color, unit_price, line_total
		FROM order_lines WHERE order_id = $1 ORDER BY id ASC`
	rows, err := q.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.ProductImage,
			&line.Quantity, &line.Size, &line.Color, &line.UnitPrice, &line.LineTotal); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

func (r *pgOrderRepository) getOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get order", zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if err := r.loadLines(ctx, r.db, order); err != nil {
		r.logger.Error("Failed to load order lines", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *pgOrderRepository) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.getOne(ctx, `reference = $1`, reference)
}

func (r *pgOrderRepository) getMany(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query orders", zap.Error(err))
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for _, order := range orders {
		if err := r.loadLines(ctx, r.db, order); err != nil {
			r.logger.Error("Failed to load order lines", zap.String("order_id", order.ID), zap.Error(err))
			return nil, err
		}
	}
	return orders, nil
}

func (r *pgOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.getMany(ctx, query, userID)
}

func (r *pgOrderRepository) GetAll(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.getMany(ctx, query)
}

func (r *pgOrderRepository) GetRecent(ctx context.Context, limit int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1`
	return r.getMany(ctx, query, limit)
}

func (r *pgOrderRepository) markPaid(ctx context.Context, where string, arg any) (bool, error) {
	// The pending guard makes the transition idempotent under replayed
	// confirmations and keeps payment_status = paid monotonic. Status and
	// payment status flip together so paid never coexists with pending.
	query := `UPDATE orders SET payment_status = $1, status = $2, updated_at = $3 WHERE ` + where + ` AND payment_status = $4`
	res, err := r.db.ExecContext(ctx, query,
		domain.PaymentStatusPaid, domain.OrderStatusConfirmed, time.Now(), arg, domain.PaymentStatusPending)
	if err != nil {
		r.logger.Error("Failed to mark order as paid", zap.Error(err))
		return false, fmt.Errorf("failed to mark order as paid: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update result: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *pgOrderRepository) MarkPaidByID(ctx context.Context, id string) (bool, error) {
	return r.markPaid(ctx, `id = $5`, id)
}

func (r *pgOrderRepository) MarkPaidByReference(ctx context.Context, reference string) (bool, error) {
	return r.markPaid(ctx, `reference = $5`, reference)
}

func (r *pgOrderRepository) UpdateFulfillment(ctx context.Context, order *domain.Order) error {
	historyJSON, err := json.Marshal(order.TrackingHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking history: %w", err)
	}
	query := `UPDATE orders SET status = $2, carrier = $3, tracking_number = $4, tracking_url = $5, tracking_history = $6, updated_at = $7 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		order.ID, order.Status, order.Carrier, order.TrackingNumber, order.TrackingURL, historyJSON, order.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update order fulfillment", zap.String("order_id", order.ID), zap.Error(err))
		return fmt.Errorf("failed to update order %s: %w", order.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	r.logger.Debug("Order fulfillment updated", zap.String("order_id", order.ID), zap.String("new_status", string(order.Status)))
	return nil
}

func (r *pgOrderRepository) Summary(ctx context.Context) (*order_repo.AnalyticsSummary, error) {
	summary := &order_repo.AnalyticsSummary{}
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = $1),
		COUNT(*) FILTER (WHERE status = $2),
		COALESCE(SUM(total) FILTER (WHERE payment_status = $3), 0),
		COUNT(DISTINCT user_id)
		FROM orders`
	err := r.db.QueryRowContext(ctx, query,
		domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.PaymentStatusPaid).
		Scan(&summary.TotalOrders, &summary.PendingOrders, &summary.ConfirmedOrders, &summary.TotalRevenue, &summary.TotalCustomers)
	if err != nil {
		r.logger.Error("Failed to compute analytics summary", zap.Error(err))
		return nil, fmt.Errorf("failed to compute analytics summary: %w", err)
	}
	return summary, nil
}
