package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository/product_repo"
)

type pgProductRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProductRepository(db *sql.DB, l *zap.Logger) product_repo.ProductRepository {
	return &pgProductRepository{db: db, logger: l}
}

const productColumns = `id, name, description, price, category, sport, sizes, colors, images, stock, featured, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Sport,
		pq.Array(&p.Sizes), pq.Array(&p.Colors), pq.Array(&p.Images),
		&p.Stock, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		r.logger.Error("Failed to get product by ID", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return p, nil
}

func (r *pgProductRepository) List(ctx context.Context, filter product_repo.ProductFilter) ([]*domain.Product, int, error) {
	var conditions []string
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Category != "" {
		conditions = append(conditions, "category = "+addArg(filter.Category))
	}
	if filter.Sport != "" {
		conditions = append(conditions, "sport = "+addArg(filter.Sport))
	}
	if filter.Featured != nil {
		conditions = append(conditions, "featured = "+addArg(*filter.Featured))
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "price >= "+addArg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= "+addArg(*filter.MaxPrice))
	}
	if filter.Search != "" {
		pattern := addArg("%" + filter.Search + "%")
		conditions = append(conditions, "(name ILIKE "+pattern+" OR description ILIKE "+pattern+")")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count products", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY created_at DESC LIMIT ` + addArg(limit) + ` OFFSET ` + addArg(filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query products", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error("Failed to scan product row", zap.Error(err))
			return nil, 0, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Rows error while listing products", zap.Error(err))
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return products, total, nil
}

func (r *pgProductRepository) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	// Single conditional update so concurrent decrements never drive stock
	// below zero. GREATEST clamps instead of rejecting; overselling the last
	// unit is accepted best-effort behavior.
	query := `UPDATE products SET stock = GREATEST(stock - $2, 0), updated_at = NOW() WHERE id = $1 RETURNING stock`
	var newStock int
	err := r.db.QueryRowContext(ctx, query, id, qty).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		r.logger.Error("Failed to decrement stock", zap.String("product_id", id), zap.Int("qty", qty), zap.Error(err))
		return 0, fmt.Errorf("failed to decrement stock for product %s: %w", id, err)
	}
	r.logger.Debug("Stock decremented", zap.String("product_id", id), zap.Int("new_stock", newStock))
	return newStock, nil
}

func (r *pgProductRepository) SetStock(ctx context.Context, id string, stock int) error {
	query := `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, stock)
	if err != nil {
		r.logger.Error("Failed to set stock", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("failed to set stock for product %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *pgProductRepository) LowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE stock <= $1 ORDER BY stock ASC LIMIT 50`
	rows, err := r.db.QueryContext(ctx, query, threshold)
	if err != nil {
		r.logger.Error("Failed to query low stock products", zap.Error(err))
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return products, nil
}

func (r *pgProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		r.logger.Error("Failed to count products", zap.Error(err))
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
