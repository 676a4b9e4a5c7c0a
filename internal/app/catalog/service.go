package catalog

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository/product_repo"
)

var ErrProductNotFound = errors.New("product not found")

type ProductListing struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
}

type CatalogService interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, filter product_repo.ProductFilter) (*ProductListing, error)
	LowStock(ctx context.Context) ([]*domain.Product, error)
	SetStock(ctx context.Context, id string, stock int) error
	LowStockThreshold() int
}

type catalogService struct {
	productRepo product_repo.ProductRepository
	threshold   int
	logger      *zap.Logger
}

func NewCatalogService(productRepo product_repo.ProductRepository, lowStockThreshold int, logger *zap.Logger) CatalogService {
	return &catalogService{productRepo: productRepo, threshold: lowStockThreshold, logger: logger}
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to get product", zap.String("product_id", id), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter product_repo.ProductFilter) (*ProductListing, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return &ProductListing{Products: products, Total: total}, nil
}

func (s *catalogService) LowStock(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.LowStock(ctx, s.threshold)
	if err != nil {
		s.logger.Error("Failed to list low stock products", zap.Error(err))
		return nil, errors.New("internal server error")
	}
	return products, nil
}

func (s *catalogService) SetStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return errors.New("stock must not be negative")
	}
	if err := s.productRepo.SetStock(ctx, id, stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		s.logger.Error("Failed to set stock", zap.String("product_id", id), zap.Error(err))
		return errors.New("internal server error")
	}
	return nil
}

func (s *catalogService) LowStockThreshold() int {
	return s.threshold
}
