package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository/cart_repo"
	"storefront/internal/repository/product_repo"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidItem     = errors.New("invalid cart item")
)

// CartItemView is a cart line joined with its current product record and a
// live line total. Cart totals are advisory; the binding prices are
// snapshotted at checkout.
type CartItemView struct {
	domain.CartLine
	Product   *domain.Product `json:"product"`
	ItemTotal float64         `json:"item_total"`
}

type CartView struct {
	Items []CartItemView `json:"items"`
	Total float64        `json:"total"`
}

type CartService interface {
	Get(ctx context.Context, userID string) (*CartView, error)
	Add(ctx context.Context, userID string, line domain.CartLine) error
	UpdateQuantity(ctx context.Context, userID string, line domain.CartLine) error
	Clear(ctx context.Context, userID string) error
}

type cartService struct {
	cartRepo    cart_repo.CartRepository
	productRepo product_repo.ProductRepository
	logger      *zap.Logger
}

func NewCartService(cartRepo cart_repo.CartRepository, productRepo product_repo.ProductRepository, logger *zap.Logger) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo, logger: logger}
}

func (s *cartService) Get(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, errors.New("internal server error")
	}
	view := &CartView{Items: []CartItemView{}}
	if cart == nil {
		return view, nil
	}

	for _, item := range cart.Items {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Product removed from the catalog since it was carted.
				continue
			}
			s.logger.Error("Failed to load product for cart view", zap.String("product_id", item.ProductID), zap.Error(err))
			return nil, errors.New("internal server error")
		}
		itemTotal := product.Price * float64(item.Quantity)
		view.Items = append(view.Items, CartItemView{
			CartLine:  item,
			Product:   product,
			ItemTotal: itemTotal,
		})
		view.Total += itemTotal
	}
	return view, nil
}

func (s *cartService) Add(ctx context.Context, userID string, line domain.CartLine) error {
	if line.ProductID == "" || line.Quantity <= 0 {
		return ErrInvalidItem
	}
	if _, err := s.productRepo.GetByID(ctx, line.ProductID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		s.logger.Error("Failed to check product for cart add", zap.String("product_id", line.ProductID), zap.Error(err))
		return errors.New("internal server error")
	}

	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return errors.New("internal server error")
	}
	if cart == nil {
		cart = &domain.Cart{UserID: userID, CreatedAt: time.Now()}
	}
	cart.Merge(line)

	if err := s.cartRepo.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return errors.New("internal server error")
	}
	return nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID string, line domain.CartLine) error {
	cart, err := s.cartRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return errors.New("internal server error")
	}
	if cart == nil || !cart.SetQuantity(line) {
		return ErrItemNotFound
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return errors.New("internal server error")
	}
	return nil
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return errors.New("internal server error")
	}
	return nil
}
