package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/repository/cart_repo"
)

const keyPrefix = "cart:"

type redisCartRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCartRepository(client *redis.Client, l *zap.Logger) cart_repo.CartRepository {
	return &redisCartRepository{client: client, logger: l}
}

func cartKey(userID string) string {
	return keyPrefix + userID
}

func (r *redisCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to get cart from redis", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}

	cart := &domain.Cart{}
	if err := json.Unmarshal(data, cart); err != nil {
		r.logger.Error("Failed to unmarshal cart", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal cart for user %s: %w", userID, err)
	}
	return cart, nil
}

func (r *redisCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart for user %s: %w", cart.UserID, err)
	}
	if err := r.client.Set(ctx, cartKey(cart.UserID), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save cart to redis", zap.String("user_id", cart.UserID), zap.Error(err))
		return fmt.Errorf("failed to save cart for user %s: %w", cart.UserID, err)
	}
	return nil
}

func (r *redisCartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		r.logger.Error("Failed to clear cart in redis", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}
