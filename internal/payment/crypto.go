package payment

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/domain"
)

type cryptoInitializer struct {
	wallets config.CryptoWallets
	logger  *zap.Logger
}

func NewCryptoInitializer(wallets config.CryptoWallets, l *zap.Logger) Initializer {
	return &cryptoInitializer{wallets: wallets, logger: l}
}

// Initialize maps the normalized asset code to its configured wallet and
// quotes the order's NGN total as the amount to send. No external call.
func (i *cryptoInitializer) Initialize(ctx context.Context, order *domain.Order) *Descriptor {
	asset := strings.TrimPrefix(order.PaymentMethod, cryptoPrefix)

	var wallet string
	switch asset {
	case "btc":
		wallet = i.wallets.BTC
	case "eth":
		wallet = i.wallets.ETH
	case "usdt":
		wallet = i.wallets.UsdtTRC20
	case "usdc":
		wallet = i.wallets.UsdcERC20
	}
	if wallet == "" {
		i.logger.Warn("No wallet configured for crypto asset",
			zap.String("order_id", order.ID),
			zap.String("asset", asset))
	}

	return &Descriptor{
		Method:    order.PaymentMethod,
		Reference: order.Reference,
		Crypto: &CryptoDescriptor{
			WalletAddress: wallet,
			CryptoType:    strings.ToUpper(asset),
			AmountNGN:     order.Total,
		},
	}
}
