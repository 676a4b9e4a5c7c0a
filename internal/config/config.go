package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBConfig struct {
		DBHost     string `env:"STOREFRONT_DB_HOST"`
		DBPort     string `env:"STOREFRONT_DB_PORT"`
		DBUser     string `env:"STOREFRONT_DB_USER"`
		DBPassword string `env:"STOREFRONT_DB_PASSWORD"`
		DBName     string `env:"STOREFRONT_DB_NAME"`
		DBSSLMode  string `env:"STOREFRONT_DB_SSLMODE"`
	}

	RedisAddr string `env:"REDIS_ADDR"`

	KafkaURL                string `env:"KAFKA_BROKER_URL"`
	KafkaNotificationTopic  string `env:"KAFKA_NOTIFICATION_TOPIC"`
	KafkaNotificationGroup  string `env:"KAFKA_NOTIFICATION_GROUP"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`

	HTTPPort int `env:"STOREFRONT_HTTP_PORT"`

	PaystackSecretKey string `env:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL   string `env:"PAYSTACK_BASE_URL"`
	FrontendURL       string `env:"FRONTEND_URL"`

	CoinGeckoAPIKey  string `env:"COINGECKO_API_KEY"`
	CoinGeckoBaseURL string `env:"COINGECKO_BASE_URL"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	SenderEmail  string `env:"SENDER_EMAIL"`
	AdminEmail   string `env:"ADMIN_EMAIL"`

	CryptoWallets CryptoWallets
	BankDetails   BankDetails

	LowStockThreshold int           `env:"LOW_STOCK_THRESHOLD"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT"`
}

type CryptoWallets struct {
	BTC       string `env:"BTC_WALLET"`
	ETH       string `env:"ETH_WALLET"`
	UsdtTRC20 string `env:"USDT_TRC20_WALLET"`
	UsdcERC20 string `env:"USDC_ERC20_WALLET"`
}

type BankDetails struct {
	BankName      string `env:"BANK_NAME" json:"bank_name"`
	AccountNumber string `env:"BANK_ACCOUNT_NUMBER" json:"account_number"`
	AccountName   string `env:"BANK_ACCOUNT_NAME" json:"account_name"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.DBHost = getEnvOrDefault("STOREFRONT_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("STOREFRONT_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("STOREFRONT_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("STOREFRONT_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("STOREFRONT_DB_NAME", "storefront_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("STOREFRONT_DB_SSLMODE", "disable")

	cfg.RedisAddr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaNotificationTopic = getEnvOrDefault("KAFKA_NOTIFICATION_TOPIC", "storefront_notifications")
	cfg.KafkaNotificationGroup = getEnvOrDefault("KAFKA_NOTIFICATION_GROUP", "storefront-notifier-group")

	interval, err := time.ParseDuration(getEnvOrDefault("OUTBOX_POLL_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}
	cfg.OutboxPollInterval = interval

	timeout, err := time.ParseDuration(getEnvOrDefault("OUTBOX_POLL_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_TIMEOUT: %w", err)
	}
	cfg.OutboxPollTimeout = timeout

	port, err := strconv.Atoi(getEnvOrDefault("STOREFRONT_HTTP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid STOREFRONT_HTTP_PORT: %w", err)
	}
	cfg.HTTPPort = port

	cfg.PaystackSecretKey = os.Getenv("PAYSTACK_SECRET_KEY")
	cfg.PaystackBaseURL = getEnvOrDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	cfg.FrontendURL = getEnvOrDefault("FRONTEND_URL", "http://localhost:3000")

	cfg.CoinGeckoAPIKey = os.Getenv("COINGECKO_API_KEY")
	cfg.CoinGeckoBaseURL = getEnvOrDefault("COINGECKO_BASE_URL", "https://api.coingecko.com")

	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.SenderEmail = getEnvOrDefault("SENDER_EMAIL", "onboarding@resend.dev")
	cfg.AdminEmail = getEnvOrDefault("ADMIN_EMAIL", "admin@localhost")

	cfg.CryptoWallets.BTC = os.Getenv("BTC_WALLET")
	cfg.CryptoWallets.ETH = os.Getenv("ETH_WALLET")
	cfg.CryptoWallets.UsdtTRC20 = os.Getenv("USDT_TRC20_WALLET")
	cfg.CryptoWallets.UsdcERC20 = os.Getenv("USDC_ERC20_WALLET")

	cfg.BankDetails.BankName = os.Getenv("BANK_NAME")
	cfg.BankDetails.AccountNumber = os.Getenv("BANK_ACCOUNT_NUMBER")
	cfg.BankDetails.AccountName = os.Getenv("BANK_ACCOUNT_NAME")

	threshold, err := strconv.Atoi(getEnvOrDefault("LOW_STOCK_THRESHOLD", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOW_STOCK_THRESHOLD: %w", err)
	}
	cfg.LowStockThreshold = threshold

	gwTimeout, err := time.ParseDuration(getEnvOrDefault("GATEWAY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}
	cfg.GatewayTimeout = gwTimeout

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}

func (c *Config) GetCallbackURL() string {
	return c.FrontendURL + "/checkout/verify"
}
