package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cartapp "storefront/internal/app/cart"
	"storefront/internal/app/catalog"
	"storefront/internal/app/checkout"
	"storefront/internal/app/reconcile"
	"storefront/internal/config"
	"storefront/internal/gateway/paystack"
	"storefront/internal/gateway/rates"
	http_cart "storefront/internal/handler/http/cart"
	http_orders "storefront/internal/handler/http/orders"
	http_payments "storefront/internal/handler/http/payments"
	http_products "storefront/internal/handler/http/products"
	kafka_handler "storefront/internal/handler/kafka"
	"storefront/internal/infrastructure/database"
	"storefront/internal/infrastructure/kafka"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/outbox"
	"storefront/internal/payment"
	redis_cart_repo "storefront/internal/repository/cart_repo/redis"
	postgres_order_repo "storefront/internal/repository/order_repo/postgres"
	postgres_outbox_repo "storefront/internal/repository/outbox_repo/postgres"
	postgres_product_repo "storefront/internal/repository/product_repo/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Storefront Service starting...")

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New(
		"file://migrations",
		migrateDSN,
	)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	appLogger.Info("Successfully connected to Redis!")

	kafkaProducer, err := kafka.NewProducer(cfg.GetKafkaBrokers(), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		} else {
			appLogger.Info("Kafka producer closed.")
		}
	}()
	appLogger.Info("Kafka producer created successfully.")

	appMetrics := metrics.New(prometheus.DefaultRegisterer)

	orderRepository := postgres_order_repo.NewOrderRepository(db, appLogger)
	outboxRepository := postgres_outbox_repo.NewOutboxRepository(db, appLogger)
	productRepository := postgres_product_repo.NewProductRepository(db, appLogger)
	cartRepository := redis_cart_repo.NewCartRepository(redisClient, appLogger)

	paystackClient := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL, cfg.GatewayTimeout, appLogger)
	ratesClient := rates.NewClient(cfg.CoinGeckoAPIKey, cfg.CoinGeckoBaseURL, cfg.GatewayTimeout, appLogger)

	paymentRegistry := payment.NewRegistry(
		payment.NewCardInitializer(paystackClient, cfg.GetCallbackURL(), appLogger),
		payment.NewCryptoInitializer(cfg.CryptoWallets, appLogger),
		payment.NewBankInitializer(cfg.BankDetails),
	)

	checkoutService := checkout.NewCheckoutService(
		orderRepository,
		productRepository,
		cartRepository,
		outboxRepository,
		paymentRegistry,
		cfg.KafkaNotificationTopic,
		cfg.LowStockThreshold,
		appMetrics,
		appLogger,
	)
	reconcileService := reconcile.NewReconcileService(
		orderRepository,
		outboxRepository,
		paystackClient,
		cfg.PaystackSecretKey,
		cfg.KafkaNotificationTopic,
		appMetrics,
		appLogger,
	)
	catalogService := catalog.NewCatalogService(productRepository, cfg.LowStockThreshold, appLogger)
	cartService := cartapp.NewCartService(cartRepository, productRepository, appLogger)

	outboxSender := outbox.NewSender(outboxRepository, kafkaProducer, appLogger)
	go func() {
		ticker := time.NewTicker(cfg.OutboxPollInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.OutboxPollTimeout)
			if err := outboxSender.Process(ctx); err != nil {
				appLogger.Error("Error processing outbox", zap.Error(err))
			}
			cancel()
		}
	}()
	appLogger.Info("Transactional Outbox sender started.")

	mailer := notify.NewResendMailer(cfg.ResendAPIKey, cfg.SenderEmail, notify.DefaultResendBaseURL, appLogger)
	notificationConsumer := kafka_handler.NewNotificationConsumer(mailer, cfg.AdminEmail, appLogger)
	go func() {
		err := kafka.StartConsumer(
			cfg.GetKafkaBrokers(),
			cfg.KafkaNotificationTopic,
			cfg.KafkaNotificationGroup,
			notificationConsumer.HandleMessage,
			appLogger,
		)
		if err != nil {
			appLogger.Fatal("Kafka notification consumer failed", zap.Error(err))
		}
	}()
	appLogger.Info("Kafka notification consumer started!")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-User-Email"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	http_orders.RegisterRoutes(r, checkoutService, appLogger)
	http_payments.RegisterRoutes(r, reconcileService, ratesClient, cfg.CryptoWallets, cfg.BankDetails, appLogger)
	http_products.RegisterRoutes(r, catalogService, appLogger)
	http_cart.RegisterRoutes(r, cartService, appLogger)
	r.Handle("/metrics", metrics.Handler())

	serverAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Storefront Service started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down Storefront Service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Storefront Service graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Storefront Service stopped.")
}
