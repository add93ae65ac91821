package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/restohq/stock-ledger-service/config"
	"github.com/restohq/stock-ledger-service/internal/pkg/broker"
	"github.com/restohq/stock-ledger-service/internal/pkg/cache"
	"github.com/restohq/stock-ledger-service/internal/pkg/database"
	"github.com/restohq/stock-ledger-service/internal/pkg/logger"
	"github.com/restohq/stock-ledger-service/internal/pkg/metrics"
	"go.uber.org/zap"

	catRepoPkg "github.com/restohq/stock-ledger-service/internal/catalog/repository"
	"github.com/restohq/stock-ledger-service/internal/notifier"
	ordH "github.com/restohq/stock-ledger-service/internal/order/handler"
	ordRepoPkg "github.com/restohq/stock-ledger-service/internal/order/repository"
	ordUCPkg "github.com/restohq/stock-ledger-service/internal/order/usecase"
	stockH "github.com/restohq/stock-ledger-service/internal/stock/handler"
	stockListenerPkg "github.com/restohq/stock-ledger-service/internal/stock/listener"
	stockPubPkg "github.com/restohq/stock-ledger-service/internal/stock/publisher"
	stockRepoPkg "github.com/restohq/stock-ledger-service/internal/stock/repository"
	stockUCPkg "github.com/restohq/stock-ledger-service/internal/stock/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to PostgreSQL", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis (optional; the recipe cache degrades without it)
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("could not connect to Redis, recipe cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLogger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize Kafka
	taskConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.TaskTopic,
		GroupID: cfg.Kafka.TaskGroupID,
	})
	defer taskConsumer.Close()

	taskProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.TaskTopic,
	})
	defer taskProducer.Close()

	stockProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.StockTopic,
	})
	defer stockProducer.Close()

	signalConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.StockTopic,
		GroupID: cfg.Kafka.NotifierGroupID,
	})
	defer signalConsumer.Close()

	appLogger.Info("connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("task_topic", cfg.Kafka.TaskTopic),
		zap.String("stock_topic", cfg.Kafka.StockTopic),
	)

	// 6. Metrics
	appMetrics := metrics.New("stockledger")

	// 7. Initialize Repositories
	stockRepo := stockRepoPkg.NewPGRepository(db)
	orderRepo := ordRepoPkg.NewPGRepository(db)
	catalogRepo := catRepoPkg.NewPGRepository(db)

	// 8. Initialize UseCases
	stockPublisher := stockPubPkg.NewStockPublisher(stockProducer, appLogger, appMetrics)
	defer stockPublisher.Close()

	stockUC := stockUCPkg.NewStockUseCase(stockRepo, orderRepo, stockPublisher, appLogger)
	orderUC := ordUCPkg.NewOrderUseCase(orderRepo, catalogRepo, stockRepo, taskProducer, redisClient, appLogger)

	// 9. Start workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stockListener := stockListenerPkg.NewStockListener(taskConsumer, stockUC, appLogger, appMetrics)
	go stockListener.Start(ctx)

	lowStockNotifier := notifier.NewLogNotifier(cfg.Notifier.MerchantMail, appLogger)
	dispatcher := notifier.NewDispatcher(signalConsumer, lowStockNotifier, cfg.Notifier.ThresholdPercent, appLogger, appMetrics)
	go dispatcher.Start(ctx)

	// 10. HTTP API
	orderHandler := ordH.NewOrderHandler(orderUC, appLogger, appMetrics)
	stockHandler := stockH.NewStockHandler(stockUC, cfg.Notifier.ThresholdPercent, appLogger)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			appLogger.Error("unexpected http error", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		},
	})

	api := app.Group("/api")
	api.Post("/orders/place-order", orderHandler.PlaceOrder)
	api.Get("/stocks", stockHandler.ListLevels)
	api.Get("/stocks/low", stockHandler.ListLowLevels)
	api.Get("/stocks/ingredient/:id", stockHandler.GetByIngredient)

	go func() {
		if err := app.Listen(cfg.Server.HTTPPort); err != nil {
			appLogger.Fatal("http server failed", zap.Error(err))
		}
	}()
	appLogger.Info("http server started", zap.String("port", cfg.Server.HTTPPort))

	// 11. Metrics endpoint
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsPort, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server failed: %v", err)
		}
	}()

	// 12. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down...")
	cancel()
	_ = app.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	appLogger.Info("server stopped")
}
