package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"

	logger_adapter "pricing-service/internal/adapters/logger"
	postgres_adapter "pricing-service/internal/adapters/postgres"
	rabbitmq_adapter "pricing-service/internal/adapters/rabbitmq"
	redis_adapter "pricing-service/internal/adapters/redis"
	"pricing-service/internal/adapters/rest"
	"pricing-service/internal/configs"
	"pricing-service/internal/constants"
	"pricing-service/internal/core/port"
	"pricing-service/internal/core/pricing"
	"pricing-service/internal/core/usecase"
	"pricing-service/internal/core/validation"
	fluentlogger "pricing-service/pkg/fluent_logger"
	"pricing-service/pkg/postgres"
	"pricing-service/pkg/rabbitmq/rabbitmq_common"
	"pricing-service/pkg/rabbitmq/rabbitmq_consumer"
)

// App wires every component of the service together.
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	cache        *redis_adapter.OptimizationCacheAdapter
	apiServer    *rest.Server
	fluentClient *fluent.Fluent
	logger       port.LoggerPort

	uploadBatchListener port.EventListenerPort
}

// NewApp is the composition root: all dependencies are created and connected
// here.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// Loggers
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// Low-level dependencies
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	storageAdapter, err := postgres_adapter.NewPostgresStorageAdapter(dbPool)
	if err != nil {
		appLogger.Error("Failed to create postgres storage adapter", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to create postgres storage adapter: %w", err)
	}

	cacheAdapter, err := redis_adapter.NewOptimizationCacheAdapter(
		context.Background(), appConfig.Redis.Addr, appConfig.Redis.Password, appConfig.Redis.DB)
	if err != nil {
		appLogger.Error("Failed to connect to Redis", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	appLogger.Info("Storage adapters initialized.", nil)

	connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
	connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger)
	connManager, err := rabbitmq_common.GetManager(appConfig.RabbitMQ.URL, connManagerBridge)
	if err != nil {
		appLogger.Error("Failed to create connection manager", err, nil)
		dbPool.Close()
		cacheAdapter.Close()
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

	// Pricing core
	pricingCfg := pricing.Config{
		Elasticity:          appConfig.Pricing.Elasticity,
		MaxAdjustmentPct:    appConfig.Pricing.MaxAdjustmentPct,
		SimilarityThreshold: appConfig.Pricing.SimilarityThreshold,
		ComparableSetSize:   appConfig.Pricing.ComparableSetSize,
		PriceTolerance:      appConfig.Pricing.PriceTolerance,
		MaxIterations:       appConfig.Pricing.MaxIterations,
	}
	demandCurve := pricing.NewDemandCurve(pricingCfg)
	matcher := pricing.NewComparableMatcher(pricingCfg)
	optimizer := pricing.NewPricingOptimizer(pricingCfg, demandCurve)
	validator := validation.NewValidator()

	// Use cases
	getComparablesUseCase := usecase.NewGetComparablesUseCase(storageAdapter, matcher)
	optimizeUnitUseCase := usecase.NewOptimizeUnitUseCase(storageAdapter, cacheAdapter, matcher, optimizer, appConfig.Redis.CacheTTL)
	validateUploadUseCase := usecase.NewValidateUploadUseCase(validator)
	processUploadBatchUseCase := usecase.NewProcessUploadBatchUseCase(validator, storageAdapter)
	getUploadHistoryUseCase := usecase.NewGetUploadHistoryUseCase(storageAdapter)
	appLogger.Info("All use cases initialized.", nil)

	// Incoming adapters
	consumerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_consumer"})
	uploadConsumerCfg := rabbitmq_consumer.ConsumerConfig{
		Config:                 rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		QueueName:              constants.QueueUploadBatches,
		DeclareQueue:           true,
		DurableQueue:           true,
		ExchangeNameForBind:    constants.ExchangePricingEvents,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		DurableExchangeForBind: true,
		RoutingKeyForBind:      constants.RoutingKeyUploadBatches,
		PrefetchCount:          1,
		ConsumerTag:            "upload-batch-adapter",

		EnableRetryMechanism: true,
		RetryExchange:        constants.QueueUploadBatches + "_retry_ex",
		RetryQueue:           constants.QueueUploadBatches + "_retry_wait_10s",
		RetryTTL:             10000,
		FinalDLXExchange:     constants.FinalDLXExchange,
		FinalDLQ:             constants.FinalDLQ,
		FinalDLQRoutingKey:   constants.FinalDLQRoutingKey,
		MaxRetries:           3,

		Logger: rabbitmq_adapter.NewPkgLoggerBridge(consumerLogger),
	}
	uploadBatchListener, err := rabbitmq_adapter.NewUploadBatchConsumerAdapter(uploadConsumerCfg, connManager, processUploadBatchUseCase, baseLogger)
	if err != nil {
		appLogger.Error("Failed to create upload batch listener", err, nil)
		dbPool.Close()
		cacheAdapter.Close()
		return nil, err
	}
	appLogger.Info("Upload Batch Events Listener initialized.", nil)

	// REST API server
	pricingHandler := rest.NewPricingHandler(getComparablesUseCase, optimizeUnitUseCase)
	uploadHandler := rest.NewUploadHandler(validateUploadUseCase, getUploadHistoryUseCase)

	apiServer := rest.NewServer(appConfig.Rest.PORT, pricingHandler, uploadHandler, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	application := &App{
		config:              appConfig,
		dbPool:              dbPool,
		cache:               cacheAdapter,
		apiServer:           apiServer,
		uploadBatchListener: uploadBatchListener,
		fluentClient:        fluentClient,
		logger:              appLogger,
	}

	return application, nil
}

// Run starts every component and manages the application lifecycle.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		if a.uploadBatchListener != nil {
			if err := a.uploadBatchListener.Close(); err != nil {
				a.logger.Error("Error closing upload batch listener", err, nil)
			}
		}

		if a.cache != nil {
			if err := a.cache.Close(); err != nil {
				a.logger.Error("Error closing Redis client", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// Log to stdout, fluent itself may already be unavailable.
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 1)

	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		listenerLogger := a.logger.WithFields(port.Fields{"listener_name": name})
		listenerLogger.Info("Starting listener...", nil)

		if err := listener.Start(appCtx); err != nil {
			listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
			errorsCh <- fmt.Errorf("%s error: %w", name, err)
		} else {
			listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
		}
	}

	wg.Add(1)
	go startListener("Upload Batch Events Listener", a.uploadBatchListener)

	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	}

	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
