package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/api/handlers"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/application"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/config"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	mongoRepo "github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/infrastructure/mongodb"
	redisLock "github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/infrastructure/redis"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/cloudevents"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/idempotency"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/kafka"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/mongodb"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/outbox"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/tracing"
)

const serviceName = "exims-api"

type instrumentedMongoClient interface {
	Database() *mongo.Database
	Close(context.Context) error
	HealthCheck(context.Context) error
	WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error
}

type kafkaProducer interface {
	kafka.EventPublisher
	Close() error
}

type outboxPublisher interface {
	Start(context.Context) error
	Stop() error
}

var loadConfig = config.Load

var newInstrumentedMongoClient = func(ctx context.Context, cfg *mongodb.Config, m *metrics.Metrics, logger *logging.Logger) (instrumentedMongoClient, error) {
	client, err := mongodb.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return mongodb.NewInstrumentedClient(client, m, logger), nil
}

var newInstrumentedKafkaProducer = func(cfg *kafka.Config, m *metrics.Metrics, logger *logging.Logger) kafkaProducer {
	return kafka.NewInstrumentedProducer(kafka.NewProducer(cfg), m, logger)
}

var newOutboxPublisher = func(repo outbox.Repository, producer kafkaProducer, logger *logging.Logger, m *metrics.Metrics, cfg *outbox.PublisherConfig) outboxPublisher {
	return outbox.NewPublisher(repo, producer, logger, m, cfg)
}

// newStores wires the mongo repositories and builds their indexes. The
// outbox repository is returned separately for the relay.
var newStores = func(ctx context.Context, db *mongo.Database, uow domain.UnitOfWork, locker domain.StockLocker) (application.Stores, outbox.Repository, error) {
	stores := application.Stores{UnitOfWork: uow, Locker: locker}

	var err error
	if stores.Products, err = mongoRepo.NewProductRepository(ctx, db); err != nil {
		return stores, nil, err
	}
	if stores.Ledger, err = mongoRepo.NewLedgerRepository(ctx, db); err != nil {
		return stores, nil, err
	}
	if stores.Bills, err = mongoRepo.NewBillRepository(ctx, db); err != nil {
		return stores, nil, err
	}
	if stores.Suppliers, err = mongoRepo.NewSupplierRepository(ctx, db); err != nil {
		return stores, nil, err
	}
	events, err := mongoRepo.NewOutboxEventPublisher(ctx, db, cloudevents.NewEventFactory())
	if err != nil {
		return stores, nil, err
	}
	stores.Sequence = mongoRepo.NewBillSequenceRepository(db)
	stores.Events = events

	return stores, events.OutboxRepository(), nil
}

var newIdempotencyRepository = func(ctx context.Context, db *mongo.Database) (idempotency.KeyRepository, error) {
	repo := idempotency.NewMongoKeyRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// newStockLocker falls back to NoopLocker when redis is not configured
var newStockLocker = func(cfg config.RedisConfig, m *metrics.Metrics, logger *logging.Logger) (domain.StockLocker, func() error) {
	if cfg.Addr == "" {
		return redisLock.NoopLocker{}, func() error { return nil }
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	lockConfig := redisLock.DefaultConfig()
	lockConfig.TTL = cfg.LockTTL
	return redisLock.NewStockLocker(client, lockConfig, m, logger), client.Close
}

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	cfg, err := loadConfig(".env")
	if err != nil {
		logging.New(logging.DefaultConfig(serviceName)).WithError(err).Error("Invalid configuration")
		return err
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.Server.LogLevel)
	logConfig.Environment = cfg.Server.Environment
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting EXIMS API")

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingConfig.Environment = cfg.Server.Environment
	tracingConfig.Enabled = cfg.Tracing.Enabled

	tracerProvider, err := initTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "enabled", tracingConfig.Enabled, "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := newMetrics(metrics.DefaultConfig(serviceName))

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = cfg.Mongo.URI
	mongoConfig.Database = cfg.Mongo.Database
	mongoConfig.MaxPoolSize = cfg.Mongo.MaxPoolSize
	mongoConfig.Monitor = mongodb.NewCommandMonitor(m)

	mongoClient, err := newInstrumentedMongoClient(ctx, mongoConfig, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", cfg.Mongo.Database)

	db := mongoClient.Database()

	locker, closeLocker := newStockLocker(cfg.Redis, m, logger)
	defer func() {
		if err := closeLocker(); err != nil {
			logger.WithError(err).Warn("Failed to close redis client")
		}
	}()

	stores, outboxRepo, err := newStores(ctx, db, mongoRepo.NewTransactionManager(mongoClient, logger), locker)
	if err != nil {
		logger.WithError(err).Error("Failed to prepare repositories")
		return err
	}

	keyRepo, err := newIdempotencyRepository(ctx, db)
	if err != nil {
		logger.WithError(err).Error("Failed to prepare idempotency keys")
		return err
	}

	if cfg.Kafka.Enabled {
		kafkaConfig := kafka.DefaultConfig()
		kafkaConfig.Brokers = cfg.Kafka.Brokers
		kafkaConfig.ClientID = serviceName

		producer := newInstrumentedKafkaProducer(kafkaConfig, m, logger)
		defer producer.Close()

		relay := newOutboxPublisher(outboxRepo, producer, logger, m, &outbox.PublisherConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
		})
		if err := relay.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			return err
		}
		defer func() {
			if err := relay.Stop(); err != nil {
				logger.WithError(err).Warn("Failed to stop outbox publisher")
			}
		}()
		logger.Info("Outbox publisher started", "brokers", cfg.Kafka.Brokers)
	} else {
		logger.Info("Kafka disabled, events stay in the outbox")
	}

	ledgerService := application.NewLedgerService(stores, m, logger)
	h := handlers.Handlers{
		Products: handlers.NewProductHandler(application.NewProductService(stores, m, logger), ledgerService, logger),
		Inventory: handlers.NewInventoryHandler(
			ledgerService,
			application.NewAdjustmentService(stores, m, logger),
			application.NewReportingService(stores.Products, stores.Ledger),
			logger,
		),
		Bills:     handlers.NewBillHandler(application.NewBillingService(stores, m, logger), logger),
		Suppliers: handlers.NewSupplierHandler(application.NewSupplierService(stores.UnitOfWork, stores.Suppliers, stores.Events, logger), logger),
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middlewareConfig.AllowOrigins = cfg.Server.AllowOrigins
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	idempotencyConfig := idempotency.DefaultConfig(serviceName, keyRepo)
	idempotencyConfig.ScopeExtractor = middleware.GetShopkeeperID
	idempotencyConfig.RetentionPeriod = cfg.Idempotency.Retention

	handlers.RegisterRoutes(router, h, idempotency.Middleware(idempotencyConfig, logger.Logger))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}
