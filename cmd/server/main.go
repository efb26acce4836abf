package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martinsuhendra/manta/internal/adapter"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/config"
	mantaEvents "github.com/martinsuhendra/manta/internal/events"
	"github.com/martinsuhendra/manta/internal/handler"
	"github.com/martinsuhendra/manta/internal/metrics"
	"github.com/martinsuhendra/manta/internal/repository"
	"github.com/martinsuhendra/manta/internal/saga"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/events"
	"github.com/martinsuhendra/manta/pkg/health"
	"github.com/martinsuhendra/manta/pkg/kafka"
	"github.com/martinsuhendra/manta/pkg/logger"
	"github.com/martinsuhendra/manta/pkg/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, config.ServiceName)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting manta",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	db, err := database.Connect(dbConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.AllModels()...); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsPath, zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTokenTTL,
		cfg.JWTConfig.RefreshTokenTTL,
	)

	// Initialize event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.KafkaEnabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, zapLogger)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
	}
	publisher = metrics.NewCountingPublisher(publisher)

	// Initialize payment gateway (mock checkout behind a circuit breaker)
	gateway := adapter.NewBreakerGateway(
		adapter.NewMockPaymentGateway(cfg.PaymentConfig.BaseURL, zapLogger),
		cfg.PaymentConfig.Breaker,
		zapLogger,
		metrics.RecordBreakerState,
	)

	// Initialize repositories
	tx := database.NewGormTransactor(db)
	itemRepo := repository.NewItemRepository(db)
	poolRepo := repository.NewQuotaPoolRepository(db)
	productRepo := repository.NewProductRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	usageRepo := repository.NewQuotaUsageRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	freezeRepo := repository.NewFreezeRequestRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize saga service
	purchaseSaga := saga.NewPurchaseSagaService(tx, productRepo, membershipRepo, paymentRepo, gateway, publisher, cfg.PaymentConfig.Currency, zapLogger)

	// Initialize application services
	catalogService := application.NewCatalogService(tx, itemRepo, poolRepo, productRepo, zapLogger)
	scheduleService := application.NewScheduleService(sessionRepo, itemRepo, zapLogger)
	bookingService := application.NewBookingService(tx, sessionRepo, itemRepo, productRepo, membershipRepo, bookingRepo, usageRepo, publisher, zapLogger)
	freezeService := application.NewFreezeService(tx, freezeRepo, membershipRepo, publisher, zapLogger)
	membershipService := application.NewMembershipService(tx, membershipRepo, productRepo, paymentRepo, purchaseSaga, publisher, cfg.PaymentConfig.ServerKey, zapLogger)

	// Background work is cancelled on shutdown
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Initialize Kafka consumer for relayed payment notifications
	if cfg.KafkaEnabled {
		consumerGroupID := cfg.KafkaConfig.GroupPrefix + config.ServiceName
		notificationConsumer := mantaEvents.NewPaymentNotificationConsumer(
			cfg.KafkaConfig.Brokers,
			consumerGroupID,
			membershipService,
			zapLogger,
		)
		defer notificationConsumer.Close()

		go func() {
			zapLogger.Info("starting payment notification consumer")
			if err := notificationConsumer.Start(bgCtx); err != nil {
				if bgCtx.Err() == nil {
					zapLogger.Error("payment notification consumer failed", zap.Error(err))
				}
			}
		}()
	}

	// Idempotency keys live in Redis; without it, mutating routes run unguarded
	var idempotency gin.HandlerFunc
	if cfg.RedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer rdb.Close()
		idempotency = middleware.Idempotency(rdb, cfg.IdempotencyTTL, zapLogger)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TTL)
	go rateLimiter.Cleanup(bgCtx)

	// Initialize HTTP handlers
	handler.RegisterValidators()
	catalogHandler := handler.NewCatalogHandler(catalogService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	bookingHandler := handler.NewBookingHandler(bookingService, idempotency)
	freezeHandler := handler.NewFreezeHandler(freezeService)
	membershipHandler := handler.NewMembershipHandler(membershipService, idempotency)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(metrics.Middleware())
	router.Use(rateLimiter.Middleware())

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, config.ServiceName)
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", metrics.Handler())

	// Register API routes
	apiV1 := router.Group("/api/v1")
	catalogHandler.RegisterRoutes(apiV1, jwtManager)
	scheduleHandler.RegisterRoutes(apiV1, jwtManager)
	bookingHandler.RegisterRoutes(apiV1, jwtManager)
	freezeHandler.RegisterRoutes(apiV1, jwtManager)
	membershipHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down manta...")

	// Stop consumer and rate limiter cleanup
	bgCancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("manta stopped")
}
