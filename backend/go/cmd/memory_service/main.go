package main

import (
	"Mnemos/backend/go/internal/config"
	"Mnemos/backend/go/internal/database/kafka"
	"Mnemos/backend/go/internal/database/mongo"
	"Mnemos/backend/go/internal/database/redis"
	"Mnemos/backend/go/internal/llm"
	"Mnemos/backend/go/internal/memory/api"
	"Mnemos/backend/go/internal/memory/consumer"
	"Mnemos/backend/go/internal/memory/diff"
	"Mnemos/backend/go/internal/memory/extractor"
	"Mnemos/backend/go/internal/memory/resolver"
	"Mnemos/backend/go/internal/memory/retrieval"
	"Mnemos/backend/go/internal/memory/service"
	"Mnemos/backend/go/internal/memory/store"
	"Mnemos/backend/go/internal/models"
	"Mnemos/backend/go/pkg/circuitbreaker"
	"Mnemos/backend/go/pkg/logger"
	"Mnemos/backend/go/pkg/ratelimiter"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logLevel, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("Invalid logger level: %v", err)
	}
	logger.Init(logLevel)
	serviceLogger := logger.New(cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	var (
		factStore   store.Store
		mongoClient interface{ Disconnect(context.Context) error }
	)
	switch cfg.Memory.Storage {
	case "mongo":
		client, err := mongo.Connect(ctx, &cfg.Databases.MongoDB)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to MongoDB")
		}
		mongoClient = client
		db := client.Database(cfg.Databases.MongoDB.Database)
		mongoStore := store.NewMongoStore(db, cfg.Memory.Collection)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to ensure fact indexes")
		}
		factStore = mongoStore
		serviceLogger.Info("Successfully connected to MongoDB")
	case "memory":
		factStore = store.NewMemoryStore()
		serviceLogger.Warn("Using the in-process fact store; data will not survive a restart")
	default:
		serviceLogger.Fatal("Unknown storage backend: " + cfg.Memory.Storage)
	}

	// Active-facts cache: Redis when enabled, in-process LRU otherwise
	cacheTTL := config.ParseDuration(cfg.Memory.CacheTTL, 5*time.Minute)
	var factCache retrieval.Cache
	var redisClient interface{ Close() error }
	if cfg.Databases.Redis.Enabled {
		client, err := redis.Connect(ctx, &cfg.Databases.Redis)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Redis")
		}
		redisClient = client
		factCache = retrieval.NewRedisCache(client, cacheTTL)
		serviceLogger.Info("Successfully connected to Redis")
	} else {
		localCache, err := retrieval.NewLocalCache(cfg.Memory.CacheSize, cacheTTL)
		if err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create local cache")
		}
		factCache = localCache
	}

	retrievalSvc := retrieval.NewService(factStore, factCache, serviceLogger)

	// LLM-backed collaborators
	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to create LLM client")
	}
	factExtractor := extractor.NewLLMExtractor(llmClient)
	factResolver := resolver.NewLLMResolver(llmClient)

	timeouts := service.Timeouts{
		Extract: config.ParseDuration(cfg.Memory.ExtractTimeout, 30*time.Second),
		Resolve: config.ParseDuration(cfg.Memory.ResolveTimeout, 20*time.Second),
		Apply:   config.ParseDuration(cfg.Memory.ApplyTimeout, 10*time.Second),
	}
	memorySvc := service.NewMemoryService(factExtractor, factResolver, diff.NewEngine(factStore), factStore, retrievalSvc, timeouts, serviceLogger)

	if cb := cfg.Middleware.CircuitBreaker; cb.Enabled {
		cooldown := config.ParseDuration(cb.Cooldown, 30*time.Second)
		memorySvc.WithBreakers(
			circuitbreaker.New(cb.FailureThreshold, cb.SuccessThreshold, cooldown),
			circuitbreaker.New(cb.FailureThreshold, cb.SuccessThreshold, cooldown),
		)
	}

	// Kafka conversation consumer
	kafkaClient, err := kafka.Connect(&cfg.Databases.Kafka)
	if err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("Failed to connect to Kafka")
	}
	consumer.NewKafkaConsumer(kafkaClient, memorySvc, serviceLogger).Start(ctx)
	serviceLogger.Info("Kafka conversation consumer started")

	// HTTP server
	var limiter ratelimiter.RateLimiter
	if rl := cfg.Middleware.RateLimiter; rl.Enabled {
		limiter = ratelimiter.NewTokenBucket(rl.Rate, rl.Capacity)
	}
	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(api.NewHandler(retrievalSvc, memorySvc), limiter)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Server forced to shutdown")
	}

	cancel()
	if err := kafkaClient.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka client")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis client")
		}
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error disconnecting from MongoDB")
		}
	}

	serviceLogger.Info("Server gracefully stopped")
}
