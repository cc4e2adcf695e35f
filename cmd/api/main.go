package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/config"
	"github.com/martpos/inventory-service/internal/aiusage"
	usageH "github.com/martpos/inventory-service/internal/aiusage/handler"
	usageRepoPkg "github.com/martpos/inventory-service/internal/aiusage/repository"
	"github.com/martpos/inventory-service/internal/auth"
	"github.com/martpos/inventory-service/internal/commit"
	commitRepoPkg "github.com/martpos/inventory-service/internal/commit/repository"
	"github.com/martpos/inventory-service/internal/events"
	"github.com/martpos/inventory-service/internal/ingest"
	invH "github.com/martpos/inventory-service/internal/inventory/handler"
	invListenerPkg "github.com/martpos/inventory-service/internal/inventory/listener"
	invRepoPkg "github.com/martpos/inventory-service/internal/inventory/repository"
	invUCPkg "github.com/martpos/inventory-service/internal/inventory/usecase"
	"github.com/martpos/inventory-service/internal/keyring"
	"github.com/martpos/inventory-service/internal/platform/broker"
	"github.com/martpos/inventory-service/internal/platform/cache"
	"github.com/martpos/inventory-service/internal/platform/logger"
	"github.com/martpos/inventory-service/internal/platform/postgres"
	"github.com/martpos/inventory-service/internal/platform/search"
	"github.com/martpos/inventory-service/internal/platform/vision"
	prodH "github.com/martpos/inventory-service/internal/product/handler"
	prodRepoPkg "github.com/martpos/inventory-service/internal/product/repository"
	prodUCPkg "github.com/martpos/inventory-service/internal/product/usecase"
	"github.com/martpos/inventory-service/internal/session"
	sessH "github.com/martpos/inventory-service/internal/session/handler"
	sessUCPkg "github.com/martpos/inventory-service/internal/session/usecase"
	"github.com/martpos/inventory-service/internal/storage"
)

func main() {
	// 1. Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Logger
	logCfg := &logger.Config{
		IsDevelopment:     cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	appLogger := logger.New(logCfg)
	defer appLogger.Sync()

	// 3. Postgres
	db, err := postgres.New(&postgres.Config{
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
	appLogger.Info("connected to postgres", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Redis (session store + list caches)
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("could not connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Kafka
	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.EventsTopic,
	})
	defer producer.Close()

	ordersConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer ordersConsumer.Close()
	appLogger.Info("connected to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))

	publisher := events.NewKafkaPublisher(producer, appLogger)

	// 6. Elasticsearch; the service runs without it, search just degrades.
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("could not connect to elasticsearch, text search degrades to db", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("connected to elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. File storage for uploaded originals
	var fileStore storage.Provider
	switch cfg.Storage.Provider {
	case storage.ProviderGCS:
		fileStore, err = storage.NewGCS(context.Background(), cfg.Storage.GCSBucket, cfg.Storage.CredentialsJSON)
	default:
		fileStore, err = storage.NewLocal(cfg.Storage.LocalDir)
	}
	if err != nil {
		appLogger.Fatal("could not initialize file storage", zap.Error(err))
	}

	// 8. Usage metering
	usageRepo := usageRepoPkg.NewPGRepository(db)
	meter := aiusage.NewMeter(usageRepo, appLogger)

	// 9. Extractors
	keys := keyring.NewResolver(&keyring.Config{
		BaseURL:  cfg.Keyring.BaseURL,
		Timeout:  time.Duration(cfg.Keyring.TimeoutSeconds) * time.Second,
		CacheTTL: time.Duration(cfg.Keyring.CacheTTLSeconds) * time.Second,
	}, appLogger)

	dispatcher := &ingest.Dispatcher{
		CSV:   ingest.NewCSVExtractor(),
		Excel: ingest.NewExcelExtractor(),
		PDF:   ingest.NewPDFExtractor(meter),
		AIVision: ingest.NewAIVisionExtractor(keys, meter, appLogger,
			time.Duration(cfg.AIVision.TimeoutSeconds)*time.Second,
			ingest.NewOpenAIVision(cfg.AIVision.OpenAIBaseURL, cfg.AIVision.OpenAIModel),
			ingest.NewGeminiVision(cfg.AIVision.GeminiBaseURL, cfg.AIVision.GeminiModel),
		),
	}
	if cfg.Vision.Enabled {
		ocrClient, err := vision.NewClient(context.Background(), cfg.Vision.CredentialsJSON)
		if err != nil {
			appLogger.Warn("could not initialize cloud vision ocr, image ocr disabled", zap.Error(err))
		} else {
			defer ocrClient.Close()
			dispatcher.ImageOCR = ingest.NewOCRExtractor(ocrClient, meter)
		}
	}

	// 10. Import sessions + commit engine
	sessionStore := session.NewStore(redisClient, time.Duration(cfg.Session.TTLSeconds)*time.Second)
	sessionUC := sessUCPkg.NewSessionUseCase(sessionStore, fileStore, dispatcher, appLogger)
	engine := commit.NewEngine(commitRepoPkg.NewPGStore(db), sessionStore, publisher, redisClient, appLogger)

	// 11. Catalog + stock
	prodUC := prodUCPkg.NewProductUseCase(prodRepoPkg.NewPGRepository(db), redisClient, esClient, publisher, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepoPkg.NewPGRepository(db), publisher, appLogger)

	// 12. Order events deduct stock in the background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go invListenerPkg.NewOrderListener(ordersConsumer, invUC, appLogger).Start(ctx)

	// 13. HTTP server
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1", auth.TenantMiddleware())
	prodH.NewProductHandler(prodUC, appLogger).RegisterRoutes(v1)
	invH.NewInventoryHandler(invUC, appLogger).RegisterRoutes(v1)
	sessH.NewSessionHandler(sessionUC, engine, cfg.Session.MaxUploadBytes, sessH.BarcodeDefaults{
		Format: ingest.BarcodeFormat(cfg.Barcode.DefaultFormat),
		Prefix: cfg.Barcode.DefaultPrefix,
	}, appLogger).RegisterRoutes(v1)
	usageH.NewUsageHandler(meter, appLogger).RegisterRoutes(v1)

	addr := cfg.Server.HTTPPort
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // extraction requests can be slow
	}

	go func() {
		appLogger.Info("starting http server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("server stopped")
}
