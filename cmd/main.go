package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/cache"
	"marketplace-service/internal/config"
	"marketplace-service/internal/database"
	"marketplace-service/internal/events"
	"marketplace-service/internal/media"
	"marketplace-service/internal/metrics"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/pipeline"
	"marketplace-service/internal/resources"
	"marketplace-service/internal/routes"
	"marketplace-service/internal/storage"
	"marketplace-service/internal/utils"
)

func main() {
	// load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(err)
	}
	dev := cfg.App.Env == "development"

	// logger
	logger, err := utils.NewLogger(dev)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// metrics
	metrics.Init()

	// Mongo
	db, mc, err := database.Connect(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		logger.Fatalf("mongo connect: %v", err)
	}

	// unique business-key indexes; the DB is the only serialization point
	// for racing creates of the same key
	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for _, res := range resources.All() {
		if res.BusinessKey == "" {
			continue
		}
		if err := database.EnsureUniqueIndex(idxCtx, db.Collection(res.Collection), res.BusinessKey); err != nil {
			logger.Fatalf("index %s.%s: %v", res.Collection, res.BusinessKey, err)
		}
	}
	idxCancel()

	// S3 store
	store, err := storage.NewS3Store(context.Background(), cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.Endpoint, cfg.S3.PublicRead)
	if err != nil {
		logger.Fatalf("s3 init: %v", err)
	}

	// Redis
	rdb, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("redis init: %v", err)
	}

	// media service (uploader + direct endpoints)
	presignTTL := time.Duration(cfg.S3.PresignTTL) * time.Second
	cacheTTL := time.Duration(cfg.Redis.SignedTTL) * time.Second
	mediaRepo := media.NewRepo(db.Collection("media"))
	mediaSvc := media.NewService(mediaRepo, store, rdb, presignTTL, cacheTTL, logger)

	// Kafka mutation events
	pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)

	// JWT verifier
	verifier, err := auth.NewJWTVerifier(cfg.JWT.PublicKeyPath)
	if err != nil {
		logger.Fatalf("jwt init: %v", err)
	}

	// fiber app & routes
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    cfg.Upload.MaxMB * 1024 * 1024,
	})
	app.Use(middleware.Recovery(logger))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.Metrics())
	app.Use(middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute, logger).Handler())

	writeLimiter := middleware.NewWriteRateLimiter(rdb.Cli, "wlimit", cfg.RateLimit.WriteLimit, cfg.WriteWindow)

	routes.Register(app, routes.Deps{
		DB:           db,
		Uploader:     mediaSvc,
		MediaHandler: media.NewHandler(mediaSvc),
		Events:       pub,
		Verifier:     verifier,
		Log:          logger,
		Opts: pipeline.Options{
			UploadTimeout:  cfg.UploadTimeout,
			MaxUploadBytes: int64(cfg.Upload.MaxMB) * 1024 * 1024,
		},
		WriteLimiter: writeLimiter.Handler(),
	})

	// metrics side server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("metrics server: %v", err)
		}
	}()

	// start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Infof("starting marketplace service on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("listen failed: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	logger.Info("shutdown requested")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	_ = app.Shutdown()
	_ = pub.Close()
	_ = rdb.Close()
	_ = mc.Disconnect(timeoutCtx)
	logger.Info("shutdown completed")
}
