package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/TML-4PM/Partner-Portal/config"
	appmodel "github.com/TML-4PM/Partner-Portal/internal/app/model"
	apprepository "github.com/TML-4PM/Partner-Portal/internal/app/repository"
	appserver "github.com/TML-4PM/Partner-Portal/internal/app/server"
	"github.com/TML-4PM/Partner-Portal/internal/infra/logger"
	infraNATS "github.com/TML-4PM/Partner-Portal/internal/infra/nats"
	infraPostgres "github.com/TML-4PM/Partner-Portal/internal/infra/postgres"
	infraPrometheus "github.com/TML-4PM/Partner-Portal/internal/infra/prometheus"
	infraRedis "github.com/TML-4PM/Partner-Portal/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("postgres_user", cfg.Postgres.User),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
		zap.Float64("low_conversion_rate", cfg.Analytics.LowConversionRate),
		zap.Int("realtime_ttl_hours", cfg.Analytics.RealtimeTTLHours),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Insight{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if err := apprepository.EnsureEventStream(js); err != nil {
		log.Fatal("Failed to ensure event stream", zap.Error(err))
	}

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	insightRepo := apprepository.NewInsightRepository(gormDB)

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Config:    cfg,
		Postgres:  pool,
		Redis:     redisClient,
		NATS:      natsConn,
		JetStream: js,
		Insights:  insightRepo,
	})

	if err := server.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
