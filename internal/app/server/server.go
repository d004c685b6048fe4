package server

import (
	"context"
	"time"

	"github.com/TML-4PM/Partner-Portal/config"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
	"github.com/TML-4PM/Partner-Portal/internal/app/service"
	inthttp "github.com/TML-4PM/Partner-Portal/internal/http/handler"
	"github.com/TML-4PM/Partner-Portal/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger    *zap.Logger
	Config    *config.Config
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	NATS      *nats.Conn
	JetStream nats.JetStreamContext
	Insights  repository.InsightRepository
}

// Server wraps the Fiber application, the analytics services, and the
// background insight worker.
type Server struct {
	app    *fiber.App
	deps   Dependencies
	worker *service.InsightWorker
}

// New creates a new HTTP server instance with the full analytics pipeline
// wired and the insight worker started.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the insight worker and gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.worker != nil {
		s.worker.Stop()
	}
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	logger := s.deps.Logger
	cfg := s.deps.Config

	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(logger))
	s.app.Use(middleware.Logger(logger))
	s.app.Use(middleware.CORS())
	// Rate limiting guards the ingest boundary only; reads stay unthrottled.
	s.app.Use("/api/analytics/events", middleware.RateLimit(s.deps.Redis, middleware.DefaultRateLimitConfig(), logger))

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "partner-analytics",
			"status":  "ok",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	realtimeStore := repository.NewRedisRealtimeStore(s.deps.Redis)
	sessionCache := repository.NewRedisSessionCache(s.deps.Redis)
	eventLog := repository.NewJetStreamEventLog(s.deps.JetStream, logger)

	ttl := time.Duration(cfg.Analytics.RealtimeTTLHours) * time.Hour
	aggregator := service.NewRealtimeAggregator(logger, realtimeStore, ttl, cfg.Analytics.RecentWindowSize)
	enricher := service.NewEventEnricher(logger, sessionCache, cfg.Server.ID)
	tracking := service.NewTrackingService(logger, enricher, eventLog, aggregator)
	reports := service.NewReportGenerator(eventLog)
	analyzer := service.NewInsightAnalyzer(logger, s.deps.Insights, cfg.Analytics)

	s.worker = service.NewInsightWorker(logger, reports, analyzer, cfg.Analytics.InsightQueueSize)
	s.worker.Start()

	analyticsHandler := inthttp.NewAnalyticsHandler(inthttp.AnalyticsDeps{
		Logger:   logger,
		Tracking: tracking,
		Reports:  reports,
		Realtime: aggregator,
	})
	analyticsHandler.Register(s.app)

	insightsHandler := inthttp.NewInsightsHandler(inthttp.InsightsDeps{
		Logger:   logger,
		Insights: s.deps.Insights,
		Worker:   s.worker,
	})
	insightsHandler.Register(s.app)
}
