package handler

import (
	"context"
	"errors"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AnalyticsDeps groups dependencies required by analytics handlers.
type AnalyticsDeps struct {
	Logger   *zap.Logger
	Tracking service.TrackingService
	Reports  *service.ReportGenerator
	Realtime *service.RealtimeAggregator
}

// AnalyticsHandler implements the event ingestion, report, and realtime
// metrics boundaries.
type AnalyticsHandler struct {
	logger   *zap.Logger
	tracking service.TrackingService
	reports  *service.ReportGenerator
	realtime *service.RealtimeAggregator
}

// NewAnalyticsHandler creates an analytics handler with the provided dependencies.
func NewAnalyticsHandler(deps AnalyticsDeps) *AnalyticsHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{
		logger:   logger,
		tracking: deps.Tracking,
		reports:  deps.Reports,
		realtime: deps.Realtime,
	}
}

// Register wires analytics routes onto the provided router.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	api := router.Group("/api/analytics")
	{
		api.Post("/events", h.TrackEvent)
		api.Get("/reports/:partnerId", h.GetReport)
		api.Get("/realtime/:partnerId", h.GetRealtimeMetrics)
	}
}

// TrackEvent handles POST /api/analytics/events
func (h *AnalyticsHandler) TrackEvent(c *fiber.Ctx) error {
	var event model.Event
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	err := h.tracking.Track(requestContext(c), event)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Event tracked successfully",
		})
	case errors.Is(err, service.ErrInvalidEvent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrUpstreamUnavailable):
		h.logger.Error("event ingestion upstream failure", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "event log unavailable, retry later",
		})
	default:
		h.logger.Error("failed to track event", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to track event",
		})
	}
}

// GetReport handles GET /api/analytics/reports/:partnerId
func (h *AnalyticsHandler) GetReport(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")
	if partnerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "partnerId is required",
		})
	}

	timeRange, err := parseDateRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	report, err := h.reports.Generate(requestContext(c), partnerID, timeRange)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRange) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to generate report",
			zap.String("partner_id", partnerID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to generate report",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"report":  report,
	})
}

// GetRealtimeMetrics handles GET /api/analytics/realtime/:partnerId
func (h *AnalyticsHandler) GetRealtimeMetrics(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")
	if partnerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "partnerId is required",
		})
	}

	snapshot, err := h.realtime.Snapshot(requestContext(c), partnerID)
	if err != nil {
		h.logger.Error("failed to read realtime metrics",
			zap.String("partner_id", partnerID), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "realtime metrics unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"metrics": snapshot,
	})
}

// parseDateRange parses the required startDate/endDate query pair. Both
// RFC 3339 timestamps and plain dates are accepted.
func parseDateRange(startRaw, endRaw string) (model.TimeRange, error) {
	if startRaw == "" || endRaw == "" {
		return model.TimeRange{}, errors.New("startDate and endDate are required")
	}

	start, err := parseDate(startRaw)
	if err != nil {
		return model.TimeRange{}, errors.New("startDate must be an ISO-8601 date")
	}
	end, err := parseDate(endRaw)
	if err != nil {
		return model.TimeRange{}, errors.New("endDate must be an ISO-8601 date")
	}

	return model.TimeRange{Start: start, End: end}, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
