package handler

import (
	"errors"
	"strconv"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
	"github.com/TML-4PM/Partner-Portal/internal/app/service"
	infraProm "github.com/TML-4PM/Partner-Portal/internal/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// InsightsDeps groups dependencies required by insight handlers.
type InsightsDeps struct {
	Logger   *zap.Logger
	Insights repository.InsightRepository
	Worker   *service.InsightWorker
}

// InsightsHandler implements the insight generation, query, and lifecycle
// boundaries.
type InsightsHandler struct {
	logger   *zap.Logger
	insights repository.InsightRepository
	worker   *service.InsightWorker
}

// NewInsightsHandler creates an insights handler with the provided dependencies.
func NewInsightsHandler(deps InsightsDeps) *InsightsHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsHandler{
		logger:   logger,
		insights: deps.Insights,
		worker:   deps.Worker,
	}
}

// Register wires insight routes onto the provided router. The summary
// route registers before the :insightId route so it is not shadowed.
func (h *InsightsHandler) Register(router fiber.Router) {
	api := router.Group("/api/insights")
	{
		api.Get("/:partnerId", h.ListInsights)
		api.Post("/:partnerId/generate", h.GenerateInsights)
		api.Get("/:partnerId/metrics/summary", h.GetMetricsSummary)
		api.Get("/:partnerId/:insightId", h.GetInsightByID)
		api.Patch("/:partnerId/:insightId", h.UpdateInsightStatus)
	}
}

// ListInsights handles GET /api/insights/:partnerId
func (h *InsightsHandler) ListInsights(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")

	filter, err := parseInsightFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	insights, err := h.insights.Find(requestContext(c), partnerID, filter)
	if err != nil {
		h.logger.Error("failed to list insights",
			zap.String("partner_id", partnerID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list insights",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"insights": insights,
	})
}

// GenerateInsightsRequest is the body for triggering async generation.
type GenerateInsightsRequest struct {
	TimeRange model.TimeRange `json:"timeRange"`
}

// GenerateInsights handles POST /api/insights/:partnerId/generate.
// Generation runs in the background; the caller polls the query routes
// for results.
func (h *InsightsHandler) GenerateInsights(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")

	var req GenerateInsightsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.TimeRange.Start.IsZero() || req.TimeRange.End.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "timeRange.start and timeRange.end are required",
		})
	}
	if !req.TimeRange.Start.Before(req.TimeRange.End) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "timeRange.start must be before timeRange.end",
		})
	}

	if err := h.worker.Submit(service.InsightJob{PartnerID: partnerID, TimeRange: req.TimeRange}); err != nil {
		if errors.Is(err, service.ErrQueueFull) {
			infraProm.InsightJobsRejected.Inc()
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "insight generation is busy, retry later",
			})
		}
		h.logger.Error("failed to submit insight job",
			zap.String("partner_id", partnerID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to start insight generation",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Insight generation started",
	})
}

// GetMetricsSummary handles GET /api/insights/:partnerId/metrics/summary
func (h *InsightsHandler) GetMetricsSummary(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")

	summary, err := h.insights.MetricsSummary(requestContext(c), partnerID)
	if err != nil {
		h.logger.Error("failed to summarize insights",
			zap.String("partner_id", partnerID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to summarize insights",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"metrics": summary,
	})
}

// GetInsightByID handles GET /api/insights/:partnerId/:insightId
func (h *InsightsHandler) GetInsightByID(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")
	insightID := c.Params("insightId")

	insight, err := h.insights.FindByID(requestContext(c), partnerID, insightID)
	if err != nil {
		if errors.Is(err, repository.ErrInsightNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "insight not found",
			})
		}
		h.logger.Error("failed to load insight",
			zap.String("partner_id", partnerID),
			zap.String("insight_id", insightID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load insight",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"insight": insight,
	})
}

// UpdateInsightStatusRequest is the body for a status transition.
type UpdateInsightStatusRequest struct {
	Status model.InsightStatus `json:"status"`
}

// UpdateInsightStatus handles PATCH /api/insights/:partnerId/:insightId
func (h *InsightsHandler) UpdateInsightStatus(c *fiber.Ctx) error {
	partnerID := c.Params("partnerId")
	insightID := c.Params("insightId")

	var req UpdateInsightStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if !req.Status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "status must be one of: ACTIVE, RESOLVED, DISMISSED",
		})
	}

	insight, err := h.insights.UpdateStatus(requestContext(c), partnerID, insightID, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrInsightNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "insight not found",
			})
		}
		h.logger.Error("failed to update insight status",
			zap.String("partner_id", partnerID),
			zap.String("insight_id", insightID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update insight",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Insight updated successfully",
		"insight": insight,
	})
}

func parseInsightFilter(c *fiber.Ctx) (model.InsightFilter, error) {
	var filter model.InsightFilter

	if raw := c.Query("type"); raw != "" {
		t := model.InsightType(raw)
		if !t.Valid() {
			return filter, errors.New("unknown insight type filter")
		}
		filter.Type = &t
	}
	if raw := c.Query("category"); raw != "" {
		cat := model.InsightCategory(raw)
		if !cat.Valid() {
			return filter, errors.New("unknown insight category filter")
		}
		filter.Category = &cat
	}
	if raw := c.Query("severity"); raw != "" {
		sev := model.InsightSeverity(raw)
		if !sev.Valid() {
			return filter, errors.New("unknown insight severity filter")
		}
		filter.Severity = &sev
	}
	if raw := c.Query("status"); raw != "" {
		status := model.InsightStatus(raw)
		if !status.Valid() {
			return filter, errors.New("unknown insight status filter")
		}
		filter.Status = &status
	}
	if raw := c.Query("startDate"); raw != "" {
		start, err := parseDate(raw)
		if err != nil {
			return filter, errors.New("startDate must be an ISO-8601 date")
		}
		filter.StartDate = &start
	}
	if raw := c.Query("endDate"); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			return filter, errors.New("endDate must be an ISO-8601 date")
		}
		filter.EndDate = &end
	}
	if raw := c.Query("confidence"); raw != "" {
		confidence, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, errors.New("confidence must be a number")
		}
		filter.MinConfidence = &confidence
	}
	if filter.StartDate != nil && filter.EndDate != nil && !filter.StartDate.Before(*filter.EndDate) {
		return filter, errors.New("startDate must be before endDate")
	}

	return filter, nil
}
