package service

import (
	"context"
	"fmt"
	"time"

	"github.com/TML-4PM/Partner-Portal/config"
	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"github.com/TML-4PM/Partner-Portal/internal/app/repository"
	infraProm "github.com/TML-4PM/Partner-Portal/internal/infra/prometheus"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const insightSource = "analytics-engine"

// InsightAnalyzer evaluates a report against the threshold rule set and
// persists the resulting insights. Rule evaluation order is fixed
// (conversion, engagement, interaction) so equal-severity output is
// reproducible across runs.
type InsightAnalyzer struct {
	logger     *zap.Logger
	repo       repository.InsightRepository
	thresholds config.AnalyticsConfig
	now        func() time.Time
}

// NewInsightAnalyzer creates an analyzer with the configured thresholds.
func NewInsightAnalyzer(logger *zap.Logger, repo repository.InsightRepository, thresholds config.AnalyticsConfig) *InsightAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightAnalyzer{
		logger:     logger,
		repo:       repo,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Analyze derives insights from the report and stores each through the
// repository. A persistence failure aborts the run; already-stored
// insights stay stored, since each insight is an independent fact.
func (a *InsightAnalyzer) Analyze(ctx context.Context, partnerID string, report *model.Report) ([]model.Insight, error) {
	candidates := a.evaluate(partnerID, report)

	stored := make([]model.Insight, 0, len(candidates))
	for i := range candidates {
		insight := &candidates[i]
		if err := a.repo.Create(ctx, insight); err != nil {
			return stored, fmt.Errorf("%w: store insight %s for partner %s: %w",
				ErrPersistenceFailure, insight.ID, partnerID, err)
		}
		infraProm.InsightsGenerated.Inc()
		stored = append(stored, *insight)
	}

	a.logger.Info("insight analysis completed",
		zap.String("partner_id", partnerID),
		zap.Int("insight_count", len(stored)))

	return stored, nil
}

func (a *InsightAnalyzer) evaluate(partnerID string, report *model.Report) []model.Insight {
	var insights []model.Insight

	metrics := report.Metrics

	// Conversion rule.
	if metrics.ConversionRate < a.thresholds.LowConversionRate {
		severity := model.InsightSeverityMedium
		if metrics.ConversionRate < a.thresholds.CriticalConversionRate {
			severity = model.InsightSeverityHigh
		}
		insights = append(insights, a.newInsight(partnerID, report,
			model.InsightTypeTrend, model.InsightCategoryConversion, severity,
			model.InsightContent{
				Title: recommendationTitle("conversion"),
				Description: fmt.Sprintf("Conversion rate is %.1f%%, below the %.1f%% target.",
					metrics.ConversionRate, a.thresholds.LowConversionRate),
				Metrics: map[string]float64{
					"conversionRate": metrics.ConversionRate,
					"totalViews":     float64(metrics.TotalViews),
				},
				Recommendations: specificRecommendations("conversion"),
			}, 0.9))
	}

	// Engagement rule.
	if metrics.AverageDuration < a.thresholds.LowEngagementDuration {
		insights = append(insights, a.newInsight(partnerID, report,
			model.InsightTypeTrend, model.InsightCategoryEngagement, model.InsightSeverityMedium,
			model.InsightContent{
				Title: recommendationTitle("engagement"),
				Description: fmt.Sprintf("Average session duration is %.1fs, below the %.1fs target.",
					metrics.AverageDuration, a.thresholds.LowEngagementDuration),
				Metrics: map[string]float64{
					"averageDuration": metrics.AverageDuration,
				},
				Recommendations: specificRecommendations("engagement"),
			}, 0.8))
	}

	// Interaction rule.
	if metrics.TotalViews > 0 {
		ratio := float64(metrics.TotalInteractions) / float64(metrics.TotalViews)
		if ratio < a.thresholds.LowInteractionRatio {
			insights = append(insights, a.newInsight(partnerID, report,
				model.InsightTypeRecommendation, model.InsightCategoryEngagement, model.InsightSeverityLow,
				model.InsightContent{
					Title: recommendationTitle("interaction"),
					Description: fmt.Sprintf("Only %.1f interactions per 10 views; visitors are mostly passive.",
						ratio*10),
					Metrics: map[string]float64{
						"interactionRatio":  ratio,
						"totalInteractions": float64(metrics.TotalInteractions),
					},
					Recommendations: specificRecommendations("interaction"),
				}, 0.7))
		}
	}

	return insights
}

func (a *InsightAnalyzer) newInsight(partnerID string, report *model.Report,
	insightType model.InsightType, category model.InsightCategory,
	severity model.InsightSeverity, content model.InsightContent,
	confidence float64,
) model.Insight {
	timeRange := report.TimeRange
	now := a.now().UTC()
	return model.Insight{
		ID:        uuid.New().String(),
		PartnerID: partnerID,
		Type:      insightType,
		Category:  category,
		Severity:  severity,
		Content:   content,
		Metadata: model.InsightMetadata{
			Source:     insightSource,
			Confidence: confidence,
			TimeRange:  &timeRange,
		},
		Status:    model.InsightStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// recommendationTitle maps a rule key to a display title. Unknown keys get
// a generic title rather than failing.
func recommendationTitle(kind string) string {
	switch kind {
	case "conversion":
		return "Improve Conversion Rate"
	case "engagement":
		return "Boost Visitor Engagement"
	case "interaction":
		return "Increase Interaction Rate"
	default:
		return "General Recommendations"
	}
}

// specificRecommendations returns the fixed action list for a rule key;
// unknown keys yield an empty list.
func specificRecommendations(kind string) []string {
	switch kind {
	case "conversion":
		return []string{
			"Review call-to-action placement and copy",
			"Simplify the conversion funnel",
			"Test alternative landing pages",
		}
	case "engagement":
		return []string{
			"Add interactive content to key pages",
			"Refresh stale or underperforming content",
			"Tighten page load times",
		}
	case "interaction":
		return []string{
			"Surface more interactive elements above the fold",
			"Add prompts that invite a first click",
		}
	default:
		return nil
	}
}
