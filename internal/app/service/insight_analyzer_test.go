package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/TML-4PM/Partner-Portal/config"
	"github.com/TML-4PM/Partner-Portal/internal/app/model"
)

type mockInsightRepository struct {
	createFn  func(ctx context.Context, insight *model.Insight) error
	findFn    func(ctx context.Context, partnerID string, filter model.InsightFilter) ([]model.Insight, error)
	byIDFn    func(ctx context.Context, partnerID, id string) (*model.Insight, error)
	updateFn  func(ctx context.Context, partnerID, id string, status model.InsightStatus) (*model.Insight, error)
	summaryFn func(ctx context.Context, partnerID string) (*model.InsightMetricsSummary, error)
}

func (m *mockInsightRepository) Create(ctx context.Context, insight *model.Insight) error {
	if m.createFn != nil {
		return m.createFn(ctx, insight)
	}
	return nil
}

func (m *mockInsightRepository) Find(ctx context.Context, partnerID string, filter model.InsightFilter) ([]model.Insight, error) {
	if m.findFn != nil {
		return m.findFn(ctx, partnerID, filter)
	}
	return nil, nil
}

func (m *mockInsightRepository) FindByID(ctx context.Context, partnerID, id string) (*model.Insight, error) {
	if m.byIDFn != nil {
		return m.byIDFn(ctx, partnerID, id)
	}
	return nil, nil
}

func (m *mockInsightRepository) UpdateStatus(ctx context.Context, partnerID, id string, status model.InsightStatus) (*model.Insight, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, partnerID, id, status)
	}
	return nil, nil
}

func (m *mockInsightRepository) MetricsSummary(ctx context.Context, partnerID string) (*model.InsightMetricsSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, partnerID)
	}
	return nil, nil
}

func defaultThresholds() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		LowConversionRate:      2.0,
		CriticalConversionRate: 1.0,
		LowEngagementDuration:  30.0,
		LowInteractionRatio:    0.5,
	}
}

func reportWithMetrics(metrics model.ReportMetrics) *model.Report {
	return &model.Report{
		PartnerID: "partner-1",
		TimeRange: testRange(),
		Metrics:   metrics,
	}
}

func TestInsightAnalyzer_ZeroConversionEmitsHighSeverity(t *testing.T) {
	analyzer := NewInsightAnalyzer(nil, &mockInsightRepository{}, defaultThresholds())

	// 100 views over a day, no conversions.
	report := reportWithMetrics(model.ReportMetrics{
		TotalViews:        100,
		TotalInteractions: 80,
		ConversionRate:    0,
		AverageDuration:   45,
	})

	insights, err := analyzer.Analyze(context.Background(), "partner-1", report)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	var conversion *model.Insight
	for i := range insights {
		if insights[i].Category == model.InsightCategoryConversion {
			conversion = &insights[i]
		}
	}
	if conversion == nil {
		t.Fatal("expected a conversion insight")
	}
	if conversion.Type != model.InsightTypeTrend {
		t.Fatalf("expected TREND, got %s", conversion.Type)
	}
	if conversion.Severity != model.InsightSeverityHigh {
		t.Fatalf("expected HIGH severity for rate 0, got %s", conversion.Severity)
	}
	if conversion.Status != model.InsightStatusActive {
		t.Fatalf("expected initial ACTIVE status, got %s", conversion.Status)
	}
}

func TestInsightAnalyzer_MediumSeverityBetweenThresholds(t *testing.T) {
	analyzer := NewInsightAnalyzer(nil, &mockInsightRepository{}, defaultThresholds())

	report := reportWithMetrics(model.ReportMetrics{
		TotalViews:      1000,
		ConversionRate:  1.5,
		AverageDuration: 45,
	})

	insights, err := analyzer.Analyze(context.Background(), "partner-1", report)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	found := false
	for _, insight := range insights {
		if insight.Category == model.InsightCategoryConversion {
			found = true
			if insight.Severity != model.InsightSeverityMedium {
				t.Fatalf("expected MEDIUM severity for rate 1.5, got %s", insight.Severity)
			}
			if !strings.Contains(insight.Content.Description, "1.5") {
				t.Fatalf("expected one-decimal metric in description: %s", insight.Content.Description)
			}
		}
	}
	if !found {
		t.Fatal("expected a conversion insight")
	}
}

func TestInsightAnalyzer_RuleOrderIsFixed(t *testing.T) {
	analyzer := NewInsightAnalyzer(nil, &mockInsightRepository{}, defaultThresholds())

	// Triggers all three rules.
	report := reportWithMetrics(model.ReportMetrics{
		TotalViews:        100,
		TotalInteractions: 10,
		ConversionRate:    0.5,
		AverageDuration:   5,
	})

	insights, err := analyzer.Analyze(context.Background(), "partner-1", report)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(insights) != 3 {
		t.Fatalf("expected 3 insights, got %d", len(insights))
	}
	if insights[0].Category != model.InsightCategoryConversion {
		t.Fatalf("expected conversion rule first, got %s", insights[0].Category)
	}
	if insights[1].Category != model.InsightCategoryEngagement || insights[1].Type != model.InsightTypeTrend {
		t.Fatalf("expected engagement trend second, got %s/%s", insights[1].Type, insights[1].Category)
	}
	if insights[2].Type != model.InsightTypeRecommendation || insights[2].Severity != model.InsightSeverityLow {
		t.Fatalf("expected low-severity recommendation third, got %s/%s", insights[2].Type, insights[2].Severity)
	}
	if len(insights[2].Content.Recommendations) == 0 {
		t.Fatal("expected interaction recommendations")
	}
}

func TestInsightAnalyzer_HealthyReportEmitsNothing(t *testing.T) {
	created := 0
	repo := &mockInsightRepository{
		createFn: func(ctx context.Context, insight *model.Insight) error {
			created++
			return nil
		},
	}
	analyzer := NewInsightAnalyzer(nil, repo, defaultThresholds())

	report := reportWithMetrics(model.ReportMetrics{
		TotalViews:        100,
		TotalInteractions: 90,
		ConversionRate:    5,
		AverageDuration:   120,
	})

	insights, err := analyzer.Analyze(context.Background(), "partner-1", report)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(insights) != 0 || created != 0 {
		t.Fatalf("expected no insights, got %d (created %d)", len(insights), created)
	}
}

func TestInsightAnalyzer_ContentsStableAcrossRuns(t *testing.T) {
	analyzer := NewInsightAnalyzer(nil, &mockInsightRepository{}, defaultThresholds())
	report := reportWithMetrics(model.ReportMetrics{
		TotalViews:     100,
		ConversionRate: 0.5,
	})

	first, err := analyzer.Analyze(context.Background(), "partner-1", report)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	second, err := analyzer.Analyze(context.Background(), "partner-1", report)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected same insight count, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content.Title != second[i].Content.Title ||
			first[i].Content.Description != second[i].Content.Description {
			t.Fatalf("expected identical contents across runs:\n%+v\n%+v", first[i].Content, second[i].Content)
		}
		if first[i].ID == second[i].ID {
			t.Fatal("expected fresh ids per run")
		}
	}
}

func TestInsightAnalyzer_PersistenceFailurePropagates(t *testing.T) {
	repo := &mockInsightRepository{
		createFn: func(ctx context.Context, insight *model.Insight) error {
			return fmt.Errorf("database error")
		},
	}
	analyzer := NewInsightAnalyzer(nil, repo, defaultThresholds())

	report := reportWithMetrics(model.ReportMetrics{
		TotalViews:     100,
		ConversionRate: 0.5,
	})

	_, err := analyzer.Analyze(context.Background(), "partner-1", report)
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
}

func TestRecommendationTitle_UnknownKind(t *testing.T) {
	if got := recommendationTitle("unknown"); got != "General Recommendations" {
		t.Fatalf("expected generic title, got %q", got)
	}
}

func TestSpecificRecommendations(t *testing.T) {
	anchors := map[string]string{
		"conversion":  "call-to-action",
		"engagement":  "content",
		"interaction": "elements",
	}
	for kind, anchor := range anchors {
		recs := specificRecommendations(kind)
		if len(recs) == 0 {
			t.Fatalf("expected recommendations for %s", kind)
		}
		found := false
		for _, rec := range recs {
			if strings.Contains(rec, anchor) {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %q recommendation for %s, got %v", anchor, kind, recs)
		}
	}
	if recs := specificRecommendations("unknown"); len(recs) != 0 {
		t.Fatalf("expected empty list for unknown kind, got %v", recs)
	}
}
