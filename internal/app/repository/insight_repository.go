package repository

import (
	"context"
	"errors"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrInsightNotFound signals that the requested insight does not exist.
	ErrInsightNotFound = errors.New("insight not found")
)

// InsightRepository defines the data access contract for insights.
type InsightRepository interface {
	Create(ctx context.Context, insight *model.Insight) error
	Find(ctx context.Context, partnerID string, filter model.InsightFilter) ([]model.Insight, error)
	FindByID(ctx context.Context, partnerID, id string) (*model.Insight, error)
	UpdateStatus(ctx context.Context, partnerID, id string, status model.InsightStatus) (*model.Insight, error)
	MetricsSummary(ctx context.Context, partnerID string) (*model.InsightMetricsSummary, error)
}

type insightRepository struct {
	db *gorm.DB
}

// NewInsightRepository returns a GORM-backed InsightRepository.
func NewInsightRepository(db *gorm.DB) InsightRepository {
	return &insightRepository{db: db}
}

func (r *insightRepository) Create(ctx context.Context, insight *model.Insight) error {
	return r.db.WithContext(ctx).Create(insight).Error
}

func (r *insightRepository) Find(ctx context.Context, partnerID string, filter model.InsightFilter) ([]model.Insight, error) {
	query := r.db.WithContext(ctx).Where("partner_id = ?", partnerID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if filter.MinConfidence != nil {
		query = query.Where("(metadata->>'confidence')::float >= ?", *filter.MinConfidence)
	}

	var result []model.Insight
	if err := query.Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *insightRepository) FindByID(ctx context.Context, partnerID, id string) (*model.Insight, error) {
	var insight model.Insight
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND id = ?", partnerID, id).
		First(&insight).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsightNotFound
		}
		return nil, err
	}
	return &insight, nil
}

func (r *insightRepository) UpdateStatus(ctx context.Context, partnerID, id string, status model.InsightStatus) (*model.Insight, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Insight{}).
		Where("partner_id = ? AND id = ?", partnerID, id).
		Update("status", status)

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInsightNotFound
	}

	var insight model.Insight
	if err := r.db.WithContext(ctx).
		Where("partner_id = ? AND id = ?", partnerID, id).
		First(&insight).Error; err != nil {
		return nil, err
	}
	return &insight, nil
}

type axisCount struct {
	Key   string
	Count int64
}

func (r *insightRepository) MetricsSummary(ctx context.Context, partnerID string) (*model.InsightMetricsSummary, error) {
	summary := &model.InsightMetricsSummary{
		ByStatus:   make(map[model.InsightStatus]int64),
		BySeverity: make(map[model.InsightSeverity]int64),
		ByCategory: make(map[model.InsightCategory]int64),
	}

	if err := r.db.WithContext(ctx).
		Model(&model.Insight{}).
		Where("partner_id = ?", partnerID).
		Count(&summary.Total).Error; err != nil {
		return nil, err
	}

	byStatus, err := r.countBy(ctx, partnerID, "status")
	if err != nil {
		return nil, err
	}
	for _, c := range byStatus {
		summary.ByStatus[model.InsightStatus(c.Key)] = c.Count
	}

	bySeverity, err := r.countBy(ctx, partnerID, "severity")
	if err != nil {
		return nil, err
	}
	for _, c := range bySeverity {
		summary.BySeverity[model.InsightSeverity(c.Key)] = c.Count
	}

	byCategory, err := r.countBy(ctx, partnerID, "category")
	if err != nil {
		return nil, err
	}
	for _, c := range byCategory {
		summary.ByCategory[model.InsightCategory(c.Key)] = c.Count
	}

	return summary, nil
}

func (r *insightRepository) countBy(ctx context.Context, partnerID, column string) ([]axisCount, error) {
	var counts []axisCount
	err := r.db.WithContext(ctx).
		Model(&model.Insight{}).
		Select(column+" AS key, COUNT(*) AS count").
		Where("partner_id = ?", partnerID).
		Group(column).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
