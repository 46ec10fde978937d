package planning

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/approval"
	"github.com/poa/backend/internal/domain/planning"
)

// ProgressService computes consolidated indicator progress from approved
// progress reports. Draft, submitted, rejected and withdrawn reports never
// contribute.
type ProgressService struct {
	indicators planning.IndicatorRepository
	reports    approval.ProgressReportRepository
}

// NewProgressService creates a new ProgressService
func NewProgressService(indicators planning.IndicatorRepository, reports approval.ProgressReportRepository) *ProgressService {
	return &ProgressService{
		indicators: indicators,
		reports:    reports,
	}
}

// IndicatorProgressResponse is the consolidated progress of an indicator
type IndicatorProgressResponse struct {
	IndicatorID     uuid.UUID       `json:"indicator_id"`
	IndicatorName   string          `json:"indicator_name"`
	IndicatorType   string          `json:"indicator_type"`
	MeasurementUnit string          `json:"measurement_unit"`
	AnnualTarget    decimal.Decimal `json:"annual_target"`
	TotalAchieved   decimal.Decimal `json:"total_achieved"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
	LatestPeriod    string          `json:"latest_period,omitempty"`
	ReportedPeriods int             `json:"reported_periods"`
}

// IndicatorProgress aggregates the indicator's approved reports, including
// reports attached to an activity the indicator is bound to
func (s *ProgressService) IndicatorProgress(ctx context.Context, indicatorID uuid.UUID) (*IndicatorProgressResponse, error) {
	indicator, err := s.indicators.FindByID(ctx, indicatorID)
	if err != nil {
		return nil, err
	}

	reports, err := s.reports.FindApprovedForIndicator(ctx, indicator.ID, indicator.ActivityID)
	if err != nil {
		return nil, err
	}

	progress := planning.AggregateProgress(indicator, reports)

	return &IndicatorProgressResponse{
		IndicatorID:     indicator.ID,
		IndicatorName:   indicator.Name,
		IndicatorType:   string(indicator.Type),
		MeasurementUnit: indicator.MeasurementUnit,
		AnnualTarget:    indicator.AnnualTarget,
		TotalAchieved:   progress.TotalAchieved,
		ProgressPercent: progress.ProgressPercent,
		LatestPeriod:    progress.LatestPeriod,
		ReportedPeriods: progress.ReportedPeriods,
	}, nil
}
