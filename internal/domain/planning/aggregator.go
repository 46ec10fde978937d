package planning

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/approval"
)

// IndicatorProgress is the derived progress of an indicator toward its
// annual target. It is read-only output; indicator rows are never mutated
// and the percentage is stored unclamped, leaving any capping to
// presentation-layer consumers.
type IndicatorProgress struct {
	TotalAchieved   decimal.Decimal `json:"total_achieved"`
	ProgressPercent decimal.Decimal `json:"progress_percent"`
	LatestPeriod    string          `json:"latest_period"`
	ReportedPeriods int             `json:"reported_periods"`
}

// AggregateProgress computes an indicator's progress from the APPROVED
// reports tied to it, grouped by period.
//
// If several APPROVED reports exist for one period (via the resubmission
// chain), the one with the latest decision timestamp is authoritative and
// the rest are ignored. Reports are not summed across periods: they carry
// point-in-time progress toward the annual target, so totalAchieved is the
// authoritative value of the most recent reported period.
func AggregateProgress(indicator *Indicator, reports []approval.ProgressReport) IndicatorProgress {
	authoritative := make(map[string]*approval.ProgressReport)
	for i := range reports {
		r := &reports[i]
		if r.Status != approval.ReportStatusApproved || r.DecidedAt == nil {
			continue
		}
		current, ok := authoritative[r.Period]
		if !ok || r.DecidedAt.After(*current.DecidedAt) {
			authoritative[r.Period] = r
		}
	}

	if len(authoritative) == 0 {
		return IndicatorProgress{
			TotalAchieved:   decimal.Zero,
			ProgressPercent: decimal.Zero,
		}
	}

	periods := make([]string, 0, len(authoritative))
	for period := range authoritative {
		periods = append(periods, period)
	}
	// Period labels (YYYY-Qn, YYYY-MM) order chronologically as strings
	// within a year; quarters and months are never mixed for one indicator.
	sort.Strings(periods)
	latest := periods[len(periods)-1]

	totalAchieved := authoritative[latest].CurrentValue
	progressPercent := decimal.Zero
	if !indicator.AnnualTarget.IsZero() {
		progressPercent = totalAchieved.Div(indicator.AnnualTarget).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return IndicatorProgress{
		TotalAchieved:   totalAchieved,
		ProgressPercent: progressPercent,
		LatestPeriod:    latest,
		ReportedPeriods: len(authoritative),
	}
}
