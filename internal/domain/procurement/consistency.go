package procurement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AlertSeverity classifies how close the essential procurement cost of an
// activity is to its allocated budget
type AlertSeverity string

const (
	SeverityNone   AlertSeverity = "NONE"
	SeverityLow    AlertSeverity = "LOW"
	SeverityMedium AlertSeverity = "MEDIUM"
	SeverityHigh   AlertSeverity = "HIGH"
)

// Severity thresholds on the cost/budget ratio
var (
	lowThreshold    = decimal.NewFromFloat(0.90)
	mediumThreshold = decimal.NewFromInt(1)
	highThreshold   = decimal.NewFromFloat(1.20)
)

// ConsistencyWarning is the advisory output of the budget-procurement
// check. Exceeding budget is a business signal, not a failure: the check
// never blocks a link operation and holds no persistent state.
type ConsistencyWarning struct {
	ActivityBudget     decimal.Decimal `json:"activity_budget"`
	TotalEssentialCost decimal.Decimal `json:"total_essential_cost"`
	CostRatio          decimal.Decimal `json:"cost_ratio"`
	Severity           AlertSeverity   `json:"severity"`
	Alerts             []string        `json:"alerts"`
	EssentialLinks     int             `json:"essential_links"`
}

// LinkedProcess pairs a link with the cost of its procurement process
type LinkedProcess struct {
	Link    ActivityProcurementLink
	Process Process
}

// CheckConsistency compares an activity's allocated budget with the summed
// cost of its essential procurement links. Non-essential links are excluded
// entirely. A zero budget with any positive essential cost is HIGH.
func CheckConsistency(activityBudget decimal.Decimal, linked []LinkedProcess) ConsistencyWarning {
	totalEssential := decimal.Zero
	essentialLinks := 0
	for _, lp := range linked {
		if !lp.Link.IsEssential {
			continue
		}
		totalEssential = totalEssential.Add(lp.Process.TotalCost)
		essentialLinks++
	}

	warning := ConsistencyWarning{
		ActivityBudget:     activityBudget,
		TotalEssentialCost: totalEssential,
		CostRatio:          decimal.Zero,
		Severity:           SeverityNone,
		Alerts:             []string{},
		EssentialLinks:     essentialLinks,
	}

	if activityBudget.IsZero() {
		if totalEssential.IsPositive() {
			warning.Severity = SeverityHigh
			warning.Alerts = append(warning.Alerts,
				"Essential procurement cost is positive but the activity has no allocated budget")
		}
		return warning
	}

	// Classify on the exact ratio; rounding is for reporting only, so a
	// value like 0.90004 still clears the 0.90 threshold.
	ratio := totalEssential.Div(activityBudget)
	costRatio := ratio.Round(4)
	warning.CostRatio = costRatio

	switch {
	case ratio.GreaterThan(highThreshold):
		warning.Severity = SeverityHigh
		warning.Alerts = append(warning.Alerts, fmt.Sprintf(
			"Essential procurement cost exceeds the activity budget by more than 20%% (ratio %s)", costRatio))
	case ratio.GreaterThan(mediumThreshold):
		warning.Severity = SeverityMedium
		warning.Alerts = append(warning.Alerts, fmt.Sprintf(
			"Essential procurement cost exceeds the activity budget (ratio %s)", costRatio))
	case ratio.GreaterThan(lowThreshold):
		warning.Severity = SeverityLow
		warning.Alerts = append(warning.Alerts, fmt.Sprintf(
			"Essential procurement cost is above 90%% of the activity budget (ratio %s)", costRatio))
	}

	return warning
}
