package planning

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IndicatorRepository reads indicator definitions owned by the external
// planning CRUD
type IndicatorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Indicator, error)
}

// ActivityRepository reads activity definitions owned by the external
// planning CRUD
type ActivityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Activity, error)
}

// BudgetExecutionReader is the external budget-execution read API. It
// returns the summed budget amounts assigned to an activity.
type BudgetExecutionReader interface {
	ActivityBudget(ctx context.Context, activityID uuid.UUID) (decimal.Decimal, error)
}
