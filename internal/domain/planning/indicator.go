package planning

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/shared"
)

// IndicatorType distinguishes product and result indicators
type IndicatorType string

const (
	IndicatorTypeProduct IndicatorType = "PRODUCT"
	IndicatorTypeResult  IndicatorType = "RESULT"
)

// IsValid checks if the type is a valid IndicatorType
func (t IndicatorType) IsValid() bool {
	return t == IndicatorTypeProduct || t == IndicatorTypeResult
}

// Indicator is a read model owned by the external planning CRUD. It is
// bound to exactly one level of the POA hierarchy (strategic axis,
// objective, product or activity) and read-only from this subsystem except
// for the derived progress it exposes.
type Indicator struct {
	shared.BaseEntity
	Type            IndicatorType   `json:"type"`
	Name            string          `json:"name"`
	MeasurementUnit string          `json:"measurement_unit"`
	Baseline        decimal.Decimal `json:"baseline"`
	AnnualTarget    decimal.Decimal `json:"annual_target"`
	Q1Target        decimal.Decimal `json:"q1_target"`
	Q2Target        decimal.Decimal `json:"q2_target"`
	Q3Target        decimal.Decimal `json:"q3_target"`
	Q4Target        decimal.Decimal `json:"q4_target"`
	StrategicAxisID *uuid.UUID      `json:"strategic_axis_id"`
	ObjectiveID     *uuid.UUID      `json:"objective_id"`
	ProductID       *uuid.UUID      `json:"product_id"`
	ActivityID      *uuid.UUID      `json:"activity_id"`
}

// LevelReferenceCount returns how many hierarchy levels the indicator
// references. A well-formed indicator references exactly one.
func (i *Indicator) LevelReferenceCount() int {
	n := 0
	for _, ref := range []*uuid.UUID{i.StrategicAxisID, i.ObjectiveID, i.ProductID, i.ActivityID} {
		if ref != nil {
			n++
		}
	}
	return n
}

// Activity is a read model owned by the external planning CRUD. Its
// allocated budget is read through the BudgetExecutionReader contract.
type Activity struct {
	shared.BaseEntity
	Name         string    `json:"name"`
	DepartmentID uuid.UUID `json:"department_id"`
}
