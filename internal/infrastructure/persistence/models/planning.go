package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/planning"
)

// IndicatorModel is the persistence model for the indicator read model.
// Rows are written by the external planning CRUD; this backend only reads.
type IndicatorModel struct {
	BaseModel
	Type            planning.IndicatorType `gorm:"type:varchar(10);not null"`
	Name            string                 `gorm:"type:varchar(300);not null"`
	MeasurementUnit string                 `gorm:"type:varchar(50)"`
	Baseline        decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	AnnualTarget    decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Q1Target        decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Q2Target        decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Q3Target        decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Q4Target        decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	StrategicAxisID *uuid.UUID             `gorm:"type:uuid;index"`
	ObjectiveID     *uuid.UUID             `gorm:"type:uuid;index"`
	ProductID       *uuid.UUID             `gorm:"type:uuid;index"`
	ActivityID      *uuid.UUID             `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (IndicatorModel) TableName() string {
	return "indicators"
}

// ToDomain converts the persistence model to a domain Indicator
func (m *IndicatorModel) ToDomain() *planning.Indicator {
	return &planning.Indicator{
		BaseEntity:      m.BaseModel.ToDomain(),
		Type:            m.Type,
		Name:            m.Name,
		MeasurementUnit: m.MeasurementUnit,
		Baseline:        m.Baseline,
		AnnualTarget:    m.AnnualTarget,
		Q1Target:        m.Q1Target,
		Q2Target:        m.Q2Target,
		Q3Target:        m.Q3Target,
		Q4Target:        m.Q4Target,
		StrategicAxisID: m.StrategicAxisID,
		ObjectiveID:     m.ObjectiveID,
		ProductID:       m.ProductID,
		ActivityID:      m.ActivityID,
	}
}

// ActivityModel is the persistence model for the activity read model
type ActivityModel struct {
	BaseModel
	Name         string    `gorm:"type:varchar(300);not null"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Activity
func (m *ActivityModel) ToDomain() *planning.Activity {
	return &planning.Activity{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		DepartmentID: m.DepartmentID,
	}
}

// BudgetAllocationModel is the persistence model for budget amounts
// assigned to activities, replicated from the budget execution module
type BudgetAllocationModel struct {
	BaseModel
	ActivityID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (BudgetAllocationModel) TableName() string {
	return "budget_allocations"
}
