package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/poa/backend/internal/domain/planning"
	"github.com/poa/backend/internal/domain/shared"
	"github.com/poa/backend/internal/infrastructure/persistence/models"
)

// GormIndicatorRepository implements IndicatorRepository using GORM
type GormIndicatorRepository struct {
	db *gorm.DB
}

// NewGormIndicatorRepository creates a new GormIndicatorRepository
func NewGormIndicatorRepository(db *gorm.DB) *GormIndicatorRepository {
	return &GormIndicatorRepository{db: db}
}

// FindByID finds an indicator by its ID
func (r *GormIndicatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*planning.Indicator, error) {
	var model models.IndicatorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormActivityRepository implements ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// FindByID finds an activity by its ID
func (r *GormActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*planning.Activity, error) {
	var model models.ActivityModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GormBudgetExecutionReader implements BudgetExecutionReader over the
// budget_allocations table replicated from the budget execution module
type GormBudgetExecutionReader struct {
	db *gorm.DB
}

// NewGormBudgetExecutionReader creates a new GormBudgetExecutionReader
func NewGormBudgetExecutionReader(db *gorm.DB) *GormBudgetExecutionReader {
	return &GormBudgetExecutionReader{db: db}
}

// ActivityBudget sums the budget amounts assigned to an activity. An
// activity with no allocations has a zero budget, not an error.
func (r *GormBudgetExecutionReader) ActivityBudget(ctx context.Context, activityID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&models.BudgetAllocationModel{}).
		Select("SUM(amount)").
		Where("activity_id = ?", activityID).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
