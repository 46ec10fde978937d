package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/poa/backend/internal/domain/approval"
	"github.com/poa/backend/internal/domain/shared"
	"github.com/poa/backend/internal/infrastructure/persistence/models"
)

// pgLockNotAvailable is the SQLSTATE returned when FOR UPDATE NOWAIT loses
const pgLockNotAvailable = "55P03"

// GormProgressReportRepository implements ProgressReportRepository using GORM
type GormProgressReportRepository struct {
	db *gorm.DB
}

// NewGormProgressReportRepository creates a new GormProgressReportRepository
func NewGormProgressReportRepository(db *gorm.DB) *GormProgressReportRepository {
	return &GormProgressReportRepository{db: db}
}

// FindByID finds a progress report by its ID
func (r *GormProgressReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*approval.ProgressReport, error) {
	var model models.ProgressReportModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds progress reports with filtering and pagination
func (r *GormProgressReportRepository) FindAll(ctx context.Context, filter approval.ReportFilter) ([]approval.ProgressReport, error) {
	var reportModels []models.ProgressReportModel
	query := r.db.WithContext(ctx).Model(&models.ProgressReportModel{})
	query = r.applyFilter(query, filter)

	if err := query.Find(&reportModels).Error; err != nil {
		return nil, err
	}
	reports := make([]approval.ProgressReport, len(reportModels))
	for i, model := range reportModels {
		reports[i] = *model.ToDomain()
	}
	return reports, nil
}

// Count counts progress reports matching the filter
func (r *GormProgressReportRepository) Count(ctx context.Context, filter approval.ReportFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProgressReportModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts reports in a status, optionally scoped to a department
func (r *GormProgressReportRepository) CountByStatus(ctx context.Context, status approval.ReportStatus, departmentID *uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProgressReportModel{}).
		Where("status = ?", status)
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindApprovedForIndicator returns APPROVED reports referencing the
// indicator directly or through the given activity
func (r *GormProgressReportRepository) FindApprovedForIndicator(ctx context.Context, indicatorID uuid.UUID, activityID *uuid.UUID) ([]approval.ProgressReport, error) {
	var reportModels []models.ProgressReportModel
	query := r.db.WithContext(ctx).Model(&models.ProgressReportModel{}).
		Where("status = ?", approval.ReportStatusApproved)

	if activityID != nil {
		query = query.Where("indicator_id = ? OR activity_id = ?", indicatorID, *activityID)
	} else {
		query = query.Where("indicator_id = ?", indicatorID)
	}

	if err := query.Order("decided_at ASC").Find(&reportModels).Error; err != nil {
		return nil, err
	}
	reports := make([]approval.ProgressReport, len(reportModels))
	for i, model := range reportModels {
		reports[i] = *model.ToDomain()
	}
	return reports, nil
}

// Create inserts a new DRAFT report
func (r *GormProgressReportRepository) Create(ctx context.Context, report *approval.ProgressReport) error {
	model := models.ProgressReportModelFromDomain(report)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save updates a DRAFT report with an optimistic version check
func (r *GormProgressReportRepository) Save(ctx context.Context, report *approval.ProgressReport) error {
	model := models.ProgressReportModelFromDomain(report)
	model.Version = report.Version + 1

	result := r.db.WithContext(ctx).Model(&models.ProgressReportModel{}).
		Where("id = ? AND version = ?", report.ID, report.Version).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	report.Version = model.Version
	return nil
}

// SaveTransition writes a status transition and appends its ledger entry in
// one transaction. The report row is locked with FOR UPDATE NOWAIT so a
// concurrent decision on the same report fails fast instead of queueing.
func (r *GormProgressReportRepository) SaveTransition(ctx context.Context, report *approval.ProgressReport, entry *approval.HistoryEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.ProgressReportModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
			First(&current, "id = ?", report.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			if isLockNotAvailable(err) {
				return shared.ErrConcurrencyConflict
			}
			return err
		}

		if current.Version != report.Version {
			return shared.ErrConcurrencyConflict
		}

		model := models.ProgressReportModelFromDomain(report)
		model.Version = report.Version + 1

		result := tx.Model(&models.ProgressReportModel{}).
			Where("id = ? AND version = ?", report.ID, report.Version).
			Select("*").Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		entryModel := models.ApprovalHistoryEntryModelFromDomain(entry)
		if err := tx.Create(entryModel).Error; err != nil {
			return fmt.Errorf("failed to append approval history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	report.Version++
	return nil
}

// CreateRevision inserts the superseding report of a resubmission with its
// opening RESUBMIT ledger entry. The superseded row is locked and verified
// to still be REJECTED and not yet superseded.
func (r *GormProgressReportRepository) CreateRevision(ctx context.Context, revision *approval.ProgressReport, entry *approval.HistoryEntry) error {
	if revision.SupersedesID == nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Revision must reference the report it supersedes")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var superseded models.ProgressReportModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
			First(&superseded, "id = ?", *revision.SupersedesID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			if isLockNotAvailable(err) {
				return shared.ErrConcurrencyConflict
			}
			return err
		}

		if superseded.Status != approval.ReportStatusRejected {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot resubmit report in %s status", superseded.Status))
		}

		var existing int64
		if err := tx.Model(&models.ProgressReportModel{}).
			Where("supersedes_id = ?", *revision.SupersedesID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Create(models.ProgressReportModelFromDomain(revision)).Error; err != nil {
			return err
		}
		return tx.Create(models.ApprovalHistoryEntryModelFromDomain(entry)).Error
	})
}

func (r *GormProgressReportRepository) applyFilter(query *gorm.DB, filter approval.ReportFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Sorting goes through a whitelist to keep user input out of SQL
	sortField := ValidateSortField(filter.OrderBy, ProgressReportSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	return query
}

func (r *GormProgressReportRepository) applyFilterWithoutPagination(query *gorm.DB, filter approval.ReportFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.ActivityID != nil {
		query = query.Where("activity_id = ?", *filter.ActivityID)
	}
	if filter.IndicatorID != nil {
		query = query.Where("indicator_id = ?", *filter.IndicatorID)
	}
	if filter.ReportedByID != nil {
		query = query.Where("reported_by_id = ?", *filter.ReportedByID)
	}
	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}
	return query
}

// isLockNotAvailable reports whether the error is Postgres refusing a
// NOWAIT row lock
func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgLockNotAvailable
	}
	return false
}
