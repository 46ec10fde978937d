package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/poa/backend/internal/domain/approval"
	"github.com/poa/backend/internal/domain/shared"
)

// newMockProgressReportRepository creates a GormProgressReportRepository with a mocked SQL connection
func newMockProgressReportRepository(t *testing.T) (*GormProgressReportRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProgressReportRepository(gormDB), mock, mockDB
}

func newSubmittedReport(t *testing.T, reporterID uuid.UUID) *approval.ProgressReport {
	t.Helper()
	activityID := uuid.New()
	report, err := approval.NewProgressReport(
		&activityID, nil, uuid.New(), "2025-Q2", reporterID,
		decimal.NewFromInt(40), decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	_, err = report.Submit(reporterID)
	require.NoError(t, err)
	return report
}

func reportColumns() []string {
	return []string{
		"id", "version", "department_id", "period", "reported_by_id",
		"current_value", "target_value", "execution_percentage", "status",
	}
}

func TestGormProgressReportRepository_FindByID(t *testing.T) {
	t.Run("finds existing report", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		reportID := uuid.New()
		departmentID := uuid.New()

		rows := sqlmock.NewRows(reportColumns()).
			AddRow(reportID, 1, departmentID, "2025-Q1", uuid.New(),
				decimal.NewFromInt(40), decimal.NewFromInt(100), decimal.NewFromInt(40), "SUBMITTED")

		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(reportID, 1).
			WillReturnRows(rows)

		report, err := repo.FindByID(context.Background(), reportID)

		assert.NoError(t, err)
		assert.NotNil(t, report)
		assert.Equal(t, reportID, report.ID)
		assert.Equal(t, approval.ReportStatusSubmitted, report.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent report", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		reportID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(reportID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		report, err := repo.FindByID(context.Background(), reportID)

		assert.Error(t, err)
		assert.Nil(t, report)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgressReportRepository_FindAll(t *testing.T) {
	t.Run("filters by status and department", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		departmentID := uuid.New()
		status := approval.ReportStatusSubmitted

		rows := sqlmock.NewRows(reportColumns()).
			AddRow(uuid.New(), 1, departmentID, "2025-Q1", uuid.New(),
				decimal.NewFromInt(10), decimal.NewFromInt(50), decimal.NewFromInt(20), "SUBMITTED").
			AddRow(uuid.New(), 1, departmentID, "2025-Q2", uuid.New(),
				decimal.NewFromInt(30), decimal.NewFromInt(50), decimal.NewFromInt(60), "SUBMITTED")

		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE status = \$1 AND department_id = \$2 ORDER BY created_at DESC LIMIT \$3`).
			WithArgs(status, departmentID, 20).
			WillReturnRows(rows)

		filter := approval.ReportFilter{
			Filter:       shared.Filter{Page: 1, PageSize: 20},
			Status:       &status,
			DepartmentID: &departmentID,
		}
		reports, err := repo.FindAll(context.Background(), filter)

		assert.NoError(t, err)
		assert.Len(t, reports, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ignores unknown sort fields", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "progress_reports" ORDER BY created_at DESC LIMIT \$1`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(reportColumns()))

		filter := approval.ReportFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10, OrderBy: "status; DROP TABLE progress_reports"},
		}
		reports, err := repo.FindAll(context.Background(), filter)

		assert.NoError(t, err)
		assert.Empty(t, reports)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgressReportRepository_CountByStatus(t *testing.T) {
	t.Run("counts within a department", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		departmentID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "progress_reports" WHERE status = \$1 AND department_id = \$2`).
			WithArgs(approval.ReportStatusSubmitted, departmentID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		count, err := repo.CountByStatus(context.Background(), approval.ReportStatusSubmitted, &departmentID)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("counts across all departments", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "progress_reports" WHERE status = \$1`).
			WithArgs(approval.ReportStatusApproved).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		count, err := repo.CountByStatus(context.Background(), approval.ReportStatusApproved, nil)

		assert.NoError(t, err)
		assert.Equal(t, int64(12), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgressReportRepository_FindApprovedForIndicator(t *testing.T) {
	t.Run("matches indicator or activity references", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		indicatorID := uuid.New()
		activityID := uuid.New()

		rows := sqlmock.NewRows(reportColumns()).
			AddRow(uuid.New(), 2, uuid.New(), "2025-Q1", uuid.New(),
				decimal.NewFromInt(25), decimal.NewFromInt(100), decimal.NewFromInt(25), "APPROVED")

		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE status = \$1 AND \(indicator_id = \$2 OR activity_id = \$3\) ORDER BY decided_at ASC`).
			WithArgs(approval.ReportStatusApproved, indicatorID, activityID).
			WillReturnRows(rows)

		reports, err := repo.FindApprovedForIndicator(context.Background(), indicatorID, &activityID)

		assert.NoError(t, err)
		assert.Len(t, reports, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("matches indicator only when no activity is known", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		indicatorID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE status = \$1 AND indicator_id = \$2 ORDER BY decided_at ASC`).
			WithArgs(approval.ReportStatusApproved, indicatorID).
			WillReturnRows(sqlmock.NewRows(reportColumns()))

		reports, err := repo.FindApprovedForIndicator(context.Background(), indicatorID, nil)

		assert.NoError(t, err)
		assert.Empty(t, reports)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgressReportRepository_Create(t *testing.T) {
	t.Run("inserts a draft report", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		activityID := uuid.New()
		report, err := approval.NewProgressReport(
			&activityID, nil, uuid.New(), "2025-Q1", uuid.New(),
			decimal.NewFromInt(10), decimal.NewFromInt(100),
		)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "progress_reports"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Create(context.Background(), report)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgressReportRepository_Save(t *testing.T) {
	t.Run("bumps the version on success", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		activityID := uuid.New()
		report, err := approval.NewProgressReport(
			&activityID, nil, uuid.New(), "2025-Q1", uuid.New(),
			decimal.NewFromInt(10), decimal.NewFromInt(100),
		)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "progress_reports" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Save(context.Background(), report)

		assert.NoError(t, err)
		assert.Equal(t, 2, report.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when the version moved", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		activityID := uuid.New()
		report, err := approval.NewProgressReport(
			&activityID, nil, uuid.New(), "2025-Q1", uuid.New(),
			decimal.NewFromInt(10), decimal.NewFromInt(100),
		)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "progress_reports" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Save(context.Background(), report)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.Equal(t, 1, report.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgressReportRepository_SaveTransition(t *testing.T) {
	t.Run("writes the report and ledger entry atomically", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		approverID := uuid.New()
		report := newSubmittedReport(t, uuid.New())
		entry, err := report.Approve(approverID, "Looks complete")
		require.NoError(t, err)

		locked := sqlmock.NewRows(reportColumns()).
			AddRow(report.ID, report.Version, report.DepartmentID, report.Period, report.ReportedByID,
				report.CurrentValue, report.TargetValue, report.ExecutionPercentage, "SUBMITTED")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE NOWAIT`).
			WithArgs(report.ID, 1).
			WillReturnRows(locked)
		mock.ExpectExec(`UPDATE "progress_reports" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "approval_history_entries"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.SaveTransition(context.Background(), report, entry)

		assert.NoError(t, err)
		assert.Equal(t, 2, report.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("detects a stale version under the lock", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		report := newSubmittedReport(t, uuid.New())
		entry, err := report.Approve(uuid.New(), "")
		require.NoError(t, err)

		locked := sqlmock.NewRows(reportColumns()).
			AddRow(report.ID, report.Version+1, report.DepartmentID, report.Period, report.ReportedByID,
				report.CurrentValue, report.TargetValue, report.ExecutionPercentage, "APPROVED")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE NOWAIT`).
			WithArgs(report.ID, 1).
			WillReturnRows(locked)
		mock.ExpectRollback()

		err = repo.SaveTransition(context.Background(), report, entry)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.Equal(t, 1, report.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for a deleted report", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		report := newSubmittedReport(t, uuid.New())
		entry, err := report.Approve(uuid.New(), "")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE NOWAIT`).
			WithArgs(report.ID, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		err = repo.SaveTransition(context.Background(), report, entry)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProgressReportRepository_CreateRevision(t *testing.T) {
	newRevision := func(t *testing.T) (*approval.ProgressReport, *approval.ProgressReport, *approval.HistoryEntry) {
		t.Helper()
		reporterID := uuid.New()
		original := newSubmittedReport(t, reporterID)
		_, err := original.Reject(uuid.New(), "Values do not match the evidence", "")
		require.NoError(t, err)
		revision, entry, err := original.Resubmit(reporterID, decimal.NewFromInt(45), decimal.NewFromInt(100))
		require.NoError(t, err)
		return original, revision, entry
	}

	t.Run("inserts the revision and its ledger entry", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		original, revision, entry := newRevision(t)

		locked := sqlmock.NewRows(reportColumns()).
			AddRow(original.ID, original.Version, original.DepartmentID, original.Period, original.ReportedByID,
				original.CurrentValue, original.TargetValue, original.ExecutionPercentage, "REJECTED")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE NOWAIT`).
			WithArgs(original.ID, 1).
			WillReturnRows(locked)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "progress_reports" WHERE supersedes_id = \$1`).
			WithArgs(original.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "progress_reports"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "approval_history_entries"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CreateRevision(context.Background(), revision, entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a second revision of the same report", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		original, revision, entry := newRevision(t)

		locked := sqlmock.NewRows(reportColumns()).
			AddRow(original.ID, original.Version, original.DepartmentID, original.Period, original.ReportedByID,
				original.CurrentValue, original.TargetValue, original.ExecutionPercentage, "REJECTED")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE NOWAIT`).
			WithArgs(original.ID, 1).
			WillReturnRows(locked)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "progress_reports" WHERE supersedes_id = \$1`).
			WithArgs(original.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.CreateRevision(context.Background(), revision, entry)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when the superseded report left REJECTED", func(t *testing.T) {
		repo, mock, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		original, revision, entry := newRevision(t)

		locked := sqlmock.NewRows(reportColumns()).
			AddRow(original.ID, original.Version, original.DepartmentID, original.Period, original.ReportedByID,
				original.CurrentValue, original.TargetValue, original.ExecutionPercentage, "APPROVED")

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "progress_reports" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE NOWAIT`).
			WithArgs(original.ID, 1).
			WillReturnRows(locked)
		mock.ExpectRollback()

		err := repo.CreateRevision(context.Background(), revision, entry)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a revision without a superseded reference", func(t *testing.T) {
		repo, _, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		activityID := uuid.New()
		orphan, err := approval.NewProgressReport(
			&activityID, nil, uuid.New(), "2025-Q1", uuid.New(),
			decimal.NewFromInt(10), decimal.NewFromInt(100),
		)
		require.NoError(t, err)
		entry := approval.NewHistoryEntry(orphan.ID, approval.ActionResubmit, orphan.ReportedByID, "")

		err = repo.CreateRevision(context.Background(), orphan, entry)

		assert.Error(t, err)
	})
}

func TestGormProgressReportRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements ProgressReportRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockProgressReportRepository(t)
		defer mockDB.Close()

		var _ approval.ProgressReportRepository = repo
	})
}
