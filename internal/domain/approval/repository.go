package approval

import (
	"context"

	"github.com/google/uuid"

	"github.com/poa/backend/internal/domain/shared"
)

// ReportFilter defines filtering options for report list queries
type ReportFilter struct {
	shared.Filter
	Status       *ReportStatus
	DepartmentID *uuid.UUID
	ActivityID   *uuid.UUID
	IndicatorID  *uuid.UUID
	ReportedByID *uuid.UUID
	Period       string
}

// ProgressReportRepository persists ProgressReport aggregates.
//
// SaveTransition and CreateRevision are the only write paths after a report
// leaves DRAFT: both execute atomically and append the ledger entry in the
// same transaction as the status write, so no entry is ever recorded for a
// transition that did not durably commit.
type ProgressReportRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProgressReport, error)
	FindAll(ctx context.Context, filter ReportFilter) ([]ProgressReport, error)
	Count(ctx context.Context, filter ReportFilter) (int64, error)
	CountByStatus(ctx context.Context, status ReportStatus, departmentID *uuid.UUID) (int64, error)

	// FindApprovedForIndicator returns APPROVED reports referencing the
	// indicator directly or through the given activity. Used by the
	// aggregator; read-committed, no locks.
	FindApprovedForIndicator(ctx context.Context, indicatorID uuid.UUID, activityID *uuid.UUID) ([]ProgressReport, error)

	// Create inserts a new DRAFT report
	Create(ctx context.Context, report *ProgressReport) error

	// Save updates a DRAFT report with optimistic version check
	Save(ctx context.Context, report *ProgressReport) error

	// SaveTransition writes a status transition and its ledger entry in one
	// transaction holding an exclusive row lock on the report. A concurrent
	// transition on the same report fails with CONCURRENCY_CONFLICT.
	SaveTransition(ctx context.Context, report *ProgressReport, entry *HistoryEntry) error

	// CreateRevision inserts the superseding report of a resubmission with
	// its opening RESUBMIT ledger entry, verifying inside the transaction
	// that the superseded report is still REJECTED and not yet superseded.
	CreateRevision(ctx context.Context, revision *ProgressReport, entry *HistoryEntry) error
}

// ApprovalHistoryRepository is the append-only ledger keyed by report id.
// No update or delete operation exists.
type ApprovalHistoryRepository interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]HistoryEntry, error)
}
