package approval

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/shared"
)

// ReportStatus represents the lifecycle status of a progress report
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "DRAFT"     // Created, not yet submitted
	ReportStatusSubmitted ReportStatus = "SUBMITTED" // Awaiting an approval decision
	ReportStatusApproved  ReportStatus = "APPROVED"  // Approved, counts toward indicator progress
	ReportStatusRejected  ReportStatus = "REJECTED"  // Rejected, may be superseded by a resubmission
	ReportStatusWithdrawn ReportStatus = "WITHDRAWN" // Withdrawn by the submitter before a decision
)

// IsValid checks if the status is a valid ReportStatus
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusSubmitted, ReportStatusApproved,
		ReportStatusRejected, ReportStatusWithdrawn:
		return true
	}
	return false
}

// String returns the string representation of ReportStatus
func (s ReportStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition can start from this status.
// REJECTED is terminal for the row itself; a resubmission creates a new row.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusApproved || s == ReportStatusRejected || s == ReportStatusWithdrawn
}

// CanSubmit returns true if the report can be submitted for approval
func (s ReportStatus) CanSubmit() bool {
	return s == ReportStatusDraft
}

// CanDecide returns true if the report can be approved or rejected
func (s ReportStatus) CanDecide() bool {
	return s == ReportStatusSubmitted
}

// CanWithdraw returns true if the report can be withdrawn by its submitter
func (s ReportStatus) CanWithdraw() bool {
	return s == ReportStatusSubmitted
}

// CanResubmit returns true if a superseding report may be created from this one
func (s ReportStatus) CanResubmit() bool {
	return s == ReportStatusRejected
}

// MinRejectionReasonLength is the minimum length of a rejection reason
const MinRejectionReasonLength = 10

// periodPattern matches quarter labels ("2025-Q1") and month labels ("2025-01")
var periodPattern = regexp.MustCompile(`^\d{4}-(Q[1-4]|0[1-9]|1[0-2])$`)

// ValidPeriod reports whether the period label has a recognized format
func ValidPeriod(period string) bool {
	return periodPattern.MatchString(period)
}

// ProgressReport is the aggregate root of the approval workflow.
// It is bound to exactly one of an activity or an indicator, carries the
// reported values for one period, and is mutated only through lifecycle
// transitions. Rows are never deleted; WITHDRAWN and REJECTED are retained
// for audit.
type ProgressReport struct {
	shared.BaseAggregateRoot
	ActivityID          *uuid.UUID      `json:"activity_id"`
	IndicatorID         *uuid.UUID      `json:"indicator_id"`
	DepartmentID        uuid.UUID       `json:"department_id"`
	Period              string          `json:"period"`
	ReportedByID        uuid.UUID       `json:"reported_by_id"`
	CurrentValue        decimal.Decimal `json:"current_value"`
	TargetValue         decimal.Decimal `json:"target_value"`
	ExecutionPercentage decimal.Decimal `json:"execution_percentage"`
	Status              ReportStatus    `json:"status"`
	RejectionReason     string          `json:"rejection_reason"`
	SubmittedAt         *time.Time      `json:"submitted_at"`
	DecidedAt           *time.Time      `json:"decided_at"`
	SupersedesID        *uuid.UUID      `json:"supersedes_id"`
}

// NewProgressReport creates a DRAFT progress report.
// Exactly one of activityID or indicatorID must be set.
func NewProgressReport(
	activityID *uuid.UUID,
	indicatorID *uuid.UUID,
	departmentID uuid.UUID,
	period string,
	reportedByID uuid.UUID,
	currentValue decimal.Decimal,
	targetValue decimal.Decimal,
) (*ProgressReport, error) {
	if (activityID == nil) == (indicatorID == nil) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Exactly one of activity or indicator must be referenced")
	}
	if departmentID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Department cannot be empty")
	}
	if !ValidPeriod(period) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Period must be a quarter (2025-Q1) or month (2025-01) label")
	}
	if reportedByID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Reporter user ID cannot be empty")
	}
	if currentValue.IsNegative() || targetValue.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Reported values cannot be negative")
	}

	return &ProgressReport{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		ActivityID:          activityID,
		IndicatorID:         indicatorID,
		DepartmentID:        departmentID,
		Period:              period,
		ReportedByID:        reportedByID,
		CurrentValue:        currentValue,
		TargetValue:         targetValue,
		ExecutionPercentage: ExecutionPercentage(currentValue, targetValue),
		Status:              ReportStatusDraft,
	}, nil
}

// ExecutionPercentage computes currentValue/targetValue*100 rounded to two
// decimals. The value is stored unclamped; a zero target yields zero.
func ExecutionPercentage(currentValue, targetValue decimal.Decimal) decimal.Decimal {
	if targetValue.IsZero() {
		return decimal.Zero
	}
	return currentValue.Div(targetValue).Mul(decimal.NewFromInt(100)).Round(2)
}

// Update changes the reported values while the report is still a draft
func (r *ProgressReport) Update(currentValue, targetValue decimal.Decimal) error {
	if r.Status != ReportStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot update report in %s status", r.Status))
	}
	if currentValue.IsNegative() || targetValue.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Reported values cannot be negative")
	}
	r.CurrentValue = currentValue
	r.TargetValue = targetValue
	r.ExecutionPercentage = ExecutionPercentage(currentValue, targetValue)
	r.Touch()
	return nil
}

// Submit moves the report from DRAFT to SUBMITTED and returns the ledger
// entry that must be appended within the same transaction as the status
// write. Whether the actor may submit (reporter or designated collaborator)
// is decided by the caller.
func (r *ProgressReport) Submit(actorID uuid.UUID) (*HistoryEntry, error) {
	if !r.Status.CanSubmit() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit report in %s status", r.Status))
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Actor user ID cannot be empty")
	}

	now := time.Now()
	r.Status = ReportStatusSubmitted
	r.SubmittedAt = &now
	r.UpdatedAt = now

	return NewHistoryEntry(r.ID, ActionSubmit, actorID, ""), nil
}

// Approve moves the report from SUBMITTED to APPROVED
func (r *ProgressReport) Approve(actorID uuid.UUID, comments string) (*HistoryEntry, error) {
	if !r.Status.CanDecide() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve report in %s status", r.Status))
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Actor user ID cannot be empty")
	}

	now := time.Now()
	r.Status = ReportStatusApproved
	r.DecidedAt = &now
	r.UpdatedAt = now

	return NewHistoryEntry(r.ID, ActionApprove, actorID, comments), nil
}

// Reject moves the report from SUBMITTED to REJECTED. The reason is
// mandatory and must carry at least MinRejectionReasonLength characters.
func (r *ProgressReport) Reject(actorID uuid.UUID, reason, comments string) (*HistoryEntry, error) {
	if !r.Status.CanDecide() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject report in %s status", r.Status))
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Actor user ID cannot be empty")
	}
	if len(strings.TrimSpace(reason)) < MinRejectionReasonLength {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Rejection reason must be at least %d characters", MinRejectionReasonLength))
	}

	now := time.Now()
	r.Status = ReportStatusRejected
	r.RejectionReason = reason
	r.DecidedAt = &now
	r.UpdatedAt = now

	return NewHistoryEntry(r.ID, ActionReject, actorID, comments), nil
}

// Withdraw moves the report from SUBMITTED to WITHDRAWN. Only the original
// submitter may withdraw, and only before a decision has been made.
func (r *ProgressReport) Withdraw(actorID uuid.UUID) (*HistoryEntry, error) {
	if !r.Status.CanWithdraw() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot withdraw report in %s status", r.Status))
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Actor user ID cannot be empty")
	}
	if actorID != r.ReportedByID {
		return nil, shared.NewDomainError("FORBIDDEN", "Not authorized to perform this action")
	}

	now := time.Now()
	r.Status = ReportStatusWithdrawn
	r.DecidedAt = &now
	r.UpdatedAt = now

	return NewHistoryEntry(r.ID, ActionWithdraw, actorID, ""), nil
}

// Resubmit creates a superseding report from a REJECTED one. The original
// row is left untouched; the new row starts SUBMITTED with its own ledger,
// beginning with a RESUBMIT entry, and points back via SupersedesID.
func (r *ProgressReport) Resubmit(actorID uuid.UUID, currentValue, targetValue decimal.Decimal) (*ProgressReport, *HistoryEntry, error) {
	if !r.Status.CanResubmit() {
		return nil, nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot resubmit report in %s status", r.Status))
	}
	if actorID == uuid.Nil {
		return nil, nil, shared.NewDomainError("VALIDATION_ERROR", "Actor user ID cannot be empty")
	}
	if currentValue.IsNegative() || targetValue.IsNegative() {
		return nil, nil, shared.NewDomainError("VALIDATION_ERROR", "Reported values cannot be negative")
	}

	now := time.Now()
	supersedes := r.ID
	revision := &ProgressReport{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		ActivityID:          r.ActivityID,
		IndicatorID:         r.IndicatorID,
		DepartmentID:        r.DepartmentID,
		Period:              r.Period,
		ReportedByID:        r.ReportedByID,
		CurrentValue:        currentValue,
		TargetValue:         targetValue,
		ExecutionPercentage: ExecutionPercentage(currentValue, targetValue),
		Status:              ReportStatusSubmitted,
		SubmittedAt:         &now,
		SupersedesID:        &supersedes,
	}

	return revision, NewHistoryEntry(revision.ID, ActionResubmit, actorID, ""), nil
}

// IsDecided returns true once an approval decision has been recorded
func (r *ProgressReport) IsDecided() bool {
	return r.Status == ReportStatusApproved || r.Status == ReportStatusRejected
}
