package approval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/approval"
	"github.com/poa/backend/internal/domain/planning"
	"github.com/poa/backend/internal/domain/shared"
)

// Service provides application-level progress report lifecycle operations.
// Every operation takes the acting user explicitly; nothing is read from
// ambient state.
type Service struct {
	reports    approval.ProgressReportRepository
	history    approval.ApprovalHistoryRepository
	activities planning.ActivityRepository
	indicators planning.IndicatorRepository
	authz      approval.AuthorizationService
}

// NewService creates a new approval Service
func NewService(
	reports approval.ProgressReportRepository,
	history approval.ApprovalHistoryRepository,
	activities planning.ActivityRepository,
	indicators planning.IndicatorRepository,
	authz approval.AuthorizationService,
) *Service {
	return &Service{
		reports:    reports,
		history:    history,
		activities: activities,
		indicators: indicators,
		authz:      authz,
	}
}

// ===================== DTOs =====================

// ReportResponse represents a progress report in API responses
type ReportResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ActivityID          *uuid.UUID      `json:"activity_id,omitempty"`
	IndicatorID         *uuid.UUID      `json:"indicator_id,omitempty"`
	DepartmentID        uuid.UUID       `json:"department_id"`
	Period              string          `json:"period"`
	ReportedByID        uuid.UUID       `json:"reported_by_id"`
	CurrentValue        decimal.Decimal `json:"current_value"`
	TargetValue         decimal.Decimal `json:"target_value"`
	ExecutionPercentage decimal.Decimal `json:"execution_percentage"`
	Status              string          `json:"status"`
	RejectionReason     string          `json:"rejection_reason,omitempty"`
	SubmittedAt         *time.Time      `json:"submitted_at,omitempty"`
	DecidedAt           *time.Time      `json:"decided_at,omitempty"`
	SupersedesID        *uuid.UUID      `json:"supersedes_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// HistoryEntryResponse represents a ledger entry in API responses
type HistoryEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	ReportID   uuid.UUID `json:"report_id"`
	Action     string    `json:"action"`
	ActionByID uuid.UUID `json:"action_by_id"`
	Comments   string    `json:"comments,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransitionResponse pairs the updated report with the ledger entry the
// transition recorded
type TransitionResponse struct {
	Report *ReportResponse       `json:"report"`
	Entry  *HistoryEntryResponse `json:"entry"`
}

// CreateReportRequest represents a request to create a DRAFT report
type CreateReportRequest struct {
	ActivityID   *uuid.UUID
	IndicatorID  *uuid.UUID
	Period       string
	CurrentValue decimal.Decimal
	TargetValue  decimal.Decimal
}

// UpdateReportRequest represents a request to update a DRAFT report
type UpdateReportRequest struct {
	CurrentValue decimal.Decimal
	TargetValue  decimal.Decimal
}

// ResubmitRequest carries the corrected values of a resubmission. Nil
// values keep the rejected report's figures.
type ResubmitRequest struct {
	CurrentValue *decimal.Decimal
	TargetValue  *decimal.Decimal
}

// ReportListFilter defines filtering options for report list queries
type ReportListFilter struct {
	Status      string
	ActivityID  *uuid.UUID
	IndicatorID *uuid.UUID
	Period      string
	Page        int
	PageSize    int
	OrderBy     string
	OrderDir    string
}

// StatsSummary is the approval workload summary for the caller's scope
type StatsSummary struct {
	Pending      int64           `json:"pending"`
	Approved     int64           `json:"approved"`
	Rejected     int64           `json:"rejected"`
	ApprovalRate decimal.Decimal `json:"approval_rate"`
}

// StatsResponse wraps the summary block
type StatsResponse struct {
	Summary StatsSummary `json:"summary"`
}

// ===================== Lifecycle operations =====================

// CreateReport creates a DRAFT report for the acting user. The owning
// department is resolved from the referenced activity, or from the
// indicator's activity when the indicator is activity-bound; indicators
// bound higher in the hierarchy fall back to the actor's department.
func (s *Service) CreateReport(ctx context.Context, actor approval.Actor, req CreateReportRequest) (*ReportResponse, error) {
	departmentID, err := s.resolveDepartment(ctx, actor, req.ActivityID, req.IndicatorID)
	if err != nil {
		return nil, err
	}

	report, err := approval.NewProgressReport(
		req.ActivityID,
		req.IndicatorID,
		departmentID,
		req.Period,
		actor.ID,
		req.CurrentValue,
		req.TargetValue,
	)
	if err != nil {
		return nil, err
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	return toReportResponse(report), nil
}

// GetReport returns a report by id
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*ReportResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReportResponse(report), nil
}

// UpdateReport changes a DRAFT report's values. Only the reporter may edit.
func (s *Service) UpdateReport(ctx context.Context, actor approval.Actor, id uuid.UUID, req UpdateReportRequest) (*ReportResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ReportedByID != actor.ID {
		return nil, shared.ErrForbidden
	}
	if err := report.Update(req.CurrentValue, req.TargetValue); err != nil {
		return nil, err
	}
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, err
	}
	return toReportResponse(report), nil
}

// ListReports lists reports with filtering and pagination
func (s *Service) ListReports(ctx context.Context, filter ReportListFilter) ([]ReportResponse, int64, error) {
	domainFilter := s.toDomainFilter(filter)

	reports, err := s.reports.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reports.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return toReportResponses(reports), total, nil
}

// Submit moves a DRAFT report to SUBMITTED. Allowed for the reporter or a
// designated collaborator holding the submit capability for the report's
// department.
func (s *Service) Submit(ctx context.Context, actor approval.Actor, id uuid.UUID) (*TransitionResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.ReportedByID != actor.ID {
		if err := s.requireCapability(ctx, actor, approval.CapabilitySubmitReport, report.DepartmentID); err != nil {
			return nil, err
		}
	}

	entry, err := report.Submit(actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.reports.SaveTransition(ctx, report, entry); err != nil {
		return nil, err
	}

	return toTransitionResponse(report, entry), nil
}

// Approve moves a SUBMITTED report to APPROVED. Requires the approve
// capability scoped to the report's owning department.
func (s *Service) Approve(ctx context.Context, actor approval.Actor, id uuid.UUID, comments string) (*TransitionResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCapability(ctx, actor, approval.CapabilityApproveReport, report.DepartmentID); err != nil {
		return nil, err
	}

	entry, err := report.Approve(actor.ID, comments)
	if err != nil {
		return nil, err
	}
	if err := s.reports.SaveTransition(ctx, report, entry); err != nil {
		return nil, err
	}

	return toTransitionResponse(report, entry), nil
}

// Reject moves a SUBMITTED report to REJECTED. Same capability scope as
// Approve; the rejection reason is mandatory.
func (s *Service) Reject(ctx context.Context, actor approval.Actor, id uuid.UUID, reason, comments string) (*TransitionResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCapability(ctx, actor, approval.CapabilityApproveReport, report.DepartmentID); err != nil {
		return nil, err
	}

	entry, err := report.Reject(actor.ID, reason, comments)
	if err != nil {
		return nil, err
	}
	if err := s.reports.SaveTransition(ctx, report, entry); err != nil {
		return nil, err
	}

	return toTransitionResponse(report, entry), nil
}

// Withdraw moves a SUBMITTED report to WITHDRAWN; only the submitter may
// withdraw, and only before a decision.
func (s *Service) Withdraw(ctx context.Context, actor approval.Actor, id uuid.UUID) (*TransitionResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry, err := report.Withdraw(actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.reports.SaveTransition(ctx, report, entry); err != nil {
		return nil, err
	}

	return toTransitionResponse(report, entry), nil
}

// Resubmit creates a superseding report from a REJECTED one. The rejected
// row is never touched; the revision starts its own ledger with RESUBMIT.
func (s *Service) Resubmit(ctx context.Context, actor approval.Actor, id uuid.UUID, req ResubmitRequest) (*TransitionResponse, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.ReportedByID != actor.ID {
		if err := s.requireCapability(ctx, actor, approval.CapabilitySubmitReport, report.DepartmentID); err != nil {
			return nil, err
		}
	}

	currentValue := report.CurrentValue
	targetValue := report.TargetValue
	if req.CurrentValue != nil {
		currentValue = *req.CurrentValue
	}
	if req.TargetValue != nil {
		targetValue = *req.TargetValue
	}

	revision, entry, err := report.Resubmit(actor.ID, currentValue, targetValue)
	if err != nil {
		return nil, err
	}
	if err := s.reports.CreateRevision(ctx, revision, entry); err != nil {
		return nil, err
	}

	return toTransitionResponse(revision, entry), nil
}

// ===================== Queries =====================

// PendingReports lists SUBMITTED reports visible to the actor's approval
// scope: the actor's department, or all departments with the global
// override.
func (s *Service) PendingReports(ctx context.Context, actor approval.Actor, filter ReportListFilter) ([]ReportResponse, int64, error) {
	domainFilter := s.toDomainFilter(filter)
	status := approval.ReportStatusSubmitted
	domainFilter.Status = &status
	if scope := s.approvalScope(ctx, actor); scope != nil {
		domainFilter.DepartmentID = scope
	}

	reports, err := s.reports.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reports.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return toReportResponses(reports), total, nil
}

// MyReports lists reports created by the acting user
func (s *Service) MyReports(ctx context.Context, actor approval.Actor, filter ReportListFilter) ([]ReportResponse, int64, error) {
	domainFilter := s.toDomainFilter(filter)
	reporter := actor.ID
	domainFilter.ReportedByID = &reporter

	reports, err := s.reports.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reports.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return toReportResponses(reports), total, nil
}

// History returns the ordered ledger of a report
func (s *Service) History(ctx context.Context, reportID uuid.UUID) ([]HistoryEntryResponse, error) {
	if _, err := s.reports.FindByID(ctx, reportID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	responses := make([]HistoryEntryResponse, len(entries))
	for i := range entries {
		responses[i] = *toHistoryEntryResponse(&entries[i])
	}
	return responses, nil
}

// Stats summarizes the approval workload within the actor's scope
func (s *Service) Stats(ctx context.Context, actor approval.Actor) (*StatsResponse, error) {
	scope := s.approvalScope(ctx, actor)

	pending, err := s.reports.CountByStatus(ctx, approval.ReportStatusSubmitted, scope)
	if err != nil {
		return nil, err
	}
	approved, err := s.reports.CountByStatus(ctx, approval.ReportStatusApproved, scope)
	if err != nil {
		return nil, err
	}
	rejected, err := s.reports.CountByStatus(ctx, approval.ReportStatusRejected, scope)
	if err != nil {
		return nil, err
	}

	rate := decimal.Zero
	if decided := approved + rejected; decided > 0 {
		rate = decimal.NewFromInt(approved).
			Div(decimal.NewFromInt(decided)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return &StatsResponse{Summary: StatsSummary{
		Pending:      pending,
		Approved:     approved,
		Rejected:     rejected,
		ApprovalRate: rate,
	}}, nil
}

// ===================== Helpers =====================

func (s *Service) resolveDepartment(ctx context.Context, actor approval.Actor, activityID, indicatorID *uuid.UUID) (uuid.UUID, error) {
	switch {
	case activityID != nil:
		activity, err := s.activities.FindByID(ctx, *activityID)
		if err != nil {
			return uuid.Nil, err
		}
		return activity.DepartmentID, nil
	case indicatorID != nil:
		indicator, err := s.indicators.FindByID(ctx, *indicatorID)
		if err != nil {
			return uuid.Nil, err
		}
		if indicator.ActivityID != nil {
			activity, err := s.activities.FindByID(ctx, *indicator.ActivityID)
			if err != nil {
				return uuid.Nil, err
			}
			return activity.DepartmentID, nil
		}
		return actor.DepartmentID, nil
	default:
		return uuid.Nil, shared.NewDomainError("VALIDATION_ERROR", "Exactly one of activity or indicator must be referenced")
	}
}

// requireCapability asks the external authorization service and translates
// a negative answer into FORBIDDEN without leaking scope details
func (s *Service) requireCapability(ctx context.Context, actor approval.Actor, action string, departmentID uuid.UUID) error {
	ok, err := s.authz.HasCapability(ctx, actor, action, departmentID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrForbidden
	}
	return nil
}

// approvalScope returns nil for a global approver, otherwise the actor's
// department
func (s *Service) approvalScope(ctx context.Context, actor approval.Actor) *uuid.UUID {
	global, err := s.authz.HasCapability(ctx, actor, approval.CapabilityApproveReport, uuid.Nil)
	if err == nil && global {
		return nil
	}
	department := actor.DepartmentID
	return &department
}

func (s *Service) toDomainFilter(filter ReportListFilter) approval.ReportFilter {
	domainFilter := approval.ReportFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		ActivityID:  filter.ActivityID,
		IndicatorID: filter.IndicatorID,
		Period:      filter.Period,
	}
	if filter.Status != "" {
		status := approval.ReportStatus(filter.Status)
		domainFilter.Status = &status
	}
	return domainFilter
}

func toReportResponse(r *approval.ProgressReport) *ReportResponse {
	return &ReportResponse{
		ID:                  r.ID,
		ActivityID:          r.ActivityID,
		IndicatorID:         r.IndicatorID,
		DepartmentID:        r.DepartmentID,
		Period:              r.Period,
		ReportedByID:        r.ReportedByID,
		CurrentValue:        r.CurrentValue,
		TargetValue:         r.TargetValue,
		ExecutionPercentage: r.ExecutionPercentage,
		Status:              r.Status.String(),
		RejectionReason:     r.RejectionReason,
		SubmittedAt:         r.SubmittedAt,
		DecidedAt:           r.DecidedAt,
		SupersedesID:        r.SupersedesID,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		Version:             r.Version,
	}
}

func toReportResponses(reports []approval.ProgressReport) []ReportResponse {
	responses := make([]ReportResponse, len(reports))
	for i := range reports {
		responses[i] = *toReportResponse(&reports[i])
	}
	return responses
}

func toHistoryEntryResponse(e *approval.HistoryEntry) *HistoryEntryResponse {
	return &HistoryEntryResponse{
		ID:         e.ID,
		ReportID:   e.ReportID,
		Action:     e.Action.String(),
		ActionByID: e.ActionByID,
		Comments:   e.Comments,
		CreatedAt:  e.CreatedAt,
	}
}

func toTransitionResponse(r *approval.ProgressReport, e *approval.HistoryEntry) *TransitionResponse {
	return &TransitionResponse{
		Report: toReportResponse(r),
		Entry:  toHistoryEntryResponse(e),
	}
}
