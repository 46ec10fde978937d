package approval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/poa/backend/internal/domain/approval"
	"github.com/poa/backend/internal/domain/planning"
	"github.com/poa/backend/internal/domain/shared"
)

// MockProgressReportRepository is a mock implementation of ProgressReportRepository
type MockProgressReportRepository struct {
	mock.Mock
}

func (m *MockProgressReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*approval.ProgressReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*approval.ProgressReport), args.Error(1)
}

func (m *MockProgressReportRepository) FindAll(ctx context.Context, filter approval.ReportFilter) ([]approval.ProgressReport, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]approval.ProgressReport), args.Error(1)
}

func (m *MockProgressReportRepository) Count(ctx context.Context, filter approval.ReportFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProgressReportRepository) CountByStatus(ctx context.Context, status approval.ReportStatus, departmentID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, status, departmentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProgressReportRepository) FindApprovedForIndicator(ctx context.Context, indicatorID uuid.UUID, activityID *uuid.UUID) ([]approval.ProgressReport, error) {
	args := m.Called(ctx, indicatorID, activityID)
	return args.Get(0).([]approval.ProgressReport), args.Error(1)
}

func (m *MockProgressReportRepository) Create(ctx context.Context, report *approval.ProgressReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockProgressReportRepository) Save(ctx context.Context, report *approval.ProgressReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockProgressReportRepository) SaveTransition(ctx context.Context, report *approval.ProgressReport, entry *approval.HistoryEntry) error {
	args := m.Called(ctx, report, entry)
	return args.Error(0)
}

func (m *MockProgressReportRepository) CreateRevision(ctx context.Context, revision *approval.ProgressReport, entry *approval.HistoryEntry) error {
	args := m.Called(ctx, revision, entry)
	return args.Error(0)
}

// MockApprovalHistoryRepository is a mock implementation of ApprovalHistoryRepository
type MockApprovalHistoryRepository struct {
	mock.Mock
}

func (m *MockApprovalHistoryRepository) Append(ctx context.Context, entry *approval.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockApprovalHistoryRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]approval.HistoryEntry, error) {
	args := m.Called(ctx, reportID)
	return args.Get(0).([]approval.HistoryEntry), args.Error(1)
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*planning.Activity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*planning.Activity), args.Error(1)
}

// MockIndicatorRepository is a mock implementation of IndicatorRepository
type MockIndicatorRepository struct {
	mock.Mock
}

func (m *MockIndicatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*planning.Indicator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*planning.Indicator), args.Error(1)
}

// MockAuthorizationService is a mock implementation of AuthorizationService
type MockAuthorizationService struct {
	mock.Mock
}

func (m *MockAuthorizationService) HasCapability(ctx context.Context, actor approval.Actor, action string, departmentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, actor, action, departmentID)
	return args.Bool(0), args.Error(1)
}

// Test helper functions
func newTestDepartmentID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func newTestActivityID() uuid.UUID {
	return uuid.MustParse("22222222-2222-2222-2222-222222222222")
}

func newTestReporter() approval.Actor {
	return approval.Actor{
		ID:           uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		DepartmentID: newTestDepartmentID(),
	}
}

func newTestApprover() approval.Actor {
	return approval.Actor{
		ID:           uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		DepartmentID: newTestDepartmentID(),
		Permissions:  []string{approval.CapabilityApproveReport},
	}
}

func newTestService() (*Service, *MockProgressReportRepository, *MockApprovalHistoryRepository, *MockActivityRepository, *MockIndicatorRepository, *MockAuthorizationService) {
	reports := new(MockProgressReportRepository)
	history := new(MockApprovalHistoryRepository)
	activities := new(MockActivityRepository)
	indicators := new(MockIndicatorRepository)
	authz := new(MockAuthorizationService)
	return NewService(reports, history, activities, indicators, authz), reports, history, activities, indicators, authz
}

func createDraftReport(reporter approval.Actor) *approval.ProgressReport {
	activityID := newTestActivityID()
	report, _ := approval.NewProgressReport(
		&activityID, nil,
		newTestDepartmentID(),
		"2025-Q1",
		reporter.ID,
		decimal.NewFromInt(40),
		decimal.NewFromInt(100),
	)
	return report
}

func createSubmittedReport(reporter approval.Actor) *approval.ProgressReport {
	report := createDraftReport(reporter)
	_, _ = report.Submit(reporter.ID)
	return report
}

func TestService_CreateReport_ResolvesActivityDepartment(t *testing.T) {
	service, reports, _, activities, _, _ := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	activityID := newTestActivityID()
	departmentID := newTestDepartmentID()

	activity := &planning.Activity{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         "Digitalize case files",
		DepartmentID: departmentID,
	}
	activities.On("FindByID", ctx, activityID).Return(activity, nil)
	reports.On("Create", ctx, mock.AnythingOfType("*approval.ProgressReport")).Return(nil)

	result, err := service.CreateReport(ctx, reporter, CreateReportRequest{
		ActivityID:   &activityID,
		Period:       "2025-Q1",
		CurrentValue: decimal.NewFromInt(40),
		TargetValue:  decimal.NewFromInt(100),
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, departmentID, result.DepartmentID)
	assert.Equal(t, reporter.ID, result.ReportedByID)
	assert.Equal(t, "DRAFT", result.Status)
	assert.True(t, result.ExecutionPercentage.Equal(decimal.NewFromInt(40)))
	reports.AssertExpectations(t)
	activities.AssertExpectations(t)
}

func TestService_CreateReport_IndicatorWithoutActivityUsesActorDepartment(t *testing.T) {
	service, reports, _, _, indicators, _ := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	objectiveID := uuid.New()

	indicator := &planning.Indicator{
		BaseEntity:   shared.NewBaseEntity(),
		Type:         planning.IndicatorTypeResult,
		Name:         "Citizen satisfaction index",
		AnnualTarget: decimal.NewFromInt(80),
		ObjectiveID:  &objectiveID,
	}
	indicators.On("FindByID", ctx, indicator.ID).Return(indicator, nil)
	reports.On("Create", ctx, mock.AnythingOfType("*approval.ProgressReport")).Return(nil)

	result, err := service.CreateReport(ctx, reporter, CreateReportRequest{
		IndicatorID:  &indicator.ID,
		Period:       "2025-Q2",
		CurrentValue: decimal.NewFromInt(70),
		TargetValue:  decimal.NewFromInt(80),
	})

	assert.NoError(t, err)
	assert.Equal(t, reporter.DepartmentID, result.DepartmentID)
	reports.AssertExpectations(t)
}

func TestService_CreateReport_MissingReference(t *testing.T) {
	service, _, _, _, _, _ := newTestService()

	result, err := service.CreateReport(context.Background(), newTestReporter(), CreateReportRequest{
		Period:       "2025-Q1",
		CurrentValue: decimal.NewFromInt(1),
		TargetValue:  decimal.NewFromInt(10),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
}

func TestService_Submit_ByReporter(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	report := createDraftReport(reporter)

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	reports.On("SaveTransition", ctx, report, mock.AnythingOfType("*approval.HistoryEntry")).Return(nil)

	result, err := service.Submit(ctx, reporter, report.ID)

	assert.NoError(t, err)
	assert.Equal(t, "SUBMITTED", result.Report.Status)
	assert.NotNil(t, result.Report.SubmittedAt)
	assert.Equal(t, "SUBMIT", result.Entry.Action)
	assert.Equal(t, reporter.ID, result.Entry.ActionByID)
	// The reporter submits without consulting the authorization service
	authz.AssertNotCalled(t, "HasCapability")
	reports.AssertExpectations(t)
}

func TestService_Submit_ByCollaboratorWithCapability(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	collaborator := approval.Actor{
		ID:           uuid.New(),
		DepartmentID: newTestDepartmentID(),
		Permissions:  []string{approval.CapabilitySubmitReport},
	}
	report := createDraftReport(reporter)

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	authz.On("HasCapability", ctx, collaborator, approval.CapabilitySubmitReport, report.DepartmentID).Return(true, nil)
	reports.On("SaveTransition", ctx, report, mock.AnythingOfType("*approval.HistoryEntry")).Return(nil)

	result, err := service.Submit(ctx, collaborator, report.ID)

	assert.NoError(t, err)
	assert.Equal(t, "SUBMITTED", result.Report.Status)
	assert.Equal(t, collaborator.ID, result.Entry.ActionByID)
	authz.AssertExpectations(t)
}

func TestService_Submit_ByStrangerForbidden(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	stranger := approval.Actor{ID: uuid.New(), DepartmentID: uuid.New()}
	report := createDraftReport(newTestReporter())

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	authz.On("HasCapability", ctx, stranger, approval.CapabilitySubmitReport, report.DepartmentID).Return(false, nil)

	result, err := service.Submit(ctx, stranger, report.ID)

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
	reports.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Approve_Success(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	approver := newTestApprover()
	report := createSubmittedReport(reporter)

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	authz.On("HasCapability", ctx, approver, approval.CapabilityApproveReport, report.DepartmentID).Return(true, nil)
	reports.On("SaveTransition", ctx, report, mock.AnythingOfType("*approval.HistoryEntry")).Return(nil)

	result, err := service.Approve(ctx, approver, report.ID, "Looks correct")

	assert.NoError(t, err)
	assert.Equal(t, "APPROVED", result.Report.Status)
	assert.NotNil(t, result.Report.DecidedAt)
	assert.Equal(t, "APPROVE", result.Entry.Action)
	assert.Equal(t, "Looks correct", result.Entry.Comments)
	authz.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestService_Approve_WithoutCapability(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	actor := newTestReporter()
	report := createSubmittedReport(actor)

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	authz.On("HasCapability", ctx, actor, approval.CapabilityApproveReport, report.DepartmentID).Return(false, nil)

	result, err := service.Approve(ctx, actor, report.ID, "")

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
	assert.Equal(t, approval.ReportStatusSubmitted, report.Status)
	reports.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Reject_ShortReason(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	approver := newTestApprover()
	report := createSubmittedReport(newTestReporter())

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	authz.On("HasCapability", ctx, approver, approval.CapabilityApproveReport, report.DepartmentID).Return(true, nil)

	result, err := service.Reject(ctx, approver, report.ID, "too low", "")

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	reports.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Reject_Success(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	approver := newTestApprover()
	report := createSubmittedReport(newTestReporter())
	reason := "Reported value does not match the verification source"

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	authz.On("HasCapability", ctx, approver, approval.CapabilityApproveReport, report.DepartmentID).Return(true, nil)
	reports.On("SaveTransition", ctx, report, mock.AnythingOfType("*approval.HistoryEntry")).Return(nil)

	result, err := service.Reject(ctx, approver, report.ID, reason, "")

	assert.NoError(t, err)
	assert.Equal(t, "REJECTED", result.Report.Status)
	assert.Equal(t, reason, result.Report.RejectionReason)
	assert.Equal(t, "REJECT", result.Entry.Action)
}

func TestService_Withdraw_OnlySubmitter(t *testing.T) {
	service, reports, _, _, _, _ := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	report := createSubmittedReport(reporter)
	other := approval.Actor{ID: uuid.New(), DepartmentID: reporter.DepartmentID}

	reports.On("FindByID", ctx, report.ID).Return(report, nil)

	result, err := service.Withdraw(ctx, other, report.ID)

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestService_Withdraw_Success(t *testing.T) {
	service, reports, _, _, _, _ := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	report := createSubmittedReport(reporter)

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	reports.On("SaveTransition", ctx, report, mock.AnythingOfType("*approval.HistoryEntry")).Return(nil)

	result, err := service.Withdraw(ctx, reporter, report.ID)

	assert.NoError(t, err)
	assert.Equal(t, "WITHDRAWN", result.Report.Status)
	assert.Equal(t, "WITHDRAW", result.Entry.Action)
}

func TestService_Resubmit_CreatesRevision(t *testing.T) {
	service, reports, _, _, _, _ := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	approver := newTestApprover()
	report := createSubmittedReport(reporter)
	_, _ = report.Reject(approver.ID, "Numbers inconsistent with the quarterly source", "")

	corrected := decimal.NewFromInt(55)

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	reports.On("CreateRevision", ctx, mock.AnythingOfType("*approval.ProgressReport"), mock.AnythingOfType("*approval.HistoryEntry")).Return(nil)

	result, err := service.Resubmit(ctx, reporter, report.ID, ResubmitRequest{CurrentValue: &corrected})

	assert.NoError(t, err)
	assert.NotEqual(t, report.ID, result.Report.ID)
	assert.Equal(t, "SUBMITTED", result.Report.Status)
	assert.Equal(t, &report.ID, result.Report.SupersedesID)
	assert.True(t, result.Report.CurrentValue.Equal(corrected))
	assert.True(t, result.Report.TargetValue.Equal(report.TargetValue))
	assert.Equal(t, "RESUBMIT", result.Entry.Action)
	assert.Equal(t, result.Report.ID, result.Entry.ReportID)
	// The rejected original is never modified
	assert.Equal(t, approval.ReportStatusRejected, report.Status)
	reports.AssertExpectations(t)
}

func TestService_PendingReports_ScopedToDepartment(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	approver := newTestApprover()

	authz.On("HasCapability", ctx, approver, approval.CapabilityApproveReport, uuid.Nil).Return(false, nil)

	submitted := approval.ReportStatusSubmitted
	department := approver.DepartmentID
	expectedFilter := approval.ReportFilter{
		Status:       &submitted,
		DepartmentID: &department,
	}
	reports.On("FindAll", ctx, expectedFilter).Return([]approval.ProgressReport{}, nil)
	reports.On("Count", ctx, expectedFilter).Return(int64(0), nil)

	_, total, err := service.PendingReports(ctx, approver, ReportListFilter{})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)
	reports.AssertExpectations(t)
}

func TestService_PendingReports_GlobalApproverSeesAll(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	approver := newTestApprover()
	approver.Permissions = []string{approval.CapabilityApproveReport + ":all"}

	authz.On("HasCapability", ctx, approver, approval.CapabilityApproveReport, uuid.Nil).Return(true, nil)

	submitted := approval.ReportStatusSubmitted
	expectedFilter := approval.ReportFilter{Status: &submitted}
	reports.On("FindAll", ctx, expectedFilter).Return([]approval.ProgressReport{}, nil)
	reports.On("Count", ctx, expectedFilter).Return(int64(0), nil)

	_, _, err := service.PendingReports(ctx, approver, ReportListFilter{})

	assert.NoError(t, err)
	reports.AssertExpectations(t)
}

func TestService_Stats_ComputesApprovalRate(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	approver := newTestApprover()
	department := approver.DepartmentID

	authz.On("HasCapability", ctx, approver, approval.CapabilityApproveReport, uuid.Nil).Return(false, nil)
	reports.On("CountByStatus", ctx, approval.ReportStatusSubmitted, &department).Return(int64(4), nil)
	reports.On("CountByStatus", ctx, approval.ReportStatusApproved, &department).Return(int64(6), nil)
	reports.On("CountByStatus", ctx, approval.ReportStatusRejected, &department).Return(int64(2), nil)

	result, err := service.Stats(ctx, approver)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), result.Summary.Pending)
	assert.Equal(t, int64(6), result.Summary.Approved)
	assert.Equal(t, int64(2), result.Summary.Rejected)
	assert.True(t, result.Summary.ApprovalRate.Equal(decimal.NewFromInt(75)))
}

func TestService_Stats_NoDecisionsZeroRate(t *testing.T) {
	service, reports, _, _, _, authz := newTestService()

	ctx := context.Background()
	approver := newTestApprover()
	department := approver.DepartmentID

	authz.On("HasCapability", ctx, approver, approval.CapabilityApproveReport, uuid.Nil).Return(false, nil)
	reports.On("CountByStatus", ctx, approval.ReportStatusSubmitted, &department).Return(int64(1), nil)
	reports.On("CountByStatus", ctx, approval.ReportStatusApproved, &department).Return(int64(0), nil)
	reports.On("CountByStatus", ctx, approval.ReportStatusRejected, &department).Return(int64(0), nil)

	result, err := service.Stats(ctx, approver)

	assert.NoError(t, err)
	assert.True(t, result.Summary.ApprovalRate.IsZero())
}

func TestService_History_ReturnsLedger(t *testing.T) {
	service, reports, history, _, _, _ := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	report := createSubmittedReport(reporter)
	entries := []approval.HistoryEntry{
		*approval.NewHistoryEntry(report.ID, approval.ActionSubmit, reporter.ID, ""),
	}

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	history.On("ListByReport", ctx, report.ID).Return(entries, nil)

	result, err := service.History(ctx, report.ID)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "SUBMIT", result[0].Action)
}

func TestService_History_ReportNotFound(t *testing.T) {
	service, reports, _, _, _, _ := newTestService()

	ctx := context.Background()
	id := uuid.New()
	reports.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	result, err := service.History(ctx, id)

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestService_UpdateReport_OnlyReporter(t *testing.T) {
	service, reports, _, _, _, _ := newTestService()

	ctx := context.Background()
	report := createDraftReport(newTestReporter())
	other := approval.Actor{ID: uuid.New(), DepartmentID: newTestDepartmentID()}

	reports.On("FindByID", ctx, report.ID).Return(report, nil)

	result, err := service.UpdateReport(ctx, other, report.ID, UpdateReportRequest{
		CurrentValue: decimal.NewFromInt(50),
		TargetValue:  decimal.NewFromInt(100),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestService_UpdateReport_RecomputesPercentage(t *testing.T) {
	service, reports, _, _, _, _ := newTestService()

	ctx := context.Background()
	reporter := newTestReporter()
	report := createDraftReport(reporter)

	reports.On("FindByID", ctx, report.ID).Return(report, nil)
	reports.On("Save", ctx, report).Return(nil)

	result, err := service.UpdateReport(ctx, reporter, report.ID, UpdateReportRequest{
		CurrentValue: decimal.NewFromInt(75),
		TargetValue:  decimal.NewFromInt(100),
	})

	assert.NoError(t, err)
	assert.True(t, result.ExecutionPercentage.Equal(decimal.NewFromInt(75)))
}
