package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/approval"
)

// ProgressReportModel is the persistence model for the ProgressReport
// aggregate root
type ProgressReportModel struct {
	AggregateModel
	ActivityID          *uuid.UUID              `gorm:"type:uuid;index"`
	IndicatorID         *uuid.UUID              `gorm:"type:uuid;index"`
	DepartmentID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	Period              string                  `gorm:"type:varchar(10);not null;index"`
	ReportedByID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	CurrentValue        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TargetValue         decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	ExecutionPercentage decimal.Decimal         `gorm:"type:decimal(9,2);not null"`
	Status              approval.ReportStatus   `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	RejectionReason     string                  `gorm:"type:text"`
	SubmittedAt         *time.Time              `gorm:"index"`
	DecidedAt           *time.Time              `gorm:"index"`
	SupersedesID        *uuid.UUID              `gorm:"type:uuid;uniqueIndex:idx_progress_reports_supersedes,where:supersedes_id IS NOT NULL"`
}

// TableName returns the table name for GORM
func (ProgressReportModel) TableName() string {
	return "progress_reports"
}

// ToDomain converts the persistence model to a domain ProgressReport
func (m *ProgressReportModel) ToDomain() *approval.ProgressReport {
	return &approval.ProgressReport{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		ActivityID:          m.ActivityID,
		IndicatorID:         m.IndicatorID,
		DepartmentID:        m.DepartmentID,
		Period:              m.Period,
		ReportedByID:        m.ReportedByID,
		CurrentValue:        m.CurrentValue,
		TargetValue:         m.TargetValue,
		ExecutionPercentage: m.ExecutionPercentage,
		Status:              m.Status,
		RejectionReason:     m.RejectionReason,
		SubmittedAt:         m.SubmittedAt,
		DecidedAt:           m.DecidedAt,
		SupersedesID:        m.SupersedesID,
	}
}

// FromDomain populates the persistence model from a domain ProgressReport
func (m *ProgressReportModel) FromDomain(r *approval.ProgressReport) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ActivityID = r.ActivityID
	m.IndicatorID = r.IndicatorID
	m.DepartmentID = r.DepartmentID
	m.Period = r.Period
	m.ReportedByID = r.ReportedByID
	m.CurrentValue = r.CurrentValue
	m.TargetValue = r.TargetValue
	m.ExecutionPercentage = r.ExecutionPercentage
	m.Status = r.Status
	m.RejectionReason = r.RejectionReason
	m.SubmittedAt = r.SubmittedAt
	m.DecidedAt = r.DecidedAt
	m.SupersedesID = r.SupersedesID
}

// ProgressReportModelFromDomain creates a persistence model from a domain ProgressReport
func ProgressReportModelFromDomain(r *approval.ProgressReport) *ProgressReportModel {
	m := &ProgressReportModel{}
	m.FromDomain(r)
	return m
}

// ApprovalHistoryEntryModel is the persistence model for the append-only
// approval ledger. Rows are never updated or deleted.
type ApprovalHistoryEntryModel struct {
	BaseModel
	ReportID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	Action     approval.ApprovalAction `gorm:"type:varchar(20);not null"`
	ActionByID uuid.UUID               `gorm:"type:uuid;not null"`
	Comments   string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ApprovalHistoryEntryModel) TableName() string {
	return "approval_history_entries"
}

// ToDomain converts the persistence model to a domain HistoryEntry
func (m *ApprovalHistoryEntryModel) ToDomain() *approval.HistoryEntry {
	return &approval.HistoryEntry{
		BaseEntity: m.BaseModel.ToDomain(),
		ReportID:   m.ReportID,
		Action:     m.Action,
		ActionByID: m.ActionByID,
		Comments:   m.Comments,
	}
}

// FromDomain populates the persistence model from a domain HistoryEntry
func (m *ApprovalHistoryEntryModel) FromDomain(e *approval.HistoryEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.ReportID = e.ReportID
	m.Action = e.Action
	m.ActionByID = e.ActionByID
	m.Comments = e.Comments
}

// ApprovalHistoryEntryModelFromDomain creates a persistence model from a domain HistoryEntry
func ApprovalHistoryEntryModelFromDomain(e *approval.HistoryEntry) *ApprovalHistoryEntryModel {
	m := &ApprovalHistoryEntryModel{}
	m.FromDomain(e)
	return m
}
