package approval

import (
	"github.com/google/uuid"

	"github.com/poa/backend/internal/domain/shared"
)

// ApprovalAction identifies the lifecycle transition recorded by a ledger entry
type ApprovalAction string

const (
	ActionSubmit   ApprovalAction = "SUBMIT"
	ActionApprove  ApprovalAction = "APPROVE"
	ActionReject   ApprovalAction = "REJECT"
	ActionWithdraw ApprovalAction = "WITHDRAW"
	ActionResubmit ApprovalAction = "RESUBMIT"
)

// IsValid checks if the action is a valid ApprovalAction
func (a ApprovalAction) IsValid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionReject, ActionWithdraw, ActionResubmit:
		return true
	}
	return false
}

// String returns the string representation of ApprovalAction
func (a ApprovalAction) String() string {
	return string(a)
}

// HistoryEntry is one record of the append-only approval ledger. Entries
// are written exactly once per transition, in the same transaction as the
// status write, and are never updated or removed.
type HistoryEntry struct {
	shared.BaseEntity
	ReportID   uuid.UUID      `json:"report_id"`
	Action     ApprovalAction `json:"action"`
	ActionByID uuid.UUID      `json:"action_by_id"`
	Comments   string         `json:"comments"`
}

// NewHistoryEntry creates a ledger entry for a transition
func NewHistoryEntry(reportID uuid.UUID, action ApprovalAction, actionByID uuid.UUID, comments string) *HistoryEntry {
	return &HistoryEntry{
		BaseEntity: shared.NewBaseEntity(),
		ReportID:   reportID,
		Action:     action,
		ActionByID: actionByID,
		Comments:   comments,
	}
}
