package procurement

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poa/backend/internal/domain/shared"
)

// ProcessStatus represents the status of a procurement process
type ProcessStatus string

const (
	ProcessStatusPlanned    ProcessStatus = "PLANNED"
	ProcessStatusInProgress ProcessStatus = "IN_PROGRESS"
	ProcessStatusAwarded    ProcessStatus = "AWARDED"
	ProcessStatusCancelled  ProcessStatus = "CANCELLED"
)

// Process is a read model owned by the external procurement plan (PACC)
// administration
type Process struct {
	shared.BaseEntity
	Reference string          `json:"reference"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Status    ProcessStatus   `json:"status"`
}

// ActivityProcurementLink ties a POA activity to a procurement process.
// The (activity, process) pair is unique. Essential links are counted in
// the budget consistency check; non-essential ones are informational.
type ActivityProcurementLink struct {
	shared.BaseAggregateRoot
	ActivityID           uuid.UUID `json:"activity_id"`
	ProcurementProcessID uuid.UUID `json:"procurement_process_id"`
	IsEssential          bool      `json:"is_essential"`
	LinkReason           string    `json:"link_reason"`
}

// NewActivityProcurementLink creates a link between an activity and a
// procurement process
func NewActivityProcurementLink(activityID, processID uuid.UUID, isEssential bool, linkReason string) (*ActivityProcurementLink, error) {
	if activityID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Activity ID cannot be empty")
	}
	if processID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Procurement process ID cannot be empty")
	}
	if strings.TrimSpace(linkReason) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Link reason cannot be empty")
	}

	return &ActivityProcurementLink{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		ActivityID:           activityID,
		ProcurementProcessID: processID,
		IsEssential:          isEssential,
		LinkReason:           linkReason,
	}, nil
}

// Update changes the essential flag and reason of an existing link
func (l *ActivityProcurementLink) Update(isEssential bool, linkReason string) error {
	if strings.TrimSpace(linkReason) == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Link reason cannot be empty")
	}
	l.IsEssential = isEssential
	l.LinkReason = linkReason
	l.Touch()
	return nil
}
