package procurement

import (
	"context"

	"github.com/google/uuid"
)

// LinkRepository persists ActivityProcurementLink aggregates
type LinkRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ActivityProcurementLink, error)
	FindByActivity(ctx context.Context, activityID uuid.UUID) ([]ActivityProcurementLink, error)
	ExistsForPair(ctx context.Context, activityID, processID uuid.UUID) (bool, error)

	// FindLinkedProcesses joins each link of the activity with its
	// procurement process, as consumed by the consistency check.
	FindLinkedProcesses(ctx context.Context, activityID uuid.UUID) ([]LinkedProcess, error)

	Create(ctx context.Context, link *ActivityProcurementLink) error
	Save(ctx context.Context, link *ActivityProcurementLink) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProcessRepository reads procurement processes owned by the external PACC
// administration
type ProcessRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Process, error)
}
