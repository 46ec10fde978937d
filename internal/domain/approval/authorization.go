package approval

import (
	"context"

	"github.com/google/uuid"
)

// Capability actions consumed by the lifecycle service
const (
	CapabilityApproveReport = "approve:progress_report"
	CapabilitySubmitReport  = "submit:progress_report"
)

// Actor identifies the authenticated user performing an operation. It is
// threaded explicitly through every lifecycle call; there is no ambient
// current-user state.
type Actor struct {
	ID           uuid.UUID
	DepartmentID uuid.UUID
	Permissions  []string
}

// AuthorizationService is the consumed access-control capability. Role and
// permission storage and department-hierarchy scoping live outside this
// core; the lifecycle service only asks yes/no questions.
type AuthorizationService interface {
	// HasCapability reports whether the actor may perform the action on
	// resources owned by the given department.
	HasCapability(ctx context.Context, actor Actor, action string, departmentID uuid.UUID) (bool, error)
}
