package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/poa/backend/internal/domain/approval"
)

// GlobalScopeSuffix marks a permission as valid across all departments
const GlobalScopeSuffix = ":all"

// CapabilityChecker answers authorization questions from the permission
// strings carried in the actor's token. Permissions are granted by the
// external identity administration; a plain action string is scoped to the
// actor's own department and the ":all" suffix lifts that restriction.
type CapabilityChecker struct{}

// NewCapabilityChecker creates a new CapabilityChecker
func NewCapabilityChecker() *CapabilityChecker {
	return &CapabilityChecker{}
}

// HasCapability implements approval.AuthorizationService. A departmentID of
// uuid.Nil asks for the global grant.
func (c *CapabilityChecker) HasCapability(_ context.Context, actor approval.Actor, action string, departmentID uuid.UUID) (bool, error) {
	for _, perm := range actor.Permissions {
		if perm == action+GlobalScopeSuffix {
			return true, nil
		}
	}
	if departmentID == uuid.Nil {
		return false, nil
	}
	if actor.DepartmentID != departmentID {
		return false, nil
	}
	for _, perm := range actor.Permissions {
		if perm == action {
			return true, nil
		}
	}
	return false, nil
}

var _ approval.AuthorizationService = (*CapabilityChecker)(nil)
