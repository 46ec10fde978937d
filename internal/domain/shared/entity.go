package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps common to all domain
// entities. Entities are identified by UUID; timestamps are set once at
// construction and maintained by the entity's own mutation methods, not
// by the persistence layer.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns a base entity with a fresh ID and both timestamps
// set to now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a mutation on the entity
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
