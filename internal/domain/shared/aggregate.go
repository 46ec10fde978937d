package shared

// BaseAggregateRoot extends BaseEntity with an optimistic-lock version.
// Repositories compare-and-swap on Version when persisting a transition;
// a mismatch means another writer got there first.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// NewBaseAggregateRoot returns a base aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
