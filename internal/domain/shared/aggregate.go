package shared

// BaseAggregateRoot extends BaseEntity with the version counter used for
// optimistic locking on users, products and orders.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// NewBaseAggregateRoot mints a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// IncrementVersion records that the aggregate changed state
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}
