package care

import "time"

// Entity carries the fields common to every persisted entity in this
// domain: opaque id, tenant scoping, optimistic-concurrency version, audit
// timestamps/actors and soft-delete marker.
type Entity struct {
	ID             ID         `json:"id"`
	OrganizationID ID         `json:"organizationId"`
	BranchID       ID         `json:"branchId"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	CreatedBy      string     `json:"createdBy"`
	UpdatedBy      string     `json:"updatedBy"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
}

// IsDeleted reports whether the entity has been soft-deleted.
func (e Entity) IsDeleted() bool {
	return e.DeletedAt != nil
}

// Touch advances the entity's version and audit fields for a write made by
// actor at t. Callers condition their store write on the version observed
// before calling Touch, so a concurrent writer's stale version is rejected.
func (e *Entity) Touch(actor string, t time.Time) {
	e.Version++
	e.UpdatedAt = t
	e.UpdatedBy = actor
}

// NewEntity initializes a freshly-created entity's bookkeeping fields.
func NewEntity(org, branch ID, actor string, t time.Time) Entity {
	return Entity{
		ID:             NewID(),
		OrganizationID: org,
		BranchID:       branch,
		Version:        1,
		CreatedAt:      t,
		UpdatedAt:      t,
		CreatedBy:      actor,
		UpdatedBy:      actor,
	}
}
