package policy

import (
	"context"

	"github.com/diewo77/invoice-admin/internal/gate"
)

// Ownable is an interface for resources that have an owner.
// Models implement this to enable ownership-based authorization.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy allows an action only when the user owns the resource.
// Works with any model that implements the Ownable interface.
type OwnershipPolicy struct{}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can checks if the user owns the resource.
// For list/create actions (resource is nil), it returns true: those
// operations are already scoped to the caller's own rows by the queries.
func (p *OwnershipPolicy) Can(_ context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		// Resources without ownership information are denied outright
		return false
	}
	return ownable.GetUserID() == userID
}
