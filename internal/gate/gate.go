// Package gate provides a small Gate/Policy authorization checkpoint.
// The Gate is a registry of policies; each Policy decides whether a
// subject may perform an action on a resource. The package knows nothing
// about domain models.
package gate

import (
	"context"
	"errors"
)

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionList    Action = "list"
	ActionApprove Action = "approve"
	ActionIssue   Action = "issue"
)

// Policy defines authorization rules for a resource type.
// U is the subject type (uint for userID-based auth).
// For list/create, resource may be nil (context-only check).
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// Gate is the central authorization checkpoint.
// U must be comparable so a zero-value subject can be rejected outright.
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource type (e.g., "invoice").
// Overwrites any existing policy for that type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize checks authorization and returns an error if denied.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, user, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
