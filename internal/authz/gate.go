// Package authz implements the per-action authorization gate. Decisions
// are pure functions of (actor, resource, state): the same pair always
// yields the same answer absent data mutation, so checks can safely be
// repeated after validation. Denial is a plain false; only genuinely
// exceptional conditions use errors elsewhere.
package authz

import (
	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/domain"
)

// Resource is the minimal surface a domain object exposes for
// authorization: who owns it, which workspace it lives in, and whether
// its current state still permits edits.
type Resource interface {
	Owner() uuid.UUID
	Workspace() uuid.UUID
	Mutable() bool
}

// Gate evaluates action predicates. It holds no state.
type Gate struct{}

// NewGate creates a gate.
func NewGate() *Gate { return &Gate{} }

// CanCreate permits creation when the actor's current workspace is the
// target workspace. Membership in the workspace is verified separately
// by the service layer against the membership table.
func (Gate) CanCreate(actor domain.Actor, workspaceID uuid.UUID) bool {
	return actor.ID != uuid.Nil && actor.WorkspaceID == workspaceID
}

// CanUpdate permits updates only to the owner, in the actor's current
// workspace, while the resource is in a mutable state. For content that
// means draft only; coupons and campaigns define their own mutable set.
func (Gate) CanUpdate(actor domain.Actor, r Resource) bool {
	return actor.ID == r.Owner() && actor.WorkspaceID == r.Workspace() && r.Mutable()
}

// CanDelete permits deletion by the owner regardless of state.
func (Gate) CanDelete(actor domain.Actor, r Resource) bool {
	return actor.ID == r.Owner() && actor.WorkspaceID == r.Workspace()
}

// CanAccess permits workspace-scoped reads and CRM mutations that carry
// no ownership gate, e.g. moving a deal through stages.
func (Gate) CanAccess(actor domain.Actor, r Resource) bool {
	return actor.ID != uuid.Nil && actor.WorkspaceID == r.Workspace()
}

// CanTransition permits lifecycle transitions. Transitions are not
// limited to draft state, so this is ownership plus workspace, with
// the state guard itself enforced by the transition table.
func (Gate) CanTransition(actor domain.Actor, r Resource) bool {
	return actor.ID == r.Owner() && actor.WorkspaceID == r.Workspace()
}
