package hierarchy

import (
	"context"
	"log/slog"

	"github.com/hanifmaulana/orgops/internal/auth"
)

// Actor is the resolver's view of a user: just enough to walk the
// approval ladder.
type Actor struct {
	ID           int64
	Name         string
	Role         auth.Role
	DepartmentID *int64
}

// Directory answers the two lookups escalation needs. Resolution is
// driven by role and department-head assignment only; reports_to links
// express direct-report relationships, not approval authority, and are
// deliberately not consulted here.
type Directory interface {
	HeadOfDepartment(ctx context.Context, departmentID int64) (*Actor, error)
	FirstByRole(ctx context.Context, role auth.Role) (*Actor, error)
}

// Resolver maps an actor to the next eligible approver, or nil when the
// actor's decision is final.
type Resolver struct {
	directory Directory
	logger    *slog.Logger
}

func NewResolver(directory Directory, logger *slog.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		logger:    logger,
	}
}

// NextApprover evaluates the role ladder as an ordered rule chain, first
// match wins. A nil result with nil error means no further approver
// exists and the current actor's decision must be treated as final.
func (r *Resolver) NextApprover(ctx context.Context, actor Actor) (*Actor, error) {
	switch actor.Role {
	case auth.RoleGeneralStaff, auth.RoleAssistantDeptHead:
		if actor.DepartmentID != nil {
			head, err := r.directory.HeadOfDepartment(ctx, *actor.DepartmentID)
			if err != nil {
				return nil, err
			}
			// a department head never approves their own request
			if head != nil && head.ID != actor.ID {
				return head, nil
			}
		}
		return r.anyHumanResources(ctx)

	case auth.RoleDepartmentHead:
		return r.anyHumanResources(ctx)

	case auth.RoleHumanResources:
		md, err := r.directory.FirstByRole(ctx, auth.RoleManagingDirector)
		if err != nil {
			return nil, err
		}
		if md != nil {
			return md, nil
		}
		return r.directory.FirstByRole(ctx, auth.RoleAdministrator)

	case auth.RoleManagingDirector:
		return r.directory.FirstByRole(ctx, auth.RoleAdministrator)

	case auth.RoleAdministrator, auth.RoleTopExecutive:
		return nil, nil

	default:
		r.logger.Warn("unknown role in approver resolution", "role", actor.Role, "actor_id", actor.ID)
		return nil, nil
	}
}

func (r *Resolver) anyHumanResources(ctx context.Context) (*Actor, error) {
	hr, err := r.directory.FirstByRole(ctx, auth.RoleHumanResources)
	if err != nil {
		return nil, err
	}
	// nil means nobody can take this over; the caller treats the current
	// decision as final rather than deadlocking
	return hr, nil
}
