// Package access decides which clients and tasks a principal may touch.
// Scopes are recomputed on every call; nothing is cached between requests.
package access

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/domain"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// ClientLookup is the slice of the client repository the resolver needs.
type ClientLookup interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Client, error)
	ListIDsByAssignedStaff(ctx context.Context, staffID string) ([]string, error)
}

// StaffLookup resolves a staff profile from its user.
type StaffLookup interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Staff, error)
}

// TaskLookup exposes the task id projections used for scoping.
type TaskLookup interface {
	ListIDsByClientIDs(ctx context.Context, clientIDs []string) ([]string, error)
	ListIDsByAssignee(ctx context.Context, staffID string) ([]string, error)
	ListClientIDsByAssignee(ctx context.Context, staffID string) ([]string, error)
}

// ResolverDependencies wires the resolver.
type ResolverDependencies struct {
	Clients ClientLookup
	Staff   StaffLookup
	Tasks   TaskLookup
}

// Resolver computes access scopes.
type Resolver struct {
	clients ClientLookup
	staff   StaffLookup
	tasks   TaskLookup
}

// NewResolver constructs a Resolver.
func NewResolver(deps ResolverDependencies) *Resolver {
	return &Resolver{clients: deps.Clients, staff: deps.Staff, tasks: deps.Tasks}
}

// StaffID returns the staff profile id of a STAFF principal.
func (r *Resolver) StaffID(ctx context.Context, principal domain.Principal) (string, error) {
	if principal.Role != domain.RoleStaff {
		return "", apperrors.NewForbidden("staff profile required")
	}
	staff, err := r.staff.GetByUserID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewForbidden("no staff profile for user")
		}
		return "", err
	}
	return staff.ID, nil
}

// ClientID returns the client profile id of a CLIENT principal.
func (r *Resolver) ClientID(ctx context.Context, principal domain.Principal) (string, error) {
	if principal.Role != domain.RoleClient {
		return "", apperrors.NewForbidden("client profile required")
	}
	client, err := r.clients.GetByUserID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewForbidden("no client profile for user")
		}
		return "", err
	}
	return client.ID, nil
}

// ResolveClientScope returns every client visible to the principal. Staff
// see clients assigned to them plus clients of tasks assigned to them.
func (r *Resolver) ResolveClientScope(ctx context.Context, principal domain.Principal) (Scope, error) {
	switch principal.Role {
	case domain.RoleAdmin:
		return Unrestricted(), nil
	case domain.RoleStaff:
		staffID, err := r.StaffID(ctx, principal)
		if err != nil {
			return Scope{}, err
		}
		assigned, err := r.clients.ListIDsByAssignedStaff(ctx, staffID)
		if err != nil {
			return Scope{}, err
		}
		viaTasks, err := r.tasks.ListClientIDsByAssignee(ctx, staffID)
		if err != nil {
			return Scope{}, err
		}
		return Only(assigned...).Union(Only(viaTasks...)), nil
	case domain.RoleClient:
		clientID, err := r.ClientID(ctx, principal)
		if err != nil {
			return Scope{}, err
		}
		return Only(clientID), nil
	}
	return Scope{}, apperrors.NewForbidden("unknown role")
}

// ResolveTaskScope returns tasks of the visible clients plus, for staff,
// tasks assigned directly to them.
func (r *Resolver) ResolveTaskScope(ctx context.Context, principal domain.Principal) (Scope, error) {
	if principal.IsAdmin() {
		return Unrestricted(), nil
	}
	clients, err := r.ResolveClientScope(ctx, principal)
	if err != nil {
		return Scope{}, err
	}
	ids, err := r.tasks.ListIDsByClientIDs(ctx, clients.IDs())
	if err != nil {
		return Scope{}, err
	}
	scope := Only(ids...)
	if principal.Role == domain.RoleStaff {
		staffID, err := r.StaffID(ctx, principal)
		if err != nil {
			return Scope{}, err
		}
		assigned, err := r.tasks.ListIDsByAssignee(ctx, staffID)
		if err != nil {
			return Scope{}, err
		}
		scope = scope.Union(Only(assigned...))
	}
	return scope, nil
}

// RequireClient fails with Forbidden unless clientID is in scope. It does
// not check that the client exists.
func (r *Resolver) RequireClient(ctx context.Context, principal domain.Principal, clientID string) error {
	scope, err := r.ResolveClientScope(ctx, principal)
	if err != nil {
		return err
	}
	if !scope.Contains(clientID) {
		return apperrors.NewForbidden("client outside caller scope")
	}
	return nil
}

// RequireTask fails with Forbidden unless taskID is in scope.
func (r *Resolver) RequireTask(ctx context.Context, principal domain.Principal, taskID string) error {
	scope, err := r.ResolveTaskScope(ctx, principal)
	if err != nil {
		return err
	}
	if !scope.Contains(taskID) {
		return apperrors.NewForbidden("task outside caller scope")
	}
	return nil
}
