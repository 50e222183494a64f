package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/access"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// ClientAccount is a client profile together with its login.
type ClientAccount struct {
	User              *domain.User
	Client            *domain.Client
	TemporaryPassword string
}

// ClientProfileInput holds the business fields of a client.
type ClientProfileInput struct {
	CompanyName  string
	BusinessType string
	PAN          string
	GSTNumber    string
	TAN          string
	Address      string
	City         string
	State        string
	PostalCode   string
}

// ClientCreateInput describes client onboarding.
type ClientCreateInput struct {
	Account         AccountInput
	Profile         ClientProfileInput
	AssignedStaffID *string
}

// ClientUpdateInput carries optional changes; nil fields are left alone.
type ClientUpdateInput struct {
	CompanyName  *string
	BusinessType *string
	PAN          *string
	GSTNumber    *string
	TAN          *string
	Address      *string
	City         *string
	State        *string
	PostalCode   *string
	IsActive     *bool
}

// ClientListFilter narrows client listings.
type ClientListFilter struct {
	Search          string
	Active          *bool
	AssignedStaffID *string
	Limit           int
	Offset          int
}

// ClientService manages client profiles.
type ClientService struct {
	clients    repository.ClientRepository
	users      repository.UserRepository
	staff      repository.StaffRepository
	tasks      repository.TaskRepository
	documents  repository.DocumentRepository
	tx         repository.TxManager
	access     *access.Resolver
	audit      *AuditService
	dispatcher events.Dispatcher
	clock      clock.Clock
	bcryptCost int
}

// ClientDependencies bundles requirements.
type ClientDependencies struct {
	ClientRepo   repository.ClientRepository
	UserRepo     repository.UserRepository
	StaffRepo    repository.StaffRepository
	TaskRepo     repository.TaskRepository
	DocumentRepo repository.DocumentRepository
	TxManager    repository.TxManager
	Access       *access.Resolver
	Audit        *AuditService
	Dispatcher   events.Dispatcher
	Clock        clock.Clock
	BcryptCost   int
}

// NewClientService constructs the service.
func NewClientService(deps ClientDependencies) *ClientService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &ClientService{
		clients:    deps.ClientRepo,
		users:      deps.UserRepo,
		staff:      deps.StaffRepo,
		tasks:      deps.TaskRepo,
		documents:  deps.DocumentRepo,
		tx:         deps.TxManager,
		access:     deps.Access,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		clock:      clk,
		bcryptCost: deps.BcryptCost,
	}
}

// Create onboards a client: the CLIENT user and its profile are written in
// one transaction.
func (s *ClientService) Create(ctx context.Context, actor domain.Principal, input ClientCreateInput) (*ClientAccount, error) {
	if err := requireField("company_name", input.Profile.CompanyName); err != nil {
		return nil, err
	}
	assigned := trimmed(input.AssignedStaffID)

	var account *ClientAccount
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if assigned != nil {
			if err := requireAvailableStaff(ctx, s.staff, *assigned); err != nil {
				return err
			}
		}
		var err error
		account, err = createClientAccount(ctx, s.users, s.clients, input.Account, input.Profile, assigned, s.bcryptCost)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, actor.UserID, AuditCreate, "client", account.Client.ID, nil, clientValues(account.Client))
	})
	if err != nil {
		return nil, err
	}
	if assigned != nil {
		publishAll(ctx, s.dispatcher, []events.Event{s.assignedEvent(actor, account.Client)})
	}
	return account, nil
}

// Get returns a client visible to the caller. Non-admins get Forbidden for
// ids outside their scope whether or not the row exists.
func (s *ClientService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Client, error) {
	if err := s.access.RequireClient(ctx, principal, id); err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if !principal.IsAdmin() && errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("client outside caller scope")
		}
		return nil, lookupError("client", id, err)
	}
	return client, nil
}

// List returns the caller's visible clients.
func (s *ClientService) List(ctx context.Context, principal domain.Principal, filter ClientListFilter) ([]domain.Client, error) {
	scope, err := s.access.ResolveClientScope(ctx, principal)
	if err != nil {
		return nil, err
	}
	repoFilter := repository.ClientFilter{
		Scoped:          !scope.IsAll(),
		IDs:             scope.IDs(),
		AssignedStaffID: filter.AssignedStaffID,
		Active:          filter.Active,
		Search:          filter.Search,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	}
	clients, err := s.clients.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return clients, nil
}

// Update edits profile fields. Only admins may change IsActive.
func (s *ClientService) Update(ctx context.Context, principal domain.Principal, id string, input ClientUpdateInput) (*domain.Client, error) {
	if input.IsActive != nil && !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can change client status")
	}
	if input.CompanyName != nil && strings.TrimSpace(*input.CompanyName) == "" {
		return nil, apperrors.NewValidationError("company_name cannot be empty", map[string]any{"field": "company_name"})
	}

	var client *domain.Client
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		client, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		before := clientValues(client)
		applyString(&client.CompanyName, input.CompanyName)
		applyString(&client.BusinessType, input.BusinessType)
		applyString(&client.PAN, input.PAN)
		applyString(&client.GSTNumber, input.GSTNumber)
		applyString(&client.TAN, input.TAN)
		applyString(&client.Address, input.Address)
		applyString(&client.City, input.City)
		applyString(&client.State, input.State)
		applyString(&client.PostalCode, input.PostalCode)
		if input.IsActive != nil {
			client.IsActive = *input.IsActive
		}
		if err := s.clients.Update(ctx, client); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditUpdate, "client", client.ID, before, clientValues(client))
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Delete removes the client and its user. It is refused while the client
// has open tasks or documents awaiting review.
func (s *ClientService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		client, err := s.clients.GetByID(ctx, id)
		if err != nil {
			return lookupError("client", id, err)
		}
		activeTasks, err := s.tasks.CountActiveByClient(ctx, id)
		if err != nil {
			return apperrors.MapError(err)
		}
		pendingDocs, err := s.documents.CountPendingByClient(ctx, id)
		if err != nil {
			return apperrors.MapError(err)
		}
		if activeTasks > 0 || pendingDocs > 0 {
			return apperrors.NewConflict("client has open work", map[string]any{
				"active_tasks":      activeTasks,
				"pending_documents": pendingDocs,
			})
		}
		if err := s.clients.Delete(ctx, id); err != nil {
			return apperrors.MapError(err)
		}
		if err := s.users.Delete(ctx, client.UserID); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actor.UserID, AuditDelete, "client", id, clientValues(client), nil)
	})
}

// AssignStaff sets the client's account manager.
func (s *ClientService) AssignStaff(ctx context.Context, actor domain.Principal, clientID, staffID string) (*domain.Client, error) {
	var client *domain.Client
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireAvailableStaff(ctx, s.staff, staffID); err != nil {
			return err
		}
		var err error
		client, err = s.clients.GetByID(ctx, clientID)
		if err != nil {
			return lookupError("client", clientID, err)
		}
		before := map[string]any{"assigned_staff_id": client.AssignedStaffID}
		client.AssignedStaffID = &staffID
		if err := s.clients.Update(ctx, client); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actor.UserID, AuditAssign, "client", client.ID, before,
			map[string]any{"assigned_staff_id": staffID})
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.assignedEvent(actor, client)})
	return client, nil
}

func (s *ClientService) assignedEvent(actor domain.Principal, client *domain.Client) events.Event {
	return events.New(events.EventClientAssigned, client.ID, strPtr(actor.UserID), s.clock.Now(), events.ClientAssignedPayload{
		CompanyName: client.CompanyName,
		StaffID:     *client.AssignedStaffID,
	})
}

// createClientAccount writes the CLIENT user and its profile. Callers own
// the transaction.
func createClientAccount(ctx context.Context, users repository.UserRepository, clients repository.ClientRepository,
	accountInput AccountInput, profile ClientProfileInput, assignedStaffID *string, cost int) (*ClientAccount, error) {
	user, temp, err := createAccount(ctx, users, accountInput, domain.RoleClient, cost)
	if err != nil {
		return nil, err
	}
	client := &domain.Client{
		UserID:          user.ID,
		CompanyName:     strings.TrimSpace(profile.CompanyName),
		BusinessType:    strings.TrimSpace(profile.BusinessType),
		PAN:             strings.ToUpper(strings.TrimSpace(profile.PAN)),
		GSTNumber:       strings.ToUpper(strings.TrimSpace(profile.GSTNumber)),
		TAN:             strings.ToUpper(strings.TrimSpace(profile.TAN)),
		Address:         strings.TrimSpace(profile.Address),
		City:            strings.TrimSpace(profile.City),
		State:           strings.TrimSpace(profile.State),
		PostalCode:      strings.TrimSpace(profile.PostalCode),
		AssignedStaffID: assignedStaffID,
		IsActive:        true,
	}
	if err := clients.Create(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ClientAccount{User: user, Client: client, TemporaryPassword: temp}, nil
}

// requireAvailableStaff fails with a validation error unless the staff
// member exists and accepts work.
func requireAvailableStaff(ctx context.Context, staffRepo repository.StaffRepository, staffID string) error {
	staff, err := staffRepo.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("staff member not found", map[string]any{"staff_id": staffID})
		}
		return apperrors.MapError(err)
	}
	if !staff.IsAvailable {
		return apperrors.NewValidationError("staff member is not available", map[string]any{"staff_id": staffID})
	}
	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func clientValues(c *domain.Client) map[string]any {
	return map[string]any{
		"company_name":      c.CompanyName,
		"business_type":     c.BusinessType,
		"assigned_staff_id": c.AssignedStaffID,
		"is_active":         c.IsActive,
	}
}
