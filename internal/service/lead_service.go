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

// LeadCreateInput describes a new lead from public intake or staff entry.
type LeadCreateInput struct {
	Name            string
	Email           string
	Phone           string
	CompanyName     string
	Source          domain.LeadSource
	Notes           string
	Priority        domain.Priority
	ServiceItemID   *string
	AssignedStaffID *string
}

// LeadUpdateInput carries optional detail changes.
type LeadUpdateInput struct {
	Name          *string
	Email         *string
	Phone         *string
	CompanyName   *string
	Notes         *string
	Priority      *domain.Priority
	ServiceItemID *string
}

// LeadListFilter narrows lead listings.
type LeadListFilter struct {
	Statuses []domain.LeadStatus
	Source   *domain.LeadSource
	Search   string
	Limit    int
	Offset   int
}

// LeadConversionInput completes the client profile created from a lead.
type LeadConversionInput struct {
	Password string
	Profile  ClientProfileInput
}

// LeadConversion is the result of converting a lead.
type LeadConversion struct {
	Lead    *domain.Lead
	Account *ClientAccount
}

// LeadService manages the sales funnel.
type LeadService struct {
	leads      repository.LeadRepository
	users      repository.UserRepository
	clients    repository.ClientRepository
	staff      repository.StaffRepository
	sequences  repository.SequenceRepository
	tx         repository.TxManager
	access     *access.Resolver
	catalog    *CatalogService
	audit      *AuditService
	dispatcher events.Dispatcher
	clock      clock.Clock
	bcryptCost int
}

// LeadDependencies bundles requirements.
type LeadDependencies struct {
	LeadRepo     repository.LeadRepository
	UserRepo     repository.UserRepository
	ClientRepo   repository.ClientRepository
	StaffRepo    repository.StaffRepository
	SequenceRepo repository.SequenceRepository
	TxManager    repository.TxManager
	Access       *access.Resolver
	Catalog      *CatalogService
	Audit        *AuditService
	Dispatcher   events.Dispatcher
	Clock        clock.Clock
	BcryptCost   int
}

// NewLeadService constructs the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &LeadService{
		leads:      deps.LeadRepo,
		users:      deps.UserRepo,
		clients:    deps.ClientRepo,
		staff:      deps.StaffRepo,
		sequences:  deps.SequenceRepo,
		tx:         deps.TxManager,
		access:     deps.Access,
		catalog:    deps.Catalog,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		clock:      clk,
		bcryptCost: deps.BcryptCost,
	}
}

// Create records a lead. A nil principal means public intake: the source
// defaults to WEBSITE and any requested assignment is ignored. Staff
// entries are assigned to the creator unless another assignee is named.
func (s *LeadService) Create(ctx context.Context, principal *domain.Principal, input LeadCreateInput) (*domain.Lead, error) {
	lead := &domain.Lead{
		Name:          strings.TrimSpace(input.Name),
		Email:         normalizeEmail(input.Email),
		Phone:         strings.TrimSpace(input.Phone),
		CompanyName:   strings.TrimSpace(input.CompanyName),
		Source:        input.Source,
		Notes:         strings.TrimSpace(input.Notes),
		Status:        domain.LeadStatusNew,
		Priority:      input.Priority,
		ServiceItemID: trimmed(input.ServiceItemID),
	}
	if err := requireField("name", lead.Name); err != nil {
		return nil, err
	}
	if err := validateEmail(lead.Email); err != nil {
		return nil, err
	}
	if lead.Priority == "" {
		lead.Priority = domain.PriorityMedium
	}
	if !lead.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": lead.Priority})
	}
	if principal == nil {
		lead.Source = domain.LeadSourceWebsite
	} else if lead.Source == "" {
		lead.Source = domain.LeadSourceOther
	}
	if !validLeadSource(lead.Source) {
		return nil, apperrors.NewValidationError("invalid source", map[string]any{"source": lead.Source})
	}
	if err := s.catalog.requireActiveItem(lead.ServiceItemID); err != nil {
		return nil, err
	}

	actorID := ""
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if principal != nil {
			actorID = principal.UserID
			assignee := trimmed(input.AssignedStaffID)
			if assignee == nil && principal.Role == domain.RoleStaff {
				staffID, err := s.access.StaffID(ctx, *principal)
				if err != nil {
					return err
				}
				assignee = &staffID
			}
			if assignee != nil {
				if err := requireAvailableStaff(ctx, s.staff, *assignee); err != nil {
					return err
				}
			}
			lead.AssignedStaffID = assignee
		}

		number, err := nextNumber(ctx, s.sequences, SequenceLead, s.clock.Now())
		if err != nil {
			return apperrors.MapError(err)
		}
		lead.LeadID = number
		if err := s.leads.Create(ctx, lead); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actorID, AuditCreate, "lead", lead.ID, nil, leadValues(lead))
	})
	if err != nil {
		return nil, err
	}

	var actor *string
	if actorID != "" {
		actor = &actorID
	}
	publishAll(ctx, s.dispatcher, []events.Event{
		events.New(events.EventLeadCreated, lead.ID, actor, s.clock.Now(), s.leadPayload(lead)),
	})
	return lead, nil
}

// Get returns a lead. Staff see their own leads and unassigned ones; a
// missing lead looks the same as a foreign one to non-admins.
func (s *LeadService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if !principal.IsAdmin() && errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("lead outside caller scope")
		}
		return nil, lookupError("lead", id, err)
	}
	if err := s.requireLeadAccess(ctx, principal, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// List returns leads visible to the caller.
func (s *LeadService) List(ctx context.Context, principal domain.Principal, filter LeadListFilter) ([]domain.Lead, error) {
	repoFilter := repository.LeadFilter{
		Statuses: filter.Statuses,
		Source:   filter.Source,
		Search:   filter.Search,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	switch principal.Role {
	case domain.RoleAdmin:
	case domain.RoleStaff:
		staffID, err := s.access.StaffID(ctx, principal)
		if err != nil {
			return nil, err
		}
		repoFilter.AssignedStaffID = &staffID
		repoFilter.IncludeUnassigned = true
	default:
		return nil, apperrors.NewForbidden("leads are internal")
	}
	leads, err := s.leads.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return leads, nil
}

// Update edits lead details. Closed leads cannot be edited.
func (s *LeadService) Update(ctx context.Context, principal domain.Principal, id string, input LeadUpdateInput) (*domain.Lead, error) {
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.NewValidationError("name cannot be empty", map[string]any{"field": "name"})
	}
	if input.Email != nil {
		if err := validateEmail(normalizeEmail(*input.Email)); err != nil {
			return nil, err
		}
	}
	if err := s.catalog.requireActiveItem(trimmed(input.ServiceItemID)); err != nil {
		return nil, err
	}

	var lead *domain.Lead
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if lead.Status.Terminal() {
			return apperrors.NewConflict("lead is closed", map[string]any{"status": lead.Status})
		}
		before := leadValues(lead)
		applyString(&lead.Name, input.Name)
		if input.Email != nil {
			lead.Email = normalizeEmail(*input.Email)
		}
		applyString(&lead.Phone, input.Phone)
		applyString(&lead.CompanyName, input.CompanyName)
		applyString(&lead.Notes, input.Notes)
		if input.Priority != nil {
			lead.Priority = *input.Priority
		}
		if item := trimmed(input.ServiceItemID); item != nil {
			lead.ServiceItemID = item
		}
		if err := s.leads.Update(ctx, lead); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditUpdate, "lead", lead.ID, before, leadValues(lead))
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// UpdateStatus moves a lead through the funnel. Terminal leads are frozen,
// CONVERTED is reachable only through conversion and LOST needs a reason.
func (s *LeadService) UpdateStatus(ctx context.Context, principal domain.Principal, id string, status domain.LeadStatus, lostReason string) (*domain.Lead, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	lostReason = strings.TrimSpace(lostReason)
	if status == domain.LeadStatusLost && lostReason == "" {
		return nil, apperrors.NewValidationError("lost_reason is required", map[string]any{"field": "lost_reason"})
	}

	var lead *domain.Lead
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if lead.Status.Terminal() || status == domain.LeadStatusConverted {
			return apperrors.NewInvalidStateTransition(string(lead.Status), string(status))
		}
		old := lead.Status
		lead.Status = status
		if status == domain.LeadStatusLost {
			lead.LostReason = lostReason
		}
		if err := s.leads.Update(ctx, lead); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditStatusChange, "lead", lead.ID,
			map[string]any{"status": old}, map[string]any{"status": status, "lost_reason": lead.LostReason})
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// Assign hands a lead to a staff member. Admin only.
func (s *LeadService) Assign(ctx context.Context, actor domain.Principal, id, staffID string) (*domain.Lead, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can assign leads")
	}
	var lead *domain.Lead
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.leads.GetByID(ctx, id)
		if err != nil {
			return lookupError("lead", id, err)
		}
		if lead.Status.Terminal() {
			return apperrors.NewConflict("lead is closed", map[string]any{"status": lead.Status})
		}
		if err := requireAvailableStaff(ctx, s.staff, staffID); err != nil {
			return err
		}
		before := map[string]any{"assigned_staff_id": lead.AssignedStaffID}
		lead.AssignedStaffID = &staffID
		if err := s.leads.Update(ctx, lead); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actor.UserID, AuditAssign, "lead", lead.ID, before,
			map[string]any{"assigned_staff_id": staffID})
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{
		events.New(events.EventLeadAssigned, lead.ID, strPtr(actor.UserID), s.clock.Now(), s.leadPayload(lead)),
	})
	return lead, nil
}

// Convert turns an open lead into a client. The CLIENT user, the client
// profile and the lead update commit together; the lead's assignee becomes
// the client's account manager.
func (s *LeadService) Convert(ctx context.Context, principal domain.Principal, id string, input LeadConversionInput) (*LeadConversion, error) {
	var result *LeadConversion
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lead, err := s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if lead.Status.Terminal() {
			return apperrors.NewInvalidStateTransition(string(lead.Status), string(domain.LeadStatusConverted))
		}

		profile := input.Profile
		if strings.TrimSpace(profile.CompanyName) == "" {
			profile.CompanyName = lead.CompanyName
		}
		if strings.TrimSpace(profile.CompanyName) == "" {
			profile.CompanyName = lead.Name
		}
		first, last := splitName(lead.Name)
		account, err := createClientAccount(ctx, s.users, s.clients, AccountInput{
			Email:     lead.Email,
			Password:  input.Password,
			FirstName: first,
			LastName:  last,
			Phone:     lead.Phone,
		}, profile, lead.AssignedStaffID, s.bcryptCost)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		old := lead.Status
		lead.Status = domain.LeadStatusConverted
		lead.ConvertedDate = &now
		lead.ConvertedClientID = &account.Client.ID
		if err := s.leads.Update(ctx, lead); err != nil {
			return apperrors.MapError(err)
		}
		if err := s.audit.Record(ctx, principal.UserID, AuditConvert, "lead", lead.ID,
			map[string]any{"status": old},
			map[string]any{"status": lead.Status, "converted_client_id": account.Client.ID}); err != nil {
			return err
		}
		result = &LeadConversion{Lead: lead, Account: account}
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{
		events.New(events.EventLeadConverted, result.Lead.ID, strPtr(principal.UserID), s.clock.Now(), s.leadPayload(result.Lead)),
	})
	return result, nil
}

func (s *LeadService) requireLeadAccess(ctx context.Context, principal domain.Principal, lead *domain.Lead) error {
	switch principal.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleStaff:
		staffID, err := s.access.StaffID(ctx, principal)
		if err != nil {
			return err
		}
		if lead.AssignedStaffID == nil || *lead.AssignedStaffID == staffID {
			return nil
		}
	}
	return apperrors.NewForbidden("lead outside caller scope")
}

func (s *LeadService) leadPayload(lead *domain.Lead) events.LeadPayload {
	return events.LeadPayload{
		LeadNumber:      lead.LeadID,
		Name:            lead.Name,
		CompanyName:     lead.CompanyName,
		AssigneeStaffID: lead.AssignedStaffID,
		ClientID:        lead.ConvertedClientID,
	}
}

func validLeadSource(source domain.LeadSource) bool {
	switch source {
	case domain.LeadSourceWebsite, domain.LeadSourceReferral, domain.LeadSourcePhone, domain.LeadSourceWalkIn, domain.LeadSourceOther:
		return true
	}
	return false
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func leadValues(l *domain.Lead) map[string]any {
	return map[string]any{
		"lead_id":           l.LeadID,
		"name":              l.Name,
		"email":             l.Email,
		"status":            l.Status,
		"priority":          l.Priority,
		"assigned_staff_id": l.AssignedStaffID,
	}
}

