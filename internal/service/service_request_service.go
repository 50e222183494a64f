package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/access"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/deadline"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// ServiceRequestCreateInput describes a request for work. ClientID is
// ignored for CLIENT callers, who always file for themselves.
type ServiceRequestCreateInput struct {
	ClientID          string
	ServiceItemID     *string
	Title             string
	Description       string
	Priority          domain.Priority
	PreferredDeadline *time.Time
}

// ServiceRequestListFilter narrows listings.
type ServiceRequestListFilter struct {
	ClientID *string
	Statuses []domain.ServiceRequestStatus
	Limit    int
	Offset   int
}

// ServiceRequestConversion is the result of turning a request into a task.
type ServiceRequestConversion struct {
	Request *domain.ServiceRequest
	Task    *TaskView
}

// ServiceRequestService manages client service requests.
type ServiceRequestService struct {
	requests   repository.ServiceRequestRepository
	clients    repository.ClientRepository
	staff      repository.StaffRepository
	tasks      repository.TaskRepository
	sequences  repository.SequenceRepository
	tx         repository.TxManager
	access     *access.Resolver
	catalog    *CatalogService
	audit      *AuditService
	dispatcher events.Dispatcher
	clock      clock.Clock
}

// ServiceRequestDependencies bundles requirements.
type ServiceRequestDependencies struct {
	ServiceRequestRepo repository.ServiceRequestRepository
	ClientRepo         repository.ClientRepository
	StaffRepo          repository.StaffRepository
	TaskRepo           repository.TaskRepository
	SequenceRepo       repository.SequenceRepository
	TxManager          repository.TxManager
	Access             *access.Resolver
	Catalog            *CatalogService
	Audit              *AuditService
	Dispatcher         events.Dispatcher
	Clock              clock.Clock
}

// NewServiceRequestService constructs the service.
func NewServiceRequestService(deps ServiceRequestDependencies) *ServiceRequestService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &ServiceRequestService{
		requests:   deps.ServiceRequestRepo,
		clients:    deps.ClientRepo,
		staff:      deps.StaffRepo,
		tasks:      deps.TaskRepo,
		sequences:  deps.SequenceRepo,
		tx:         deps.TxManager,
		access:     deps.Access,
		catalog:    deps.Catalog,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		clock:      clk,
	}
}

var serviceRequestTransitions = map[domain.ServiceRequestStatus][]domain.ServiceRequestStatus{
	domain.ServiceRequestPending:    {domain.ServiceRequestAssigned, domain.ServiceRequestCancelled},
	domain.ServiceRequestAssigned:   {domain.ServiceRequestAccepted, domain.ServiceRequestRejected, domain.ServiceRequestCancelled},
	domain.ServiceRequestAccepted:   {domain.ServiceRequestInProgress, domain.ServiceRequestCompleted, domain.ServiceRequestCancelled},
	domain.ServiceRequestInProgress: {domain.ServiceRequestCompleted, domain.ServiceRequestCancelled},
}

func isValidServiceRequestTransition(current, next domain.ServiceRequestStatus) bool {
	for _, candidate := range serviceRequestTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Create files a request. Clients file for themselves; staff and admins
// file for a client in their scope.
func (s *ServiceRequestService) Create(ctx context.Context, principal domain.Principal, input ServiceRequestCreateInput) (*domain.ServiceRequest, error) {
	request := &domain.ServiceRequest{
		ClientID:          strings.TrimSpace(input.ClientID),
		ServiceItemID:     trimmed(input.ServiceItemID),
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		Status:            domain.ServiceRequestPending,
		Priority:          input.Priority,
		PreferredDeadline: input.PreferredDeadline,
	}
	if err := requireField("title", request.Title); err != nil {
		return nil, err
	}
	if request.Priority == "" {
		request.Priority = domain.PriorityMedium
	}
	if !request.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": request.Priority})
	}
	if err := s.catalog.requireActiveItem(request.ServiceItemID); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if principal.Role == domain.RoleClient {
			clientID, err := s.access.ClientID(ctx, principal)
			if err != nil {
				return err
			}
			request.ClientID = clientID
		} else {
			if err := requireField("client_id", request.ClientID); err != nil {
				return err
			}
			if err := s.access.RequireClient(ctx, principal, request.ClientID); err != nil {
				return err
			}
			if _, err := s.clients.GetByID(ctx, request.ClientID); err != nil {
				return lookupError("client", request.ClientID, err)
			}
		}
		number, err := nextNumber(ctx, s.sequences, SequenceServiceRequest, s.clock.Now())
		if err != nil {
			return apperrors.MapError(err)
		}
		request.RequestID = number
		if err := s.requests.Create(ctx, request); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditCreate, "service_request", request.ID, nil, serviceRequestValues(request))
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.event(events.EventServiceRequestCreated, principal, request)})
	return request, nil
}

// Get returns a request visible to the caller: its client is in scope or,
// for staff, it is assigned to the caller.
func (s *ServiceRequestService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.ServiceRequest, error) {
	scope, staffID, err := s.scope(ctx, principal)
	if err != nil {
		return nil, err
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if !principal.IsAdmin() && errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("service request outside caller scope")
		}
		return nil, lookupError("service request", id, err)
	}
	if scope.Contains(request.ClientID) {
		return request, nil
	}
	if staffID != "" && request.AssignedStaffID != nil && *request.AssignedStaffID == staffID {
		return request, nil
	}
	return nil, apperrors.NewForbidden("service request outside caller scope")
}

// List returns requests visible to the caller.
func (s *ServiceRequestService) List(ctx context.Context, principal domain.Principal, filter ServiceRequestListFilter) ([]domain.ServiceRequest, error) {
	scope, staffID, err := s.scope(ctx, principal)
	if err != nil {
		return nil, err
	}
	repoFilter := repository.ServiceRequestFilter{
		Scoped:    !scope.IsAll(),
		ClientIDs: scope.IDs(),
		ClientID:  filter.ClientID,
		Statuses:  filter.Statuses,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	if staffID != "" {
		repoFilter.OrAssignedStaffID = &staffID
	}
	requests, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// Assign hands a PENDING or ASSIGNED request to an available staff member.
func (s *ServiceRequestService) Assign(ctx context.Context, principal domain.Principal, id, staffID string) (*domain.ServiceRequest, error) {
	if principal.Role == domain.RoleClient {
		return nil, apperrors.NewForbidden("clients cannot assign requests")
	}
	staffID = strings.TrimSpace(staffID)
	if err := requireField("staff_id", staffID); err != nil {
		return nil, err
	}
	var request *domain.ServiceRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if request.Status != domain.ServiceRequestPending && request.Status != domain.ServiceRequestAssigned {
			return apperrors.NewInvalidStateTransition(string(request.Status), string(domain.ServiceRequestAssigned))
		}
		if err := requireAvailableStaff(ctx, s.staff, staffID); err != nil {
			return err
		}
		before := map[string]any{"status": request.Status, "assigned_staff_id": request.AssignedStaffID}
		request.AssignedStaffID = &staffID
		request.Status = domain.ServiceRequestAssigned
		if err := s.requests.Update(ctx, request); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditAssign, "service_request", request.ID, before,
			map[string]any{"status": request.Status, "assigned_staff_id": staffID})
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.event(events.EventServiceRequestUpdated, principal, request)})
	return request, nil
}

// Respond lets the assigned staff member accept or reject an ASSIGNED
// request. Rejection needs a reason.
func (s *ServiceRequestService) Respond(ctx context.Context, principal domain.Principal, id string, accept bool, reason string) (*domain.ServiceRequest, error) {
	reason = strings.TrimSpace(reason)
	if !accept && reason == "" {
		return nil, apperrors.NewValidationError("rejection_reason is required", map[string]any{"field": "rejection_reason"})
	}
	next := domain.ServiceRequestAccepted
	if !accept {
		next = domain.ServiceRequestRejected
	}

	var request *domain.ServiceRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if !principal.IsAdmin() {
			staffID, err := s.access.StaffID(ctx, principal)
			if err != nil {
				return err
			}
			if request.AssignedStaffID == nil || *request.AssignedStaffID != staffID {
				return apperrors.NewForbidden("only the assigned staff member can respond")
			}
		}
		if request.Status != domain.ServiceRequestAssigned {
			return apperrors.NewInvalidStateTransition(string(request.Status), string(next))
		}
		return s.transition(ctx, principal, request, next, reason)
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.event(events.EventServiceRequestUpdated, principal, request)})
	return request, nil
}

// UpdateStatus applies one step of the request state machine. ASSIGNED is
// reached through Assign and rejection through Respond.
func (s *ServiceRequestService) UpdateStatus(ctx context.Context, principal domain.Principal, id string, status domain.ServiceRequestStatus) (*domain.ServiceRequest, error) {
	if principal.Role == domain.RoleClient {
		return nil, apperrors.NewForbidden("clients can only cancel requests")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	var request *domain.ServiceRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if status == domain.ServiceRequestAssigned || status == domain.ServiceRequestRejected ||
			!isValidServiceRequestTransition(request.Status, status) {
			return apperrors.NewInvalidStateTransition(string(request.Status), string(status))
		}
		return s.transition(ctx, principal, request, status, "")
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.event(events.EventServiceRequestUpdated, principal, request)})
	return request, nil
}

// Cancel withdraws a request that has not finished.
func (s *ServiceRequestService) Cancel(ctx context.Context, principal domain.Principal, id string) (*domain.ServiceRequest, error) {
	var request *domain.ServiceRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if !isValidServiceRequestTransition(request.Status, domain.ServiceRequestCancelled) {
			return apperrors.NewInvalidStateTransition(string(request.Status), string(domain.ServiceRequestCancelled))
		}
		return s.transition(ctx, principal, request, domain.ServiceRequestCancelled, "")
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.event(events.EventServiceRequestUpdated, principal, request)})
	return request, nil
}

// ConvertToTask creates a task from an ACCEPTED request and completes the
// request in the same transaction.
func (s *ServiceRequestService) ConvertToTask(ctx context.Context, principal domain.Principal, id string) (*ServiceRequestConversion, error) {
	if principal.Role == domain.RoleClient {
		return nil, apperrors.NewForbidden("clients cannot convert requests")
	}
	var (
		request *domain.ServiceRequest
		task    *domain.Task
		evts    []events.Event
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if request.Status != domain.ServiceRequestAccepted {
			return apperrors.NewInvalidStateTransition(string(request.Status), string(domain.ServiceRequestCompleted))
		}
		task = &domain.Task{
			Title:            request.Title,
			Description:      request.Description,
			ClientID:         request.ClientID,
			AssignedStaffID:  request.AssignedStaffID,
			ServiceItemID:    request.ServiceItemID,
			ServiceRequestID: &request.ID,
			Priority:         request.Priority,
			DueDate:          request.PreferredDeadline,
			CreatedByID:      principal.UserID,
		}
		if request.ServiceItemID != nil {
			if item, ok := s.catalog.Item(*request.ServiceItemID); ok {
				task.EstimatedHours = item.EstimatedHours
			}
		}
		evts, err = createTaskRecord(ctx, s.tasks, task, principal, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, principal.UserID, AuditCreate, "task", task.ID, nil, taskValues(task)); err != nil {
			return err
		}
		request.ConvertedTaskID = &task.ID
		return s.transition(ctx, principal, request, domain.ServiceRequestCompleted, "")
	})
	if err != nil {
		return nil, err
	}
	evts = append(evts, s.event(events.EventServiceRequestUpdated, principal, request))
	publishAll(ctx, s.dispatcher, evts)
	return &ServiceRequestConversion{
		Request: request,
		Task:    &TaskView{Task: *task, Deadline: deadline.ClassifyTask(task, s.clock.Now())},
	}, nil
}

func (s *ServiceRequestService) transition(ctx context.Context, principal domain.Principal, request *domain.ServiceRequest,
	next domain.ServiceRequestStatus, reason string) error {
	old := request.Status
	request.Status = next
	if next == domain.ServiceRequestRejected {
		request.RejectionReason = reason
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return apperrors.MapError(err)
	}
	return s.audit.Record(ctx, principal.UserID, AuditStatusChange, "service_request", request.ID,
		map[string]any{"status": old},
		map[string]any{"status": next, "rejection_reason": request.RejectionReason, "converted_task_id": request.ConvertedTaskID})
}

// scope returns the caller's client scope and, for staff, their staff id.
func (s *ServiceRequestService) scope(ctx context.Context, principal domain.Principal) (access.Scope, string, error) {
	scope, err := s.access.ResolveClientScope(ctx, principal)
	if err != nil {
		return access.Scope{}, "", err
	}
	if principal.Role != domain.RoleStaff {
		return scope, "", nil
	}
	staffID, err := s.access.StaffID(ctx, principal)
	if err != nil {
		return access.Scope{}, "", err
	}
	return scope, staffID, nil
}

func (s *ServiceRequestService) event(eventType events.EventType, principal domain.Principal, request *domain.ServiceRequest) events.Event {
	return events.New(eventType, request.ID, strPtr(principal.UserID), s.clock.Now(), events.ServiceRequestPayload{
		RequestNumber:   request.RequestID,
		ClientID:        request.ClientID,
		Title:           request.Title,
		Status:          request.Status,
		AssigneeStaffID: request.AssignedStaffID,
	})
}

func serviceRequestValues(r *domain.ServiceRequest) map[string]any {
	return map[string]any{
		"request_id":        r.RequestID,
		"client_id":         r.ClientID,
		"title":             r.Title,
		"status":            r.Status,
		"priority":          r.Priority,
		"assigned_staff_id": r.AssignedStaffID,
	}
}
