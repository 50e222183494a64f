package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/backoffice/internal/access"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/deadline"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// TaskView is a task with its deadline classification, computed at read time.
type TaskView struct {
	domain.Task
	Deadline deadline.Classification
}

// TaskCreateInput describes a new task.
type TaskCreateInput struct {
	Title           string
	Description     string
	ClientID        string
	AssignedStaffID *string
	ServiceItemID   *string
	Priority        domain.Priority
	DueDate         *time.Time
	EstimatedHours  *float64
}

// TaskUpdateInput carries optional detail changes.
type TaskUpdateInput struct {
	Title          *string
	Description    *string
	Priority       *domain.Priority
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
}

// TaskListFilter narrows task listings. Deadline selects DUE_SOON or
// OVERDUE tasks by translating the classification into a due window.
type TaskListFilter struct {
	ClientID        *string
	AssignedStaffID *string
	Statuses        []domain.TaskStatus
	Priority        *domain.Priority
	Deadline        *deadline.Classification
	Search          string
	Limit           int
	Offset          int
}

// TaskService manages client work items.
type TaskService struct {
	tasks      repository.TaskRepository
	clients    repository.ClientRepository
	staff      repository.StaffRepository
	tx         repository.TxManager
	access     *access.Resolver
	catalog    *CatalogService
	audit      *AuditService
	dispatcher events.Dispatcher
	clock      clock.Clock
}

// TaskDependencies bundles requirements.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	ClientRepo repository.ClientRepository
	StaffRepo  repository.StaffRepository
	TxManager  repository.TxManager
	Access     *access.Resolver
	Catalog    *CatalogService
	Audit      *AuditService
	Dispatcher events.Dispatcher
	Clock      clock.Clock
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &TaskService{
		tasks:      deps.TaskRepo,
		clients:    deps.ClientRepo,
		staff:      deps.StaffRepo,
		tx:         deps.TxManager,
		access:     deps.Access,
		catalog:    deps.Catalog,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		clock:      clk,
	}
}

var taskTransitions = map[domain.TaskStatus][]domain.TaskStatus{
	domain.TaskStatusPending:    {domain.TaskStatusInProgress, domain.TaskStatusCancelled},
	domain.TaskStatusInProgress: {domain.TaskStatusCompleted, domain.TaskStatusOnHold, domain.TaskStatusCancelled},
	domain.TaskStatusOnHold:     {domain.TaskStatusInProgress, domain.TaskStatusCancelled},
}

func isValidTaskTransition(current, next domain.TaskStatus) bool {
	for _, candidate := range taskTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Create opens a task for a client in the caller's scope.
func (s *TaskService) Create(ctx context.Context, actor domain.Principal, input TaskCreateInput) (*TaskView, error) {
	task := &domain.Task{
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		ClientID:        strings.TrimSpace(input.ClientID),
		AssignedStaffID: trimmed(input.AssignedStaffID),
		ServiceItemID:   trimmed(input.ServiceItemID),
		Priority:        input.Priority,
		DueDate:         input.DueDate,
		CreatedByID:     actor.UserID,
	}
	if err := requireField("title", task.Title); err != nil {
		return nil, err
	}
	if err := requireField("client_id", task.ClientID); err != nil {
		return nil, err
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if !task.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": task.Priority})
	}
	if input.EstimatedHours != nil {
		if *input.EstimatedHours < 0 {
			return nil, apperrors.NewValidationError("estimated_hours cannot be negative", map[string]any{"field": "estimated_hours"})
		}
		task.EstimatedHours = *input.EstimatedHours
	}
	if err := s.catalog.requireActiveItem(task.ServiceItemID); err != nil {
		return nil, err
	}
	if input.EstimatedHours == nil && task.ServiceItemID != nil {
		if item, ok := s.catalog.Item(*task.ServiceItemID); ok {
			task.EstimatedHours = item.EstimatedHours
		}
	}

	var evts []events.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireClientForWrite(ctx, actor, task.ClientID); err != nil {
			return err
		}
		if task.AssignedStaffID != nil {
			if err := requireAvailableStaff(ctx, s.staff, *task.AssignedStaffID); err != nil {
				return err
			}
		}
		var err error
		evts, err = createTaskRecord(ctx, s.tasks, task, actor, s.clock.Now())
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, actor.UserID, AuditCreate, "task", task.ID, nil, taskValues(task))
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, evts)
	return s.view(task), nil
}

// Get returns a task in the caller's scope.
func (s *TaskService) Get(ctx context.Context, principal domain.Principal, id string) (*TaskView, error) {
	task, err := s.load(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return s.view(task), nil
}

// List returns the caller's visible tasks, each classified.
func (s *TaskService) List(ctx context.Context, principal domain.Principal, filter TaskListFilter) ([]TaskView, error) {
	repoFilter, err := s.scopedFilter(ctx, principal, filter)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.clock.Now()
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, TaskView{Task: tasks[i], Deadline: deadline.ClassifyTask(&tasks[i], now)})
	}
	return views, nil
}

// DeadlineSummary counts the caller's visible tasks per classification.
func (s *TaskService) DeadlineSummary(ctx context.Context, principal domain.Principal) (deadline.Summary, error) {
	repoFilter, err := s.scopedFilter(ctx, principal, TaskListFilter{})
	if err != nil {
		return deadline.Summary{}, err
	}
	repoFilter.Unbounded = true
	tasks, err := s.tasks.List(ctx, repoFilter)
	if err != nil {
		return deadline.Summary{}, apperrors.MapError(err)
	}
	return deadline.Summarize(tasks, s.clock.Now()), nil
}

// Update edits task details. Closed tasks cannot be edited.
func (s *TaskService) Update(ctx context.Context, principal domain.Principal, id string, input TaskUpdateInput) (*TaskView, error) {
	if principal.Role == domain.RoleClient {
		return nil, apperrors.NewForbidden("clients cannot edit tasks")
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, apperrors.NewValidationError("title cannot be empty", map[string]any{"field": "title"})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
	}
	if input.EstimatedHours != nil && *input.EstimatedHours < 0 {
		return nil, apperrors.NewValidationError("estimated_hours cannot be negative", map[string]any{"field": "estimated_hours"})
	}

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.load(ctx, principal, id)
		if err != nil {
			return err
		}
		if task.Status.Terminal() {
			return apperrors.NewConflict("task is closed", map[string]any{"status": task.Status})
		}
		before := taskValues(task)
		applyString(&task.Title, input.Title)
		applyString(&task.Description, input.Description)
		if input.Priority != nil {
			task.Priority = *input.Priority
		}
		if input.ClearDueDate {
			task.DueDate = nil
		} else if input.DueDate != nil {
			task.DueDate = input.DueDate
		}
		if input.EstimatedHours != nil {
			task.EstimatedHours = *input.EstimatedHours
		}
		if err := s.tasks.Update(ctx, task); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditUpdate, "task", task.ID, before, taskValues(task))
	})
	if err != nil {
		return nil, err
	}
	return s.view(task), nil
}

// UpdateStatus applies one step of the task state machine. Entering
// IN_PROGRESS stamps StartedDate once; entering COMPLETED stamps
// CompletedDate.
func (s *TaskService) UpdateStatus(ctx context.Context, principal domain.Principal, id string, status domain.TaskStatus) (*TaskView, error) {
	if principal.Role == domain.RoleClient {
		return nil, apperrors.NewForbidden("clients cannot change task status")
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	var (
		task *domain.Task
		old  domain.TaskStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.load(ctx, principal, id)
		if err != nil {
			return err
		}
		old = task.Status
		if !isValidTaskTransition(old, status) {
			return apperrors.NewInvalidStateTransition(string(old), string(status))
		}
		now := s.clock.Now()
		switch status {
		case domain.TaskStatusInProgress:
			if task.StartedDate == nil {
				task.StartedDate = timePtr(now)
			}
		case domain.TaskStatusCompleted:
			if task.StartedDate != nil && now.Before(*task.StartedDate) {
				return apperrors.NewInvalidStateTransition(string(old), string(status))
			}
			task.CompletedDate = timePtr(now)
		}
		task.Status = status
		if err := s.tasks.Update(ctx, task); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditStatusChange, "task", task.ID,
			map[string]any{"status": old}, map[string]any{"status": status})
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{
		events.New(events.EventTaskStatusChanged, task.ID, strPtr(principal.UserID), s.clock.Now(), taskPayload(task, old)),
	})
	return s.view(task), nil
}

// Reassign moves a task to another available staff member.
func (s *TaskService) Reassign(ctx context.Context, principal domain.Principal, id, staffID string) (*TaskView, error) {
	if principal.Role == domain.RoleClient {
		return nil, apperrors.NewForbidden("clients cannot assign tasks")
	}
	staffID = strings.TrimSpace(staffID)
	if err := requireField("staff_id", staffID); err != nil {
		return nil, err
	}

	var task *domain.Task
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.load(ctx, principal, id)
		if err != nil {
			return err
		}
		if task.Status.Terminal() {
			return apperrors.NewInvalidStateTransition(string(task.Status), string(task.Status))
		}
		if err := requireAvailableStaff(ctx, s.staff, staffID); err != nil {
			return err
		}
		before := map[string]any{"assigned_staff_id": task.AssignedStaffID}
		task.AssignedStaffID = &staffID
		task.AssignedDate = timePtr(s.clock.Now())
		if err := s.tasks.Update(ctx, task); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditAssign, "task", task.ID, before,
			map[string]any{"assigned_staff_id": staffID})
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{
		events.New(events.EventTaskAssigned, task.ID, strPtr(principal.UserID), s.clock.Now(), taskPayload(task, "")),
	})
	return s.view(task), nil
}

// Delete removes a task and its document links.
func (s *TaskService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.GetByID(ctx, id)
		if err != nil {
			return lookupError("task", id, err)
		}
		if err := s.tasks.Delete(ctx, id); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, actor.UserID, AuditDelete, "task", id, taskValues(task), nil)
	})
}

// load checks task scope before reading, so non-admins cannot probe for ids.
func (s *TaskService) load(ctx context.Context, principal domain.Principal, id string) (*domain.Task, error) {
	if err := s.access.RequireTask(ctx, principal, id); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("task", id, err)
	}
	return task, nil
}

func (s *TaskService) requireClientForWrite(ctx context.Context, principal domain.Principal, clientID string) error {
	if principal.Role == domain.RoleClient {
		return apperrors.NewForbidden("clients cannot create tasks")
	}
	if err := s.access.RequireClient(ctx, principal, clientID); err != nil {
		return err
	}
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return lookupError("client", clientID, err)
	}
	if !client.IsActive {
		return apperrors.NewValidationError("client is inactive", map[string]any{"client_id": clientID})
	}
	return nil
}

func (s *TaskService) scopedFilter(ctx context.Context, principal domain.Principal, filter TaskListFilter) (repository.TaskFilter, error) {
	scope, err := s.access.ResolveTaskScope(ctx, principal)
	if err != nil {
		return repository.TaskFilter{}, err
	}
	repoFilter := repository.TaskFilter{
		Scoped:          !scope.IsAll(),
		IDs:             scope.IDs(),
		ClientID:        filter.ClientID,
		AssignedStaffID: filter.AssignedStaffID,
		Statuses:        filter.Statuses,
		Priority:        filter.Priority,
		Search:          filter.Search,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	}
	if filter.Deadline != nil {
		if err := applyDeadlineWindow(&repoFilter, *filter.Deadline, s.clock.Now()); err != nil {
			return repository.TaskFilter{}, err
		}
	}
	return repoFilter, nil
}

// applyDeadlineWindow expresses a classification as a due-date range over
// actionable tasks. SAFE has no single range and is rejected.
func applyDeadlineWindow(filter *repository.TaskFilter, class deadline.Classification, now time.Time) error {
	today := startOfToday(now)
	switch class {
	case deadline.Overdue:
		filter.DueTo = &today
	case deadline.DueSoon:
		end := today.AddDate(0, 0, deadline.DueSoonWindowDays+1)
		filter.DueFrom = &today
		filter.DueTo = &end
	default:
		return apperrors.NewValidationError("deadline filter must be DUE_SOON or OVERDUE", map[string]any{"deadline": class})
	}
	statuses := []domain.TaskStatus{}
	for _, st := range filter.Statuses {
		if st.Actionable() {
			statuses = append(statuses, st)
		}
	}
	if len(filter.Statuses) == 0 {
		statuses = []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress}
	}
	if len(statuses) == 0 {
		// Requested only non-actionable statuses: nothing can match.
		filter.Scoped = true
		filter.IDs = nil
	}
	filter.Statuses = statuses
	return nil
}

func (s *TaskService) view(task *domain.Task) *TaskView {
	return &TaskView{Task: *task, Deadline: deadline.ClassifyTask(task, s.clock.Now())}
}

// createTaskRecord inserts a new PENDING task and returns the events to
// publish after commit. Callers own the transaction.
func createTaskRecord(ctx context.Context, tasks repository.TaskRepository, task *domain.Task, actor domain.Principal, now time.Time) ([]events.Event, error) {
	task.Status = domain.TaskStatusPending
	if task.AssignedStaffID != nil {
		task.AssignedDate = timePtr(now)
	}
	if err := tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}
	evts := []events.Event{
		events.New(events.EventTaskCreated, task.ID, strPtr(actor.UserID), now, taskPayload(task, "")),
	}
	if task.AssignedStaffID != nil {
		evts = append(evts, events.New(events.EventTaskAssigned, task.ID, strPtr(actor.UserID), now, taskPayload(task, "")))
	}
	return evts, nil
}

func taskPayload(task *domain.Task, old domain.TaskStatus) events.TaskPayload {
	return events.TaskPayload{
		Title:           task.Title,
		ClientID:        task.ClientID,
		AssigneeStaffID: task.AssignedStaffID,
		OldStatus:       old,
		NewStatus:       task.Status,
		DueDate:         task.DueDate,
	}
}

func taskValues(t *domain.Task) map[string]any {
	return map[string]any{
		"title":             t.Title,
		"client_id":         t.ClientID,
		"assigned_staff_id": t.AssignedStaffID,
		"status":            t.Status,
		"priority":          t.Priority,
		"due_date":          t.DueDate,
	}
}
