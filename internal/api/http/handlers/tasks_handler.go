package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/deadline"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// TasksHandler manages tasks for all roles; the service applies scope.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: taskService}
}

// Create handles POST /tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TaskCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.Create(c.UserContext(), actor, service.TaskCreateInput{
		Title:           req.Title,
		Description:     req.Description,
		ClientID:        req.ClientID,
		AssignedStaffID: req.AssignedStaffID,
		ServiceItemID:   req.ServiceItemID,
		Priority:        req.Priority,
		DueDate:         req.DueDate,
		EstimatedHours:  req.EstimatedHours,
	})
	if err != nil {
		return err
	}
	return respondCreated(c, taskResponse(task))
}

// List handles GET /tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	filter, err := parseTaskFilter(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(tasks, taskResponse))
}

// DeadlineSummary handles GET /tasks/deadline-summary.
func (h *TasksHandler) DeadlineSummary(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	summary, err := h.tasks.DeadlineSummary(c.UserContext(), principal)
	if err != nil {
		return err
	}
	return respond(c, summary)
}

// Get handles GET /tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, taskResponse(task))
}

// Update handles PATCH /tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TaskUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.Update(c.UserContext(), principal, c.Params("id"), service.TaskUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		ClearDueDate:   req.ClearDueDate,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		return err
	}
	return respond(c, taskResponse(task))
}

// UpdateStatus handles PATCH /tasks/:id/status.
func (h *TasksHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TaskStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.UpdateStatus(c.UserContext(), principal, c.Params("id"), domain.TaskStatus(strings.ToUpper(string(req.Status))))
	if err != nil {
		return err
	}
	return respond(c, taskResponse(task))
}

// Reassign handles PUT /tasks/:id/assignee.
func (h *TasksHandler) Reassign(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignStaffRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.StaffID == "" {
		return apperrors.NewValidationError("staff_id required", map[string]any{"field": "staff_id"})
	}
	task, err := h.tasks.Reassign(c.UserContext(), principal, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return respond(c, taskResponse(task))
}

// Delete handles DELETE /tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseTaskFilter(c *fiber.Ctx) (service.TaskListFilter, error) {
	filter := service.TaskListFilter{
		ClientID:        queryString(c, "client_id"),
		AssignedStaffID: queryString(c, "assigned_staff_id"),
		Statuses:        queryList[domain.TaskStatus](c, "status"),
		Search:          c.Query("search"),
	}
	if raw := queryString(c, "priority"); raw != nil {
		priority := domain.Priority(strings.ToUpper(*raw))
		filter.Priority = &priority
	}
	if raw := queryString(c, "deadline"); raw != nil {
		class := deadline.Classification(strings.ToUpper(*raw))
		switch class {
		case deadline.Safe, deadline.DueSoon, deadline.Overdue:
			filter.Deadline = &class
		default:
			return filter, apperrors.NewValidationError("unknown deadline classification", map[string]any{"deadline": *raw})
		}
	}
	filter.Limit, filter.Offset = pagination(c)
	return filter, nil
}
