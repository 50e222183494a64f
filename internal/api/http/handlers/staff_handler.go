package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/repository"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// StaffHandler manages employee profiles.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staffService}
}

// Create handles POST /staff.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.staff.Create(c.UserContext(), actor, service.StaffCreateInput{
		Account:      accountInput(req.AccountRequest),
		EmployeeID:   req.EmployeeID,
		Designation:  req.Designation,
		Department:   req.Department,
		SupervisorID: req.SupervisorID,
		HourlyRate:   req.HourlyRate,
		JoiningDate:  req.JoiningDate,
	})
	if err != nil {
		return err
	}
	return respondCreated(c, dto.AccountCreatedResponse{
		User:              userResponse(account.User),
		Profile:           staffResponse(account.Staff),
		TemporaryPassword: account.TemporaryPassword,
	})
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	available, err := queryBool(c, "available")
	if err != nil {
		return err
	}
	filter := repository.StaffFilter{Department: queryString(c, "department"), Available: available}
	filter.Limit, filter.Offset = pagination(c)

	staff, err := h.staff.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(staff, staffResponse))
}

// Get handles GET /staff/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	staff, err := h.staff.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, staffResponse(staff))
}

// Update handles PATCH /staff/:id.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	staff, err := h.staff.Update(c.UserContext(), actor, c.Params("id"), service.StaffUpdateInput{
		EmployeeID:      req.EmployeeID,
		Designation:     req.Designation,
		Department:      req.Department,
		SupervisorID:    req.SupervisorID,
		ClearSupervisor: req.ClearSupervisor,
		HourlyRate:      req.HourlyRate,
		JoiningDate:     req.JoiningDate,
	})
	if err != nil {
		return err
	}
	return respond(c, staffResponse(staff))
}

// SetAvailability handles PATCH /staff/:id/availability.
func (h *StaffHandler) SetAvailability(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AvailabilityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Available == nil {
		return apperrors.NewValidationError("available required", map[string]any{"field": "available"})
	}
	staff, err := h.staff.SetAvailability(c.UserContext(), principal, c.Params("id"), *req.Available)
	if err != nil {
		return err
	}
	return respond(c, staffResponse(staff))
}

// Delete handles DELETE /staff/:id.
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.staff.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
