package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// ClientsHandler serves client profiles. Rows are filtered by the caller's
// scope in the service.
type ClientsHandler struct {
	clients *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{clients: clientService}
}

// Create handles POST /clients.
func (h *ClientsHandler) Create(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ClientCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.clients.Create(c.UserContext(), actor, service.ClientCreateInput{
		Account:         accountInput(req.AccountRequest),
		Profile:         profileInput(req.ClientProfileRequest),
		AssignedStaffID: req.AssignedStaffID,
	})
	if err != nil {
		return err
	}
	return respondCreated(c, clientAccountResponse(account))
}

// List handles GET /clients.
func (h *ClientsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	filter := service.ClientListFilter{
		Search:          c.Query("search"),
		Active:          active,
		AssignedStaffID: queryString(c, "assigned_staff_id"),
	}
	filter.Limit, filter.Offset = pagination(c)

	clients, err := h.clients.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(clients, clientResponse))
}

// Get handles GET /clients/:id.
func (h *ClientsHandler) Get(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	client, err := h.clients.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, clientResponse(client))
}

// Update handles PATCH /clients/:id.
func (h *ClientsHandler) Update(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ClientUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	client, err := h.clients.Update(c.UserContext(), principal, c.Params("id"), service.ClientUpdateInput{
		CompanyName:  req.CompanyName,
		BusinessType: req.BusinessType,
		PAN:          req.PAN,
		GSTNumber:    req.GSTNumber,
		TAN:          req.TAN,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return err
	}
	return respond(c, clientResponse(client))
}

// Delete handles DELETE /clients/:id.
func (h *ClientsHandler) Delete(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.clients.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AssignStaff handles PUT /clients/:id/staff.
func (h *ClientsHandler) AssignStaff(c *fiber.Ctx) error {
	actor, err := auth.MustPrincipal(c)
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
	client, err := h.clients.AssignStaff(c.UserContext(), actor, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return respond(c, clientResponse(client))
}

func profileInput(req dto.ClientProfileRequest) service.ClientProfileInput {
	return service.ClientProfileInput{
		CompanyName:  req.CompanyName,
		BusinessType: req.BusinessType,
		PAN:          req.PAN,
		GSTNumber:    req.GSTNumber,
		TAN:          req.TAN,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
	}
}
