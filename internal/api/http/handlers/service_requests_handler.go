package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/service"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// ServiceRequestsHandler manages client service requests.
type ServiceRequestsHandler struct {
	requests *service.ServiceRequestService
}

// NewServiceRequestsHandler constructs handler.
func NewServiceRequestsHandler(requestService *service.ServiceRequestService) *ServiceRequestsHandler {
	return &ServiceRequestsHandler{requests: requestService}
}

// Create handles POST /service-requests.
func (h *ServiceRequestsHandler) Create(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ServiceRequestCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	request, err := h.requests.Create(c.UserContext(), principal, service.ServiceRequestCreateInput{
		ClientID:          req.ClientID,
		ServiceItemID:     req.ServiceItemID,
		Title:             req.Title,
		Description:       req.Description,
		Priority:          req.Priority,
		PreferredDeadline: req.PreferredDeadline,
	})
	if err != nil {
		return err
	}
	return respondCreated(c, serviceRequestResponse(request))
}

// List handles GET /service-requests.
func (h *ServiceRequestsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.ServiceRequestListFilter{
		ClientID: queryString(c, "client_id"),
		Statuses: queryList[domain.ServiceRequestStatus](c, "status"),
	}
	filter.Limit, filter.Offset = pagination(c)

	requests, err := h.requests.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(requests, serviceRequestResponse))
}

// Get handles GET /service-requests/:id.
func (h *ServiceRequestsHandler) Get(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	request, err := h.requests.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, serviceRequestResponse(request))
}

// Assign handles PUT /service-requests/:id/assignee.
func (h *ServiceRequestsHandler) Assign(c *fiber.Ctx) error {
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
	request, err := h.requests.Assign(c.UserContext(), principal, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return respond(c, serviceRequestResponse(request))
}

// Respond handles POST /service-requests/:id/respond.
func (h *ServiceRequestsHandler) Respond(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ServiceRequestRespondRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Accept == nil {
		return apperrors.NewValidationError("accept required", map[string]any{"field": "accept"})
	}
	request, err := h.requests.Respond(c.UserContext(), principal, c.Params("id"), *req.Accept, req.Reason)
	if err != nil {
		return err
	}
	return respond(c, serviceRequestResponse(request))
}

// UpdateStatus handles PATCH /service-requests/:id/status.
func (h *ServiceRequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ServiceRequestStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status := domain.ServiceRequestStatus(strings.ToUpper(string(req.Status)))
	request, err := h.requests.UpdateStatus(c.UserContext(), principal, c.Params("id"), status)
	if err != nil {
		return err
	}
	return respond(c, serviceRequestResponse(request))
}

// Cancel handles POST /service-requests/:id/cancel.
func (h *ServiceRequestsHandler) Cancel(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	request, err := h.requests.Cancel(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, serviceRequestResponse(request))
}

// ConvertToTask handles POST /service-requests/:id/convert.
func (h *ServiceRequestsHandler) ConvertToTask(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	conversion, err := h.requests.ConvertToTask(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respondCreated(c, dto.ServiceRequestConversionResponse{
		Request: serviceRequestResponse(conversion.Request),
		Task:    taskResponse(conversion.Task),
	})
}
