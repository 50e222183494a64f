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

// LeadsHandler serves the public intake form and the staff lead pipeline.
type LeadsHandler struct {
	leads *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leadService *service.LeadService) *LeadsHandler {
	return &LeadsHandler{leads: leadService}
}

// SubmitPublic handles POST /public/leads. No principal is attached.
func (h *LeadsHandler) SubmitPublic(c *fiber.Ctx) error {
	var req dto.LeadCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.Create(c.UserContext(), nil, leadInput(req))
	if err != nil {
		return err
	}
	return respondCreated(c, dto.PublicLeadResponse{LeadID: lead.LeadID, Status: lead.Status})
}

// Create handles POST /leads.
func (h *LeadsHandler) Create(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.LeadCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.Create(c.UserContext(), &principal, leadInput(req))
	if err != nil {
		return err
	}
	return respondCreated(c, leadResponse(lead))
}

// List handles GET /leads.
func (h *LeadsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.LeadListFilter{
		Statuses: queryList[domain.LeadStatus](c, "status"),
		Search:   c.Query("search"),
	}
	if raw := queryString(c, "source"); raw != nil {
		source := domain.LeadSource(strings.ToUpper(*raw))
		filter.Source = &source
	}
	filter.Limit, filter.Offset = pagination(c)

	leads, err := h.leads.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(leads, leadResponse))
}

// Get handles GET /leads/:id.
func (h *LeadsHandler) Get(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	lead, err := h.leads.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, leadResponse(lead))
}

// Update handles PATCH /leads/:id.
func (h *LeadsHandler) Update(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.LeadUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	lead, err := h.leads.Update(c.UserContext(), principal, c.Params("id"), service.LeadUpdateInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		CompanyName:   req.CompanyName,
		Notes:         req.Notes,
		Priority:      req.Priority,
		ServiceItemID: req.ServiceItemID,
	})
	if err != nil {
		return err
	}
	return respond(c, leadResponse(lead))
}

// UpdateStatus handles PATCH /leads/:id/status.
func (h *LeadsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.LeadStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	status := domain.LeadStatus(strings.ToUpper(string(req.Status)))
	lead, err := h.leads.UpdateStatus(c.UserContext(), principal, c.Params("id"), status, req.LostReason)
	if err != nil {
		return err
	}
	return respond(c, leadResponse(lead))
}

// Assign handles PUT /leads/:id/assignee.
func (h *LeadsHandler) Assign(c *fiber.Ctx) error {
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
	lead, err := h.leads.Assign(c.UserContext(), actor, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return respond(c, leadResponse(lead))
}

// Convert handles POST /leads/:id/convert.
func (h *LeadsHandler) Convert(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.LeadConvertRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	conversion, err := h.leads.Convert(c.UserContext(), principal, c.Params("id"), service.LeadConversionInput{
		Password: req.Password,
		Profile:  profileInput(req.ClientProfileRequest),
	})
	if err != nil {
		return err
	}
	return respondCreated(c, dto.LeadConversionResponse{
		Lead:   leadResponse(conversion.Lead),
		Client: clientAccountResponse(conversion.Account),
	})
}

func leadInput(req dto.LeadCreateRequest) service.LeadCreateInput {
	return service.LeadCreateInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		CompanyName:     req.CompanyName,
		Source:          domain.LeadSource(strings.ToUpper(string(req.Source))),
		Notes:           req.Notes,
		Priority:        domain.Priority(strings.ToUpper(string(req.Priority))),
		ServiceItemID:   req.ServiceItemID,
		AssignedStaffID: req.AssignedStaffID,
	}
}
