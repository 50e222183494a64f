package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// LeadCreateRequest is used by both public intake and staff entry. Public
// intake ignores source and assignee.
type LeadCreateRequest struct {
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	CompanyName     string            `json:"company_name"`
	Source          domain.LeadSource `json:"source"`
	Notes           string            `json:"notes"`
	Priority        domain.Priority   `json:"priority"`
	ServiceItemID   *string           `json:"service_item_id"`
	AssignedStaffID *string           `json:"assigned_staff_id"`
}

// LeadUpdateRequest is a partial update.
type LeadUpdateRequest struct {
	Name          *string          `json:"name"`
	Email         *string          `json:"email"`
	Phone         *string          `json:"phone"`
	CompanyName   *string          `json:"company_name"`
	Notes         *string          `json:"notes"`
	Priority      *domain.Priority `json:"priority"`
	ServiceItemID *string          `json:"service_item_id"`
}

// LeadStatusRequest moves a lead through the funnel.
type LeadStatusRequest struct {
	Status     domain.LeadStatus `json:"status"`
	LostReason string            `json:"lost_reason"`
}

// LeadConvertRequest carries the client profile created from the lead.
type LeadConvertRequest struct {
	Password string `json:"password"`
	ClientProfileRequest
}

// LeadResponse view.
type LeadResponse struct {
	ID                string            `json:"id"`
	LeadID            string            `json:"lead_id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone,omitempty"`
	CompanyName       string            `json:"company_name,omitempty"`
	Source            domain.LeadSource `json:"source"`
	Notes             string            `json:"notes,omitempty"`
	Status            domain.LeadStatus `json:"status"`
	Priority          domain.Priority   `json:"priority"`
	AssignedStaffID   *string           `json:"assigned_staff_id"`
	ServiceItemID     *string           `json:"service_item_id"`
	ConvertedClientID *string           `json:"converted_client_id,omitempty"`
	ConvertedDate     *time.Time        `json:"converted_date,omitempty"`
	LostReason        string            `json:"lost_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// PublicLeadResponse is all an anonymous submitter gets back.
type PublicLeadResponse struct {
	LeadID string            `json:"lead_id"`
	Status domain.LeadStatus `json:"status"`
}

// LeadConversionResponse returns the converted lead and the new account.
type LeadConversionResponse struct {
	Lead   LeadResponse           `json:"lead"`
	Client AccountCreatedResponse `json:"client"`
}
