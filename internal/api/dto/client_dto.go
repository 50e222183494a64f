package dto

import "time"

// ClientProfileRequest holds the business profile fields.
type ClientProfileRequest struct {
	CompanyName  string `json:"company_name"`
	BusinessType string `json:"business_type"`
	PAN          string `json:"pan"`
	GSTNumber    string `json:"gst_number"`
	TAN          string `json:"tan"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
}

// ClientCreateRequest onboards a client account and profile together.
type ClientCreateRequest struct {
	AccountRequest
	ClientProfileRequest
	AssignedStaffID *string `json:"assigned_staff_id"`
}

// ClientUpdateRequest is a partial profile update.
type ClientUpdateRequest struct {
	CompanyName  *string `json:"company_name"`
	BusinessType *string `json:"business_type"`
	PAN          *string `json:"pan"`
	GSTNumber    *string `json:"gst_number"`
	TAN          *string `json:"tan"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postal_code"`
	IsActive     *bool   `json:"is_active"`
}

// AssignStaffRequest names the staff member taking over.
type AssignStaffRequest struct {
	StaffID string `json:"staff_id"`
}

// ClientResponse profile.
type ClientResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	CompanyName     string    `json:"company_name"`
	BusinessType    string    `json:"business_type,omitempty"`
	PAN             string    `json:"pan,omitempty"`
	GSTNumber       string    `json:"gst_number,omitempty"`
	TAN             string    `json:"tan,omitempty"`
	Address         string    `json:"address,omitempty"`
	City            string    `json:"city,omitempty"`
	State           string    `json:"state,omitempty"`
	PostalCode      string    `json:"postal_code,omitempty"`
	AssignedStaffID *string   `json:"assigned_staff_id"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
