package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// ServiceRequestCreateRequest payload. Clients may omit client_id.
type ServiceRequestCreateRequest struct {
	ClientID          string          `json:"client_id"`
	ServiceItemID     *string         `json:"service_item_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Priority          domain.Priority `json:"priority"`
	PreferredDeadline *time.Time      `json:"preferred_deadline"`
}

// ServiceRequestRespondRequest is the assignee's answer.
type ServiceRequestRespondRequest struct {
	Accept *bool  `json:"accept"`
	Reason string `json:"reason"`
}

// ServiceRequestStatusRequest payload.
type ServiceRequestStatusRequest struct {
	Status domain.ServiceRequestStatus `json:"status"`
}

// ServiceRequestResponse view.
type ServiceRequestResponse struct {
	ID                string                      `json:"id"`
	RequestID         string                      `json:"request_id"`
	ClientID          string                      `json:"client_id"`
	ServiceItemID     *string                     `json:"service_item_id"`
	AssignedStaffID   *string                     `json:"assigned_staff_id"`
	Title             string                      `json:"title"`
	Description       string                      `json:"description,omitempty"`
	Status            domain.ServiceRequestStatus `json:"status"`
	Priority          domain.Priority             `json:"priority"`
	PreferredDeadline *time.Time                  `json:"preferred_deadline,omitempty"`
	RejectionReason   string                      `json:"rejection_reason,omitempty"`
	ConvertedTaskID   *string                     `json:"converted_task_id,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// ServiceRequestConversionResponse returns the request and the new task.
type ServiceRequestConversionResponse struct {
	Request ServiceRequestResponse `json:"request"`
	Task    TaskResponse           `json:"task"`
}
