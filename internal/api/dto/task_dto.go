package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/deadline"
	"github.com/spec-kit/backoffice/internal/domain"
)

// TaskCreateRequest payload.
type TaskCreateRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ClientID        string          `json:"client_id"`
	AssignedStaffID *string         `json:"assigned_staff_id"`
	ServiceItemID   *string         `json:"service_item_id"`
	Priority        domain.Priority `json:"priority"`
	DueDate         *time.Time      `json:"due_date"`
	EstimatedHours  *float64        `json:"estimated_hours"`
}

// TaskUpdateRequest is a partial update.
type TaskUpdateRequest struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Priority       *domain.Priority `json:"priority"`
	DueDate        *time.Time       `json:"due_date"`
	ClearDueDate   bool             `json:"clear_due_date"`
	EstimatedHours *float64         `json:"estimated_hours"`
}

// TaskStatusRequest payload.
type TaskStatusRequest struct {
	Status domain.TaskStatus `json:"status"`
}

// TaskResponse includes the deadline classification at read time.
type TaskResponse struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description,omitempty"`
	ClientID         string                  `json:"client_id"`
	AssignedStaffID  *string                 `json:"assigned_staff_id"`
	ServiceItemID    *string                 `json:"service_item_id"`
	ServiceRequestID *string                 `json:"service_request_id,omitempty"`
	Status           domain.TaskStatus       `json:"status"`
	Priority         domain.Priority         `json:"priority"`
	Deadline         deadline.Classification `json:"deadline_status"`
	DueDate          *time.Time              `json:"due_date"`
	AssignedDate     *time.Time              `json:"assigned_date,omitempty"`
	StartedDate      *time.Time              `json:"started_date,omitempty"`
	CompletedDate    *time.Time              `json:"completed_date,omitempty"`
	EstimatedHours   float64                 `json:"estimated_hours"`
	CreatedByID      string                  `json:"created_by_id"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

