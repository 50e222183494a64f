package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/backoffice/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTaskCreated           EventType = "task_created"
	EventTaskAssigned          EventType = "task_assigned"
	EventTaskStatusChanged     EventType = "task_status_changed"
	EventDocumentUploaded      EventType = "document_uploaded"
	EventDocumentVerified      EventType = "document_verified"
	EventDocumentRejected      EventType = "document_rejected"
	EventLeadCreated           EventType = "lead_created"
	EventLeadAssigned          EventType = "lead_assigned"
	EventLeadConverted         EventType = "lead_converted"
	EventServiceRequestCreated EventType = "service_request_created"
	EventServiceRequestUpdated EventType = "service_request_updated"
	EventClientAssigned        EventType = "client_assigned"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	EntityID    string      `json:"entity_id"`
	ActorUserID *string     `json:"actor_user_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, entityID string, actorUserID *string, at time.Time, payload interface{}) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		EntityID:    entityID,
		ActorUserID: actorUserID,
		Timestamp:   at,
		Payload:     payload,
	}
}

// TaskPayload accompanies task events.
type TaskPayload struct {
	Title           string            `json:"title"`
	ClientID        string            `json:"client_id"`
	AssigneeStaffID *string           `json:"assignee_staff_id,omitempty"`
	OldStatus       domain.TaskStatus `json:"old_status,omitempty"`
	NewStatus       domain.TaskStatus `json:"new_status,omitempty"`
	DueDate         *time.Time        `json:"due_date,omitempty"`
}

// DocumentPayload accompanies document events.
type DocumentPayload struct {
	ClientID     string  `json:"client_id"`
	TaskID       *string `json:"task_id,omitempty"`
	FileName     string  `json:"file_name"`
	UploadedByID string  `json:"uploaded_by_id"`
	Reason       string  `json:"reason,omitempty"`
}

// LeadPayload accompanies lead events.
type LeadPayload struct {
	LeadNumber      string  `json:"lead_number"`
	Name            string  `json:"name"`
	CompanyName     string  `json:"company_name,omitempty"`
	AssigneeStaffID *string `json:"assignee_staff_id,omitempty"`
	ClientID        *string `json:"client_id,omitempty"`
}

// ServiceRequestPayload accompanies service request events.
type ServiceRequestPayload struct {
	RequestNumber   string                      `json:"request_number"`
	ClientID        string                      `json:"client_id"`
	Title           string                      `json:"title"`
	Status          domain.ServiceRequestStatus `json:"status"`
	AssigneeStaffID *string                     `json:"assignee_staff_id,omitempty"`
}

// ClientAssignedPayload accompanies client assignment.
type ClientAssignedPayload struct {
	CompanyName string `json:"company_name"`
	StaffID     string `json:"staff_id"`
}
