package domain

import "time"

// ServiceRequestStatus enumerates request lifecycle states.
type ServiceRequestStatus string

const (
	ServiceRequestPending    ServiceRequestStatus = "PENDING"
	ServiceRequestAssigned   ServiceRequestStatus = "ASSIGNED"
	ServiceRequestAccepted   ServiceRequestStatus = "ACCEPTED"
	ServiceRequestRejected   ServiceRequestStatus = "REJECTED"
	ServiceRequestInProgress ServiceRequestStatus = "IN_PROGRESS"
	ServiceRequestCompleted  ServiceRequestStatus = "COMPLETED"
	ServiceRequestCancelled  ServiceRequestStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s ServiceRequestStatus) Valid() bool {
	switch s {
	case ServiceRequestPending, ServiceRequestAssigned, ServiceRequestAccepted, ServiceRequestRejected,
		ServiceRequestInProgress, ServiceRequestCompleted, ServiceRequestCancelled:
		return true
	}
	return false
}

// ServiceRequest is a client-initiated request for a catalog service.
type ServiceRequest struct {
	ID                string
	RequestID         string
	ClientID          string
	ServiceItemID     *string
	AssignedStaffID   *string
	Title             string
	Description       string
	Status            ServiceRequestStatus
	Priority          Priority
	PreferredDeadline *time.Time
	RejectionReason   string
	ConvertedTaskID   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
