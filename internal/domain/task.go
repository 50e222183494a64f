package domain

import "time"

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusOnHold     TaskStatus = "ON_HOLD"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusOnHold, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the task is closed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// Actionable reports whether someone is expected to work on the task.
func (s TaskStatus) Actionable() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// Task is a unit of billable work for a client.
type Task struct {
	ID               string
	Title            string
	Description      string
	ClientID         string
	AssignedStaffID  *string
	ServiceItemID    *string
	ServiceRequestID *string
	Status           TaskStatus
	Priority         Priority
	DueDate          *time.Time
	AssignedDate     *time.Time
	StartedDate      *time.Time
	CompletedDate    *time.Time
	EstimatedHours   float64
	CreatedByID      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
