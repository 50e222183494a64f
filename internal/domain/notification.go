package domain

import "time"

// NotificationType classifies user-facing notifications.
type NotificationType string

const (
	NotificationTaskAssigned          NotificationType = "TASK_ASSIGNED"
	NotificationTaskStatusChanged     NotificationType = "TASK_STATUS_CHANGED"
	NotificationTaskDueSoon           NotificationType = "TASK_DUE_SOON"
	NotificationTaskOverdue           NotificationType = "TASK_OVERDUE"
	NotificationDocumentUploaded      NotificationType = "DOCUMENT_UPLOADED"
	NotificationDocumentVerified      NotificationType = "DOCUMENT_VERIFIED"
	NotificationDocumentRejected      NotificationType = "DOCUMENT_REJECTED"
	NotificationLeadCreated           NotificationType = "LEAD_CREATED"
	NotificationLeadAssigned          NotificationType = "LEAD_ASSIGNED"
	NotificationLeadConverted         NotificationType = "LEAD_CONVERTED"
	NotificationServiceRequestCreated NotificationType = "SERVICE_REQUEST_CREATED"
	NotificationServiceRequestUpdated NotificationType = "SERVICE_REQUEST_UPDATED"
	NotificationClientAssigned        NotificationType = "CLIENT_ASSIGNED"
	NotificationWeeklySummary         NotificationType = "WEEKLY_SUMMARY"
)

// Notification is a persisted message for one recipient.
type Notification struct {
	ID                string
	UserID            string
	Type              NotificationType
	Title             string
	Message           string
	IsRead            bool
	ReadAt            *time.Time
	RelatedTaskID     *string
	RelatedDocumentID *string
	CreatedAt         time.Time
}
