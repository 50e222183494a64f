package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// NotificationResponse view.
type NotificationResponse struct {
	ID                string                  `json:"id"`
	Type              domain.NotificationType `json:"type"`
	Title             string                  `json:"title"`
	Message           string                  `json:"message"`
	IsRead            bool                    `json:"is_read"`
	ReadAt            *time.Time              `json:"read_at,omitempty"`
	RelatedTaskID     *string                 `json:"related_task_id,omitempty"`
	RelatedDocumentID *string                 `json:"related_document_id,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

// MarkReadRequest lists notification ids to mark read.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

// CatalogCategoryResponse is one branch of the catalog tree.
type CatalogCategoryResponse struct {
	ID            string                       `json:"id"`
	Name          string                       `json:"name"`
	Description   string                       `json:"description,omitempty"`
	IsActive      bool                         `json:"is_active"`
	Subcategories []CatalogSubcategoryResponse `json:"subcategories"`
}

// CatalogSubcategoryResponse groups items.
type CatalogSubcategoryResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	IsActive    bool                  `json:"is_active"`
	Items       []CatalogItemResponse `json:"items"`
}

// CatalogItemResponse is a billable offering.
type CatalogItemResponse struct {
	ID             string  `json:"id"`
	SubcategoryID  string  `json:"subcategory_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	EstimatedHours float64 `json:"estimated_hours"`
	IsActive       bool    `json:"is_active"`
}

// AuditLogResponse view.
type AuditLogResponse struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	OldValues   map[string]any `json:"old_values,omitempty"`
	NewValues   map[string]any `json:"new_values,omitempty"`
	ActorUserID *string        `json:"actor_user_id"`
	CreatedAt   time.Time      `json:"created_at"`
}

