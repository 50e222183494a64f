package dto

import (
	"time"

	"github.com/spec-kit/backoffice/internal/domain"
)

// DocumentUploadRequest records metadata for a file already placed in
// storage.
type DocumentUploadRequest struct {
	ClientID     string  `json:"client_id"`
	TaskID       *string `json:"task_id"`
	FileName     string  `json:"file_name"`
	StorageKey   string  `json:"storage_key"`
	ContentType  string  `json:"content_type"`
	SizeBytes    int64   `json:"size_bytes"`
	DocumentType string  `json:"document_type"`
}

// DocumentRejectRequest payload.
type DocumentRejectRequest struct {
	Reason string `json:"reason"`
}

// DocumentResponse metadata.
type DocumentResponse struct {
	ID              string                `json:"id"`
	ClientID        string                `json:"client_id"`
	TaskID          *string               `json:"task_id"`
	UploadedByID    string                `json:"uploaded_by_id"`
	FileName        string                `json:"file_name"`
	StorageKey      string                `json:"storage_key"`
	ContentType     string                `json:"content_type,omitempty"`
	SizeBytes       int64                 `json:"size_bytes"`
	DocumentType    string                `json:"document_type,omitempty"`
	Status          domain.DocumentStatus `json:"status"`
	VerifiedByID    *string               `json:"verified_by_id,omitempty"`
	VerifiedAt      *time.Time            `json:"verified_at,omitempty"`
	RejectedByID    *string               `json:"rejected_by_id,omitempty"`
	RejectedAt      *time.Time            `json:"rejected_at,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}
