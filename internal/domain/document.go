package domain

import "time"

// DocumentStatus is the verification state of an uploaded document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "PENDING"
	DocumentVerified DocumentStatus = "VERIFIED"
	DocumentRejected DocumentStatus = "REJECTED"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	return s == DocumentPending || s == DocumentVerified || s == DocumentRejected
}

// Document stores metadata for a file kept in external storage.
type Document struct {
	ID              string
	ClientID        string
	TaskID          *string
	UploadedByID    string
	FileName        string
	StorageKey      string
	ContentType     string
	SizeBytes       int64
	DocumentType    string
	Status          DocumentStatus
	VerifiedByID    *string
	VerifiedAt      *time.Time
	RejectedByID    *string
	RejectedAt      *time.Time
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
