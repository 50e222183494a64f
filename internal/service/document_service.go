package service

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/access"
	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// DocumentUploadInput is the metadata of an uploaded file. The bytes live
// in external storage under StorageKey.
type DocumentUploadInput struct {
	ClientID     string
	TaskID       *string
	FileName     string
	StorageKey   string
	ContentType  string
	SizeBytes    int64
	DocumentType string
}

// DocumentListFilter narrows listings.
type DocumentListFilter struct {
	ClientID *string
	TaskID   *string
	Status   *domain.DocumentStatus
	Limit    int
	Offset   int
}

// DocumentService manages uploaded document metadata and its review.
type DocumentService struct {
	documents  repository.DocumentRepository
	clients    repository.ClientRepository
	tasks      repository.TaskRepository
	tx         repository.TxManager
	access     *access.Resolver
	audit      *AuditService
	dispatcher events.Dispatcher
	clock      clock.Clock
}

// DocumentDependencies bundles requirements.
type DocumentDependencies struct {
	DocumentRepo repository.DocumentRepository
	ClientRepo   repository.ClientRepository
	TaskRepo     repository.TaskRepository
	TxManager    repository.TxManager
	Access       *access.Resolver
	Audit        *AuditService
	Dispatcher   events.Dispatcher
	Clock        clock.Clock
}

// NewDocumentService constructs the service.
func NewDocumentService(deps DocumentDependencies) *DocumentService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &DocumentService{
		documents:  deps.DocumentRepo,
		clients:    deps.ClientRepo,
		tasks:      deps.TaskRepo,
		tx:         deps.TxManager,
		access:     deps.Access,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		clock:      clk,
	}
}

// Upload records a document. Clients upload for themselves; staff upload
// for clients in scope. A linked task must belong to the same client.
func (s *DocumentService) Upload(ctx context.Context, principal domain.Principal, input DocumentUploadInput) (*domain.Document, error) {
	doc := &domain.Document{
		ClientID:     strings.TrimSpace(input.ClientID),
		TaskID:       trimmed(input.TaskID),
		UploadedByID: principal.UserID,
		FileName:     strings.TrimSpace(input.FileName),
		StorageKey:   strings.TrimSpace(input.StorageKey),
		ContentType:  strings.TrimSpace(input.ContentType),
		SizeBytes:    input.SizeBytes,
		DocumentType: strings.TrimSpace(input.DocumentType),
		Status:       domain.DocumentPending,
	}
	if err := requireField("file_name", doc.FileName); err != nil {
		return nil, err
	}
	if doc.SizeBytes < 0 {
		return nil, apperrors.NewValidationError("size_bytes cannot be negative", map[string]any{"field": "size_bytes"})
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if principal.Role == domain.RoleClient {
			clientID, err := s.access.ClientID(ctx, principal)
			if err != nil {
				return err
			}
			doc.ClientID = clientID
		} else {
			if err := requireField("client_id", doc.ClientID); err != nil {
				return err
			}
			if err := s.access.RequireClient(ctx, principal, doc.ClientID); err != nil {
				return err
			}
			if _, err := s.clients.GetByID(ctx, doc.ClientID); err != nil {
				return lookupError("client", doc.ClientID, err)
			}
		}
		if doc.TaskID != nil {
			task, err := s.tasks.GetByID(ctx, *doc.TaskID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewValidationError("task not found", map[string]any{"task_id": *doc.TaskID})
				}
				return apperrors.MapError(err)
			}
			if task.ClientID != doc.ClientID {
				return apperrors.NewValidationError("task belongs to another client", map[string]any{"task_id": *doc.TaskID})
			}
		}
		if doc.StorageKey == "" {
			doc.StorageKey = path.Join("clients", doc.ClientID, uuid.NewString()+"-"+path.Base(doc.FileName))
		}
		if err := s.documents.Create(ctx, doc); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditCreate, "document", doc.ID, nil, documentValues(doc))
	})
	if err != nil {
		return nil, err
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.event(events.EventDocumentUploaded, principal, doc)})
	return doc, nil
}

// Get returns a document whose client is in the caller's scope.
func (s *DocumentService) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Document, error) {
	scope, err := s.access.ResolveClientScope(ctx, principal)
	if err != nil {
		return nil, err
	}
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if !principal.IsAdmin() && errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("document outside caller scope")
		}
		return nil, lookupError("document", id, err)
	}
	if !scope.Contains(doc.ClientID) {
		return nil, apperrors.NewForbidden("document outside caller scope")
	}
	return doc, nil
}

// List returns documents of the caller's visible clients.
func (s *DocumentService) List(ctx context.Context, principal domain.Principal, filter DocumentListFilter) ([]domain.Document, error) {
	scope, err := s.access.ResolveClientScope(ctx, principal)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.List(ctx, repository.DocumentFilter{
		Scoped:    !scope.IsAll(),
		ClientIDs: scope.IDs(),
		ClientID:  filter.ClientID,
		TaskID:    filter.TaskID,
		Status:    filter.Status,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return docs, nil
}

// Verify accepts a PENDING document.
func (s *DocumentService) Verify(ctx context.Context, principal domain.Principal, id string) (*domain.Document, error) {
	return s.review(ctx, principal, id, domain.DocumentVerified, "")
}

// Reject refuses a PENDING document with a reason.
func (s *DocumentService) Reject(ctx context.Context, principal domain.Principal, id, reason string) (*domain.Document, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("rejection_reason is required", map[string]any{"field": "rejection_reason"})
	}
	return s.review(ctx, principal, id, domain.DocumentRejected, reason)
}

func (s *DocumentService) review(ctx context.Context, principal domain.Principal, id string, next domain.DocumentStatus, reason string) (*domain.Document, error) {
	if principal.Role == domain.RoleClient {
		return nil, apperrors.NewForbidden("clients cannot review documents")
	}
	var doc *domain.Document
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if doc.Status != domain.DocumentPending {
			return apperrors.NewInvalidStateTransition(string(doc.Status), string(next))
		}
		now := s.clock.Now()
		doc.Status = next
		if next == domain.DocumentVerified {
			doc.VerifiedByID = strPtr(principal.UserID)
			doc.VerifiedAt = &now
		} else {
			doc.RejectedByID = strPtr(principal.UserID)
			doc.RejectedAt = &now
			doc.RejectionReason = reason
		}
		if err := s.documents.Update(ctx, doc); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditStatusChange, "document", doc.ID,
			map[string]any{"status": domain.DocumentPending},
			map[string]any{"status": next, "rejection_reason": reason})
	})
	if err != nil {
		return nil, err
	}
	eventType := events.EventDocumentVerified
	if next == domain.DocumentRejected {
		eventType = events.EventDocumentRejected
	}
	publishAll(ctx, s.dispatcher, []events.Event{s.event(eventType, principal, doc)})
	return doc, nil
}

// Reset returns a reviewed document to PENDING and clears both review sides.
// Admin only.
func (s *DocumentService) Reset(ctx context.Context, principal domain.Principal, id string) (*domain.Document, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can reset a document review")
	}
	var doc *domain.Document
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if doc.Status == domain.DocumentPending {
			return apperrors.NewInvalidStateTransition(string(doc.Status), string(domain.DocumentPending))
		}
		old := doc.Status
		doc.Status = domain.DocumentPending
		doc.VerifiedByID, doc.VerifiedAt = nil, nil
		doc.RejectedByID, doc.RejectedAt = nil, nil
		doc.RejectionReason = ""
		if err := s.documents.Update(ctx, doc); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditStatusChange, "document", doc.ID,
			map[string]any{"status": old}, map[string]any{"status": doc.Status})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a PENDING document. Only its uploader or an admin may.
func (s *DocumentService) Delete(ctx context.Context, principal domain.Principal, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doc, err := s.Get(ctx, principal, id)
		if err != nil {
			return err
		}
		if !principal.IsAdmin() && doc.UploadedByID != principal.UserID {
			return apperrors.NewForbidden("only the uploader can delete a document")
		}
		if doc.Status != domain.DocumentPending {
			return apperrors.NewConflict("reviewed documents cannot be deleted", map[string]any{"status": doc.Status})
		}
		if err := s.documents.Delete(ctx, id); err != nil {
			return apperrors.MapError(err)
		}
		return s.audit.Record(ctx, principal.UserID, AuditDelete, "document", id, documentValues(doc), nil)
	})
}

func (s *DocumentService) event(eventType events.EventType, principal domain.Principal, doc *domain.Document) events.Event {
	return events.New(eventType, doc.ID, strPtr(principal.UserID), s.clock.Now(), events.DocumentPayload{
		ClientID:     doc.ClientID,
		TaskID:       doc.TaskID,
		FileName:     doc.FileName,
		UploadedByID: doc.UploadedByID,
		Reason:       doc.RejectionReason,
	})
}

func documentValues(d *domain.Document) map[string]any {
	return map[string]any{
		"client_id":   d.ClientID,
		"task_id":     d.TaskID,
		"file_name":   d.FileName,
		"storage_key": d.StorageKey,
		"status":      d.Status,
	}
}
