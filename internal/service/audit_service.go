package service

import (
	"context"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// Audit actions.
const (
	AuditCreate        = "CREATE"
	AuditUpdate        = "UPDATE"
	AuditDelete        = "DELETE"
	AuditStatusChange  = "STATUS_CHANGE"
	AuditAssign        = "ASSIGN"
	AuditConvert       = "CONVERT"
	AuditPasswordChange = "PASSWORD_CHANGE"
)

// AuditService appends audit entries inside the caller's transaction.
type AuditService struct {
	repo repository.AuditRepository
}

// NewAuditService constructs the service.
func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record writes one entry. actorUserID is empty for anonymous actions.
func (s *AuditService) Record(ctx context.Context, actorUserID, action, entityType, entityID string, oldValues, newValues map[string]any) error {
	if s == nil || s.repo == nil {
		return nil
	}
	entry := &domain.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if actorUserID != "" {
		entry.ActorUserID = &actorUserID
	}
	return s.repo.Create(ctx, entry)
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditLog, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}
