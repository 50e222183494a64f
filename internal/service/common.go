package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/backoffice/internal/events"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// Sequence names for human-readable identifiers.
const (
	SequenceLead           = "LEAD"
	SequenceServiceRequest = "SR"
	SequenceEmployee       = "EMP"
)

// lookupError maps a missing row to NotFound and everything else through
// MapError.
func lookupError(resource, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

// nextNumber formats PREFIX-YYYY-NNN from the storage counter.
func nextNumber(ctx context.Context, seq repository.SequenceRepository, prefix string, now time.Time) (string, error) {
	year := now.Year()
	value, err := seq.Next(ctx, prefix, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, year, value), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("email is invalid", map[string]any{"field": "email"})
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(name+" is required", map[string]any{"field": name})
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// publishAll hands events to the dispatcher once the transaction that
// produced them has committed.
func publishAll(ctx context.Context, dispatcher events.Dispatcher, evts []events.Event) {
	if dispatcher == nil {
		return
	}
	for _, evt := range evts {
		dispatcher.Publish(ctx, evt)
	}
}
