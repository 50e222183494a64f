package domain

import "time"

// AuditLog is an append-only record of a mutation.
type AuditLog struct {
	ID          string
	Action      string
	EntityType  string
	EntityID    string
	OldValues   map[string]any
	NewValues   map[string]any
	ActorUserID *string
	CreatedAt   time.Time
}
