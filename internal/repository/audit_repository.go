package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// AuditRepository appends and reads audit entries. There is no update or
// delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditLog, error)
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	EntityType  *string
	EntityID    *string
	ActorUserID *string
	Limit       int
	Offset      int
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds the repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (action, entity_type, entity_id, old_values, new_values, actor_user_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.OldValues,
		entry.NewValues,
		entry.ActorUserID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditLog, error) {
	var where whereBuilder
	if filter.EntityType != nil {
		where.add("entity_type=$%d", *filter.EntityType)
	}
	if filter.EntityID != nil {
		where.add("entity_id=$%d", *filter.EntityID)
	}
	if filter.ActorUserID != nil {
		where.add("actor_user_id=$%d", *filter.ActorUserID)
	}
	query := `
        SELECT id, action, entity_type, entity_id, old_values, new_values, actor_user_id, created_at
        FROM audit_logs` + where.sql() + ` ORDER BY created_at DESC` + pageClause(filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.OldValues,
			&entry.NewValues,
			&entry.ActorUserID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
