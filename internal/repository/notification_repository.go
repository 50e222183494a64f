package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, ids []string, at time.Time) (int, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	PurgeRead(ctx context.Context, olderThan time.Time) (int, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, type, title, message, related_task_id, related_document_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, is_read, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.RelatedTaskID,
		n.RelatedDocumentID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	var where whereBuilder
	where.add("user_id=$%d", userID)
	if unreadOnly {
		where.raw("is_read=FALSE")
	}
	query := `
        SELECT id, user_id, type, title, message, is_read, read_at, related_task_id, related_document_id, created_at
        FROM notifications` + where.sql() + ` ORDER BY created_at DESC` + pageClause(limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.IsRead,
			&n.ReadAt,
			&n.RelatedTaskID,
			&n.RelatedDocumentID,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read=FALSE`, userID).Scan(&count)
	return count, err
}

// MarkRead only touches unread rows owned by userID, so repeating it is a no-op.
func (r *notificationRepository) MarkRead(ctx context.Context, userID string, ids []string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := conn(ctx, r.pool).Exec(ctx, `
        UPDATE notifications SET is_read=TRUE, read_at=$1
        WHERE user_id=$2 AND id = ANY($3::uuid[]) AND is_read=FALSE`, at, userID, ids)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `
        UPDATE notifications SET is_read=TRUE, read_at=$1
        WHERE user_id=$2 AND is_read=FALSE`, at, userID)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *notificationRepository) PurgeRead(ctx context.Context, olderThan time.Time) (int, error) {
	cmd, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM notifications WHERE is_read=TRUE AND created_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

