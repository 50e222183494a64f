package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// TaskRepository handles persistence for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	ListIDsByClientIDs(ctx context.Context, clientIDs []string) ([]string, error)
	ListIDsByAssignee(ctx context.Context, staffID string) ([]string, error)
	ListClientIDsByAssignee(ctx context.Context, staffID string) ([]string, error)
	CountActiveByClient(ctx context.Context, clientID string) (int, error)
	CountByCreator(ctx context.Context, userID string) (int, error)
}

// TaskFilter narrows task listings. When Scoped is set only IDs are
// eligible. Unbounded disables paging for batch jobs.
type TaskFilter struct {
	Scoped          bool
	IDs             []string
	ClientID        *string
	AssignedStaffID *string
	Statuses        []domain.TaskStatus
	Priority        *domain.Priority
	DueFrom         *time.Time
	DueTo           *time.Time
	Search          string
	Unbounded       bool
	Limit           int
	Offset          int
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository builds the repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, title, description, client_id, assigned_staff_id, service_item_id, service_request_id,
               status, priority, due_date, assigned_date, started_date, completed_date, estimated_hours,
               created_by_id, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (title, description, client_id, assigned_staff_id, service_item_id, service_request_id,
            status, priority, due_date, assigned_date, started_date, completed_date, estimated_hours, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.ClientID,
		task.AssignedStaffID,
		task.ServiceItemID,
		task.ServiceRequestID,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedDate,
		task.StartedDate,
		task.CompletedDate,
		task.EstimatedHours,
		task.CreatedByID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, description=$2, assigned_staff_id=$3, service_item_id=$4, status=$5,
            priority=$6, due_date=$7, assigned_date=$8, started_date=$9, completed_date=$10,
            estimated_hours=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.AssignedStaffID,
		task.ServiceItemID,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedDate,
		task.StartedDate,
		task.CompletedDate,
		task.EstimatedHours,
		task.ID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return scanTask(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id))
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	if filter.Scoped && len(filter.IDs) == 0 {
		return []domain.Task{}, nil
	}
	var where whereBuilder
	if filter.Scoped {
		where.add("id = ANY($%d::uuid[])", filter.IDs)
	}
	if filter.ClientID != nil {
		where.add("client_id=$%d", *filter.ClientID)
	}
	if filter.AssignedStaffID != nil {
		where.add("assigned_staff_id=$%d", *filter.AssignedStaffID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where.add("status = ANY($%d)", statuses)
	}
	if filter.Priority != nil {
		where.add("priority=$%d", *filter.Priority)
	}
	if filter.DueFrom != nil {
		where.add("due_date >= $%d", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		where.add("due_date < $%d", *filter.DueTo)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where.add("LOWER(title) LIKE $%d", "%"+strings.ToLower(s)+"%")
	}
	query := `SELECT ` + taskColumns + ` FROM tasks` + where.sql() + ` ORDER BY due_date ASC NULLS LAST, created_at DESC`
	if !filter.Unbounded {
		query += pageClause(filter.Limit, filter.Offset)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func (r *taskRepository) ListIDsByClientIDs(ctx context.Context, clientIDs []string) ([]string, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id FROM tasks WHERE client_id = ANY($1::uuid[])`, clientIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *taskRepository) ListIDsByAssignee(ctx context.Context, staffID string) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id FROM tasks WHERE assigned_staff_id=$1`, staffID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *taskRepository) ListClientIDsByAssignee(ctx context.Context, staffID string) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT DISTINCT client_id FROM tasks WHERE assigned_staff_id=$1`, staffID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *taskRepository) CountActiveByClient(ctx context.Context, clientID string) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE client_id=$1 AND status NOT IN ('COMPLETED','CANCELLED')`, clientID,
	).Scan(&count)
	return count, err
}

func (r *taskRepository) CountByCreator(ctx context.Context, userID string) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE created_by_id=$1`, userID,
	).Scan(&count)
	return count, err
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.ClientID,
		&task.AssignedStaffID,
		&task.ServiceItemID,
		&task.ServiceRequestID,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.AssignedDate,
		&task.StartedDate,
		&task.CompletedDate,
		&task.EstimatedHours,
		&task.CreatedByID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
