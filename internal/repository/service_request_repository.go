package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// ServiceRequestRepository persists client service requests.
type ServiceRequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	Update(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error)
}

// ServiceRequestFilter narrows listings. When Scoped is set a row is
// eligible if its client is in ClientIDs or, when OrAssignedStaffID is set,
// it is assigned to that staff member.
type ServiceRequestFilter struct {
	Scoped            bool
	ClientIDs         []string
	OrAssignedStaffID *string
	ClientID          *string
	Statuses          []domain.ServiceRequestStatus
	Limit             int
	Offset            int
}

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository builds the repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

const serviceRequestColumns = `id, request_id, client_id, service_item_id, assigned_staff_id, title, description,
               status, priority, preferred_deadline, rejection_reason, converted_task_id, created_at, updated_at`

func (r *serviceRequestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (request_id, client_id, service_item_id, assigned_staff_id, title, description,
            status, priority, preferred_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		request.RequestID,
		request.ClientID,
		request.ServiceItemID,
		request.AssignedStaffID,
		request.Title,
		request.Description,
		request.Status,
		request.Priority,
		request.PreferredDeadline,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *serviceRequestRepository) Update(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        UPDATE service_requests SET service_item_id=$1, assigned_staff_id=$2, title=$3, description=$4, status=$5,
            priority=$6, preferred_deadline=$7, rejection_reason=$8, converted_task_id=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		request.ServiceItemID,
		request.AssignedStaffID,
		request.Title,
		request.Description,
		request.Status,
		request.Priority,
		request.PreferredDeadline,
		request.RejectionReason,
		request.ConvertedTaskID,
		request.ID,
	).Scan(&request.UpdatedAt)
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return scanServiceRequest(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+serviceRequestColumns+` FROM service_requests WHERE id=$1`, id))
}

func (r *serviceRequestRepository) List(ctx context.Context, filter ServiceRequestFilter) ([]domain.ServiceRequest, error) {
	var where whereBuilder
	if filter.Scoped {
		if filter.OrAssignedStaffID != nil {
			where.add("(client_id = ANY($%d::uuid[]) OR assigned_staff_id=$%d)", filter.ClientIDs, *filter.OrAssignedStaffID)
		} else {
			if len(filter.ClientIDs) == 0 {
				return []domain.ServiceRequest{}, nil
			}
			where.add("client_id = ANY($%d::uuid[])", filter.ClientIDs)
		}
	}
	if filter.ClientID != nil {
		where.add("client_id=$%d", *filter.ClientID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where.add("status = ANY($%d)", statuses)
	}
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests` + where.sql() +
		` ORDER BY created_at DESC` + pageClause(filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceRequest
	for rows.Next() {
		request, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *request)
	}
	return result, rows.Err()
}

func scanServiceRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := row.Scan(
		&request.ID,
		&request.RequestID,
		&request.ClientID,
		&request.ServiceItemID,
		&request.AssignedStaffID,
		&request.Title,
		&request.Description,
		&request.Status,
		&request.Priority,
		&request.PreferredDeadline,
		&request.RejectionReason,
		&request.ConvertedTaskID,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}
