package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// LeadRepository persists sales leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
}

// LeadFilter narrows lead listings. IncludeUnassigned widens an
// AssignedStaffID filter to leads nobody owns yet.
type LeadFilter struct {
	Statuses          []domain.LeadStatus
	AssignedStaffID   *string
	IncludeUnassigned bool
	Source            *domain.LeadSource
	Search            string
	Limit             int
	Offset            int
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository returns a Postgres-backed implementation.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

const leadColumns = `id, lead_id, name, email, phone, company_name, source, notes, status, priority,
               assigned_staff_id, service_item_id, converted_client_id, converted_date, lost_reason,
               created_at, updated_at`

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (lead_id, name, email, phone, company_name, source, notes, status, priority,
            assigned_staff_id, service_item_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		lead.LeadID,
		lead.Name,
		strings.ToLower(lead.Email),
		lead.Phone,
		lead.CompanyName,
		lead.Source,
		lead.Notes,
		lead.Status,
		lead.Priority,
		lead.AssignedStaffID,
		lead.ServiceItemID,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads SET name=$1, email=$2, phone=$3, company_name=$4, source=$5, notes=$6, status=$7,
            priority=$8, assigned_staff_id=$9, service_item_id=$10, converted_client_id=$11,
            converted_date=$12, lost_reason=$13, updated_at=NOW()
        WHERE id=$14
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		lead.Name,
		strings.ToLower(lead.Email),
		lead.Phone,
		lead.CompanyName,
		lead.Source,
		lead.Notes,
		lead.Status,
		lead.Priority,
		lead.AssignedStaffID,
		lead.ServiceItemID,
		lead.ConvertedClientID,
		lead.ConvertedDate,
		lead.LostReason,
		lead.ID,
	).Scan(&lead.UpdatedAt)
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	return scanLead(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=$1`, id))
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	var where whereBuilder
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where.add("status = ANY($%d)", statuses)
	}
	if filter.AssignedStaffID != nil {
		if filter.IncludeUnassigned {
			where.add("(assigned_staff_id=$%d OR assigned_staff_id IS NULL)", *filter.AssignedStaffID)
		} else {
			where.add("assigned_staff_id=$%d", *filter.AssignedStaffID)
		}
	}
	if filter.Source != nil {
		where.add("source=$%d", *filter.Source)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where.add("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%[1]d OR LOWER(company_name) LIKE $%[1]d)",
			"%"+strings.ToLower(s)+"%")
	}
	query := `SELECT ` + leadColumns + ` FROM leads` + where.sql() +
		` ORDER BY created_at DESC` + pageClause(filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *lead)
	}
	return result, rows.Err()
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	if err := row.Scan(
		&lead.ID,
		&lead.LeadID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.CompanyName,
		&lead.Source,
		&lead.Notes,
		&lead.Status,
		&lead.Priority,
		&lead.AssignedStaffID,
		&lead.ServiceItemID,
		&lead.ConvertedClientID,
		&lead.ConvertedDate,
		&lead.LostReason,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
