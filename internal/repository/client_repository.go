package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// ClientRepository manages client profiles.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]domain.Client, error)
	ListIDsByAssignedStaff(ctx context.Context, staffID string) ([]string, error)
}

// ClientFilter narrows client listings. When Scoped is set only IDs are
// eligible, and an empty IDs slice yields no rows.
type ClientFilter struct {
	Scoped          bool
	IDs             []string
	AssignedStaffID *string
	Active          *bool
	Search          string
	Limit           int
	Offset          int
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository builds the repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientColumns = `id, user_id, company_name, business_type, pan, gst_number, tan, address, city, state,
               postal_code, assigned_staff_id, is_active, created_at, updated_at`

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (user_id, company_name, business_type, pan, gst_number, tan, address, city, state,
            postal_code, assigned_staff_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		client.UserID,
		client.CompanyName,
		client.BusinessType,
		client.PAN,
		client.GSTNumber,
		client.TAN,
		client.Address,
		client.City,
		client.State,
		client.PostalCode,
		client.AssignedStaffID,
		client.IsActive,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `
        UPDATE clients SET company_name=$1, business_type=$2, pan=$3, gst_number=$4, tan=$5, address=$6,
            city=$7, state=$8, postal_code=$9, assigned_staff_id=$10, is_active=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		client.CompanyName,
		client.BusinessType,
		client.PAN,
		client.GSTNumber,
		client.TAN,
		client.Address,
		client.City,
		client.State,
		client.PostalCode,
		client.AssignedStaffID,
		client.IsActive,
		client.ID,
	).Scan(&client.UpdatedAt)
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return scanClient(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id))
}

func (r *clientRepository) GetByUserID(ctx context.Context, userID string) (*domain.Client, error) {
	return scanClient(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id=$1`, userID))
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter) ([]domain.Client, error) {
	if filter.Scoped && len(filter.IDs) == 0 {
		return []domain.Client{}, nil
	}
	var where whereBuilder
	if filter.Scoped {
		where.add("id = ANY($%d::uuid[])", filter.IDs)
	}
	if filter.AssignedStaffID != nil {
		where.add("assigned_staff_id=$%d", *filter.AssignedStaffID)
	}
	if filter.Active != nil {
		where.add("is_active=$%d", *filter.Active)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where.add("LOWER(company_name) LIKE $%d", "%"+strings.ToLower(s)+"%")
	}
	query := `SELECT ` + clientColumns + ` FROM clients` + where.sql() +
		` ORDER BY company_name ASC` + pageClause(filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *client)
	}
	return result, rows.Err()
}

func (r *clientRepository) ListIDsByAssignedStaff(ctx context.Context, staffID string) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id FROM clients WHERE assigned_staff_id=$1`, staffID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var client domain.Client
	if err := row.Scan(
		&client.ID,
		&client.UserID,
		&client.CompanyName,
		&client.BusinessType,
		&client.PAN,
		&client.GSTNumber,
		&client.TAN,
		&client.Address,
		&client.City,
		&client.State,
		&client.PostalCode,
		&client.AssignedStaffID,
		&client.IsActive,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}
