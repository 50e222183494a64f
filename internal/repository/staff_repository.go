package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// StaffRepository handles persistence for staff profiles.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	Update(ctx context.Context, staff *domain.Staff) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Staff, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Department *string
	Available  *bool
	Limit      int
	Offset     int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `id, user_id, employee_id, designation, department, supervisor_id, hourly_rate,
               is_available, joining_date, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	const query = `
        INSERT INTO staff (user_id, employee_id, designation, department, supervisor_id, hourly_rate, is_available, joining_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return conn(ctx, r.pool).QueryRow(ctx, query,
		staff.UserID,
		staff.EmployeeID,
		staff.Designation,
		staff.Department,
		staff.SupervisorID,
		staff.HourlyRate,
		staff.IsAvailable,
		staff.JoiningDate,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.Staff) error {
	const query = `
        UPDATE staff
        SET employee_id=$1, designation=$2, department=$3, supervisor_id=$4, hourly_rate=$5, is_available=$6,
            joining_date=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`

	return conn(ctx, r.pool).QueryRow(ctx, query,
		staff.EmployeeID,
		staff.Designation,
		staff.Department,
		staff.SupervisorID,
		staff.HourlyRate,
		staff.IsAvailable,
		staff.JoiningDate,
		staff.ID,
	).Scan(&staff.UpdatedAt)
}

func (r *staffRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM staff WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	return scanStaff(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id=$1`, id))
}

func (r *staffRepository) GetByUserID(ctx context.Context, userID string) (*domain.Staff, error) {
	return scanStaff(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE user_id=$1`, userID))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error) {
	var where whereBuilder
	if filter.Department != nil {
		where.add("department=$%d", *filter.Department)
	}
	if filter.Available != nil {
		where.add("is_available=$%d", *filter.Available)
	}
	query := `SELECT ` + staffColumns + ` FROM staff` + where.sql() +
		` ORDER BY created_at DESC` + pageClause(filter.Limit, filter.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Staff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *staff)
	}
	return result, rows.Err()
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var staff domain.Staff
	if err := row.Scan(
		&staff.ID,
		&staff.UserID,
		&staff.EmployeeID,
		&staff.Designation,
		&staff.Department,
		&staff.SupervisorID,
		&staff.HourlyRate,
		&staff.IsAvailable,
		&staff.JoiningDate,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}
