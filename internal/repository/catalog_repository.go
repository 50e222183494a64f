package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/backoffice/internal/domain"
)

// CatalogRepository reads the seeded service catalog.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.ServiceCategory, error)
	ListSubcategories(ctx context.Context) ([]domain.ServiceSubcategory, error)
	ListItems(ctx context.Context) ([]domain.ServiceItem, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository builds the repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.ServiceCategory, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
        SELECT id, name, description, is_active, created_at FROM service_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceCategory
	for rows.Next() {
		var c domain.ServiceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *catalogRepository) ListSubcategories(ctx context.Context) ([]domain.ServiceSubcategory, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
        SELECT id, category_id, name, description, is_active, created_at FROM service_subcategories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceSubcategory
	for rows.Next() {
		var s domain.ServiceSubcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *catalogRepository) ListItems(ctx context.Context) ([]domain.ServiceItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
        SELECT id, subcategory_id, name, description, estimated_hours, is_active, created_at
        FROM service_items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ServiceItem
	for rows.Next() {
		var i domain.ServiceItem
		if err := rows.Scan(&i.ID, &i.SubcategoryID, &i.Name, &i.Description, &i.EstimatedHours, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	return result, rows.Err()
}
