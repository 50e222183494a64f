package service

import (
	"context"

	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util"
)

// CatalogCategory is one branch of the catalog tree.
type CatalogCategory struct {
	Category      domain.ServiceCategory
	Subcategories []CatalogSubcategory
}

// CatalogSubcategory groups its items.
type CatalogSubcategory struct {
	Subcategory domain.ServiceSubcategory
	Items       []domain.ServiceItem
}

// CatalogService serves the service catalog from a snapshot taken once at
// startup. The snapshot is never mutated, so it is safe to share.
type CatalogService struct {
	tree  []CatalogCategory
	items map[string]domain.ServiceItem
}

// LoadCatalog reads the catalog tables and freezes them.
func LoadCatalog(ctx context.Context, repo repository.CatalogRepository) (*CatalogService, error) {
	categories, err := repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	subcategories, err := repo.ListSubcategories(ctx)
	if err != nil {
		return nil, err
	}
	items, err := repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	itemsBySub := make(map[string][]domain.ServiceItem)
	itemIndex := make(map[string]domain.ServiceItem, len(items))
	for _, item := range items {
		itemsBySub[item.SubcategoryID] = append(itemsBySub[item.SubcategoryID], item)
		itemIndex[item.ID] = item
	}
	subsByCategory := make(map[string][]CatalogSubcategory)
	for _, sub := range subcategories {
		subsByCategory[sub.CategoryID] = append(subsByCategory[sub.CategoryID], CatalogSubcategory{
			Subcategory: sub,
			Items:       itemsBySub[sub.ID],
		})
	}
	tree := make([]CatalogCategory, 0, len(categories))
	for _, category := range categories {
		tree = append(tree, CatalogCategory{Category: category, Subcategories: subsByCategory[category.ID]})
	}
	return &CatalogService{tree: tree, items: itemIndex}, nil
}

// Tree returns the category tree. Callers must not modify it.
func (s *CatalogService) Tree() []CatalogCategory {
	return s.tree
}

// Item looks up a service item by id.
func (s *CatalogService) Item(id string) (domain.ServiceItem, bool) {
	item, ok := s.items[id]
	return item, ok
}

// GetItem returns the item or NotFound.
func (s *CatalogService) GetItem(id string) (*domain.ServiceItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, apperrors.NewNotFound("service item", map[string]any{"id": id})
	}
	return &item, nil
}

// requireActiveItem validates an optional service item reference.
func (s *CatalogService) requireActiveItem(id *string) error {
	if id == nil || s == nil {
		return nil
	}
	item, ok := s.items[*id]
	if !ok || !item.IsActive {
		return apperrors.NewValidationError("unknown or inactive service item", map[string]any{"service_item_id": *id})
	}
	return nil
}
