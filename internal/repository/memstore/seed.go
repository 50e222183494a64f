package memstore

import "github.com/spec-kit/backoffice/internal/domain"

// SeedDefaultCatalog installs the same catalog migrations/002_seed_catalog.sql
// inserts, so a database-less run has services to pick from.
func (db *DB) SeedDefaultCatalog() {
	now := db.clock.Now()
	category := func(id, name, desc string) domain.ServiceCategory {
		return domain.ServiceCategory{ID: id, Name: name, Description: desc, IsActive: true, CreatedAt: now}
	}
	subcategory := func(id, categoryID, name, desc string) domain.ServiceSubcategory {
		return domain.ServiceSubcategory{ID: id, CategoryID: categoryID, Name: name, Description: desc, IsActive: true, CreatedAt: now}
	}
	item := func(id, subcategoryID, name, desc string, hours float64) domain.ServiceItem {
		return domain.ServiceItem{ID: id, SubcategoryID: subcategoryID, Name: name, Description: desc, EstimatedHours: hours, IsActive: true, CreatedAt: now}
	}

	db.SeedCatalog(
		[]domain.ServiceCategory{
			category("cat-tax", "Tax", "Direct and indirect tax compliance"),
			category("cat-accounting", "Accounting", "Bookkeeping and financial statements"),
			category("cat-formation", "Company Formation", "Incorporation and registrations"),
		},
		[]domain.ServiceSubcategory{
			subcategory("sub-income-tax", "cat-tax", "Income Tax", "Returns and assessments"),
			subcategory("sub-gst", "cat-tax", "GST", "Goods and services tax filings"),
			subcategory("sub-bookkeeping", "cat-accounting", "Bookkeeping", "Monthly books of account"),
			subcategory("sub-incorporation", "cat-formation", "Incorporation", "Entity setup"),
		},
		[]domain.ServiceItem{
			item("item-itr-individual", "sub-income-tax", "Individual ITR filing", "Annual return for individuals", 2),
			item("item-itr-business", "sub-income-tax", "Business ITR filing", "Annual return for businesses", 6),
			item("item-gst-registration", "sub-gst", "GST registration", "New GSTIN registration", 3),
			item("item-gst-monthly", "sub-gst", "Monthly GST return", "GSTR-1 and GSTR-3B", 4),
			item("item-bookkeeping", "sub-bookkeeping", "Monthly bookkeeping", "Ledger maintenance for one month", 8),
			item("item-pvt-ltd", "sub-incorporation", "Private limited incorporation", "End to end company registration", 12),
		},
	)
}
