package domain

import "time"

// ServiceCategory is the top level of the service catalog.
type ServiceCategory struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// ServiceSubcategory groups items under a category.
type ServiceSubcategory struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// ServiceItem is a billable offering.
type ServiceItem struct {
	ID             string
	SubcategoryID  string
	Name           string
	Description    string
	EstimatedHours float64
	IsActive       bool
	CreatedAt      time.Time
}
