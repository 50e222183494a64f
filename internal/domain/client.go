package domain

import "time"

// Client is the business profile owned 1:1 by a CLIENT user.
type Client struct {
	ID              string
	UserID          string
	CompanyName     string
	BusinessType    string
	PAN             string
	GSTNumber       string
	TAN             string
	Address         string
	City            string
	State           string
	PostalCode      string
	AssignedStaffID *string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
