package domain

import "time"

// Staff is the employee profile owned 1:1 by a STAFF user.
type Staff struct {
	ID           string
	UserID       string
	EmployeeID   string
	Designation  string
	Department   string
	SupervisorID *string
	HourlyRate   float64
	IsAvailable  bool
	JoiningDate  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
