package dto

import "time"

// StaffCreateRequest onboards an employee.
type StaffCreateRequest struct {
	AccountRequest
	EmployeeID   string     `json:"employee_id"`
	Designation  string     `json:"designation"`
	Department   string     `json:"department"`
	SupervisorID *string    `json:"supervisor_id"`
	HourlyRate   float64    `json:"hourly_rate"`
	JoiningDate  *time.Time `json:"joining_date"`
}

// StaffUpdateRequest is a partial update; absent fields are left alone.
type StaffUpdateRequest struct {
	EmployeeID      *string    `json:"employee_id"`
	Designation     *string    `json:"designation"`
	Department      *string    `json:"department"`
	SupervisorID    *string    `json:"supervisor_id"`
	ClearSupervisor bool       `json:"clear_supervisor"`
	HourlyRate      *float64   `json:"hourly_rate"`
	JoiningDate     *time.Time `json:"joining_date"`
}

// AvailabilityRequest toggles whether a staff member takes new work.
type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

// StaffResponse profile.
type StaffResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	EmployeeID   string     `json:"employee_id"`
	Designation  string     `json:"designation"`
	Department   string     `json:"department"`
	SupervisorID *string    `json:"supervisor_id"`
	HourlyRate   float64    `json:"hourly_rate"`
	IsAvailable  bool       `json:"is_available"`
	JoiningDate  *time.Time `json:"joining_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
