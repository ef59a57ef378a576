/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATE FORMATS:
  Leave start/end dates travel as RFC 3339 timestamps (leaves measured in
  hours need the time component). Employee start dates travel as YYYY-MM-DD.
  Decimal quantities travel as strings to avoid float rounding.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/hr-engine/hr"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
// The password hash never leaves the server.
type EmployeeDTO struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	DepartmentID  string   `json:"department_id,omitempty"`
	JobTitle      string   `json:"job_title,omitempty"`
	Salary        string   `json:"salary"`
	StartDate     string   `json:"start_date,omitempty"`
	SickBalance   string   `json:"sick_balance"`
	AnnualBalance string   `json:"annual_balance"`
	CreatedAt     string   `json:"created_at"`
}

// CreateEmployeeRequest is the body for POST /api/employees.
type CreateEmployeeRequest struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Roles        []string `json:"roles,omitempty"`
	DepartmentID string   `json:"department_id,omitempty"`
	JobTitle     string   `json:"job_title,omitempty"`
	Salary       string   `json:"salary,omitempty"`
	StartDate    string   `json:"start_date,omitempty"` // YYYY-MM-DD
}

// UpdateEmployeeRequest is the body for PATCH /api/employees/{id}.
// Nil fields are left unchanged.
type UpdateEmployeeRequest struct {
	Email        *string   `json:"email,omitempty"`
	Password     *string   `json:"password,omitempty"`
	Roles        *[]string `json:"roles,omitempty"`
	DepartmentID *string   `json:"department_id,omitempty"`
	JobTitle     *string   `json:"job_title,omitempty"`
	Salary       *string   `json:"salary,omitempty"`
	StartDate    *string   `json:"start_date,omitempty"`
}

// UpdateOwnRequest is the body for PATCH /api/employees/own. Actors may only
// touch their own contact fields and password, never roles or balances.
type UpdateOwnRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// =============================================================================
// DEPARTMENT TYPES
// =============================================================================

// DepartmentDTO represents a department in API responses.
type DepartmentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ManagerID string `json:"manager_id"`
	CreatedAt string `json:"created_at"`
}

// CreateDepartmentRequest is the body for POST /api/departments.
type CreateDepartmentRequest struct {
	Name      string `json:"name"`
	ManagerID string `json:"manager_id"`
}

// UpdateDepartmentRequest is the body for PATCH /api/departments/{id}.
type UpdateDepartmentRequest struct {
	Name      *string `json:"name,omitempty"`
	ManagerID *string `json:"manager_id,omitempty"`
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveDTO represents a leave request in API responses. Duration is the
// computed debit quantity in days.
type LeaveDTO struct {
	ID            string `json:"id"`
	RequesterID   string `json:"requester_id"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Duration      string `json:"duration"`
	ManagerAction string `json:"manager_action"`
	HRAction      string `json:"hr_action"`
	Reason        string `json:"reason,omitempty"`
	Withdrawn     bool   `json:"withdrawn"`
	CreatedAt     string `json:"created_at"`
}

// CreateLeaveRequest is the body for POST /api/leaves.
type CreateLeaveRequest struct {
	Type      string `json:"type"`
	Category  string `json:"category"`
	StartDate string `json:"start_date"` // RFC 3339
	EndDate   string `json:"end_date"`   // RFC 3339
	Reason    string `json:"reason,omitempty"`
}

// ReviewRequest is the body for both review endpoints.
type ReviewRequest struct {
	Decision string `json:"decision"`
}

// =============================================================================
// SHARED TYPES
// =============================================================================

// PageDTO wraps a paginated list response.
type PageDTO struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(u *hr.User) EmployeeDTO {
	dto := EmployeeDTO{
		ID:            string(u.ID),
		Username:      u.Username,
		Email:         u.Email,
		DepartmentID:  string(u.DepartmentID),
		JobTitle:      u.JobTitle,
		Salary:        u.Salary.String(),
		SickBalance:   u.SickBalance.String(),
		AnnualBalance: u.AnnualBalance.String(),
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
	}
	for _, r := range u.Roles.Roles() {
		dto.Roles = append(dto.Roles, string(r))
	}
	if !u.StartDate.IsZero() {
		dto.StartDate = u.StartDate.Format("2006-01-02")
	}
	return dto
}

func toDepartmentDTO(d *hr.Department) DepartmentDTO {
	return DepartmentDTO{
		ID:        string(d.ID),
		Name:      d.Name,
		ManagerID: string(d.ManagerID),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
}

func toLeaveDTO(l *hr.Leave) LeaveDTO {
	return LeaveDTO{
		ID:            string(l.ID),
		RequesterID:   string(l.RequesterID),
		Type:          string(l.Type),
		Category:      string(l.Category),
		StartDate:     l.StartDate.Format(time.RFC3339),
		EndDate:       l.EndDate.Format(time.RFC3339),
		Duration:      hr.LeaveDuration(l.Category, l.StartDate, l.EndDate).String(),
		ManagerAction: string(l.ManagerAction),
		HRAction:      string(l.HRAction),
		Reason:        l.Reason,
		Withdrawn:     l.Withdrawn,
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
	}
}
