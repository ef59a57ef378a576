/*
Package hr provides the core HR administration engine.

PURPOSE:
  This package contains the domain types and rules for managing employees,
  departments, and leave requests: how a leave request's dual approval state
  is derived and transitioned, how leave balances are debited, and how the
  "manager" role on a user record is kept consistent with department
  assignments.

KEY CONCEPTS IN THIS FILE (types.go):
  - User: Identity + employment record with leave balances
  - Department: Organizational unit with a manager reference
  - Leave: A leave request with two independent approval tracks
  - RoleSet: Small fixed set of role tags with explicit add/remove/has

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for balances to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing user/department/leave IDs
  3. Explicit state: Approval tracks are enums, never free-form strings

SEE ALSO:
  - approval.go: Dual approval state machine
  - ledger.go: Balance debits and credits
  - rolesync.go: Manager-role consistency
*/
package hr

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type DepartmentID string
type LeaveID string

// =============================================================================
// ROLES
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is one of the known role tags.
func ValidRole(r Role) bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// RoleSet is a fixed set of role tags. The employee role is always present:
// Add of anything else leaves it alone, Remove of RoleEmployee is a no-op.
// Only the role synchronizer and explicit admin actions should mutate it.
type RoleSet map[Role]struct{}

// NewRoleSet builds a role set containing RoleEmployee plus the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	rs := RoleSet{RoleEmployee: {}}
	for _, r := range roles {
		if ValidRole(r) {
			rs[r] = struct{}{}
		}
	}
	return rs
}

func (rs RoleSet) Has(r Role) bool { _, ok := rs[r]; return ok }

func (rs RoleSet) Add(r Role) {
	if ValidRole(r) {
		rs[r] = struct{}{}
	}
}

// Remove drops a role tag. The default employee role is never removed.
func (rs RoleSet) Remove(r Role) {
	if r == RoleEmployee {
		return
	}
	delete(rs, r)
}

func (rs RoleSet) IsAdmin() bool   { return rs.Has(RoleAdmin) }
func (rs RoleSet) IsManager() bool { return rs.Has(RoleManager) }

// Roles returns the tags in stable (sorted) order for serialization.
func (rs RoleSet) Roles() []Role {
	out := make([]Role, 0, len(rs))
	for r := range rs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (rs RoleSet) Clone() RoleSet {
	out := make(RoleSet, len(rs))
	for r := range rs {
		out[r] = struct{}{}
	}
	return out
}

func (rs RoleSet) String() string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs.Roles() {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

// ParseRoleSet rebuilds a role set from its String form. Unknown tags are
// dropped; the employee role is always restored.
func ParseRoleSet(s string) RoleSet {
	rs := NewRoleSet()
	for _, part := range strings.Split(s, ",") {
		rs.Add(Role(strings.TrimSpace(part)))
	}
	return rs
}

// =============================================================================
// LEAVE ENUMS
// =============================================================================

type LeaveType string

const (
	LeaveAnnual LeaveType = "Annual"
	LeaveSick   LeaveType = "Sick"
	LeaveUnpaid LeaveType = "Unpaid"
)

func ValidLeaveType(t LeaveType) bool {
	switch t {
	case LeaveAnnual, LeaveSick, LeaveUnpaid:
		return true
	}
	return false
}

// LeaveCategory selects the duration semantics: CategoryLeave is billed by
// wall-clock hours in units of 8-hour workdays, CategoryVacation by whole
// calendar days excluding rest days.
type LeaveCategory string

const (
	CategoryLeave    LeaveCategory = "Leave"
	CategoryVacation LeaveCategory = "Vacation"
)

func ValidLeaveCategory(c LeaveCategory) bool {
	return c == CategoryLeave || c == CategoryVacation
}

// ManagerAction is the manager-track approval state.
// Skipped is an initial-only terminal state: it is derived at creation when
// no manager review is applicable and never re-entered afterwards.
type ManagerAction string

const (
	ManagerPending  ManagerAction = "Pending"
	ManagerSkipped  ManagerAction = "Skipped"
	ManagerApproved ManagerAction = "Approved"
	ManagerRejected ManagerAction = "Rejected"
)

// HRAction is the HR-track approval state.
type HRAction string

const (
	HRPending  HRAction = "Pending"
	HRApproved HRAction = "Approved"
	HRRejected HRAction = "Rejected"
)

// =============================================================================
// USER - Identity + employment record
// =============================================================================

// DefaultLeaveBalance is the starting sick and annual balance for new users.
var DefaultLeaveBalance = decimal.NewFromInt(14)

type User struct {
	ID           UserID
	Username     string
	Email        string
	PasswordHash string
	Roles        RoleSet

	// DepartmentID is empty when the user has no department assignment.
	DepartmentID DepartmentID
	JobTitle     string
	Salary       decimal.Decimal
	StartDate    time.Time

	// Balances are signed: debits may drive them negative (no floor).
	SickBalance   decimal.Decimal
	AnnualBalance decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) HasDepartment() bool { return u.DepartmentID != "" }

// =============================================================================
// DEPARTMENT - Organizational unit
// =============================================================================

type Department struct {
	ID   DepartmentID
	Name string

	// ManagerID must resolve to an existing user at assignment time.
	ManagerID UserID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// LEAVE - A single leave request
// =============================================================================

type Leave struct {
	ID          LeaveID
	RequesterID UserID

	Type     LeaveType
	Category LeaveCategory

	// EndDate must be >= StartDate; the validation front door enforces it.
	StartDate time.Time
	EndDate   time.Time

	ManagerAction ManagerAction
	HRAction      HRAction

	Reason    string
	Withdrawn bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
