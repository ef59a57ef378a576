/*
approval.go - Dual approval state machine for leave requests

PURPOSE:
  Every leave carries two independent approval tracks: the manager track
  (owned by the requester's department manager) and the HR track (owned by
  any admin). This file derives each track's initial state at creation time
  and validates the decisions reviewers may write.

STATE MACHINE (per track):
  Pending --(reviewer acts)--> Approved | Rejected
  Skipped                                           [initial-only, terminal]
  Approved / Rejected                               [terminal]

  A track may be created directly into a terminal state: Skipped on the
  manager track, Approved on the HR track for admin creators. Once a track
  leaves Pending it never returns.

INITIAL-STATE DERIVATION:
  HR track:      Approved if the creator is an admin, else Pending.
  Manager track: An exhaustive decision table over
                 (isAdmin, isManager, hasDepartment, isSelfManager):

    admin, anything                      -> Skipped   (admins bypass manager review)
    manager, no department record        -> Skipped   (no one to route to)
    manager, manages own department      -> Skipped   (self-review bypass)
    manager, managed by someone else     -> Pending
    plain employee, has department       -> Pending
    plain employee, no department        -> Skipped   (no one to route to)

SEE ALSO:
  - leave.go: Runs the transitions inside a store transaction
  - store.go: CAS guards that serialize racing reviewers
*/
package hr

import (
	"context"
	"fmt"
)

// InitialHRAction derives the HR track's starting state for a new leave.
// Admins bypass HR review of their own requests.
func InitialHRAction(creator *User) HRAction {
	if creator.Roles.IsAdmin() {
		return HRApproved
	}
	return HRPending
}

// InitialManagerAction derives the manager track's starting state for a new
// leave, per the decision table above. It consults the department store to
// resolve the self-manager case.
func InitialManagerAction(ctx context.Context, departments DepartmentStore, creator *User) (ManagerAction, error) {
	if creator.Roles.IsAdmin() {
		return ManagerSkipped, nil
	}

	if creator.Roles.IsManager() {
		if !creator.HasDepartment() {
			return ManagerSkipped, nil
		}
		dept, err := departments.GetDepartment(ctx, creator.DepartmentID)
		if err != nil {
			return "", fmt.Errorf("failed to resolve creator's department: %w", err)
		}
		if dept == nil {
			return ManagerSkipped, nil
		}
		if dept.ManagerID == creator.ID {
			return ManagerSkipped, nil
		}
		return ManagerPending, nil
	}

	// Plain employee: review routes to the department manager, if any.
	if creator.HasDepartment() {
		return ManagerPending, nil
	}
	return ManagerSkipped, nil
}

// ValidateManagerDecision checks a reviewer-supplied manager-track decision.
func ValidateManagerDecision(a ManagerAction) error {
	switch a {
	case ManagerApproved, ManagerRejected, ManagerSkipped:
		return nil
	}
	return &InvalidDecisionError{
		Track:    "manager",
		Decision: string(a),
		Allowed:  []string{string(ManagerApproved), string(ManagerRejected), string(ManagerSkipped)},
	}
}

// ValidateHRDecision checks a reviewer-supplied HR-track decision.
func ValidateHRDecision(a HRAction) error {
	switch a {
	case HRApproved, HRRejected:
		return nil
	}
	return &InvalidDecisionError{
		Track:    "hr",
		Decision: string(a),
		Allowed:  []string{string(HRApproved), string(HRRejected)},
	}
}
