/*
rolesync.go - Organizational role synchronizer

PURPOSE:
  Maintains the invariant "a user has the manager role iff they currently
  manage at least one department". Triggered by three department mutations:

  - Created with a manager:   grant the role to that user
  - Manager reassigned:       grant to the new manager, then release the old
                              one if no other department still names them
  - Deleted:                  release the former manager likewise

  The release check is count-based: it counts departments still assigning
  the user as manager, excluding the department being mutated (whose
  reference has already changed or is gone). This deliberately supports
  managers of multiple departments.

FAILURE SEMANTICS:
  A missing user during grant fails with ErrUserNotFound; the surrounding
  department mutation must roll back (the caller runs both inside WithTx).
  A missing user during release is a no-op: there is no role to remove.
*/
package hr

import (
	"context"
	"fmt"
)

// RoleSynchronizer keeps manager role tags consistent with department
// manager references. Stateless.
type RoleSynchronizer struct{}

// EnsureManagerRole grants the manager role to the user, persisting only
// when the role was actually missing.
func (RoleSynchronizer) EnsureManagerRole(ctx context.Context, stores Stores, id UserID) error {
	user, err := stores.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load manager: %w", err)
	}
	if user == nil {
		return fmt.Errorf("manager %s: %w", id, ErrUserNotFound)
	}

	if user.Roles.IsManager() {
		return nil
	}
	user.Roles.Add(RoleManager)
	if err := stores.SaveUser(ctx, *user); err != nil {
		return fmt.Errorf("failed to grant manager role: %w", err)
	}
	return nil
}

// ReleaseManagerRole removes the manager role from the user if they manage
// no department other than exclude. Missing users are ignored.
func (RoleSynchronizer) ReleaseManagerRole(ctx context.Context, stores Stores, id UserID, exclude DepartmentID) error {
	user, err := stores.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load former manager: %w", err)
	}
	if user == nil {
		return nil
	}

	remaining, err := stores.CountManagedDepartments(ctx, id, exclude)
	if err != nil {
		return fmt.Errorf("failed to count managed departments: %w", err)
	}
	if remaining > 0 {
		return nil
	}

	if !user.Roles.IsManager() {
		return nil
	}
	user.Roles.Remove(RoleManager)
	if err := stores.SaveUser(ctx, *user); err != nil {
		return fmt.Errorf("failed to remove manager role: %w", err)
	}
	return nil
}
