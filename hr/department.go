/*
department.go - Department lifecycle

PURPOSE:
  Orchestrates department create/update/delete and keeps user role tags
  consistent through the role synchronizer. Every mutation that changes or
  removes a manager reference runs the grant/release steps inside the same
  transaction as the department write: either the department mutation and
  the role flips are all visible, or none are.

SEE ALSO:
  - rolesync.go: Grant/release rules
*/
package hr

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DepartmentService handles department operations.
type DepartmentService struct {
	Stores TxStores
	Sync   RoleSynchronizer
}

func NewDepartmentService(stores TxStores) *DepartmentService {
	return &DepartmentService{Stores: stores}
}

// Create makes a new department managed by managerID. The manager must
// exist; they are granted the manager role in the same transaction.
func (s *DepartmentService) Create(ctx context.Context, name string, managerID UserID) (*Department, error) {
	var created *Department

	err := s.Stores.WithTx(ctx, func(stores Stores) error {
		if err := s.Sync.EnsureManagerRole(ctx, stores, managerID); err != nil {
			return err
		}

		now := time.Now().UTC()
		dept := Department{
			ID:        DepartmentID(uuid.NewString()),
			Name:      name,
			ManagerID: managerID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := stores.SaveDepartment(ctx, dept); err != nil {
			return fmt.Errorf("failed to save department: %w", err)
		}

		created = &dept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateDepartmentInput carries optional field updates. Nil fields are left
// untouched.
type UpdateDepartmentInput struct {
	Name      *string
	ManagerID *UserID
}

// Update applies the input. A manager change grants the role to the new
// manager and releases the old one when no other department still names
// them, all in one transaction. Reassigning to the current manager is a
// no-op for the role sets.
func (s *DepartmentService) Update(ctx context.Context, id DepartmentID, in UpdateDepartmentInput) (*Department, error) {
	var updated *Department

	err := s.Stores.WithTx(ctx, func(stores Stores) error {
		dept, err := stores.GetDepartment(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load department: %w", err)
		}
		if dept == nil {
			return fmt.Errorf("department %s: %w", id, ErrDepartmentNotFound)
		}

		oldManager := dept.ManagerID
		if in.Name != nil {
			dept.Name = *in.Name
		}
		if in.ManagerID != nil {
			dept.ManagerID = *in.ManagerID
		}
		managerChanged := dept.ManagerID != oldManager

		if managerChanged {
			if err := s.Sync.EnsureManagerRole(ctx, stores, dept.ManagerID); err != nil {
				return err
			}
		}

		dept.UpdatedAt = time.Now().UTC()
		if err := stores.SaveDepartment(ctx, *dept); err != nil {
			return fmt.Errorf("failed to save department: %w", err)
		}

		// Release after the write so the count excludes this department's
		// old reference.
		if managerChanged && oldManager != "" {
			if err := s.Sync.ReleaseManagerRole(ctx, stores, oldManager, dept.ID); err != nil {
				return err
			}
		}

		updated = dept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReassignManager changes only the manager reference.
func (s *DepartmentService) ReassignManager(ctx context.Context, id DepartmentID, newManagerID UserID) (*Department, error) {
	return s.Update(ctx, id, UpdateDepartmentInput{ManagerID: &newManagerID})
}

// Delete removes the department and releases its former manager's role when
// no other department still names them. User records keep their department
// reference; it is not enforced continuously after assignment.
func (s *DepartmentService) Delete(ctx context.Context, id DepartmentID) error {
	return s.Stores.WithTx(ctx, func(stores Stores) error {
		dept, err := stores.GetDepartment(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load department: %w", err)
		}
		if dept == nil {
			return fmt.Errorf("department %s: %w", id, ErrDepartmentNotFound)
		}

		if err := stores.DeleteDepartment(ctx, id); err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}

		if dept.ManagerID != "" {
			if err := s.Sync.ReleaseManagerRole(ctx, stores, dept.ManagerID, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns a department by id.
func (s *DepartmentService) Get(ctx context.Context, id DepartmentID) (*Department, error) {
	dept, err := s.Stores.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, fmt.Errorf("department %s: %w", id, ErrDepartmentNotFound)
	}
	return dept, nil
}

// List returns one page of departments plus the total record count.
func (s *DepartmentService) List(ctx context.Context, page Page) ([]Department, int, error) {
	return s.Stores.ListDepartments(ctx, page.Normalize())
}
