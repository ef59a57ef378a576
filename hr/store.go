/*
store.go - Persistence interfaces for the HR engine

PURPOSE:
  Defines the interface between the domain logic and the database. Different
  implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  UserStore / DepartmentStore / LeaveStore: Per-entity persistence
  Stores:   All three bundled (what domain services operate on)
  TxStores: Stores plus WithTx for atomic multi-entity mutations

ATOMICITY CONTRACT:
  Every multi-entity mutation (leave review + balance debit, department
  mutation + manager role flip) runs inside WithTx: either both sides are
  visible to a concurrent reader, or neither is.

COMPARE-AND-SWAP TRACK WRITES:
  SetManagerAction / SetHRAction / SetWithdrawn are guarded writes: they
  succeed only while the track is still Pending (or the flag still clear)
  and fail with ErrAlreadyReviewed / ErrAlreadyWithdrawn otherwise. Two
  reviewers racing on the same leave cannot both observe Pending and win.

LOOKUP CONVENTION:
  Get* returns (nil, nil) when the record does not exist; callers translate
  that into the appropriate NotFound error with context. Delete* returns
  the NotFound sentinel when nothing was deleted.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - hr/store:     In-memory store for testing/dev
*/
package hr

import "context"

// =============================================================================
// PAGINATION
// =============================================================================

// DefaultPageSize matches the fixed page length of the list endpoints.
const DefaultPageSize = 10

// Page is a 1-based page selector.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the selector to sane values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	return p
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// =============================================================================
// ENTITY STORES
// =============================================================================

type UserStore interface {
	// GetUser returns (nil, nil) if no user has this id.
	GetUser(ctx context.Context, id UserID) (*User, error)

	// GetUserByEmail returns (nil, nil) if no user has this email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers returns one page of users plus the total count.
	ListUsers(ctx context.Context, page Page) ([]User, int, error)

	// SaveUser inserts or replaces a user record.
	// Returns ErrUserExists on a username/email uniqueness violation.
	SaveUser(ctx context.Context, u User) error

	// DeleteUser removes a user. Returns ErrUserNotFound if absent.
	DeleteUser(ctx context.Context, id UserID) error
}

type DepartmentStore interface {
	// GetDepartment returns (nil, nil) if no department has this id.
	GetDepartment(ctx context.Context, id DepartmentID) (*Department, error)

	ListDepartments(ctx context.Context, page Page) ([]Department, int, error)

	// SaveDepartment inserts or replaces a department record.
	// Returns ErrDepartmentExists on a name uniqueness violation.
	SaveDepartment(ctx context.Context, d Department) error

	// DeleteDepartment removes a department. Returns ErrDepartmentNotFound if absent.
	DeleteDepartment(ctx context.Context, id DepartmentID) error

	// CountManagedDepartments counts departments whose manager is managerID,
	// excluding the given department. The role synchronizer uses this to
	// decide whether the manager role is still warranted.
	CountManagedDepartments(ctx context.Context, managerID UserID, exclude DepartmentID) (int, error)
}

type LeaveStore interface {
	// GetLeave returns (nil, nil) if no leave has this id.
	GetLeave(ctx context.Context, id LeaveID) (*Leave, error)

	ListLeaves(ctx context.Context, page Page) ([]Leave, int, error)

	ListLeavesByRequester(ctx context.Context, requester UserID, page Page) ([]Leave, int, error)

	// SaveLeave inserts or replaces a leave record.
	SaveLeave(ctx context.Context, l Leave) error

	// SetManagerAction transitions the manager track Pending -> action under a
	// single atomic read-modify-write. Fails with ErrLeaveNotFound,
	// ErrAlreadyWithdrawn, or ErrAlreadyReviewed.
	SetManagerAction(ctx context.Context, id LeaveID, action ManagerAction) error

	// SetHRAction transitions the HR track Pending -> action. Same guards as
	// SetManagerAction.
	SetHRAction(ctx context.Context, id LeaveID, action HRAction) error

	// SetWithdrawn sets the withdrawn flag exactly once. Fails with
	// ErrLeaveNotFound or ErrAlreadyWithdrawn.
	SetWithdrawn(ctx context.Context, id LeaveID) error
}

// =============================================================================
// BUNDLES
// =============================================================================

// Stores is everything the domain services need from persistence.
type Stores interface {
	UserStore
	DepartmentStore
	LeaveStore
}

// TxStores adds transactional execution.
type TxStores interface {
	Stores

	// WithTx executes fn against a transactional view of the stores.
	// If fn returns an error the transaction is rolled back, otherwise
	// committed. The view must serialize against concurrent WithTx calls.
	WithTx(ctx context.Context, fn func(Stores) error) error
}
