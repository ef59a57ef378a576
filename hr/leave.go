/*
leave.go - Leave request lifecycle

PURPOSE:
  Orchestrates the full lifecycle of leave requests:
  1. Creation: Derive both approval tracks from the creator's roles and
     department; admins get instant HR approval and an immediate debit.
  2. Manager review: Department manager resolves the manager track.
  3. HR review: Any admin resolves the HR track; approval debits the balance.
  4. Withdrawal: Requester-only, once; an already-applied debit is credited
     back in the same transaction.

REQUEST FLOW:
  ┌────────────────────────────────────────────────────────────────┐
  │                                                                │
  │  Employee         Derive initial       Manager + HR            │
  │  submits    ──▶   approval tracks ──▶  review independently    │
  │                                                                │
  │                         │                    │                 │
  │                         ▼                    ▼                 │
  │                   admin creator?       HR "Approved"?          │
  │                   debit at creation    debit on transition     │
  │                                                                │
  └────────────────────────────────────────────────────────────────┘

ATOMICITY:
  Every mutation runs inside TxStores.WithTx: the approval-state write and
  the balance write commit together or not at all. The track writes
  themselves are CAS operations in the store, so two reviewers racing on
  the same leave cannot both win the Pending -> X transition.

AUTHORIZATION:
  The generic role gate (is the actor a manager / an admin) lives in the
  transport layer. This service enforces only the domain-specific checks
  that need domain data: "is this reviewer actually this requester's
  department manager" and "is this actor the requester".

SEE ALSO:
  - approval.go: Initial-state derivation and decision validation
  - ledger.go: Balance debits and credits
*/
package hr

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LeaveService handles leave request operations.
type LeaveService struct {
	Stores TxStores
	Ledger BalanceLedger
}

func NewLeaveService(stores TxStores) *LeaveService {
	return &LeaveService{Stores: stores}
}

// CreateLeaveInput carries the already-validated fields of a new request.
// The validation front door guarantees enum membership and EndDate >= StartDate.
type CreateLeaveInput struct {
	Type      LeaveType
	Category  LeaveCategory
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// Create builds a new leave for the requester, deriving both approval
// tracks. When the requester is an admin the HR track starts Approved and
// the balance debit happens immediately, in the same transaction.
func (s *LeaveService) Create(ctx context.Context, requester *User, in CreateLeaveInput) (*Leave, error) {
	var created *Leave

	err := s.Stores.WithTx(ctx, func(stores Stores) error {
		managerAction, err := InitialManagerAction(ctx, stores, requester)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		leave := Leave{
			ID:            LeaveID(uuid.NewString()),
			RequesterID:   requester.ID,
			Type:          in.Type,
			Category:      in.Category,
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			ManagerAction: managerAction,
			HRAction:      InitialHRAction(requester),
			Reason:        in.Reason,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := stores.SaveLeave(ctx, leave); err != nil {
			return fmt.Errorf("failed to save leave: %w", err)
		}

		if leave.HRAction == HRApproved {
			if err := s.Ledger.Debit(ctx, stores, &leave); err != nil {
				return err
			}
		}

		created = &leave
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ReviewAsManager resolves the manager track. The reviewer must be the
// manager of the requester's department; the track must still be Pending.
// Manager review never touches balances.
func (s *LeaveService) ReviewAsManager(ctx context.Context, id LeaveID, reviewer *User, decision ManagerAction) (*Leave, error) {
	if err := ValidateManagerDecision(decision); err != nil {
		return nil, err
	}

	var reviewed *Leave
	err := s.Stores.WithTx(ctx, func(stores Stores) error {
		leave, err := s.loadLeave(ctx, stores, id)
		if err != nil {
			return err
		}
		if leave.ManagerAction != ManagerPending {
			return ErrAlreadyReviewed
		}

		requester, err := stores.GetUser(ctx, leave.RequesterID)
		if err != nil {
			return fmt.Errorf("failed to load requester: %w", err)
		}
		if requester == nil {
			return fmt.Errorf("requester %s: %w", leave.RequesterID, ErrUserNotFound)
		}
		if !requester.HasDepartment() {
			return ErrNotDepartmentManager
		}
		dept, err := stores.GetDepartment(ctx, requester.DepartmentID)
		if err != nil {
			return fmt.Errorf("failed to load requester's department: %w", err)
		}
		if dept == nil || dept.ManagerID != reviewer.ID {
			return ErrNotDepartmentManager
		}

		if err := stores.SetManagerAction(ctx, leave.ID, decision); err != nil {
			return err
		}

		leave.ManagerAction = decision
		reviewed = leave
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// ReviewAsHR resolves the HR track. HR authority is global, so there is no
// department check here; the transport-level gate restricts the operation
// to admins. An Approved decision debits the requester's balance in the
// same transaction.
func (s *LeaveService) ReviewAsHR(ctx context.Context, id LeaveID, reviewer *User, decision HRAction) (*Leave, error) {
	if err := ValidateHRDecision(decision); err != nil {
		return nil, err
	}

	var reviewed *Leave
	err := s.Stores.WithTx(ctx, func(stores Stores) error {
		leave, err := s.loadLeave(ctx, stores, id)
		if err != nil {
			return err
		}
		if leave.HRAction != HRPending {
			return ErrAlreadyReviewed
		}

		if err := stores.SetHRAction(ctx, leave.ID, decision); err != nil {
			return err
		}
		leave.HRAction = decision

		if decision == HRApproved {
			if err := s.Ledger.Debit(ctx, stores, leave); err != nil {
				return err
			}
		}

		reviewed = leave
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// Withdraw marks the leave withdrawn. Only the requester may withdraw, and
// only once. A leave whose HR track already applied a debit gets the same
// amount credited back, atomically with the flag write. Withdrawal freezes
// both approval tracks: later reviews fail with ErrAlreadyWithdrawn.
func (s *LeaveService) Withdraw(ctx context.Context, id LeaveID, requester *User) error {
	return s.Stores.WithTx(ctx, func(stores Stores) error {
		leave, err := stores.GetLeave(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load leave: %w", err)
		}
		if leave == nil {
			return fmt.Errorf("leave %s: %w", id, ErrLeaveNotFound)
		}
		if leave.RequesterID != requester.ID {
			return ErrNotRequester
		}

		if err := stores.SetWithdrawn(ctx, leave.ID); err != nil {
			return err
		}

		if leave.HRAction == HRApproved {
			if err := s.Ledger.Credit(ctx, stores, leave); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns a leave by id.
func (s *LeaveService) Get(ctx context.Context, id LeaveID) (*Leave, error) {
	leave, err := s.Stores.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave == nil {
		return nil, fmt.Errorf("leave %s: %w", id, ErrLeaveNotFound)
	}
	return leave, nil
}

// List returns one page of all leaves plus the total record count.
func (s *LeaveService) List(ctx context.Context, page Page) ([]Leave, int, error) {
	return s.Stores.ListLeaves(ctx, page.Normalize())
}

// ListOwn returns one page of the requester's own leaves.
func (s *LeaveService) ListOwn(ctx context.Context, requester UserID, page Page) ([]Leave, int, error) {
	return s.Stores.ListLeavesByRequester(ctx, requester, page.Normalize())
}

// loadLeave fetches a leave for a review transition, translating absence
// and the withdrawn freeze into domain errors.
func (s *LeaveService) loadLeave(ctx context.Context, stores Stores, id LeaveID) (*Leave, error) {
	leave, err := stores.GetLeave(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load leave: %w", err)
	}
	if leave == nil {
		return nil, fmt.Errorf("leave %s: %w", id, ErrLeaveNotFound)
	}
	if leave.Withdrawn {
		return nil, ErrAlreadyWithdrawn
	}
	return leave, nil
}
