/*
ledger.go - Balance ledger: debits leave balances

PURPOSE:
  Applies a leave's computed duration against the requester's annual or
  sick balance. Runs exactly once per leave, when the HR track transitions
  into Approved (or immediately at creation when the creator is an admin
  and HR approval is instant).

RULES:
  - Unpaid leave never touches balances (no-op).
  - Annual leave debits the annual balance; any other paid type (Sick)
    debits the sick balance.
  - Balances may go negative; there is no floor.
  - A missing user record fails with ErrUserNotFound and must abort the
    surrounding review transaction.

WITHDRAWAL ROLLBACK:
  Credit undoes a previously applied debit when a leave is withdrawn after
  HR approval. It recomputes the same duration from the stored leave, so
  debit and credit always cancel exactly.

SEE ALSO:
  - duration.go: How the debited amount is computed
  - leave.go: Where debits/credits are invoked, inside WithTx
*/
package hr

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceLedger mutates user leave balances. Stateless; all persistence
// goes through the UserStore it is handed (the transactional view).
type BalanceLedger struct{}

// Debit subtracts the leave's duration from the requester's balance.
func (BalanceLedger) Debit(ctx context.Context, users UserStore, leave *Leave) error {
	return applyBalance(ctx, users, leave, true)
}

// Credit adds the leave's duration back to the requester's balance.
func (BalanceLedger) Credit(ctx context.Context, users UserStore, leave *Leave) error {
	return applyBalance(ctx, users, leave, false)
}

func applyBalance(ctx context.Context, users UserStore, leave *Leave, debit bool) error {
	if leave.Type == LeaveUnpaid {
		return nil
	}

	user, err := users.GetUser(ctx, leave.RequesterID)
	if err != nil {
		return fmt.Errorf("failed to load user for balance update: %w", err)
	}
	if user == nil {
		return fmt.Errorf("balance update for leave %s: %w", leave.ID, ErrUserNotFound)
	}

	amount := LeaveDuration(leave.Category, leave.StartDate, leave.EndDate)
	if !debit {
		amount = amount.Neg()
	}

	if leave.Type == LeaveAnnual {
		user.AnnualBalance = user.AnnualBalance.Sub(amount)
	} else {
		user.SickBalance = user.SickBalance.Sub(amount)
	}

	if err := users.SaveUser(ctx, *user); err != nil {
		return fmt.Errorf("failed to save balance update: %w", err)
	}
	return nil
}

// BalanceFor returns the balance the given leave type draws from.
// Unpaid leave draws from nothing and returns zero.
func BalanceFor(u *User, t LeaveType) decimal.Decimal {
	switch t {
	case LeaveAnnual:
		return u.AnnualBalance
	case LeaveSick:
		return u.SickBalance
	default:
		return decimal.Zero
	}
}
