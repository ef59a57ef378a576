package hr_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-engine/hr"
	"github.com/warp/hr-engine/hr/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newMemory(t *testing.T) *store.Memory {
	t.Helper()
	return store.NewMemory()
}

func seedUser(t *testing.T, m *store.Memory, id string, roles ...hr.Role) *hr.User {
	t.Helper()
	now := time.Now().UTC()
	u := hr.User{
		ID:            hr.UserID(id),
		Username:      id,
		Email:         id + "@example.com",
		Roles:         hr.NewRoleSet(roles...),
		SickBalance:   hr.DefaultLeaveBalance,
		AnnualBalance: hr.DefaultLeaveBalance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, m.SaveUser(context.Background(), u))
	return &u
}

func seedDepartment(t *testing.T, m *store.Memory, id, name string, manager hr.UserID) *hr.Department {
	t.Helper()
	now := time.Now().UTC()
	d := hr.Department{
		ID:        hr.DepartmentID(id),
		Name:      name,
		ManagerID: manager,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, m.SaveDepartment(context.Background(), d))
	return &d
}

// vacationLeave is a one-week vacation worth 5 days.
func vacationLeave(id string, requester hr.UserID, leaveType hr.LeaveType) *hr.Leave {
	return &hr.Leave{
		ID:            hr.LeaveID(id),
		RequesterID:   requester,
		Type:          leaveType,
		Category:      hr.CategoryVacation,
		StartDate:     date(2025, time.March, 3),  // Monday
		EndDate:       date(2025, time.March, 10), // next Monday
		ManagerAction: hr.ManagerPending,
		HRAction:      hr.HRPending,
	}
}

// =============================================================================
// BALANCE LEDGER TESTS
// =============================================================================

func TestLedger_Debit_Annual(t *testing.T) {
	// GIVEN: A user with the default 14-day balances
	// WHEN: Debiting a 5-day Annual vacation
	// THEN: Annual drops to 9, Sick stays 14

	m := newMemory(t)
	ctx := context.Background()
	u := seedUser(t, m, "u1")
	var ledger hr.BalanceLedger

	err := ledger.Debit(ctx, m, vacationLeave("l1", u.ID, hr.LeaveAnnual))
	require.NoError(t, err)

	after, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, after.AnnualBalance.Equal(days(9)), "annual: got %v", after.AnnualBalance)
	assert.True(t, after.SickBalance.Equal(days(14)), "sick: got %v", after.SickBalance)
}

func TestLedger_Debit_SickTargetsSickBalance(t *testing.T) {
	// GIVEN: A user with default balances
	// WHEN: Debiting a 5-day Sick vacation
	// THEN: Sick drops to 9, Annual stays 14

	m := newMemory(t)
	ctx := context.Background()
	u := seedUser(t, m, "u1")
	var ledger hr.BalanceLedger

	err := ledger.Debit(ctx, m, vacationLeave("l1", u.ID, hr.LeaveSick))
	require.NoError(t, err)

	after, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, after.SickBalance.Equal(days(9)), "sick: got %v", after.SickBalance)
	assert.True(t, after.AnnualBalance.Equal(days(14)), "annual: got %v", after.AnnualBalance)
}

func TestLedger_Debit_UnpaidIsNoOp(t *testing.T) {
	// GIVEN: A user with default balances
	// WHEN: Debiting an Unpaid leave
	// THEN: Neither balance moves

	m := newMemory(t)
	ctx := context.Background()
	u := seedUser(t, m, "u1")
	var ledger hr.BalanceLedger

	err := ledger.Debit(ctx, m, vacationLeave("l1", u.ID, hr.LeaveUnpaid))
	require.NoError(t, err)

	after, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, after.AnnualBalance.Equal(days(14)))
	assert.True(t, after.SickBalance.Equal(days(14)))
}

func TestLedger_Debit_AllowsNegativeBalance(t *testing.T) {
	// GIVEN: A user whose annual balance is already 2
	// WHEN: Debiting a 5-day Annual vacation
	// THEN: The balance goes to -3; there is no floor

	m := newMemory(t)
	ctx := context.Background()
	u := seedUser(t, m, "u1")
	u.AnnualBalance = days(2)
	require.NoError(t, m.SaveUser(ctx, *u))
	var ledger hr.BalanceLedger

	err := ledger.Debit(ctx, m, vacationLeave("l1", u.ID, hr.LeaveAnnual))
	require.NoError(t, err)

	after, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, after.AnnualBalance.Equal(days(-3)), "got %v", after.AnnualBalance)
}

func TestLedger_Debit_MissingUserFails(t *testing.T) {
	// GIVEN: A leave whose requester does not exist
	// WHEN: Debiting
	// THEN: ErrUserNotFound

	m := newMemory(t)
	var ledger hr.BalanceLedger

	err := ledger.Debit(context.Background(), m, vacationLeave("l1", "ghost", hr.LeaveAnnual))

	assert.ErrorIs(t, err, hr.ErrUserNotFound)
}

func TestLedger_Credit_ReversesDebit(t *testing.T) {
	// GIVEN: A user debited 5 annual days
	// WHEN: Crediting the same leave back
	// THEN: The balance returns to 14

	m := newMemory(t)
	ctx := context.Background()
	u := seedUser(t, m, "u1")
	var ledger hr.BalanceLedger
	leave := vacationLeave("l1", u.ID, hr.LeaveAnnual)

	require.NoError(t, ledger.Debit(ctx, m, leave))
	require.NoError(t, ledger.Credit(ctx, m, leave))

	after, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, after.AnnualBalance.Equal(days(14)), "got %v", after.AnnualBalance)
}
