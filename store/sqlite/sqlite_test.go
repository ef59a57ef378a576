package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-engine/hr"
	"github.com/warp/hr-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testUser(id string, roles ...hr.Role) hr.User {
	now := time.Now().UTC().Truncate(time.Second)
	return hr.User{
		ID:            hr.UserID(id),
		Username:      id,
		Email:         id + "@example.com",
		PasswordHash:  "$2a$10$hash",
		Roles:         hr.NewRoleSet(roles...),
		JobTitle:      "engineer",
		SickBalance:   hr.DefaultLeaveBalance,
		AnnualBalance: hr.DefaultLeaveBalance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func testLeave(id string, requester hr.UserID) hr.Leave {
	now := time.Now().UTC().Truncate(time.Second)
	return hr.Leave{
		ID:            hr.LeaveID(id),
		RequesterID:   requester,
		Type:          hr.LeaveAnnual,
		Category:      hr.CategoryVacation,
		StartDate:     time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		ManagerAction: hr.ManagerPending,
		HRAction:      hr.HRPending,
		Reason:        "spring break",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// =============================================================================
// ROUND-TRIP TESTS
// =============================================================================

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := testUser("u1", hr.RoleManager)
	u.DepartmentID = ""
	require.NoError(t, store.SaveUser(ctx, u))

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, u.Email, got.Email)
	assert.True(t, got.Roles.IsManager())
	assert.True(t, got.Roles.Has(hr.RoleEmployee))
	assert.False(t, got.HasDepartment())
	assert.True(t, got.SickBalance.Equal(hr.DefaultLeaveBalance))
	assert.True(t, got.AnnualBalance.Equal(hr.DefaultLeaveBalance))
}

func TestGetUser_MissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetUser(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveUser_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u1 := testUser("u1")
	require.NoError(t, store.SaveUser(ctx, u1))

	u2 := testUser("u2")
	u2.Email = u1.Email
	err := store.SaveUser(ctx, u2)
	assert.ErrorIs(t, err, hr.ErrUserExists)
}

func TestGetUserByEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := testUser("u1")
	require.NoError(t, store.SaveUser(ctx, u))

	got, err := store.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}

func TestDeleteUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	require.NoError(t, store.DeleteUser(ctx, "u1"))

	got, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = store.DeleteUser(ctx, "u1")
	assert.ErrorIs(t, err, hr.ErrUserNotFound)
}

func TestDepartmentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("boss")))

	now := time.Now().UTC().Truncate(time.Second)
	d := hr.Department{
		ID:        "d1",
		Name:      "Engineering",
		ManagerID: "boss",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.SaveDepartment(ctx, d))

	got, err := store.GetDepartment(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, d.ManagerID, got.ManagerID)

	err = store.SaveDepartment(ctx, hr.Department{ID: "d2", Name: "Engineering", ManagerID: "boss"})
	assert.ErrorIs(t, err, hr.ErrDepartmentExists)
}

func TestCountManagedDepartments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("boss")))
	require.NoError(t, store.SaveDepartment(ctx, hr.Department{ID: "d1", Name: "Eng", ManagerID: "boss"}))
	require.NoError(t, store.SaveDepartment(ctx, hr.Department{ID: "d2", Name: "Ops", ManagerID: "boss"}))

	n, err := store.CountManagedDepartments(ctx, "boss", "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Excluding the department being mutated
	n, err = store.CountManagedDepartments(ctx, "boss", "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLeaveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	l := testLeave("l1", "u1")
	require.NoError(t, store.SaveLeave(ctx, l))

	got, err := store.GetLeave(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, l.RequesterID, got.RequesterID)
	assert.Equal(t, hr.LeaveAnnual, got.Type)
	assert.Equal(t, hr.CategoryVacation, got.Category)
	assert.Equal(t, hr.ManagerPending, got.ManagerAction)
	assert.Equal(t, hr.HRPending, got.HRAction)
	assert.False(t, got.Withdrawn)
	assert.True(t, l.StartDate.Equal(got.StartDate))
}

// =============================================================================
// PAGINATION TESTS
// =============================================================================

func TestListLeaves_Pagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	for i := 0; i < 15; i++ {
		l := testLeave(string(rune('a'+i)), "u1")
		require.NoError(t, store.SaveLeave(ctx, l))
	}

	page1, total, err := store.ListLeaves(ctx, hr.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 15, total)
	assert.Len(t, page1, 10)

	page2, total, err := store.ListLeaves(ctx, hr.Page{Number: 2, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 15, total)
	assert.Len(t, page2, 5)
}

func TestListLeavesByRequester(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	require.NoError(t, store.SaveUser(ctx, testUser("u2")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l1", "u1")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l2", "u2")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l3", "u1")))

	leaves, total, err := store.ListLeavesByRequester(ctx, "u1", hr.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, l := range leaves {
		assert.Equal(t, hr.UserID("u1"), l.RequesterID)
	}
}

// =============================================================================
// CAS GUARD TESTS
// =============================================================================

func TestSetManagerAction_CASGuard(t *testing.T) {
	// GIVEN: A pending leave
	// WHEN: Two manager decisions land one after the other
	// THEN: The first wins, the second gets ErrAlreadyReviewed

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l1", "u1")))

	require.NoError(t, store.SetManagerAction(ctx, "l1", hr.ManagerApproved))

	err := store.SetManagerAction(ctx, "l1", hr.ManagerRejected)
	assert.ErrorIs(t, err, hr.ErrAlreadyReviewed)

	got, _ := store.GetLeave(ctx, "l1")
	assert.Equal(t, hr.ManagerApproved, got.ManagerAction)
}

func TestSetHRAction_CASGuard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l1", "u1")))

	require.NoError(t, store.SetHRAction(ctx, "l1", hr.HRApproved))

	err := store.SetHRAction(ctx, "l1", hr.HRRejected)
	assert.ErrorIs(t, err, hr.ErrAlreadyReviewed)
}

func TestSetManagerAction_MissingLeave(t *testing.T) {
	store := newTestStore(t)

	err := store.SetManagerAction(context.Background(), "ghost", hr.ManagerApproved)
	assert.ErrorIs(t, err, hr.ErrLeaveNotFound)
}

func TestSetWithdrawn_Guards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l1", "u1")))

	require.NoError(t, store.SetWithdrawn(ctx, "l1"))

	err := store.SetWithdrawn(ctx, "l1")
	assert.ErrorIs(t, err, hr.ErrAlreadyWithdrawn)

	// Withdrawn leaves freeze both tracks
	err = store.SetManagerAction(ctx, "l1", hr.ManagerApproved)
	assert.ErrorIs(t, err, hr.ErrAlreadyWithdrawn)
	err = store.SetHRAction(ctx, "l1", hr.HRApproved)
	assert.ErrorIs(t, err, hr.ErrAlreadyWithdrawn)
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestWithTx_CommitsBothWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l1", "u1")))

	err := store.WithTx(ctx, func(s hr.Stores) error {
		if err := s.SetHRAction(ctx, "l1", hr.HRApproved); err != nil {
			return err
		}
		u, err := s.GetUser(ctx, "u1")
		if err != nil {
			return err
		}
		u.AnnualBalance = u.AnnualBalance.Sub(hr.DefaultLeaveBalance)
		return s.SaveUser(ctx, *u)
	})
	require.NoError(t, err)

	leave, _ := store.GetLeave(ctx, "l1")
	assert.Equal(t, hr.HRApproved, leave.HRAction)
	u, _ := store.GetUser(ctx, "u1")
	assert.True(t, u.AnnualBalance.IsZero(), "got %v", u.AnnualBalance)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that writes the HR track and then fails
	// WHEN: The function returns an error
	// THEN: Neither write is visible afterwards

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, testUser("u1")))
	require.NoError(t, store.SaveLeave(ctx, testLeave("l1", "u1")))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s hr.Stores) error {
		if err := s.SetHRAction(ctx, "l1", hr.HRApproved); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	leave, _ := store.GetLeave(ctx, "l1")
	assert.Equal(t, hr.HRPending, leave.HRAction, "rolled-back write must not be visible")
}
