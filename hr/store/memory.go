// Package store provides an in-memory TxStores implementation (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/hr-engine/hr"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of hr.TxStores
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	users       map[hr.UserID]hr.User
	departments map[hr.DepartmentID]hr.Department
	leaves      map[hr.LeaveID]hr.Leave
	seq         int
	order       map[string]int // record id -> insertion sequence, for stable listing
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[hr.UserID]hr.User),
		departments: make(map[hr.DepartmentID]hr.Department),
		leaves:      make(map[hr.LeaveID]hr.Leave),
		order:       make(map[string]int),
	}
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) GetUser(_ context.Context, id hr.UserID) (*hr.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getUserLocked(id), nil
}

func (m *Memory) getUserLocked(id hr.UserID) *hr.User {
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.Roles = u.Roles.Clone()
	return &u
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*hr.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, u := range m.users {
		if u.Email == email {
			return m.getUserLocked(id), nil
		}
	}
	return nil, nil
}

func (m *Memory) ListUsers(_ context.Context, page hr.Page) ([]hr.User, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]hr.UserID, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sortByInsertion(m.order, ids)

	out := make([]hr.User, 0, page.Size)
	for _, id := range paginate(ids, page) {
		out = append(out, *m.getUserLocked(id))
	}
	return out, len(ids), nil
}

func (m *Memory) SaveUser(_ context.Context, u hr.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUserLocked(u)
}

func (m *Memory) saveUserLocked(u hr.User) error {
	for id, existing := range m.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username || existing.Email == u.Email {
			return hr.ErrUserExists
		}
	}
	u.Roles = u.Roles.Clone()
	if _, ok := m.users[u.ID]; !ok {
		m.track(string(u.ID))
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id hr.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteUserLocked(id)
}

func (m *Memory) deleteUserLocked(id hr.UserID) error {
	if _, ok := m.users[id]; !ok {
		return hr.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (m *Memory) GetDepartment(_ context.Context, id hr.DepartmentID) (*hr.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getDepartmentLocked(id), nil
}

func (m *Memory) getDepartmentLocked(id hr.DepartmentID) *hr.Department {
	d, ok := m.departments[id]
	if !ok {
		return nil
	}
	return &d
}

func (m *Memory) ListDepartments(_ context.Context, page hr.Page) ([]hr.Department, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]hr.DepartmentID, 0, len(m.departments))
	for id := range m.departments {
		ids = append(ids, id)
	}
	sortByInsertion(m.order, ids)

	out := make([]hr.Department, 0, page.Size)
	for _, id := range paginate(ids, page) {
		out = append(out, m.departments[id])
	}
	return out, len(ids), nil
}

func (m *Memory) SaveDepartment(_ context.Context, d hr.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveDepartmentLocked(d)
}

func (m *Memory) saveDepartmentLocked(d hr.Department) error {
	for id, existing := range m.departments {
		if id != d.ID && existing.Name == d.Name {
			return hr.ErrDepartmentExists
		}
	}
	if _, ok := m.departments[d.ID]; !ok {
		m.track(string(d.ID))
	}
	m.departments[d.ID] = d
	return nil
}

func (m *Memory) DeleteDepartment(_ context.Context, id hr.DepartmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteDepartmentLocked(id)
}

func (m *Memory) deleteDepartmentLocked(id hr.DepartmentID) error {
	if _, ok := m.departments[id]; !ok {
		return hr.ErrDepartmentNotFound
	}
	delete(m.departments, id)
	return nil
}

func (m *Memory) CountManagedDepartments(_ context.Context, managerID hr.UserID, exclude hr.DepartmentID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countManagedLocked(managerID, exclude), nil
}

func (m *Memory) countManagedLocked(managerID hr.UserID, exclude hr.DepartmentID) int {
	count := 0
	for id, d := range m.departments {
		if id != exclude && d.ManagerID == managerID {
			count++
		}
	}
	return count
}

// =============================================================================
// LEAVES
// =============================================================================

func (m *Memory) GetLeave(_ context.Context, id hr.LeaveID) (*hr.Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLeaveLocked(id), nil
}

func (m *Memory) getLeaveLocked(id hr.LeaveID) *hr.Leave {
	l, ok := m.leaves[id]
	if !ok {
		return nil
	}
	return &l
}

func (m *Memory) ListLeaves(_ context.Context, page hr.Page) ([]hr.Leave, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLeavesLocked(page, func(hr.Leave) bool { return true })
}

func (m *Memory) ListLeavesByRequester(_ context.Context, requester hr.UserID, page hr.Page) ([]hr.Leave, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLeavesLocked(page, func(l hr.Leave) bool { return l.RequesterID == requester })
}

func (m *Memory) listLeavesLocked(page hr.Page, match func(hr.Leave) bool) ([]hr.Leave, int, error) {
	ids := make([]hr.LeaveID, 0, len(m.leaves))
	for id, l := range m.leaves {
		if match(l) {
			ids = append(ids, id)
		}
	}
	sortByInsertion(m.order, ids)

	out := make([]hr.Leave, 0, page.Size)
	for _, id := range paginate(ids, page) {
		out = append(out, m.leaves[id])
	}
	return out, len(ids), nil
}

func (m *Memory) SaveLeave(_ context.Context, l hr.Leave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLeaveLocked(l)
}

func (m *Memory) saveLeaveLocked(l hr.Leave) error {
	if _, ok := m.leaves[l.ID]; !ok {
		m.track(string(l.ID))
	}
	m.leaves[l.ID] = l
	return nil
}

func (m *Memory) SetManagerAction(_ context.Context, id hr.LeaveID, action hr.ManagerAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setManagerActionLocked(id, action)
}

func (m *Memory) setManagerActionLocked(id hr.LeaveID, action hr.ManagerAction) error {
	l, ok := m.leaves[id]
	if !ok {
		return hr.ErrLeaveNotFound
	}
	if l.Withdrawn {
		return hr.ErrAlreadyWithdrawn
	}
	if l.ManagerAction != hr.ManagerPending {
		return hr.ErrAlreadyReviewed
	}
	l.ManagerAction = action
	m.leaves[id] = l
	return nil
}

func (m *Memory) SetHRAction(_ context.Context, id hr.LeaveID, action hr.HRAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setHRActionLocked(id, action)
}

func (m *Memory) setHRActionLocked(id hr.LeaveID, action hr.HRAction) error {
	l, ok := m.leaves[id]
	if !ok {
		return hr.ErrLeaveNotFound
	}
	if l.Withdrawn {
		return hr.ErrAlreadyWithdrawn
	}
	if l.HRAction != hr.HRPending {
		return hr.ErrAlreadyReviewed
	}
	l.HRAction = action
	m.leaves[id] = l
	return nil
}

func (m *Memory) SetWithdrawn(_ context.Context, id hr.LeaveID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setWithdrawnLocked(id)
}

func (m *Memory) setWithdrawnLocked(id hr.LeaveID) error {
	l, ok := m.leaves[id]
	if !ok {
		return hr.ErrLeaveNotFound
	}
	if l.Withdrawn {
		return hr.ErrAlreadyWithdrawn
	}
	l.Withdrawn = true
	m.leaves[id] = l
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn under the store lock. For the memory store a
// transaction is simulated with a snapshot + rollback on error; the lock
// itself provides the serialization the CAS guards rely on.
func (m *Memory) WithTx(_ context.Context, fn func(hr.Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	users       map[hr.UserID]hr.User
	departments map[hr.DepartmentID]hr.Department
	leaves      map[hr.LeaveID]hr.Leave
	order       map[string]int
	seq         int
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		users:       make(map[hr.UserID]hr.User, len(m.users)),
		departments: make(map[hr.DepartmentID]hr.Department, len(m.departments)),
		leaves:      make(map[hr.LeaveID]hr.Leave, len(m.leaves)),
		order:       make(map[string]int, len(m.order)),
		seq:         m.seq,
	}
	for id, u := range m.users {
		u.Roles = u.Roles.Clone()
		s.users[id] = u
	}
	for id, d := range m.departments {
		s.departments[id] = d
	}
	for id, l := range m.leaves {
		s.leaves[id] = l
	}
	for id, n := range m.order {
		s.order[id] = n
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.users = s.users
	m.departments = s.departments
	m.leaves = s.leaves
	m.order = s.order
	m.seq = s.seq
}

// txView exposes the locked internals to a WithTx callback without
// re-acquiring the mutex.
type txView struct {
	m *Memory
}

func (v *txView) GetUser(_ context.Context, id hr.UserID) (*hr.User, error) {
	return v.m.getUserLocked(id), nil
}

func (v *txView) GetUserByEmail(_ context.Context, email string) (*hr.User, error) {
	for id, u := range v.m.users {
		if u.Email == email {
			return v.m.getUserLocked(id), nil
		}
	}
	return nil, nil
}

func (v *txView) ListUsers(ctx context.Context, page hr.Page) ([]hr.User, int, error) {
	ids := make([]hr.UserID, 0, len(v.m.users))
	for id := range v.m.users {
		ids = append(ids, id)
	}
	sortByInsertion(v.m.order, ids)
	out := make([]hr.User, 0, page.Size)
	for _, id := range paginate(ids, page) {
		out = append(out, *v.m.getUserLocked(id))
	}
	return out, len(ids), nil
}

func (v *txView) SaveUser(_ context.Context, u hr.User) error   { return v.m.saveUserLocked(u) }
func (v *txView) DeleteUser(_ context.Context, id hr.UserID) error {
	return v.m.deleteUserLocked(id)
}

func (v *txView) GetDepartment(_ context.Context, id hr.DepartmentID) (*hr.Department, error) {
	return v.m.getDepartmentLocked(id), nil
}

func (v *txView) ListDepartments(ctx context.Context, page hr.Page) ([]hr.Department, int, error) {
	ids := make([]hr.DepartmentID, 0, len(v.m.departments))
	for id := range v.m.departments {
		ids = append(ids, id)
	}
	sortByInsertion(v.m.order, ids)
	out := make([]hr.Department, 0, page.Size)
	for _, id := range paginate(ids, page) {
		out = append(out, v.m.departments[id])
	}
	return out, len(ids), nil
}

func (v *txView) SaveDepartment(_ context.Context, d hr.Department) error {
	return v.m.saveDepartmentLocked(d)
}

func (v *txView) DeleteDepartment(_ context.Context, id hr.DepartmentID) error {
	return v.m.deleteDepartmentLocked(id)
}

func (v *txView) CountManagedDepartments(_ context.Context, managerID hr.UserID, exclude hr.DepartmentID) (int, error) {
	return v.m.countManagedLocked(managerID, exclude), nil
}

func (v *txView) GetLeave(_ context.Context, id hr.LeaveID) (*hr.Leave, error) {
	return v.m.getLeaveLocked(id), nil
}

func (v *txView) ListLeaves(_ context.Context, page hr.Page) ([]hr.Leave, int, error) {
	return v.m.listLeavesLocked(page, func(hr.Leave) bool { return true })
}

func (v *txView) ListLeavesByRequester(_ context.Context, requester hr.UserID, page hr.Page) ([]hr.Leave, int, error) {
	return v.m.listLeavesLocked(page, func(l hr.Leave) bool { return l.RequesterID == requester })
}

func (v *txView) SaveLeave(_ context.Context, l hr.Leave) error { return v.m.saveLeaveLocked(l) }

func (v *txView) SetManagerAction(_ context.Context, id hr.LeaveID, action hr.ManagerAction) error {
	return v.m.setManagerActionLocked(id, action)
}

func (v *txView) SetHRAction(_ context.Context, id hr.LeaveID, action hr.HRAction) error {
	return v.m.setHRActionLocked(id, action)
}

func (v *txView) SetWithdrawn(_ context.Context, id hr.LeaveID) error {
	return v.m.setWithdrawnLocked(id)
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Memory) track(id string) {
	m.seq++
	m.order[id] = m.seq
}

func sortByInsertion[ID ~string](order map[string]int, ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return order[string(ids[i])] < order[string(ids[j])]
	})
}

func paginate[ID ~string](ids []ID, page hr.Page) []ID {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(ids) {
		return nil
	}
	end := start + page.Size
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}
