package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-engine/api"
	"github.com/warp/hr-engine/hr"
	"github.com/warp/hr-engine/metrics"
	"github.com/warp/hr-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	store  *sqlite.Store
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry := prometheus.NewRegistry()
	handler := api.NewHandler(store, metrics.NewCollector(registry))
	srv := httptest.NewServer(api.NewRouter(handler, registry, nil))
	t.Cleanup(srv.Close)

	return &testServer{store: store, server: srv}
}

// seedUser writes a user directly to the store and returns its id.
func (ts *testServer) seedUser(t *testing.T, id string, deptID hr.DepartmentID, roles ...hr.Role) hr.UserID {
	t.Helper()
	now := time.Now().UTC()
	u := hr.User{
		ID:            hr.UserID(id),
		Username:      id,
		Email:         id + "@example.com",
		PasswordHash:  "$2a$10$hash",
		Roles:         hr.NewRoleSet(roles...),
		DepartmentID:  deptID,
		SickBalance:   hr.DefaultLeaveBalance,
		AnnualBalance: hr.DefaultLeaveBalance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, ts.store.SaveUser(context.Background(), u))
	return u.ID
}

func (ts *testServer) seedDepartment(t *testing.T, id, name string, manager hr.UserID) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, ts.store.SaveDepartment(context.Background(), hr.Department{
		ID:        hr.DepartmentID(id),
		Name:      name,
		ManagerID: manager,
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

// do issues a request as the given actor and decodes the JSON response.
func (ts *testServer) do(t *testing.T, method, path string, actor hr.UserID, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor-ID", string(actor))
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// =============================================================================
// ACTOR AND ROLE GATE TESTS
// =============================================================================

func TestActorGate(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "emp", "")

	// No actor header
	resp := ts.do(t, http.MethodGet, "/api/leaves/own", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown actor
	resp = ts.do(t, http.MethodGet, "/api/leaves/own", "ghost", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Known actor
	resp = ts.do(t, http.MethodGet, "/api/leaves/own", "emp", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoleGates(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "emp", "")
	ts.seedUser(t, "boss", "", hr.RoleManager)
	ts.seedUser(t, "admin", "", hr.RoleAdmin)

	// Employee cannot list all employees or leaves
	resp := ts.do(t, http.MethodGet, "/api/employees", "emp", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/api/leaves", "emp", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Manager can list leaves but not employees
	resp = ts.do(t, http.MethodGet, "/api/leaves", "boss", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/api/employees", "boss", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin can do both
	resp = ts.do(t, http.MethodGet, "/api/leaves", "admin", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/api/employees", "admin", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// EMPLOYEE ENDPOINT TESTS
// =============================================================================

func TestCreateEmployee(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "admin", "", hr.RoleAdmin)

	var dto api.EmployeeDTO
	resp := ts.do(t, http.MethodPost, "/api/employees", "admin", api.CreateEmployeeRequest{
		Username: "jane",
		Email:    "jane@example.com",
		Password: "secret123",
		JobTitle: "engineer",
		Salary:   "85000",
	}, &dto)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "jane", dto.Username)
	assert.Equal(t, "14", dto.SickBalance)
	assert.Equal(t, "14", dto.AnnualBalance)
	assert.Contains(t, dto.Roles, "employee")

	// Password must never come back, and the hash must be bcrypt not plaintext
	stored, err := ts.store.GetUserByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestCreateEmployee_Validation(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "admin", "", hr.RoleAdmin)

	// Missing username
	resp := ts.do(t, http.MethodPost, "/api/employees", "admin", api.CreateEmployeeRequest{
		Email: "x@example.com", Password: "secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Short password
	resp = ts.do(t, http.MethodPost, "/api/employees", "admin", api.CreateEmployeeRequest{
		Username: "x", Email: "x@example.com", Password: "ab",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Duplicate email
	resp = ts.do(t, http.MethodPost, "/api/employees", "admin", api.CreateEmployeeRequest{
		Username: "a1", Email: "dup@example.com", Password: "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, "/api/employees", "admin", api.CreateEmployeeRequest{
		Username: "a2", Email: "dup@example.com", Password: "secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetEmployee_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "emp", "")

	resp := ts.do(t, http.MethodGet, "/api/employees/ghost", "emp", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateOwn_CannotEscalate(t *testing.T) {
	// GIVEN: A plain employee
	// WHEN: They PATCH /api/employees/own with a new email
	// THEN: The email changes; the roles field of the own-update body
	//       does not even exist, so roles are untouched

	ts := newTestServer(t)
	ts.seedUser(t, "emp", "")

	var dto api.EmployeeDTO
	email := "new@example.com"
	resp := ts.do(t, http.MethodPatch, "/api/employees/own", "emp", api.UpdateOwnRequest{
		Email: &email,
	}, &dto)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, email, dto.Email)
	assert.Equal(t, []string{"employee"}, dto.Roles)
}

// =============================================================================
// DEPARTMENT ENDPOINT TESTS
// =============================================================================

func TestDepartmentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "admin", "", hr.RoleAdmin)
	u1 := ts.seedUser(t, "u1", "")
	u2 := ts.seedUser(t, "u2", "")

	// Create grants u1 the manager role
	var dept api.DepartmentDTO
	resp := ts.do(t, http.MethodPost, "/api/departments", "admin", api.CreateDepartmentRequest{
		Name: "Engineering", ManagerID: string(u1),
	}, &dept)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	stored, err := ts.store.GetUser(context.Background(), u1)
	require.NoError(t, err)
	assert.True(t, stored.Roles.IsManager())

	// Reassign to u2 releases u1
	newManager := string(u2)
	resp = ts.do(t, http.MethodPatch, "/api/departments/"+dept.ID, "admin", api.UpdateDepartmentRequest{
		ManagerID: &newManager,
	}, &dept)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(u2), dept.ManagerID)

	stored, _ = ts.store.GetUser(context.Background(), u1)
	assert.False(t, stored.Roles.IsManager())
	stored, _ = ts.store.GetUser(context.Background(), u2)
	assert.True(t, stored.Roles.IsManager())

	// Delete releases u2
	resp = ts.do(t, http.MethodDelete, "/api/departments/"+dept.ID, "admin", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, _ = ts.store.GetUser(context.Background(), u2)
	assert.False(t, stored.Roles.IsManager())
}

func TestCreateDepartment_MissingManager(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser(t, "admin", "", hr.RoleAdmin)

	resp := ts.do(t, http.MethodPost, "/api/departments", "admin", api.CreateDepartmentRequest{
		Name: "Engineering", ManagerID: "ghost",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// LEAVE ENDPOINT TESTS
// =============================================================================

func leaveBody() api.CreateLeaveRequest {
	return api.CreateLeaveRequest{
		Type:      "Annual",
		Category:  "Vacation",
		StartDate: "2025-03-03T00:00:00Z", // Monday
		EndDate:   "2025-03-10T00:00:00Z", // next Monday
		Reason:    "spring break",
	}
}

func TestLeaveLifecycleOverHTTP(t *testing.T) {
	// GIVEN: emp in boss's department, plus an HR admin
	// WHEN: emp submits, boss approves, admin approves
	// THEN: Both tracks resolve and 5 days come off emp's annual balance

	ts := newTestServer(t)
	boss := ts.seedUser(t, "boss", "", hr.RoleManager)
	ts.seedUser(t, "admin", "", hr.RoleAdmin)
	emp := ts.seedUser(t, "emp", "d-eng")
	ts.seedDepartment(t, "d-eng", "Engineering", boss)

	var leave api.LeaveDTO
	resp := ts.do(t, http.MethodPost, "/api/leaves", emp, leaveBody(), &leave)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Pending", leave.ManagerAction)
	assert.Equal(t, "Pending", leave.HRAction)
	assert.Equal(t, "5", leave.Duration)

	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/manager-review", leave.ID), boss,
		api.ReviewRequest{Decision: "Approved"}, &leave)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Approved", leave.ManagerAction)

	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/hr-review", leave.ID), "admin",
		api.ReviewRequest{Decision: "Approved"}, &leave)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Approved", leave.HRAction)

	stored, err := ts.store.GetUser(context.Background(), emp)
	require.NoError(t, err)
	assert.Equal(t, "9", stored.AnnualBalance.String())
}

func TestLeaveReview_ErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	boss := ts.seedUser(t, "boss", "", hr.RoleManager)
	other := ts.seedUser(t, "other", "", hr.RoleManager)
	ts.seedUser(t, "admin", "", hr.RoleAdmin)
	emp := ts.seedUser(t, "emp", "d-eng")
	ts.seedDepartment(t, "d-eng", "Engineering", boss)

	var leave api.LeaveDTO
	resp := ts.do(t, http.MethodPost, "/api/leaves", emp, leaveBody(), &leave)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Wrong manager: 403
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/manager-review", leave.ID), other,
		api.ReviewRequest{Decision: "Approved"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Invalid decision: 400
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/hr-review", leave.ID), "admin",
		api.ReviewRequest{Decision: "Maybe"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Double review: 409
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/hr-review", leave.ID), "admin",
		api.ReviewRequest{Decision: "Rejected"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/hr-review", leave.ID), "admin",
		api.ReviewRequest{Decision: "Approved"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown leave: 404
	resp = ts.do(t, http.MethodPatch, "/api/leaves/ghost/hr-review", "admin",
		api.ReviewRequest{Decision: "Approved"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWithdrawOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.seedUser(t, "emp", "")
	other := ts.seedUser(t, "other", "")

	var leave api.LeaveDTO
	resp := ts.do(t, http.MethodPost, "/api/leaves", emp, leaveBody(), &leave)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Someone else: 403
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/withdraw", leave.ID), other, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Requester: 200
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/withdraw", leave.ID), emp, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second withdrawal: 409
	resp = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/leaves/%s/withdraw", leave.ID), emp, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitLeave_Validation(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.seedUser(t, "emp", "")

	body := leaveBody()
	body.Type = "Sabbatical"
	resp := ts.do(t, http.MethodPost, "/api/leaves", emp, body, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = leaveBody()
	body.EndDate = "2025-03-01T00:00:00Z" // before start
	resp = ts.do(t, http.MethodPost, "/api/leaves", emp, body, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = leaveBody()
	body.StartDate = "yesterday"
	resp = ts.do(t, http.MethodPost, "/api/leaves", emp, body, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListOwnLeaves_Pagination(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.seedUser(t, "emp", "")

	for i := 0; i < 12; i++ {
		resp := ts.do(t, http.MethodPost, "/api/leaves", emp, leaveBody(), nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var page api.PageDTO
	resp := ts.do(t, http.MethodGet, "/api/leaves/own", emp, nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Pages)

	resp = ts.do(t, http.MethodGet, "/api/leaves/own?page=2", emp, nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, ok := page.Items.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

// =============================================================================
// PROBES
// =============================================================================

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.server.Client().Get(ts.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	emp := ts.seedUser(t, "emp", "")

	resp := ts.do(t, http.MethodPost, "/api/leaves", emp, leaveBody(), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	metricsResp, err := ts.server.Client().Get(ts.server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
