/*
handlers.go - HTTP API handlers for the HR engine

PURPOSE:
  Exposes the HR engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    POST   /api/employees              Create employee (admin)
    GET    /api/employees              List employees (admin, paginated)
    GET    /api/employees/{id}         Get employee
    PATCH  /api/employees/own          Update own contact fields
    PATCH  /api/employees/{id}         Update employee (admin)
    DELETE /api/employees/{id}         Delete employee (admin)

  Departments:
    POST   /api/departments            Create department (admin)
    GET    /api/departments            List departments (admin, paginated)
    GET    /api/departments/{id}       Get department (admin)
    PATCH  /api/departments/{id}       Update / reassign manager (admin)
    DELETE /api/departments/{id}       Delete department (admin)

  Leaves:
    POST   /api/leaves                 Submit leave request
    GET    /api/leaves                 List all leaves (manager/admin)
    GET    /api/leaves/own             List own leaves
    GET    /api/leaves/{id}            Get leave
    PATCH  /api/leaves/{id}/withdraw       Withdraw own leave
    PATCH  /api/leaves/{id}/manager-review Manager decision
    PATCH  /api/leaves/{id}/hr-review      HR decision (admin)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (structure, enums, dates)
  3. Call domain logic (leave service, department service, stores)
  4. Serialize response
  5. Classify domain errors into HTTP statuses

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Actor lacks authority over the record
  - 404: Record not found
  - 409: Already reviewed/withdrawn, concurrent modification
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Actor resolution and role gates
  - server.go: Router setup
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/hr-engine/hr"
	"github.com/warp/hr-engine/metrics"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Stores      hr.TxStores
	Leaves      *hr.LeaveService
	Departments *hr.DepartmentService
	Metrics     *metrics.Collector
}

// NewHandler creates a handler backed by the given stores.
func NewHandler(stores hr.TxStores, collector *metrics.Collector) *Handler {
	return &Handler{
		Stores:      stores,
		Leaves:      hr.NewLeaveService(stores),
		Departments: hr.NewDepartmentService(stores),
		Metrics:     collector,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// CreateEmployee creates a new employee with default leave balances.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "username and email are required", nil)
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	roles := hr.NewRoleSet()
	for _, s := range req.Roles {
		role := hr.Role(s)
		if !hr.ValidRole(role) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown role %q", s), nil)
			return
		}
		roles.Add(role)
	}

	salary := decimal.Zero
	if req.Salary != "" {
		salary, err = decimal.NewFromString(req.Salary)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid salary", err)
			return
		}
	}

	var startDate time.Time
	if req.StartDate != "" {
		startDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	if req.DepartmentID != "" {
		dept, err := h.Stores.GetDepartment(r.Context(), hr.DepartmentID(req.DepartmentID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to check department", err)
			return
		}
		if dept == nil {
			writeError(w, http.StatusNotFound, "Department not found", nil)
			return
		}
	}

	now := time.Now().UTC()
	user := hr.User{
		ID:            hr.UserID(uuid.NewString()),
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  string(hash),
		Roles:         roles,
		DepartmentID:  hr.DepartmentID(req.DepartmentID),
		JobTitle:      req.JobTitle,
		Salary:        salary,
		StartDate:     startDate,
		SickBalance:   hr.DefaultLeaveBalance,
		AnnualBalance: hr.DefaultLeaveBalance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Stores.SaveUser(r.Context(), user); err != nil {
		writeDomainError(w, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(&user))
}

// ListEmployees returns one page of employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	users, total, err := h.Stores.ListUsers(r.Context(), page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(users))
	for i := range users {
		dtos[i] = toEmployeeDTO(&users[i])
	}

	writeJSON(w, http.StatusOK, pageDTO(dtos, total, page))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.Stores.GetUser(r.Context(), hr.UserID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(user))
}

// UpdateEmployee applies an admin update to an employee.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := hr.UserID(chi.URLParam(r, "id"))

	var req UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Stores.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			writeError(w, http.StatusBadRequest, "password must be at least 6 characters", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
			return
		}
		user.PasswordHash = string(hash)
	}
	if req.Roles != nil {
		roles := hr.NewRoleSet()
		for _, s := range *req.Roles {
			role := hr.Role(s)
			if !hr.ValidRole(role) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown role %q", s), nil)
				return
			}
			roles.Add(role)
		}
		user.Roles = roles
	}
	if req.DepartmentID != nil {
		if *req.DepartmentID != "" {
			dept, err := h.Stores.GetDepartment(r.Context(), hr.DepartmentID(*req.DepartmentID))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to check department", err)
				return
			}
			if dept == nil {
				writeError(w, http.StatusNotFound, "Department not found", nil)
				return
			}
		}
		user.DepartmentID = hr.DepartmentID(*req.DepartmentID)
	}
	if req.JobTitle != nil {
		user.JobTitle = *req.JobTitle
	}
	if req.Salary != nil {
		salary, err := decimal.NewFromString(*req.Salary)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid salary", err)
			return
		}
		user.Salary = salary
	}
	if req.StartDate != nil {
		startDate, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
		user.StartDate = startDate
	}

	user.UpdatedAt = time.Now().UTC()
	if err := h.Stores.SaveUser(r.Context(), *user); err != nil {
		writeDomainError(w, "Failed to update employee", err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(user))
}

// UpdateOwn lets the actor change their own contact fields and password.
func (h *Handler) UpdateOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No actor in context", nil)
		return
	}

	var req UpdateOwnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Stores.GetUser(r.Context(), actor.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			writeError(w, http.StatusBadRequest, "password must be at least 6 characters", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
			return
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := h.Stores.SaveUser(r.Context(), *user); err != nil {
		writeDomainError(w, "Failed to update employee", err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(user))
}

// DeleteEmployee removes an employee. Their leave history stays.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := hr.UserID(chi.URLParam(r, "id"))

	if err := h.Stores.DeleteUser(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete employee", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// =============================================================================
// DEPARTMENT HANDLERS
// =============================================================================

// CreateDepartment creates a department and grants its manager the role.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.ManagerID == "" {
		writeError(w, http.StatusBadRequest, "name and manager_id are required", nil)
		return
	}

	dept, err := h.Departments.Create(r.Context(), req.Name, hr.UserID(req.ManagerID))
	if err != nil {
		writeDomainError(w, "Failed to create department", err)
		return
	}

	h.Metrics.RecordRoleSync("grant")
	writeJSON(w, http.StatusCreated, toDepartmentDTO(dept))
}

// ListDepartments returns one page of departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	depts, total, err := h.Departments.List(r.Context(), page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list departments", err)
		return
	}

	dtos := make([]DepartmentDTO, len(depts))
	for i := range depts {
		dtos[i] = toDepartmentDTO(&depts[i])
	}

	writeJSON(w, http.StatusOK, pageDTO(dtos, total, page))
}

// GetDepartment returns a single department.
func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id := hr.DepartmentID(chi.URLParam(r, "id"))

	dept, err := h.Departments.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get department", err)
		return
	}

	writeJSON(w, http.StatusOK, toDepartmentDTO(dept))
}

// UpdateDepartment renames a department and/or reassigns its manager.
// Manager reassignment keeps the manager roles of both users consistent.
func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id := hr.DepartmentID(chi.URLParam(r, "id"))

	var req UpdateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := hr.UpdateDepartmentInput{Name: req.Name}
	if req.ManagerID != nil {
		mid := hr.UserID(*req.ManagerID)
		in.ManagerID = &mid
	}

	dept, err := h.Departments.Update(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, "Failed to update department", err)
		return
	}

	if req.ManagerID != nil {
		h.Metrics.RecordRoleSync("reassign")
	}
	writeJSON(w, http.StatusOK, toDepartmentDTO(dept))
}

// DeleteDepartment removes a department and releases its manager's role
// when no other department needs it.
func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id := hr.DepartmentID(chi.URLParam(r, "id"))

	if err := h.Departments.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete department", err)
		return
	}

	h.Metrics.RecordRoleSync("release")
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave creates a leave request for the acting user.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No actor in context", nil)
		return
	}

	var req CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	leaveType := hr.LeaveType(req.Type)
	if !hr.ValidLeaveType(leaveType) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown leave type %q", req.Type), nil)
		return
	}
	category := hr.LeaveCategory(req.Category)
	if !hr.ValidLeaveCategory(category) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown leave category %q", req.Category), nil)
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use RFC 3339)", err)
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date (use RFC 3339)", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date must not be before start_date", nil)
		return
	}

	leave, err := h.Leaves.Create(r.Context(), actor, hr.CreateLeaveInput{
		Type:      leaveType,
		Category:  category,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(w, "Failed to create leave", err)
		return
	}

	h.Metrics.RecordLeaveCreated()
	writeJSON(w, http.StatusCreated, toLeaveDTO(leave))
}

// ListLeaves returns one page of all leave requests.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	leaves, total, err := h.Leaves.List(r.Context(), page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leaves", err)
		return
	}

	writeJSON(w, http.StatusOK, pageDTO(toLeaveDTOs(leaves), total, page))
}

// ListOwnLeaves returns one page of the actor's own leave requests.
func (h *Handler) ListOwnLeaves(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No actor in context", nil)
		return
	}
	page := pageFromQuery(r)

	leaves, total, err := h.Leaves.ListOwn(r.Context(), actor.ID, page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leaves", err)
		return
	}

	writeJSON(w, http.StatusOK, pageDTO(toLeaveDTOs(leaves), total, page))
}

// GetLeave returns a single leave request.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id := hr.LeaveID(chi.URLParam(r, "id"))

	leave, err := h.Leaves.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get leave", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

// WithdrawLeave withdraws the actor's own leave request.
func (h *Handler) WithdrawLeave(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No actor in context", nil)
		return
	}
	id := hr.LeaveID(chi.URLParam(r, "id"))

	if err := h.Leaves.Withdraw(r.Context(), id, actor); err != nil {
		writeDomainError(w, "Failed to withdraw leave", err)
		return
	}

	h.Metrics.RecordWithdrawal()
	writeJSON(w, http.StatusOK, map[string]any{"withdrawn": string(id)})
}

// ManagerReview resolves the manager track of a leave request.
func (h *Handler) ManagerReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No actor in context", nil)
		return
	}
	id := hr.LeaveID(chi.URLParam(r, "id"))

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	leave, err := h.Leaves.ReviewAsManager(r.Context(), id, actor, hr.ManagerAction(req.Decision))
	if err != nil {
		writeDomainError(w, "Failed to review leave", err)
		return
	}

	h.Metrics.RecordLeaveReview("manager", req.Decision)
	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

// HRReview resolves the HR track of a leave request. Approval debits the
// requester's balance in the same transaction.
func (h *Handler) HRReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No actor in context", nil)
		return
	}
	id := hr.LeaveID(chi.URLParam(r, "id"))

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	leave, err := h.Leaves.ReviewAsHR(r.Context(), id, actor, hr.HRAction(req.Decision))
	if err != nil {
		writeDomainError(w, "Failed to review leave", err)
		return
	}

	h.Metrics.RecordLeaveReview("hr", req.Decision)
	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

// =============================================================================
// HELPERS
// =============================================================================

func toLeaveDTOs(leaves []hr.Leave) []LeaveDTO {
	dtos := make([]LeaveDTO, len(leaves))
	for i := range leaves {
		dtos[i] = toLeaveDTO(&leaves[i])
	}
	return dtos
}

// pageFromQuery reads the 1-based ?page= selector. Page size is fixed.
func pageFromQuery(r *http.Request) hr.Page {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return hr.Page{Number: n}.Normalize()
}

func pageDTO(items any, total int, page hr.Page) PageDTO {
	pages := (total + page.Size - 1) / page.Size
	return PageDTO{
		Items: items,
		Total: total,
		Page:  page.Number,
		Pages: pages,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError classifies an hr error into an HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case hr.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case hr.IsForbidden(err):
		writeError(w, http.StatusForbidden, message, err)
	case hr.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case hr.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
