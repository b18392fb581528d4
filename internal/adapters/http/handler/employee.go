package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/ogurasousui/projectledger/internal/core/employee"
)

// EmployeeHandler は従業員ユースケースの HTTP 実装です。
type EmployeeHandler struct {
	svc employee.UseCase
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

type employeeResponse struct {
	ID                string   `json:"id"`
	UserID            string   `json:"userId"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Role              string   `json:"role"`
	Tags              []string `json:"tags"`
	Badges            []string `json:"badges"`
	Balance           int64    `json:"balance"`
	ActiveProjects    []string `json:"activeProjects"`
	CompletedProjects []string `json:"completedProjects"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

type registerEmployeeRequest struct {
	UserID string   `json:"userId"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	Tags   []string `json:"tags"`
	Badges []string `json:"badges"`
}

type listEmployeesResponse struct {
	Employees     []employeeResponse `json:"employees"`
	NextPageToken string             `json:"nextPageToken,omitempty"`
}

// Register は従業員を登録します。
func (h *EmployeeHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.svc.RegisterEmployee(r.Context(), employee.RegisterEmployeeInput{
		UserID: req.UserID,
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Tags:   req.Tags,
		Badges: req.Badges,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

// Get は従業員を取得します。
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: mux.Vars(r)["id"]})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeResponse(found))
}

// GetByUserID は外部 ID で従業員を取得します。
func (h *EmployeeHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.GetEmployeeByUserID(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeResponse(found))
}

// List は従業員の一覧を返します。
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var rolePtr *string
	if role := query.Get("role"); role != "" {
		rolePtr = &role
	}

	pageSize := 0
	if raw := query.Get("pageSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pageSize: invalid number"})
			return
		}
		pageSize = parsed
	}

	result, err := h.svc.ListEmployees(r.Context(), employee.ListEmployeesInput{
		Role:      rolePtr,
		PageSize:  pageSize,
		PageToken: query.Get("pageToken"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	employees := make([]employeeResponse, 0, len(result.Employees))
	for _, emp := range result.Employees {
		employees = append(employees, toEmployeeResponse(emp))
	}

	writeJSON(w, http.StatusOK, listEmployeesResponse{
		Employees:     employees,
		NextPageToken: result.NextPageToken,
	})
}

func toEmployeeResponse(emp *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:                emp.ID,
		UserID:            emp.UserID,
		Name:              emp.Name,
		Email:             emp.Email,
		Role:              emp.Role,
		Tags:              emptyIfNil(emp.Tags),
		Badges:            emptyIfNil(emp.Badges),
		Balance:           emp.Balance,
		ActiveProjects:    emptyIfNil(emp.ActiveProjects),
		CompletedProjects: emptyIfNil(emp.CompletedProjects),
		CreatedAt:         emp.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         emp.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
