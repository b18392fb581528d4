package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/projectledger/internal/core/project"
)

type stubProjectUseCase struct {
	createFn       func(ctx context.Context, in project.CreateProjectInput) (*project.Project, error)
	getFn          func(ctx context.Context, in project.GetProjectInput) (*project.Project, error)
	listFn         func(ctx context.Context, in project.ListProjectsInput) ([]*project.Project, error)
	listEmployeeFn func(ctx context.Context, in project.ListEmployeeProjectsInput) ([]*project.Project, error)
	editFn         func(ctx context.Context, in project.EditProjectInput) (*project.Project, error)
	completeFn     func(ctx context.Context, in project.CompleteProjectInput) (*project.Project, error)
	deleteFn       func(ctx context.Context, in project.DeleteProjectInput) error
}

func (s *stubProjectUseCase) CreateProject(ctx context.Context, in project.CreateProjectInput) (*project.Project, error) {
	return s.createFn(ctx, in)
}

func (s *stubProjectUseCase) GetProject(ctx context.Context, in project.GetProjectInput) (*project.Project, error) {
	return s.getFn(ctx, in)
}

func (s *stubProjectUseCase) ListProjects(ctx context.Context, in project.ListProjectsInput) ([]*project.Project, error) {
	return s.listFn(ctx, in)
}

func (s *stubProjectUseCase) ListEmployeeProjects(ctx context.Context, in project.ListEmployeeProjectsInput) ([]*project.Project, error) {
	return s.listEmployeeFn(ctx, in)
}

func (s *stubProjectUseCase) EditProject(ctx context.Context, in project.EditProjectInput) (*project.Project, error) {
	return s.editFn(ctx, in)
}

func (s *stubProjectUseCase) CompleteProject(ctx context.Context, in project.CompleteProjectInput) (*project.Project, error) {
	return s.completeFn(ctx, in)
}

func (s *stubProjectUseCase) DeleteProject(ctx context.Context, in project.DeleteProjectInput) error {
	return s.deleteFn(ctx, in)
}

func sampleProject() *project.Project {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &project.Project{
		ID:                "proj-1",
		ProjectCode:       "portal-rebuild",
		Title:             "Portal rebuild",
		Amount:            1000,
		Status:            project.StatusCurrent,
		AssignedEmployees: []string{"emp-1"},
		Version:           2,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func newProjectTestRouter(stub *stubProjectUseCase) http.Handler {
	return NewRouter(stub, &stubEmployeeUseCase{})
}

func TestProjectHandler_Create(t *testing.T) {
	t.Parallel()

	var captured project.CreateProjectInput
	stub := &stubProjectUseCase{
		createFn: func(_ context.Context, in project.CreateProjectInput) (*project.Project, error) {
			captured = in
			return sampleProject(), nil
		},
	}
	router := newProjectTestRouter(stub)

	body := `{
        "projectId": "portal-rebuild",
        "title": "Portal rebuild",
        "amount": 1000,
        "deadline": "2025-06-30T00:00:00Z",
        "assignedUserIds": ["tanaka01"]
    }`
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.ProjectCode != "portal-rebuild" || captured.Amount != 1000 {
		t.Errorf("unexpected input: %+v", captured)
	}
	if captured.Deadline == nil || !captured.Deadline.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected deadline: %+v", captured.Deadline)
	}
	if len(captured.AssignedUserIDs) != 1 || captured.AssignedUserIDs[0] != "tanaka01" {
		t.Errorf("unexpected assignees: %v", captured.AssignedUserIDs)
	}

	var resp projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ProjectID != "portal-rebuild" || resp.Status != "current" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestProjectHandler_Create_InvalidDeadline(t *testing.T) {
	t.Parallel()

	stub := &stubProjectUseCase{}
	router := newProjectTestRouter(stub)

	body := `{"projectId": "p1", "title": "x", "deadline": "2025/06/30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProjectHandler_Edit_PartialUpdate(t *testing.T) {
	t.Parallel()

	var captured project.EditProjectInput
	stub := &stubProjectUseCase{
		editFn: func(_ context.Context, in project.EditProjectInput) (*project.Project, error) {
			captured = in
			return sampleProject(), nil
		},
	}
	router := newProjectTestRouter(stub)

	body := `{"title": "Renamed", "assignedUserIds": ["suzuki01"], "expectedVersion": 2}`
	req := httptest.NewRequest(http.MethodPut, "/api/projects/proj-1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.ID != "proj-1" {
		t.Errorf("expected path id forwarded, got %q", captured.ID)
	}
	if captured.Title == nil || *captured.Title != "Renamed" {
		t.Errorf("unexpected title: %+v", captured.Title)
	}
	if captured.Description != nil {
		t.Error("expected omitted description to stay nil")
	}
	if !captured.AssignedSet || len(captured.AssignedUserIDs) != 1 {
		t.Errorf("expected assignment replacement, got %+v", captured)
	}
	if captured.TagsSet || captured.TasksSet || captured.DeadlineSet {
		t.Error("expected omitted collections not marked as set")
	}
	if captured.ExpectedVersion == nil || *captured.ExpectedVersion != 2 {
		t.Errorf("unexpected expected version: %+v", captured.ExpectedVersion)
	}
}

func TestProjectHandler_Edit_ClearAssignments(t *testing.T) {
	t.Parallel()

	var captured project.EditProjectInput
	stub := &stubProjectUseCase{
		editFn: func(_ context.Context, in project.EditProjectInput) (*project.Project, error) {
			captured = in
			return sampleProject(), nil
		},
	}
	router := newProjectTestRouter(stub)

	body := `{"assignedUserIds": []}`
	req := httptest.NewRequest(http.MethodPut, "/api/projects/proj-1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !captured.AssignedSet || len(captured.AssignedUserIDs) != 0 {
		t.Errorf("expected empty list to clear assignments, got %+v", captured)
	}
}

func TestProjectHandler_Complete_Conflict(t *testing.T) {
	t.Parallel()

	stub := &stubProjectUseCase{
		completeFn: func(_ context.Context, _ project.CompleteProjectInput) (*project.Project, error) {
			return nil, project.ErrAlreadyCompleted
		},
	}
	router := newProjectTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/projects/proj-1/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestProjectHandler_Create_UnresolvedAssignees(t *testing.T) {
	t.Parallel()

	stub := &stubProjectUseCase{
		createFn: func(_ context.Context, _ project.CreateProjectInput) (*project.Project, error) {
			return nil, &project.UnresolvedAssigneesError{UserIDs: []string{"ghost"}}
		},
	}
	router := newProjectTestRouter(stub)

	body := `{"projectId": "p1", "title": "x", "assignedUserIds": ["ghost"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.UnresolvedIDs) != 1 || resp.UnresolvedIDs[0] != "ghost" {
		t.Errorf("unexpected unresolved ids: %v", resp.UnresolvedIDs)
	}
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	t.Parallel()

	stub := &stubProjectUseCase{
		getFn: func(_ context.Context, _ project.GetProjectInput) (*project.Project, error) {
			return nil, project.ErrProjectNotFound
		},
	}
	router := newProjectTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProjectHandler_List_StatusQuery(t *testing.T) {
	t.Parallel()

	var captured project.ListProjectsInput
	stub := &stubProjectUseCase{
		listFn: func(_ context.Context, in project.ListProjectsInput) ([]*project.Project, error) {
			captured = in
			return []*project.Project{sampleProject()}, nil
		},
	}
	router := newProjectTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/projects?status=completed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Status == nil || *captured.Status != project.StatusCompleted {
		t.Errorf("expected completed status filter, got %+v", captured.Status)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Status != nil {
		t.Errorf("expected no status filter without query, got %+v", captured.Status)
	}
}

func TestProjectHandler_ListMine(t *testing.T) {
	t.Parallel()

	var captured project.ListEmployeeProjectsInput
	stub := &stubProjectUseCase{
		listEmployeeFn: func(_ context.Context, in project.ListEmployeeProjectsInput) ([]*project.Project, error) {
			captured = in
			return []*project.Project{}, nil
		},
	}
	router := newProjectTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/myprojects?userId=tanaka01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.UserID != "tanaka01" {
		t.Errorf("expected user id forwarded, got %q", captured.UserID)
	}
}

func TestProjectHandler_Delete(t *testing.T) {
	t.Parallel()

	var captured project.DeleteProjectInput
	stub := &stubProjectUseCase{
		deleteFn: func(_ context.Context, in project.DeleteProjectInput) error {
			captured = in
			return nil
		},
	}
	router := newProjectTestRouter(stub)

	req := httptest.NewRequest(http.MethodDelete, "/api/projects/proj-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.ID != "proj-1" {
		t.Errorf("expected path id forwarded, got %q", captured.ID)
	}
}
