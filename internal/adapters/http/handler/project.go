package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ogurasousui/projectledger/internal/core/project"
)

// ProjectHandler はプロジェクトユースケースの HTTP 実装です。
type ProjectHandler struct {
	svc project.UseCase
}

// NewProjectHandler は ProjectHandler を生成します。
func NewProjectHandler(svc project.UseCase) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type projectResponse struct {
	ID                string   `json:"id"`
	ProjectID         string   `json:"projectId"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Tasks             []string `json:"tasks"`
	Deadline          *string  `json:"deadline,omitempty"`
	Tags              []string `json:"tags"`
	Amount            int64    `json:"amount"`
	Status            string   `json:"status"`
	AssignedEmployees []string `json:"assignedEmployees"`
	Version           int64    `json:"version"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

type createProjectRequest struct {
	ProjectID       string   `json:"projectId"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tasks           []string `json:"tasks"`
	Deadline        *string  `json:"deadline"`
	Tags            []string `json:"tags"`
	Amount          int64    `json:"amount"`
	AssignedUserIDs []string `json:"assignedUserIds"`
}

type editProjectRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Tasks           *[]string `json:"tasks"`
	Deadline        *string   `json:"deadline"`
	Tags            *[]string `json:"tags"`
	Amount          *int64    `json:"amount"`
	AssignedUserIDs *[]string `json:"assignedUserIds"`
	ExpectedVersion *int64    `json:"expectedVersion"`
}

// Create はプロジェクトを作成します。
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	deadline, ok := parseDeadline(w, req.Deadline)
	if !ok {
		return
	}

	created, err := h.svc.CreateProject(r.Context(), project.CreateProjectInput{
		ProjectCode:     req.ProjectID,
		Title:           req.Title,
		Description:     req.Description,
		Tasks:           req.Tasks,
		Deadline:        deadline,
		Tags:            req.Tags,
		Amount:          req.Amount,
		AssignedUserIDs: req.AssignedUserIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(created))
}

// Get はプロジェクトを取得します。
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.GetProject(r.Context(), project.GetProjectInput{ID: mux.Vars(r)["id"]})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(found))
}

// List はプロジェクトの一覧を返します。status クエリが無い場合は
// upcoming と current のみが対象です。
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	var statusPtr *project.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := project.Status(raw)
		statusPtr = &status
	}

	projects, err := h.svc.ListProjects(r.Context(), project.ListProjectsInput{Status: statusPtr})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponses(projects))
}

// ListUpcoming は upcoming 状態のプロジェクト一覧を返します。
func (h *ProjectHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	status := project.StatusUpcoming
	projects, err := h.svc.ListProjects(r.Context(), project.ListProjectsInput{Status: &status})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponses(projects))
}

// ListMine は従業員の進行中プロジェクト一覧を返します。
func (h *ProjectHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListEmployeeProjects(r.Context(), project.ListEmployeeProjectsInput{
		UserID: r.URL.Query().Get("userId"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponses(projects))
}

// Edit はプロジェクトを編集します。assignedUserIds が与えられた場合は
// 差分ではなく割り当ての全量として扱われます。
func (h *ProjectHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	in := project.EditProjectInput{
		ID:              mux.Vars(r)["id"],
		Title:           req.Title,
		Description:     req.Description,
		Amount:          req.Amount,
		ExpectedVersion: req.ExpectedVersion,
	}

	if req.Tasks != nil {
		in.Tasks = *req.Tasks
		in.TasksSet = true
	}

	if req.Deadline != nil {
		deadline, ok := parseDeadline(w, req.Deadline)
		if !ok {
			return
		}
		in.Deadline = deadline
		in.DeadlineSet = true
	}

	if req.Tags != nil {
		in.Tags = *req.Tags
		in.TagsSet = true
	}

	if req.AssignedUserIDs != nil {
		in.AssignedUserIDs = *req.AssignedUserIDs
		in.AssignedSet = true
	}

	updated, err := h.svc.EditProject(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(updated))
}

// Complete はプロジェクトを完了させます。重複呼び出しは 409 になります。
func (h *ProjectHandler) Complete(w http.ResponseWriter, r *http.Request) {
	completed, err := h.svc.CompleteProject(r.Context(), project.CompleteProjectInput{ID: mux.Vars(r)["id"]})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(completed))
}

// Delete はプロジェクトを削除します。
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), project.DeleteProjectInput{ID: mux.Vars(r)["id"]}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "project and its references deleted"})
}

func toProjectResponse(p *project.Project) projectResponse {
	var deadline *string
	if p.Deadline != nil {
		formatted := p.Deadline.UTC().Format(time.RFC3339)
		deadline = &formatted
	}

	return projectResponse{
		ID:                p.ID,
		ProjectID:         p.ProjectCode,
		Title:             p.Title,
		Description:       p.Description,
		Tasks:             emptyIfNil(p.Tasks),
		Deadline:          deadline,
		Tags:              emptyIfNil(p.Tags),
		Amount:            p.Amount,
		Status:            string(p.Status),
		AssignedEmployees: emptyIfNil(p.AssignedEmployees),
		Version:           p.Version,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toProjectResponses(projects []*project.Project) []projectResponse {
	responses := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		responses = append(responses, toProjectResponse(p))
	}
	return responses
}

func parseDeadline(w http.ResponseWriter, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}

	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "deadline: invalid format, expected RFC 3339"})
		return nil, false
	}
	return &t, true
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
