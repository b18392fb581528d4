package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ogurasousui/projectledger/internal/core/employee"
	"github.com/ogurasousui/projectledger/internal/core/project"
)

type errorResponse struct {
	Error         string   `json:"error"`
	UnresolvedIDs []string `json:"unresolvedIds,omitempty"`
}

// writeError はドメインエラーを HTTP ステータスと JSON ボディへ変換します。
// コアのエラーはすべて呼び出し元で回復可能なため、ここで握りつぶすことは
// ありません。
func writeError(w http.ResponseWriter, err error) {
	var unresolved *project.UnresolvedAssigneesError
	if errors.As(err, &unresolved) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:         "one or more assignees could not be resolved",
			UnresolvedIDs: unresolved.UserIDs,
		})
		return
	}

	switch {
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, project.ErrAlreadyCompleted),
		errors.Is(err, project.ErrConcurrentModification),
		errors.Is(err, project.ErrProjectCodeAlreadyExists),
		errors.Is(err, employee.ErrUserIDAlreadyExists),
		errors.Is(err, employee.ErrEmailAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, project.ErrInvalidID),
		errors.Is(err, project.ErrInvalidProjectCode),
		errors.Is(err, project.ErrInvalidTitle),
		errors.Is(err, project.ErrInvalidAmount),
		errors.Is(err, project.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidUserID),
		errors.Is(err, employee.ErrInvalidName),
		errors.Is(err, employee.ErrInvalidEmail),
		errors.Is(err, employee.ErrInvalidRole),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
