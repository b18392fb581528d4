package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidID                = errors.New("project: invalid id")
	ErrInvalidProjectCode       = errors.New("project: invalid project code")
	ErrInvalidTitle             = errors.New("project: invalid title")
	ErrInvalidAmount            = errors.New("project: invalid amount")
	ErrInvalidStatus            = errors.New("project: invalid status")
	ErrProjectNotFound          = errors.New("project: not found")
	ErrProjectCodeAlreadyExists = errors.New("project: project code already exists")
	ErrAlreadyCompleted         = errors.New("project: already completed")
	ErrConcurrentModification   = errors.New("project: concurrent modification")
)

// UnresolvedAssigneesError は割り当てリスト中の未登録外部 ID を報告します。
// 一つでも解決できない ID があれば操作全体を拒否します。
type UnresolvedAssigneesError struct {
	UserIDs []string
}

func (e *UnresolvedAssigneesError) Error() string {
	return fmt.Sprintf("project: unresolved assignees: %s", strings.Join(e.UserIDs, ", "))
}
