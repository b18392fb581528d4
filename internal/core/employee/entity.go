package employee

import "time"

// DefaultRole は役割未指定時に割り当てられる役割です。
const DefaultRole = "employee"

// Employee は従業員エンティティです。
//
// Balance は最小通貨単位の累積報酬で、プロジェクト完了ワークフローのみが
// 加算します。このコアが減算することはありません。
// ActiveProjects と CompletedProjects は常に互いに素です。
type Employee struct {
	ID                string
	UserID            string
	Name              string
	Email             string
	Role              string
	Tags              []string
	Badges            []string
	Balance           int64
	ActiveProjects    []string
	CompletedProjects []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasActiveProject は projectID が進行中プロジェクト集合に含まれるかを返します。
func (e *Employee) HasActiveProject(projectID string) bool {
	for _, id := range e.ActiveProjects {
		if id == projectID {
			return true
		}
	}
	return false
}

// HasCompletedProject は projectID が完了済みプロジェクト集合に含まれるかを返します。
func (e *Employee) HasCompletedProject(projectID string) bool {
	for _, id := range e.CompletedProjects {
		if id == projectID {
			return true
		}
	}
	return false
}
