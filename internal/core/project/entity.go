package project

import "time"

// Status はプロジェクトの状態を表します。
// 遷移は upcoming → current → completed の一方向で、completed は終端です。
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCurrent   Status = "current"
	StatusCompleted Status = "completed"
)

// Project はプロジェクトエンティティです。
//
// AssignedEmployees は従業員内部 ID の集合です。従業員側の参照集合との
// 対称性はプロジェクトコアのみが維持します。Version は楽観ロック用の
// スタンプで、更新のたびに 1 進みます。
type Project struct {
	ID                string
	ProjectCode       string
	Title             string
	Description       string
	Tasks             []string
	Deadline          *time.Time
	Tags              []string
	Amount            int64
	Status            Status
	AssignedEmployees []string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAssigned は employeeID が割り当て集合に含まれるかを返します。
func (p *Project) IsAssigned(employeeID string) bool {
	for _, id := range p.AssignedEmployees {
		if id == employeeID {
			return true
		}
	}
	return false
}

// IsCompleted は終端状態かを返します。
func (p *Project) IsCompleted() bool {
	return p.Status == StatusCompleted
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusUpcoming, StatusCurrent, StatusCompleted:
		return true
	default:
		return false
	}
}
