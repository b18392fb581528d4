package employee

import "context"

// Repository は従業員永続化の抽象です。
//
// AddActiveProject / RemoveActiveProject / CreditCompletion / PurgeProjectRefs
// は集合セマンティクスを持ちます。重複挿入は no-op、不在要素の削除はエラーに
// なりません。呼び出し元(プロジェクトコア)はこの冪等性に依存してリトライ
// 収束を実現します。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByUserID(ctx context.Context, userID string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	// ResolveUserIDs は外部 ID から内部 ID への対応表を返します。
	// 未登録の外部 ID は結果に含まれません(エラーにはなりません)。
	ResolveUserIDs(ctx context.Context, userIDs []string) (map[string]string, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)

	// AddActiveProject は projectID を従業員の進行中集合へ集合挿入します。
	AddActiveProject(ctx context.Context, employeeID, projectID string) error
	// RemoveActiveProject は projectID を従業員の進行中集合から除去します。
	RemoveActiveProject(ctx context.Context, employeeID, projectID string) error
	// CreditCompletion は projectID を進行中集合から完了済み集合へ移し、
	// balance に amount を加算します。すでに完了済み集合に含まれる場合は
	// 何もせず false を返します(再試行しても二重加算されません)。
	CreditCompletion(ctx context.Context, employeeID, projectID string, amount int64) (bool, error)
	// PurgeProjectRefs は全従業員の両集合から projectID への参照を除去します。
	PurgeProjectRefs(ctx context.Context, projectID string) error
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	Role   *string
	Limit  int
	Offset int
}
