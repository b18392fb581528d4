package project

import "context"

// Repository はプロジェクト永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	FindByID(ctx context.Context, id string) (*Project, error)
	FindByProjectCode(ctx context.Context, code string) (*Project, error)
	// FindByIDForUpdate は行ロックを取得した上でプロジェクトを返します。
	// 読み書きトランザクション内でのみ意味を持ちます。
	FindByIDForUpdate(ctx context.Context, id string) (*Project, error)
	// Update は project.Version が保存済みの値と一致する場合のみ書き込み、
	// Version を 1 進めた結果を返します。不一致は ErrConcurrentModification です。
	Update(ctx context.Context, project *Project) (*Project, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListProjectsFilter) ([]*Project, error)
	// ListByIDs は ids に含まれるプロジェクトを statuses で絞り込んで返します。
	// statuses が空なら状態では絞り込みません。
	ListByIDs(ctx context.Context, ids []string, statuses []Status) ([]*Project, error)
}

// ListProjectsFilter は一覧取得用フィルタです。Statuses が空なら全状態が対象です。
type ListProjectsFilter struct {
	Statuses []Status
}
