package project

import (
	"context"
	"errors"
)

// ErrCacheMiss はキャッシュにエントリが存在しないことを表します。
var ErrCacheMiss = errors.New("project: cache miss")

// Cache はプロジェクトの読み取りキャッシュの抽象です。実装は任意で、
// 未設定の場合サービスはストアへ直接アクセスします。エントリは期限付きで
// 保持される前提のため、無効化の失敗は整合性を壊しません。
type Cache interface {
	Get(ctx context.Context, id string) (*Project, error)
	Set(ctx context.Context, project *Project) error
	Invalidate(ctx context.Context, id string) error
}
