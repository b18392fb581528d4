package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ogurasousui/projectledger/internal/core/project"
)

const projectKeyPrefix = "project:"

// ProjectRedisCache は Redis を利用したプロジェクト読み取りキャッシュです。
// エントリは期限付きで保持されるため、無効化漏れがあっても自然に回復します。
type ProjectRedisCache struct {
	rdb        *redis.Client
	dataExpiry time.Duration
}

// NewProjectRedisCache は ProjectRedisCache を生成します。
func NewProjectRedisCache(rdb *redis.Client, dataExpiry time.Duration) *ProjectRedisCache {
	return &ProjectRedisCache{
		rdb:        rdb,
		dataExpiry: dataExpiry,
	}
}

// Get はキャッシュからプロジェクトを取得します。エントリが無い場合は
// project.ErrCacheMiss を返します。
func (c *ProjectRedisCache) Get(ctx context.Context, id string) (*project.Project, error) {
	b, err := c.rdb.GetEx(ctx, projectKeyPrefix+id, c.dataExpiry).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, project.ErrCacheMiss
		}
		return nil, err
	}

	var p project.Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set はプロジェクトをキャッシュへ書き込みます。
func (c *ProjectRedisCache) Set(ctx context.Context, p *project.Project) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, projectKeyPrefix+p.ID, b, c.dataExpiry).Err()
}

// Invalidate はキャッシュからエントリを削除します。
func (c *ProjectRedisCache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, projectKeyPrefix+id).Err()
}
