package kvstore

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"pokedex-self/internal/pkg/redis"
	"pokedex-self/internal/pkg/xerrors"
)

// RedisStore 基于 Redis 的键值存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 键值存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get 获取键值，键不存在时 ok 返回 false 且不视为错误
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetString(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, xerrors.NewStorageError("get", key, err)
	}
	return value, true, nil
}

// Set 写入键值（无过期时间，图鉴数据由身份生命周期管理）
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.SetWithTTL(ctx, key, value, 0); err != nil {
		return xerrors.NewStorageError("set", key, err)
	}
	return nil
}

// Remove 删除键
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.DeleteKey(ctx, key); err != nil {
		return xerrors.NewStorageError("remove", key, err)
	}
	return nil
}
