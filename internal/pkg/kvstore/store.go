// Package kvstore 提供图鉴持久化使用的键值存储抽象
package kvstore

import "context"

// Store 键值存储接口
// Get 的第二个返回值表示键是否存在，区分空值与缺失
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
