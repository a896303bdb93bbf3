package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryStore_SetGetRemove 测试基本读写与删除
func TestMemoryStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// 不存在的键: ok 为 false 且无错误
	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k1", "v1"))
	require.NoError(t, s.Set(ctx, "k2", "v2"))
	assert.Equal(t, 2, s.Len())

	value, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", value)

	// 覆盖写
	require.NoError(t, s.Set(ctx, "k1", "v1-new"))
	value, _, _ = s.Get(ctx, "k1")
	assert.Equal(t, "v1-new", value)

	// 删除后不可见，重复删除无错误
	require.NoError(t, s.Remove(ctx, "k1"))
	_, ok, err = s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Remove(ctx, "k1"))
	assert.Equal(t, 1, s.Len())
}
