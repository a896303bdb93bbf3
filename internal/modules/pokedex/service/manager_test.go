package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/notify"
	"pokedex-self/internal/pkg/xerrors"
)

func newTestManager(t *testing.T) *EngineManager {
	t.Helper()
	return NewEngineManager(fullFakeCatalog(), kvstore.NewMemoryStore(), testGrace, log.GetLogger())
}

// TestEngineManager_EnsureEngine 测试懒加载引导
func TestEngineManager_EnsureEngine(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	_, err := m.Engine("ash@pallet.town")
	require.Error(t, err)

	require.NoError(t, m.EnsureEngine(ctx, "ash@pallet.town"))
	assert.Equal(t, 1, m.ActiveCount())

	engine, err := m.Engine("ash@pallet.town")
	require.NoError(t, err)
	assert.True(t, engine.Ready())

	// 重复调用复用既有引擎
	require.NoError(t, m.EnsureEngine(ctx, "ash@pallet.town"))
	assert.Equal(t, 1, m.ActiveCount())

	// 不同身份各有独立引擎
	require.NoError(t, m.EnsureEngine(ctx, "gary@pallet.town"))
	assert.Equal(t, 2, m.ActiveCount())
}

// TestEngineManager_EnsureEngine_EmptyIdentity 测试缺少身份标识
func TestEngineManager_EnsureEngine_EmptyIdentity(t *testing.T) {
	m := newTestManager(t)

	err := m.EnsureEngine(context.Background(), "")
	require.Error(t, err)
}

// TestEngineManager_IdentityIsolation 测试覆盖层按身份隔离
func TestEngineManager_IdentityIsolation(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	m := NewEngineManager(fullFakeCatalog(), store, time.Minute, log.GetLogger())

	require.NoError(t, m.EnsureEngine(ctx, "ash@pallet.town"))
	require.NoError(t, m.EnsureEngine(ctx, "gary@pallet.town"))

	ashEngine, err := m.Engine("ash@pallet.town")
	require.NoError(t, err)

	name := "ash-only"
	_, err = ashEngine.Edit(ctx, 1, editName(name))
	require.NoError(t, err)

	garyEngine, err := m.Engine("gary@pallet.town")
	require.NoError(t, err)

	item, err := garyEngine.Get(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "ash-only", item.Pokemon.Name)
}

// TestEngineManager_Teardown 测试引擎销毁
func TestEngineManager_Teardown(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.EnsureEngine(ctx, "ash@pallet.town"))
	m.Teardown(ctx, "ash@pallet.town")
	assert.Equal(t, 0, m.ActiveCount())

	_, err := m.Engine("ash@pallet.town")
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodeEngineNotReady, appErr.Code)

	// 销毁不存在的引擎是空操作
	m.Teardown(ctx, "missing@pallet.town")
}

// TestEngineManager_IdentityEventTearsDown 测试身份事件触发引擎销毁
func TestEngineManager_IdentityEventTearsDown(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.EnsureEngine(ctx, "ash@pallet.town"))
	require.Equal(t, 1, m.ActiveCount())

	payload, err := json.Marshal(notify.IdentityEvent{
		UserID:   "1",
		Identity: "ash@pallet.town",
		Reason:   "logout",
	})
	require.NoError(t, err)

	m.handleIdentityEvent(payload)
	assert.Equal(t, 0, m.ActiveCount())

	// 无法解析或缺少身份的事件被忽略
	m.handleIdentityEvent([]byte("{broken"))
	m.handleIdentityEvent([]byte(`{"user_id":"1"}`))
}

// TestEngineManager_EvictIdle 测试空闲引擎回收
func TestEngineManager_EvictIdle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	m.idleTTL = 10 * time.Millisecond

	require.NoError(t, m.EnsureEngine(ctx, "ash@pallet.town"))
	require.NoError(t, m.EnsureEngine(ctx, "gary@pallet.town"))

	time.Sleep(20 * time.Millisecond)

	// gary 保持活跃
	_, err := m.Engine("gary@pallet.town")
	require.NoError(t, err)

	evicted := m.EvictIdle(ctx)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, m.ActiveCount())

	_, err = m.Engine("gary@pallet.town")
	assert.NoError(t, err)
}
