package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/xerrors"
)

func newTestEngine(t *testing.T, catalog *fakeCatalog, store kvstore.Store) *Engine {
	t.Helper()

	engine := NewEngine("ash@pallet.town", catalog, NewOverlayStore(store, log.GetLogger()), NewTimerScheduler(testGrace))
	t.Cleanup(engine.Close)
	return engine
}

// TestEngine_Bootstrap 测试全量引导
func TestEngine_Bootstrap(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, fullFakeCatalog(), kvstore.NewMemoryStore())

	assert.False(t, engine.Ready())
	require.NoError(t, engine.Bootstrap(ctx))
	assert.True(t, engine.Ready())

	page, err := engine.List(ctx, model.ViewQuery{PageSize: MaxPageSize})
	require.NoError(t, err)
	assert.Equal(t, BootstrapLastID, page.TotalMatching)
	assert.Equal(t, BootstrapLastID, page.AvailableTotal)
}

// TestEngine_Bootstrap_AllOrNothing 测试部分拉取失败时整体失败
func TestEngine_Bootstrap_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	catalog := fullFakeCatalog()
	delete(catalog.pokemon, 77)

	engine := newTestEngine(t, catalog, kvstore.NewMemoryStore())

	err := engine.Bootstrap(ctx)
	require.Error(t, err)
	assert.False(t, engine.Ready())

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodeBootstrapFailed, appErr.Code)
}

// TestEngine_NotReady 测试未引导时的操作被拒绝
func TestEngine_NotReady(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, fullFakeCatalog(), kvstore.NewMemoryStore())

	_, err := engine.List(ctx, model.ViewQuery{})
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodeEngineNotReady, appErr.Code)
}

// TestEngine_EditPersists 测试编辑后立即持久化并在重新引导后保留
func TestEngine_EditPersists(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	catalog := fullFakeCatalog()

	engine := newTestEngine(t, catalog, store)
	require.NoError(t, engine.Bootstrap(ctx))

	name := "sparky"
	item, err := engine.Edit(ctx, 25, model.EditPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "sparky", item.Pokemon.Name)
	assert.True(t, item.Modified)

	// 同一身份的新引擎重新引导后编辑仍然可见
	engine2 := newTestEngine(t, catalog, store)
	require.NoError(t, engine2.Bootstrap(ctx))

	item, err = engine2.Get(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, "sparky", item.Pokemon.Name)
	assert.True(t, item.Modified)
}

// TestEngine_EditRejectedDuringGraceWindow 测试删除倒计时中的实体拒绝编辑
func TestEngine_EditRejectedDuringGraceWindow(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, fullFakeCatalog(), kvstore.NewMemoryStore())
	require.NoError(t, engine.Bootstrap(ctx))

	_, err := engine.ToggleDelete(ctx, 10)
	require.NoError(t, err)

	name := "caterpie-prime"
	_, err = engine.Edit(ctx, 10, model.EditPatch{Name: &name})
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodePokemonPendingDelete, appErr.Code)

	// 撤销删除后恢复可编辑
	_, err = engine.Restore(ctx, 10)
	require.NoError(t, err)
	item, err := engine.Edit(ctx, 10, model.EditPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "caterpie-prime", item.Pokemon.Name)
}

// TestEngine_DeleteGraceWindow 测试删除宽限期: 到期清除并持久化
func TestEngine_DeleteGraceWindow(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	catalog := fullFakeCatalog()

	engine := newTestEngine(t, catalog, store)
	require.NoError(t, engine.Bootstrap(ctx))

	item, err := engine.ToggleDelete(ctx, 10)
	require.NoError(t, err)
	assert.True(t, item.PendingDelete)

	// 宽限期内实体仍可见
	item, err = engine.Get(ctx, 10)
	require.NoError(t, err)
	assert.True(t, item.PendingDelete)

	// 宽限期过后实体被清除
	assert.Eventually(t, func() bool {
		_, err := engine.Get(ctx, 10)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	// 清除结果写入了覆盖层，新引擎引导后依然不可见
	engine2 := newTestEngine(t, catalog, store)
	require.NoError(t, engine2.Bootstrap(ctx))

	_, err = engine2.Get(ctx, 10)
	require.Error(t, err)

	page, err := engine2.List(ctx, model.ViewQuery{PageSize: MaxPageSize})
	require.NoError(t, err)
	assert.Equal(t, BootstrapLastID-1, page.TotalMatching)
}

// TestEngine_ToggleRestoresWithinGrace 测试宽限期内再次触发删除开关即恢复
func TestEngine_ToggleRestoresWithinGrace(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, fullFakeCatalog(), kvstore.NewMemoryStore())
	require.NoError(t, engine.Bootstrap(ctx))

	_, err := engine.ToggleDelete(ctx, 10)
	require.NoError(t, err)

	item, err := engine.ToggleDelete(ctx, 10)
	require.NoError(t, err)
	assert.False(t, item.PendingDelete)

	// 宽限期过后实体仍然存在
	time.Sleep(2 * testGrace)
	item, err = engine.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, item.PendingDelete)
}

// TestEngine_RestoreEndpoint 测试显式恢复
func TestEngine_RestoreEndpoint(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, fullFakeCatalog(), kvstore.NewMemoryStore())
	require.NoError(t, engine.Bootstrap(ctx))

	_, err := engine.ToggleDelete(ctx, 42)
	require.NoError(t, err)

	item, err := engine.Restore(ctx, 42)
	require.NoError(t, err)
	assert.False(t, item.PendingDelete)

	// 对活跃实体恢复是无害的空操作
	item, err = engine.Restore(ctx, 42)
	require.NoError(t, err)
	assert.False(t, item.PendingDelete)
}

// TestEngine_Reset 测试重置清空覆盖层并还原出厂数据
func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	engine := newTestEngine(t, fullFakeCatalog(), store)
	require.NoError(t, engine.Bootstrap(ctx))

	name := "edited"
	_, err := engine.Edit(ctx, 1, model.EditPatch{Name: &name})
	require.NoError(t, err)

	_, err = engine.ToggleDelete(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, engine.Reset(ctx))

	// 编辑还原
	item, err := engine.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pokemon-001", item.Pokemon.Name)
	assert.False(t, item.Modified)

	// 删除标记清除
	item, err = engine.Get(ctx, 2)
	require.NoError(t, err)
	assert.False(t, item.PendingDelete)

	// 覆盖层已清空
	assert.Equal(t, 0, store.Len())
}
