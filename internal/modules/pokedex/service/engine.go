package service

import (
	"context"
	"sync"
	"time"

	"pokedex-self/internal/modules/pokedex/client"
	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/xerrors"
)

const (
	// BootstrapFirstID 引导加载的起始编号
	BootstrapFirstID = 1
	// BootstrapLastID 引导加载的结束编号，覆盖初代图鉴
	BootstrapLastID = 151
)

// Engine 单个身份命名空间的列表状态引擎
// 所有状态变化经由互斥锁串行化，视图只读不改写集合
type Engine struct {
	mu        sync.Mutex
	identity  string
	catalog   client.CatalogClient
	overlay   *OverlayStore
	scheduler Scheduler

	collection *Collection
	// deletedIDs 已清除实体的累计清单，随覆盖层持久化
	deletedIDs []int
	ready      bool
}

// NewEngine 创建引擎，使用前必须先 Bootstrap
func NewEngine(identity string, catalog client.CatalogClient, overlay *OverlayStore, scheduler Scheduler) *Engine {
	return &Engine{
		identity:   identity,
		catalog:    catalog,
		overlay:    overlay,
		scheduler:  scheduler,
		collection: NewCollection(),
	}
}

// Bootstrap 从目录数据源拉取完整数据集并套用持久化覆盖层
// 任何一条拉取失败则整体失败，已有状态保持不变
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bootstrapLocked(ctx)
}

func (e *Engine) bootstrapLocked(ctx context.Context) error {
	start := time.Now()

	// 1. 清掉上一轮数据遗留的宽限期定时器
	e.scheduler.CancelAll()

	// 2. 全量拉取目录数据
	pokemon, err := e.catalog.GetPokemonRange(ctx, BootstrapFirstID, BootstrapLastID)
	if err != nil {
		metrics.DefaultBusinessMetrics.RecordBootstrap("failure", time.Since(start), "dashboard")
		log.LogEngineEvent(ctx, "bootstrap_failed", e.identity, map[string]interface{}{
			"error": err.Error(),
		})
		return xerrors.Wrap(err, xerrors.CodeBootstrapFailed, "图鉴数据引导失败")
	}

	// 3. 载入集合
	collection := NewCollection()
	if err := collection.Load(pokemon); err != nil {
		metrics.DefaultBusinessMetrics.RecordBootstrap("failure", time.Since(start), "dashboard")
		return err
	}

	// 4. 套用持久化覆盖层
	overlay := e.overlay.Load(ctx, e.identity)
	overlay.ApplyTo(collection)

	e.collection = collection
	e.deletedIDs = overlay.DeletedIDs
	e.ready = true

	metrics.DefaultBusinessMetrics.RecordBootstrap("success", time.Since(start), "dashboard")
	log.LogEngineEvent(ctx, "bootstrap_completed", e.identity, map[string]interface{}{
		"loaded":  collection.Len(),
		"deleted": len(e.deletedIDs),
	})
	return nil
}

// Ready 引擎是否已完成引导
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// List 派生一页视图
func (e *Engine) List(ctx context.Context, query model.ViewQuery) (*model.ViewPage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return nil, xerrors.FromCode(xerrors.CodeEngineNotReady)
	}
	return DeriveView(e.collection, query)
}

// Get 按编号取单个实体及其状态标记
func (e *Engine) Get(ctx context.Context, id int) (*model.ViewItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return nil, xerrors.FromCode(xerrors.CodeEngineNotReady)
	}
	entry, err := e.collection.Get(id)
	if err != nil {
		return nil, err
	}
	return &model.ViewItem{
		Pokemon:       entry.Pokemon,
		PendingDelete: entry.IsPendingDelete(),
		Modified:      entry.Modified,
	}, nil
}

// Edit 套用编辑补丁并立即持久化覆盖层
func (e *Engine) Edit(ctx context.Context, id int, patch model.EditPatch) (*model.ViewItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return nil, xerrors.FromCode(xerrors.CodeEngineNotReady)
	}

	entry, err := e.collection.Edit(id, patch)
	if err != nil {
		return nil, err
	}

	// 持久化失败不回滚内存状态，下一次保存会补上
	e.overlay.Save(ctx, e.identity, e.collection, e.deletedIDs)

	log.LogEngineEvent(ctx, "pokemon_edited", e.identity, map[string]interface{}{
		"pokemon_id": id,
	})
	return &model.ViewItem{
		Pokemon:       entry.Pokemon,
		PendingDelete: entry.IsPendingDelete(),
		Modified:      entry.Modified,
	}, nil
}

// ToggleDelete 删除开关: 活跃实体进入宽限期，宽限期内的实体恢复活跃
// 返回切换后的实体状态
func (e *Engine) ToggleDelete(ctx context.Context, id int) (*model.ViewItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return nil, xerrors.FromCode(xerrors.CodeEngineNotReady)
	}

	entry, err := e.collection.Get(id)
	if err != nil {
		return nil, err
	}

	if entry.IsPendingDelete() {
		return e.restoreLocked(ctx, id)
	}

	if _, err := e.collection.MarkPendingDelete(id); err != nil {
		return nil, err
	}
	if err := e.scheduler.Schedule(id, func() {
		e.purge(id)
	}); err != nil {
		// 调度冲突时回退删除标记，保持状态一致
		_, _ = e.collection.Restore(id)
		return nil, err
	}

	log.LogEngineEvent(ctx, "pokemon_marked_for_delete", e.identity, map[string]interface{}{
		"pokemon_id": id,
	})
	return &model.ViewItem{
		Pokemon:       entry.Pokemon,
		PendingDelete: true,
		Modified:      entry.Modified,
	}, nil
}

// Restore 撤销宽限期内的删除标记
func (e *Engine) Restore(ctx context.Context, id int) (*model.ViewItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return nil, xerrors.FromCode(xerrors.CodeEngineNotReady)
	}
	return e.restoreLocked(ctx, id)
}

func (e *Engine) restoreLocked(ctx context.Context, id int) (*model.ViewItem, error) {
	e.scheduler.Cancel(id)
	entry, err := e.collection.Restore(id)
	if err != nil {
		return nil, err
	}

	log.LogEngineEvent(ctx, "pokemon_restored", e.identity, map[string]interface{}{
		"pokemon_id": id,
	})
	return &model.ViewItem{
		Pokemon:       entry.Pokemon,
		PendingDelete: false,
		Modified:      entry.Modified,
	}, nil
}

// purge 宽限期到期的回调: 移除实体并持久化删除清单
func (e *Engine) purge(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.collection.Get(id)
	if err != nil || !entry.IsPendingDelete() {
		// 定时器触发与恢复操作竞争时以集合状态为准
		return
	}

	if err := e.collection.Purge(id); err != nil {
		return
	}
	e.deletedIDs = append(e.deletedIDs, id)

	ctx := context.Background()
	e.overlay.Save(ctx, e.identity, e.collection, e.deletedIDs)

	metrics.DefaultBusinessMetrics.RecordPurge("dashboard")
	log.LogEngineEvent(ctx, "pokemon_purged", e.identity, map[string]interface{}{
		"pokemon_id": id,
	})
}

// Reset 清空覆盖层并重新引导，恢复出厂数据
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return xerrors.FromCode(xerrors.CodeEngineNotReady)
	}

	e.overlay.Clear(ctx, e.identity)
	e.deletedIDs = nil

	log.LogEngineEvent(ctx, "engine_reset", e.identity, nil)
	return e.bootstrapLocked(ctx)
}

// Close 停掉引擎的全部定时器，销毁前调用
func (e *Engine) Close() {
	e.scheduler.CancelAll()
}
