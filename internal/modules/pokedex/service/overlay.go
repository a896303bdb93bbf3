package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
)

// 持久化覆盖层。编辑快照与删除清单按身份命名空间写入 KV 存储，
// 重新引导时套用到目录数据之上。存储故障不阻断内存内的状态变化。

const (
	modificationsKeyPrefix = "pokemon_modifications"
	deletedKeyPrefix       = "pokemon_deleted"
)

// Overlay 一个身份命名空间的完整覆盖层内容
type Overlay struct {
	// Modifications 编号(十进制串) -> 编辑快照
	Modifications map[string]model.ModificationSnapshot
	// DeletedIDs 已清除实体的编号清单
	DeletedIDs []int
}

// OverlayStore 覆盖层的读写器，按身份隔离命名空间
type OverlayStore struct {
	store  kvstore.Store
	logger log.Logger
}

// NewOverlayStore 创建覆盖层读写器
func NewOverlayStore(store kvstore.Store, logger log.Logger) *OverlayStore {
	return &OverlayStore{store: store, logger: logger}
}

// SanitizeIdentity 把身份标识转成 KV 键的安全后缀
// 非字母数字字符一律替换为下划线
func SanitizeIdentity(identity string) string {
	out := make([]byte, len(identity))
	for i := 0; i < len(identity); i++ {
		c := identity[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// modificationsKey 拼出身份命名空间下的编辑快照键
func modificationsKey(identity string) string {
	return modificationsKeyPrefix + "_" + SanitizeIdentity(identity)
}

// deletedKey 拼出身份命名空间下的删除清单键
func deletedKey(identity string) string {
	return deletedKeyPrefix + "_" + SanitizeIdentity(identity)
}

// Save 把集合当前的编辑快照与删除清单写入存储
// 没有身份标识时跳过写入，避免污染共享命名空间
func (o *OverlayStore) Save(ctx context.Context, identity string, c *Collection, deletedIDs []int) {
	if identity == "" {
		o.logger.WarnContext(ctx, "缺少身份标识，跳过覆盖层写入")
		return
	}

	start := time.Now()

	mods := make(map[string]model.ModificationSnapshot)
	for _, e := range c.ModifiedEntries() {
		mods[strconv.Itoa(e.Pokemon.ID)] = model.SnapshotFromPokemon(e.Pokemon)
	}

	outcome := "success"
	if err := o.saveJSON(ctx, modificationsKey(identity), mods); err != nil {
		outcome = "failure"
	}
	if deletedIDs == nil {
		deletedIDs = []int{}
	}
	if err := o.saveJSON(ctx, deletedKey(identity), deletedIDs); err != nil {
		outcome = "failure"
	}

	metrics.DefaultBusinessMetrics.RecordOverlayWrite(outcome, "dashboard")
	log.LogStoreOperation(ctx, "overlay_save", modificationsKey(identity), time.Since(start).Milliseconds(), nil)
}

// Load 读出身份命名空间下的覆盖层，缺失或损坏的数据按空覆盖层处理
func (o *OverlayStore) Load(ctx context.Context, identity string) *Overlay {
	overlay := &Overlay{
		Modifications: make(map[string]model.ModificationSnapshot),
		DeletedIDs:    []int{},
	}
	if identity == "" {
		o.logger.WarnContext(ctx, "缺少身份标识，跳过覆盖层读取")
		return overlay
	}

	if raw, ok := o.loadRaw(ctx, modificationsKey(identity)); ok {
		var mods map[string]model.ModificationSnapshot
		if err := json.Unmarshal([]byte(raw), &mods); err != nil {
			// 损坏的数据视同不存在，下一次保存会覆盖它
			o.logger.WarnContext(ctx, "编辑快照数据损坏，已忽略",
				log.String("key", modificationsKey(identity)),
				log.Any("error", err))
		} else {
			overlay.Modifications = mods
		}
	}

	if raw, ok := o.loadRaw(ctx, deletedKey(identity)); ok {
		var ids []int
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			o.logger.WarnContext(ctx, "删除清单数据损坏，已忽略",
				log.String("key", deletedKey(identity)),
				log.Any("error", err))
		} else {
			overlay.DeletedIDs = ids
		}
	}

	return overlay
}

// Clear 清空身份命名空间下的覆盖层
func (o *OverlayStore) Clear(ctx context.Context, identity string) {
	if identity == "" {
		o.logger.WarnContext(ctx, "缺少身份标识，跳过覆盖层清理")
		return
	}

	for _, key := range []string{modificationsKey(identity), deletedKey(identity)} {
		start := time.Now()
		err := o.store.Remove(ctx, key)
		log.LogStoreOperation(ctx, "overlay_clear", key, time.Since(start).Milliseconds(), err)
	}
}

// ApplyTo 把覆盖层套用到集合: 先清除删除清单中的实体，再套用编辑快照
func (ov *Overlay) ApplyTo(c *Collection) {
	for _, id := range ov.DeletedIDs {
		// 目录数据里可能已没有该编号，忽略即可
		_ = c.Purge(id)
	}

	for idStr, snap := range ov.Modifications {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			log.Warn("覆盖层快照键无法解析，已跳过", log.String("key", idStr))
			continue
		}
		entry, err := c.Get(id)
		if err != nil {
			// 快照指向的编号已不在目录中(陈旧数据)，跳过不中断引导
			log.Warn("覆盖层快照指向不存在的编号，已跳过", log.Int("pokemon_id", id))
			continue
		}
		snap.ApplyTo(entry.Pokemon)
		entry.Modified = true
	}
}

// saveJSON 序列化并写入单个键，失败时记日志但不向上传播
func (o *OverlayStore) saveJSON(ctx context.Context, key string, value interface{}) error {
	start := time.Now()

	data, err := json.Marshal(value)
	if err == nil {
		err = o.store.Set(ctx, key, string(data))
	}

	log.LogStoreOperation(ctx, "overlay_write", key, time.Since(start).Milliseconds(), err)
	return err
}

// loadRaw 读出单个键的原始内容
func (o *OverlayStore) loadRaw(ctx context.Context, key string) (string, bool) {
	start := time.Now()

	raw, ok, err := o.store.Get(ctx, key)
	log.LogStoreOperation(ctx, "overlay_read", key, time.Since(start).Milliseconds(), err)
	if err != nil || !ok {
		return "", false
	}
	return raw, true
}
