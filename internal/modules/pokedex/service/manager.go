package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pokedex-self/internal/modules/pokedex/client"
	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/notify"
	"pokedex-self/internal/pkg/xerrors"
)

// DefaultIdleTTL 引擎空闲多久后允许被回收
const DefaultIdleTTL = 30 * time.Minute

// EngineManager 按身份管理引擎实例
// 同一身份共享同一个引擎，身份登出或变更时引擎被销毁
type EngineManager struct {
	mu      sync.Mutex
	engines map[string]*managedEngine

	catalog      client.CatalogClient
	overlayStore *OverlayStore
	graceWindow  time.Duration
	idleTTL      time.Duration
	logger       log.Logger
}

type managedEngine struct {
	engine     *Engine
	lastAccess time.Time
}

// NewEngineManager 创建引擎管理器
func NewEngineManager(catalog client.CatalogClient, store kvstore.Store, graceWindow time.Duration, logger log.Logger) *EngineManager {
	if graceWindow <= 0 {
		graceWindow = DefaultGraceWindow
	}
	return &EngineManager{
		engines:      make(map[string]*managedEngine),
		catalog:      catalog,
		overlayStore: NewOverlayStore(store, logger),
		graceWindow:  graceWindow,
		idleTTL:      DefaultIdleTTL,
		logger:       logger,
	}
}

// EnsureEngine 确保身份对应的引擎存在且已完成引导
// 首次访问会触发全量引导，引导失败时不保留半成品引擎
func (m *EngineManager) EnsureEngine(ctx context.Context, identity string) error {
	if identity == "" {
		return xerrors.New(xerrors.CodeInvalidRequest, "缺少身份标识")
	}

	m.mu.Lock()
	if me, ok := m.engines[identity]; ok {
		me.lastAccess = time.Now()
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	// 引导在锁外执行，避免目录拉取阻塞其他身份
	engine := NewEngine(identity, m.catalog, m.overlayStore, NewTimerScheduler(m.graceWindow))
	if err := engine.Bootstrap(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.engines[identity]; ok {
		// 并发引导时保留先到的引擎，丢弃本次结果
		engine.Close()
		return nil
	}
	m.engines[identity] = &managedEngine{
		engine:     engine,
		lastAccess: time.Now(),
	}
	metrics.DefaultBusinessMetrics.IncEngines("dashboard")
	metrics.DefaultBusinessMetrics.SetEnginesActive(len(m.engines), "dashboard")
	return nil
}

// Engine 取身份对应的引擎，不存在时返回引擎未就绪错误
func (m *EngineManager) Engine(identity string) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	me, ok := m.engines[identity]
	if !ok {
		return nil, xerrors.FromCode(xerrors.CodeEngineNotReady)
	}
	me.lastAccess = time.Now()
	return me.engine, nil
}

// Teardown 销毁身份对应的引擎，定时器全部取消
func (m *EngineManager) Teardown(ctx context.Context, identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked(ctx, identity)
}

func (m *EngineManager) teardownLocked(ctx context.Context, identity string) {
	me, ok := m.engines[identity]
	if !ok {
		return
	}
	me.engine.Close()
	delete(m.engines, identity)

	metrics.DefaultBusinessMetrics.DecEngines("dashboard")
	metrics.DefaultBusinessMetrics.SetEnginesActive(len(m.engines), "dashboard")
	log.LogEngineEvent(ctx, "engine_torn_down", identity, nil)
}

// EvictIdle 回收超过空闲时长未被访问的引擎，返回回收数量
func (m *EngineManager) EvictIdle(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.idleTTL)
	evicted := 0
	for identity, me := range m.engines {
		if me.lastAccess.Before(cutoff) {
			m.teardownLocked(ctx, identity)
			evicted++
		}
	}
	return evicted
}

// ActiveCount 当前存活的引擎数
func (m *EngineManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}

// SubscribeAuthEvents 订阅身份事件，身份登出或变更时销毁对应引擎
// NATS 连接不可用时订阅静默失败，引擎只能靠空闲回收
func (m *EngineManager) SubscribeAuthEvents() {
	for _, subject := range []string{notify.SubjectIdentityChanged, notify.SubjectIdentityLoggedOut} {
		if _, err := notify.Subscribe(subject, m.handleIdentityEvent); err != nil {
			m.logger.Warn("订阅身份事件失败", log.String("subject", subject), log.Any("error", err))
		}
	}
}

func (m *EngineManager) handleIdentityEvent(data []byte) {
	var event notify.IdentityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		m.logger.Warn("身份事件数据无法解析", log.Any("error", err))
		return
	}
	if event.Identity == "" {
		return
	}

	ctx := context.Background()
	log.LogEngineEvent(ctx, "identity_event_received", event.Identity, map[string]interface{}{
		"reason": event.Reason,
	})
	m.Teardown(ctx, event.Identity)
}
