package tasks

import (
	"context"

	"github.com/robfig/cron/v3"

	"pokedex-self/internal/modules/pokedex/service"
	"pokedex-self/internal/pkg/log"
)

// EngineEvictionTask 定时回收空闲引擎任务
type EngineEvictionTask struct {
	manager *service.EngineManager
	logger  log.Logger
	cron    *cron.Cron
}

// NewEngineEvictionTask 创建空闲引擎回收任务实例
func NewEngineEvictionTask(manager *service.EngineManager, logger log.Logger) *EngineEvictionTask {
	return &EngineEvictionTask{
		manager: manager,
		logger:  logger,
	}
}

// Start 启动定时任务
func (t *EngineEvictionTask) Start() {
	t.cron = cron.New(cron.WithSeconds()) // 支持秒级调度（用于测试）

	// 每10分钟回收一次空闲引擎
	// Cron 表达式: 秒 分 时 日 月 周
	_, err := t.cron.AddFunc("0 */10 * * * *", func() {
		t.logger.Info("【定时任务】开始回收空闲引擎")
		t.evictIdleEngines()
	})

	if err != nil {
		t.logger.Error("【定时任务】添加引擎回收任务失败", err)
		return
	}

	t.cron.Start()
	t.logger.Info("【定时任务】已启动 - 每10分钟回收空闲引擎")
}

// evictIdleEngines 回收超过空闲时长的引擎
func (t *EngineEvictionTask) evictIdleEngines() {
	ctx := context.Background()

	evicted := t.manager.EvictIdle(ctx)
	t.logger.Info("【定时任务】空闲引擎回收完成",
		"evicted_count", evicted,
		"active_count", t.manager.ActiveCount())
}

// Stop 停止定时任务（优雅关闭）
func (t *EngineEvictionTask) Stop() {
	if t.cron != nil {
		t.logger.Info("【定时任务】正在停止引擎回收任务...")
		ctx := t.cron.Stop()
		<-ctx.Done()
		t.logger.Info("【定时任务】引擎回收任务已停止")
	}
}
