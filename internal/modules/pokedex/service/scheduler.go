// Package service 实现图鉴列表状态引擎的核心逻辑
package service

import (
	"sync"
	"time"

	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/xerrors"
)

// DefaultGraceWindow 删除宽限期时长，宽限期内可撤销删除
const DefaultGraceWindow = 5 * time.Second

// Scheduler 删除宽限期调度器
// 同一实体同一时刻至多存在一个待触发的定时器
type Scheduler interface {
	// Schedule 为实体登记宽限期定时器，到期后执行 fn
	// 实体已有定时器时返回冲突错误
	Schedule(id int, fn func()) error
	// Cancel 取消实体的定时器，返回是否确实取消了一个待触发的定时器
	Cancel(id int) bool
	// CancelAll 取消全部定时器，引擎重置和销毁时调用
	CancelAll()
	// IsPending 实体是否存在待触发的定时器
	IsPending(id int) bool
}

// TimerScheduler 基于 time.AfterFunc 的调度器实现
type TimerScheduler struct {
	mu     sync.Mutex
	grace  time.Duration
	timers map[int]*time.Timer
}

// NewTimerScheduler 创建调度器，grace 为零时使用默认宽限期
func NewTimerScheduler(grace time.Duration) *TimerScheduler {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &TimerScheduler{
		grace:  grace,
		timers: make(map[int]*time.Timer),
	}
}

// Schedule 为实体登记宽限期定时器
func (s *TimerScheduler) Schedule(id int, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.timers[id]; exists {
		return xerrors.NewTimerConflictError(id)
	}

	s.timers[id] = time.AfterFunc(s.grace, func() {
		// 先摘除登记再执行回调，回调内部可能再次调度
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		metrics.DefaultBusinessMetrics.DecDeleteTimers("dashboard")

		fn()
	})
	metrics.DefaultBusinessMetrics.IncDeleteTimers("dashboard")
	return nil
}

// Cancel 取消实体的定时器
func (s *TimerScheduler) Cancel(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, exists := s.timers[id]
	if !exists {
		return false
	}
	delete(s.timers, id)

	if timer.Stop() {
		metrics.DefaultBusinessMetrics.DecDeleteTimers("dashboard")
		return true
	}
	// 定时器已触发，回调会自行摘除登记
	return false
}

// CancelAll 取消全部定时器
func (s *TimerScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		if timer.Stop() {
			metrics.DefaultBusinessMetrics.DecDeleteTimers("dashboard")
		}
		delete(s.timers, id)
	}
}

// IsPending 实体是否存在待触发的定时器
func (s *TimerScheduler) IsPending(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.timers[id]
	return exists
}
