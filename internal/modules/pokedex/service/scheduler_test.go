package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-self/internal/pkg/xerrors"
)

// 测试用的短宽限期，避免拖慢测试
const testGrace = 30 * time.Millisecond

// TestTimerScheduler_FiresAfterGrace 测试宽限期到期后触发回调
func TestTimerScheduler_FiresAfterGrace(t *testing.T) {
	s := NewTimerScheduler(testGrace)
	defer s.CancelAll()

	var fired atomic.Bool
	require.NoError(t, s.Schedule(1, func() { fired.Store(true) }))
	assert.True(t, s.IsPending(1))

	assert.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
	assert.False(t, s.IsPending(1))
}

// TestTimerScheduler_CancelWithinGrace 测试宽限期内取消
func TestTimerScheduler_CancelWithinGrace(t *testing.T) {
	s := NewTimerScheduler(testGrace)
	defer s.CancelAll()

	var fired atomic.Bool
	require.NoError(t, s.Schedule(1, func() { fired.Store(true) }))

	assert.True(t, s.Cancel(1))
	assert.False(t, s.IsPending(1))

	time.Sleep(2 * testGrace)
	assert.False(t, fired.Load())

	// 取消不存在的定时器返回 false
	assert.False(t, s.Cancel(1))
}

// TestTimerScheduler_DoubleScheduleConflict 测试同一实体重复调度冲突
func TestTimerScheduler_DoubleScheduleConflict(t *testing.T) {
	s := NewTimerScheduler(time.Minute)
	defer s.CancelAll()

	require.NoError(t, s.Schedule(1, func() {}))

	err := s.Schedule(1, func() {})
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodeTimerConflict, appErr.Code)

	// 取消后允许重新调度
	assert.True(t, s.Cancel(1))
	require.NoError(t, s.Schedule(1, func() {}))
}

// TestTimerScheduler_CancelAll 测试全量取消
func TestTimerScheduler_CancelAll(t *testing.T) {
	s := NewTimerScheduler(testGrace)

	var fired atomic.Int32
	for id := 1; id <= 5; id++ {
		require.NoError(t, s.Schedule(id, func() { fired.Add(1) }))
	}

	s.CancelAll()
	for id := 1; id <= 5; id++ {
		assert.False(t, s.IsPending(id))
	}

	time.Sleep(2 * testGrace)
	assert.Equal(t, int32(0), fired.Load())
}

// TestTimerScheduler_DefaultGrace 测试零值回退默认宽限期
func TestTimerScheduler_DefaultGrace(t *testing.T) {
	s := NewTimerScheduler(0)
	assert.Equal(t, DefaultGraceWindow, s.grace)
}
