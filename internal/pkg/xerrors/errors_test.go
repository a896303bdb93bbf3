package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWrap_标准错误包装 验证普通 error 被包装为指定 code 的 AppError
func TestWrap_标准错误包装(t *testing.T) {
	inner := errors.New("connection refused")

	wrapped := Wrap(inner, CodeStorageError, "存储写入失败")

	require.NotNil(t, wrapped)
	assert.Equal(t, CodeStorageError, wrapped.Code)
	assert.ErrorIs(t, wrapped, inner)
}

// TestWrap_AppError重新编码 验证已有 AppError 会被外层 code 重新编码，原错误保留在链中
func TestWrap_AppError重新编码(t *testing.T) {
	inner := NewCatalogError("pokemon", errors.New("503 Service Unavailable"))

	wrapped := Wrap(inner, CodeBootstrapFailed, "图鉴数据引导失败")

	require.NotNil(t, wrapped)
	assert.Equal(t, CodeBootstrapFailed, wrapped.Code)

	// 内层错误仍可通过 Unwrap 链定位
	var unwrapped *AppError
	require.True(t, errors.As(wrapped.Unwrap(), &unwrapped))
	assert.Equal(t, CodeCatalogError, unwrapped.Code)
}

// TestWrap_Nil错误 验证 nil 输入直接返回 nil
func TestWrap_Nil错误(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternalError, "不应该发生"))
}
