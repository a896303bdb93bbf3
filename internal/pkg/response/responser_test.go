// File: internal/pkg/response/responser_test.go
package response

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-self/internal/pkg/ctxkey"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/xerrors"
)

func withServiceName(t *testing.T, name string) {
	original := metrics.GetServiceName()
	metrics.SetServiceName(name)
	t.Cleanup(func() {
		metrics.SetServiceName(original)
	})
}

// TestWriteSuccess_响应信封 验证成功响应的信封格式
func TestWriteSuccess_响应信封(t *testing.T) {
	withServiceName(t, "dashboard")
	h := NewResponseHandler(log.GetLogger(), "test")
	rec := httptest.NewRecorder()

	require.NoError(t, h.WriteSuccess(context.Background(), rec, map[string]string{"hello": "world"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse[map[string]string]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, xerrors.CodeSuccess.ToInt(), resp.Code)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "world", (*resp.Data)["hello"])
}

// TestWriteError_状态码映射与错误指标 验证错误响应的状态码映射并记录错误指标
func TestWriteError_状态码映射与错误指标(t *testing.T) {
	withServiceName(t, "dashboard")
	h := NewResponseHandler(log.GetLogger(), "test")

	ctx := ctxkey.WithValue(context.Background(), ctxkey.HTTPMethod, "GET")
	appErr := xerrors.NewPokemonNotFoundError(999)

	code := "800001"
	before := testutil.ToFloat64(metrics.DefaultErrorMetrics.ErrorsByCode.WithLabelValues(
		"dashboard", "GET", code, appErr.Category, appErr.Level.String()))
	beforeResponses := testutil.ToFloat64(metrics.DefaultErrorMetrics.HTTPResponses.WithLabelValues(
		"dashboard", "404", "GET"))

	rec := httptest.NewRecorder()
	require.NoError(t, h.WriteError(ctx, rec, appErr))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp APIResponse[EmptyData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, appErr.Code.ToInt(), resp.Code)

	after := testutil.ToFloat64(metrics.DefaultErrorMetrics.ErrorsByCode.WithLabelValues(
		"dashboard", "GET", code, appErr.Category, appErr.Level.String()))
	afterResponses := testutil.ToFloat64(metrics.DefaultErrorMetrics.HTTPResponses.WithLabelValues(
		"dashboard", "404", "GET"))
	assert.Equal(t, before+1, after, "错误码计数应该增加")
	assert.Equal(t, beforeResponses+1, afterResponses, "HTTP 响应码计数应该增加")
}

// TestWriteError_非AppError兜底 验证普通 error 按内部错误处理
func TestWriteError_非AppError兜底(t *testing.T) {
	withServiceName(t, "dashboard")
	h := NewResponseHandler(log.GetLogger(), "test")

	rec := httptest.NewRecorder()
	require.NoError(t, h.WriteError(context.Background(), rec, assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp APIResponse[EmptyData]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, xerrors.CodeInternalError.ToInt(), resp.Code)
}
