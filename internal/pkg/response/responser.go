// File: internal/pkg/response/responser.go
package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pokedex-self/internal/pkg/ctxkey"
	"pokedex-self/internal/pkg/i18n"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/xerrors"
)

// EmptyData 在 API 成功响应中表示“无数据”。
// 使用一个具体的空结构体，比直接返回 nil 或 interface{} 更类型安全、意图更明确。
type EmptyData struct{}

// APIResponse 通用的 API 响应信封
type APIResponse[T any] struct {
	Code      int    `json:"code"`               // 业务响应码
	Message   string `json:"message"`            // 响应消息
	Data      *T     `json:"data,omitempty"`     // 响应数据，成功时返回
	Error     string `json:"error,omitempty"`    // 错误详情，仅开发环境返回
	Timestamp int64  `json:"timestamp"`          // Unix 时间戳
	TraceID   string `json:"trace_id,omitempty"` // 请求追踪 ID
}

// Writer 统一的响应写入接口
type Writer interface {
	// WriteSuccess 写入成功响应 (HTTP 200 + CodeSuccess 信封)
	WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error
	// WriteError 写入错误响应，HTTP 状态码由业务错误码映射得到
	WriteError(ctx context.Context, w http.ResponseWriter, err error) error
	// WriteJSON 直接写入 JSON 响应 (跳过 APIResponse 包装)
	WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error
}

// responseHandler Writer 的默认实现
type responseHandler struct {
	logger      log.Logger
	environment string
}

// NewResponseHandler 创建响应处理器
// environment 为 "development" 时错误响应携带底层错误详情
func NewResponseHandler(logger log.Logger, environment string) Writer {
	return &responseHandler{
		logger:      logger,
		environment: environment,
	}
}

// DefaultResponseHandler 创建使用全局日志器的响应处理器，主要供测试使用
func DefaultResponseHandler() Writer {
	return NewResponseHandler(log.GetLogger(), "test")
}

func (h *responseHandler) WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error {
	lang := i18n.GetLanguage(ctx)
	resp := &APIResponse[any]{
		Code:      xerrors.CodeSuccess.ToInt(),
		Message:   i18n.GetErrorMessage(xerrors.CodeSuccess, lang),
		Data:      &data,
		Timestamp: time.Now().Unix(),
		TraceID:   ctxkey.GetString(ctx, ctxkey.TraceID),
	}

	metrics.DefaultErrorMetrics.RecordHTTPResponse(http.StatusOK, ctxkey.GetString(ctx, ctxkey.HTTPMethod), metrics.GetServiceName())

	return h.write(ctx, w, http.StatusOK, resp)
}

func (h *responseHandler) WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	// 1. 非 AppError 统一按内部错误处理
	appErr, ok := err.(*xerrors.AppError)
	if !ok {
		appErr = xerrors.NewWithError(xerrors.CodeInternalError, err.Error(), err)
	}

	// 2. 按语言偏好本地化错误消息
	lang := i18n.GetLanguage(ctx)
	resp := &APIResponse[any]{
		Code:      appErr.Code.ToInt(),
		Message:   i18n.GetErrorMessage(appErr.Code, lang),
		Timestamp: time.Now().Unix(),
		TraceID:   ctxkey.GetString(ctx, ctxkey.TraceID),
	}

	// 3. 开发环境附带底层错误详情，便于调试
	if h.environment == "development" && appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}

	// 4. 记录错误日志与错误指标 (包含完整上下文)
	log.LogAppError(ctx, "请求处理失败", appErr)
	statusCode := xerrors.GetHTTPStatus(appErr.Code)
	metrics.DefaultErrorMetrics.RecordError(appErr, statusCode, ctxkey.GetString(ctx, ctxkey.HTTPMethod), metrics.GetServiceName(), 0)

	return h.write(ctx, w, statusCode, resp)
}

func (h *responseHandler) WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {
	return h.write(ctx, w, statusCode, data)
}

// write 序列化并写入响应体
func (h *responseHandler) write(ctx context.Context, w http.ResponseWriter, statusCode int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		// header 已写入，此时无法再降级为 http.Error
		h.logger.ErrorContext(ctx, "写入 JSON 响应失败", log.Any("error", err))
		return err
	}
	return nil
}
