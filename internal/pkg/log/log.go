// File: internal/pkg/log/log.go
package log

import (
	"context"
	"log/slog"
	"os"

	"pokedex-self/internal/pkg/xerrors"
)

// Logger 接口定义（在消费端定义）
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, err error, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// StructuredLogger slog的包装器
type StructuredLogger struct {
	logger *slog.Logger
}

// 全局logger实例
var globalLogger Logger

// Init 初始化日志器
func Init(level slog.Level, environment string) {
	var handler slog.Handler

	// 根据环境配置不同的handler
	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: true, // 开发环境显示源码位置
		})
	}

	logger := slog.New(handler)
	globalLogger = &StructuredLogger{logger: logger}

	// 设置slog的默认logger
	slog.SetDefault(logger)
}

// GetLogger 获取全局logger
func GetLogger() Logger {
	if globalLogger == nil {
		// 如果没有初始化，使用默认配置
		Init(slog.LevelInfo, "development")
	}
	return globalLogger
}

// NewLogger 创建新的logger实例
func NewLogger(handler slog.Handler) Logger {
	return &StructuredLogger{
		logger: slog.New(handler),
	}
}

// StructuredLogger 方法实现

func (l *StructuredLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *StructuredLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *StructuredLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *StructuredLogger) Error(msg string, err error, args ...any) {
	args = append(args, slog.Any("error", err))
	l.logger.Error(msg, args...)
}

func (l *StructuredLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *StructuredLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *StructuredLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *StructuredLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *StructuredLogger) With(args ...any) Logger {
	return &StructuredLogger{
		logger: l.logger.With(args...),
	}
}

func (l *StructuredLogger) WithGroup(name string) Logger {
	return &StructuredLogger{
		logger: l.logger.WithGroup(name),
	}
}

// 便捷函数，使用全局logger

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, err error, args ...any) {
	GetLogger().Error(msg, err, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	GetLogger().DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	GetLogger().InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	GetLogger().WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	GetLogger().ErrorContext(ctx, msg, args...)
}

// 专门的错误记录函数，与xerrors集成

// LogAppError 记录AppError，利用其LogValue方法
func LogAppError(ctx context.Context, msg string, appErr *xerrors.AppError) {
	logger := GetLogger()

	// 使用AppError的LogValue方法获取结构化数据
	switch appErr.Level {
	case xerrors.LevelCritical:
		logger.ErrorContext(ctx, msg, slog.Any("app_error", appErr))
	case xerrors.LevelError:
		logger.ErrorContext(ctx, msg, slog.Any("app_error", appErr))
	case xerrors.LevelWarn:
		logger.WarnContext(ctx, msg, slog.Any("app_error", appErr))
	default:
		logger.InfoContext(ctx, msg, slog.Any("app_error", appErr))
	}
}

// LogHTTPRequest 记录HTTP请求日志
func LogHTTPRequest(ctx context.Context, method, path string, statusCode int, duration int64, clientIP string) {
	args := []any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status_code", statusCode),
		slog.Int64("duration_ms", duration),
		slog.String("client_ip", clientIP),
	}

	// 根据状态码决定日志级别
	if statusCode >= 500 {
		GetLogger().ErrorContext(ctx, "HTTP request completed with server error", args...)
	} else if statusCode >= 400 {
		GetLogger().WarnContext(ctx, "HTTP request completed with client error", args...)
	} else {
		GetLogger().InfoContext(ctx, "HTTP request completed", args...)
	}
}

// LogStoreOperation 记录键值存储操作日志
func LogStoreOperation(ctx context.Context, operation, key string, duration int64, err error) {
	args := []any{
		slog.String("store_operation", operation),
		slog.String("key", key),
		slog.Int64("duration_ms", duration),
	}

	if err != nil {
		args = append(args, slog.Any("error", err))
		GetLogger().WarnContext(ctx, "store operation failed", args...)
	} else {
		GetLogger().DebugContext(ctx, "store operation completed", args...)
	}
}

// LogCatalogFetch 记录图鉴数据源抓取日志
func LogCatalogFetch(ctx context.Context, resource string, count int, duration int64, err error) {
	args := []any{
		slog.String("resource", resource),
		slog.Int("count", count),
		slog.Int64("duration_ms", duration),
	}

	if err != nil {
		args = append(args, slog.Any("error", err))
		GetLogger().ErrorContext(ctx, "catalog fetch failed", args...)
	} else {
		GetLogger().InfoContext(ctx, "catalog fetch completed", args...)
	}
}

// LogEngineEvent 记录列表引擎的业务事件
func LogEngineEvent(ctx context.Context, event string, identity string, metadata map[string]interface{}) {
	args := []any{
		slog.String("event", event),
		slog.String("identity", identity),
	}

	if metadata != nil {
		args = append(args, slog.Any("metadata", metadata))
	}

	GetLogger().InfoContext(ctx, "engine event occurred", args...)
}

// 结构化日志辅助函数

// Attrs 便捷的属性构造函数
func Attrs(keyvals ...interface{}) []any {
	var attrs []any
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			key := keyvals[i].(string)
			value := keyvals[i+1]
			attrs = append(attrs, slog.Any(key, value))
		}
	}
	return attrs
}

// String 字符串属性
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int 整数属性
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

// Bool 布尔属性
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Any 任意类型属性
func Any(key string, value interface{}) slog.Attr {
	return slog.Any(key, value)
}

// Duration 时长属性（毫秒）
func Duration(key string, ms int64) slog.Attr {
	return slog.Int64(key, ms)
}
