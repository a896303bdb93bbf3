// File: internal/middleware/middleware.go
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pokedex-self/internal/pkg/ctxkey"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/response"
	"pokedex-self/internal/pkg/trace"

	"github.com/google/uuid"
)

// Config 中间件配置
type Config struct {
	Logger     log.Logger
	RespWriter response.Writer
	Skipper    middleware.Skipper
}

// TraceMiddleware 链路追踪中间件
func TraceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// 生成或获取 trace ID
			traceID := trace.ExtractFromHeader(c.Request().Header)
			requestID := uuid.New().String()

			// 设置到 Echo context
			c.Set("trace_id", traceID)
			c.Set("request_id", requestID)

			// 设置响应头
			c.Response().Header().Set("X-Trace-ID", traceID)
			c.Response().Header().Set("X-Request-ID", requestID)

			// 更新 request context
			ctx := c.Request().Context()
			ctx = trace.WithTraceID(ctx, traceID)
			ctx = ctxkey.WithValue(ctx, ctxkey.RequestID, requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
