// File: internal/pkg/metrics/middleware.go
package metrics

import (
	"net/http"
	"time"

	"pokedex-self/internal/pkg/ctxkey"
	"pokedex-self/internal/pkg/log"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// pathLimitTracker 全局路径基数追踪器，防止路由标签无限增长
var pathLimitTracker = NewPathLimitTracker(200)

// Middleware Echo 中间件 - 记录 HTTP 请求指标（总数、延迟、进行中数量）
// 使用路由模板（如 /api/pokedex/pokemon/:id）而非具体路径做标签，
// 并通过 pathLimitTracker 限制标签基数
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// 健康检查端点不计入指标，避免噪音
			if IsHealthCheckEndpoint(req.URL.Path) {
				return next(c)
			}

			// 将 HTTP 方法存储到 context
			ctx := ctxkey.WithValue(req.Context(), ctxkey.HTTPMethod, req.Method)
			c.SetRequest(req.WithContext(ctx))

			// 路由模板在路由匹配后即可用，先写响应头便于排障
			route := NormalizeRoute(c.Path())
			c.Response().Header().Set("X-Route-Pattern", route)

			service := GetServiceName()
			DefaultHTTPMetrics.IncInProgress(service)
			start := time.Now()

			err := next(c)

			statusCode := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					statusCode = httpErr.Code
				}
			}

			DefaultHTTPMetrics.RecordRequest(service, pathLimitTracker.TrackPath(route), req.Method, statusCode, time.Since(start))
			DefaultHTTPMetrics.DecInProgress(service)

			if warning := pathLimitTracker.LogWarning(); warning != "" {
				log.Warn(warning)
			}

			return err
		}
	}
}

// Handler 返回 Prometheus metrics HTTP 处理器
// 用于暴露 /metrics 端点
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoHandler Echo 框架的 Prometheus metrics 处理器
func EchoHandler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	}
}
