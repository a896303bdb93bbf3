package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"pokedex-self/internal/pkg/ctxkey"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/response"
	"pokedex-self/internal/pkg/xerrors"
)

// engineResolver 按身份标识准备列表引擎（由 pokedex 引擎管理器实现）
type engineResolver interface {
	EnsureEngine(ctx context.Context, identity string) error
}

// EngineMiddleware 引擎上下文中间件 - 确保当前身份的列表引擎已完成引导
// 这个中间件应该在 AuthMiddleware 之后使用，因为需要 identity
//
// 工作流程：
// 1. 从 context 获取 identity（由 AuthMiddleware 设置）
// 2. 通过引擎管理器懒加载该身份的列表引擎（首次访问触发目录引导）
// 3. 引导失败时直接返回错误，避免 handler 面对半初始化状态
func EngineMiddleware(resolver engineResolver, respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// 1. 获取 identity（由 AuthMiddleware 设置）
			identity := ctxkey.GetString(ctx, ctxkey.Identity)
			if identity == "" {
				logger.WarnContext(ctx, "EngineMiddleware: 未找到 identity，请确保 AuthMiddleware 在之前执行")
				err := xerrors.New(
					xerrors.CodeAuthenticationFailed,
					"未找到用户信息",
				).WithService("middleware", "engine")
				return respWriter.WriteError(ctx, c.Response().Writer, err)
			}

			// 2. 准备该身份的列表引擎
			if err := resolver.EnsureEngine(ctx, identity); err != nil {
				logger.ErrorContext(ctx, "列表引擎引导失败",
					log.String("identity", identity),
					log.Any("error", err),
				)
				return respWriter.WriteError(ctx, c.Response().Writer, err)
			}

			logger.DebugContext(ctx,
				"引擎上下文就绪",
				log.String("identity", identity),
			)

			return next(c)
		}
	}
}
