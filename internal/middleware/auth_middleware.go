package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"pokedex-self/internal/pkg/ctxkey"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/response"
	"pokedex-self/internal/pkg/sessioncache"
	"pokedex-self/internal/pkg/xerrors"
)

// CurrentUser 当前请求的用户信息
type CurrentUser struct {
	UserID       string // 用户 ID
	Username     string // 用户名
	Email        string // 邮箱
	Identity     string // 图鉴持久化身份标识
	SessionToken string // 会话令牌
}

// AuthMiddleware 认证中间件 - 从 Authorization Bearer 令牌解析会话
// 会话由登录时写入 sessioncache，未命中即视为未认证
func AuthMiddleware(sessions *sessioncache.Cache, respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// 提取 Bearer 令牌
			token := extractBearerToken(c)
			if token == "" {
				logger.WarnContext(ctx, "认证失败: 缺少 Authorization 头")
				err := xerrors.New(
					xerrors.CodeAuthenticationFailed,
					"未授权访问: 缺少会话令牌",
				).WithService("middleware", "auth")

				return respWriter.WriteError(ctx, c.Response().Writer, err)
			}

			// 查询会话缓存
			session, ok := sessions.Get(ctx, "dashboard", token)
			if !ok {
				logger.WarnContext(ctx, "认证失败: 会话不存在或已过期")
				err := xerrors.NewSessionExpiredError().
					WithService("middleware", "auth")

				return respWriter.WriteError(ctx, c.Response().Writer, err)
			}

			// 构建当前用户对象
			currentUser := &CurrentUser{
				UserID:       session.UserID,
				Username:     session.Username,
				Email:        session.Email,
				Identity:     session.Identity,
				SessionToken: token,
			}

			// 将用户信息注入到 Context（使用统一的 ctxkey）
			ctx = ctxkey.WithValue(ctx, ctxkey.UserID, session.UserID)
			ctx = ctxkey.WithValue(ctx, ctxkey.SessionID, token)
			ctx = ctxkey.WithValue(ctx, ctxkey.Identity, session.Identity)
			c.SetRequest(c.Request().WithContext(ctx))

			// 也可以设置到 Echo Context，便于直接访问
			c.Set(string(ctxkey.CurrentUser), currentUser)
			c.Set(string(ctxkey.UserID), session.UserID)
			c.Set(string(ctxkey.Identity), session.Identity)

			logger.DebugContext(ctx,
				"用户认证成功",
				log.String("user_id", session.UserID),
				log.String("identity", session.Identity),
			)

			return next(c)
		}
	}
}

// extractBearerToken 从 Authorization 头提取 Bearer 令牌
func extractBearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		// 兼容显式传递令牌的客户端
		return c.Request().Header.Get("X-Session-Token")
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// GetCurrentUser 从 Echo Context 中获取当前用户
func GetCurrentUser(c echo.Context) (*CurrentUser, error) {
	user := c.Get(string(ctxkey.CurrentUser))
	if user == nil {
		return nil, xerrors.New(
			xerrors.CodeAuthenticationFailed,
			"未找到用户信息",
		)
	}

	currentUser, ok := user.(*CurrentUser)
	if !ok {
		return nil, xerrors.New(
			xerrors.CodeInternalError,
			"用户信息类型错误",
		)
	}

	return currentUser, nil
}

// GetCurrentUserID 从 Echo Context 中获取当前用户 ID（快捷方法）
func GetCurrentUserID(c echo.Context) (string, error) {
	user, err := GetCurrentUser(c)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}

// GetCurrentIdentity 从 Echo Context 中获取当前身份标识（快捷方法）
func GetCurrentIdentity(c echo.Context) (string, error) {
	user, err := GetCurrentUser(c)
	if err != nil {
		return "", err
	}
	return user.Identity, nil
}

// MustGetCurrentUser 获取当前用户，如果不存在则 panic（用于明确需要认证的地方）
func MustGetCurrentUser(c echo.Context) *CurrentUser {
	user, err := GetCurrentUser(c)
	if err != nil {
		panic(err)
	}
	return user
}
