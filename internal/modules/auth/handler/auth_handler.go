package handler

import (
	"github.com/labstack/echo/v4"

	"pokedex-self/internal/middleware"
	"pokedex-self/internal/modules/auth/service"
	"pokedex-self/internal/pkg/response"
)

// AuthHandler handles auth HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	respWriter  response.Writer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, respWriter response.Writer) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		respWriter:  respWriter,
	}
}

// ==================== HTTP Request/Response Models ====================

// LoginRequest HTTP login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

// RegisterRequest HTTP register request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

// ==================== HTTP Handlers ====================

// Login handles user login
// @Summary 用户登录
// @Description 远端身份服务优先认证，服务不可达时回退本地用户
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录请求"
// @Success 200 {object} response.APIResponse[service.LoginResult] "登录成功"
// @Failure 400 {object} response.APIResponse[response.EmptyData] "请求参数错误"
// @Failure 401 {object} response.APIResponse[response.EmptyData] "凭证无效"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	// 1. 绑定和验证 HTTP 请求
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	// 2. 调用 Service
	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, result)
}

// Register handles user registration
// @Summary 用户注册
// @Description 注册新用户并直接登录，远端不可达时写入本地用户存储
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册请求"
// @Success 200 {object} response.APIResponse[service.LoginResult] "注册成功"
// @Failure 400 {object} response.APIResponse[response.EmptyData] "请求参数错误"
// @Failure 409 {object} response.APIResponse[response.EmptyData] "邮箱已被注册"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	result, err := h.authService.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, result)
}

// Logout handles user logout
// @Summary 用户登出
// @Description 注销当前会话并销毁对应的列表引擎
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse[response.EmptyData] "登出成功"
// @Failure 401 {object} response.APIResponse[response.EmptyData] "未登录"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	h.authService.Logout(c.Request().Context(), user.SessionToken)
	return response.EchoOK(c, h.respWriter, response.EmptyData{})
}

// Profile handles getting the current user profile
// @Summary 获取当前用户资料
// @Description 从会话还原当前登录用户的资料
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse[service.UserProfile] "获取成功"
// @Failure 401 {object} response.APIResponse[response.EmptyData] "会话已过期"
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	profile, err := h.authService.Profile(c.Request().Context(), user.SessionToken)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, profile)
}
