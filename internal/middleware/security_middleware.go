package middleware

import (
	"github.com/labstack/echo/v4"

	"pokedex-self/internal/pkg/security"
)

// CORSMiddleware CORS 中间件
func CORSMiddleware() echo.MiddlewareFunc {
	return security.CORSMiddleware()
}

// SecurityMiddleware 安全中间件
func SecurityMiddleware() echo.MiddlewareFunc {
	return security.SecurityHeadersMiddleware()
}
