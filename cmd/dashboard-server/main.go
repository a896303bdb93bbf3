// File: cmd/dashboard-server/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "pokedex-self/docs" // Swagger 生成的文档
	"pokedex-self/internal/middleware"
	authclient "pokedex-self/internal/modules/auth/client"
	authhandler "pokedex-self/internal/modules/auth/handler"
	authservice "pokedex-self/internal/modules/auth/service"
	pokeclient "pokedex-self/internal/modules/pokedex/client"
	pokehandler "pokedex-self/internal/modules/pokedex/handler"
	"pokedex-self/internal/modules/pokedex/service"
	"pokedex-self/internal/modules/pokedex/tasks"
	"pokedex-self/internal/pkg/config"
	"pokedex-self/internal/pkg/i18n"
	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	pkgnats "pokedex-self/internal/pkg/nats"
	"pokedex-self/internal/pkg/notify"
	"pokedex-self/internal/pkg/redis"
	"pokedex-self/internal/pkg/response"
	"pokedex-self/internal/pkg/sessioncache"
	"pokedex-self/internal/pkg/validator"
)

// @title 宝可梦图鉴服务 API
// @version 1.0
// @description 图鉴列表引擎: 认证、目录引导、编辑与删除宽限期管理
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 初始化配置
	cfg := loadConfig()

	// 初始化日志与指标服务名
	log.Init(cfg.LogLevel, cfg.Environment)
	logger := log.GetLogger()
	metrics.SetServiceName("dashboard")

	logger.Info("图鉴服务启动中", log.Any("config", config.SanitizeConfigForLog(map[string]any{
		"environment":      cfg.Environment,
		"log_level":        cfg.LogLevel.String(),
		"port":             cfg.Port,
		"redis_addr":       cfg.RedisAddr,
		"redis_password":   cfg.RedisPassword,
		"nats_url":         cfg.NatsURL,
		"pokeapi_base_url": cfg.PokeAPIBaseURL,
		"identity_api_url": cfg.IdentityAPIURL,
	})))

	// 初始化 KV 存储: Redis 优先，连接失败时退化为内存存储
	store := buildStore(cfg, logger)

	// 初始化 NATS 通知通道（可选依赖）
	natsHealth := connectNats(cfg, logger)

	// 初始化会话缓存
	sessions := sessioncache.New(cfg.SessionTTL, metrics.DefaultLoginMetrics, logger)

	// 初始化响应处理器
	respWriter := response.NewResponseHandler(logger, cfg.Environment)

	// 初始化目录客户端与引擎管理器
	catalog := pokeclient.NewPokeAPIClient(cfg.PokeAPIBaseURL, logger)
	manager := service.NewEngineManager(catalog, store, cfg.GraceWindow, logger)
	manager.SubscribeAuthEvents()

	// 初始化认证服务
	identity := authclient.NewHTTPIdentityClient(cfg.IdentityAPIURL, logger)
	authSvc := authservice.NewAuthService(identity, store, sessions, logger)

	// 初始化处理器
	authHandler := authhandler.NewAuthHandler(authSvc, respWriter)
	pokedexHandler := pokehandler.NewPokedexHandler(manager, catalog, respWriter)

	// 启动空闲引擎回收任务
	evictionTask := tasks.NewEngineEvictionTask(manager, logger)
	evictionTask.Start()
	defer evictionTask.Stop()

	// 初始化 Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	// 注册中间件
	registerMiddleware(e, respWriter, logger, cfg)

	// 注册路由
	registerRoutes(e, sessions, manager, natsHealth, respWriter, logger, authHandler, pokedexHandler)

	// 启动服务器
	startServer(e, logger, cfg.Port)
}

// Config 应用配置
type Config struct {
	Environment     string
	LogLevel        slog.Level
	Port            string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	NatsURL         string
	PokeAPIBaseURL  string
	IdentityAPIURL  string
	SessionTTL      time.Duration
	GraceWindow     time.Duration
	EnableRateLimit bool
	TrustedProxies  []string
}

// loadConfig 加载配置
func loadConfig() *Config {
	return &Config{
		Environment:     config.GetEnvOrDefault("ENV", "development"),
		LogLevel:        parseLogLevel(config.GetEnvOrDefault("LOG_LEVEL", "info")),
		Port:            config.GetEnvOrDefault("PORT", "8090"),
		RedisAddr:       config.GetRedisAddr("REDIS_ADDR", ""),
		RedisPassword:   config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		NatsURL:         config.GetEnvOrDefault("NATS_URL", "nats://localhost:4222"),
		PokeAPIBaseURL:  config.GetEnvOrDefault("POKEAPI_BASE_URL", pokeclient.DefaultBaseURL),
		IdentityAPIURL:  config.GetEnvOrDefault("IDENTITY_API_URL", authclient.DefaultBaseURL),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		GraceWindow:     getEnvDuration("DELETE_GRACE_WINDOW", service.DefaultGraceWindow),
		EnableRateLimit: config.GetEnvOrDefault("ENABLE_RATE_LIMIT", "false") == "true",
		TrustedProxies:  []string{"127.0.0.1", "::1"}, // 可以从环境变量读取
	}
}

// buildStore 构建 KV 存储，Redis 不可用时退化为进程内存储
func buildStore(cfg *Config, logger log.Logger) kvstore.Store {
	host, port := splitHostPort(cfg.RedisAddr)
	client, err := redis.NewClient(redis.Config{
		Host:     host,
		Port:     port,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, "dashboard")
	if err != nil {
		logger.Warn("Redis 不可用，使用内存存储，重启后数据丢失",
			"redis_addr", cfg.RedisAddr,
			"error", err.Error())
		return kvstore.NewMemoryStore()
	}

	logger.Info("Redis 连接成功", log.String("redis_addr", cfg.RedisAddr))
	return kvstore.NewRedisStore(client)
}

// connectNats 连接 NATS，失败时身份事件广播静默降级
// 连接成功时返回健康检查器，供就绪检查使用
func connectNats(cfg *Config, logger log.Logger) *pkgnats.HealthChecker {
	nc, err := nats.Connect(cfg.NatsURL,
		nats.MaxReconnects(10),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		logger.Warn("NATS 不可用，身份事件广播已禁用",
			"nats_url", cfg.NatsURL,
			"error", err.Error())
		return nil
	}

	logger.Info("NATS 连接成功", log.String("nats_url", cfg.NatsURL))
	notify.SetNatsConn(nc)

	checker := pkgnats.NewHealthChecker(nc, 10*time.Second)
	go checker.Start(context.Background())
	return checker
}

// registerMiddleware 注册中间件
func registerMiddleware(e *echo.Echo, respWriter response.Writer, logger log.Logger, cfg *Config) {
	// 设置信任的代理
	e.IPExtractor = echo.ExtractIPFromXFFHeader()

	// 恢复中间件（最先注册）
	e.Use(middleware.RecoveryMiddleware(respWriter, logger))

	// 安全中间件
	e.Use(middleware.SecurityMiddleware())

	// CORS 中间件
	e.Use(middleware.CORSMiddleware())

	// 限流中间件（可选）
	if cfg.EnableRateLimit {
		e.Use(middleware.RateLimitMiddleware())
	}

	// 链路追踪中间件
	e.Use(middleware.TraceMiddleware())

	// 多语言中间件
	e.Use(i18n.Middleware())

	// HTTP 指标中间件
	e.Use(metrics.Middleware())

	// 日志中间件
	e.Use(middleware.LoggingMiddleware(logger))

	// 错误处理中间件（最后注册）
	e.Use(middleware.ErrorMiddleware(respWriter, logger))
}

// registerRoutes 注册路由
func registerRoutes(
	e *echo.Echo,
	sessions *sessioncache.Cache,
	manager *service.EngineManager,
	natsHealth *pkgnats.HealthChecker,
	respWriter response.Writer,
	logger log.Logger,
	authHandler *authhandler.AuthHandler,
	pokedexHandler *pokehandler.PokedexHandler,
) {
	// 健康检查
	e.GET("/health", healthCheck)
	e.GET("/ready", readinessCheck(natsHealth))

	// Prometheus 指标
	e.GET("/metrics", metrics.EchoHandler())

	// Swagger 文档
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API 路由
	api := e.Group("/api/v1")

	// 认证路由
	authMW := middleware.AuthMiddleware(sessions, respWriter, logger)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/logout", authHandler.Logout, authMW)
		auth.GET("/profile", authHandler.Profile, authMW)
	}

	// 图鉴路由: 认证后按身份懒加载引擎
	engineMW := middleware.EngineMiddleware(manager, respWriter, logger)
	pokedex := api.Group("/pokedex", authMW, engineMW)
	{
		pokedex.GET("/pokemon", pokedexHandler.ListPokemon)
		pokedex.GET("/pokemon/:id", pokedexHandler.GetPokemon)
		pokedex.PUT("/pokemon/:id", pokedexHandler.UpdatePokemon)
		pokedex.DELETE("/pokemon/:id", pokedexHandler.DeletePokemon)
		pokedex.POST("/pokemon/:id/restore", pokedexHandler.RestorePokemon)
		pokedex.POST("/reset", pokedexHandler.ResetPokedex)
		pokedex.GET("/types", pokedexHandler.ListTypes)
	}

	// 404 处理
	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "API 端点不存在")
	})
}

// healthCheck 健康检查
func healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "pokedex-dashboard",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
	})
}

// readinessCheck 就绪检查，NATS 断连时标记为降级但不拒绝流量
func readinessCheck(natsHealth *pkgnats.HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		natsStatus := "disabled"
		if natsHealth != nil {
			natsStatus = "ok"
			if !natsHealth.IsHealthy() {
				natsStatus = "degraded"
			}
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ready",
			"service": "pokedex-dashboard",
			"checks": map[string]string{
				"catalog": "ok",
				"store":   "ok",
				"nats":    natsStatus,
			},
			"timestamp": time.Now().Unix(),
		})
	}
}

// startServer 启动服务器
func startServer(e *echo.Echo, logger log.Logger, port string) {
	logger.Info("准备启动服务器",
		log.String("port", port),
		log.String("address", "0.0.0.0:"+port),
	)

	// 异步启动服务器
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Error("服务器启动失败", err)
			os.Exit(1)
		}
	}()

	logger.Info("服务器已启动",
		log.String("port", port),
		log.String("health_check", "http://localhost:"+port+"/health"),
		log.String("swagger_ui", "http://localhost:"+port+"/swagger/index.html"),
		log.String("api_base", "http://localhost:"+port+"/api/v1"),
	)

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	logger.Info("收到关闭信号，正在优雅关闭服务器...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭出错", err)
	} else {
		logger.Info("服务器已成功关闭")
	}
}

// 辅助函数

// getEnvInt 获取整型环境变量
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration 获取时长环境变量
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseLogLevel 解析日志级别
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitHostPort 拆分 host:port 形式的地址
func splitHostPort(addr string) (string, int) {
	host := addr
	port := 6379
	if i := lastColon(addr); i >= 0 {
		host = addr[:i]
		if p, err := strconv.Atoi(addr[i+1:]); err == nil {
			port = p
		}
	}
	if host == "" {
		host = "localhost"
	}
	return host, port
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}
