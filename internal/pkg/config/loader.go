package config

import (
	"os"
	"strings"
)

// GetEnvOrDefault 获取环境变量，如果不存在则返回默认值
// 这是配置加载的核心函数：环境变量 > 默认值
func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// MustGetEnv 获取环境变量，如果不存在则 panic
// 用于必须配置的敏感信息（如 Redis 密码）
func MustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic("环境变量 " + key + " 未设置，但它是必需的")
	}
	return value
}

// GetRedisAddr 构建 Redis 连接地址
// 优先级：环境变量中的完整地址 > 配置文件中的地址 > 默认本地地址
func GetRedisAddr(envKey, configValue string) string {
	// 1. 优先从环境变量读取完整地址
	if addr := os.Getenv(envKey); addr != "" {
		return addr
	}

	// 2. 如果配置文件中有值，使用配置文件的值
	if configValue != "" {
		return configValue
	}

	// 3. 如果都没有，返回默认本地地址
	return "localhost:6379"
}

// SanitizeConfigForLog 清理配置中的敏感信息，用于日志输出
// 密码、密钥等敏感项不允许出现在日志里
func SanitizeConfigForLog(config map[string]any) map[string]any {
	sanitized := make(map[string]any, len(config))
	for k, v := range config {
		if isSensitiveKey(k) {
			sanitized[k] = "***REDACTED***"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}

// isSensitiveKey 判断是否是敏感配置项
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	sensitiveKeywords := []string{
		"password", "secret", "token", "key", "auth",
		"credential", "private", "api_key",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
