// File: internal/pkg/metrics/resource_metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResourceMetrics 系统资源监控指标收集器
type ResourceMetrics struct {
	// Redis 操作指标
	RedisOperations        *prometheus.CounterVec   // Redis 操作总数（按操作类型和结果）
	RedisOperationDuration *prometheus.HistogramVec // Redis 操作延迟（按操作类型）
	RedisConnectionPool    *prometheus.GaugeVec     // Redis 连接池状态
	RedisErrors            *prometheus.CounterVec   // Redis 错误数（按错误类型）

	// 目录数据源 (PokeAPI) 请求指标
	CatalogRequests        *prometheus.CounterVec   // 目录请求总数（按资源和结果）
	CatalogRequestDuration *prometheus.HistogramVec // 目录请求延迟（按资源）
}

var (
	// DefaultResourceMetrics 默认的资源指标实例
	DefaultResourceMetrics *ResourceMetrics
)

// RedisOperationBuckets 是针对 Redis 操作延迟优化的 buckets
// Redis 操作通常非常快，使用更细粒度的 buckets
// 单位：秒
var RedisOperationBuckets = []float64{
	0.001, // 1ms
	0.005, // 5ms
	0.01,  // 10ms
	0.025, // 25ms
	0.05,  // 50ms
	0.1,   // 100ms
	0.25,  // 250ms
	0.5,   // 500ms
	1,     // 1s
	2.5,   // 2.5s
}

// CatalogRequestBuckets 是针对外部 HTTP 请求延迟的 buckets
// 单位：秒
var CatalogRequestBuckets = []float64{
	0.05, // 50ms
	0.1,  // 100ms
	0.25, // 250ms
	0.5,  // 500ms
	1,    // 1s
	2.5,  // 2.5s
	5,    // 5s
	10,   // 10s
}

// init 初始化默认指标
func init() {
	DefaultResourceMetrics = NewResourceMetrics("pokedex")
}

// NewResourceMetrics 创建新的资源指标收集器
func NewResourceMetrics(namespace string) *ResourceMetrics {
	return NewResourceMetricsWithRegistry(namespace, GetRegisterer())
}

// NewResourceMetricsWithRegistry 创建新的资源指标收集器（使用自定义注册表）
func NewResourceMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *ResourceMetrics {
	factory := promauto.With(registerer)

	return &ResourceMetrics{
		// Redis 操作指标
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "redis",
				Name:      "operations_total",
				Help:      "Total number of Redis operations by type and result (success/error)",
			},
			[]string{"operation", "result", "service"},
		),

		RedisOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "redis",
				Name:      "operation_duration_seconds",
				Help:      "Redis operation duration in seconds by operation type",
				Buckets:   RedisOperationBuckets,
			},
			[]string{"operation", "service"},
		),

		RedisConnectionPool: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "redis",
				Name:      "connection_pool",
				Help:      "Redis connection pool status (total/idle/stale/active)",
			},
			[]string{"state", "service"},
		),

		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "redis",
				Name:      "errors_total",
				Help:      "Total number of Redis errors by type",
			},
			[]string{"error_type", "service"},
		),

		// 目录数据源请求指标
		CatalogRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "requests_total",
				Help:      "Total number of catalog source requests by resource and result (success/error)",
			},
			[]string{"resource", "result", "service"},
		),

		CatalogRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "request_duration_seconds",
				Help:      "Catalog source request duration in seconds by resource",
				Buckets:   CatalogRequestBuckets,
			},
			[]string{"resource", "service"},
		),
	}
}

// RecordRedisOperation 记录 Redis 操作指标
//
// 参数:
//   - operation: 操作类型（如 "GET", "SET", "DEL" 等）
//   - success: 操作是否成功
//   - duration: 操作耗时
//   - service: 服务名称
func (m *ResourceMetrics) RecordRedisOperation(operation string, success bool, duration time.Duration, service string) {
	service = normalizeServiceName(service)
	result := "success"
	if !success {
		result = "error"
	}

	m.RedisOperations.WithLabelValues(operation, result, service).Inc()
	m.RedisOperationDuration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

// RecordRedisError 记录 Redis 错误
//
// 参数:
//   - errorType: 错误类型（如 "timeout", "connection_error", "nil" 等）
//   - service: 服务名称
func (m *ResourceMetrics) RecordRedisError(errorType, service string) {
	service = normalizeServiceName(service)
	m.RedisErrors.WithLabelValues(errorType, service).Inc()
}

// RecordRedisPoolStats 记录 Redis 连接池统计信息
//
// 参数:
//   - totalConns: 总连接数
//   - idleConns: 空闲连接数
//   - staleConns: 过期连接数
//   - service: 服务名称
func (m *ResourceMetrics) RecordRedisPoolStats(totalConns, idleConns, staleConns int, service string) {
	service = normalizeServiceName(service)
	m.RedisConnectionPool.WithLabelValues("total", service).Set(float64(totalConns))
	m.RedisConnectionPool.WithLabelValues("idle", service).Set(float64(idleConns))
	m.RedisConnectionPool.WithLabelValues("stale", service).Set(float64(staleConns))

	// 计算活跃连接数
	activeConns := totalConns - idleConns
	m.RedisConnectionPool.WithLabelValues("active", service).Set(float64(activeConns))
}

// RecordCatalogRequest 记录目录数据源请求指标
//
// 参数:
//   - resource: 资源名称（如 "pokemon", "type"）
//   - success: 请求是否成功
//   - duration: 请求耗时
//   - service: 服务名称
func (m *ResourceMetrics) RecordCatalogRequest(resource string, success bool, duration time.Duration, service string) {
	service = normalizeServiceName(service)
	result := "success"
	if !success {
		result = "error"
	}

	m.CatalogRequests.WithLabelValues(resource, result, service).Inc()
	m.CatalogRequestDuration.WithLabelValues(resource, service).Observe(duration.Seconds())
}
