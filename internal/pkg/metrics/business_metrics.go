// File: internal/pkg/metrics/business_metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 图鉴业务指标收集器
type BusinessMetrics struct {
	// 活跃列表引擎数（Gauge 类型，可增可减）
	EnginesActive *prometheus.GaugeVec

	// 目录引导次数（按结果分组：success/failure）
	BootstrapsTotal *prometheus.CounterVec

	// 目录引导耗时直方图
	BootstrapDuration *prometheus.HistogramVec

	// 已清除（purge）的宝可梦条目数
	PurgesTotal *prometheus.CounterVec

	// 删除倒计时定时器数量
	DeleteTimersActive *prometheus.GaugeVec

	// 本地修改覆盖层写入次数（按结果分组）
	OverlayWritesTotal *prometheus.CounterVec
}

var (
	// DefaultBusinessMetrics 默认的业务指标实例
	DefaultBusinessMetrics *BusinessMetrics
)

// BootstrapBuckets 是针对目录引导耗时优化的 buckets
// 引导需要并发拉取 151 个条目，预期时长: 0.5-10秒为主
// 单位：秒
var BootstrapBuckets = []float64{
	0.25, // 250ms
	0.5,  // 0.5s
	1,    // 1s
	2,    // 2s
	5,    // 5s
	10,   // 10s
	30,   // 30s
}

// init 初始化默认指标
func init() {
	DefaultBusinessMetrics = NewBusinessMetrics("pokedex")
}

// NewBusinessMetrics 创建新的业务指标收集器
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWithRegistry(namespace, GetRegisterer())
}

// NewBusinessMetricsWithRegistry 创建新的业务指标收集器（使用自定义注册表）
func NewBusinessMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(registerer)

	return &BusinessMetrics{
		EnginesActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "engines_active",
				Help:      "Current number of active list engines",
			},
			[]string{"service"},
		),

		BootstrapsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "bootstraps_total",
				Help:      "Total number of catalog bootstraps by outcome (success/failure)",
			},
			[]string{"outcome", "service"},
		),

		BootstrapDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "bootstrap_duration_seconds",
				Help:      "Catalog bootstrap duration in seconds",
				Buckets:   BootstrapBuckets,
			},
			[]string{"service"},
		),

		PurgesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "purges_total",
				Help:      "Total number of purged pokedex entries",
			},
			[]string{"service"},
		),

		DeleteTimersActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "delete_timers_active",
				Help:      "Current number of pending delete countdown timers",
			},
			[]string{"service"},
		),

		OverlayWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "overlay_writes_total",
				Help:      "Total number of modification overlay writes by outcome",
			},
			[]string{"outcome", "service"},
		),
	}
}

// RecordBootstrap 记录一次目录引导
//
// 参数:
//   - outcome: 引导结果 ("success", "failure")
//   - duration: 引导耗时
//   - service: 服务名称
func (m *BusinessMetrics) RecordBootstrap(outcome string, duration time.Duration, service string) {
	service = normalizeServiceName(service)
	m.BootstrapsTotal.WithLabelValues(outcome, service).Inc()
	m.BootstrapDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordPurge 记录条目清除
func (m *BusinessMetrics) RecordPurge(service string) {
	service = normalizeServiceName(service)
	m.PurgesTotal.WithLabelValues(service).Inc()
}

// RecordOverlayWrite 记录覆盖层写入
//
// 参数:
//   - outcome: 写入结果 ("success", "failure")
//   - service: 服务名称
func (m *BusinessMetrics) RecordOverlayWrite(outcome, service string) {
	service = normalizeServiceName(service)
	m.OverlayWritesTotal.WithLabelValues(outcome, service).Inc()
}

// SetEnginesActive 设置当前活跃引擎总数
func (m *BusinessMetrics) SetEnginesActive(count int, service string) {
	service = normalizeServiceName(service)
	m.EnginesActive.WithLabelValues(service).Set(float64(count))
}

// IncEngines 增加活跃引擎数
func (m *BusinessMetrics) IncEngines(service string) {
	service = normalizeServiceName(service)
	m.EnginesActive.WithLabelValues(service).Inc()
}

// DecEngines 减少活跃引擎数
func (m *BusinessMetrics) DecEngines(service string) {
	service = normalizeServiceName(service)
	m.EnginesActive.WithLabelValues(service).Dec()
}

// IncDeleteTimers 增加删除倒计时定时器数
func (m *BusinessMetrics) IncDeleteTimers(service string) {
	service = normalizeServiceName(service)
	m.DeleteTimersActive.WithLabelValues(service).Inc()
}

// DecDeleteTimers 减少删除倒计时定时器数
func (m *BusinessMetrics) DecDeleteTimers(service string) {
	service = normalizeServiceName(service)
	m.DeleteTimersActive.WithLabelValues(service).Dec()
}
