// Package metrics 扫描相关的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/scanner"
)

// DefaultNamespace 默认指标命名空间
const DefaultNamespace = "jarscan"

// Metrics 扫描指标收集器，实现 scanner.Observer
type Metrics struct {
	classesScanned *prometheus.CounterVec
	findingsTotal  *prometheus.CounterVec
	cacheEntries   prometheus.Gauge
	dangerScore    prometheus.Histogram
	jarsScanned    *prometheus.CounterVec
	jarDuration    prometheus.Histogram
}

// New 在 reg 上注册指标
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		classesScanned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classes_scanned_total",
				Help:      "Total number of class files scanned",
			},
			[]string{"outcome"}, // parsed, cached, non_standard, suppressed, error
		),
		findingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Total number of findings by type",
			},
			[]string{"type"},
		),
		cacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_entries",
				Help:      "Number of entries in the finding cache",
			},
		),
		dangerScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "danger_score",
				Help:      "Danger score distribution of scanned class files",
				Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			},
		),
		jarsScanned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jars_scanned_total",
				Help:      "Total number of JAR scans",
			},
			[]string{"status"}, // completed, failed
		),
		jarDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "jar_scan_duration_seconds",
				Help:      "JAR scan duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}
}

// ObserveClass 记录单个类文件的扫描结果
func (m *Metrics) ObserveClass(outcome scanner.Outcome, findings domain.Findings, score int) {
	m.classesScanned.WithLabelValues(string(outcome)).Inc()
	if outcome == scanner.OutcomeError {
		return
	}

	m.dangerScore.Observe(float64(score))
	for _, f := range findings {
		m.findingsTotal.WithLabelValues(f.Type.String()).Inc()
	}
}

// SetCacheEntries 更新缓存条目数
func (m *Metrics) SetCacheEntries(n int) {
	m.cacheEntries.Set(float64(n))
}

// ObserveJar 记录一次 JAR 扫描
func (m *Metrics) ObserveJar(status string, duration time.Duration) {
	m.jarsScanned.WithLabelValues(status).Inc()
	m.jarDuration.Observe(duration.Seconds())
}
