package diag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 进程内指标（私有 Registry，不暴露 HTTP）：
// - rcur_op_total{comp,stage,result}
// - rcur_error_total{comp,code}
// - rcur_op_duration_ms{comp,stage}
var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rcur_op_total",
		Help: "Operations by component, stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rcur_error_total",
		Help: "Errors by component and classification code.",
	}, []string{"comp", "code"})

	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rcur_op_duration_ms",
		Help:    "Per-file operation duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"comp", "stage"})
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration)
}

// IncOp 累加操作计数（result=success|error|warn）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数。
func IncError(comp string, code Code) {
	errorTotal.WithLabelValues(comp, string(code)).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// WriteMetrics 以 textfile collector 格式原子写出全部指标。
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
