// Package metrics 提供 Prometheus 监控指标
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhiban/zhiban/pkg/logger"
)

// Metrics 排班引擎指标集合
type Metrics struct {
	// 求解指标
	SolveTotal    *prometheus.CounterVec
	SolveDuration prometheus.Histogram
	SlotsFilled   prometheus.Gauge
	SlotsTotal    prometheus.Gauge
	SolveFailures *prometheus.CounterVec

	// 轮换排班指标
	RosterTotal       *prometheus.CounterVec
	RosterDuration    prometheus.Histogram
	RosterFulfillment prometheus.Gauge
}

var (
	instance *Metrics
	once     sync.Once
)

// Get 获取全局指标集合
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics(prometheus.DefaultRegisterer)
	})
	return instance
}

// newMetrics 注册全部指标
func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SolveTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zhiban_solve_total",
			Help: "班次求解次数",
		}, []string{"status"}),
		SolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zhiban_solve_duration_seconds",
			Help:    "班次求解耗时",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SlotsFilled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "zhiban_slots_filled",
			Help: "最近一次求解填充的班位数",
		}),
		SlotsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "zhiban_slots_total",
			Help: "最近一次求解的总班位数",
		}),
		SolveFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zhiban_solve_failures_total",
			Help: "班位填充失败数（按原因）",
		}, []string{"reason"}),
		RosterTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "zhiban_roster_total",
			Help: "轮换排班生成次数",
		}, []string{"status"}),
		RosterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "zhiban_roster_duration_seconds",
			Help:    "轮换排班生成耗时",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		RosterFulfillment: factory.NewGauge(prometheus.GaugeOpts{
			Name: "zhiban_roster_fulfillment_rate",
			Help: "最近一次轮换排班的约束满足率",
		}),
	}
}

// ObserveSolve 记录一次求解
func (m *Metrics) ObserveSolve(duration time.Duration, filled, total int, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.SolveTotal.WithLabelValues(status).Inc()
	m.SolveDuration.Observe(duration.Seconds())
	m.SlotsFilled.Set(float64(filled))
	m.SlotsTotal.Set(float64(total))
}

// ObserveFailure 记录班位填充失败
func (m *Metrics) ObserveFailure(reason string) {
	m.SolveFailures.WithLabelValues(reason).Inc()
}

// ObserveRoster 记录一次轮换排班生成
func (m *Metrics) ObserveRoster(duration time.Duration, fulfillment float64, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	m.RosterTotal.WithLabelValues(status).Inc()
	m.RosterDuration.Observe(duration.Seconds())
	m.RosterFulfillment.Set(fulfillment)
}

// Serve 启动指标 HTTP 服务
// 返回关闭函数，调用方在退出时关停
func Serve(addr, path string) func(context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", addr).Str("path", path).Msg("指标服务启动")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Msg("指标服务异常退出")
		}
	}()
	return srv.Shutdown
}
