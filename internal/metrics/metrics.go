// Package metrics는 거래 실행 관련 Prometheus 지표를 제공합니다
//
//	hookbridge_executions_total{action,result}  시그널 실행 결과 (recorded|failed)
//	hookbridge_failures_total{state,kind}       실패 단계와 에러 분류
//	hookbridge_orders_total{type,side}          거래소에 접수된 주문
//	hookbridge_warnings_total{kind}             진행을 막지 않은 경고
//	hookbridge_closed_positions_total{direction} 청산한 포지션
//	hookbridge_execution_seconds{action}        실행 소요 시간
//	hookbridge_fallback_rules_total             대체 거래 규칙 사용 횟수
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics는 전용 레지스트리에 등록된 수집기 묶음입니다
type Metrics struct {
	registry *prometheus.Registry

	executions      *prometheus.CounterVec
	failures        *prometheus.CounterVec
	orders          *prometheus.CounterVec
	warnings        *prometheus.CounterVec
	closedPositions *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	fallbackRules   prometheus.Counter
}

// New는 새 레지스트리에 수집기를 등록합니다
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookbridge_executions_total",
				Help: "Signal executions by action and result",
			},
			[]string{"action", "result"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookbridge_failures_total",
				Help: "Failed executions by state and error kind",
			},
			[]string{"state", "kind"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookbridge_orders_total",
				Help: "Orders accepted by the exchange",
			},
			[]string{"type", "side"},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookbridge_warnings_total",
				Help: "Non-fatal warnings attached to results",
			},
			[]string{"kind"},
		),
		closedPositions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookbridge_closed_positions_total",
				Help: "Positions closed by direction",
			},
			[]string{"direction"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hookbridge_execution_seconds",
				Help:    "Signal execution latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		fallbackRules: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hookbridge_fallback_rules_total",
				Help: "Sizing computations that used the static rules table",
			},
		),
	}

	m.registry.MustRegister(
		m.executions,
		m.failures,
		m.orders,
		m.warnings,
		m.closedPositions,
		m.duration,
		m.fallbackRules,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler는 /metrics 핸들러를 반환합니다
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry는 내부 레지스트리를 반환합니다
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// 아래 기록 메서드는 nil 수신자에서 아무 것도 하지 않습니다

func (m *Metrics) ObserveExecution(action, result string, seconds float64) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(action, result).Inc()
	m.duration.WithLabelValues(action).Observe(seconds)
}

func (m *Metrics) IncFailure(state, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(state, kind).Inc()
}

func (m *Metrics) IncOrder(orderType, side string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(orderType, side).Inc()
}

func (m *Metrics) IncWarning(kind string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncClosed(direction string) {
	if m == nil {
		return
	}
	m.closedPositions.WithLabelValues(direction).Inc()
}

func (m *Metrics) IncFallbackRules() {
	if m == nil {
		return
	}
	m.fallbackRules.Inc()
}
