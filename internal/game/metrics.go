package game

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics собирает метрики симуляции. Nil-получатель допустим: все методы
// становятся no-op, так что тесты могут обходиться без регистра.
type Metrics struct {
	activeSessions prometheus.Gauge
	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	outcomes       *prometheus.CounterVec
	steering       *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arena",
			Name:      "sessions_active",
			Help:      "Число живых игровых сессий.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "ticks_total",
			Help:      "Тиков симуляции по всем сессиям.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arena",
			Name:      "tick_duration_seconds",
			Help:      "Длительность обхода всех сессий за один тик.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "outcomes_total",
			Help:      "Завершённые сессии по исходу и режиму.",
		}, []string{"outcome", "mode"}),
		steering: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Name:      "enemy_steer_total",
			Help:      "Решения преследования: direct, left, right, stalled.",
		}, []string{"steer"}),
	}
	reg.MustRegister(m.activeSessions, m.ticks, m.tickDuration, m.outcomes, m.steering)
	return m
}

func (m *Metrics) setActive(n int) {
	if m != nil {
		m.activeSessions.Set(float64(n))
	}
}

func (m *Metrics) observeTick(d time.Duration, sessions int) {
	if m != nil {
		m.ticks.Add(float64(sessions))
		m.tickDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) outcome(o Outcome, mode Mode) {
	if m != nil {
		m.outcomes.WithLabelValues(o.String(), string(mode)).Inc()
	}
}

func (m *Metrics) steer(s Steer) {
	if m != nil && s != SteerIdle {
		m.steering.WithLabelValues(s.String()).Inc()
	}
}
