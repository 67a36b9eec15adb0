package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grecko"

// Calculation kinds
const (
	CalcAverage  = "average"
	CalcRequired = "required"
	CalcApply    = "apply"
)

// Persistence job outcomes
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// Metrics holds the app collectors. Use one per prometheus registry.
type Metrics struct {
	reg *prometheus.Registry

	Calculations    *prometheus.CounterVec
	PersistJobs     *prometheus.CounterVec
	PersistDuration *prometheus.HistogramVec
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them to reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		reg: reg,
		Calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calculations_total",
				Help:      "Total number of GPA calculations by kind",
			},
			[]string{"kind"},
		),
		PersistJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_jobs_total",
				Help:      "Total number of background persistence jobs by op and outcome",
			},
			[]string{"op", "outcome"},
		),
		PersistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persist_job_duration_seconds",
				Help:      "Duration of background persistence jobs",
				Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"op"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	reg.MustRegister(m.Calculations, m.PersistJobs, m.PersistDuration, m.RequestCounter, m.RequestDuration)
	return m
}

// RegisterGauge exposes a value computed at scrape time, eg. the number of open sessions.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help},
		fn,
	))
}

func (m *Metrics) ObserveCalculation(kind string) {
	m.Calculations.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObservePersistJob(op, outcome string, took time.Duration) {
	m.PersistJobs.WithLabelValues(op, outcome).Inc()
	if outcome != OutcomeDropped {
		m.PersistDuration.WithLabelValues(op).Observe(took.Seconds())
	}
}

// Middleware records the count and latency of requests per route.
// Errors are handed to the app error handler here, so the status recorded is the one sent.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			m.RequestCounter.WithLabelValues(c.Request().Method, c.Path(), status).Inc()
			m.RequestDuration.WithLabelValues(c.Request().Method, c.Path()).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
