package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "healthrec"

type Metrics struct {
	registry *prometheus.Registry

	// Counters
	httpRequestsTotal   *prometheus.CounterVec
	predictionsTotal    *prometheus.CounterVec
	predictionErrors    *prometheus.CounterVec
	unseenCategories    *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	eventsDropped       prometheus.Counter
	kafkaWriteErrors    prometheus.Counter
	authFailuresTotal   *prometheus.CounterVec
	patientsSeededTotal prometheus.Counter

	// Gauges
	modelLoaded         prometheus.Gauge
	websocketClients    prometheus.Gauge
	circuitBreakerState *prometheus.GaugeVec

	// Histograms
	httpRequestDuration *prometheus.HistogramVec
	predictionLatency   prometheus.Histogram
	modelLoadDuration   prometheus.Histogram

	dbOnce sync.Once
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics set, registered on its own registry.
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New builds an independent metrics set. Tests use it to avoid sharing counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),

		predictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful stroke risk predictions by risk category.",
		}, []string{"category"}),

		predictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by reason.",
		}, []string{"reason"}),

		unseenCategories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unseen_categories_total",
			Help:      "Categorical values absent from the trained vocabulary, by field.",
		}, []string{"field"}),

		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Internal events published by type.",
		}, []string{"type"}),

		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber buffer was full.",
		}),

		kafkaWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_write_errors_total",
			Help:      "Failed writes to the Kafka event topic.",
		}),

		authFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected logins and authorization checks by reason.",
		}, []string{"reason"}),

		patientsSeededTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "patients_seeded_total",
			Help:      "Patient rows loaded from the bundled dataset.",
		}),

		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when the prediction artifacts are loaded.",
		}),

		websocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live feed clients.",
		}),

		circuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"name"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		predictionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent encoding, scaling and classifying one patient.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		modelLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_load_duration_seconds",
			Help:      "Time spent loading the prediction artifacts.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.predictionsTotal,
		m.predictionErrors,
		m.unseenCategories,
		m.eventsPublished,
		m.eventsDropped,
		m.kafkaWriteErrors,
		m.authFailuresTotal,
		m.patientsSeededTotal,
		m.modelLoaded,
		m.websocketClients,
		m.circuitBreakerState,
		m.httpRequestDuration,
		m.predictionLatency,
		m.modelLoadDuration,
	)

	return m
}

// RegisterDB exports connection pool statistics. Only the first call registers.
func (m *Metrics) RegisterDB(db *sql.DB, name string) {
	m.dbOnce.Do(func() {
		m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
	})
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IncPrediction(category string, d time.Duration) {
	m.predictionsTotal.WithLabelValues(category).Inc()
	m.predictionLatency.Observe(d.Seconds())
}

func (m *Metrics) IncPredictionError(reason string) {
	m.predictionErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncUnseenCategory(field string) {
	m.unseenCategories.WithLabelValues(field).Inc()
}

func (m *Metrics) IncEventPublished(eventType string) {
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncEventsDropped() {
	m.eventsDropped.Inc()
}

func (m *Metrics) IncKafkaWriteError() {
	m.kafkaWriteErrors.Inc()
}

func (m *Metrics) IncAuthFailure(reason string) {
	m.authFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) AddPatientsSeeded(n int) {
	m.patientsSeededTotal.Add(float64(n))
}

func (m *Metrics) SetModelLoaded(loaded bool, d time.Duration) {
	if loaded {
		m.modelLoaded.Set(1)
		m.modelLoadDuration.Observe(d.Seconds())
		return
	}
	m.modelLoaded.Set(0)
}

func (m *Metrics) SetWebSocketClients(n int) {
	m.websocketClients.Set(float64(n))
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
