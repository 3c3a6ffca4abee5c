package services

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wakie/go-backend/internal/config"
	"wakie/go-backend/internal/models"
)

// Metrics holds the service counters on a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	framesTotal    prometheus.Counter
	framesRejected prometheus.Counter
	transitions    *prometheus.CounterVec
	locks          prometheus.Counter
	unlocks        prometheus.Counter
	alarmStarts    prometheus.Counter
	alarmStops     prometheus.Counter
	latency        prometheus.Histogram

	wsConnections atomic.Int64
	lastFrameTime atomic.Int64
}

func NewMetrics(thresholds *config.ThresholdConfig) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drowsiness_frames_processed_total",
			Help: "Frames run through the drowsiness engine",
		}),
		framesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drowsiness_frames_rejected_total",
			Help: "Frames refused before reaching the engine",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drowsiness_state_transitions_total",
			Help: "State changes by target state",
		}, []string{"state"}),
		locks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drowsiness_asleep_locks_total",
			Help: "Times the frame-count lock engaged",
		}),
		unlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drowsiness_asleep_unlocks_total",
			Help: "Times the frame-count lock released",
		}),
		alarmStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drowsiness_alarm_starts_total",
			Help: "Alarm start requests sent to the actuator",
		}),
		alarmStops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drowsiness_alarm_stops_total",
			Help: "Alarm stop requests sent to the actuator",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drowsiness_frame_processing_seconds",
			Help:    "Time spent processing one frame",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.framesTotal, m.framesRejected, m.transitions,
		m.locks, m.unlocks, m.alarmStarts, m.alarmStops, m.latency,
	)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "drowsiness_ws_connections",
			Help: "Open control WebSocket connections",
		},
		func() float64 { return float64(m.wsConnections.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "drowsiness_last_frame_timestamp_seconds",
			Help: "Unix time of the last processed frame",
		},
		func() float64 { return float64(m.lastFrameTime.Load()) },
	))

	if thresholds != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "drowsiness_ear_threshold",
				Help: "EAR threshold currently applied",
			},
			func() float64 { return thresholds.Snapshot().EarThreshold },
		))
	}

	return m
}

func (m *Metrics) ObserveFrame(duration time.Duration) {
	m.framesTotal.Inc()
	m.latency.Observe(duration.Seconds())
	m.lastFrameTime.Store(time.Now().Unix())
}

func (m *Metrics) IncrementRejected() {
	m.framesRejected.Inc()
}

func (m *Metrics) ObserveTransition(state models.DrowsinessState) {
	m.transitions.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) IncrementLocks()       { m.locks.Inc() }
func (m *Metrics) IncrementUnlocks()     { m.unlocks.Inc() }
func (m *Metrics) IncrementAlarmStarts() { m.alarmStarts.Inc() }
func (m *Metrics) IncrementAlarmStops()  { m.alarmStops.Inc() }

func (m *Metrics) IncrementWebSocketConnections() {
	m.wsConnections.Add(1)
}

func (m *Metrics) DecrementWebSocketConnections() {
	m.wsConnections.Add(-1)
}

func (m *Metrics) GetWebSocketConnections() int64 {
	return m.wsConnections.Load()
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
