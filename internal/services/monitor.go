package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"wakie/go-backend/internal/alarm"
	"wakie/go-backend/internal/detection"
	"wakie/go-backend/internal/models"
	"wakie/go-backend/pkg/log"
)

// Observer receives every StateEvent, in frame order, on the processing path.
type Observer interface {
	OnStateEvent(models.StateEvent)
}

type ObserverFunc func(models.StateEvent)

func (f ObserverFunc) OnStateEvent(ev models.StateEvent) { f(ev) }

// Monitor owns the single drowsiness session of this process. Frames from
// any number of transports are serialized into the engine, and the effects
// it returns are applied to the alarm.
type Monitor struct {
	mu        sync.Mutex
	id        string
	engine    *detection.Engine
	alarm     alarm.Controller
	metrics   *Metrics
	observers []Observer
	startedAt time.Time
	closed    bool
}

func NewMonitor(thresholds detection.ThresholdSource, ctrl alarm.Controller, metrics *Metrics, observers ...Observer) *Monitor {
	if ctrl == nil {
		ctrl = alarm.Nop{}
	}
	return &Monitor{
		id:        uuid.NewString(),
		engine:    detection.NewEngine(thresholds),
		alarm:     ctrl,
		metrics:   metrics,
		observers: observers,
		startedAt: time.Now(),
	}
}

func (m *Monitor) ID() string {
	return m.id
}

func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startedAt)
}

// HandleFrame processes one frame to completion.
func (m *Monitor) HandleFrame(frame models.FrameEvent) models.StateEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	prev := m.engine.State()
	wasLocked := m.engine.Counters().AsleepLocked

	ev, effect := m.engine.ProcessFrame(frame)

	// after Shutdown the alarm stays silent whatever the engine asks for
	if m.closed && effect != detection.EffectNone {
		m.engine.ReleaseAlarm()
		effect = detection.EffectNone
	}

	switch effect {
	case detection.EffectStartAlarm:
		m.alarm.Start()
		if m.metrics != nil {
			m.metrics.IncrementAlarmStarts()
		}
	case detection.EffectStopAlarm:
		m.alarm.Stop()
		if m.metrics != nil {
			m.metrics.IncrementAlarmStops()
		}
	}

	if m.metrics != nil {
		m.metrics.ObserveFrame(time.Since(start))
		if ev.State != prev {
			m.metrics.ObserveTransition(ev.State)
		}
		switch {
		case ev.Locked && !wasLocked:
			m.metrics.IncrementLocks()
		case !ev.Locked && wasLocked:
			m.metrics.IncrementUnlocks()
		}
	}

	if ev.State != prev || effect != detection.EffectNone {
		log.Info(log.Fields{
			"session": m.id,
			"from":    prev.String(),
			"to":      ev.State.String(),
			"locked":  ev.Locked,
			"effect":  effect.String(),
			"ear":     ev.EAR,
			"mar":     ev.MAR,
		}, "[services.Monitor] state changed")
	}

	for _, obs := range m.observers {
		obs.OnStateEvent(ev)
	}
	return ev
}

// Shutdown silences the alarm for good. Frames handled afterwards still
// produce events but never reach the actuator.
func (m *Monitor) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.engine.ReleaseAlarm() && m.metrics != nil {
		m.metrics.IncrementAlarmStops()
	}
	m.alarm.Stop()
	log.Info(log.Fields{"session": m.id}, "[services.Monitor] shut down, alarm silenced")
}

// LogObserver writes every StateEvent at debug level for threshold tuning.
func LogObserver() Observer {
	return ObserverFunc(func(ev models.StateEvent) {
		log.Debug(log.Fields{
			"state":              ev.State.String(),
			"ear":                ev.EAR,
			"mar":                ev.MAR,
			"asleep_frame_count": ev.AsleepFrameCount,
			"locked":             ev.Locked,
		}, "[services.Monitor] frame")
	})
}
