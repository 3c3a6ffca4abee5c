package detection

import (
	"wakie/go-backend/internal/config"
	"wakie/go-backend/internal/models"
)

// Effect is the actuator call a processed frame asks for.
type Effect int

const (
	EffectNone Effect = iota
	EffectStartAlarm
	EffectStopAlarm
)

func (e Effect) String() string {
	switch e {
	case EffectStartAlarm:
		return "start_alarm"
	case EffectStopAlarm:
		return "stop_alarm"
	default:
		return "none"
	}
}

// ThresholdSource yields the thresholds to apply to the next frame.
type ThresholdSource interface {
	Snapshot() config.Thresholds
}

// Engine is one drowsiness session. It is not safe for concurrent use;
// callers feed it one frame at a time.
type Engine struct {
	thresholds ThresholdSource

	closed     TemporalWindow
	yawn       TemporalWindow
	hysteresis HysteresisEngine

	state       models.DrowsinessState
	alarmActive bool
	lastNow     int64
	started     bool
}

func NewEngine(thresholds ThresholdSource) *Engine {
	return &Engine{thresholds: thresholds}
}

func (e *Engine) State() models.DrowsinessState {
	return e.state
}

func (e *Engine) Counters() HysteresisCounters {
	return e.hysteresis.Counters()
}

// AlarmActive reports whether the last actuator request was a start.
func (e *Engine) AlarmActive() bool {
	return e.alarmActive
}

// ReleaseAlarm forgets an outstanding start request and reports whether
// there was one. The caller is expected to stop the actuator itself.
func (e *Engine) ReleaseAlarm() bool {
	was := e.alarmActive
	e.alarmActive = false
	return was
}

// ProcessFrame runs one frame to completion and returns the event to report
// plus the actuator call the caller must perform.
func (e *Engine) ProcessFrame(frame models.FrameEvent) (models.StateEvent, Effect) {
	t := e.thresholds.Snapshot()

	ear := ComputeEAR(frame.Landmarks)
	mar := ComputeMAR(frame.Landmarks)

	now := frame.TimestampMs
	if e.started && now < e.lastNow {
		now = e.lastNow
	}
	e.lastNow = now
	e.started = true

	eyeClosed := ear < t.EarThreshold
	yawning := mar > t.MarThreshold

	if eyeClosed {
		e.closed.Push(now)
	}
	if yawning {
		e.yawn.Push(now)
	}
	e.closed.Evict(now, t.ClosedDurationMs)
	e.yawn.Evict(now, t.YawnDurationMs)

	effect := EffectNone
	switch e.hysteresis.Step(eyeClosed, yawning, t) {
	case TransitionLocked:
		e.state = models.StateAsleep
		effect = e.requestStart()
	case TransitionUnlocked:
		e.state = models.StateAwake
		e.closed.Reset()
		e.yawn.Reset()
		effect = e.requestStop()
	}

	if !e.hysteresis.Locked() {
		next := ClassifyWindows(&e.closed, &e.yawn, now, t)
		if next != e.state {
			e.state = next
			switch next {
			case models.StateAsleep:
				effect = e.requestStart()
			case models.StateAwake:
				effect = e.requestStop()
			}
		}
	}

	c := e.hysteresis.Counters()
	return models.StateEvent{
		State:            e.state,
		EAR:              ear,
		MAR:              mar,
		AsleepFrameCount: c.AsleepFrameCount,
		Locked:           c.AsleepLocked,
		TimestampMs:      now,
	}, effect
}

func (e *Engine) requestStart() Effect {
	if e.alarmActive {
		return EffectNone
	}
	e.alarmActive = true
	return EffectStartAlarm
}

func (e *Engine) requestStop() Effect {
	if !e.alarmActive {
		return EffectNone
	}
	e.alarmActive = false
	return EffectStopAlarm
}
