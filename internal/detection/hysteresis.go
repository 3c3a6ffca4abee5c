package detection

import "wakie/go-backend/internal/config"

type Transition int

const (
	TransitionNone Transition = iota
	TransitionLocked
	TransitionUnlocked
)

func (t Transition) String() string {
	switch t {
	case TransitionLocked:
		return "locked"
	case TransitionUnlocked:
		return "unlocked"
	default:
		return "none"
	}
}

// HysteresisCounters is the frame-count state behind the sticky ASLEEP lock.
type HysteresisCounters struct {
	ConsecutiveClosedFrames uint32 `json:"consecutive_closed_frames"`
	ConsecutiveOpenFrames   uint32 `json:"consecutive_open_frames"`
	AsleepFrameCount        uint32 `json:"asleep_frame_count"`
	AsleepLocked            bool   `json:"asleep_locked"`
}

// HysteresisEngine locks into ASLEEP after a run of closed-eye frames and
// only releases the lock after a run of open-eye frames.
type HysteresisEngine struct {
	c HysteresisCounters
}

func (h *HysteresisEngine) Counters() HysteresisCounters {
	return h.c
}

func (h *HysteresisEngine) Locked() bool {
	return h.c.AsleepLocked
}

// Step advances the counters by one frame.
func (h *HysteresisEngine) Step(eyeClosed, yawning bool, t config.Thresholds) Transition {
	if !h.c.AsleepLocked {
		return h.stepUnlocked(eyeClosed, yawning, t)
	}
	return h.stepLocked(eyeClosed, t)
}

func (h *HysteresisEngine) stepUnlocked(eyeClosed, yawning bool, t config.Thresholds) Transition {
	switch {
	case yawning:
		// a yawn interrupts closed-eye accumulation
		h.c.ConsecutiveClosedFrames = 0
		h.c.ConsecutiveOpenFrames = 0
	case eyeClosed:
		h.c.ConsecutiveClosedFrames++
		h.c.ConsecutiveOpenFrames = 0
	default:
		h.c.ConsecutiveClosedFrames = 0
		h.c.ConsecutiveOpenFrames++
	}

	if h.c.ConsecutiveClosedFrames >= t.ClosedFramesThreshold && !yawning {
		h.c.AsleepLocked = true
		h.c.AsleepFrameCount = h.c.ConsecutiveClosedFrames
		return TransitionLocked
	}
	return TransitionNone
}

func (h *HysteresisEngine) stepLocked(eyeClosed bool, t config.Thresholds) Transition {
	h.c.AsleepFrameCount++
	if eyeClosed {
		h.c.ConsecutiveOpenFrames = 0
	} else {
		h.c.ConsecutiveOpenFrames++
	}

	if h.c.ConsecutiveOpenFrames >= t.WakeFramesThreshold {
		h.c = HysteresisCounters{}
		return TransitionUnlocked
	}
	return TransitionNone
}
