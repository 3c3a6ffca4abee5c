package config

import (
	"math"
	"sync"
	"sync/atomic"
)

const (
	MinEarThreshold = 0.01
	MaxEarThreshold = 0.20
)

// Thresholds is one consistent set of detection parameters.
type Thresholds struct {
	EarThreshold            float64 `json:"ear_threshold"`
	MarThreshold            float64 `json:"mar_threshold"`
	ClosedDurationMs        int64   `json:"closed_duration_ms"`
	EyeClosedIntermediateMs int64   `json:"eye_closed_intermediate_ms"`
	YawnDurationMs          int64   `json:"yawn_duration_ms"`
	ClosedFramesThreshold   uint32  `json:"closed_frames_threshold"`
	WakeFramesThreshold     uint32  `json:"wake_frames_threshold"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		EarThreshold:            0.20,
		MarThreshold:            0.40,
		ClosedDurationMs:        1200,
		EyeClosedIntermediateMs: 300,
		YawnDurationMs:          400,
		ClosedFramesThreshold:   24,
		WakeFramesThreshold:     15,
	}
}

// Normalize clamps every field into its usable range. Values are never
// rejected; anything unusable falls back to the default.
func (t Thresholds) Normalize() Thresholds {
	def := DefaultThresholds()

	if math.IsNaN(t.EarThreshold) {
		t.EarThreshold = def.EarThreshold
	}
	t.EarThreshold = ClampEar(t.EarThreshold)

	if math.IsNaN(t.MarThreshold) || t.MarThreshold <= 0 {
		t.MarThreshold = def.MarThreshold
	}
	if t.ClosedDurationMs <= 0 {
		t.ClosedDurationMs = def.ClosedDurationMs
	}
	if t.EyeClosedIntermediateMs <= 0 {
		t.EyeClosedIntermediateMs = def.EyeClosedIntermediateMs
	}
	if t.EyeClosedIntermediateMs > t.ClosedDurationMs {
		t.EyeClosedIntermediateMs = t.ClosedDurationMs
	}
	if t.YawnDurationMs <= 0 {
		t.YawnDurationMs = def.YawnDurationMs
	}
	if t.ClosedFramesThreshold == 0 {
		t.ClosedFramesThreshold = 1
	}
	if t.WakeFramesThreshold == 0 {
		t.WakeFramesThreshold = 1
	}
	return t
}

func ClampEar(v float64) float64 {
	if v < MinEarThreshold {
		return MinEarThreshold
	}
	if v > MaxEarThreshold {
		return MaxEarThreshold
	}
	return v
}

// ThresholdConfig holds the live thresholds. Readers take a lock-free
// snapshot per frame; writers publish a fresh copy.
type ThresholdConfig struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Thresholds]
}

func NewThresholdConfig(t Thresholds) *ThresholdConfig {
	c := &ThresholdConfig{}
	n := t.Normalize()
	c.cur.Store(&n)
	return c
}

// Snapshot returns a copy of all thresholds taken from a single atomic load.
func (c *ThresholdConfig) Snapshot() Thresholds {
	return *c.cur.Load()
}

// SetEarThreshold clamps v to [MinEarThreshold, MaxEarThreshold] and makes
// it visible to the next frame. NaN leaves the threshold unchanged.
// The applied value is returned.
func (c *ThresholdConfig) SetEarThreshold(v float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := *c.cur.Load()
	if math.IsNaN(v) {
		return next.EarThreshold
	}
	next.EarThreshold = ClampEar(v)
	c.cur.Store(&next)
	return next.EarThreshold
}
