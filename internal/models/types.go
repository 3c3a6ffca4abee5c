package models

import (
	"math"
	"time"
)

// Point is a normalized 2D landmark coordinate in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks is the index-addressable landmark sequence produced by the
// external face-landmark detector for one face.
type Landmarks []Point

// At returns the landmark at index i. The second value is false when the
// index is out of range or the detector left the coordinate undefined (NaN).
func (l Landmarks) At(i int) (Point, bool) {
	if i < 0 || i >= len(l) {
		return Point{}, false
	}
	p := l[i]
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return Point{}, false
	}
	return p, true
}

// FrameEvent is one completed detection result handed to the engine.
type FrameEvent struct {
	Landmarks   Landmarks
	TimestampMs int64
}

type DrowsinessState int

const (
	StateAwake DrowsinessState = iota
	StateEyesClosed
	StateYawning
	StateAsleep
)

var stateNames = map[DrowsinessState]string{
	StateAwake:      "AWAKE",
	StateEyesClosed: "EYES_CLOSED",
	StateYawning:    "YAWNING",
	StateAsleep:     "ASLEEP",
}

func (s DrowsinessState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s DrowsinessState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateEvent is emitted for every processed frame, transition or not.
type StateEvent struct {
	State            DrowsinessState `json:"state"`
	EAR              float64         `json:"ear"`
	MAR              float64         `json:"mar"`
	AsleepFrameCount uint32          `json:"asleep_frame_count"`
	Locked           bool            `json:"locked"`
	TimestampMs      int64           `json:"timestamp_ms"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp int64  `json:"timestamp"`
	Code      string `json:"code,omitempty"`
}

type HealthStatus struct {
	Status        string        `json:"status"`
	ActiveClients int           `json:"active_clients"`
	Uptime        time.Duration `json:"uptime"`
	Version       string        `json:"version,omitempty"`
}
