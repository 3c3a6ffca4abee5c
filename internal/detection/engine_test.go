package detection

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wakie/go-backend/internal/config"
	"wakie/go-backend/internal/models"
)

const frameIntervalMs = 33

type engineRun struct {
	t      *testing.T
	engine *Engine
	now    int64
	events []models.StateEvent
	starts int
	stops  int
}

func newEngineRun(t *testing.T, th *config.ThresholdConfig) *engineRun {
	if th == nil {
		th = config.NewThresholdConfig(config.DefaultThresholds())
	}
	return &engineRun{t: t, engine: NewEngine(th), now: -frameIntervalMs}
}

func (r *engineRun) feed(n int, ear, mar float64, stepMs int64) models.StateEvent {
	var last models.StateEvent
	for i := 0; i < n; i++ {
		r.now += stepMs
		last = r.feedAt(r.now, SyntheticLandmarks(ear, mar))
	}
	return last
}

func (r *engineRun) feedAt(ts int64, lm models.Landmarks) models.StateEvent {
	ev, effect := r.engine.ProcessFrame(models.FrameEvent{Landmarks: lm, TimestampMs: ts})
	switch effect {
	case EffectStartAlarm:
		r.starts++
	case EffectStopAlarm:
		r.stops++
	}
	if ev.Locked {
		require.Equal(r.t, models.StateAsleep, ev.State, "locked engine must report ASLEEP")
	}
	r.events = append(r.events, ev)
	return ev
}

func TestEngineLockScenario(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	// 24 closed-eye frames lock on the 24th
	for i := 1; i <= 24; i++ {
		ev := r.feed(1, 0.05, 0.10, frameIntervalMs)
		if i < 24 {
			require.False(t, ev.Locked, "locked early on frame %d", i)
		}
	}
	last := r.events[len(r.events)-1]
	assert.Equal(t, models.StateAsleep, last.State)
	assert.True(t, last.Locked)
	assert.Equal(t, uint32(24), last.AsleepFrameCount)
	assert.Equal(t, 1, r.starts)
	assert.Zero(t, r.stops)
	assert.True(t, r.engine.AlarmActive())

	var states []models.DrowsinessState
	for _, ev := range r.events {
		states = append(states, ev.State)
	}
	want := make([]models.DrowsinessState, 0, 24)
	for i := 0; i < 24; i++ {
		switch {
		case i == 23:
			want = append(want, models.StateAsleep)
		case int64(i)*frameIntervalMs >= 300:
			want = append(want, models.StateEyesClosed)
		default:
			want = append(want, models.StateAwake)
		}
	}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Errorf("state sequence mismatch (-want +got):\n%s", diff)
	}

	// 15 open-eye frames unlock on the 15th
	for i := 1; i <= 15; i++ {
		ev := r.feed(1, 0.30, 0.10, frameIntervalMs)
		if i < 15 {
			require.True(t, ev.Locked, "unlocked early on frame %d", i)
			require.Equal(t, uint32(24+i), ev.AsleepFrameCount)
		}
	}
	last = r.events[len(r.events)-1]
	assert.Equal(t, models.StateAwake, last.State)
	assert.False(t, last.Locked)
	assert.Zero(t, last.AsleepFrameCount)
	assert.Equal(t, 1, r.starts)
	assert.Equal(t, 1, r.stops)
	assert.Equal(t, HysteresisCounters{}, r.engine.Counters())
	assert.False(t, r.engine.AlarmActive())
}

func TestEngineYawnResetsClosedRun(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	r.feed(10, 0.05, 0.10, frameIntervalMs)
	require.Equal(t, uint32(10), r.engine.Counters().ConsecutiveClosedFrames)

	r.feed(1, 0.05, 0.50, frameIntervalMs)
	assert.Zero(t, r.engine.Counters().ConsecutiveClosedFrames)
	assert.Zero(t, r.engine.Counters().ConsecutiveOpenFrames)
}

func TestEngineDegenerateLandmarks(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	lm := SyntheticLandmarks(0.30, 0.10)[:380]
	ev := r.feedAt(0, lm)
	assert.InDelta(t, 0.15, ev.EAR, 1e-9)
	assert.Equal(t, uint32(1), r.engine.Counters().ConsecutiveClosedFrames)

	ev = r.feedAt(33, SyntheticLandmarks(0.30, 0.10)[:100])
	assert.Equal(t, 0.0, ev.EAR)
	assert.Equal(t, 0.0, ev.MAR)

	ev = r.feedAt(66, nil)
	assert.Equal(t, 0.0, ev.EAR)
	assert.Equal(t, uint32(3), r.engine.Counters().ConsecutiveClosedFrames)
}

func TestEngineYawningIsObservational(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	ev := r.feed(1, 0.30, 0.60, 100)
	assert.Equal(t, models.StateYawning, ev.State)

	ev = r.feed(1, 0.30, 0.10, 500)
	assert.Equal(t, models.StateAwake, ev.State)
	assert.Zero(t, r.starts)
	assert.Zero(t, r.stops)
}

func TestEngineEyesClosedIsObservational(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	ev := r.feed(5, 0.05, 0.10, 100)
	assert.Equal(t, models.StateEyesClosed, ev.State)

	ev = r.feed(1, 0.30, 0.10, 1500)
	assert.Equal(t, models.StateAwake, ev.State)
	assert.Zero(t, r.starts)
	assert.Zero(t, r.stops)
}

// Periodic yawns keep resetting the frame counter, so the lock never engages
// while the time window still reports a transient ASLEEP.
func TestEngineWindowAsleepWithoutLock(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)
	r.now = -100

	for i := 0; i < 30; i++ {
		mar := 0.10
		if i%10 == 9 {
			mar = 0.50
		}
		r.feed(1, 0.05, mar, 100)
	}

	sawAsleep := false
	for _, ev := range r.events {
		require.False(t, ev.Locked)
		if ev.State == models.StateAsleep {
			sawAsleep = true
		}
	}
	assert.True(t, sawAsleep)
	assert.Equal(t, models.StateAsleep, r.engine.State())
	assert.Equal(t, 1, r.starts)

	ev := r.feed(20, 0.30, 0.10, 100)
	assert.Equal(t, models.StateAwake, ev.State)
	assert.Equal(t, 1, r.stops)
	assert.False(t, r.engine.AlarmActive())
}

func TestEngineToleratesGaps(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	r.feed(24, 0.05, 0.10, frameIntervalMs)
	require.True(t, r.engine.Counters().AsleepLocked)

	// an hour without a face leaves the lock untouched
	ev := r.feed(1, 0.30, 0.10, 3_600_000)
	assert.True(t, ev.Locked)
	assert.Equal(t, models.StateAsleep, ev.State)
	assert.Equal(t, 1, r.starts)
	assert.Zero(t, r.stops)
}

func TestEngineClockNeverRunsBackwards(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	r.feedAt(1000, SyntheticLandmarks(0.05, 0.1))
	ev := r.feedAt(400, SyntheticLandmarks(0.05, 0.1))
	assert.Equal(t, int64(1000), ev.TimestampMs)
}

func TestEngineObservesThresholdChange(t *testing.T) {
	t.Parallel()
	th := config.NewThresholdConfig(config.DefaultThresholds())
	r := newEngineRun(t, th)

	r.feed(10, 0.05, 0.10, frameIntervalMs)
	require.Equal(t, uint32(10), r.engine.Counters().ConsecutiveClosedFrames)

	th.SetEarThreshold(0.01)
	r.feed(1, 0.05, 0.10, frameIntervalMs)
	assert.Zero(t, r.engine.Counters().ConsecutiveClosedFrames)
	assert.Equal(t, uint32(1), r.engine.Counters().ConsecutiveOpenFrames)
}

// The lock holds exactly until WakeFramesThreshold consecutive open-eye
// frames have been seen since it engaged.
func TestEngineLockInvariant(t *testing.T) {
	t.Parallel()
	th := config.DefaultThresholds()
	r := newEngineRun(t, nil)
	rng := rand.New(rand.NewSource(42))

	modelLocked := false
	var closedRun, openRun uint32

	for i := 0; i < 20000; i++ {
		// long closed stretches make locks frequent
		eyeClosed := rng.Float64() < 0.8
		yawning := rng.Float64() < 0.02
		ear, mar := 0.30, 0.10
		if eyeClosed {
			ear = 0.05
		}
		if yawning {
			mar = 0.60
		}
		ev := r.feed(1, ear, mar, int64(20+rng.Intn(40)))

		if !modelLocked {
			switch {
			case yawning:
				closedRun = 0
			case eyeClosed:
				closedRun++
			default:
				closedRun = 0
			}
			if closedRun >= th.ClosedFramesThreshold && !yawning {
				modelLocked = true
				openRun = 0
			}
		} else {
			if eyeClosed {
				openRun = 0
			} else {
				openRun++
			}
			if openRun >= th.WakeFramesThreshold {
				modelLocked = false
				closedRun = 0
			}
		}
		require.Equal(t, modelLocked, ev.Locked, "frame %d", i)
	}
	assert.Equal(t, r.starts-r.stops, boolToInt(r.engine.AlarmActive()))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestEngineReleaseAlarm(t *testing.T) {
	t.Parallel()
	r := newEngineRun(t, nil)

	assert.False(t, r.engine.ReleaseAlarm())

	r.feed(24, 0.05, 0.10, frameIntervalMs)
	require.True(t, r.engine.AlarmActive())
	assert.True(t, r.engine.ReleaseAlarm())
	assert.False(t, r.engine.AlarmActive())

	// waking up with nothing outstanding asks for no stop
	ev := r.feed(15, 0.30, 0.10, frameIntervalMs)
	assert.Equal(t, models.StateAwake, ev.State)
	assert.Equal(t, 1, r.starts)
	assert.Zero(t, r.stops)
}
