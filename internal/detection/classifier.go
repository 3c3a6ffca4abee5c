package detection

import (
	"wakie/go-backend/internal/config"
	"wakie/go-backend/internal/models"
)

// ClassifyWindows is the time-window fallback used while the frame-count
// lock is not engaged. Its ASLEEP is transient: it lasts only as long as
// the closed-eye window keeps spanning the full duration.
func ClassifyWindows(closed, yawn *TemporalWindow, now int64, t config.Thresholds) models.DrowsinessState {
	if span, ok := closed.Span(now); ok {
		if span >= t.ClosedDurationMs {
			return models.StateAsleep
		}
		if span >= t.EyeClosedIntermediateMs {
			return models.StateEyesClosed
		}
	}
	if span, ok := yawn.Span(now); ok && span <= t.YawnDurationMs {
		return models.StateYawning
	}
	return models.StateAwake
}
