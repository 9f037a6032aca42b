package stats

import (
	"math"
	"time"
)

// LiveInput is an immutable copy of the engine counters needed for live display.
type LiveInput struct {
	// Run identifies the practice run; Seq orders samples within it.
	Run       uint64
	Seq       uint64
	Cursor    int
	Errors    int
	TextLen   int
	StartedAt time.Time
	// Times holds the timestamps of correct keystrokes in ascending order.
	Times []time.Time
}

// LiveStats is the display-only aggregate shown while typing.
type LiveStats struct {
	Run        uint64
	Seq        uint64
	WPM        int
	RollingWPM int
	Accuracy   int
	Errors     int
	Progress   int
}

// Live computes display stats for a sample. Results are advisory and never
// fed back into the engine.
func Live(in LiveInput, now time.Time) LiveStats {
	out := LiveStats{Run: in.Run, Seq: in.Seq, Errors: in.Errors, Accuracy: 100}
	if in.StartedAt.IsZero() {
		return out
	}
	out.WPM = WPM(in.Cursor, now.Sub(in.StartedAt))
	out.RollingWPM = RollingWPM(in.Times, now)
	denom := in.Cursor
	if denom < 1 {
		denom = 1
	}
	out.Accuracy = int(math.Round(float64(in.Cursor-in.Errors) / float64(denom) * 100))
	if in.TextLen > 0 {
		out.Progress = int(math.Round(float64(in.Cursor) / float64(in.TextLen) * 100))
	}
	return out
}
