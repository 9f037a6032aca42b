package stats

import (
	"math"
	"time"
)

// MinElapsed is the floor applied to elapsed time before any rate is computed.
const MinElapsed = 600 * time.Millisecond

// Live display smoothing. RollingWindow and RollingScale are tuned together:
// the count of keystrokes inside the window times the scale is a per-minute rate.
const (
	RollingWindow = 10 * time.Second
	RollingScale  = 6
)

const charsPerWord = 5.0

// Snapshot is a derived view of a session at one instant.
type Snapshot struct {
	WPM      int
	RawWPM   int
	Accuracy int
	Correct  int
	Errors   int
	Total    int
	Elapsed  time.Duration
}

// WPM returns net words per minute for correct characters.
func WPM(correct int, elapsed time.Duration) int {
	return rate(correct, elapsed)
}

// RawWPM returns words per minute counting every attempted keystroke.
func RawWPM(total int, elapsed time.Duration) int {
	return rate(total, elapsed)
}

// Accuracy returns the rounded percentage of correct inputs, 100 when nothing was typed.
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// RollingWPM is the live display rate over the last RollingWindow.
// It smooths the on-screen number and is not used for scoring.
func RollingWPM(times []time.Time, now time.Time) int {
	cutoff := now.Add(-RollingWindow)
	count := 0
	for i := len(times) - 1; i >= 0; i-- {
		if !times[i].After(cutoff) {
			break
		}
		count++
	}
	return int(math.Round(float64(count) * RollingScale / charsPerWord))
}

// Counts are the raw counters a Snapshot is derived from.
type Counts struct {
	// Correct is the number of characters behind the cursor typed correctly.
	Correct int
	// Errors is the number of positions marked as mistyped.
	Errors int
	// Keystrokes is the number of logged key presses.
	Keystrokes int
	// Missed is the number of logged key presses that did not match.
	Missed int
}

// NewSnapshot builds a Snapshot from raw counters.
func NewSnapshot(c Counts, elapsed time.Duration) Snapshot {
	return Snapshot{
		WPM:      WPM(c.Correct, elapsed),
		RawWPM:   RawWPM(c.Keystrokes, elapsed),
		Accuracy: Accuracy(c.Keystrokes-c.Missed, c.Keystrokes),
		Correct:  c.Correct,
		Errors:   c.Errors,
		Total:    c.Keystrokes,
		Elapsed:  elapsed,
	}
}

func rate(chars int, elapsed time.Duration) int {
	if elapsed < MinElapsed {
		elapsed = MinElapsed
	}
	minutes := elapsed.Minutes()
	return int(math.Round((float64(chars) / charsPerWord) / minutes))
}
