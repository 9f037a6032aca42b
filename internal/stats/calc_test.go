package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWPM(t *testing.T) {
	assert.Equal(t, 30, WPM(25, 10*time.Second))
	assert.Equal(t, 0, WPM(0, 10*time.Second))
	assert.Equal(t, 60, WPM(50, 10*time.Second))
}

func TestWPMFloorsElapsed(t *testing.T) {
	// 5 chars in 600ms is 1 word per 0.01 minutes.
	assert.Equal(t, 100, WPM(5, 0))
	assert.Equal(t, 100, WPM(5, 100*time.Millisecond))
	assert.Equal(t, WPM(5, MinElapsed), WPM(5, time.Millisecond))
}

func TestRawWPM(t *testing.T) {
	assert.Equal(t, 36, RawWPM(30, 10*time.Second))
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 90, Accuracy(18, 20))
	assert.Equal(t, 100, Accuracy(0, 0))
	assert.Equal(t, 67, Accuracy(2, 3))
	assert.Equal(t, 0, Accuracy(0, 4))
}

func TestRollingWPM(t *testing.T) {
	now := time.Unix(100, 0)
	var times []time.Time
	// Ten hits outside the window, ten inside.
	for i := 0; i < 10; i++ {
		times = append(times, now.Add(-20*time.Second+time.Duration(i)*time.Second))
	}
	for i := 0; i < 10; i++ {
		times = append(times, now.Add(-9*time.Second+time.Duration(i)*time.Second))
	}
	assert.Equal(t, 12, RollingWPM(times, now))
	assert.Equal(t, 0, RollingWPM(nil, now))
}

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot(Counts{Correct: 23, Errors: 2, Keystrokes: 27, Missed: 3}, 10*time.Second)
	assert.Equal(t, 28, s.WPM)
	assert.Equal(t, 32, s.RawWPM)
	assert.Equal(t, 89, s.Accuracy)
	assert.Equal(t, 23, s.Correct)
	assert.Equal(t, 2, s.Errors)
	assert.Equal(t, 27, s.Total)

	empty := NewSnapshot(Counts{}, 0)
	assert.Equal(t, 100, empty.Accuracy)
	assert.Equal(t, 0, empty.WPM)
}

func TestLive(t *testing.T) {
	start := time.Unix(100, 0)
	in := LiveInput{
		Seq:       7,
		Cursor:    25,
		Errors:    5,
		TextLen:   50,
		StartedAt: start,
		Times:     []time.Time{start.Add(9 * time.Second), start.Add(10 * time.Second)},
	}
	got := Live(in, start.Add(10*time.Second))
	assert.Equal(t, uint64(7), got.Seq)
	assert.Equal(t, 30, got.WPM)
	assert.Equal(t, 80, got.Accuracy)
	assert.Equal(t, 50, got.Progress)
	assert.Equal(t, 2, got.RollingWPM)
	assert.Equal(t, 5, got.Errors)

	idle := Live(LiveInput{Seq: 1, TextLen: 10}, start)
	assert.Equal(t, 100, idle.Accuracy)
	assert.Equal(t, 0, idle.WPM)
}
