// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Lang        string
	Mode        string
	Words       int
	Duration    time.Duration
	StopOnError bool
	Text        string
	Lesson      int
	Adaptive    bool
	CapsPct     float64
	PunctPct    float64
	PunctSet    string
	WeakTop     int
	WeakFactor  float64
	WeakWindow  int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Lang        string
	Since       *time.Time
	Last        int
	CurveWindow int
	Top         int
}

// TimelinePoint is one sample of the WPM chart.
type TimelinePoint struct {
	At  time.Time `json:"at"`
	WPM int       `json:"wpm"`
}

// Keystroke is the persisted form of a logged key press.
type Keystroke struct {
	Char      string `json:"char"`
	Code      string `json:"code,omitempty"`
	AtMs      int64  `json:"at_ms"`
	LatencyMs int64  `json:"latency_ms"`
	HoldMs    int64  `json:"hold_ms,omitempty"`
	Error     bool   `json:"error,omitempty"`
	Expected  string `json:"expected"`
}

// SessionRecord captures a finalized typing session.
type SessionRecord struct {
	ID         string
	Mode       string
	Lesson     int
	Lang       string
	StartedAt  time.Time
	EndedAt    time.Time
	WPM        int
	RawWPM     int
	Accuracy   int
	ErrorCount int
	DurationMs int64
	TextLength int
	Keystrokes []Keystroke
	Timeline   []TimelinePoint
}

// CharStats stores per-character stats for a session.
type CharStats struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// BigramStats stores per-bigram transition latency for a session.
type BigramStats struct {
	Pair         string
	LatencySumMs int64
	Samples      int64
}

// CharAggregate aggregates character stats across sessions.
type CharAggregate struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	UUID       string
	Mode       string
	EndedAt    time.Time
	WPM        int
	Accuracy   int
	ErrorCount int
	DurationMs int64
}

// LessonProgress is one row of the lesson progress table.
type LessonProgress struct {
	LessonID     int
	Unlocked     bool
	Completed    bool
	BestWPM      int
	BestAccuracy int
	Runs         int
}

// HeatmapChar is the persisted cumulative weakness row for one character.
type HeatmapChar struct {
	Char         string
	Presses      int
	Errors       int
	LatencySumMs int64
	LatencyCount int64
	LastTested   time.Time
}

// Practice modes.
const (
	ModeWords      = "words"
	ModeTime       = "time"
	ModeCustom     = "custom"
	ModeCurriculum = "curriculum"
	ModeSmart      = "smart"
	ModeDrill      = "drill"
)
