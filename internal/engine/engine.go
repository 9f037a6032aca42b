// Package engine implements the keystroke state machine of a practice run.
//
// An Engine is owned by a single goroutine: key-down, key-up and timer ticks
// must be applied in the order they physically happened. Callers that want to
// compute anything off that goroutine take a copy through State, Log or Sample.
package engine

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/keydrill/internal/stats"
)

// Recognized key names. Any other multi-character key name is ignored.
const (
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
	KeyTab       = "Tab"
	KeyEscape    = "Escape"
)

const timelineEvery = 5

// Mode selects how a run completes.
type Mode int

const (
	// ModeFixed completes when the whole text has been typed.
	ModeFixed Mode = iota
	// ModeTimed completes when the duration elapses.
	ModeTimed
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeTimed:
		return "timed"
	default:
		return "unknown"
	}
}

// Options configures an Engine.
type Options struct {
	StopOnError bool
	Mode        Mode
	Duration    time.Duration
}

// KeystrokeEvent is one logged key press. It is never modified after being
// appended, except for its hold time on release.
type KeystrokeEvent struct {
	Char     string
	Code     string
	At       time.Time
	Latency  time.Duration
	Error    bool
	Expected string
	Hold     time.Duration
	Released bool
}

// TimelinePoint samples the net WPM during a run.
type TimelinePoint struct {
	At  time.Time
	WPM int
}

// State is a copy of the engine state for rendering.
type State struct {
	Cursor     int
	Errors     []int
	Combo      int
	StartedAt  time.Time
	Extras     map[int][]string
	Complete   bool
	TimeLeft   int
	Keystrokes int
	Stats      stats.Snapshot
}

// HasError reports whether index i was mistyped.
func (s State) HasError(i int) bool {
	idx := sort.SearchInts(s.Errors, i)
	return idx < len(s.Errors) && s.Errors[idx] == i
}

// Started reports whether the first key has been accepted.
func (s State) Started() bool {
	return !s.StartedAt.IsZero()
}

// Engine consumes keystrokes against a target text.
type Engine struct {
	text   []rune
	words  []Word
	wordAt []int
	opts   Options

	cursor    int
	errors    map[int]struct{}
	combo     int
	startedAt time.Time
	lastAt    time.Time
	extras    [][]string
	complete  bool
	timeLeft  int
	log       []KeystrokeEvent
	missed    int
	hits      []time.Time
	timeline  []TimelinePoint
	snapshot  stats.Snapshot
	seq       uint64
}

// New parses text and returns an engine ready for the first key.
// Empty text yields an engine that is already complete.
func New(text string, opts Options) *Engine {
	runes := []rune(strings.TrimSpace(text))
	words, wordAt := parseWords(runes)
	e := &Engine{
		text:   runes,
		words:  words,
		wordAt: wordAt,
		opts:   opts,
	}
	e.Reset()
	return e
}

// Reset discards all mutable state, keeping the parsed text.
func (e *Engine) Reset() {
	e.cursor = 0
	e.errors = map[int]struct{}{}
	e.combo = 0
	e.startedAt = time.Time{}
	e.lastAt = time.Time{}
	e.extras = make([][]string, len(e.words))
	e.complete = len(e.text) == 0
	e.timeLeft = int(e.opts.Duration / time.Second)
	e.log = nil
	e.missed = 0
	e.hits = nil
	e.timeline = nil
	e.snapshot = stats.NewSnapshot(stats.Counts{}, 0)
}

// Text returns the target text.
func (e *Engine) Text() string {
	return string(e.text)
}

// Len returns the target length in runes.
func (e *Engine) Len() int {
	return len(e.text)
}

// Words returns the parsed word units.
func (e *Engine) Words() []Word {
	out := make([]Word, len(e.words))
	copy(out, e.words)
	return out
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// KeyDown applies one key press. It returns whether the key was accepted as
// correct together with the resulting state.
func (e *Engine) KeyDown(key string, at time.Time) (bool, State) {
	if e.complete {
		return false, e.State()
	}

	if key == KeyBackspace {
		e.backspace()
		return true, e.State()
	}

	code := ""
	switch key {
	case KeyEnter, KeyTab, KeyEscape:
		code = key
	default:
		if utf8.RuneCountInString(key) != 1 {
			return true, e.State()
		}
	}

	if e.startedAt.IsZero() {
		e.startedAt = at
	}
	e.lastAt = at

	if w, ok := e.activeWord(); ok && e.cursor == w.End() && (key != " " || w.Sep == NoSeparator) {
		e.extras[w.Index] = append(e.extras[w.Index], key)
		return false, e.State()
	}

	expected := string(e.text[e.cursor])
	correct := key == expected

	prev := e.startedAt
	if n := len(e.log); n > 0 {
		prev = e.log[n-1].At
	}
	latency := at.Sub(prev)
	if latency < 0 {
		latency = 0
	}
	e.log = append(e.log, KeystrokeEvent{
		Char:     key,
		Code:     code,
		At:       at,
		Latency:  latency,
		Error:    !correct,
		Expected: expected,
	})

	if correct {
		e.cursor++
		e.combo++
		e.hits = append(e.hits, at)
	} else {
		e.combo = 0
		e.missed++
		e.errors[e.cursor] = struct{}{}
		if !e.opts.StopOnError {
			e.cursor++
		}
	}

	if e.opts.Mode != ModeTimed && e.cursor >= len(e.text) {
		e.complete = true
	}

	e.recompute(at)
	if len(e.log)%timelineEvery == 0 {
		e.timeline = append(e.timeline, TimelinePoint{At: at, WPM: e.snapshot.WPM})
	}
	return correct, e.State()
}

func (e *Engine) backspace() {
	if w, ok := e.activeWord(); ok {
		if extras := e.extras[w.Index]; len(extras) > 0 {
			e.extras[w.Index] = extras[:len(extras)-1]
			return
		}
	}
	if e.cursor > 0 {
		e.cursor--
		// A stop-on-error run may hold a pending error at the old cursor.
		for i := range e.errors {
			if i >= e.cursor {
				delete(e.errors, i)
			}
		}
	}
}

// KeyUp records the hold time of the most recent unreleased press of key.
func (e *Engine) KeyUp(key string, at time.Time) {
	for i := len(e.log) - 1; i >= 0; i-- {
		ev := &e.log[i]
		if ev.Char != key || ev.Released {
			continue
		}
		ev.Hold = at.Sub(ev.At)
		if ev.Hold < 0 {
			ev.Hold = 0
		}
		ev.Released = true
		return
	}
}

// UpdateTimeLeft advances the timer of a timed run and returns the remaining
// whole seconds. It completes the run exactly once, when the time runs out.
func (e *Engine) UpdateTimeLeft(now time.Time) int {
	if e.opts.Mode != ModeTimed || e.startedAt.IsZero() || e.complete {
		return e.timeLeft
	}
	elapsed := int(now.Sub(e.startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	left := int(e.opts.Duration/time.Second) - elapsed
	if left < 0 {
		left = 0
	}
	e.timeLeft = left
	if left == 0 {
		e.complete = true
		e.lastAt = now
		e.recompute(now)
	}
	return e.timeLeft
}

// Complete reports whether the run has finished.
func (e *Engine) Complete() bool {
	return e.complete
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	errs := make([]int, 0, len(e.errors))
	for i := range e.errors {
		errs = append(errs, i)
	}
	sort.Ints(errs)

	extras := map[int][]string{}
	for i, list := range e.extras {
		if len(list) == 0 {
			continue
		}
		extras[i] = append([]string(nil), list...)
	}

	return State{
		Cursor:     e.cursor,
		Errors:     errs,
		Combo:      e.combo,
		StartedAt:  e.startedAt,
		Extras:     extras,
		Complete:   e.complete,
		TimeLeft:   e.timeLeft,
		Keystrokes: len(e.log),
		Stats:      e.snapshot,
	}
}

// Log returns a copy of the keystroke log.
func (e *Engine) Log() []KeystrokeEvent {
	out := make([]KeystrokeEvent, len(e.log))
	copy(out, e.log)
	return out
}

// Timeline returns a copy of the WPM timeline.
func (e *Engine) Timeline() []TimelinePoint {
	out := make([]TimelinePoint, len(e.timeline))
	copy(out, e.timeline)
	return out
}

// Sample copies the counters needed by the live stats worker.
func (e *Engine) Sample() stats.LiveInput {
	e.seq++
	times := make([]time.Time, len(e.hits))
	copy(times, e.hits)
	return stats.LiveInput{
		Seq:       e.seq,
		Cursor:    e.cursor,
		Errors:    len(e.errors),
		TextLen:   len(e.text),
		StartedAt: e.startedAt,
		Times:     times,
	}
}

func (e *Engine) activeWord() (Word, bool) {
	if len(e.words) == 0 || e.cursor >= len(e.wordAt) {
		return Word{}, false
	}
	return e.words[e.wordAt[e.cursor]], true
}

func (e *Engine) recompute(at time.Time) {
	if e.startedAt.IsZero() {
		return
	}
	correct := e.cursor - len(e.errors)
	if correct < 0 {
		correct = 0
	}
	e.snapshot = stats.NewSnapshot(stats.Counts{
		Correct:    correct,
		Errors:     len(e.errors),
		Keystrokes: len(e.log),
		Missed:     e.missed,
	}, at.Sub(e.startedAt))
}
