package engine

import (
	"github.com/google/uuid"

	"github.com/verte-zerg/keydrill/internal/model"
)

// Record finalizes the run into a SessionRecord. mode names the content mode
// the text came from; lesson is zero outside the curriculum.
func (e *Engine) Record(mode string, lesson int, lang string) model.SessionRecord {
	keys := make([]model.Keystroke, 0, len(e.log))
	for _, ev := range e.log {
		keys = append(keys, model.Keystroke{
			Char:      ev.Char,
			Code:      ev.Code,
			AtMs:      ev.At.Sub(e.startedAt).Milliseconds(),
			LatencyMs: ev.Latency.Milliseconds(),
			HoldMs:    ev.Hold.Milliseconds(),
			Error:     ev.Error,
			Expected:  ev.Expected,
		})
	}
	timeline := make([]model.TimelinePoint, 0, len(e.timeline))
	for _, p := range e.timeline {
		timeline = append(timeline, model.TimelinePoint{At: p.At, WPM: p.WPM})
	}

	var duration int64
	if !e.startedAt.IsZero() && e.lastAt.After(e.startedAt) {
		duration = e.lastAt.Sub(e.startedAt).Milliseconds()
	}

	return model.SessionRecord{
		ID:         uuid.NewString(),
		Mode:       mode,
		Lesson:     lesson,
		Lang:       lang,
		StartedAt:  e.startedAt,
		EndedAt:    e.lastAt,
		WPM:        e.snapshot.WPM,
		RawWPM:     e.snapshot.RawWPM,
		Accuracy:   e.snapshot.Accuracy,
		ErrorCount: len(e.errors),
		DurationMs: duration,
		TextLength: len(e.text),
		Keystrokes: keys,
		Timeline:   timeline,
	}
}
