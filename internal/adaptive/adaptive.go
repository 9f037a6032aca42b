// Package adaptive decides what a learner should practice after a lesson run.
package adaptive

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/keydrill/internal/curriculum"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/weakness"
)

// Decision thresholds.
const (
	RepeatBelowAccuracy = 90
	MasteryAccuracy     = 98
	DefaultTargetWPM    = 30

	WeakAccuracy  = 85
	WeakLatency   = 500 * time.Millisecond
	WeakKeysLimit = 4
	MinDrillKeys  = 3
)

// Drill text shape.
const (
	DrillTokens   = 20
	DrillTokenMax = 4
)

var defaultDrillChars = []string{"f", "j"}

// LessonSource is the lesson lookup the controller needs.
type LessonSource interface {
	Lesson(id int) (curriculum.Lesson, bool)
	After(id int) []curriculum.Lesson
}

// Decision is the outcome of DecideNextStep: Next, Repeat or Drill.
type Decision interface {
	isDecision()
}

// Next moves on to LessonID.
type Next struct {
	LessonID int
}

// Repeat runs the same lesson again.
type Repeat struct{}

// Drill practices Chars before continuing.
type Drill struct {
	Chars []string
}

func (Next) isDecision()   {}
func (Repeat) isDecision() {}
func (Drill) isDecision()  {}

// DrillSpec is a synthesized drill.
type DrillSpec struct {
	Title string
	Text  string
}

// Controller picks the next step and builds drills.
type Controller struct {
	Lessons LessonSource
	rnd     *rand.Rand
}

// New returns a Controller seeded with the current time.
func New(lessons LessonSource) *Controller {
	return NewWithRand(lessons, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Controller drawing drill text from rnd.
func NewWithRand(lessons LessonSource, rnd *rand.Rand) *Controller {
	return &Controller{Lessons: lessons, rnd: rnd}
}

// DecideNextStep applies, in order: low accuracy repeats; enough weak keys in
// the heatmap drill; mastery at the lesson's target speed advances; anything
// else repeats.
func (c *Controller) DecideNextStep(lessonID int, s stats.Snapshot, progress curriculum.Progress, hm weakness.Heatmap) Decision {
	if s.Accuracy < RepeatBelowAccuracy {
		return Repeat{}
	}

	if weak := WeakKeys(hm); len(weak) >= MinDrillKeys {
		return Drill{Chars: weak}
	}

	if s.Accuracy >= MasteryAccuracy && s.WPM >= c.targetWPM(lessonID) {
		if next, ok := c.nextLesson(lessonID, progress); ok {
			return Next{LessonID: next}
		}
	}
	return Repeat{}
}

// WeakKeys returns up to WeakKeysLimit heatmap characters whose accumulated
// accuracy is below WeakAccuracy or whose latency exceeds WeakLatency, most
// errors first. Space counts like any other key; GenerateDrill leaves it out
// of the drill text, which already separates tokens with spaces.
func WeakKeys(hm weakness.Heatmap) []string {
	type entry struct {
		char   string
		errors int
	}
	var entries []entry
	for ch, cw := range hm.Chars {
		if cw.Accuracy() < WeakAccuracy || cw.AvgLatency() > WeakLatency {
			entries = append(entries, entry{char: ch, errors: cw.Errors})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].errors != entries[j].errors {
			return entries[i].errors > entries[j].errors
		}
		return entries[i].char < entries[j].char
	})
	if len(entries) > WeakKeysLimit {
		entries = entries[:WeakKeysLimit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.char
	}
	return out
}

func (c *Controller) targetWPM(lessonID int) int {
	if c.Lessons == nil {
		return DefaultTargetWPM
	}
	if l, ok := c.Lessons.Lesson(lessonID); ok && l.TargetWPM > 0 {
		return l.TargetWPM
	}
	return DefaultTargetWPM
}

// nextLesson prefers the first following lesson not yet completed.
func (c *Controller) nextLesson(lessonID int, progress curriculum.Progress) (int, bool) {
	if c.Lessons == nil {
		return 0, false
	}
	after := c.Lessons.After(lessonID)
	if len(after) == 0 {
		return 0, false
	}
	for _, l := range after {
		if !progress.Completed(l.ID) {
			return l.ID, true
		}
	}
	return after[0].ID, true
}

// GenerateDrill builds DrillTokens space-separated tokens of 1 to
// DrillTokenMax characters drawn from chars, or from f and j when chars is
// empty.
func (c *Controller) GenerateDrill(chars []string) DrillSpec {
	pool := make([]string, 0, len(chars))
	for _, ch := range chars {
		if strings.TrimSpace(ch) != "" {
			pool = append(pool, ch)
		}
	}
	if len(pool) == 0 {
		pool = defaultDrillChars
	}

	tokens := make([]string, 0, DrillTokens)
	for i := 0; i < DrillTokens; i++ {
		n := 1 + c.rnd.Intn(DrillTokenMax)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteString(pool[c.rnd.Intn(len(pool))])
		}
		tokens = append(tokens, b.String())
	}
	return DrillSpec{
		Title: "Drill: " + strings.ToUpper(strings.Join(pool, " ")),
		Text:  strings.Join(tokens, " "),
	}
}
