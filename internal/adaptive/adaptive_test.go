package adaptive

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/keydrill/internal/curriculum"
	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/weakness"
)

type fakeLessons []curriculum.Lesson

func (f fakeLessons) Lesson(id int) (curriculum.Lesson, bool) {
	for _, l := range f {
		if l.ID == id {
			return l, true
		}
	}
	return curriculum.Lesson{}, false
}

func (f fakeLessons) After(id int) []curriculum.Lesson {
	var out []curriculum.Lesson
	for _, l := range f {
		if l.ID > id {
			out = append(out, l)
		}
	}
	return out
}

var lessons = fakeLessons{
	{ID: 1, TargetWPM: 20},
	{ID: 2},
	{ID: 3},
}

func newController() *Controller {
	return NewWithRand(lessons, rand.New(rand.NewSource(7)))
}

func heatmapWith(entries map[string]weakness.CharStat) weakness.Heatmap {
	hm := weakness.NewHeatmap()
	hm.Update(weakness.Session{At: time.Unix(0, 0), Chars: entries})
	return hm
}

func weakHeatmap() weakness.Heatmap {
	return heatmapWith(map[string]weakness.CharStat{
		"a": {Presses: 10, Errors: 5},
		"s": {Presses: 10, Errors: 4},
		"d": {Presses: 10, Errors: 2},
		"f": {Presses: 10, Errors: 6},
		"g": {Presses: 10, Errors: 3},
		"h": {Presses: 10, Errors: 0, LatencySum: 10 * 100 * time.Millisecond, LatencyCount: 10},
	})
}

func TestDecideRepeatsOnLowAccuracy(t *testing.T) {
	c := newController()
	got := c.DecideNextStep(1, stats.Snapshot{Accuracy: 85, WPM: 80}, curriculum.Progress{}, weakHeatmap())
	assert.Equal(t, Repeat{}, got)
}

func TestDecideDrillsOnWeakKeys(t *testing.T) {
	c := newController()
	got := c.DecideNextStep(1, stats.Snapshot{Accuracy: 92, WPM: 40}, curriculum.Progress{}, weakHeatmap())
	drill, ok := got.(Drill)
	require.True(t, ok, "expected drill, got %#v", got)
	// Ranked by error count, top four. d has 80% accuracy and is fifth.
	assert.Equal(t, []string{"f", "a", "s", "g"}, drill.Chars)
}

func TestDecideDrillOutranksMastery(t *testing.T) {
	c := newController()
	got := c.DecideNextStep(1, stats.Snapshot{Accuracy: 100, WPM: 90}, curriculum.Progress{}, weakHeatmap())
	assert.IsType(t, Drill{}, got)
}

func TestDecideNextOnMastery(t *testing.T) {
	c := newController()
	got := c.DecideNextStep(1, stats.Snapshot{Accuracy: 99, WPM: 20}, curriculum.Progress{}, weakness.NewHeatmap())
	assert.Equal(t, Next{LessonID: 2}, got)
}

func TestDecideNextSkipsCompleted(t *testing.T) {
	c := newController()
	progress := curriculum.Progress{2: model.LessonProgress{LessonID: 2, Completed: true}}
	got := c.DecideNextStep(1, stats.Snapshot{Accuracy: 99, WPM: 25}, progress, weakness.NewHeatmap())
	assert.Equal(t, Next{LessonID: 3}, got)

	progress[3] = model.LessonProgress{LessonID: 3, Completed: true}
	got = c.DecideNextStep(1, stats.Snapshot{Accuracy: 99, WPM: 25}, progress, weakness.NewHeatmap())
	assert.Equal(t, Next{LessonID: 2}, got)
}

func TestDecideDefaultTargetWPM(t *testing.T) {
	c := newController()
	// Lesson 2 has no target, so 30 applies.
	got := c.DecideNextStep(2, stats.Snapshot{Accuracy: 99, WPM: 29}, curriculum.Progress{}, weakness.NewHeatmap())
	assert.Equal(t, Repeat{}, got)
	got = c.DecideNextStep(2, stats.Snapshot{Accuracy: 99, WPM: 30}, curriculum.Progress{}, weakness.NewHeatmap())
	assert.Equal(t, Next{LessonID: 3}, got)
}

func TestDecideRepeatsAtLastLesson(t *testing.T) {
	c := newController()
	got := c.DecideNextStep(3, stats.Snapshot{Accuracy: 100, WPM: 100}, curriculum.Progress{}, weakness.NewHeatmap())
	assert.Equal(t, Repeat{}, got)
}

func TestDecideRepeatsWhenSlow(t *testing.T) {
	c := newController()
	hm := heatmapWith(map[string]weakness.CharStat{
		"a": {Presses: 10, Errors: 5},
		"s": {Presses: 10, Errors: 4},
	})
	got := c.DecideNextStep(1, stats.Snapshot{Accuracy: 92, WPM: 10}, curriculum.Progress{}, hm)
	assert.Equal(t, Repeat{}, got)
}

func TestWeakKeysIncludesSlowKeys(t *testing.T) {
	hm := heatmapWith(map[string]weakness.CharStat{
		"k": {Presses: 4, LatencySum: 4 * 600 * time.Millisecond, LatencyCount: 4},
		" ": {Presses: 10, Errors: 9},
	})
	assert.Equal(t, []string{" ", "k"}, WeakKeys(hm))
}

func TestDecideDrillCountsSpace(t *testing.T) {
	c := newController()
	hm := heatmapWith(map[string]weakness.CharStat{
		" ": {Presses: 10, Errors: 5},
		"q": {Presses: 10, Errors: 4},
		"z": {Presses: 10, Errors: 3},
	})
	got := c.DecideNextStep(1, stats.Snapshot{Accuracy: 95, WPM: 40}, curriculum.Progress{}, hm)
	require.Equal(t, Drill{Chars: []string{" ", "q", "z"}}, got)

	spec := c.GenerateDrill(got.(Drill).Chars)
	assert.Equal(t, "Drill: Q Z", spec.Title)
	for _, tok := range strings.Fields(spec.Text) {
		assert.Empty(t, strings.Trim(tok, "qz"))
	}
}

func TestGenerateDrill(t *testing.T) {
	c := newController()
	spec := c.GenerateDrill([]string{"a", "s", "d"})
	tokens := strings.Split(spec.Text, " ")
	require.Len(t, tokens, DrillTokens)
	for _, tok := range tokens {
		assert.GreaterOrEqual(t, len(tok), 1)
		assert.LessOrEqual(t, len(tok), DrillTokenMax)
		assert.Empty(t, strings.Trim(tok, "asd"))
	}
	assert.Equal(t, "Drill: A S D", spec.Title)
}

func TestGenerateDrillDefaultsToHomeKeys(t *testing.T) {
	c := newController()
	spec := c.GenerateDrill(nil)
	assert.Empty(t, strings.Trim(strings.ReplaceAll(spec.Text, " ", ""), "fj"))
	assert.Len(t, strings.Fields(spec.Text), DrillTokens)
}
