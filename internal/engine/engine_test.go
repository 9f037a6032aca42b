package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func typeKeys(e *Engine, keys []string, start time.Time, step time.Duration) time.Time {
	at := start
	for _, k := range keys {
		e.KeyDown(k, at)
		at = at.Add(step)
	}
	return at
}

func split(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func TestParseWords(t *testing.T) {
	words, lookup := parseWords([]rune("ab cde f"))
	require.Len(t, words, 3)

	assert.Equal(t, 0, words[0].Start)
	assert.Equal(t, 2, words[0].Sep)
	assert.Equal(t, 3, words[1].Start)
	assert.Equal(t, 6, words[1].Sep)
	assert.Equal(t, NoSeparator, words[2].Sep)
	assert.Equal(t, 8, words[2].End())

	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 1, 2, 2}, lookup)
}

func TestParseWordsDoubleSpace(t *testing.T) {
	words, lookup := parseWords([]rune("a  b"))
	require.Len(t, words, 3)
	assert.Empty(t, words[1].Chars)
	assert.Equal(t, 2, words[1].Start)
	assert.Equal(t, 2, words[1].Sep)
	assert.Len(t, lookup, 5)
}

func TestNewEmptyTextIsComplete(t *testing.T) {
	e := New("   ", Options{})
	assert.True(t, e.Complete())

	ok, st := e.KeyDown("a", t0)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Cursor)
	assert.Empty(t, e.Log())

	e.Reset()
	assert.True(t, e.Complete())
}

func TestFixedModeCompletesOnLastChar(t *testing.T) {
	e := New("ab cd", Options{})
	typeKeys(e, split("ab c"), t0, 100*time.Millisecond)
	assert.False(t, e.Complete())

	ok, st := e.KeyDown("d", t0.Add(time.Second))
	assert.True(t, ok)
	assert.True(t, st.Complete)
	assert.Equal(t, 5, st.Cursor)
	assert.Equal(t, 5, st.Combo)

	ok, st = e.KeyDown("x", t0.Add(2*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 5, st.Cursor)
	assert.Len(t, e.Log(), 5)
}

func TestErrorAdvancesWithoutStopOnError(t *testing.T) {
	e := New("abc", Options{})
	e.KeyDown("a", t0)
	ok, st := e.KeyDown("x", t0.Add(100*time.Millisecond))
	assert.False(t, ok)
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, []int{1}, st.Errors)
	assert.Equal(t, 0, st.Combo)

	log := e.Log()
	require.Len(t, log, 2)
	assert.True(t, log[1].Error)
	assert.Equal(t, "b", log[1].Expected)
	assert.Equal(t, 100*time.Millisecond, log[1].Latency)
}

func TestErrorHoldsCursorWithStopOnError(t *testing.T) {
	e := New("abc", Options{StopOnError: true})
	e.KeyDown("a", t0)
	ok, st := e.KeyDown("x", t0.Add(100*time.Millisecond))
	assert.False(t, ok)
	assert.Equal(t, 1, st.Cursor)
	assert.True(t, st.HasError(1))

	ok, st = e.KeyDown("b", t0.Add(200*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, []int{1}, st.Errors)
	assert.Equal(t, 1, st.Combo)
}

func TestCursorAndErrorInvariants(t *testing.T) {
	e := New("the quick fox", Options{})
	keys := split("thx quack") // mix of hits and misses
	keys = append(keys, KeyBackspace, KeyBackspace, "c", "k", " ", "f", "o", "o")
	at := t0
	prev := 0
	for _, k := range keys {
		_, st := e.KeyDown(k, at)
		at = at.Add(90 * time.Millisecond)
		require.GreaterOrEqual(t, st.Cursor, 0)
		require.LessOrEqual(t, st.Cursor, e.Len())
		require.GreaterOrEqual(t, st.Combo, 0)
		for _, idx := range st.Errors {
			require.Less(t, idx, st.Cursor)
		}
		if k != KeyBackspace {
			require.GreaterOrEqual(t, st.Cursor, prev)
		}
		prev = st.Cursor
	}
}

func TestComboResetsOnlyOnLoggedError(t *testing.T) {
	e := New("ab cd", Options{})
	e.KeyDown("a", t0)
	_, st := e.KeyDown("b", t0.Add(time.Millisecond))
	require.Equal(t, 2, st.Combo)

	// Extras are not logged and leave the combo alone.
	_, st = e.KeyDown("z", t0.Add(2*time.Millisecond))
	assert.Equal(t, 2, st.Combo)
	_, st = e.KeyDown(KeyBackspace, t0.Add(3*time.Millisecond))
	assert.Equal(t, 2, st.Combo)

	_, st = e.KeyDown(" ", t0.Add(4*time.Millisecond))
	assert.Equal(t, 3, st.Combo)
	_, st = e.KeyDown("q", t0.Add(5*time.Millisecond))
	assert.Equal(t, 0, st.Combo)
}

func TestExtrasAtWordEnd(t *testing.T) {
	e := New("ab cd", Options{})
	typeKeys(e, split("ab"), t0, 50*time.Millisecond)

	ok, st := e.KeyDown("x", t0.Add(time.Second))
	assert.False(t, ok)
	ok, st = e.KeyDown("y", t0.Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, map[int][]string{0: {"x", "y"}}, st.Extras)
	assert.Empty(t, st.Errors)
	assert.Len(t, e.Log(), 2)

	ok, st = e.KeyDown(KeyBackspace, t0.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, map[int][]string{0: {"x"}}, st.Extras)

	e.KeyDown(KeyBackspace, t0.Add(time.Second))
	_, st = e.KeyDown(KeyBackspace, t0.Add(time.Second))
	assert.Equal(t, 1, st.Cursor)
	assert.Empty(t, st.Extras)
}

func TestSpaceAtWordEndIsLogged(t *testing.T) {
	e := New("ab cd", Options{})
	typeKeys(e, split("ab "), t0, 50*time.Millisecond)
	st := e.State()
	assert.Equal(t, 3, st.Cursor)
	assert.Len(t, e.Log(), 3)
}

func TestBackspaceClearsError(t *testing.T) {
	e := New("abc", Options{})
	e.KeyDown("a", t0)
	e.KeyDown("x", t0.Add(time.Millisecond))
	ok, st := e.KeyDown(KeyBackspace, t0.Add(2*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, 1, st.Cursor)
	assert.Empty(t, st.Errors)
	// The logged keystroke stays.
	assert.Len(t, e.Log(), 2)
}

func TestBackspaceAtStartIsNoop(t *testing.T) {
	e := New("abc", Options{})
	ok, st := e.KeyDown(KeyBackspace, t0)
	assert.True(t, ok)
	assert.Equal(t, 0, st.Cursor)
	assert.False(t, st.Started())
}

func TestIgnoredKeyNames(t *testing.T) {
	e := New("abc", Options{})
	ok, st := e.KeyDown("Shift", t0)
	assert.True(t, ok)
	assert.False(t, st.Started())
	assert.Empty(t, e.Log())

	ok, _ = e.KeyDown(KeyEnter, t0)
	assert.False(t, ok)
	log := e.Log()
	require.Len(t, log, 1)
	assert.Equal(t, KeyEnter, log[0].Code)
}

func TestTimedModeExtrasPastEnd(t *testing.T) {
	e := New("ab", Options{Mode: ModeTimed, Duration: 30 * time.Second})
	typeKeys(e, split("ab"), t0, 100*time.Millisecond)
	assert.False(t, e.Complete())

	ok, st := e.KeyDown(" ", t0.Add(time.Second))
	assert.False(t, ok)
	ok, st = e.KeyDown("c", t0.Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, map[int][]string{0: {" ", "c"}}, st.Extras)
}

func TestUpdateTimeLeft(t *testing.T) {
	e := New("ab cd ef", Options{Mode: ModeTimed, Duration: 10 * time.Second})
	assert.Equal(t, 10, e.UpdateTimeLeft(t0))

	e.KeyDown("a", t0)
	assert.Equal(t, 10, e.UpdateTimeLeft(t0.Add(900*time.Millisecond)))
	assert.Equal(t, 7, e.UpdateTimeLeft(t0.Add(3500*time.Millisecond)))
	assert.False(t, e.Complete())

	assert.Equal(t, 0, e.UpdateTimeLeft(t0.Add(12*time.Second)))
	assert.True(t, e.Complete())
	assert.Equal(t, 12*time.Second, e.State().Stats.Elapsed)

	// Later ticks do not move anything.
	assert.Equal(t, 0, e.UpdateTimeLeft(t0.Add(20*time.Second)))
	assert.Equal(t, 12*time.Second, e.State().Stats.Elapsed)
}

func TestUpdateTimeLeftIgnoredInFixedMode(t *testing.T) {
	e := New("abc", Options{Duration: 5 * time.Second})
	e.KeyDown("a", t0)
	assert.Equal(t, 5, e.UpdateTimeLeft(t0.Add(time.Hour)))
	assert.False(t, e.Complete())
}

func TestKeyUpSetsHold(t *testing.T) {
	e := New("aba", Options{})
	e.KeyDown("a", t0)
	e.KeyDown("b", t0.Add(100*time.Millisecond))
	e.KeyDown("a", t0.Add(200*time.Millisecond))

	e.KeyUp("a", t0.Add(260*time.Millisecond))
	e.KeyUp("a", t0.Add(300*time.Millisecond))
	e.KeyUp("z", t0.Add(300*time.Millisecond))

	log := e.Log()
	assert.Equal(t, 60*time.Millisecond, log[2].Hold)
	assert.True(t, log[2].Released)
	assert.Equal(t, 300*time.Millisecond, log[0].Hold)
	assert.False(t, log[1].Released)
}

func TestTimelineEveryFifthKeystroke(t *testing.T) {
	e := New("abcdefghijkl", Options{})
	typeKeys(e, split("abcdefghij"), t0, 200*time.Millisecond)
	tl := e.Timeline()
	require.Len(t, tl, 2)
	assert.Equal(t, t0.Add(800*time.Millisecond), tl[0].At)
	assert.Equal(t, t0.Add(1800*time.Millisecond), tl[1].At)
}

func TestSnapshotAfterRun(t *testing.T) {
	e := New("hello world", Options{})
	// 11 keys over 6 seconds with one miss.
	keys := split("hellp world")
	typeKeys(e, keys, t0, 600*time.Millisecond)

	st := e.State()
	require.True(t, st.Complete)
	assert.Equal(t, 10, st.Stats.Correct)
	assert.Equal(t, 1, st.Stats.Errors)
	assert.Equal(t, 11, st.Stats.Total)
	assert.Equal(t, 91, st.Stats.Accuracy)
	assert.Equal(t, 20, st.Stats.WPM)
	assert.Equal(t, 22, st.Stats.RawWPM)
}

func TestResetRestoresInitialState(t *testing.T) {
	e := New("ab cd", Options{Mode: ModeTimed, Duration: 15 * time.Second})
	typeKeys(e, split("ax zz"), t0, 100*time.Millisecond)
	e.UpdateTimeLeft(t0.Add(16 * time.Second))
	require.True(t, e.Complete())

	e.Reset()
	st := e.State()
	assert.False(t, st.Complete)
	assert.Equal(t, 0, st.Cursor)
	assert.Empty(t, st.Errors)
	assert.Empty(t, st.Extras)
	assert.False(t, st.Started())
	assert.Equal(t, 15, st.TimeLeft)
	assert.Empty(t, e.Log())
	assert.Empty(t, e.Timeline())
	assert.Equal(t, 100, st.Stats.Accuracy)
}

func TestStateIsCopy(t *testing.T) {
	e := New("ab cd", Options{})
	typeKeys(e, split("axz"), t0, 100*time.Millisecond)
	st := e.State()
	st.Errors[0] = 99
	st.Extras[0][0] = "q"

	again := e.State()
	assert.Equal(t, []int{1}, again.Errors)
	assert.Equal(t, "z", again.Extras[0][0])
}

func TestSampleIsIndependent(t *testing.T) {
	e := New("abc", Options{})
	e.KeyDown("a", t0)
	s1 := e.Sample()
	e.KeyDown("b", t0.Add(time.Second))
	s2 := e.Sample()

	assert.Len(t, s1.Times, 1)
	assert.Len(t, s2.Times, 2)
	assert.Less(t, s1.Seq, s2.Seq)
	assert.Equal(t, 3, s2.TextLen)
}

func TestRecord(t *testing.T) {
	e := New("ab", Options{})
	e.KeyDown("a", t0)
	e.KeyDown("c", t0.Add(300*time.Millisecond))
	e.KeyUp("c", t0.Add(350*time.Millisecond))

	rec := e.Record("words", 0, "en")
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "words", rec.Mode)
	assert.Equal(t, "en", rec.Lang)
	assert.Equal(t, int64(300), rec.DurationMs)
	assert.Equal(t, 1, rec.ErrorCount)
	assert.Equal(t, 2, rec.TextLength)
	require.Len(t, rec.Keystrokes, 2)
	assert.Equal(t, int64(300), rec.Keystrokes[1].AtMs)
	assert.Equal(t, int64(50), rec.Keystrokes[1].HoldMs)
	assert.True(t, rec.Keystrokes[1].Error)
	assert.Equal(t, "b", rec.Keystrokes[1].Expected)

	other := e.Record("words", 0, "en")
	assert.NotEqual(t, rec.ID, other.ID)
}
