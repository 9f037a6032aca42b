package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %.1f, got %.1f", i, want[i], got[i])
		}
	}
}

func TestSparklineFlat(t *testing.T) {
	if got := Sparkline([]float64{3, 3, 3}); got != "▄▄▄" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if got := Sparkline([]float64{0, 10, 5}); got != "▁█▅" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
}

func TestMovingAverageWindowOne(t *testing.T) {
	in := []float64{1, 5}
	got := MovingAverage(in, 1)
	got[0] = 9
	if in[0] != 1 || got[1] != 5 {
		t.Fatalf("expected an independent copy, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]model.SessionAggregate{
		{WPM: 30, Accuracy: 90, DurationMs: 20000},
		{WPM: 60, Accuracy: 96, DurationMs: 40500},
	})
	if got.Sessions != 2 || got.AvgWPM != 45 || got.BestWPM != 60 || got.AvgAccuracy != 93 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.Typed != 60500*time.Millisecond {
		t.Fatalf("unexpected typed time: %v", got.Typed)
	}
	if (Summarize(nil) != Summary{}) {
		t.Fatalf("expected zero summary for no sessions")
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample: %v", got)
	}
	if got := Resample([]float64{1, 2}, 10); len(got) != 2 {
		t.Fatalf("expected values untouched, got %v", got)
	}
}

func TestSelectWeakCharsSkipsSpaceAndBreaksTiesByLatency(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: " ", Correct: 1, Incorrect: 9},
		{Char: "a", Correct: 8, Incorrect: 2, LatencySumMs: 1000, LatencyCount: 8},
		{Char: "b", Correct: 8, Incorrect: 2, LatencySumMs: 3200, LatencyCount: 8},
		{Char: "c", Correct: 10},
	}
	weak := SelectWeakChars(aggs, 1)
	if _, ok := weak['b']; !ok || len(weak) != 1 {
		t.Fatalf("expected only b, got %v", weak)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	sessions := []model.SessionAggregate{
		{WPM: 40, Accuracy: 90, DurationMs: 30000},
		{WPM: 50, Accuracy: 100, DurationMs: 45000},
	}
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Avg WPM: 45.00", "Best WPM: 50", "Avg Accuracy: 95.00%", "Time typed: 1m15s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTopByFrequency(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "b", Correct: 3, Incorrect: 1},
		{Char: "a", Correct: 2, Incorrect: 2},
		{Char: "c", Correct: 1},
	}
	top := TopByFrequency(aggs, 2)
	if len(top) != 2 || top[0].Char != "a" || top[1].Char != "b" {
		t.Fatalf("unexpected order: %+v", top)
	}
	if got := TopByFrequency(aggs, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %+v", got)
	}
	if aggs[0].Char != "b" {
		t.Fatalf("input should not be reordered")
	}
}
