// Package stats turns keystroke counts and stored sessions into typing
// metrics, trends and printable reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// MovingAverage smooths values with a trailing mean over window points. The
// first points average over what is available.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	prefix := make([]float64, len(values)+1)
	for i, v := range values {
		prefix[i+1] = prefix[i] + v
	}
	for i := range values {
		from := max(0, i+1-window)
		out[i] = (prefix[i+1] - prefix[from]) / float64(i+1-from)
	}
	return out
}

// Sparkline maps values onto block characters scaled between their min and
// max. A flat series renders at mid height.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	top := len(sparkBlocks) - 1
	out := make([]rune, len(values))
	for i, v := range values {
		level := top / 2
		if hi-lo > 1e-9 {
			level = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		out[i] = sparkBlocks[min(max(level, 0), top)]
	}
	return string(out)
}

// Resample shrinks values to at most width points by averaging buckets.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return append([]float64(nil), values...)
	}
	out := make([]float64, width)
	for i := range out {
		lo := i * len(values) / width
		hi := max((i+1)*len(values)/width, lo+1)
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// Summary condenses a list of sessions.
type Summary struct {
	Sessions    int
	AvgWPM      float64
	BestWPM     int
	AvgAccuracy float64
	Typed       time.Duration
}

// Summarize averages sessions. An empty list yields the zero Summary.
func Summarize(sessions []model.SessionAggregate) Summary {
	var s Summary
	if len(sessions) == 0 {
		return s
	}
	for _, sess := range sessions {
		s.AvgWPM += float64(sess.WPM)
		s.AvgAccuracy += float64(sess.Accuracy)
		s.BestWPM = max(s.BestWPM, sess.WPM)
		s.Typed += time.Duration(sess.DurationMs) * time.Millisecond
	}
	s.Sessions = len(sessions)
	s.AvgWPM /= float64(s.Sessions)
	s.AvgAccuracy /= float64(s.Sessions)
	return s
}

// RenderSummary prints the Summary of sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	s := Summarize(sessions)
	_, err := fmt.Fprintf(w, "Summary\nSessions: %d\nAvg WPM: %.2f\nBest WPM: %d\nAvg Accuracy: %.2f%%\nTime typed: %s\n\n",
		s.Sessions, s.AvgWPM, s.BestWPM, s.AvgAccuracy, formatMinutes(s.Typed))
	return err
}

// RenderTrend prints WPM and accuracy sparklines over sessions, smoothed by
// window and squeezed into width columns.
func RenderTrend(w io.Writer, sessions []model.SessionAggregate, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	series := func(pick func(model.SessionAggregate) int) string {
		values := make([]float64, len(sessions))
		for i, s := range sessions {
			values[i] = float64(pick(s))
		}
		return Sparkline(Resample(MovingAverage(values, window), width))
	}
	wpm := series(func(s model.SessionAggregate) int { return s.WPM })
	acc := series(func(s model.SessionAggregate) int { return s.Accuracy })
	_, err := fmt.Fprintf(w, "WPM      %s\nAccuracy %s\n\n", wpm, acc)
	return err
}

// RenderCharTable prints per-character aggregates, least accurate first.
func RenderCharTable(w io.Writer, title string, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	sorted := append([]model.CharAggregate(nil), aggs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, aj := accuracy(sorted[i]), accuracy(sorted[j])
		if ai != aj {
			return ai < aj
		}
		return sorted[i].Char < sorted[j].Char
	})

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	rows := make([][]string, len(sorted))
	for i, agg := range sorted {
		rows[i] = []string{
			CharLabel(agg.Char),
			fmt.Sprintf("%.2f%%", accuracy(agg)*100),
			fmt.Sprintf("%.1f", avgLatency(agg)),
			fmt.Sprint(agg.Correct),
			fmt.Sprint(agg.Incorrect),
		}
	}
	headers := []string{"Char", "Accuracy", "Avg Latency (ms)", "Correct", "Incorrect"}
	return WriteTable(w, headers, rows, 1, 2, 3, 4)
}

// CharLabel makes whitespace visible in tables.
func CharLabel(ch string) string {
	return strings.ReplaceAll(ch, " ", "<space>")
}

func avgLatency(agg model.CharAggregate) float64 {
	if agg.LatencyCount == 0 {
		return 0
	}
	return float64(agg.LatencySumMs) / float64(agg.LatencyCount)
}

func formatMinutes(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%dm%02ds", int(d/time.Minute), int(d%time.Minute/time.Second))
}
