package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/stats"
)

func TestRenderFooterFormats(t *testing.T) {
	e := engine.New("abcd", engine.Options{})
	e.KeyDown("a", time.Unix(0, 0))
	e.KeyDown("b", time.Unix(1, 0))
	m := &Model{
		engine:  e,
		live:    stats.LiveStats{RollingWPM: 55, Accuracy: 100},
		hasLast: true,
		lastWPM: 72,
		lastAcc: 98,
		allWPM:  68.1,
		allAcc:  96.9,
		allRuns: 4,
	}
	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Progress 50%", "Now 55 WPM · 100%", "Combo 2", "Last 72 WPM · 98%", "All-time 68.1 WPM · 96.9%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterTimed(t *testing.T) {
	e := engine.New("abcd", engine.Options{Mode: engine.ModeTimed, Duration: 30 * time.Second})
	m := &Model{engine: e}
	out := m.renderFooter()
	if !strings.Contains(out, "Time 30s") {
		t.Fatalf("expected timer segment, got %s", out)
	}
	if strings.Contains(out, "Combo") {
		t.Fatalf("expected no live segments before start, got %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
