package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/store"
)

func openReportStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "keydrill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// seedSessions stores one session per WPM value, a minute apart, alternating
// between en and es when mixed is set.
func seedSessions(t *testing.T, st *store.Store, mixed bool, wpms ...int) []int64 {
	t.Helper()
	ids := make([]int64, len(wpms))
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, wpm := range wpms {
		lang := "en"
		if mixed && i%2 == 1 {
			lang = "es"
		}
		start := base.Add(time.Duration(i) * time.Minute)
		rec := model.SessionRecord{
			ID:         fmt.Sprintf("00000000-0000-4000-8000-%012d", i),
			Mode:       "words",
			Lang:       lang,
			StartedAt:  start,
			EndedAt:    start.Add(30 * time.Second),
			WPM:        wpm,
			Accuracy:   95,
			DurationMs: 30000,
			TextLength: 50,
		}
		chars := []model.CharStats{{Char: "a", Correct: 5}, {Char: "b", Correct: 4, Incorrect: 1}}
		id, err := st.InsertSession(context.Background(), rec, chars, nil)
		if err != nil {
			t.Fatalf("insert session %d: %v", i, err)
		}
		ids[i] = id
	}
	return ids
}

func TestBuildReport(t *testing.T) {
	st := openReportStore(t)
	ctx := context.Background()
	ids := seedSessions(t, st, false, 40, 41, 42)
	heat := []model.HeatmapChar{{Char: "b", Presses: 15, Errors: 3, LastTested: time.Unix(200, 0).UTC()}}
	if err := st.SaveHeatmap(ctx, heat, nil); err != nil {
		t.Fatalf("save heatmap: %v", err)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Lang: "en", Last: 2, CurveWindow: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 || report.Sessions[0].SessionID != ids[1] || report.Sessions[1].WPM != 42 {
		t.Fatalf("expected the last two sessions, got %+v", report.Sessions)
	}
	if len(report.WindowSessionIDs) != 1 || report.WindowSessionIDs[0] != ids[2] {
		t.Fatalf("expected window of the newest session, got %v", report.WindowSessionIDs)
	}
	for _, agg := range report.CharAggsWindow {
		if agg.Char == "b" && (agg.Correct != 4 || agg.Incorrect != 1) {
			t.Fatalf("expected char stats of one session, got %+v", agg)
		}
	}
	if len(report.Heatmap) != 1 || report.Heatmap[0].Char != "b" {
		t.Fatalf("unexpected heatmap: %+v", report.Heatmap)
	}
}

func TestBuildReportFiltersLang(t *testing.T) {
	st := openReportStore(t)
	seedSessions(t, st, true, 30, 31, 32, 33)

	report, err := BuildReport(context.Background(), st, model.StatsConfig{Lang: "es", CurveWindow: 20})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 || len(report.WindowSessionIDs) != 2 {
		t.Fatalf("expected two es sessions, got %+v", report.Sessions)
	}
}

func TestBuildReportEmptyStore(t *testing.T) {
	report, err := BuildReport(context.Background(), openReportStore(t), model.StatsConfig{CurveWindow: 5})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 0 || len(report.CharAggsWindow) != 0 || report.WindowSessionIDs != nil {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
