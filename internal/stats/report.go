package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/keydrill/internal/model"
	"github.com/verte-zerg/keydrill/internal/store"
)

// Report is everything the stats views render, loaded in one pass.
type Report struct {
	Sessions []model.SessionAggregate
	// WindowSessionIDs are the last CurveWindow sessions, the scope of
	// CharAggsWindow.
	WindowSessionIDs []int64
	CharAggsWindow   []model.CharAggregate
	// Heatmap and Bigrams are lifetime totals and ignore the filters.
	Heatmap []model.HeatmapChar
	Bigrams []model.BigramStats
}

// BuildReport reads sessions matching cfg, keeps the last cfg.Last of them
// and aggregates per-character stats over the trailing curve window.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	var (
		r   Report
		err error
	)
	if r.Sessions, err = st.ListSessions(ctx, cfg); err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	r.Sessions = tail(r.Sessions, cfg.Last)

	for _, s := range tail(r.Sessions, cfg.CurveWindow) {
		r.WindowSessionIDs = append(r.WindowSessionIDs, s.SessionID)
	}
	if r.CharAggsWindow, err = st.ListCharAggregatesForSessions(ctx, r.WindowSessionIDs); err != nil {
		return Report{}, fmt.Errorf("failed to load char stats: %w", err)
	}
	if r.Heatmap, r.Bigrams, err = st.LoadHeatmap(ctx); err != nil {
		return Report{}, fmt.Errorf("failed to load heatmap: %w", err)
	}
	return r, nil
}

// tail returns the last n items, or all of them when n <= 0.
func tail[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
