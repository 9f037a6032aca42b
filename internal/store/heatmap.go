package store

import (
	"context"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"
)

// LoadHeatmap returns the cumulative per-character and per-bigram rows.
func (s *Store) LoadHeatmap(ctx context.Context) ([]model.HeatmapChar, []model.BigramStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT char, presses, errors, latency_sum_ms, latency_count, last_tested FROM heatmap_chars ORDER BY char`)
	if err != nil {
		return nil, nil, err
	}
	var chars []model.HeatmapChar
	for rows.Next() {
		var hc model.HeatmapChar
		var lastTested string
		if err := rows.Scan(&hc.Char, &hc.Presses, &hc.Errors, &hc.LatencySumMs, &hc.LatencyCount, &lastTested); err != nil {
			closeRows(rows)
			return nil, nil, err
		}
		if hc.LastTested, err = time.Parse(time.RFC3339Nano, lastTested); err != nil {
			closeRows(rows)
			return nil, nil, err
		}
		chars = append(chars, hc)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, nil, err
	}
	closeRows(rows)

	brows, err := s.db.QueryContext(ctx,
		`SELECT pair, latency_sum_ms, samples FROM heatmap_bigrams ORDER BY pair`)
	if err != nil {
		return nil, nil, err
	}
	defer closeRows(brows)
	var bigrams []model.BigramStats
	for brows.Next() {
		var bs model.BigramStats
		if err := brows.Scan(&bs.Pair, &bs.LatencySumMs, &bs.Samples); err != nil {
			return nil, nil, err
		}
		bigrams = append(bigrams, bs)
	}
	if err := brows.Err(); err != nil {
		return nil, nil, err
	}
	return chars, bigrams, nil
}

// SaveHeatmap upserts cumulative heatmap rows. Rows are replaced with the
// given totals, never deleted.
func (s *Store) SaveHeatmap(ctx context.Context, chars []model.HeatmapChar, bigrams []model.BigramStats) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, hc := range chars {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO heatmap_chars (char, presses, errors, latency_sum_ms, latency_count, last_tested)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(char) DO UPDATE SET
				presses = excluded.presses,
				errors = excluded.errors,
				latency_sum_ms = excluded.latency_sum_ms,
				latency_count = excluded.latency_count,
				last_tested = excluded.last_tested`,
			hc.Char, hc.Presses, hc.Errors, hc.LatencySumMs, hc.LatencyCount, hc.LastTested.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	for _, bs := range bigrams {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO heatmap_bigrams (pair, latency_sum_ms, samples)
			 VALUES (?, ?, ?)
			 ON CONFLICT(pair) DO UPDATE SET
				latency_sum_ms = excluded.latency_sum_ms,
				samples = excluded.samples`,
			bs.Pair, bs.LatencySumMs, bs.Samples); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadProgress returns the lesson progress table keyed by lesson id.
func (s *Store) LoadProgress(ctx context.Context) (map[int]model.LessonProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id, unlocked, completed, best_wpm, best_accuracy, runs FROM lesson_progress`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	result := map[int]model.LessonProgress{}
	for rows.Next() {
		var lp model.LessonProgress
		if err := rows.Scan(&lp.LessonID, &lp.Unlocked, &lp.Completed, &lp.BestWPM, &lp.BestAccuracy, &lp.Runs); err != nil {
			return nil, err
		}
		result[lp.LessonID] = lp
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveProgress upserts one lesson progress row.
func (s *Store) SaveProgress(ctx context.Context, lp model.LessonProgress) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lesson_progress (lesson_id, unlocked, completed, best_wpm, best_accuracy, runs)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lesson_id) DO UPDATE SET
			unlocked = excluded.unlocked,
			completed = excluded.completed,
			best_wpm = excluded.best_wpm,
			best_accuracy = excluded.best_accuracy,
			runs = excluded.runs`,
		lp.LessonID, lp.Unlocked, lp.Completed, lp.BestWPM, lp.BestAccuracy, lp.Runs)
	return err
}
