// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrSessionNotFound is returned by GetSession for an unknown uuid.
var ErrSessionNotFound = errors.New("session not found")

// Store wraps SQLite access for sessions, the heatmap and lesson progress.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating its directory, and
// brings the schema up to date.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			_ = cerr
		}
		return nil, err
	}
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
	"PRAGMA synchronous = NORMAL",
}

// schema is applied in order on every open; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY,
		uuid TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		lesson INTEGER NOT NULL,
		lang TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		wpm INTEGER NOT NULL,
		raw_wpm INTEGER NOT NULL,
		accuracy INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		text_length INTEGER NOT NULL,
		keystrokes TEXT NOT NULL,
		timeline TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_char_stats (
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		char TEXT NOT NULL,
		correct INTEGER NOT NULL,
		incorrect INTEGER NOT NULL,
		latency_sum_ms INTEGER NOT NULL,
		latency_count INTEGER NOT NULL,
		PRIMARY KEY (session_id, char)
	)`,
	`CREATE TABLE IF NOT EXISTS session_bigram_stats (
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		pair TEXT NOT NULL,
		latency_sum_ms INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		PRIMARY KEY (session_id, pair)
	)`,
	`CREATE TABLE IF NOT EXISTS heatmap_chars (
		char TEXT PRIMARY KEY,
		presses INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		latency_sum_ms INTEGER NOT NULL,
		latency_count INTEGER NOT NULL,
		last_tested TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS heatmap_bigrams (
		pair TEXT PRIMARY KEY,
		latency_sum_ms INTEGER NOT NULL,
		samples INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lesson_progress (
		lesson_id INTEGER PRIMARY KEY,
		unlocked INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		best_wpm INTEGER NOT NULL,
		best_accuracy INTEGER NOT NULL,
		runs INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at)`,
	`CREATE INDEX IF NOT EXISTS idx_session_char_stats_char ON session_char_stats(char)`,
}

func (s *Store) migrate() error {
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	for i, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema step %d: %w", i, err)
		}
	}
	return nil
}

// InsertSession stores a finalized session with its per-character and per-bigram stats.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord, chars []model.CharStats, bigrams []model.BigramStats) (id int64, err error) {
	keystrokes, err := json.Marshal(nonNil(rec.Keystrokes))
	if err != nil {
		return 0, fmt.Errorf("failed to encode keystrokes: %w", err)
	}
	timeline, err := json.Marshal(nonNil(rec.Timeline))
	if err != nil {
		return 0, fmt.Errorf("failed to encode timeline: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uuid, mode, lesson, lang, started_at, ended_at, wpm, raw_wpm, accuracy, error_count, duration_ms, text_length, keystrokes, timeline)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Mode,
		rec.Lesson,
		rec.Lang,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.WPM,
		rec.RawWPM,
		rec.Accuracy,
		rec.ErrorCount,
		rec.DurationMs,
		rec.TextLength,
		string(keystrokes),
		string(timeline),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, cs := range chars {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO session_char_stats (session_id, char, correct, incorrect, latency_sum_ms, latency_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, cs.Char, cs.Correct, cs.Incorrect, cs.LatencySumMs, cs.LatencyCount); err != nil {
			return 0, err
		}
	}
	for _, bs := range bigrams {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO session_bigram_stats (session_id, pair, latency_sum_ms, samples)
			 VALUES (?, ?, ?, ?)`,
			id, bs.Pair, bs.LatencySumMs, bs.Samples); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetSession loads a full session record by its UUID.
func (s *Store) GetSession(ctx context.Context, uuid string) (model.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT uuid, mode, lesson, lang, started_at, ended_at, wpm, raw_wpm, accuracy, error_count, duration_ms, text_length, keystrokes, timeline
		 FROM sessions WHERE uuid = ?`, uuid)
	var rec model.SessionRecord
	var startedAt, endedAt, keystrokes, timeline string
	if err := row.Scan(&rec.ID, &rec.Mode, &rec.Lesson, &rec.Lang, &startedAt, &endedAt,
		&rec.WPM, &rec.RawWPM, &rec.Accuracy, &rec.ErrorCount, &rec.DurationMs, &rec.TextLength,
		&keystrokes, &timeline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SessionRecord{}, ErrSessionNotFound
		}
		return model.SessionRecord{}, err
	}
	var err error
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.SessionRecord{}, err
	}
	if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return model.SessionRecord{}, err
	}
	if err := json.Unmarshal([]byte(keystrokes), &rec.Keystrokes); err != nil {
		return model.SessionRecord{}, fmt.Errorf("failed to decode keystrokes: %w", err)
	}
	if err := json.Unmarshal([]byte(timeline), &rec.Timeline); err != nil {
		return model.SessionRecord{}, fmt.Errorf("failed to decode timeline: %w", err)
	}
	return rec, nil
}

// GetWeakChars aggregates character stats over the most recent sessions.
func (s *Store) GetWeakChars(ctx context.Context, window int, lang string) ([]model.CharAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		WHERE (? = '' OR lang = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT cs.char, SUM(cs.correct) AS correct, SUM(cs.incorrect) AS incorrect,
		SUM(cs.latency_sum_ms) AS latency_sum_ms, SUM(cs.latency_count) AS latency_count
	FROM session_char_stats cs
	JOIN recent_sessions r ON r.id = cs.session_id
	GROUP BY cs.char`

	rows, err := s.db.QueryContext(ctx, query, lang, lang, window)
	if err != nil {
		return nil, err
	}
	return scanCharAggregates(rows)
}

// ListSessions returns session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Lang != "" {
		clauses = append(clauses, "lang = ?")
		args = append(args, cfg.Lang)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, uuid, mode, ended_at, wpm, accuracy, error_count, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.UUID, &agg.Mode, &endedAt, &agg.WPM, &agg.Accuracy, &agg.ErrorCount, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListCharAggregatesForSessions aggregates per-character stats across sessions.
func (s *Store) ListCharAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.CharAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT char, SUM(correct) AS correct, SUM(incorrect) AS incorrect,
		SUM(latency_sum_ms) AS latency_sum_ms, SUM(latency_count) AS latency_count
		FROM session_char_stats
		WHERE session_id IN (%s)
		GROUP BY char`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanCharAggregates(rows)
}

func scanCharAggregates(rows *sql.Rows) ([]model.CharAggregate, error) {
	defer closeRows(rows)
	var result []model.CharAggregate
	for rows.Next() {
		var agg model.CharAggregate
		if err := rows.Scan(&agg.Char, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
