package weakness

import (
	"sort"
	"time"

	"github.com/verte-zerg/keydrill/internal/model"
)

// CharWeakness is the accumulated record of one character across sessions.
type CharWeakness struct {
	CharStat
	LastTested time.Time
}

// Heatmap accumulates weakness across sessions. Entries are never removed.
type Heatmap struct {
	Chars   map[string]CharWeakness
	Bigrams map[string]BigramStat
}

// NewHeatmap returns an empty heatmap.
func NewHeatmap() Heatmap {
	return Heatmap{
		Chars:   map[string]CharWeakness{},
		Bigrams: map[string]BigramStat{},
	}
}

// Update folds a session into the heatmap. Accuracy and latency are derived
// from the accumulated totals, so two updates equal one update with the
// summed counts.
func (h *Heatmap) Update(s Session) {
	if h.Chars == nil {
		h.Chars = map[string]CharWeakness{}
	}
	if h.Bigrams == nil {
		h.Bigrams = map[string]BigramStat{}
	}
	for ch, cs := range s.Chars {
		cw := h.Chars[ch]
		cw.Presses += cs.Presses
		cw.Errors += cs.Errors
		cw.LatencySum += cs.LatencySum
		cw.LatencyCount += cs.LatencyCount
		if s.At.After(cw.LastTested) {
			cw.LastTested = s.At
		}
		h.Chars[ch] = cw
	}
	for pair, bs := range s.Bigrams {
		acc := h.Bigrams[pair]
		acc.LatencySum += bs.LatencySum
		acc.Samples += bs.Samples
		h.Bigrams[pair] = acc
	}
}

// CharStats returns the per-character totals, for ranking with EnemyKeys.
func (h Heatmap) CharStats() map[string]CharStat {
	out := make(map[string]CharStat, len(h.Chars))
	for ch, cw := range h.Chars {
		out[ch] = cw.CharStat
	}
	return out
}

// FromRows rebuilds a heatmap from persisted rows.
func FromRows(chars []model.HeatmapChar, bigrams []model.BigramStats) Heatmap {
	h := NewHeatmap()
	for _, row := range chars {
		h.Chars[row.Char] = CharWeakness{
			CharStat: CharStat{
				Presses:      row.Presses,
				Errors:       row.Errors,
				LatencySum:   time.Duration(row.LatencySumMs) * time.Millisecond,
				LatencyCount: int(row.LatencyCount),
			},
			LastTested: row.LastTested,
		}
	}
	for _, row := range bigrams {
		h.Bigrams[row.Pair] = BigramStat{
			LatencySum: time.Duration(row.LatencySumMs) * time.Millisecond,
			Samples:    int(row.Samples),
		}
	}
	return h
}

// Rows converts the heatmap to persisted rows, sorted by key.
func (h Heatmap) Rows() ([]model.HeatmapChar, []model.BigramStats) {
	chars := make([]model.HeatmapChar, 0, len(h.Chars))
	for ch, cw := range h.Chars {
		chars = append(chars, model.HeatmapChar{
			Char:         ch,
			Presses:      cw.Presses,
			Errors:       cw.Errors,
			LatencySumMs: cw.LatencySum.Milliseconds(),
			LatencyCount: int64(cw.LatencyCount),
			LastTested:   cw.LastTested,
		})
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i].Char < chars[j].Char })
	bigrams := SessionBigramRows(h.Bigrams)
	return chars, bigrams
}

// SessionCharRows converts one session's character stats for the store.
func SessionCharRows(s Session) []model.CharStats {
	rows := make([]model.CharStats, 0, len(s.Chars))
	for ch, cs := range s.Chars {
		rows = append(rows, model.CharStats{
			Char:         ch,
			Correct:      cs.Presses - cs.Errors,
			Incorrect:    cs.Errors,
			LatencySumMs: cs.LatencySum.Milliseconds(),
			LatencyCount: int64(cs.LatencyCount),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Char < rows[j].Char })
	return rows
}

// SessionBigramRows converts bigram stats for the store.
func SessionBigramRows(bigrams map[string]BigramStat) []model.BigramStats {
	rows := make([]model.BigramStats, 0, len(bigrams))
	for pair, bs := range bigrams {
		rows = append(rows, model.BigramStats{
			Pair:         pair,
			LatencySumMs: bs.LatencySum.Milliseconds(),
			Samples:      int64(bs.Samples),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Pair < rows[j].Pair })
	return rows
}
