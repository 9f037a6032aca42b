package stats

import (
	"sort"

	"github.com/verte-zerg/keydrill/internal/model"
)

// SelectWeakChars picks the top lowest-accuracy characters as the weak set
// for smart mode. Whitespace never qualifies. Ties go to the slower
// character. top <= 0 keeps every candidate.
func SelectWeakChars(aggs []model.CharAggregate, top int) map[rune]struct{} {
	ranked := make([]model.CharAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Char != "" && agg.Char != " " {
			ranked = append(ranked, agg)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ai, aj := accuracy(ranked[i]), accuracy(ranked[j]); ai != aj {
			return ai < aj
		}
		if li, lj := avgLatency(ranked[i]), avgLatency(ranked[j]); li != lj {
			return li > lj
		}
		return ranked[i].Char < ranked[j].Char
	})
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}

	weak := make(map[rune]struct{}, len(ranked))
	for _, agg := range ranked {
		for _, r := range agg.Char {
			weak[r] = struct{}{}
			break
		}
	}
	return weak
}

// TopByFrequency returns the n most practiced characters, most presses
// first.
func TopByFrequency(aggs []model.CharAggregate, n int) []model.CharAggregate {
	if n <= 0 {
		return nil
	}
	out := append([]model.CharAggregate(nil), aggs...)
	sort.Slice(out, func(i, j int) bool {
		ti := out[i].Correct + out[i].Incorrect
		tj := out[j].Correct + out[j].Incorrect
		if ti != tj {
			return ti > tj
		}
		return out[i].Char < out[j].Char
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

func accuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1
	}
	return float64(agg.Correct) / float64(total)
}
