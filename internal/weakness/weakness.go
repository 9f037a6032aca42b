// Package weakness derives per-key and per-bigram weakness from keystroke logs
// and accumulates it into a heatmap across sessions.
package weakness

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/keydrill/internal/engine"
)

// Thresholds for enemy keys and bottleneck bigrams.
const (
	EnemyAccuracy     = 90
	EnemyLatency      = 300 * time.Millisecond
	BottleneckLatency = 400 * time.Millisecond
	DefaultTop        = 3
)

// CharStat aggregates presses of one expected character.
type CharStat struct {
	Presses      int
	Errors       int
	LatencySum   time.Duration
	LatencyCount int
}

// Accuracy is the rounded percentage of presses that were correct.
func (c CharStat) Accuracy() int {
	if c.Presses == 0 {
		return 100
	}
	return int(math.Round(float64(c.Presses-c.Errors) / float64(c.Presses) * 100))
}

// AvgLatency is the mean latency over correct presses.
func (c CharStat) AvgLatency() time.Duration {
	if c.LatencyCount == 0 {
		return 0
	}
	return c.LatencySum / time.Duration(c.LatencyCount)
}

// BigramStat aggregates the transition latency into the second key of a pair.
type BigramStat struct {
	LatencySum time.Duration
	Samples    int
}

// AvgLatency is the mean transition latency.
func (b BigramStat) AvgLatency() time.Duration {
	if b.Samples == 0 {
		return 0
	}
	return b.LatencySum / time.Duration(b.Samples)
}

// Session is the weakness breakdown of one run.
type Session struct {
	At      time.Time
	Chars   map[string]CharStat
	Bigrams map[string]BigramStat
}

// Analyze groups the log by lowercase expected character. Bigrams are taken
// over adjacent presses that were both correct.
func Analyze(log []engine.KeystrokeEvent, at time.Time) Session {
	s := Session{
		At:      at,
		Chars:   map[string]CharStat{},
		Bigrams: map[string]BigramStat{},
	}
	for i, ev := range log {
		key := strings.ToLower(ev.Expected)
		if key == "" {
			continue
		}
		cs := s.Chars[key]
		cs.Presses++
		if ev.Error {
			cs.Errors++
		} else {
			cs.LatencySum += ev.Latency
			cs.LatencyCount++
		}
		s.Chars[key] = cs

		if i == 0 {
			continue
		}
		prev := log[i-1]
		if prev.Error || ev.Error {
			continue
		}
		pair := strings.ToLower(prev.Expected + ev.Expected)
		bs := s.Bigrams[pair]
		bs.LatencySum += ev.Latency
		bs.Samples++
		s.Bigrams[pair] = bs
	}
	return s
}

// Key is a ranked character.
type Key struct {
	Char string
	CharStat
}

// Bigram is a ranked pair.
type Bigram struct {
	Pair string
	BigramStat
}

// EnemyKeys returns up to n keys with accuracy below EnemyAccuracy or average
// latency above EnemyLatency, worst first by error count then latency.
// n <= 0 means DefaultTop.
func EnemyKeys(chars map[string]CharStat, n int) []Key {
	if n <= 0 {
		n = DefaultTop
	}
	var keys []Key
	for ch, cs := range chars {
		if cs.Accuracy() < EnemyAccuracy || cs.AvgLatency() > EnemyLatency {
			keys = append(keys, Key{Char: ch, CharStat: cs})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Errors != keys[j].Errors {
			return keys[i].Errors > keys[j].Errors
		}
		if li, lj := keys[i].AvgLatency(), keys[j].AvgLatency(); li != lj {
			return li > lj
		}
		return keys[i].Char < keys[j].Char
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// Bottlenecks returns up to n pairs slower than BottleneckLatency, slowest
// first. n <= 0 means DefaultTop.
func Bottlenecks(bigrams map[string]BigramStat, n int) []Bigram {
	if n <= 0 {
		n = DefaultTop
	}
	var out []Bigram
	for pair, bs := range bigrams {
		if bs.AvgLatency() > BottleneckLatency {
			out = append(out, Bigram{Pair: pair, BigramStat: bs})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if li, lj := out[i].AvgLatency(), out[j].AvgLatency(); li != lj {
			return li > lj
		}
		return out[i].Pair < out[j].Pair
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
