// Package content builds the target text for a practice run.
package content

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// TimedPoolSize is the number of words generated for a timed run.
const TimedPoolSize = 200

// Mode selects how text is produced. The set of modes is closed.
type Mode interface {
	isMode()
}

// FixedWords is a run of Count random words.
type FixedWords struct {
	Count int
}

// TimedPool is a large word pool for a timed run.
type TimedPool struct{}

// Custom is user-provided text, normalized before use.
type Custom struct {
	Text string
}

// Curriculum is lesson content, used verbatim.
type Curriculum struct {
	Text string
}

// Smart is a run of Count words biased toward Weak characters.
type Smart struct {
	Count  int
	Weak   map[rune]struct{}
	Factor float64
}

// Drill is synthesized drill text, used verbatim.
type Drill struct {
	Text string
}

func (FixedWords) isMode() {}
func (TimedPool) isMode()  {}
func (Custom) isMode()     {}
func (Curriculum) isMode() {}
func (Smart) isMode()      {}
func (Drill) isMode()      {}

// Options controls word decoration for the word modes.
type Options struct {
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// Generator produces randomized typing text.
type Generator struct {
	rnd   *rand.Rand
	words []string
	opts  Options
}

// New returns a Generator over words seeded with the current time.
func New(words []string, opts Options) *Generator {
	return NewWithRand(words, opts, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Generator using rnd.
func NewWithRand(words []string, opts Options, rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd, words: words, opts: opts}
}

// Generate returns the target text for mode.
func (g *Generator) Generate(mode Mode) string {
	switch m := mode.(type) {
	case FixedWords:
		return strings.Join(g.sample(m.Count), " ")
	case TimedPool:
		return strings.Join(g.sample(TimedPoolSize), " ")
	case Smart:
		if len(m.Weak) == 0 {
			return strings.Join(g.sample(m.Count), " ")
		}
		return strings.Join(g.sampleWeighted(m.Count, m.Weak, m.Factor), " ")
	case Custom:
		return Normalize(m.Text)
	case Curriculum:
		return m.Text
	case Drill:
		return m.Text
	default:
		return ""
	}
}

// Normalize collapses every whitespace run, newlines included, into a single
// space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// sample selects words uniformly and applies caps/punctuation rules.
func (g *Generator) sample(count int) []string {
	if len(g.words) == 0 || count <= 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, g.decorate(g.words[g.rnd.Intn(len(g.words))]))
	}
	return result
}

// sampleWeighted selects words with a bias toward weak characters.
func (g *Generator) sampleWeighted(count int, weak map[rune]struct{}, factor float64) []string {
	if len(g.words) == 0 || count <= 0 {
		return nil
	}
	weights := make([]float64, len(g.words))
	total := 0.0
	for i, word := range g.words {
		weakCount := 0
		for _, r := range word {
			if _, ok := weak[unicode.ToLower(r)]; ok {
				weakCount++
			}
		}
		w := 1.0 + float64(weakCount)*factor
		weights[i] = w
		total += w
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := len(weights) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		result = append(result, g.decorate(g.words[idx]))
	}
	return result
}

func (g *Generator) decorate(word string) string {
	word = applyCaps(g.rnd, word, g.opts.CapsPct)
	return applyPunct(g.rnd, word, g.opts.PunctPct, g.opts.PunctSet)
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 || rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}
