package engine

// NoSeparator marks the last word, which has no trailing space.
const NoSeparator = -1

// Word is one space-delimited unit of the target text.
type Word struct {
	Index int
	// Start is the rune index of the first letter.
	Start int
	Chars []rune
	// Sep is the rune index of the trailing space, or NoSeparator.
	Sep int
}

// End is the natural end of the word: the separator index, or one past the
// last letter for the final word.
func (w Word) End() int {
	if w.Sep == NoSeparator {
		return w.Start + len(w.Chars)
	}
	return w.Sep
}

// parseWords splits text on single spaces and returns the words plus a lookup
// from cursor position (0..len) to the index of the active word.
func parseWords(text []rune) ([]Word, []int) {
	if len(text) == 0 {
		return nil, nil
	}
	var words []Word
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != ' ' {
			continue
		}
		sep := i
		if i == len(text) {
			sep = NoSeparator
		}
		words = append(words, Word{
			Index: len(words),
			Start: start,
			Chars: text[start:i:i],
			Sep:   sep,
		})
		start = i + 1
	}

	lookup := make([]int, len(text)+1)
	for _, w := range words {
		last := w.End()
		for pos := w.Start; pos <= last; pos++ {
			lookup[pos] = w.Index
		}
	}
	return words, lookup
}
