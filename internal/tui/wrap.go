package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/keydrill/internal/engine"
)

const wrongSpace = '•'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes renders every target rune plus the extras typed past each
// word's end. Extras follow the last letter of their word.
func buildStyledRunes(text []rune, words []engine.Word, st engine.State) []styledRune {
	cursor := -1
	if !st.Complete && st.Cursor < len(text) {
		cursor = st.Cursor
	}
	active := activeWord(words, st.Cursor)

	out := make([]styledRune, 0, len(text))
	for _, w := range words {
		for j := range w.Chars {
			i := w.Start + j
			style := pendingStyle
			switch {
			case i < st.Cursor && st.HasError(i):
				style = incorrectStyle
			case i < st.Cursor:
				style = correctStyle
			case w.Index == active:
				style = currentWordStyle
			}
			if i == cursor {
				style = style.Underline(true)
			}
			out = append(out, styledRune{
				s:     style.Render(string(text[i])),
				width: runewidth.RuneWidth(text[i]),
			})
		}
		for _, extra := range st.Extras[w.Index] {
			display := extra
			if runewidth.StringWidth(display) != 1 {
				display = string(wrongSpace)
			}
			out = append(out, styledRune{
				s:     extraStyle.Render(display),
				width: runewidth.StringWidth(display),
			})
		}
		if w.Sep == engine.NoSeparator {
			continue
		}
		displayed := ' '
		style := pendingStyle
		if w.Sep < st.Cursor {
			style = correctStyle
			if st.HasError(w.Sep) {
				displayed = wrongSpace
				style = incorrectStyle
			}
		}
		if w.Sep == cursor {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: true,
		})
	}
	return out
}

func activeWord(words []engine.Word, cursor int) int {
	for _, w := range words {
		if cursor >= w.Start && cursor <= w.End() {
			return w.Index
		}
	}
	return -1
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes lays runes out in lines of at most width cells. Lines break
// after a separator, which is dropped at the break; a word wider than the line
// is split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var (
		lines []string
		line  []styledRune
		used  int
	)
	flush := func() {
		lines = append(lines, renderStyledRunes(line))
		line, used = nil, 0
	}
	for _, seg := range segments(runes) {
		body := lineWidthOf(seg)
		if last := seg[len(seg)-1]; last.isSpace {
			body -= last.width
		}
		if used > 0 && used+body > width {
			if n := len(line); line[n-1].isSpace {
				line = line[:n-1]
			}
			flush()
		}
		for _, r := range seg {
			if used > 0 && used+r.width > width && !r.isSpace {
				flush()
			}
			line = append(line, r)
			used += r.width
		}
	}
	if len(line) > 0 || len(lines) == 0 {
		flush()
	}
	return strings.Join(lines, "\n")
}

// segments splits runes after every separator.
func segments(runes []styledRune) [][]styledRune {
	var out [][]styledRune
	start := 0
	for i, r := range runes {
		if r.isSpace {
			out = append(out, runes[start:i+1])
			start = i + 1
		}
	}
	if start < len(runes) {
		out = append(out, runes[start:])
	}
	return out
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}
