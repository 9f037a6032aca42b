package stats

import (
	"bytes"
	"testing"
)

func TestTableLinesAlignsColumns(t *testing.T) {
	headers := []string{"Char", "Accuracy", "Correct"}
	rows := [][]string{
		{"a", "97.50%", "12"},
		{"<space>", "8.00%", "3"},
	}
	lines := tableLines(headers, rows, map[int]bool{1: true, 2: true})
	want := []string{
		"Char    Accuracy Correct",
		"a         97.50%      12",
		"<space>    8.00%       3",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTableLinesMeasuresCells(t *testing.T) {
	lines := tableLines([]string{"Best", "N"}, [][]string{{"30 WPM · 99%", "1"}}, nil)
	if lines[0] != "Best         N" {
		t.Fatalf("unexpected header %q", lines[0])
	}
}

func TestWriteTableRightColumns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, []string{"Pair", "ms"}, [][]string{{"th", "5"}, {"qu", "420"}}, 1); err != nil {
		t.Fatalf("write table: %v", err)
	}
	want := "Pair  ms\nth     5\nqu   420\n\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
