package source

import (
	"testing"
)

func TestToLineColAgainstLineTable(t *testing.T) {
	// Newlines after "let x;" (6) and "x;" (9): three lines.
	lineIdx := []uint32{6, 9}
	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{5, LineCol{Line: 1, Col: 6}},
		{6, LineCol{Line: 1, Col: 7}}, // the newline ends line 1
		{7, LineCol{Line: 2, Col: 1}},
		{9, LineCol{Line: 2, Col: 3}},
		{10, LineCol{Line: 3, Col: 1}},
	}
	for _, tc := range cases {
		if got := toLineCol(lineIdx, tc.off); got != tc.want {
			t.Fatalf("off %d = %d:%d, want %d:%d", tc.off, got.Line, got.Col, tc.want.Line, tc.want.Col)
		}
	}
}

func TestToLineColSingleLine(t *testing.T) {
	if got := toLineCol(nil, 7); got != (LineCol{Line: 1, Col: 8}) {
		t.Fatalf("single-line offset = %d:%d", got.Line, got.Col)
	}
}

func TestBuildLineIndexMatchesContent(t *testing.T) {
	idx := buildLineIndex([]byte("a\nbb\n\nc"))
	want := []uint32{1, 4, 5}
	if len(idx) != len(want) {
		t.Fatalf("got %v, want %v", idx, want)
	}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("got %v, want %v", idx, want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath("./a/b/../c.fe"); got != "a/c.fe" {
		t.Fatalf("normalizePath = %q", got)
	}
}
