package source

import (
	"testing"
)

func TestSpanBasics(t *testing.T) {
	s := Span{File: 1, Start: 4, End: 9}
	if s.Empty() || s.Len() != 5 {
		t.Fatalf("span arithmetic broken: empty=%v len=%d", s.Empty(), s.Len())
	}
	if (Span{File: 1, Start: 4, End: 4}).Empty() != true {
		t.Fatalf("zero-length spans are empty")
	}
	if s.String() != "1:4-9" {
		t.Fatalf("string form = %q", s.String())
	}
}

func TestCoverWidens(t *testing.T) {
	// A loan span covering the borrow and the conflicting use.
	borrow := Span{File: 1, Start: 10, End: 14}
	use := Span{File: 1, Start: 30, End: 31}

	got := borrow.Cover(use)
	if got.Start != 10 || got.End != 31 {
		t.Fatalf("cover = %v", got)
	}

	// Spans from different files do not combine.
	other := Span{File: 2, Start: 0, End: 100}
	if got := borrow.Cover(other); got != borrow {
		t.Fatalf("cross-file cover must keep the receiver, got %v", got)
	}
}
