package diag

import (
	"testing"

	"ferrous/internal/source"
)

func borrowDiag(code Code, sev Severity, start uint32, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  source.Span{File: 1, Start: start, End: start + 1},
	}
}

func TestBagCapsDiagnostics(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(borrowDiag(BckUseOfMoved, SevError, 1, "use of moved value 'x'")) {
		t.Fatalf("first add must fit")
	}
	bag.Add(borrowDiag(BckLoanConflict, SevError, 2, "conflict"))
	if bag.Add(borrowDiag(BckMutability, SevError, 3, "overflow")) {
		t.Fatalf("adds beyond the cap must be rejected")
	}
	if bag.Len() != 2 || bag.Cap() != 2 {
		t.Fatalf("len=%d cap=%d", bag.Len(), bag.Cap())
	}
}

func TestBagCounts(t *testing.T) {
	bag := NewBag(8)
	bag.Add(borrowDiag(BckUseOfMoved, SevError, 1, "a"))
	bag.Add(borrowDiag(BckReassignImmutable, SevWarning, 2, "b"))
	bag.Add(borrowDiag(BckInfo, SevInfo, 3, "c"))

	if bag.ErrorCount() != 1 || bag.WarningCount() != 1 {
		t.Fatalf("errors=%d warnings=%d", bag.ErrorCount(), bag.WarningCount())
	}
	if !bag.HasErrors() {
		t.Fatalf("bag with an error must report HasErrors")
	}
}

func TestBagSortIsPositional(t *testing.T) {
	bag := NewBag(8)
	bag.Add(borrowDiag(BckLoanConflict, SevError, 9, "later"))
	bag.Add(borrowDiag(BckUseOfMoved, SevError, 2, "earlier"))
	bag.Sort()

	items := bag.Items()
	if items[0].Message != "earlier" || items[1].Message != "later" {
		t.Fatalf("sort order wrong: %q, %q", items[0].Message, items[1].Message)
	}
}

func TestBagDedupKeepsFirst(t *testing.T) {
	bag := NewBag(8)
	// The replay pass can reach one use site through two delegate
	// hooks; the duplicate collapses.
	bag.Add(borrowDiag(BckUseOfMoved, SevError, 4, "use of moved value 'x'"))
	bag.Add(borrowDiag(BckUseOfMoved, SevError, 4, "use of moved value 'x'"))
	bag.Add(borrowDiag(BckUseOfMoved, SevError, 4, "different message"))
	bag.Dedup()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", bag.Len())
	}
}
