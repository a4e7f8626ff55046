package source

import (
	"testing"
)

func TestInternDeduplicates(t *testing.T) {
	in := NewInterner()
	x := in.Intern("x")
	y := in.Intern("y")
	again := in.Intern("x")

	if x == NoStringID || y == NoStringID {
		t.Fatalf("real strings must not collide with NoStringID")
	}
	if x != again {
		t.Fatalf("re-interning must keep the ID: %d vs %d", x, again)
	}
	if x == y {
		t.Fatalf("distinct strings must get distinct IDs")
	}
	if s, ok := in.Lookup(x); !ok || s != "x" {
		t.Fatalf("lookup lost the string: %q/%v", s, ok)
	}
}

func TestInternEmptyIsNoStringID(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("empty string must map to NoStringID, got %d", id)
	}
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID must resolve to the empty string")
	}
	if _, ok := in.Lookup(StringID(42)); ok {
		t.Fatalf("unknown IDs must not resolve")
	}
}

func TestFromTableMapsFactsIndices(t *testing.T) {
	// A facts string table as an exporter would ship it, duplicate
	// included.
	in, ids := FromTable([]string{"x", "counter", "x"})

	if len(ids) != 4 {
		t.Fatalf("ids must cover table positions plus the zero slot, got %d", len(ids))
	}
	if ids[0] != NoStringID {
		t.Fatalf("slot 0 is reserved for NoStringID")
	}
	if ids[1] != ids[3] {
		t.Fatalf("duplicate table entries must collapse onto one ID")
	}
	if s, ok := in.Lookup(ids[2]); !ok || s != "counter" {
		t.Fatalf("table entry lost: %q/%v", s, ok)
	}
	// "x", "counter", "" is three distinct strings.
	if in.Len() != 3 {
		t.Fatalf("interner should hold 3 strings, got %d", in.Len())
	}
}
