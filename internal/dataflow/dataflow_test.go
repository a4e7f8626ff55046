package dataflow

import (
	"testing"

	"ferrous/internal/cfg"
	"ferrous/internal/hir"
)

// diamond builds entry -> (left | right) -> merge and returns the graph
// plus the element of each node.
func diamond() (*cfg.Graph, [4]hir.NodeID) {
	g := cfg.New()
	elems := [4]hir.NodeID{1, 2, 3, 4}
	entry := g.AddNode(elems[0])
	left := g.AddNode(elems[1])
	right := g.AddNode(elems[2])
	merge := g.AddNode(elems[3])
	g.AddEdge(entry, left)
	g.AddEdge(entry, right)
	g.AddEdge(left, merge)
	g.AddEdge(right, merge)
	g.SetEntry(entry)
	return g, elems
}

func collectBits(a *Analysis[Union], el hir.NodeID) []uint {
	var out []uint
	a.EachBitOnEntry(el, func(bit uint) bool {
		out = append(out, bit)
		return true
	})
	return out
}

func TestUnionJoinsBranches(t *testing.T) {
	g, elems := diamond()
	a := New(Union{}, "test", g, g.BuildLocalIndex(), 2)
	a.AddGen(elems[1], 0)
	a.AddGen(elems[2], 1)
	a.Propagate()

	got := collectBits(a, elems[3])
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("expected bits [0 1] at merge, got %v", got)
	}
	if bits := collectBits(a, elems[1]); len(bits) != 0 {
		t.Fatalf("expected no bits on entry to left branch, got %v", bits)
	}
}

func TestExecutionKillStopsBit(t *testing.T) {
	g := cfg.New()
	n1 := g.AddNode(1)
	n2 := g.AddNode(2)
	n3 := g.AddNode(3)
	g.AddEdge(n1, n2)
	g.AddEdge(n2, n3)

	a := New(Union{}, "test", g, g.BuildLocalIndex(), 1)
	a.AddGen(1, 0)
	a.AddKill(KillExecution, 2, 0)
	a.Propagate()

	if bits := collectBits(a, 2); len(bits) != 1 {
		t.Fatalf("bit should be live on entry to the killing node, got %v", bits)
	}
	if bits := collectBits(a, 3); len(bits) != 0 {
		t.Fatalf("bit should be dead after the kill, got %v", bits)
	}
}

// Kill dominance: a scope-killed bit never reappears downstream without
// a re-gen.
func TestScopeKillDominates(t *testing.T) {
	g := cfg.New()
	n1 := g.AddNode(1)
	n2 := g.AddNode(2) // scope exit
	n3 := g.AddNode(3)
	n4 := g.AddNode(4)
	g.AddEdge(n1, n2)
	g.AddEdge(n2, n3)
	g.AddEdge(n3, n4)
	// Loop back edge keeps the fixpoint honest.
	g.AddEdge(n4, n3)

	a := New(Union{}, "test", g, g.BuildLocalIndex(), 1)
	a.AddGen(1, 0)
	a.AddKill(KillScopeEnd, 2, 0)
	a.Propagate()

	for _, el := range []hir.NodeID{3, 4} {
		if bits := collectBits(a, el); len(bits) != 0 {
			t.Fatalf("scope-killed bit leaked to element %d: %v", el, bits)
		}
	}
}

// Monotonicity: after propagation every node's entry includes every
// predecessor's exit.
func TestEntryIncludesPredecessorExits(t *testing.T) {
	g, elems := diamond()
	a := New(Union{}, "test", g, g.BuildLocalIndex(), 3)
	a.AddGen(elems[0], 2)
	a.AddGen(elems[1], 0)
	a.AddGen(elems[2], 1)
	a.Propagate()

	for _, node := range g.ReversePostOrder() {
		for _, pred := range g.Preds(node) {
			exit := a.ExitBits(pred)
			entry := a.EntryBits(node)
			for w := range exit {
				if exit[w]&^entry[w] != 0 {
					t.Fatalf("node %d entry misses bits %#x from pred %d", node, exit[w]&^entry[w], pred)
				}
			}
		}
	}
}

func TestEachBitShortCircuits(t *testing.T) {
	g := cfg.New()
	n1 := g.AddNode(1)
	n2 := g.AddNode(2)
	g.AddEdge(n1, n2)

	a := New(Union{}, "test", g, g.BuildLocalIndex(), 40)
	a.AddGen(1, 3)
	a.AddGen(1, 35)
	a.Propagate()

	var seen []uint
	complete := a.EachBitOnEntry(2, func(bit uint) bool {
		seen = append(seen, bit)
		return false
	})
	if complete {
		t.Fatalf("expected short-circuit")
	}
	if len(seen) != 1 || seen[0] != 3 {
		t.Fatalf("expected to stop after bit 3, saw %v", seen)
	}
}

func TestIntersectStartsFull(t *testing.T) {
	g := cfg.New()
	n1 := g.AddNode(1)
	n2 := g.AddNode(2)
	g.AddEdge(n1, n2)

	a := New(Intersect{}, "must", g, g.BuildLocalIndex(), 1)
	a.AddGen(1, 0)
	a.Propagate()

	var bits []uint
	a.EachBitOnEntry(2, func(bit uint) bool {
		bits = append(bits, bit)
		return true
	})
	if len(bits) != 1 || bits[0] != 0 {
		t.Fatalf("expected bit 0 live under intersection, got %v", bits)
	}
}
