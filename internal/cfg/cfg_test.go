package cfg

import (
	"testing"
)

func TestPostOrderVisitsReachable(t *testing.T) {
	g := New()
	a := g.AddNode(1)
	b := g.AddNode(2)
	c := g.AddNode(3)
	d := g.AddNode(4)
	g.AddEdge(a, b)
	g.AddEdge(a, c)
	g.AddEdge(b, d)
	g.AddEdge(c, d)

	post := g.NodesInPostOrder()
	if len(post) != 4 {
		t.Fatalf("expected 4 reachable nodes, got %d", len(post))
	}
	if post[len(post)-1] != a {
		t.Fatalf("entry comes last in post-order")
	}

	rpo := g.ReversePostOrder()
	if rpo[0] != a {
		t.Fatalf("entry comes first in reverse post-order")
	}
	pos := make(map[Index]int, len(rpo))
	for i, n := range rpo {
		pos[n] = i
	}
	if pos[d] < pos[b] || pos[d] < pos[c] {
		t.Fatalf("merge node must follow both branches: %v", rpo)
	}
}

func TestLocalIndexGroupsByElement(t *testing.T) {
	g := New()
	a := g.AddNode(7)
	b := g.AddNode(8)
	c := g.AddNode(7) // loop head revisits the element
	g.AddEdge(a, b)
	g.AddEdge(b, c)

	idx := g.BuildLocalIndex()
	if got := idx[7]; len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("element 7 should map to both nodes, got %v", got)
	}
	if got := idx[8]; len(got) != 1 || got[0] != b {
		t.Fatalf("element 8 should map to its node, got %v", got)
	}
}

func TestPredsMirrorSuccs(t *testing.T) {
	g := New()
	a := g.AddNode(1)
	b := g.AddNode(2)
	g.AddEdge(a, b)

	if succs := g.Succs(a); len(succs) != 1 || succs[0] != b {
		t.Fatalf("bad succs: %v", succs)
	}
	if preds := g.Preds(b); len(preds) != 1 || preds[0] != a {
		t.Fatalf("bad preds: %v", preds)
	}
}
