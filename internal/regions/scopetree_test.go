package regions

import (
	"testing"

	"ferrous/internal/symbols"
)

func TestSubScopeWalksParents(t *testing.T) {
	tree := NewTree()
	root := tree.AddScope(symbols.NoScopeID, 1)
	mid := tree.AddScope(root, 2)
	leaf := tree.AddScope(mid, 3)
	other := tree.AddScope(root, 4)

	if !tree.IsSubScopeOf(leaf, root) || !tree.IsSubScopeOf(leaf, mid) {
		t.Fatalf("leaf must be inside its ancestors")
	}
	if !tree.IsSubScopeOf(root, root) {
		t.Fatalf("a scope is a sub-scope of itself")
	}
	if tree.IsSubScopeOf(root, leaf) || tree.IsSubScopeOf(leaf, other) {
		t.Fatalf("unrelated scopes must not nest")
	}
	if tree.Element(mid) != 2 {
		t.Fatalf("scope element lost")
	}
	if tree.ScopeOf(3) != leaf {
		t.Fatalf("element scope lookup lost")
	}
}

func TestLoanScopeResolution(t *testing.T) {
	tree := NewTree()
	root := tree.AddScope(symbols.NoScopeID, 1)
	inner := tree.AddScope(root, 2)
	tree.BindFreeRegion(1, root)

	if scope, ok := LoanScope(tree, ScopedRegion(inner)); !ok || scope != inner {
		t.Fatalf("scoped region resolves to itself")
	}
	if scope, ok := LoanScope(tree, StaticRegion); !ok || scope != root {
		t.Fatalf("'static resolves to the item scope, got %d/%v", scope, ok)
	}
	if scope, ok := LoanScope(tree, FreeRegion(1)); !ok || scope != root {
		t.Fatalf("bound free region resolves to its scope")
	}
	// Unplumbed free regions degrade to the item scope.
	if scope, ok := LoanScope(tree, FreeRegion(9)); !ok || scope != root {
		t.Fatalf("unbound free region degrades to item scope, got %d/%v", scope, ok)
	}
	if _, ok := LoanScope(tree, ErasedRegion); ok {
		t.Fatalf("erased regions carry no loan scope")
	}
}

func TestSubRegionOrdering(t *testing.T) {
	tree := NewTree()
	root := tree.AddScope(symbols.NoScopeID, 1)
	inner := tree.AddScope(root, 2)

	if !IsSubRegionOf(tree, ScopedRegion(inner), StaticRegion) {
		t.Fatalf("'static outlives everything")
	}
	if !IsSubRegionOf(tree, ScopedRegion(inner), ScopedRegion(root)) {
		t.Fatalf("inner scope is within the root region")
	}
	if IsSubRegionOf(tree, ScopedRegion(root), ScopedRegion(inner)) {
		t.Fatalf("root does not fit into an inner region")
	}
	if IsSubRegionOf(tree, ErasedRegion, ScopedRegion(root)) {
		t.Fatalf("erased regions compare unknown")
	}
}
