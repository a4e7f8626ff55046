package borrowck

import (
	"testing"

	"ferrous/internal/diag"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

func restrictFixture(t *testing.T) (*gatherContext, *regions.Tree, *types.Interner, symbols.SymbolID) {
	t.Helper()
	in := types.NewInterner()
	tree := regions.NewTree()
	itemScope := tree.AddScope(symbols.NoScopeID, 1)

	strs := source.NewInterner()
	bindings := symbols.NewTable()
	v := bindings.Add(strs.Intern("v"), source.Span{}, symbols.Immutable, itemScope)
	tree.BindVariable(v, itemScope)

	bag := diag.NewBag(16)
	cx := &checkContext{
		body: &Body{
			Types:    &stubOracle{in: in},
			Scopes:   tree,
			Bindings: bindings,
			Strings:  strs,
		},
		reporter: diag.BagReporter{Bag: bag},
		lps:      NewPathTable(),
	}
	return newGatherContext(cx, NewMoveData(cx.lps, cx.body.Types)), tree, in, v
}

// Restriction soundness: every restricted place is the loan path itself
// or a strict prefix of it.
func TestRestrictedPathsArePrefixes(t *testing.T) {
	glcx, tree, in, v := restrictFixture(t)
	region := regions.ScopedRegion(tree.ItemScope())

	sTy := in.AdtType(in.RegisterAdt(types.AdtInfo{
		Kind: types.AdtStruct,
		Variants: []types.Variant{{
			Fields: []types.Field{{Ty: in.Scalar(types.KindInt)}},
		}},
	}))
	refTy := in.Ref(sTy, symbols.Mutable, region)

	local := mc.NewLocal(2, source.Span{}, v, refTy, symbols.Immutable)
	deref := mc.NewDeref(3, source.Span{}, local, mc.RefPtr(symbols.Mutable, region), sTy)
	field := mc.NewInterior(4, source.Span{}, deref, mc.FieldInterior(0, source.NoStringID), in.Scalar(types.KindInt))

	res, ok := glcx.computeRestrictions(4, field, region, BorrowMut)
	if !ok || res.safe {
		t.Fatalf("expected SafeIf, got ok=%v safe=%v", ok, res.safe)
	}
	if len(res.restricted) == 0 || res.restricted[0] != res.path {
		t.Fatalf("the loan path must head its own restriction set")
	}
	for _, r := range res.restricted {
		if !glcx.cx.lps.HasPrefix(res.path, r) {
			t.Fatalf("restricted path %d is not a prefix of the loan path %d", r, res.path)
		}
	}
	// (*v).f restricts the projection, the deref and the reference binding.
	if len(res.restricted) != 3 {
		t.Fatalf("expected 3 restricted places, got %d", len(res.restricted))
	}
}

// A shared reborrow through &mut restricts only the reborrowed place.
func TestSharedReborrowRestrictsOnlyItself(t *testing.T) {
	glcx, tree, in, v := restrictFixture(t)
	region := regions.ScopedRegion(tree.ItemScope())

	sTy := in.AdtType(in.RegisterAdt(types.AdtInfo{Kind: types.AdtStruct, Variants: []types.Variant{{}}}))
	refTy := in.Ref(sTy, symbols.Mutable, region)

	local := mc.NewLocal(2, source.Span{}, v, refTy, symbols.Immutable)
	deref := mc.NewDeref(3, source.Span{}, local, mc.RefPtr(symbols.Mutable, region), sTy)

	res, ok := glcx.computeRestrictions(3, deref, region, BorrowShared)
	if !ok || res.safe {
		t.Fatalf("expected SafeIf, got ok=%v safe=%v", ok, res.safe)
	}
	if len(res.restricted) != 1 || res.restricted[0] != res.path {
		t.Fatalf("shared reborrow must collapse to the reborrowed place, got %d entries", len(res.restricted))
	}
}

// Borrowing through a shared reference needs no loan at all.
func TestSharedDerefIsSafe(t *testing.T) {
	glcx, tree, in, v := restrictFixture(t)
	region := regions.ScopedRegion(tree.ItemScope())

	sTy := in.AdtType(in.RegisterAdt(types.AdtInfo{Kind: types.AdtStruct, Variants: []types.Variant{{}}}))
	refTy := in.Ref(sTy, symbols.Immutable, region)

	local := mc.NewLocal(2, source.Span{}, v, refTy, symbols.Immutable)
	deref := mc.NewDeref(3, source.Span{}, local, mc.RefPtr(symbols.Immutable, region), sTy)

	res, ok := glcx.computeRestrictions(3, deref, region, BorrowShared)
	if !ok || !res.safe {
		t.Fatalf("shared deref within the pointer's region must be safe")
	}

	// Raw pointers are unconstrained.
	raw := mc.NewDeref(4, source.Span{}, local, mc.RawPtr(symbols.Mutable), sTy)
	res, ok = glcx.computeRestrictions(4, raw, region, BorrowMut)
	if !ok || !res.safe {
		t.Fatalf("raw derefs must be safe")
	}
}
