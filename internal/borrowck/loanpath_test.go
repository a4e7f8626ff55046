package borrowck

import (
	"testing"

	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

func testCmtLocal(sym symbols.SymbolID, ty types.TypeID, mut symbols.Mutability) *mc.Cmt {
	return mc.NewLocal(1, source.Span{}, sym, ty, mut)
}

func TestComputeForIsDeterministic(t *testing.T) {
	table := NewPathTable()
	in := types.NewInterner()
	adt := in.RegisterAdt(types.AdtInfo{Kind: types.AdtStruct, Variants: []types.Variant{{
		Fields: []types.Field{{Ty: in.Scalar(types.KindInt)}},
	}}})
	structTy := in.AdtType(adt)

	base := testCmtLocal(1, structTy, symbols.Mutable)
	cmt := mc.NewInterior(2, source.Span{}, base, mc.FieldInterior(0, source.NoStringID), in.Scalar(types.KindInt))

	first, ok := table.ComputeFor(cmt)
	if !ok {
		t.Fatalf("expected a loan path")
	}
	second, ok := table.ComputeFor(cmt)
	if !ok || first != second {
		t.Fatalf("recomputation changed identity: %d vs %d", first, second)
	}
}

func TestComputeForIsPartial(t *testing.T) {
	table := NewPathTable()
	in := types.NewInterner()
	ty := in.Scalar(types.KindInt)

	if _, ok := table.ComputeFor(mc.NewRvalue(1, source.Span{}, ty)); ok {
		t.Fatalf("rvalues must have no loan path")
	}
	if _, ok := table.ComputeFor(mc.NewStaticItem(1, source.Span{}, ty, symbols.Immutable)); ok {
		t.Fatalf("statics must have no loan path")
	}
	// A deref whose base is an rvalue has no path either.
	rv := mc.NewRvalue(1, source.Span{}, in.Ref(ty, symbols.Immutable, regions.StaticRegion))
	deref := mc.NewDeref(2, source.Span{}, rv, mc.RefPtr(symbols.Immutable, regions.StaticRegion), ty)
	if _, ok := table.ComputeFor(deref); ok {
		t.Fatalf("deref of rvalue must have no loan path")
	}
}

func TestHasForkOnSiblingFields(t *testing.T) {
	table := NewPathTable()
	in := types.NewInterner()
	ty := in.Scalar(types.KindInt)

	root := table.Var(1, ty)
	fieldB := table.Extend(root, mc.McDeclared, InteriorElem(types.NoVariantIdx, mc.FieldInterior(0, source.NoStringID)), ty)
	fieldC := table.Extend(fieldB, mc.McInherited, InteriorElem(types.NoVariantIdx, mc.FieldInterior(0, source.NoStringID)), ty)
	fieldD := table.Extend(fieldB, mc.McInherited, InteriorElem(types.NoVariantIdx, mc.FieldInterior(1, source.NoStringID)), ty)

	if !table.HasFork(fieldC, fieldD) {
		t.Fatalf("a.b.c and a.b.d must fork")
	}
	if table.HasFork(fieldC, fieldC) {
		t.Fatalf("a path does not fork with itself")
	}
	if table.HasFork(fieldB, root) {
		t.Fatalf("prefix paths do not fork")
	}

	// Derefs are transparent for fork detection.
	derefC := table.Extend(fieldC, mc.McInherited, DerefElem(mc.BoxPtr), ty)
	if !table.HasFork(derefC, fieldD) {
		t.Fatalf("fork must look through derefs")
	}
}

func TestPrecisionAndPrefix(t *testing.T) {
	table := NewPathTable()
	in := types.NewInterner()
	ty := in.Scalar(types.KindInt)

	root := table.Var(1, ty)
	deref := table.Extend(root, mc.McDeclared, DerefElem(mc.BoxPtr), ty)
	indexed := table.Extend(root, mc.McDeclared, InteriorElem(types.NoVariantIdx, mc.IndexInterior), ty)

	if !table.IsPrecise(root) || !table.IsPrecise(deref) {
		t.Fatalf("vars and derefs are precise")
	}
	if table.IsPrecise(indexed) {
		t.Fatalf("indexing defeats precision")
	}
	if !table.HasPrefix(indexed, root) {
		t.Fatalf("root is a prefix of its projections")
	}
	if table.HasPrefix(root, indexed) {
		t.Fatalf("projections are not prefixes of their root")
	}
	if got := table.OwnedBasePath(deref); got != root {
		t.Fatalf("owned deref should strip to the root, got %d", got)
	}
}

func TestKillScopeWalksToRoot(t *testing.T) {
	table := NewPathTable()
	in := types.NewInterner()
	ty := in.Scalar(types.KindInt)

	varScope := func(sym symbols.SymbolID) symbols.ScopeID {
		if sym == 1 {
			return 7
		}
		return symbols.NoScopeID
	}

	root := table.Var(1, ty)
	nested := table.Extend(
		table.Downcast(root, 0, ty),
		mc.McDeclared,
		InteriorElem(0, mc.FieldInterior(0, source.NoStringID)),
		ty,
	)
	if scope, ok := table.KillScope(nested, varScope); !ok || scope != 7 {
		t.Fatalf("kill scope should see through downcast and extend, got %d/%v", scope, ok)
	}

	up := table.Upvar(2, ty)
	if _, ok := table.KillScope(up, varScope); ok {
		t.Fatalf("upvar kill scope is unspecified and must report false")
	}
}
