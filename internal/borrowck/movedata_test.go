package borrowck

import (
	"testing"

	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

// stubOracle serves the union queries MoveData needs.
type stubOracle struct {
	in *types.Interner
}

func (o *stubOracle) TypeOf(el hir.NodeID) types.TypeID { return types.NoTypeID }
func (o *stubOracle) Lookup(id types.TypeID) types.Type { return o.in.Lookup(id) }
func (o *stubOracle) MutabilityOf(sym symbols.SymbolID) symbols.Mutability {
	return symbols.Immutable
}
func (o *stubOracle) Adt(id types.AdtID) *types.AdtInfo { return o.in.Adt(id) }
func (o *stubOracle) IsUnion(id types.AdtID) bool       { return o.in.IsUnion(id) }

func unionFixture(t *testing.T) (*PathTable, *MoveData, LoanPathID, LoanPathID) {
	t.Helper()
	in := types.NewInterner()
	intTy := in.Scalar(types.KindInt)
	adt := in.RegisterAdt(types.AdtInfo{
		Kind: types.AdtUnion,
		Variants: []types.Variant{{
			Fields: []types.Field{{Ty: intTy}, {Ty: intTy}},
		}},
	})
	unionTy := in.AdtType(adt)

	table := NewPathTable()
	md := NewMoveData(table, &stubOracle{in: in})

	root := table.Var(1, unionTy)
	fieldA := table.Extend(root, mc.McDeclared, InteriorElem(types.NoVariantIdx, mc.FieldInterior(0, source.NoStringID)), intTy)
	fieldB := table.Extend(root, mc.McDeclared, InteriorElem(types.NoVariantIdx, mc.FieldInterior(1, source.NoStringID)), intTy)
	return table, md, fieldA, fieldB
}

func TestUnionMoveBroadcasts(t *testing.T) {
	_, md, fieldA, fieldB := unionFixture(t)

	md.AddMove(fieldA, 10, source.Span{}, MoveExpr)

	if md.MoveCount() != 2 {
		t.Fatalf("expected a move per union field, got %d", md.MoveCount())
	}
	moved := map[LoanPathID]bool{}
	for i := 0; i < md.MoveCount(); i++ {
		move := md.MoveAt(i)
		if move.Elem != 10 {
			t.Fatalf("broadcast moves must share the program point, got %d", move.Elem)
		}
		moved[md.LoanPathOf(move.Path)] = true
	}
	if !moved[fieldA] || !moved[fieldB] {
		t.Fatalf("both union fields must be moved, got %v", moved)
	}
}

func TestUnionAssignmentBroadcasts(t *testing.T) {
	_, md, fieldA, fieldB := unionFixture(t)

	md.AddAssignment(fieldA, 11, source.Span{}, 11, MutateJustWrite)

	// Field projections are path assignments, one per union field.
	if len(md.pathAssignments) != 2 {
		t.Fatalf("expected 2 path assignments, got %d", len(md.pathAssignments))
	}
	if len(md.varAssignments) != 0 {
		t.Fatalf("field writes are not variable assignments")
	}
	if _, ok := md.ExistingMovePath(fieldB); !ok {
		t.Fatalf("sibling path must be interned by the broadcast")
	}
	if !md.IsAssignee(11) {
		t.Fatalf("plain writes must record the assignee element")
	}
}

func TestVariableAssignmentClassification(t *testing.T) {
	table, md, _, _ := unionFixture(t)
	in := types.NewInterner()
	root := table.Var(2, in.Scalar(types.KindInt))

	md.AddAssignment(root, 12, source.Span{}, 12, MutateInit)
	if len(md.varAssignments) != 1 || len(md.pathAssignments) != 0 {
		t.Fatalf("bare bindings are variable assignments: vars=%d paths=%d",
			len(md.varAssignments), len(md.pathAssignments))
	}
}

func TestMovePathTreeInvariants(t *testing.T) {
	table, md, fieldA, _ := unionFixture(t)

	idx := md.MovePathOf(fieldA)
	parent := md.paths[idx].Parent
	if !parent.IsValid() {
		t.Fatalf("field path must have a parent")
	}
	if md.LoanPathOf(parent) != table.Base(fieldA) {
		t.Fatalf("parent path must be the base loan path")
	}
	if parent >= idx {
		t.Fatalf("parents are inserted before children: parent=%d child=%d", parent, idx)
	}

	// The subtree walk from the root reaches the field.
	rootIdx := md.MovePathOf(table.Base(fieldA))
	found := false
	md.EachExtendingPath(rootIdx, func(p MovePathID) bool {
		if p == idx {
			found = true
		}
		return true
	})
	if !found {
		t.Fatalf("EachExtendingPath must visit the field path")
	}
}
