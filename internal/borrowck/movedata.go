package borrowck

import (
	"fmt"

	"fortio.org/safecast"

	"ferrous/internal/dataflow"
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/types"
)

// MovePathID identifies a node in the move path tree.
type MovePathID uint32

// NoMovePathID marks the absence of a move path.
const NoMovePathID MovePathID = 0

// IsValid reports whether the ID refers to an allocated move path.
func (id MovePathID) IsValid() bool { return id != NoMovePathID }

// noMoveIdx terminates the intrusive per-path move lists.
const noMoveIdx int32 = -1

// MoveKind classifies why a path became uninitialized.
type MoveKind uint8

const (
	// MoveDeclared is a binding declared without an initializer.
	MoveDeclared MoveKind = iota
	// MoveExpr is a use of the place in move position.
	MoveExpr
	// MovePat is a by-value pattern binding.
	MovePat
	// MoveKindCaptured is a by-value closure capture (reserved).
	MoveKindCaptured
)

func (k MoveKind) String() string {
	switch k {
	case MoveDeclared:
		return "declared"
	case MoveExpr:
		return "moved"
	case MovePat:
		return "moved by pattern"
	case MoveKindCaptured:
		return "captured"
	default:
		return "moved"
	}
}

// Move is one ownership transfer out of a path. Its index in the move
// list is its bit in the move dataflow.
type Move struct {
	Path MovePathID
	Elem hir.NodeID
	Span source.Span
	Kind MoveKind
	next int32 // intrusive list per path
}

// Assignment is one write observed against a path. Variable assignments
// (bare bindings) get their own dataflow; path assignments only serve to
// execution-kill moves.
type Assignment struct {
	Path     MovePathID
	Elem     hir.NodeID
	Span     source.Span
	Assignee hir.NodeID
}

// MovePath is a node of the path tree: parent/first-child/next-sibling
// links plus the head of the intrusive move list.
type MovePath struct {
	Path        LoanPathID
	Parent      MovePathID
	FirstChild  MovePathID
	NextSibling MovePathID
	firstMove   int32
}

// MoveData accumulates every move and assignment the gather pass
// observes, organized as a tree keyed by loan path.
type MoveData struct {
	lps    *PathTable
	oracle types.Oracle

	paths   []MovePath // [0] is the invalid sentinel
	pathMap map[LoanPathID]MovePathID

	moves           []Move
	varAssignments  []Assignment
	pathAssignments []Assignment
	assigneeElems   map[hir.NodeID]struct{}
}

// NewMoveData builds an empty accumulator over the given path table.
func NewMoveData(lps *PathTable, oracle types.Oracle) *MoveData {
	return &MoveData{
		lps:           lps,
		oracle:        oracle,
		paths:         []MovePath{{firstMove: noMoveIdx}},
		pathMap:       make(map[LoanPathID]MovePathID),
		assigneeElems: make(map[hir.NodeID]struct{}),
	}
}

// MovePathOf interns the move path for lp, creating parents first so the
// tree invariant (parent before child) holds by construction.
func (md *MoveData) MovePathOf(lp LoanPathID) MovePathID {
	if idx, ok := md.pathMap[lp]; ok {
		return idx
	}
	parent := NoMovePathID
	if base := md.lps.Base(lp); base.IsValid() {
		parent = md.MovePathOf(base)
	}
	value, err := safecast.Conv[uint32](len(md.paths))
	if err != nil {
		panic(fmt.Errorf("move path arena overflow: %w", err))
	}
	idx := MovePathID(value)
	node := MovePath{Path: lp, Parent: parent, firstMove: noMoveIdx}
	if parent.IsValid() {
		node.NextSibling = md.paths[parent].FirstChild
		md.paths[parent].FirstChild = idx
	}
	md.paths = append(md.paths, node)
	md.pathMap[lp] = idx
	return idx
}

// ExistingMovePath looks lp up without interning.
func (md *MoveData) ExistingMovePath(lp LoanPathID) (MovePathID, bool) {
	idx, ok := md.pathMap[lp]
	return idx, ok
}

// ExistingBasePaths collects the already-interned move paths among lp and
// its prefixes.
func (md *MoveData) ExistingBasePaths(lp LoanPathID) []MovePathID {
	var out []MovePathID
	for cur := lp; cur.IsValid(); cur = md.lps.Base(cur) {
		if idx, ok := md.pathMap[cur]; ok {
			out = append(out, idx)
		}
	}
	return out
}

// LoanPathOf returns the loan path of a move path node.
func (md *MoveData) LoanPathOf(idx MovePathID) LoanPathID {
	if !md.hasPath(idx) {
		return NoLoanPathID
	}
	return md.paths[idx].Path
}

// MoveAt returns the move behind a dataflow bit.
func (md *MoveData) MoveAt(i int) *Move {
	if i < 0 || i >= len(md.moves) {
		return nil
	}
	return &md.moves[i]
}

// MoveCount is the bit width of the move dataflow.
func (md *MoveData) MoveCount() int { return len(md.moves) }

// VarAssignmentAt returns the variable assignment behind a dataflow bit.
func (md *MoveData) VarAssignmentAt(i int) *Assignment {
	if i < 0 || i >= len(md.varAssignments) {
		return nil
	}
	return &md.varAssignments[i]
}

// VarAssignmentCount is the bit width of the assignment dataflow.
func (md *MoveData) VarAssignmentCount() int { return len(md.varAssignments) }

// IsAssignee reports whether an element was the target of a
// non-compound assignment.
func (md *MoveData) IsAssignee(el hir.NodeID) bool {
	_, ok := md.assigneeElems[el]
	return ok
}

// AddMove records a move out of lp at el. Moving a union field moves its
// siblings too: every other field of each enclosing union level gets a
// synthetic move at the same program point.
func (md *MoveData) AddMove(lp LoanPathID, el hir.NodeID, span source.Span, kind MoveKind) {
	md.eachUnionSibling(lp, func(sib LoanPathID) {
		md.addMoveHelper(sib, el, span, kind)
	})
	md.addMoveHelper(lp, el, span, kind)
}

func (md *MoveData) addMoveHelper(lp LoanPathID, el hir.NodeID, span source.Span, kind MoveKind) {
	pathIdx := md.MovePathOf(lp)
	moveIdx, err := safecast.Conv[int32](len(md.moves))
	if err != nil {
		panic(fmt.Errorf("move list overflow: %w", err))
	}
	md.moves = append(md.moves, Move{
		Path: pathIdx,
		Elem: el,
		Span: span,
		Kind: kind,
		next: md.paths[pathIdx].firstMove,
	})
	md.paths[pathIdx].firstMove = moveIdx
}

// AddAssignment records a write to lp at el. The union broadcast applies
// exactly as for moves: writing one union field re-initializes them all.
func (md *MoveData) AddAssignment(lp LoanPathID, el hir.NodeID, span source.Span, assignee hir.NodeID, mode MutateMode) {
	if mode == MutateInit || mode == MutateJustWrite {
		md.assigneeElems[assignee] = struct{}{}
	}
	md.eachUnionSibling(lp, func(sib LoanPathID) {
		md.addAssignmentHelper(sib, el, span, assignee)
	})
	md.addAssignmentHelper(lp, el, span, assignee)
}

func (md *MoveData) addAssignmentHelper(lp LoanPathID, el hir.NodeID, span source.Span, assignee hir.NodeID) {
	pathIdx := md.MovePathOf(lp)
	a := Assignment{Path: pathIdx, Elem: el, Span: span, Assignee: assignee}
	if md.lps.IsVariablePath(lp) {
		md.varAssignments = append(md.varAssignments, a)
	} else {
		md.pathAssignments = append(md.pathAssignments, a)
	}
}

// eachUnionSibling walks outward through lp's Extend steps; at every
// field projection whose base is a union it yields the sibling fields.
func (md *MoveData) eachUnionSibling(lp LoanPathID, f func(LoanPathID)) {
	for cur := lp; cur.IsValid(); cur = md.lps.Base(cur) {
		if md.lps.Kind(cur) != LpExtend {
			continue
		}
		elem := md.lps.Elem(cur)
		if elem.Kind != ElemInterior || elem.Interior.Class != mc.InteriorField {
			continue
		}
		base := md.lps.Base(cur)
		baseTy := md.oracle.Lookup(md.lps.Ty(base))
		if baseTy.Kind != types.KindAdt || !md.oracle.IsUnion(baseTy.Adt) {
			continue
		}
		info := md.oracle.Adt(baseTy.Adt)
		if info == nil || len(info.Variants) == 0 {
			continue
		}
		for i, fld := range info.Variants[0].Fields {
			idx, err := safecast.Conv[uint32](i)
			if err != nil {
				panic(fmt.Errorf("field index overflow: %w", err))
			}
			if types.FieldIdx(idx) == elem.Interior.Field {
				continue
			}
			sib := md.lps.Extend(
				base,
				md.lps.MutCat(cur),
				InteriorElem(elem.Variant, mc.FieldInterior(types.FieldIdx(idx), fld.Name)),
				fld.Ty,
			)
			f(sib)
		}
	}
}

// EachExtendingPath visits idx and every path in its subtree.
func (md *MoveData) EachExtendingPath(idx MovePathID, f func(MovePathID) bool) bool {
	if !md.hasPath(idx) {
		return true
	}
	if !f(idx) {
		return false
	}
	for child := md.paths[idx].FirstChild; child.IsValid(); child = md.paths[child].NextSibling {
		if !md.EachExtendingPath(child, f) {
			return false
		}
	}
	return true
}

// EachApplicableMove visits every move recorded against idx's subtree.
func (md *MoveData) EachApplicableMove(idx MovePathID, f func(moveIdx int) bool) bool {
	return md.EachExtendingPath(idx, func(p MovePathID) bool {
		for mi := md.paths[p].firstMove; mi != noMoveIdx; mi = md.moves[mi].next {
			if !f(int(mi)) {
				return false
			}
		}
		return true
	})
}

// AddGenKills feeds the gathered facts into the two dataflows: moves gen
// at the moving element and die when an assignment rewrites the path or
// the root variable leaves scope; variable assignments gen at the write
// and die with the variable.
func (md *MoveData) AddGenKills(tree regions.ScopeTree, dfMoves, dfAssign *dataflow.Analysis[dataflow.Union]) {
	for i := range md.moves {
		dfMoves.AddGen(md.moves[i].Elem, uint(i))
	}
	for i := range md.varAssignments {
		dfAssign.AddGen(md.varAssignments[i].Elem, uint(i))
	}

	// Re-initialization kills the moves of the written subtree.
	for i := range md.varAssignments {
		md.killMoves(md.varAssignments[i].Path, md.varAssignments[i].Elem, dataflow.KillExecution, dfMoves)
	}
	for i := range md.pathAssignments {
		md.killMoves(md.pathAssignments[i].Path, md.pathAssignments[i].Elem, dataflow.KillExecution, dfMoves)
	}

	// Scope end of the root variable kills the moves under it.
	for idx := 1; idx < len(md.paths); idx++ {
		lp := md.paths[idx].Path
		if md.lps.Kind(lp) != LpVar {
			continue
		}
		scope, ok := md.lps.KillScope(lp, tree.VariableScope)
		if !ok {
			continue
		}
		md.killMoves(MovePathID(idx), tree.Element(scope), dataflow.KillScopeEnd, dfMoves)
	}

	// Variable assignments die with their variable.
	for i := range md.varAssignments {
		lp := md.paths[md.varAssignments[i].Path].Path
		scope, ok := md.lps.KillScope(lp, tree.VariableScope)
		if !ok {
			continue
		}
		killElem := tree.Element(scope)
		if !killElem.IsValid() {
			continue
		}
		dfAssign.AddKill(dataflow.KillScopeEnd, killElem, uint(i))
	}
}

// killMoves registers kills for the moves applicable to idx. Kills are
// only sound for precise targets: an assignment through `a[i]` proves
// nothing about the move of `a[j]`. Scope-end kills additionally skip
// imprecise moved paths, whose siblings stay live past the projection.
func (md *MoveData) killMoves(idx MovePathID, killElem hir.NodeID, kind dataflow.KillKind, dfMoves *dataflow.Analysis[dataflow.Union]) {
	if !killElem.IsValid() || !md.hasPath(idx) {
		return
	}
	if !md.lps.IsPrecise(md.paths[idx].Path) {
		return
	}
	md.EachApplicableMove(idx, func(moveIdx int) bool {
		if kind == dataflow.KillScopeEnd && !md.lps.IsPrecise(md.paths[md.moves[moveIdx].Path].Path) {
			return true
		}
		dfMoves.AddKill(kind, killElem, uint(moveIdx))
		return true
	})
}

func (md *MoveData) hasPath(idx MovePathID) bool {
	return md != nil && idx.IsValid() && int(idx) < len(md.paths)
}

// EachMoveOf visits the moves live on entry to el that affect lp:
// a move of the path itself, of a prefix, or of an extension. Sibling
// paths forking at an Interior projection do not conflict. The callback
// returning false short-circuits; the return value reports completion.
func (md *MoveData) EachMoveOf(el hir.NodeID, lp LoanPathID, dfMoves *dataflow.Analysis[dataflow.Union], f func(move *Move, movedPath LoanPathID) bool) bool {
	// Strip owning derefs: using *box uses the box.
	base := md.lps.OwnedBasePath(lp)
	baseIndices := md.ExistingBasePaths(base)
	lpIdx, haveLpIdx := md.pathMap[base]

	return dfMoves.EachBitOnEntry(el, func(bit uint) bool {
		move := &md.moves[bit]
		movedPath := move.Path
		movedLp := md.paths[movedPath].Path
		for _, b := range baseIndices {
			if b == movedPath {
				// Move of lp itself or of one of its bases.
				return f(move, movedLp)
			}
		}
		if haveLpIdx {
			// Move of an extension of lp.
			for cur := movedPath; cur.IsValid(); cur = md.paths[cur].Parent {
				if cur == lpIdx {
					return f(move, movedLp)
				}
			}
		}
		// Anything else forks from lp at an Interior projection: disjoint.
		return true
	})
}
