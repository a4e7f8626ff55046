package borrowck

import (
	"fmt"

	"ferrous/internal/diag"
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
)

// gatherContext is the first walk over the body: it records loans, moves
// and assignments, and reports the violations that are visible without
// dataflow (illegal move origins, mutability, aliasability, lifetimes).
type gatherContext struct {
	cx       *checkContext
	moveData *MoveData
	allLoans []Loan
	usedMut  map[symbols.SymbolID]struct{}
}

var _ Delegate = (*gatherContext)(nil)

func newGatherContext(cx *checkContext, moveData *MoveData) *gatherContext {
	return &gatherContext{
		cx:       cx,
		moveData: moveData,
		usedMut:  make(map[symbols.SymbolID]struct{}),
	}
}

func (glcx *gatherContext) Consume(el hir.NodeID, cmt *mc.Cmt, mode ConsumeMode, reason MoveReason) {
	if mode != ConsumeMove {
		return
	}
	kind := MoveExpr
	if reason == MoveCaptured {
		kind = MoveKindCaptured
	}
	glcx.gatherMove(el, cmt, kind)
}

func (glcx *gatherContext) ConsumePat(pat hir.NodeID, cmt *mc.Cmt, mode ConsumeMode) {
	if mode != ConsumeMove {
		return
	}
	glcx.gatherMove(pat, cmt, MovePat)
}

func (glcx *gatherContext) MatchedPat(pat hir.NodeID, cmt *mc.Cmt, mode MatchMode) {
	// Informational; nothing to record.
}

func (glcx *gatherContext) Borrow(el hir.NodeID, cmt *mc.Cmt, region regions.Region, kind BorrowKind, cause LoanCause) {
	glcx.guaranteeValid(el, cmt, region, kind, cause)
}

func (glcx *gatherContext) Mutate(el hir.NodeID, cmt *mc.Cmt, mode MutateMode) {
	glcx.guaranteeAssignmentValid(el, cmt, mode)
}

func (glcx *gatherContext) DeclarationWithoutInit(sym symbols.SymbolID, el hir.NodeID, span source.Span) {
	// Variables begin life uninitialized: model that as a move at the
	// declaration point, killed by the first assignment.
	lp := glcx.cx.lps.Var(sym, glcx.cx.body.Types.TypeOf(el))
	glcx.moveData.AddMove(lp, el, span, MoveDeclared)
}

// gatherMove records a move out of cmt, rejecting moves from locations
// the mover does not own.
func (glcx *gatherContext) gatherMove(el hir.NodeID, cmt *mc.Cmt, kind MoveKind) {
	if bad, ok := illegalMoveOrigin(cmt); ok {
		glcx.reportMoveOutOfNonOwned(cmt, bad)
		return
	}
	lp, ok := glcx.cx.lps.ComputeFor(cmt)
	if !ok {
		// Moving out of an rvalue is well-formed; nothing to track.
		return
	}
	glcx.moveData.AddMove(lp, el, cmt.Span, kind)
}

// illegalMoveOrigin finds the first categorization step that makes the
// move illegal: a deref of borrowed or raw memory, a static, or an index
// into an array whose siblings would be left in limbo.
func illegalMoveOrigin(cmt *mc.Cmt) (*mc.Cmt, bool) {
	for cur := cmt; cur != nil; {
		switch cur.Cat {
		case mc.CatRvalue, mc.CatLocal, mc.CatUpvar:
			return nil, false
		case mc.CatStaticItem:
			return cur, true
		case mc.CatDeref:
			if cur.Ptr.Class == mc.PtrBox {
				cur = cur.Base
				continue
			}
			return cur, true
		case mc.CatInterior:
			if cur.Interior.Class == mc.InteriorIndex {
				return cur, true
			}
			cur = cur.Base
		case mc.CatDowncast:
			cur = cur.Base
		default:
			return nil, false
		}
	}
	return nil, false
}

func (glcx *gatherContext) reportMoveOutOfNonOwned(root, bad *mc.Cmt) {
	var what string
	switch {
	case bad.Cat == mc.CatStaticItem:
		what = "static item"
	case bad.Cat == mc.CatDeref && bad.Ptr.Class == mc.PtrRaw:
		what = "dereference of raw pointer"
	case bad.Cat == mc.CatDeref:
		what = "borrowed content"
	case bad.Cat == mc.CatInterior && bad.Interior.Class == mc.InteriorIndex:
		what = "indexed content"
	default:
		what = "non-owned location"
	}
	diag.ReportError(glcx.cx.reporter, diag.BckMoveOutOfNonOwned, root.Span,
		fmt.Sprintf("cannot move out of %s", what)).Emit()
}

// guaranteeAssignmentValid gates a write and records it as an assignment.
// Writes to bare locals defer their mutability question to the replay
// pass, which knows whether this is the first (initializing) write.
func (glcx *gatherContext) guaranteeAssignmentValid(el hir.NodeID, cmt *mc.Cmt, mode MutateMode) {
	if cmt.Cat != mc.CatLocal {
		if !glcx.checkMutability(el, cmt, BorrowMut) {
			return
		}
		if !glcx.checkAliasability(el, cmt, BorrowMut) {
			return
		}
	}
	lp, ok := glcx.cx.lps.ComputeFor(cmt)
	if !ok {
		return
	}
	glcx.markUsedMut(lp)
	glcx.moveData.AddAssignment(lp, el, cmt.Span, cmt.Elem, mode)
}

// guaranteeValid drives the full borrow pipeline for one borrow event:
// lifetime, mutability and aliasability gates, restriction computation,
// and finally the scope arithmetic that turns the result into a loan.
func (glcx *gatherContext) guaranteeValid(el hir.NodeID, cmt *mc.Cmt, region regions.Region, kind BorrowKind, cause LoanCause) {
	tree := glcx.cx.tree()

	if !glcx.guaranteeLifetime(el, cmt, region) {
		return
	}
	if !glcx.checkMutability(el, cmt, kind) {
		return
	}
	if !glcx.checkAliasability(el, cmt, kind) {
		return
	}

	res, ok := glcx.computeRestrictions(el, cmt, region, kind)
	if !ok {
		return
	}
	if res.safe {
		return
	}

	loanScope, ok := regions.LoanScope(tree, region)
	if !ok {
		// Erased region: nothing to hold the loan against.
		return
	}

	// The loan comes alive at the borrow itself when the borrow sits
	// inside the loan scope; a loan argued at a call site only enters
	// when its scope does.
	genScope := loanScope
	if borrowScope := tree.ScopeOf(el); borrowScope.IsValid() && tree.IsSubScopeOf(borrowScope, loanScope) {
		genScope = borrowScope
	}

	// The loan dies at the shorter of the loan scope and the lexical
	// scope of the path's root. A reborrow of &mut may outlive the
	// binding holding the reference, which is why the minimum matters.
	lexScope, ok := glcx.cx.lps.KillScope(res.path, tree.VariableScope)
	if !ok {
		// Upvar roots have no computable kill scope yet; drop the loan.
		return
	}
	killScope := loanScope
	if tree.IsSubScopeOf(lexScope, loanScope) {
		killScope = lexScope
	}

	if kind.IsExclusive() {
		glcx.markUsedMut(res.path)
	}

	glcx.allLoans = append(glcx.allLoans, Loan{
		Index:      len(glcx.allLoans),
		Path:       res.path,
		Kind:       kind,
		Restricted: res.restricted,
		GenScope:   genScope,
		KillScope:  killScope,
		Span:       cmt.Span,
		Cause:      cause,
	})
}

// markUsedMut walks the path outward and marks the first fresh binding as
// used mutably. A deref through a borrowed pointer stops the walk: the
// referent's mutability is the pointer's business, not the binding's.
func (glcx *gatherContext) markUsedMut(lp LoanPathID) {
	for lp.IsValid() {
		switch glcx.cx.lps.Kind(lp) {
		case LpVar, LpUpvar:
			glcx.usedMut[glcx.cx.lps.Local(lp)] = struct{}{}
			return
		case LpDowncast:
			lp = glcx.cx.lps.Base(lp)
		case LpExtend:
			elem := glcx.cx.lps.Elem(lp)
			if elem.Kind == ElemDeref && elem.Ptr.Class != mc.PtrBox {
				return
			}
			lp = glcx.cx.lps.Base(lp)
		default:
			return
		}
	}
}
