package borrowck

import (
	"fmt"

	"ferrous/internal/dataflow"
	"ferrous/internal/diag"
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
)

// replayContext is the second walk over the body: every event is checked
// against the dataflow results and violations become diagnostics.
type replayContext struct {
	cx       *checkContext
	moveData *MoveData
	allLoans []Loan

	dfLoans  *dataflow.Analysis[dataflow.Union]
	dfMoves  *dataflow.Analysis[dataflow.Union]
	dfAssign *dataflow.Analysis[dataflow.Union]

	reassignImmutable bool
}

var _ Delegate = (*replayContext)(nil)

func (clcx *replayContext) Consume(el hir.NodeID, cmt *mc.Cmt, mode ConsumeMode, reason MoveReason) {
	clcx.consumeCommon(el, cmt, mode)
}

func (clcx *replayContext) ConsumePat(pat hir.NodeID, cmt *mc.Cmt, mode ConsumeMode) {
	clcx.consumeCommon(pat, cmt, mode)
}

func (clcx *replayContext) MatchedPat(pat hir.NodeID, cmt *mc.Cmt, mode MatchMode) {}

func (clcx *replayContext) Borrow(el hir.NodeID, cmt *mc.Cmt, region regions.Region, kind BorrowKind, cause LoanCause) {
	if lp, ok := clcx.cx.lps.ComputeFor(cmt); ok {
		clcx.checkIfPathIsMoved(el, cmt, lp)
	}
	clcx.checkForConflictingLoans(el)
}

func (clcx *replayContext) Mutate(el hir.NodeID, cmt *mc.Cmt, mode MutateMode) {
	lp, ok := clcx.cx.lps.ComputeFor(cmt)
	if !ok {
		return
	}
	clcx.checkAssignment(el, cmt, lp)
}

func (clcx *replayContext) DeclarationWithoutInit(sym symbols.SymbolID, el hir.NodeID, span source.Span) {
}

func (clcx *replayContext) consumeCommon(el hir.NodeID, cmt *mc.Cmt, mode ConsumeMode) {
	lp, ok := clcx.cx.lps.ComputeFor(cmt)
	if !ok {
		return
	}
	switch mode {
	case ConsumeCopy:
		clcx.checkForCopyOfFrozenPath(el, cmt, lp)
	case ConsumeMove:
		clcx.checkForMoveOfBorrowedPath(el, cmt, lp)
	}
	clcx.checkIfPathIsMoved(el, cmt, lp)
}

// checkForCopyOfFrozenPath rejects reads of a place locked by an
// exclusive loan.
func (clcx *replayContext) checkForCopyOfFrozenPath(el hir.NodeID, cmt *mc.Cmt, lp LoanPathID) {
	if loan, conflict := clcx.analyzeRestrictionsOnUse(el, lp, BorrowShared); conflict {
		clcx.reportLoanConflict(cmt, loan,
			fmt.Sprintf("cannot use %s because it was mutably borrowed", clcx.cx.pathLabel(lp)))
	}
}

// checkForMoveOfBorrowedPath rejects moving a place any live loan covers.
func (clcx *replayContext) checkForMoveOfBorrowedPath(el hir.NodeID, cmt *mc.Cmt, lp LoanPathID) {
	if loan, conflict := clcx.analyzeRestrictionsOnUse(el, lp, BorrowMut); conflict {
		clcx.reportLoanConflict(cmt, loan,
			fmt.Sprintf("cannot move out of %s because it is borrowed", clcx.cx.pathLabel(lp)))
	}
}

// analyzeRestrictionsOnUse treats the use as a borrow of the given kind
// and asks whether any live loan is incompatible with it.
func (clcx *replayContext) analyzeRestrictionsOnUse(el hir.NodeID, lp LoanPathID, wantKind BorrowKind) (*Loan, bool) {
	var conflicting *Loan
	clcx.eachInScopeLoanAffectingPath(el, lp, func(loan *Loan) bool {
		if !compatibleBorrowKinds(loan.Kind, wantKind) {
			conflicting = loan
			return false
		}
		return true
	})
	return conflicting, conflicting != nil
}

// compatibleBorrowKinds: only two shared borrows may overlap.
func compatibleBorrowKinds(a, b BorrowKind) bool {
	return a == BorrowShared && b == BorrowShared
}

// eachInScopeLoanAffectingPath visits the loans live on entry to el that
// affect lp: loans whose restricted set names lp (borrows of lp or of
// places under it), and loans taken out on a base of lp (using lp could
// invalidate the reference built from the base). Sibling places that
// fork at an Interior projection are exempt by construction: they appear
// in neither set.
func (clcx *replayContext) eachInScopeLoanAffectingPath(el hir.NodeID, lp LoanPathID, f func(*Loan) bool) bool {
	cont := clcx.eachInScopeLoan(el, func(loan *Loan) bool {
		for _, restricted := range loan.Restricted {
			if restricted == lp {
				return f(loan)
			}
		}
		return true
	})
	if !cont {
		return false
	}
	for base := clcx.cx.lps.Base(lp); base.IsValid(); base = clcx.cx.lps.Base(base) {
		cont = clcx.eachInScopeLoan(el, func(loan *Loan) bool {
			if loan.Path == base {
				return f(loan)
			}
			return true
		})
		if !cont {
			return false
		}
	}
	return true
}

func (clcx *replayContext) eachInScopeLoan(el hir.NodeID, f func(*Loan) bool) bool {
	return clcx.dfLoans.EachBitOnEntry(el, func(bit uint) bool {
		return f(&clcx.allLoans[bit])
	})
}

// checkForConflictingLoans compares the loans issued at el against each
// other and against the loans already live on entry.
func (clcx *replayContext) checkForConflictingLoans(el hir.NodeID) {
	var newLoans []*Loan
	clcx.dfLoans.EachGenBit(el, func(bit uint) bool {
		newLoans = append(newLoans, &clcx.allLoans[bit])
		return true
	})
	for _, newLoan := range newLoans {
		clcx.eachInScopeLoan(el, func(issued *Loan) bool {
			if issued.Index != newLoan.Index {
				clcx.reportIfLoansConflict(issued, newLoan)
			}
			return true
		})
	}
	for i, x := range newLoans {
		for _, y := range newLoans[i+1:] {
			clcx.reportIfLoansConflict(x, y)
		}
	}
}

func (clcx *replayContext) reportIfLoansConflict(oldLoan, newLoan *Loan) {
	if compatibleBorrowKinds(oldLoan.Kind, newLoan.Kind) {
		return
	}
	if !clcx.loanRestricts(oldLoan, newLoan.Path) && !clcx.loanRestricts(newLoan, oldLoan.Path) {
		return
	}
	label := clcx.cx.pathLabel(newLoan.Path)
	var msg string
	switch {
	case newLoan.Kind == BorrowShared:
		msg = fmt.Sprintf("cannot borrow %s as immutable because it is also borrowed as mutable", label)
	case oldLoan.Kind == BorrowShared:
		msg = fmt.Sprintf("cannot borrow %s as mutable because it is also borrowed as immutable", label)
	default:
		msg = fmt.Sprintf("cannot borrow %s as mutable more than once at a time", label)
	}
	diag.ReportError(clcx.cx.reporter, diag.BckLoanConflict, newLoan.Span, msg).
		WithNote(oldLoan.Span, fmt.Sprintf("previous borrow of %s occurs here", clcx.cx.pathLabel(oldLoan.Path))).
		Emit()
}

func (clcx *replayContext) loanRestricts(loan *Loan, lp LoanPathID) bool {
	for _, restricted := range loan.Restricted {
		if restricted == lp {
			return true
		}
	}
	// A loan of a base place also restricts its extensions.
	for base := clcx.cx.lps.Base(lp); base.IsValid(); base = clcx.cx.lps.Base(base) {
		if loan.Path == base {
			return true
		}
	}
	return false
}

// checkAssignment rejects writes to borrowed places and re-assignments
// of immutable bindings.
func (clcx *replayContext) checkAssignment(el hir.NodeID, cmt *mc.Cmt, lp LoanPathID) {
	clcx.eachInScopeLoanAffectingPath(el, lp, func(loan *Loan) bool {
		clcx.reportLoanConflict(cmt, loan,
			fmt.Sprintf("cannot assign to %s because it is borrowed", clcx.cx.pathLabel(lp)))
		return false
	})

	if !clcx.reassignImmutable || !clcx.cx.lps.IsVariablePath(lp) {
		return
	}
	sym := clcx.cx.lps.Local(lp)
	binding := clcx.cx.body.Bindings.Get(sym)
	if binding == nil || binding.Mut == symbols.Mutable {
		return
	}
	clcx.dfAssign.EachBitOnEntry(el, func(bit uint) bool {
		assign := clcx.moveData.VarAssignmentAt(int(bit))
		if assign == nil || clcx.moveData.LoanPathOf(assign.Path) != lp {
			return true
		}
		builder := diag.ReportError(clcx.cx.reporter, diag.BckReassignImmutable, cmt.Span,
			fmt.Sprintf("re-assignment of immutable binding %s", clcx.cx.symbolLabel(sym))).
			WithNote(assign.Span, "first assignment occurs here")
		if fix, ok := clcx.cx.mutabilityFix(lp); ok {
			builder.WithFixSuggestion(fix)
		}
		builder.Emit()
		return false
	})
}

// checkIfPathIsMoved reports uses of places whose value has moved away
// and has not been re-initialized on some path reaching this use.
func (clcx *replayContext) checkIfPathIsMoved(el hir.NodeID, cmt *mc.Cmt, lp LoanPathID) {
	clcx.moveData.EachMoveOf(el, lp, clcx.dfMoves, func(move *Move, movedLp LoanPathID) bool {
		label := clcx.cx.pathLabel(lp)
		if move.Kind == MoveDeclared {
			diag.ReportError(clcx.cx.reporter, diag.BckUseOfMoved, cmt.Span,
				fmt.Sprintf("use of possibly-uninitialized %s", label)).
				WithNote(move.Span, fmt.Sprintf("%s declared here without an initial value", clcx.cx.pathLabel(movedLp))).
				Emit()
			return false
		}
		diag.ReportError(clcx.cx.reporter, diag.BckUseOfMoved, cmt.Span,
			fmt.Sprintf("use of moved value %s", label)).
			WithNote(move.Span, fmt.Sprintf("value %s here", move.Kind)).
			Emit()
		return false
	})
}

func (clcx *replayContext) reportLoanConflict(cmt *mc.Cmt, loan *Loan, msg string) {
	diag.ReportError(clcx.cx.reporter, diag.BckLoanConflict, cmt.Span, msg).
		WithNote(loan.Span, fmt.Sprintf("borrow of %s occurs here", clcx.cx.pathLabel(loan.Path))).
		Emit()
}
