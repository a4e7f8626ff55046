package borrowck

import (
	"fmt"

	"ferrous/internal/diag"
	"ferrous/internal/hir"
	"ferrous/internal/mc"
)

// checkMutability gates exclusive access to a place: shared borrows pass
// immediately, everything else needs a mutable categorization.
func (glcx *gatherContext) checkMutability(el hir.NodeID, cmt *mc.Cmt, kind BorrowKind) bool {
	if kind == BorrowShared || cmt.MutCat.IsMutable() {
		return true
	}
	label := glcx.cx.cmtLabel(cmt)
	builder := diag.ReportError(glcx.cx.reporter, diag.BckMutability, cmt.Span,
		fmt.Sprintf("cannot borrow immutable value %s as mutable", label))
	if lp, ok := glcx.cx.lps.ComputeFor(cmt); ok {
		if fix, ok := glcx.cx.mutabilityFix(lp); ok {
			builder.WithFixSuggestion(fix)
		}
	}
	builder.Emit()
	return false
}

// checkAliasability rejects exclusive access to freely-aliasable places.
// Immutable borrows of immutable statics are fine; static mut passes
// unconditionally, its soundness is unsafe code's problem.
func (glcx *gatherContext) checkAliasability(el hir.NodeID, cmt *mc.Cmt, kind BorrowKind) bool {
	if !cmt.Alias.Freely {
		return true
	}
	if cmt.Alias.Cause == mc.AliasStaticMut {
		return true
	}
	if kind == BorrowShared {
		return true
	}
	label := glcx.cx.cmtLabel(cmt)
	var msg string
	switch cmt.Alias.Cause {
	case mc.AliasStatic:
		msg = fmt.Sprintf("cannot borrow immutable static %s as mutable", label)
	default:
		msg = fmt.Sprintf("cannot borrow %s as mutable, as it is behind a shared reference", label)
	}
	diag.ReportError(glcx.cx.reporter, diag.BckAliasability, cmt.Span, msg).Emit()
	return false
}
