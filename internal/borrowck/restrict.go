package borrowck

import (
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

// restrictionResult is the outcome of the restriction computation:
// either the borrow needs no loan at all (safe), or it is safe provided
// the listed places stay untouched for the loan's duration.
type restrictionResult struct {
	safe       bool
	path       LoanPathID
	restricted []LoanPathID
}

func restrictionsSafe() restrictionResult {
	return restrictionResult{safe: true}
}

// computeRestrictions derives the restricted place set for borrowing cmt.
// Returns false when a violation was reported and no loan must be built.
//
// Invariant: in a SafeIf result every restricted element is the path
// itself or one of its prefixes.
func (glcx *gatherContext) computeRestrictions(el hir.NodeID, cmt *mc.Cmt, loanRegion regions.Region, kind BorrowKind) (restrictionResult, bool) {
	tree := glcx.cx.tree()
	switch cmt.Cat {
	case mc.CatRvalue, mc.CatStaticItem:
		// Rvalues live at least as long as the loan; statics are 'static.
		return restrictionsSafe(), true

	case mc.CatLocal:
		lp := glcx.cx.lps.Var(cmt.Local, cmt.Ty)
		return restrictionResult{path: lp, restricted: []LoanPathID{lp}}, true

	case mc.CatUpvar:
		lp := glcx.cx.lps.Upvar(cmt.Local, cmt.Ty)
		return restrictionResult{path: lp, restricted: []LoanPathID{lp}}, true

	case mc.CatInterior:
		res, ok := glcx.computeRestrictions(el, cmt.Base, loanRegion, kind)
		if !ok || res.safe {
			return res, ok
		}
		variant := types.NoVariantIdx
		if cmt.Base.Cat == mc.CatDowncast {
			variant = cmt.Base.Variant
		}
		lp := glcx.cx.lps.Extend(res.path, cmt.Base.MutCat, InteriorElem(variant, cmt.Interior), cmt.Ty)
		return extendRestrictions(res, lp), true

	case mc.CatDowncast:
		res, ok := glcx.computeRestrictions(el, cmt.Base, loanRegion, kind)
		if !ok || res.safe {
			return res, ok
		}
		lp := glcx.cx.lps.Downcast(res.path, cmt.Variant, cmt.Ty)
		return extendRestrictions(res, lp), true

	case mc.CatDeref:
		switch cmt.Ptr.Class {
		case mc.PtrBox:
			res, ok := glcx.computeRestrictions(el, cmt.Base, loanRegion, kind)
			if !ok || res.safe {
				return res, ok
			}
			lp := glcx.cx.lps.Extend(res.path, cmt.Base.MutCat, DerefElem(cmt.Ptr), cmt.Ty)
			return extendRestrictions(res, lp), true

		case mc.PtrRaw:
			// Unsafe code; the checker does not constrain it.
			return restrictionsSafe(), true

		case mc.PtrRef:
			if cmt.Ptr.Mut == symbols.Immutable {
				// The shared reference guarantees its referent for its own
				// region; nothing else needs locking.
				if !regions.IsSubRegionOf(tree, loanRegion, cmt.Ptr.Region) {
					glcx.reportPointerTooShort(cmt, cmt)
					return restrictionResult{}, false
				}
				return restrictionsSafe(), true
			}
			res, ok := glcx.computeRestrictions(el, cmt.Base, loanRegion, kind)
			if !ok {
				return res, false
			}
			if res.safe {
				return res, true
			}
			if !regions.IsSubRegionOf(tree, loanRegion, cmt.Ptr.Region) {
				glcx.reportPointerTooShort(cmt, cmt)
				return restrictionResult{}, false
			}
			lp := glcx.cx.lps.Extend(res.path, cmt.Base.MutCat, DerefElem(cmt.Ptr), cmt.Ty)
			if kind.IsExclusive() {
				return extendRestrictions(res, lp), true
			}
			// Shared reborrow of a mutable reference: the new loan locks
			// only the reborrowed place itself. Restricting the base would
			// freeze siblings of the outer place for no reason.
			return restrictionResult{path: lp, restricted: []LoanPathID{lp}}, true
		}
	}
	return restrictionsSafe(), true
}

func extendRestrictions(res restrictionResult, lp LoanPathID) restrictionResult {
	restricted := make([]LoanPathID, 0, len(res.restricted)+1)
	restricted = append(restricted, lp)
	restricted = append(restricted, res.restricted...)
	return restrictionResult{path: lp, restricted: restricted}
}
