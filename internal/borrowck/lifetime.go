package borrowck

import (
	"fmt"

	"ferrous/internal/diag"
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
)

// guaranteeLifetime verifies that every pointer step of cmt outlives the
// requested loan. A reference deref settles the question for everything
// behind it: the reference's own region vouches for its referent.
func (glcx *gatherContext) guaranteeLifetime(el hir.NodeID, cmt *mc.Cmt, loanRegion regions.Region) bool {
	tree := glcx.cx.tree()
	for cur := cmt; cur != nil; {
		switch cur.Cat {
		case mc.CatRvalue, mc.CatStaticItem:
			// Rvalue temporaries are promoted to live at least as long as
			// the loan; statics are 'static.
			return true
		case mc.CatLocal:
			varScope := tree.VariableScope(cur.Local)
			if !regions.IsSubRegionOf(tree, loanRegion, regions.ScopedRegion(varScope)) {
				glcx.reportOutOfScope(cmt, cur, loanRegion)
				return false
			}
			return true
		case mc.CatUpvar:
			// Capture lifetimes are not modeled; the loan is dropped later
			// when its kill scope cannot be computed.
			return true
		case mc.CatDeref:
			switch cur.Ptr.Class {
			case mc.PtrRef:
				if !regions.IsSubRegionOf(tree, loanRegion, cur.Ptr.Region) {
					glcx.reportPointerTooShort(cmt, cur)
					return false
				}
				return true
			case mc.PtrBox:
				cur = cur.Base
			case mc.PtrRaw:
				return true
			}
		case mc.CatInterior, mc.CatDowncast:
			cur = cur.Base
		default:
			return true
		}
	}
	return true
}

func (glcx *gatherContext) reportOutOfScope(root, local *mc.Cmt, loanRegion regions.Region) {
	label := glcx.cx.cmtLabel(root)
	builder := diag.ReportError(glcx.cx.reporter, diag.BckOutOfScope, root.Span,
		fmt.Sprintf("borrowed value %s does not live long enough", label))
	if binding := glcx.cx.body.Bindings.Get(local.Local); binding != nil {
		builder.WithNote(binding.Span, fmt.Sprintf("%s declared here", glcx.cx.symbolLabel(local.Local)))
	}
	builder.Emit()
}

func (glcx *gatherContext) reportPointerTooShort(root, deref *mc.Cmt) {
	label := glcx.cx.cmtLabel(root)
	diag.ReportError(glcx.cx.reporter, diag.BckBorrowedPointerTooShort, root.Span,
		fmt.Sprintf("lifetime of %s is too short to guarantee its contents can be safely reborrowed", label)).
		WithNote(deref.Span, "the borrowed pointer is valid for a shorter lifetime than the requested loan").
		Emit()
}
