package borrowck

import (
	"fmt"

	"ferrous/internal/cfg"
	"ferrous/internal/diag"
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

// Body bundles one function body with the collaborator views the checker
// needs. Everything here is read-only for the duration of the check.
type Body struct {
	Func hir.FuncID
	Name string
	Span source.Span

	Walker   Walker
	Types    types.Oracle
	Scopes   regions.ScopeTree
	Graph    *cfg.Graph
	Bindings *symbols.Table
	Strings  *source.Interner
}

// checkContext is the state shared between the gather and replay passes.
type checkContext struct {
	body     *Body
	reporter diag.Reporter
	lps      *PathTable
}

func (cx *checkContext) tree() regions.ScopeTree { return cx.body.Scopes }

func (cx *checkContext) lookupStr(id source.StringID) string {
	if cx.body.Strings == nil {
		return ""
	}
	s, _ := cx.body.Strings.Lookup(id)
	return s
}

func (cx *checkContext) symbolLabel(sym symbols.SymbolID) string {
	binding := cx.body.Bindings.Get(sym)
	if binding == nil {
		return "value"
	}
	name := cx.lookupStr(binding.Name)
	if name == "" {
		return "value"
	}
	return fmt.Sprintf("'%s'", name)
}

func (cx *checkContext) pathLabel(lp LoanPathID) string {
	if !lp.IsValid() {
		return "value"
	}
	rendered := cx.lps.Format(lp,
		func(sym symbols.SymbolID) string {
			binding := cx.body.Bindings.Get(sym)
			if binding == nil {
				return "value"
			}
			if name := cx.lookupStr(binding.Name); name != "" {
				return name
			}
			return "value"
		},
		cx.lookupStr,
	)
	return fmt.Sprintf("'%s'", rendered)
}

func (cx *checkContext) cmtLabel(cmt *mc.Cmt) string {
	if lp, ok := cx.lps.ComputeFor(cmt); ok {
		return cx.pathLabel(lp)
	}
	return "value"
}

// mutabilityFix suggests inserting `mut` at the root binding of a place,
// when the place bottoms out at an immutable local.
func (cx *checkContext) mutabilityFix(lp LoanPathID) (diag.Fix, bool) {
	sym := cx.lps.Root(lp)
	binding := cx.body.Bindings.Get(sym)
	if binding == nil || binding.Mut == symbols.Mutable {
		return diag.Fix{}, false
	}
	name := cx.lookupStr(binding.Name)
	if name == "" {
		return diag.Fix{}, false
	}
	at := binding.Span
	at.End = at.Start
	return diag.Fix{
		Title: fmt.Sprintf("make '%s' mutable", name),
		Edits: []diag.FixEdit{{Span: at, NewText: "mut "}},
	}, true
}
