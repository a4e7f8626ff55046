package borrowck

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"ferrous/internal/mc"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

// LoanPathID identifies an interned loan path. Structural hash-consing
// makes equality an ID comparison: two computations of the same place
// always intern to the same ID.
type LoanPathID uint32

// NoLoanPathID marks the absence of a loan path.
const NoLoanPathID LoanPathID = 0

// IsValid reports whether the ID refers to an interned path.
func (id LoanPathID) IsValid() bool { return id != NoLoanPathID }

// LoanPathKind enumerates the loan path constructors.
type LoanPathKind uint8

const (
	LpInvalid LoanPathKind = iota
	// LpVar is a local binding, the root of most paths.
	LpVar
	// LpUpvar is a closure-captured binding (reserved; its kill scope is
	// unspecified until capture is modeled).
	LpUpvar
	// LpDowncast narrows an enum place to one variant.
	LpDowncast
	// LpExtend projects out of a base path through a deref or an interior
	// element.
	LpExtend
)

// PathElemKind separates the two extension elements.
type PathElemKind uint8

const (
	ElemDeref PathElemKind = iota
	ElemInterior
)

// PathElem is one extension step. Value-comparable: it is part of path
// identity.
type PathElem struct {
	Kind     PathElemKind
	Ptr      mc.PointerKind   // ElemDeref
	Variant  types.VariantIdx // ElemInterior: enclosing variant, if downcast
	Interior mc.InteriorKind  // ElemInterior
}

// DerefElem builds a *p step.
func DerefElem(ptr mc.PointerKind) PathElem {
	return PathElem{Kind: ElemDeref, Ptr: ptr, Variant: types.NoVariantIdx}
}

// InteriorElem builds a field/index/pattern step; variant is valid only
// when the projection goes through a downcast.
func InteriorElem(variant types.VariantIdx, interior mc.InteriorKind) PathElem {
	return PathElem{Kind: ElemInterior, Variant: variant, Interior: interior}
}

// loanPath is the interning key of one path node.
type loanPath struct {
	Kind    LoanPathKind
	Local   symbols.SymbolID // var/upvar
	Base    LoanPathID       // downcast/extend
	Variant types.VariantIdx // downcast
	MutCat  mc.MutabilityCategory
	Elem    PathElem // extend
}

// PathTable hash-conses loan paths for one body analysis.
// Index 0 is the invalid sentinel.
type PathTable struct {
	paths []loanPath
	tys   []types.TypeID
	index map[loanPath]LoanPathID
}

// NewPathTable builds an empty table.
func NewPathTable() *PathTable {
	return &PathTable{
		paths: []loanPath{{}},
		tys:   []types.TypeID{types.NoTypeID},
		index: make(map[loanPath]LoanPathID),
	}
}

func (t *PathTable) intern(p loanPath, ty types.TypeID) LoanPathID {
	if id, ok := t.index[p]; ok {
		return id
	}
	value, err := safecast.Conv[uint32](len(t.paths))
	if err != nil {
		panic(fmt.Errorf("loan path table overflow: %w", err))
	}
	id := LoanPathID(value)
	t.paths = append(t.paths, p)
	t.tys = append(t.tys, ty)
	t.index[p] = id
	return id
}

// Var interns the path of a local binding.
func (t *PathTable) Var(sym symbols.SymbolID, ty types.TypeID) LoanPathID {
	return t.intern(loanPath{Kind: LpVar, Local: sym, Variant: types.NoVariantIdx}, ty)
}

// Upvar interns the path of a captured binding.
func (t *PathTable) Upvar(sym symbols.SymbolID, ty types.TypeID) LoanPathID {
	return t.intern(loanPath{Kind: LpUpvar, Local: sym, Variant: types.NoVariantIdx}, ty)
}

// Downcast interns base narrowed to a variant.
func (t *PathTable) Downcast(base LoanPathID, variant types.VariantIdx, ty types.TypeID) LoanPathID {
	return t.intern(loanPath{Kind: LpDowncast, Base: base, Variant: variant}, ty)
}

// Extend interns base projected through elem.
func (t *PathTable) Extend(base LoanPathID, mutCat mc.MutabilityCategory, elem PathElem, ty types.TypeID) LoanPathID {
	return t.intern(loanPath{Kind: LpExtend, Base: base, MutCat: mutCat, Elem: elem, Variant: types.NoVariantIdx}, ty)
}

// Kind returns the constructor of a path.
func (t *PathTable) Kind(id LoanPathID) LoanPathKind {
	if !t.has(id) {
		return LpInvalid
	}
	return t.paths[id].Kind
}

// Ty returns the type a path carries.
func (t *PathTable) Ty(id LoanPathID) types.TypeID {
	if !t.has(id) {
		return types.NoTypeID
	}
	return t.tys[id]
}

// Base strips one Downcast/Extend step; NoLoanPathID at a root.
func (t *PathTable) Base(id LoanPathID) LoanPathID {
	if !t.has(id) {
		return NoLoanPathID
	}
	return t.paths[id].Base
}

// Elem returns the extension step of an LpExtend path.
func (t *PathTable) Elem(id LoanPathID) PathElem {
	if !t.has(id) || t.paths[id].Kind != LpExtend {
		return PathElem{}
	}
	return t.paths[id].Elem
}

// MutCat returns the mutability category of an LpExtend step.
func (t *PathTable) MutCat(id LoanPathID) mc.MutabilityCategory {
	if !t.has(id) {
		return mc.McImmutable
	}
	return t.paths[id].MutCat
}

// Local returns the binding of an LpVar/LpUpvar node.
func (t *PathTable) Local(id LoanPathID) symbols.SymbolID {
	if !t.has(id) {
		return symbols.NoSymbolID
	}
	return t.paths[id].Local
}

// Variant returns the variant of an LpDowncast node.
func (t *PathTable) Variant(id LoanPathID) types.VariantIdx {
	if !t.has(id) {
		return types.NoVariantIdx
	}
	return t.paths[id].Variant
}

// Root walks to the binding the path is rooted at.
func (t *PathTable) Root(id LoanPathID) symbols.SymbolID {
	for t.has(id) {
		p := t.paths[id]
		switch p.Kind {
		case LpVar, LpUpvar:
			return p.Local
		default:
			id = p.Base
		}
	}
	return symbols.NoSymbolID
}

// KillScope is the lexical scope of the root binding, transparent through
// Downcast and Extend. Upvar kill scopes are unspecified until closure
// capture is modeled; callers must treat the false return as "no loan".
func (t *PathTable) KillScope(id LoanPathID, varScope func(symbols.SymbolID) symbols.ScopeID) (symbols.ScopeID, bool) {
	for t.has(id) {
		p := t.paths[id]
		switch p.Kind {
		case LpVar:
			scope := varScope(p.Local)
			return scope, scope.IsValid()
		case LpUpvar:
			return symbols.NoScopeID, false
		default:
			id = p.Base
		}
	}
	return symbols.NoScopeID, false
}

// IsPrecise reports whether the path contains no Interior projection.
// Indexing and field patterns defeat precision: a kill of `a[i]` cannot
// prove anything about `a[j]`.
func (t *PathTable) IsPrecise(id LoanPathID) bool {
	for t.has(id) {
		p := t.paths[id]
		switch p.Kind {
		case LpVar, LpUpvar:
			return true
		case LpExtend:
			if p.Elem.Kind == ElemInterior {
				return false
			}
			id = p.Base
		default:
			id = p.Base
		}
	}
	return false
}

// HasPrefix reports whether prefix is id itself or one of its bases.
func (t *PathTable) HasPrefix(id, prefix LoanPathID) bool {
	for t.has(id) {
		if id == prefix {
			return true
		}
		id = t.paths[id].Base
	}
	return false
}

// HasFork reports whether a and b diverge at some Interior projection:
// sibling fields that provably denote disjoint storage. Derefs are
// transparent on either side.
func (t *PathTable) HasFork(a, b LoanPathID) bool {
	if !t.has(a) || !t.has(b) {
		return false
	}
	pa, pb := t.paths[a], t.paths[b]
	switch {
	case pa.Kind == LpExtend && pa.Elem.Kind == ElemInterior &&
		pb.Kind == LpExtend && pb.Elem.Kind == ElemInterior:
		if pa.Base == pb.Base {
			return pa.Elem != pb.Elem
		}
		return t.HasFork(pa.Base, pb.Base)
	case pa.Kind == LpExtend && pa.Elem.Kind == ElemDeref:
		return t.HasFork(pa.Base, b)
	case pb.Kind == LpExtend && pb.Elem.Kind == ElemDeref:
		return t.HasFork(a, pb.Base)
	default:
		return false
	}
}

// IsVariablePath reports whether the path is a bare binding: assignments
// to it are variable assignments, everything else is a path assignment.
func (t *PathTable) IsVariablePath(id LoanPathID) bool {
	k := t.Kind(id)
	return k == LpVar || k == LpUpvar
}

// TraversesInterior reports whether the path crosses at least one
// Interior projection.
func (t *PathTable) TraversesInterior(id LoanPathID) bool {
	return !t.IsPrecise(id)
}

// ComputeFor maps a categorized place to its loan path. Partial: rvalues,
// statics and anything rooted at them have no path.
func (t *PathTable) ComputeFor(cmt *mc.Cmt) (LoanPathID, bool) {
	if cmt == nil {
		return NoLoanPathID, false
	}
	switch cmt.Cat {
	case mc.CatRvalue, mc.CatStaticItem:
		return NoLoanPathID, false
	case mc.CatLocal:
		return t.Var(cmt.Local, cmt.Ty), true
	case mc.CatUpvar:
		return t.Upvar(cmt.Local, cmt.Ty), true
	case mc.CatDeref:
		base, ok := t.ComputeFor(cmt.Base)
		if !ok {
			return NoLoanPathID, false
		}
		return t.Extend(base, cmt.Base.MutCat, DerefElem(cmt.Ptr), cmt.Ty), true
	case mc.CatInterior:
		base, ok := t.ComputeFor(cmt.Base)
		if !ok {
			return NoLoanPathID, false
		}
		variant := types.NoVariantIdx
		if cmt.Base.Cat == mc.CatDowncast {
			variant = cmt.Base.Variant
		}
		return t.Extend(base, cmt.Base.MutCat, InteriorElem(variant, cmt.Interior), cmt.Ty), true
	case mc.CatDowncast:
		base, ok := t.ComputeFor(cmt.Base)
		if !ok {
			return NoLoanPathID, false
		}
		return t.Downcast(base, cmt.Variant, cmt.Ty), true
	default:
		return NoLoanPathID, false
	}
}

// OwnedBasePath strips trailing owning derefs: a use of `*boxed` is a use
// of `boxed` as far as move tracking goes.
func (t *PathTable) OwnedBasePath(id LoanPathID) LoanPathID {
	for t.has(id) {
		p := t.paths[id]
		if p.Kind == LpExtend && p.Elem.Kind == ElemDeref && p.Elem.Ptr.Class == mc.PtrBox {
			id = p.Base
			continue
		}
		return id
	}
	return NoLoanPathID
}

// Format renders the path for diagnostics: `x`, `*x`, `x.f`, `x[_]`.
func (t *PathTable) Format(id LoanPathID, symName func(symbols.SymbolID) string, strName func(source.StringID) string) string {
	if !t.has(id) {
		return "value"
	}
	p := t.paths[id]
	switch p.Kind {
	case LpVar, LpUpvar:
		return symName(p.Local)
	case LpDowncast:
		return t.Format(p.Base, symName, strName)
	case LpExtend:
		base := t.Format(p.Base, symName, strName)
		if p.Elem.Kind == ElemDeref {
			return "*" + base
		}
		switch p.Elem.Interior.Class {
		case mc.InteriorField:
			var b strings.Builder
			b.WriteString(base)
			b.WriteByte('.')
			if name := strName(p.Elem.Interior.Name); name != "" {
				b.WriteString(name)
			} else {
				fmt.Fprintf(&b, "%d", p.Elem.Interior.Field)
			}
			return b.String()
		case mc.InteriorIndex:
			return base + "[_]"
		default:
			return base
		}
	default:
		return "value"
	}
}

func (t *PathTable) has(id LoanPathID) bool {
	return t != nil && id.IsValid() && int(id) < len(t.paths)
}
