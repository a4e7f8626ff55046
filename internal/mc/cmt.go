// Package mc is the memory-categorization model: the structured view of a
// place expression the front end hands the borrow checker. A Cmt records
// what kind of location an expression denotes, how it may be mutated and
// whether more than one name can reach it.
//
// Categorization itself happens in the front end; this package owns the
// data shape and the derivation of inherited mutability and aliasability
// along Cmt chains.
package mc

import (
	"ferrous/internal/hir"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

// Category enumerates what kind of location a Cmt denotes.
type Category uint8

const (
	// CatRvalue is a temporary value without a stable location.
	CatRvalue Category = iota
	// CatStaticItem is a static or const item.
	CatStaticItem
	// CatLocal is a local binding.
	CatLocal
	// CatUpvar is a closure-captured binding (reserved).
	CatUpvar
	// CatDeref is *base through some pointer.
	CatDeref
	// CatInterior is a field, index or pattern projection of base.
	CatInterior
	// CatDowncast narrows base to one enum variant.
	CatDowncast
)

func (c Category) String() string {
	switch c {
	case CatRvalue:
		return "rvalue"
	case CatStaticItem:
		return "static"
	case CatLocal:
		return "local"
	case CatUpvar:
		return "upvar"
	case CatDeref:
		return "deref"
	case CatInterior:
		return "interior"
	case CatDowncast:
		return "downcast"
	default:
		return "unknown"
	}
}

// MutabilityCategory records how a place may be mutated: not at all,
// because its binding says mut, or because an enclosing place does.
type MutabilityCategory uint8

const (
	McImmutable MutabilityCategory = iota
	McDeclared
	McInherited
)

// Inherit is the category a component place gets from its base.
func (m MutabilityCategory) Inherit() MutabilityCategory {
	if m == McImmutable {
		return McImmutable
	}
	return McInherited
}

// IsMutable reports whether writes through the place are allowed.
func (m MutabilityCategory) IsMutable() bool {
	return m != McImmutable
}

func (m MutabilityCategory) String() string {
	switch m {
	case McImmutable:
		return "immutable"
	case McDeclared:
		return "declared mutable"
	case McInherited:
		return "inherited mutable"
	default:
		return "unknown"
	}
}

// AliasCause explains why a place is freely aliasable.
type AliasCause uint8

const (
	AliasBorrowed AliasCause = iota // reached through a shared reference
	AliasStatic
	AliasStaticMut
)

// Aliasability tells whether a place can be reached by more than one name.
type Aliasability struct {
	Freely bool
	Cause  AliasCause
}

// NonAliasable is the aliasability of uniquely-owned places.
var NonAliasable = Aliasability{}

// FreelyAliasable tags a place reachable through several names.
func FreelyAliasable(cause AliasCause) Aliasability {
	return Aliasability{Freely: true, Cause: cause}
}

// PointerClass separates the pointer shapes a deref can go through.
type PointerClass uint8

const (
	// PtrRef is a borrowed reference &T / &mut T.
	PtrRef PointerClass = iota
	// PtrBox is the owning pointer; derefs of it follow ownership.
	PtrBox
	// PtrRaw is *const T / *mut T; the checker does not constrain it.
	PtrRaw
)

// PointerKind is the full description of a deref step. Value-comparable:
// it participates in loan path identity.
type PointerKind struct {
	Class  PointerClass
	Mut    symbols.Mutability // PtrRef and PtrRaw
	Region regions.Region     // PtrRef only
}

// RefPtr builds the pointer kind of a reference deref.
func RefPtr(mut symbols.Mutability, r regions.Region) PointerKind {
	return PointerKind{Class: PtrRef, Mut: mut, Region: r}
}

// BoxPtr is the pointer kind of an owning deref.
var BoxPtr = PointerKind{Class: PtrBox}

// RawPtr builds the pointer kind of an unsafe deref.
func RawPtr(mut symbols.Mutability) PointerKind {
	return PointerKind{Class: PtrRaw, Mut: mut}
}

// InteriorClass separates field access, indexing and pattern projections.
type InteriorClass uint8

const (
	InteriorField InteriorClass = iota
	InteriorIndex
	InteriorPattern
)

// InteriorKind is the full description of an interior projection.
// Value-comparable: it participates in loan path identity.
type InteriorKind struct {
	Class InteriorClass
	Field types.FieldIdx  // InteriorField only
	Name  source.StringID // named fields, for diagnostics
}

// FieldInterior builds a field projection.
func FieldInterior(idx types.FieldIdx, name source.StringID) InteriorKind {
	return InteriorKind{Class: InteriorField, Field: idx, Name: name}
}

// IndexInterior is the projection of arr[i]; indexing defeats path
// precision.
var IndexInterior = InteriorKind{Class: InteriorIndex, Field: types.NoFieldIdx}

// PatternInterior is a projection introduced by destructuring.
var PatternInterior = InteriorKind{Class: InteriorPattern, Field: types.NoFieldIdx}

// Cmt is a categorized place expression. Immutable once built; compound
// categories link to their base.
type Cmt struct {
	Cat      Category
	Elem     hir.NodeID
	Span     source.Span
	Base     *Cmt             // deref/interior/downcast
	Local    symbols.SymbolID // local/upvar
	Ptr      PointerKind      // deref
	Interior InteriorKind     // interior
	Variant  types.VariantIdx // downcast
	Ty       types.TypeID
	MutCat   MutabilityCategory
	Alias    Aliasability
}

// NewRvalue categorizes a temporary.
func NewRvalue(elem hir.NodeID, span source.Span, ty types.TypeID) *Cmt {
	return &Cmt{Cat: CatRvalue, Elem: elem, Span: span, Ty: ty, MutCat: McDeclared, Variant: types.NoVariantIdx}
}

// NewStaticItem categorizes a static; mut selects static mut.
func NewStaticItem(elem hir.NodeID, span source.Span, ty types.TypeID, mut symbols.Mutability) *Cmt {
	cause := AliasStatic
	mutCat := McImmutable
	if mut == symbols.Mutable {
		cause = AliasStaticMut
		mutCat = McDeclared
	}
	return &Cmt{
		Cat: CatStaticItem, Elem: elem, Span: span, Ty: ty,
		MutCat:  mutCat,
		Alias:   FreelyAliasable(cause),
		Variant: types.NoVariantIdx,
	}
}

// NewLocal categorizes a use of a binding.
func NewLocal(elem hir.NodeID, span source.Span, sym symbols.SymbolID, ty types.TypeID, mut symbols.Mutability) *Cmt {
	mutCat := McImmutable
	if mut == symbols.Mutable {
		mutCat = McDeclared
	}
	return &Cmt{
		Cat: CatLocal, Elem: elem, Span: span, Local: sym, Ty: ty,
		MutCat:  mutCat,
		Variant: types.NoVariantIdx,
	}
}

// NewUpvar categorizes a captured binding (reserved surface).
func NewUpvar(elem hir.NodeID, span source.Span, sym symbols.SymbolID, ty types.TypeID) *Cmt {
	return &Cmt{
		Cat: CatUpvar, Elem: elem, Span: span, Local: sym, Ty: ty,
		MutCat:  McImmutable,
		Variant: types.NoVariantIdx,
	}
}

// NewDeref categorizes *base. Mutability and aliasability follow the
// pointer: shared refs freeze and alias, mutable refs grant mutation,
// boxes inherit from their owner, raw pointers answer to unsafe code.
func NewDeref(elem hir.NodeID, span source.Span, base *Cmt, ptr PointerKind, ty types.TypeID) *Cmt {
	cmt := &Cmt{
		Cat: CatDeref, Elem: elem, Span: span, Base: base, Ptr: ptr, Ty: ty,
		Variant: types.NoVariantIdx,
	}
	switch ptr.Class {
	case PtrRef:
		if ptr.Mut == symbols.Mutable {
			cmt.MutCat = McDeclared
			cmt.Alias = NonAliasable
		} else {
			cmt.MutCat = McImmutable
			cmt.Alias = FreelyAliasable(AliasBorrowed)
		}
	case PtrBox:
		cmt.MutCat = base.MutCat.Inherit()
		cmt.Alias = base.Alias
	case PtrRaw:
		if ptr.Mut == symbols.Mutable {
			cmt.MutCat = McDeclared
		} else {
			cmt.MutCat = McImmutable
		}
		cmt.Alias = NonAliasable
	}
	return cmt
}

// NewInterior categorizes base.field, base[i] or a pattern projection.
func NewInterior(elem hir.NodeID, span source.Span, base *Cmt, interior InteriorKind, ty types.TypeID) *Cmt {
	return &Cmt{
		Cat: CatInterior, Elem: elem, Span: span, Base: base,
		Interior: interior, Ty: ty,
		MutCat:  base.MutCat.Inherit(),
		Alias:   base.Alias,
		Variant: types.NoVariantIdx,
	}
}

// NewDowncast narrows base to one enum variant.
func NewDowncast(elem hir.NodeID, span source.Span, base *Cmt, variant types.VariantIdx, ty types.TypeID) *Cmt {
	return &Cmt{
		Cat: CatDowncast, Elem: elem, Span: span, Base: base,
		Variant: variant, Ty: ty,
		MutCat: base.MutCat.Inherit(),
		Alias:  base.Alias,
	}
}
