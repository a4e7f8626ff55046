package types

import (
	"fmt"

	"fortio.org/safecast"

	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
)

// Type is the structural payload behind a TypeID. Value-comparable so the
// interner can hash-cons it.
type Type struct {
	Kind   Kind
	Elem   TypeID             // ref/rawptr/box/array/slice element
	Mut    symbols.Mutability // ref/rawptr mutability
	Region regions.Region     // ref lifetime
	Adt    AdtID              // KindAdt payload
	Len    uint32             // array length
}

// AdtID identifies a nominal struct/union/enum in the interner.
type AdtID uint32

// NoAdtID marks the absence of an ADT reference.
const NoAdtID AdtID = 0

// IsValid reports whether the ID refers to a registered ADT.
func (id AdtID) IsValid() bool { return id != NoAdtID }

// AdtKind separates the three nominal type flavors.
type AdtKind uint8

const (
	AdtStruct AdtKind = iota
	AdtUnion
	AdtEnum
)

// Field is a named or positional member of a variant.
type Field struct {
	Name source.StringID
	Ty   TypeID
}

// Variant is one shape of an ADT. Structs and unions have exactly one.
type Variant struct {
	Name   source.StringID
	Fields []Field
}

// AdtInfo stores metadata for a nominal type.
type AdtInfo struct {
	Name     source.StringID
	Kind     AdtKind
	Variants []Variant
}

// Interner hash-conses types and owns the ADT arena.
// Index 0 of both arenas is the invalid sentinel.
type Interner struct {
	types []Type
	index map[Type]TypeID
	adts  []AdtInfo
}

// NewInterner builds an empty interner.
func NewInterner() *Interner {
	return &Interner{
		types: []Type{{}},
		index: map[Type]TypeID{{}: NoTypeID},
		adts:  []AdtInfo{{}},
	}
}

// Intern returns the canonical ID for the structural type.
func (in *Interner) Intern(t Type) TypeID {
	if id, ok := in.index[t]; ok {
		return id
	}
	value, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("type interner overflow: %w", err))
	}
	id := TypeID(value)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup resolves an interned type. Invalid IDs yield the zero Type.
func (in *Interner) Lookup(id TypeID) Type {
	if in == nil || int(id) >= len(in.types) {
		return Type{}
	}
	return in.types[id]
}

// RegisterAdt allocates a nominal type slot and returns its ID.
func (in *Interner) RegisterAdt(info AdtInfo) AdtID {
	value, err := safecast.Conv[uint32](len(in.adts))
	if err != nil {
		panic(fmt.Errorf("adt arena overflow: %w", err))
	}
	id := AdtID(value)
	in.adts = append(in.adts, info)
	return id
}

// Adt resolves ADT metadata; nil for invalid IDs.
func (in *Interner) Adt(id AdtID) *AdtInfo {
	if in == nil || !id.IsValid() || int(id) >= len(in.adts) {
		return nil
	}
	return &in.adts[id]
}

// IsUnion reports whether the ADT is a union.
func (in *Interner) IsUnion(id AdtID) bool {
	info := in.Adt(id)
	return info != nil && info.Kind == AdtUnion
}

// Convenience constructors used by the facts decoder and tests.

// Scalar interns a field-free type of the given kind.
func (in *Interner) Scalar(k Kind) TypeID {
	return in.Intern(Type{Kind: k})
}

// Ref interns a reference type with the given mutability and region.
func (in *Interner) Ref(elem TypeID, mut symbols.Mutability, r regions.Region) TypeID {
	return in.Intern(Type{Kind: KindRef, Elem: elem, Mut: mut, Region: r})
}

// RawPtr interns a raw pointer type.
func (in *Interner) RawPtr(elem TypeID, mut symbols.Mutability) TypeID {
	return in.Intern(Type{Kind: KindRawPtr, Elem: elem, Mut: mut})
}

// Box interns an owning pointer type.
func (in *Interner) Box(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindBox, Elem: elem})
}

// Array interns a fixed-size array type.
func (in *Interner) Array(elem TypeID, length uint32) TypeID {
	return in.Intern(Type{Kind: KindArray, Elem: elem, Len: length})
}

// AdtType interns the type of a registered ADT.
func (in *Interner) AdtType(id AdtID) TypeID {
	return in.Intern(Type{Kind: KindAdt, Adt: id})
}
