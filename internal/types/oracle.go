package types

import (
	"ferrous/internal/hir"
	"ferrous/internal/symbols"
)

// Oracle is the slice of the front end's type system the checker consults.
// The facts decoder and the test kit provide implementations; the checker
// never constructs types itself.
type Oracle interface {
	// TypeOf reports the type of a syntactic element.
	TypeOf(el hir.NodeID) TypeID
	// Lookup resolves an interned type.
	Lookup(id TypeID) Type
	// MutabilityOf reports the declared mutability of a binding.
	MutabilityOf(sym symbols.SymbolID) symbols.Mutability
	// Adt resolves nominal type metadata.
	Adt(id AdtID) *AdtInfo
	// IsUnion reports whether the ADT is a union; union fields alias and
	// moves/assignments broadcast across them.
	IsUnion(id AdtID) bool
}
