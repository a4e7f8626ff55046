// Package regions models the lexical scope tree and the static regions
// (lifetimes) the borrow checker compares against it.
//
// The tree itself belongs to the front end; the checker consults it through
// the ScopeTree interface. The arena Tree implementation is what the facts
// decoder and the test kit instantiate.
package regions

import (
	"ferrous/internal/symbols"
)

// RegionKind enumerates the static approximations of lifetimes the
// checker understands.
type RegionKind uint8

const (
	// RegionErased is an unknown or elided region; loans over it are dropped.
	RegionErased RegionKind = iota
	// RegionScope is a lexical scope inside the current body.
	RegionScope
	// RegionEarlyBound is an early-bound lifetime parameter of the item.
	RegionEarlyBound
	// RegionFree is a late-bound (free) lifetime of the current body.
	RegionFree
	RegionStatic
)

// Region is a static lifetime. Value-comparable: regions participate in
// loan path identity.
type Region struct {
	Kind  RegionKind
	Scope symbols.ScopeID // RegionScope only
	Index uint32          // parameter index for early-bound/free regions
}

// ScopedRegion wraps a body-local scope as a region.
func ScopedRegion(scope symbols.ScopeID) Region {
	return Region{Kind: RegionScope, Scope: scope}
}

// StaticRegion is the 'static lifetime.
var StaticRegion = Region{Kind: RegionStatic}

// ErasedRegion is the unknown lifetime.
var ErasedRegion = Region{Kind: RegionErased}

// FreeRegion wraps a late-bound lifetime parameter.
func FreeRegion(index uint32) Region {
	return Region{Kind: RegionFree, Index: index}
}

// EarlyBoundRegion wraps an early-bound lifetime parameter.
func EarlyBoundRegion(index uint32) Region {
	return Region{Kind: RegionEarlyBound, Index: index}
}
