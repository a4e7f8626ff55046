// Package hir defines the identifiers Ferrous uses to talk about the
// syntax of a function body without owning that syntax.
//
// The front end keeps the real tree; the checker only ever sees opaque
// element identifiers. Every walker event, categorized place and CFG node
// refers back to the source through a NodeID, so diagnostics can be
// anchored without the checker holding the AST.
package hir

// FuncID identifies a function body handed to the checker.
type FuncID uint32

// NodeID is an opaque identifier of a syntactic element inside a body:
// an expression, a pattern, a statement or a block.
type NodeID uint32

// Invalid ID constants (zero is sentinel).
const (
	NoFuncID FuncID = 0
	NoNodeID NodeID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id FuncID) IsValid() bool { return id != NoFuncID }
func (id NodeID) IsValid() bool { return id != NoNodeID }
