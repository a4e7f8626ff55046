package mc

import "ferrous/internal/hir"

// Oracle is the categorization service of the front end. The walker embeds
// the Cmt for every event it emits, so the checker core does not call
// the oracle.
type Oracle interface {
	// Categorize returns the categorized place an element denotes,
	// or false when the element is not a place expression.
	Categorize(el hir.NodeID) (*Cmt, bool)
}
