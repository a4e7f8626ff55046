package borrowck

import (
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
)

// ConsumeMode tells whether a value use copies or moves.
type ConsumeMode uint8

const (
	// ConsumeCopy duplicates the value; the checker ignores it.
	ConsumeCopy ConsumeMode = iota
	// ConsumeMove transfers ownership and leaves the source uninitialized.
	ConsumeMove
)

func (m ConsumeMode) String() string {
	if m == ConsumeMove {
		return "move"
	}
	return "copy"
}

// MoveReason refines ConsumeMove for diagnostics.
type MoveReason uint8

const (
	// MoveDirect is a plain use in move position (let y = x, f(x)).
	MoveDirect MoveReason = iota
	// MovePatBinding is a by-value binding in a pattern.
	MovePatBinding
	// MoveCaptured is a by-value closure capture (reserved).
	MoveCaptured
)

// MatchMode describes how a match arm binds the discriminant.
// Informational for this checker: no action is taken on MatchedPat.
type MatchMode uint8

const (
	MatchNonBinding MatchMode = iota
	MatchBorrowing
	MatchCopying
	MatchMoving
)

// MutateMode distinguishes initializing writes, plain overwrites and
// compound assignments that read the old value.
type MutateMode uint8

const (
	MutateInit MutateMode = iota
	MutateJustWrite
	MutateWriteAndRead
)

// LoanCause records why a borrow happened, for diagnostics.
type LoanCause uint8

const (
	CauseAddrOf LoanCause = iota
	CauseAutoRef
	CauseRefBinding
	CauseMatchDiscriminant
	CauseOverloadedOperator
	CauseClosureCapture
)

func (c LoanCause) String() string {
	switch c {
	case CauseAddrOf:
		return "borrow expression"
	case CauseAutoRef:
		return "method call"
	case CauseRefBinding:
		return "ref binding"
	case CauseMatchDiscriminant:
		return "match discriminant"
	case CauseOverloadedOperator:
		return "operator"
	case CauseClosureCapture:
		return "closure capture"
	default:
		return "borrow"
	}
}

// Delegate receives place-use events from the walker in evaluation order.
// The borrow checker runs two delegates over the same stream: gather
// (builds loans and move data) and replay (consults dataflow, reports
// conflicts).
type Delegate interface {
	// Consume is a use of cmt in value position.
	Consume(el hir.NodeID, cmt *mc.Cmt, mode ConsumeMode, reason MoveReason)
	// ConsumePat is a by-value binding of cmt in a pattern.
	ConsumePat(pat hir.NodeID, cmt *mc.Cmt, mode ConsumeMode)
	// MatchedPat reports how a pattern matched against cmt.
	MatchedPat(pat hir.NodeID, cmt *mc.Cmt, mode MatchMode)
	// Borrow is a borrow of cmt for the duration of region.
	Borrow(el hir.NodeID, cmt *mc.Cmt, region regions.Region, kind BorrowKind, cause LoanCause)
	// Mutate is a write to cmt.
	Mutate(el hir.NodeID, cmt *mc.Cmt, mode MutateMode)
	// DeclarationWithoutInit marks a binding that starts life uninitialized.
	DeclarationWithoutInit(sym symbols.SymbolID, el hir.NodeID, span source.Span)
}

// Walker drives a Delegate over one function body in program order. The
// front end owns the real walker; the facts decoder and the test kit
// provide replayable event-log implementations. WalkUses must deliver the
// identical stream on every call.
type Walker interface {
	WalkUses(d Delegate)
}
