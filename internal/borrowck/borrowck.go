// Package borrowck implements the borrow and move checker: given one
// function body, the categorization of its places, its scope tree and
// its control-flow graph, it verifies the ownership, borrowing and
// initialization rules and reports violations as diagnostics.
//
// The check runs in three phases over the walker's event stream:
//
//  1. gather: build loans, moves and assignments, report the local
//     violations (illegal move origins, mutability, aliasability,
//     lifetime failures);
//  2. dataflow: propagate live loans, pending moves and variable
//     assignments over the CFG;
//  3. replay: walk the events again, consult the dataflow results at
//     each use site and report conflicts.
//
// All state is local to one Check call; bodies may be checked in
// parallel as long as the collaborator oracles tolerate concurrent
// reads.
package borrowck

import (
	"context"
	"errors"

	"ferrous/internal/dataflow"
	"ferrous/internal/diag"
	"ferrous/internal/symbols"
)

// Config carries the switchable parts of the check.
type Config struct {
	// ReassignImmutable enables the re-assignment diagnostic for
	// immutable bindings.
	ReassignImmutable bool
}

// DefaultConfig enables everything.
func DefaultConfig() Config {
	return Config{ReassignImmutable: true}
}

// Result is the per-body summary that outlives the analysis.
type Result struct {
	// UsedMut is the set of bindings borrowed or written mutably.
	UsedMut map[symbols.SymbolID]struct{}
	// Loans and Moves count what the gather pass recorded.
	Loans int
	Moves int
}

// ErrIncompleteBody is returned when a Body misses a collaborator.
var ErrIncompleteBody = errors.New("borrowck: body is missing a collaborator")

// Check analyzes one function body. User-level violations become
// diagnostics on the reporter; the error return is reserved for
// cancellation and malformed input.
func Check(ctx context.Context, body *Body, reporter diag.Reporter, config Config) (*Result, error) {
	if body == nil || body.Walker == nil || body.Types == nil ||
		body.Scopes == nil || body.Graph == nil || body.Bindings == nil {
		return nil, ErrIncompleteBody
	}

	cx := &checkContext{
		body:     body,
		reporter: reporter,
		lps:      NewPathTable(),
	}

	moveData := NewMoveData(cx.lps, body.Types)
	glcx := newGatherContext(cx, moveData)
	body.Walker.WalkUses(glcx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local := body.Graph.BuildLocalIndex()
	tree := body.Scopes

	dfLoans := dataflow.New(dataflow.Union{}, "loans", body.Graph, local, len(glcx.allLoans))
	for i := range glcx.allLoans {
		loan := &glcx.allLoans[i]
		dfLoans.AddGen(tree.Element(loan.GenScope), uint(i))
		dfLoans.AddKill(dataflow.KillScopeEnd, tree.Element(loan.KillScope), uint(i))
	}
	dfLoans.AddKillsFromFlowExits()

	dfMoves := dataflow.New(dataflow.Union{}, "moves", body.Graph, local, moveData.MoveCount())
	dfAssign := dataflow.New(dataflow.Union{}, "assigns", body.Graph, local, moveData.VarAssignmentCount())
	moveData.AddGenKills(tree, dfMoves, dfAssign)

	for _, df := range []*dataflow.Analysis[dataflow.Union]{dfLoans, dfMoves, dfAssign} {
		df.Propagate()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	clcx := &replayContext{
		cx:                cx,
		moveData:          moveData,
		allLoans:          glcx.allLoans,
		dfLoans:           dfLoans,
		dfMoves:           dfMoves,
		dfAssign:          dfAssign,
		reassignImmutable: config.ReassignImmutable,
	}
	body.Walker.WalkUses(clcx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		UsedMut: glcx.usedMut,
		Loans:   len(glcx.allLoans),
		Moves:   moveData.MoveCount(),
	}, nil
}
