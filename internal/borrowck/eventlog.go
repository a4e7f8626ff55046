package borrowck

import (
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
)

type eventKind uint8

const (
	evConsume eventKind = iota
	evConsumePat
	evMatchedPat
	evBorrow
	evMutate
	evDeclare
)

type event struct {
	kind eventKind
	el   hir.NodeID
	cmt  *mc.Cmt
	span source.Span

	consumeMode ConsumeMode
	moveReason  MoveReason
	matchMode   MatchMode
	mutateMode  MutateMode

	region     regions.Region
	borrowKind BorrowKind
	cause      LoanCause

	sym symbols.SymbolID
}

// EventLog is a replayable Walker: a recorded stream of use events
// delivered identically on every WalkUses call. The facts decoder and
// the test kit fill it; the checker replays it for both passes.
type EventLog struct {
	events []event
}

// NewEventLog builds an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int { return len(l.events) }

// RecordConsume appends a value use.
func (l *EventLog) RecordConsume(el hir.NodeID, cmt *mc.Cmt, mode ConsumeMode, reason MoveReason) {
	l.events = append(l.events, event{kind: evConsume, el: el, cmt: cmt, consumeMode: mode, moveReason: reason})
}

// RecordConsumePat appends a by-value pattern binding.
func (l *EventLog) RecordConsumePat(pat hir.NodeID, cmt *mc.Cmt, mode ConsumeMode) {
	l.events = append(l.events, event{kind: evConsumePat, el: pat, cmt: cmt, consumeMode: mode})
}

// RecordMatchedPat appends a pattern-match note.
func (l *EventLog) RecordMatchedPat(pat hir.NodeID, cmt *mc.Cmt, mode MatchMode) {
	l.events = append(l.events, event{kind: evMatchedPat, el: pat, cmt: cmt, matchMode: mode})
}

// RecordBorrow appends a borrow.
func (l *EventLog) RecordBorrow(el hir.NodeID, cmt *mc.Cmt, region regions.Region, kind BorrowKind, cause LoanCause) {
	l.events = append(l.events, event{kind: evBorrow, el: el, cmt: cmt, region: region, borrowKind: kind, cause: cause})
}

// RecordMutate appends a write.
func (l *EventLog) RecordMutate(el hir.NodeID, cmt *mc.Cmt, mode MutateMode) {
	l.events = append(l.events, event{kind: evMutate, el: el, cmt: cmt, mutateMode: mode})
}

// RecordDeclarationWithoutInit appends an uninitialized declaration.
func (l *EventLog) RecordDeclarationWithoutInit(sym symbols.SymbolID, el hir.NodeID, span source.Span) {
	l.events = append(l.events, event{kind: evDeclare, el: el, sym: sym, span: span})
}

// WalkUses replays the log against a delegate in recorded order.
func (l *EventLog) WalkUses(d Delegate) {
	for i := range l.events {
		ev := &l.events[i]
		switch ev.kind {
		case evConsume:
			d.Consume(ev.el, ev.cmt, ev.consumeMode, ev.moveReason)
		case evConsumePat:
			d.ConsumePat(ev.el, ev.cmt, ev.consumeMode)
		case evMatchedPat:
			d.MatchedPat(ev.el, ev.cmt, ev.matchMode)
		case evBorrow:
			d.Borrow(ev.el, ev.cmt, ev.region, ev.borrowKind, ev.cause)
		case evMutate:
			d.Mutate(ev.el, ev.cmt, ev.mutateMode)
		case evDeclare:
			d.DeclarationWithoutInit(ev.sym, ev.el, ev.span)
		}
	}
}
