package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"ferrous/internal/source"
)

// Binding describes a single named slot: a let-binding, a parameter or a
// match-arm binding. Bindings are what loan paths bottom out at.
type Binding struct {
	ID    SymbolID
	Name  source.StringID
	Span  source.Span
	Mut   Mutability
	Scope ScopeID // declaring lexical scope
}

// Table is the arena of bindings for a single function body.
// Index 0 is the invalid sentinel.
type Table struct {
	bindings []Binding
}

// NewTable builds an empty binding table.
func NewTable() *Table {
	return &Table{bindings: []Binding{{}}}
}

// Add allocates a binding and returns its ID.
func (t *Table) Add(name source.StringID, span source.Span, mut Mutability, scope ScopeID) SymbolID {
	value, err := safecast.Conv[uint32](len(t.bindings))
	if err != nil {
		panic(fmt.Errorf("binding table overflow: %w", err))
	}
	id := SymbolID(value)
	t.bindings = append(t.bindings, Binding{
		ID:    id,
		Name:  name,
		Span:  span,
		Mut:   mut,
		Scope: scope,
	})
	return id
}

// Get returns the binding for id, or nil for invalid IDs.
func (t *Table) Get(id SymbolID) *Binding {
	if t == nil || id == NoSymbolID || int(id) >= len(t.bindings) {
		return nil
	}
	return &t.bindings[id]
}

// Len returns the number of allocated bindings (excluding the sentinel).
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bindings) - 1
}

// Each visits every allocated binding in insertion order.
func (t *Table) Each(f func(*Binding) bool) {
	if t == nil {
		return
	}
	for i := 1; i < len(t.bindings); i++ {
		if !f(&t.bindings[i]) {
			return
		}
	}
}
