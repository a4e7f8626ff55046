// Package testkit builds synthetic function bodies for borrow checker
// tests: bindings, scopes, categorized places, a recorded event stream
// and a CFG that is linear except where Branch forks and merges it, all
// without a front end. Tests describe a body the
// way the walker would have narrated it and assert on the diagnostics.
package testkit

import (
	"fmt"

	"ferrous/internal/borrowck"
	"ferrous/internal/cfg"
	"ferrous/internal/hir"
	"ferrous/internal/mc"
	"ferrous/internal/regions"
	"ferrous/internal/source"
	"ferrous/internal/symbols"
	"ferrous/internal/types"
)

// Place builds the Cmt of a place once the use site (element and span)
// is known. Each event gets its own element, so places are deferred.
type Place func(el hir.NodeID, span source.Span) *mc.Cmt

// BodyBuilder accumulates one synthetic body.
type BodyBuilder struct {
	name     string
	strings  *source.Interner
	bindings *symbols.Table
	tree     *regions.Tree
	interner *types.Interner
	graph    *cfg.Graph
	log      *borrowck.EventLog

	scopeStack []symbols.ScopeID
	lastNode   cfg.Index
	nextElem   hir.NodeID
	nextOffset uint32

	typeOf     map[hir.NodeID]types.TypeID
	bindingTys map[symbols.SymbolID]types.TypeID

	finished bool
}

// NewBody starts a body with an item scope already open.
func NewBody(name string) *BodyBuilder {
	b := &BodyBuilder{
		name:       name,
		strings:    source.NewInterner(),
		bindings:   symbols.NewTable(),
		tree:       regions.NewTree(),
		interner:   types.NewInterner(),
		graph:      cfg.New(),
		log:        borrowck.NewEventLog(),
		typeOf:     make(map[hir.NodeID]types.TypeID),
		bindingTys: make(map[symbols.SymbolID]types.TypeID),
	}
	// Entry node anchors the CFG before any event.
	b.lastNode = b.graph.AddNode(b.newElem())
	b.PushScope()
	return b
}

// Types exposes the interner for constructing test types.
func (b *BodyBuilder) Types() *types.Interner { return b.interner }

// Tree exposes the scope tree for free-region plumbing.
func (b *BodyBuilder) Tree() *regions.Tree { return b.tree }

func (b *BodyBuilder) newElem() hir.NodeID {
	b.nextElem++
	return b.nextElem
}

func (b *BodyBuilder) newSpan() source.Span {
	b.nextOffset++
	return source.Span{File: 1, Start: b.nextOffset, End: b.nextOffset + 1}
}

func (b *BodyBuilder) currentScope() symbols.ScopeID {
	if len(b.scopeStack) == 0 {
		return symbols.NoScopeID
	}
	return b.scopeStack[len(b.scopeStack)-1]
}

// PushScope opens a nested lexical scope and returns it.
func (b *BodyBuilder) PushScope() symbols.ScopeID {
	elem := b.newElem()
	scope := b.tree.AddScope(b.currentScope(), elem)
	b.scopeStack = append(b.scopeStack, scope)
	return scope
}

// PopScope closes the innermost scope, appending its exit node to the
// CFG: that is where scope-end kills fire.
func (b *BodyBuilder) PopScope() {
	if len(b.scopeStack) == 0 {
		panic("testkit: scope stack underflow")
	}
	scope := b.scopeStack[len(b.scopeStack)-1]
	b.scopeStack = b.scopeStack[:len(b.scopeStack)-1]
	node := b.graph.AddNode(b.tree.Element(scope))
	b.graph.AddEdge(b.lastNode, node)
	b.lastNode = node
}

// Let declares an initialized binding in the current scope.
func (b *BodyBuilder) Let(name string, mut symbols.Mutability, ty types.TypeID) symbols.SymbolID {
	sym := b.bindings.Add(b.strings.Intern(name), b.newSpan(), mut, b.currentScope())
	b.tree.BindVariable(sym, b.currentScope())
	b.bindingTys[sym] = ty
	return sym
}

// event opens a CFG node and leaf scope for one use site.
func (b *BodyBuilder) event() (hir.NodeID, source.Span) {
	elem := b.newElem()
	span := b.newSpan()
	b.tree.AddScope(b.currentScope(), elem)
	node := b.graph.AddNode(elem)
	b.graph.AddEdge(b.lastNode, node)
	b.lastNode = node
	return elem, span
}

// Branch splits control flow: both closures run from the current point
// and the arms merge afterwards, giving the dataflow a real join.
func (b *BodyBuilder) Branch(then, els func()) {
	fork := b.lastNode
	then()
	thenEnd := b.lastNode

	b.lastNode = fork
	if els != nil {
		els()
	}
	elseEnd := b.lastNode

	merge := b.graph.AddNode(b.newElem())
	b.graph.AddEdge(thenEnd, merge)
	b.graph.AddEdge(elseEnd, merge)
	b.lastNode = merge
}

// Local is the place of a bare binding.
func (b *BodyBuilder) Local(sym symbols.SymbolID) Place {
	return func(el hir.NodeID, span source.Span) *mc.Cmt {
		binding := b.bindings.Get(sym)
		if binding == nil {
			panic(fmt.Sprintf("testkit: unknown binding %d", sym))
		}
		return mc.NewLocal(el, span, sym, b.bindingTys[sym], binding.Mut)
	}
}

// Rvalue is a temporary of the given type.
func (b *BodyBuilder) Rvalue(ty types.TypeID) Place {
	return func(el hir.NodeID, span source.Span) *mc.Cmt {
		return mc.NewRvalue(el, span, ty)
	}
}

// Static is a static item place.
func (b *BodyBuilder) Static(ty types.TypeID, mut symbols.Mutability) Place {
	return func(el hir.NodeID, span source.Span) *mc.Cmt {
		return mc.NewStaticItem(el, span, ty, mut)
	}
}

// Field projects a named field out of base. The base type must be an ADT
// registered with the interner.
func (b *BodyBuilder) Field(base Place, field uint32) Place {
	return func(el hir.NodeID, span source.Span) *mc.Cmt {
		baseCmt := base(el, span)
		baseTy := b.interner.Lookup(baseCmt.Ty)
		if baseTy.Kind != types.KindAdt {
			panic("testkit: Field on non-adt base")
		}
		info := b.interner.Adt(baseTy.Adt)
		variant := 0
		if baseCmt.Cat == mc.CatDowncast {
			variant = int(baseCmt.Variant)
		}
		fld := info.Variants[variant].Fields[field]
		return mc.NewInterior(el, span, baseCmt,
			mc.FieldInterior(types.FieldIdx(field), fld.Name), fld.Ty)
	}
}

// Index projects an element out of an array or slice base.
func (b *BodyBuilder) Index(base Place) Place {
	return func(el hir.NodeID, span source.Span) *mc.Cmt {
		baseCmt := base(el, span)
		elemTy := b.interner.Lookup(baseCmt.Ty).Elem
		return mc.NewInterior(el, span, baseCmt, mc.IndexInterior, elemTy)
	}
}

// Downcast narrows an enum base to one variant.
func (b *BodyBuilder) Downcast(base Place, variant types.VariantIdx) Place {
	return func(el hir.NodeID, span source.Span) *mc.Cmt {
		baseCmt := base(el, span)
		return mc.NewDowncast(el, span, baseCmt, variant, baseCmt.Ty)
	}
}

// Deref goes through a pointer-typed base; the pointer kind follows the
// base's type.
func (b *BodyBuilder) Deref(base Place) Place {
	return func(el hir.NodeID, span source.Span) *mc.Cmt {
		baseCmt := base(el, span)
		baseTy := b.interner.Lookup(baseCmt.Ty)
		var ptr mc.PointerKind
		switch baseTy.Kind {
		case types.KindRef:
			ptr = mc.RefPtr(baseTy.Mut, baseTy.Region)
		case types.KindRawPtr:
			ptr = mc.RawPtr(baseTy.Mut)
		case types.KindBox:
			ptr = mc.BoxPtr
		default:
			panic("testkit: Deref on non-pointer base")
		}
		return mc.NewDeref(el, span, baseCmt, ptr, baseTy.Elem)
	}
}

// Consume emits a value use and returns its element.
func (b *BodyBuilder) Consume(p Place, mode borrowck.ConsumeMode) hir.NodeID {
	el, span := b.event()
	cmt := p(el, span)
	b.typeOf[el] = cmt.Ty
	b.log.RecordConsume(el, cmt, mode, borrowck.MoveDirect)
	return el
}

// ConsumePat emits a by-value pattern binding.
func (b *BodyBuilder) ConsumePat(p Place, mode borrowck.ConsumeMode) hir.NodeID {
	el, span := b.event()
	cmt := p(el, span)
	b.typeOf[el] = cmt.Ty
	b.log.RecordConsumePat(el, cmt, mode)
	return el
}

// Borrow emits a borrow of p for region.
func (b *BodyBuilder) Borrow(p Place, region regions.Region, kind borrowck.BorrowKind, cause borrowck.LoanCause) hir.NodeID {
	el, span := b.event()
	cmt := p(el, span)
	b.typeOf[el] = cmt.Ty
	b.log.RecordBorrow(el, cmt, region, kind, cause)
	return el
}

// Mutate emits a write to p.
func (b *BodyBuilder) Mutate(p Place, mode borrowck.MutateMode) hir.NodeID {
	el, span := b.event()
	cmt := p(el, span)
	b.typeOf[el] = cmt.Ty
	b.log.RecordMutate(el, cmt, mode)
	return el
}

// Declare emits an uninitialized declaration of sym.
func (b *BodyBuilder) Declare(sym symbols.SymbolID) hir.NodeID {
	el, span := b.event()
	b.typeOf[el] = b.bindingTys[sym]
	b.log.RecordDeclarationWithoutInit(sym, el, span)
	return el
}

// ScopeRegion wraps a scope as a borrow region.
func (b *BodyBuilder) ScopeRegion(scope symbols.ScopeID) regions.Region {
	return regions.ScopedRegion(scope)
}

// FreeRegion wraps a lifetime parameter index as a borrow region; bind
// it to a scope through Tree().BindFreeRegion.
func (b *BodyBuilder) FreeRegion(index uint32) regions.Region {
	return regions.FreeRegion(index)
}

// Build closes the remaining scopes and assembles the Body.
func (b *BodyBuilder) Build() *borrowck.Body {
	if !b.finished {
		for len(b.scopeStack) > 0 {
			b.PopScope()
		}
		b.finished = true
	}
	return &borrowck.Body{
		Func:     1,
		Name:     b.name,
		Walker:   b.log,
		Types:    &oracle{builder: b},
		Scopes:   b.tree,
		Graph:    b.graph,
		Bindings: b.bindings,
		Strings:  b.strings,
	}
}

// oracle adapts the builder's tables to the checker's type oracle.
type oracle struct {
	builder *BodyBuilder
}

func (o *oracle) TypeOf(el hir.NodeID) types.TypeID {
	return o.builder.typeOf[el]
}

func (o *oracle) Lookup(id types.TypeID) types.Type {
	return o.builder.interner.Lookup(id)
}

func (o *oracle) MutabilityOf(sym symbols.SymbolID) symbols.Mutability {
	binding := o.builder.bindings.Get(sym)
	if binding == nil {
		return symbols.Immutable
	}
	return binding.Mut
}

func (o *oracle) Adt(id types.AdtID) *types.AdtInfo {
	return o.builder.interner.Adt(id)
}

func (o *oracle) IsUnion(id types.AdtID) bool {
	return o.builder.interner.IsUnion(id)
}
