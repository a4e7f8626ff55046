package facts

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

// Body reconstructs the checker's view of the exported function body.
// Structural breakage (dangling indices, forward references) is a hard
// error; individually malformed events are skipped so one bad record
// does not sink the body.
func (p *Payload) Body() (*borrowck.Body, error) {
	if p == nil {
		return nil, fmt.Errorf("facts: nil payload")
	}

	strs, strIDs := source.FromTable(p.Strings)
	strAt := func(idx uint32) (source.StringID, error) {
		if int(idx) >= len(strIDs) {
			return source.NoStringID, fmt.Errorf("facts: string index %d out of range", idx)
		}
		return strIDs[idx], nil
	}

	tree := regions.NewTree()
	for i, s := range p.Scopes {
		if int(s.Parent) > i {
			return nil, fmt.Errorf("facts: scope %d references later parent %d", i+1, s.Parent)
		}
		tree.AddScope(symbols.ScopeID(s.Parent), hir.NodeID(s.Elem))
	}
	if p.ItemScope != 0 {
		if int(p.ItemScope) > len(p.Scopes) {
			return nil, fmt.Errorf("facts: item scope %d out of range", p.ItemScope)
		}
		tree.SetItemScope(symbols.ScopeID(p.ItemScope))
	}
	for _, fr := range p.FreeRegions {
		if int(fr.Scope) > len(p.Scopes) {
			return nil, fmt.Errorf("facts: free region scope %d out of range", fr.Scope)
		}
		tree.BindFreeRegion(fr.Index, symbols.ScopeID(fr.Scope))
	}

	bindings := symbols.NewTable()
	for i, b := range p.Bindings {
		name, err := strAt(b.Name)
		if err != nil {
			return nil, err
		}
		if int(b.Scope) > len(p.Scopes) {
			return nil, fmt.Errorf("facts: binding %d scope %d out of range", i+1, b.Scope)
		}
		sym := bindings.Add(name, decodeSpan(b.Span), decodeMut(b.Mut), symbols.ScopeID(b.Scope))
		tree.BindVariable(sym, symbols.ScopeID(b.Scope))
	}

	interner := types.NewInterner()
	adtIDs := make([]types.AdtID, len(p.Adts)+1)
	for i, a := range p.Adts {
		name, err := strAt(a.Name)
		if err != nil {
			return nil, err
		}
		adtIDs[i+1] = interner.RegisterAdt(types.AdtInfo{Name: name, Kind: types.AdtKind(a.Kind)})
	}

	tyIDs := make([]types.TypeID, len(p.Types)+1)
	for i, t := range p.Types {
		if int(t.Elem) > i {
			return nil, fmt.Errorf("facts: type %d references later type %d", i+1, t.Elem)
		}
		if int(t.Adt) > len(p.Adts) {
			return nil, fmt.Errorf("facts: type %d adt %d out of range", i+1, t.Adt)
		}
		tyIDs[i+1] = interner.Intern(types.Type{
			Kind:   types.Kind(t.Kind),
			Elem:   tyIDs[t.Elem],
			Mut:    decodeMut(t.Mut),
			Region: decodeRegion(t.Region),
			Adt:    adtIDs[t.Adt],
			Len:    t.Len,
		})
	}
	tyAt := func(idx uint32) (types.TypeID, error) {
		if int(idx) >= len(tyIDs) {
			return types.NoTypeID, fmt.Errorf("facts: type index %d out of range", idx)
		}
		return tyIDs[idx], nil
	}

	// Variants are filled after type interning so fields can reference
	// any type, including ones built from their own ADT.
	for i, a := range p.Adts {
		info := interner.Adt(adtIDs[i+1])
		for _, v := range a.Variants {
			name, err := strAt(v.Name)
			if err != nil {
				return nil, err
			}
			variant := types.Variant{Name: name}
			for _, f := range v.Fields {
				fname, err := strAt(f.Name)
				if err != nil {
					return nil, err
				}
				fty, err := tyAt(f.Type)
				if err != nil {
					return nil, err
				}
				variant.Fields = append(variant.Fields, types.Field{Name: fname, Ty: fty})
			}
			info.Variants = append(info.Variants, variant)
		}
	}

	elemTypes := make(map[hir.NodeID]types.TypeID, len(p.ElemTypes))
	for _, et := range p.ElemTypes {
		ty, err := tyAt(et.Type)
		if err != nil {
			return nil, err
		}
		elemTypes[hir.NodeID(et.Elem)] = ty
	}

	cmts := make([]*mc.Cmt, len(p.Cmts)+1)
	for i, c := range p.Cmts {
		if int(c.Base) > i {
			return nil, fmt.Errorf("facts: cmt %d references later base %d", i+1, c.Base)
		}
		ty, err := tyAt(c.Type)
		if err != nil {
			return nil, err
		}
		built, err := decodeCmt(&c, cmts[c.Base], ty, bindings, strIDs)
		if err != nil {
			return nil, fmt.Errorf("facts: cmt %d: %w", i+1, err)
		}
		cmts[i+1] = built
	}

	graph := cfg.New()
	for _, n := range p.Nodes {
		graph.AddNode(hir.NodeID(n.Elem))
	}
	for i, n := range p.Nodes {
		for _, succ := range n.Succs {
			if succ == 0 || int(succ) > len(p.Nodes) {
				return nil, fmt.Errorf("facts: node %d successor %d out of range", i+1, succ)
			}
			graph.AddEdge(cfg.Index(i+1), cfg.Index(succ))
		}
	}
	if p.Entry != 0 {
		if int(p.Entry) > len(p.Nodes) {
			return nil, fmt.Errorf("facts: entry node %d out of range", p.Entry)
		}
		graph.SetEntry(cfg.Index(p.Entry))
	}

	log := borrowck.NewEventLog()
	for i := range p.Events {
		// Malformed events are soft failures: skip and keep going.
		appendEvent(log, &p.Events[i], cmts, bindings)
	}

	return &borrowck.Body{
		Func:     1,
		Name:     p.Name,
		Walker:   log,
		Types:    &bodyOracle{interner: interner, bindings: bindings, elemTypes: elemTypes},
		Scopes:   tree,
		Graph:    graph,
		Bindings: bindings,
		Strings:  strs,
	}, nil
}

// FileSet builds the position-resolution table from the payload's file
// entries; table position i becomes FileID i+1, matching how spans
// reference files. Nil when the exporter shipped no file table.
func (p *Payload) FileSet() *source.FileSet {
	if p == nil || len(p.Files) == 0 {
		return nil
	}
	fs := source.NewFileSet()
	for _, f := range p.Files {
		fs.Register(f.Path, f.LineStarts)
	}
	return fs
}

func appendEvent(log *borrowck.EventLog, ev *Event, cmts []*mc.Cmt, bindings *symbols.Table) {
	cmtAt := func(idx uint32) *mc.Cmt {
		if idx == 0 || int(idx) >= len(cmts) {
			return nil
		}
		return cmts[idx]
	}
	el := hir.NodeID(ev.Elem)
	switch ev.Kind {
	case EvConsume:
		if cmt := cmtAt(ev.Cmt); cmt != nil {
			log.RecordConsume(el, cmt, borrowck.ConsumeMode(ev.Mode), borrowck.MoveReason(ev.Reason))
		}
	case EvConsumePat:
		if cmt := cmtAt(ev.Cmt); cmt != nil {
			log.RecordConsumePat(el, cmt, borrowck.ConsumeMode(ev.Mode))
		}
	case EvMatchedPat:
		if cmt := cmtAt(ev.Cmt); cmt != nil {
			log.RecordMatchedPat(el, cmt, borrowck.MatchMode(ev.Mode))
		}
	case EvBorrow:
		if cmt := cmtAt(ev.Cmt); cmt != nil {
			log.RecordBorrow(el, cmt, decodeRegion(ev.Region),
				borrowck.BorrowKind(ev.BorrowKind), borrowck.LoanCause(ev.Cause))
		}
	case EvMutate:
		if cmt := cmtAt(ev.Cmt); cmt != nil {
			log.RecordMutate(el, cmt, borrowck.MutateMode(ev.Mode))
		}
	case EvDeclare:
		if bindings.Get(symbols.SymbolID(ev.Sym)) != nil {
			log.RecordDeclarationWithoutInit(symbols.SymbolID(ev.Sym), el, decodeSpan(ev.Span))
		}
	}
}

func decodeCmt(c *Cmt, base *mc.Cmt, ty types.TypeID, bindings *symbols.Table, strIDs []source.StringID) (*mc.Cmt, error) {
	el := hir.NodeID(c.Elem)
	span := decodeSpan(c.Span)
	switch mc.Category(c.Cat) {
	case mc.CatRvalue:
		return mc.NewRvalue(el, span, ty), nil
	case mc.CatStaticItem:
		return mc.NewStaticItem(el, span, ty, decodeMut(c.PtrMut)), nil
	case mc.CatLocal:
		binding := bindings.Get(symbols.SymbolID(c.Local))
		if binding == nil {
			return nil, fmt.Errorf("unknown binding %d", c.Local)
		}
		return mc.NewLocal(el, span, binding.ID, ty, binding.Mut), nil
	case mc.CatUpvar:
		binding := bindings.Get(symbols.SymbolID(c.Local))
		if binding == nil {
			return nil, fmt.Errorf("unknown binding %d", c.Local)
		}
		return mc.NewUpvar(el, span, binding.ID, ty), nil
	case mc.CatDeref:
		if base == nil {
			return nil, fmt.Errorf("deref without base")
		}
		ptr := mc.PointerKind{
			Class:  mc.PointerClass(c.PtrClass),
			Mut:    decodeMut(c.PtrMut),
			Region: decodeRegion(c.PtrRegion),
		}
		return mc.NewDeref(el, span, base, ptr, ty), nil
	case mc.CatInterior:
		if base == nil {
			return nil, fmt.Errorf("interior without base")
		}
		var name source.StringID
		if int(c.IntName) < len(strIDs) {
			name = strIDs[c.IntName]
		}
		interior := mc.InteriorKind{
			Class: mc.InteriorClass(c.IntClass),
			Field: types.FieldIdx(c.IntField),
			Name:  name,
		}
		return mc.NewInterior(el, span, base, interior, ty), nil
	case mc.CatDowncast:
		if base == nil {
			return nil, fmt.Errorf("downcast without base")
		}
		return mc.NewDowncast(el, span, base, types.VariantIdx(c.Variant), ty), nil
	default:
		return nil, fmt.Errorf("unknown category %d", c.Cat)
	}
}

func decodeSpan(s Span) source.Span {
	return source.Span{File: source.FileID(s.File), Start: s.Start, End: s.End}
}

func decodeMut(m uint8) symbols.Mutability {
	if m != 0 {
		return symbols.Mutable
	}
	return symbols.Immutable
}

func decodeRegion(r Region) regions.Region {
	return regions.Region{
		Kind:  regions.RegionKind(r.Kind),
		Scope: symbols.ScopeID(r.Scope),
		Index: r.Index,
	}
}

// bodyOracle adapts the decoded tables to the checker's type oracle.
type bodyOracle struct {
	interner  *types.Interner
	bindings  *symbols.Table
	elemTypes map[hir.NodeID]types.TypeID
}

func (o *bodyOracle) TypeOf(el hir.NodeID) types.TypeID {
	return o.elemTypes[el]
}

func (o *bodyOracle) Lookup(id types.TypeID) types.Type {
	return o.interner.Lookup(id)
}

func (o *bodyOracle) MutabilityOf(sym symbols.SymbolID) symbols.Mutability {
	binding := o.bindings.Get(sym)
	if binding == nil {
		return symbols.Immutable
	}
	return binding.Mut
}

func (o *bodyOracle) Adt(id types.AdtID) *types.AdtInfo {
	return o.interner.Adt(id)
}

func (o *bodyOracle) IsUnion(id types.AdtID) bool {
	return o.interner.IsUnion(id)
}
