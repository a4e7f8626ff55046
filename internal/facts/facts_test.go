package facts

import (
	"context"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"ferrous/internal/borrowck"
	"ferrous/internal/diag"
	"ferrous/internal/mc"
	"ferrous/internal/types"
)

// movedBodyPayload encodes `let x = ...; take(x); x;`: a move followed
// by a use.
func movedBodyPayload() *Payload {
	return &Payload{
		Name:    "main",
		Strings: []string{"x"},
		Files: []FileEntry{
			{Path: "src/main.fe", LineStarts: []uint32{3, 6}},
		},
		Scopes: []Scope{
			{Parent: 0, Elem: 1},
		},
		ItemScope: 1,
		Bindings: []Binding{
			{Name: 1, Mut: 0, Scope: 1, Span: Span{File: 1, Start: 1, End: 2}},
		},
		Types: []Ty{
			{Kind: uint8(types.KindInt)},
		},
		Cmts: []Cmt{
			{Cat: uint8(mc.CatLocal), Elem: 2, Local: 1, Type: 1, Span: Span{File: 1, Start: 4, End: 5}},
			{Cat: uint8(mc.CatLocal), Elem: 3, Local: 1, Type: 1, Span: Span{File: 1, Start: 7, End: 8}},
		},
		Nodes: []Node{
			{Elem: 2, Succs: []uint32{2}},
			{Elem: 3, Succs: []uint32{3}},
			{Elem: 1}, // scope exit
		},
		Entry: 1,
		Events: []Event{
			{Kind: EvConsume, Elem: 2, Cmt: 1, Mode: uint8(borrowck.ConsumeMove)},
			{Kind: EvConsume, Elem: 3, Cmt: 2, Mode: uint8(borrowck.ConsumeMove)},
		},
	}
}

func TestRoundTripAndCheck(t *testing.T) {
	data, err := Encode(movedBodyPayload())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	payload, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Name != "main" || len(payload.Events) != 2 {
		t.Fatalf("payload lost content: %+v", payload)
	}

	body, err := payload.Body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	bag := diag.NewBag(16)
	if _, err := borrowck.Check(context.Background(), body, diag.BagReporter{Bag: bag}, borrowck.DefaultConfig()); err != nil {
		t.Fatalf("check: %v", err)
	}

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.BckUseOfMoved {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected use-of-moved from the decoded body, got %d diagnostics", bag.Len())
	}
}

func TestFileSetResolvesExportedSpans(t *testing.T) {
	p := movedBodyPayload()
	fs := p.FileSet()
	if fs == nil || fs.Len() != 1 {
		t.Fatalf("expected one registered file, got %v", fs)
	}

	// The trailing use at offset 7 sits on line 3 of the exported file.
	start, _, ok := fs.Resolve(decodeSpan(p.Cmts[1].Span))
	if !ok {
		t.Fatalf("exported span must resolve")
	}
	if start.Line != 3 || start.Col != 1 {
		t.Fatalf("resolved to %d:%d, want 3:1", start.Line, start.Col)
	}

	p.Files = nil
	if p.FileSet() != nil {
		t.Fatalf("payloads without a file table have no file set")
	}
}

func TestDecodeRejectsSchemaMismatch(t *testing.T) {
	p := movedBodyPayload()
	p.Schema = SchemaVersion + 1
	data, err := msgpack.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Decode(data); err == nil {
		t.Fatalf("expected schema mismatch error")
	}
}

func TestBodyRejectsDanglingIndices(t *testing.T) {
	p := movedBodyPayload()
	p.Cmts[0].Type = 42
	if _, err := p.Body(); err == nil {
		t.Fatalf("expected error for dangling type index")
	}

	p = movedBodyPayload()
	p.Nodes[0].Succs = []uint32{99}
	if _, err := p.Body(); err == nil {
		t.Fatalf("expected error for dangling CFG successor")
	}
}

func TestMalformedEventIsSkipped(t *testing.T) {
	p := movedBodyPayload()
	// An event pointing at a missing cmt is dropped, not fatal.
	p.Events = append(p.Events, Event{Kind: EvBorrow, Elem: 3, Cmt: 99})
	body, err := p.Body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	bag := diag.NewBag(16)
	if _, err := borrowck.Check(context.Background(), body, diag.BagReporter{Bag: bag}, borrowck.DefaultConfig()); err != nil {
		t.Fatalf("check: %v", err)
	}
}
