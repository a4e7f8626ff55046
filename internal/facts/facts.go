// Package facts is the interchange format between the front end and the
// borrow checker. A front end categorizes a function body, records the
// walker event stream, the scope tree and the CFG, and exports it all as
// one schema-versioned msgpack payload. Decoding yields a Body the
// checker can analyze without ever seeing the real AST.
package facts

import (
	"crypto/sha256"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is bumped whenever the payload layout changes; decoding
// rejects mismatches instead of guessing.
const SchemaVersion uint16 = 1

// Digest identifies payload content for caching.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:8])
}

// DigestOf hashes an encoded payload.
func DigestOf(data []byte) Digest {
	return sha256.Sum256(data)
}

// Span mirrors source.Span with plain integers.
type Span struct {
	File  uint32
	Start uint32
	End   uint32
}

// Region mirrors regions.Region.
type Region struct {
	Kind  uint8
	Scope uint32
	Index uint32
}

// FileEntry is one front-end file spans point into: the path and the
// byte offsets of its newlines. Position+1 in the payload is the FileID
// used by spans.
type FileEntry struct {
	Path       string
	LineStarts []uint32
}

// Binding is one named slot; its position+1 is its SymbolID.
type Binding struct {
	Name  uint32
	Mut   uint8
	Scope uint32
	Span  Span
}

// Scope is one lexical scope; its position+1 is its ScopeID.
type Scope struct {
	Parent uint32
	Elem   uint32
}

// FreeRegion maps a lifetime parameter index onto a scope.
type FreeRegion struct {
	Index uint32
	Scope uint32
}

// Field, Variant and Adt describe nominal types.
type Field struct {
	Name uint32
	Type uint32
}

type Variant struct {
	Name   uint32
	Fields []Field
}

type Adt struct {
	Name     uint32
	Kind     uint8
	Variants []Variant
}

// Ty is one structural type; its position+1 is its payload TypeID.
// References (Elem) must point at earlier entries.
type Ty struct {
	Kind   uint8
	Elem   uint32
	Mut    uint8
	Region Region
	Adt    uint32
	Len    uint32
}

// Cmt is one categorized place; its position+1 is its CmtID. Base must
// point at an earlier entry.
type Cmt struct {
	Cat       uint8
	Elem      uint32
	Span      Span
	Base      uint32
	Local     uint32
	PtrClass  uint8
	PtrMut    uint8
	PtrRegion Region
	IntClass  uint8
	IntField  uint32
	IntName   uint32
	Variant   uint32
	Type      uint32
}

// Node is one CFG vertex; its position+1 is its node index.
type Node struct {
	Elem  uint32
	Succs []uint32
}

// Event kinds, matching the walker contract.
const (
	EvConsume uint8 = iota
	EvConsumePat
	EvMatchedPat
	EvBorrow
	EvMutate
	EvDeclare
)

// Event is one walker event in program order.
type Event struct {
	Kind       uint8
	Elem       uint32
	Cmt        uint32
	Mode       uint8 // consume/match/mutate mode, by Kind
	Reason     uint8 // move reason for EvConsume
	Region     Region
	BorrowKind uint8
	Cause      uint8
	Sym        uint32
	Span       Span
}

// ElemType records the type of a syntactic element.
type ElemType struct {
	Elem uint32
	Type uint32
}

// Payload is one exported function body.
type Payload struct {
	Schema uint16
	Name   string

	Strings     []string
	Files       []FileEntry
	Bindings    []Binding
	Scopes      []Scope
	ItemScope   uint32
	FreeRegions []FreeRegion
	Adts        []Adt
	Types       []Ty
	ElemTypes   []ElemType
	Cmts        []Cmt
	Nodes       []Node
	Entry       uint32
	Events      []Event
}

// Encode serializes the payload with the current schema version.
func Encode(p *Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("facts: nil payload")
	}
	p.Schema = SchemaVersion
	data, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("facts: encode %q: %w", p.Name, err)
	}
	return data, nil
}

// Decode parses a payload and validates its schema version.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("facts: decode: %w", err)
	}
	if p.Schema != SchemaVersion {
		return nil, fmt.Errorf("facts: schema version %d, want %d", p.Schema, SchemaVersion)
	}
	return &p, nil
}
