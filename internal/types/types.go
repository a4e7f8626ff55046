// Package types carries the minimal view of the front end's type system
// the borrow checker needs: enough structure to tell references from
// boxes from raw pointers, to enumerate ADT fields for the union
// broadcast rule, and to label places in diagnostics.
package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// IsValid reports whether the ID refers to an interned type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindNever
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindTuple
	KindArray
	KindSlice
	KindRef
	KindRawPtr
	KindBox
	KindAdt
	KindFn
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindNever:
		return "never"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindRef:
		return "reference"
	case KindRawPtr:
		return "raw pointer"
	case KindBox:
		return "box"
	case KindAdt:
		return "adt"
	case KindFn:
		return "fn"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// VariantIdx addresses a variant inside an ADT. Structs and unions have a
// single variant at index 0.
type VariantIdx uint32

// NoVariantIdx marks the absence of a variant (no downcast in effect).
const NoVariantIdx = ^VariantIdx(0)

// IsValid reports whether the index addresses a variant.
func (v VariantIdx) IsValid() bool { return v != NoVariantIdx }

// FieldIdx addresses a field inside a variant.
type FieldIdx uint32

// NoFieldIdx marks the absence of a field (e.g. array indexing).
const NoFieldIdx = ^FieldIdx(0)

// IsValid reports whether the index addresses a field.
func (f FieldIdx) IsValid() bool { return f != NoFieldIdx }
