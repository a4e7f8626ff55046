package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Borrow checking (gather phase)
	BckInfo                    Code = 3000
	BckMutability              Code = 3001
	BckAliasability            Code = 3002
	BckOutOfScope              Code = 3003
	BckBorrowedPointerTooShort Code = 3004
	BckMoveOutOfNonOwned       Code = 3005

	// Borrow checking (replay phase)
	BckUseOfMoved        Code = 3101
	BckLoanConflict      Code = 3102
	BckReassignImmutable Code = 3103

	// I/O и формат фактов
	IOLoadFileError     Code = 4000
	FactsDecodeError    Code = 4001
	FactsSchemaMismatch Code = 4002

	// Project manifest
	ProjInfo            Code = 5000
	ProjInvalidManifest Code = 5001
	ProjMissingBody     Code = 5002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode: "Unknown error",

		BckInfo:                    "Borrow checker information",
		BckMutability:              "cannot borrow immutable value as mutable",
		BckAliasability:            "cannot write to aliasable value",
		BckOutOfScope:              "borrowed value does not live long enough",
		BckBorrowedPointerTooShort: "lifetime of reference outlives lifetime of borrowed content",
		BckMoveOutOfNonOwned:       "cannot move out of non-owned location",

		BckUseOfMoved:        "use of moved value",
		BckLoanConflict:      "conflicting access while borrowed",
		BckReassignImmutable: "re-assignment of immutable binding",

		IOLoadFileError:     "I/O load file error",
		FactsDecodeError:    "malformed facts payload",
		FactsSchemaMismatch: "facts schema version mismatch",

		ProjInfo:            "Project information",
		ProjInvalidManifest: "Invalid project manifest",
		ProjMissingBody:     "Referenced body facts not found",

		ObsInfo:    "Observability information",
		ObsTimings: "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BCK%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
