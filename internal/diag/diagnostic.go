package diag

import (
	"ferrous/internal/source"
)

// Note is a secondary location attached to a diagnostic: where the
// prior loan was taken, where the value moved, where the binding was
// declared.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is one concrete text edit of a fix (e.g. inserting "mut "
// before a binding).
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested correction the IDE or CLI may offer. Data only;
// applying edits is the consumer's job.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is one reported violation. Everything is plain data so the
// result cache can serialize it as-is.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
