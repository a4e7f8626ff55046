package source

type (
	// FileID uniquely identifies a front-end file within a FileSet.
	FileID uint32
	// FileFlags encodes where a file entry came from.
	FileFlags uint8
)

// NoFileID marks the absence of a file: spans with it never resolve.
const NoFileID FileID = 0

// IsValid reports whether the ID refers to an allocated entry.
func (id FileID) IsValid() bool { return id != NoFileID }

const (
	// FileVirtual indicates the file was added from memory (test, stdin).
	FileVirtual FileFlags = 1 << iota
	// FileFromFacts indicates the entry was registered from a facts
	// payload: the front end exported the path and line table, the
	// content stayed on its side.
	FileFromFacts
)

// File is one position-resolution entry. Ferrous never reads source
// from disk; Content is only present for virtual files built in tests.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx holds the byte offset of every '\n', in order. Empty for
	// single-line content.
	LineIdx []uint32
	Flags   FileFlags
}

// HasContent reports whether the raw text is available.
func (f *File) HasContent() bool {
	return f != nil && f.Content != nil
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
