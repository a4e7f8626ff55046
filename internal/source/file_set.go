package source

import (
	"fmt"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet is the position-resolution table for one checked body set.
// Entries come from two places: facts payloads register the front end's
// files (path plus line table, no content), and tests add virtual files
// with content. Diagnostics carry raw spans; everything user-facing
// resolves them through here.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string            // база для относительных путей в выводе
}

// NewFileSet creates an empty FileSet. Index 0 is the invalid
// sentinel, matching the checker's other ID spaces.
func NewFileSet() *FileSet {
	return &FileSet{
		files: []File{{}},
		index: make(map[string]FileID),
	}
}

// SetBaseDir устанавливает базовую директорию для относительных путей.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir возвращает текущую базовую директорию.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		return workingDir()
	}
	return fileSet.baseDir
}

// Register adds a content-free entry from a facts payload: the exported
// path and the byte offsets of its newlines. Returns the new FileID;
// repeated paths get fresh IDs, the index keeps the latest.
func (fileSet *FileSet) Register(path string, lineIdx []uint32) FileID {
	return fileSet.add(File{
		Path:    normalizePath(path),
		LineIdx: lineIdx,
		Flags:   FileFromFacts,
	})
}

// AddVirtual adds an in-memory file (test, stdin); the line index is
// computed from the content.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.add(File{
		Path:    normalizePath(name),
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   FileVirtual,
	})
}

func (fileSet *FileSet) add(f File) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	f.ID = FileID(lenFiles)
	fileSet.files = append(fileSet.files, f)
	// Всегда обновляем индекс на последнюю версию файла
	fileSet.index[f.Path] = f.ID
	return f.ID
}

// Get returns the file behind the ID, or nil when the span's file was
// never registered (facts from a different export, empty spans).
func (fileSet *FileSet) Get(id FileID) *File {
	if fileSet == nil || !id.IsValid() || int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// GetLatest returns the newest file ID for the path, if any.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Len returns the number of entries (excluding the sentinel).
func (fileSet *FileSet) Len() int {
	if fileSet == nil {
		return 0
	}
	return len(fileSet.files) - 1
}

// Resolve converts a span into line/column positions, and reports
// whether the span's file is known to this set.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol, ok bool) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}, false
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End), true
}

// FormatPath renders the entry's path for output.
// mode: "absolute", "relative", "basename", "auto"
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := absolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			baseDir = workingDir()
		}
		if rel, err := relativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path

	case "basename":
		return baseName(f.Path)

	case "auto":
		// Короткие и относительные пути оставляем как есть.
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return baseName(f.Path)

	default:
		return f.Path
	}
}
