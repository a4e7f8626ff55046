package source

import (
	"os"
	"path/filepath"
	"sort"
)

// buildLineIndex records the byte offset of every '\n'. The same shape
// the facts payload ships, so virtual and registered files resolve
// identically.
func buildLineIndex(content []byte) []uint32 {
	var out []uint32
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i))
		}
	}
	return out
}

// toLineCol maps a byte offset onto a 1-based line/column pair using
// the newline table.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	// Newlines strictly before off = 0-based line number; the '\n'
	// itself still belongs to the line it terminates.
	line := sort.Search(len(lineIdx), func(i int) bool {
		return lineIdx[i] >= off
	})
	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line) + 1, Col: off - startOff + 1}
}

func normalizePath(p string) string {
	// один вид пути в кроссплатформенных дифах
	return filepath.ToSlash(filepath.Clean(p))
}

func absolutePath(p string) (string, error) {
	return filepath.Abs(p)
}

func relativePath(p, baseDir string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Rel(baseDir, abs)
}

func baseName(p string) string {
	return filepath.Base(p)
}

func workingDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return ""
}
