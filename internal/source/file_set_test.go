package source

import (
	"testing"
)

func TestRegisterFromFacts(t *testing.T) {
	fs := NewFileSet()
	// The front end exported main.fe with newlines at offsets 10 and 25.
	id := fs.Register("./src/../src/main.fe", []uint32{10, 25})

	f := fs.Get(id)
	if f == nil {
		t.Fatalf("registered file must resolve")
	}
	if f.Path != "src/main.fe" {
		t.Fatalf("path not normalized: %q", f.Path)
	}
	if f.Flags&FileFromFacts == 0 {
		t.Fatalf("facts entries must carry FileFromFacts")
	}
	if f.HasContent() {
		t.Fatalf("facts entries carry no content")
	}

	start, end, ok := fs.Resolve(Span{File: id, Start: 11, End: 26})
	if !ok {
		t.Fatalf("span in a registered file must resolve")
	}
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("start = %d:%d, want 2:1", start.Line, start.Col)
	}
	if end.Line != 3 || end.Col != 1 {
		t.Fatalf("end = %d:%d, want 3:1", end.Line, end.Col)
	}
}

func TestResolveUnknownFile(t *testing.T) {
	fs := NewFileSet()
	fs.Register("a.fe", nil)

	if _, _, ok := fs.Resolve(Span{File: 99, Start: 0, End: 1}); ok {
		t.Fatalf("spans of unregistered files must not resolve")
	}
	if fs.Get(99) != nil {
		t.Fatalf("Get must be nil-safe for unknown IDs")
	}
}

func TestVirtualFileLineIndex(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("body.fe", []byte("let x = s;\nlet y = x;\nx;"))

	f := fs.Get(id)
	if !f.HasContent() {
		t.Fatalf("virtual files keep their content")
	}
	if len(f.LineIdx) != 2 {
		t.Fatalf("expected 2 newlines, got %d", len(f.LineIdx))
	}

	// The trailing `x` sits on line 3.
	start, _, ok := fs.Resolve(Span{File: id, Start: 22, End: 23})
	if !ok || start.Line != 3 || start.Col != 1 {
		t.Fatalf("trailing use = %d:%d/%v, want 3:1", start.Line, start.Col, ok)
	}
}

func TestLatestWinsPerPath(t *testing.T) {
	fs := NewFileSet()
	first := fs.Register("main.fe", nil)
	second := fs.Register("main.fe", []uint32{4})

	if first == second {
		t.Fatalf("re-registration must mint a fresh ID")
	}
	id, ok := fs.GetLatest("main.fe")
	if !ok || id != second {
		t.Fatalf("index must track the latest registration, got %d/%v", id, ok)
	}
	if fs.Len() != 2 {
		t.Fatalf("both versions stay addressable, got %d", fs.Len())
	}
}

func TestFormatPathModes(t *testing.T) {
	fs := NewFileSet()
	fs.SetBaseDir("/work/proj")
	id := fs.Register("/work/proj/src/main.fe", nil)
	f := fs.Get(id)

	if got := f.FormatPath("basename", ""); got != "main.fe" {
		t.Fatalf("basename = %q", got)
	}
	if got := f.FormatPath("relative", fs.BaseDir()); got != "src/main.fe" {
		t.Fatalf("relative = %q", got)
	}
	// Short paths pass through auto untouched.
	if got := f.FormatPath("auto", ""); got != "/work/proj/src/main.fe" {
		t.Fatalf("auto = %q", got)
	}
}
