package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := `
[package]
name = "demo"

[check]
max-diagnostics = 7
jobs = 2
reassign-immutable = false
`
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Package.Name != "demo" {
		t.Fatalf("package name lost: %q", m.Package.Name)
	}
	if m.Check.MaxDiagnostics != 7 || m.Check.Jobs != 2 {
		t.Fatalf("check options lost: %+v", m.Check)
	}
	if m.Check.ReassignImmutable == nil || *m.Check.ReassignImmutable {
		t.Fatalf("reassign-immutable gate must stay off")
	}
	if m.Check.Cache == nil || !*m.Check.Cache {
		t.Fatalf("cache defaults on")
	}
}

func TestLoadOrDefaultWithoutManifest(t *testing.T) {
	m, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if m.Check.MaxDiagnostics != 100 {
		t.Fatalf("default max-diagnostics, got %d", m.Check.MaxDiagnostics)
	}
	if m.Check.ReassignImmutable == nil || !*m.Check.ReassignImmutable {
		t.Fatalf("reassign-immutable defaults on")
	}
}

func TestLoadRejectsBrokenManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte("[check"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}
