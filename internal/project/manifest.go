// Package project loads the ferrous.toml manifest: which facts the
// project ships and how the checker should behave on them.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file looked up from a project root.
const ManifestName = "ferrous.toml"

// CheckOptions configure the borrow check pipeline. Zero values mean
// "use the default"; Normalize resolves them.
type CheckOptions struct {
	// MaxDiagnostics caps the diagnostics kept for each checked body.
	MaxDiagnostics int `toml:"max-diagnostics"`
	// Jobs bounds the worker pool checking bodies in parallel.
	Jobs int `toml:"jobs"`
	// ReassignImmutable toggles the re-assignment diagnostic; on by
	// default, gateable until the detection stabilizes.
	ReassignImmutable *bool `toml:"reassign-immutable"`
	// Cache toggles the on-disk result cache.
	Cache *bool `toml:"cache"`
}

// PackageSection names the project.
type PackageSection struct {
	Name string `toml:"name"`
}

// Manifest is the decoded ferrous.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Check   CheckOptions   `toml:"check"`
}

// ErrNoManifest reports a missing ferrous.toml; callers usually fall
// back to defaults.
var ErrNoManifest = errors.New("project: no manifest")

// DefaultManifest is what an absent manifest means.
func DefaultManifest() *Manifest {
	m := &Manifest{}
	m.Normalize()
	return m
}

// Load reads ferrous.toml from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("project: read %s: %w", path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("project: parse %s: %w", path, err)
	}
	m.Normalize()
	return &m, nil
}

// LoadOrDefault reads the manifest or falls back to defaults when none
// exists.
func LoadOrDefault(dir string) (*Manifest, error) {
	m, err := Load(dir)
	if errors.Is(err, ErrNoManifest) {
		return DefaultManifest(), nil
	}
	return m, err
}

// Normalize resolves zero values to defaults.
func (m *Manifest) Normalize() {
	if m.Check.MaxDiagnostics <= 0 {
		m.Check.MaxDiagnostics = 100
	}
	if m.Check.Jobs <= 0 {
		m.Check.Jobs = 0 // resolved to GOMAXPROCS by the driver
	}
	if m.Check.ReassignImmutable == nil {
		v := true
		m.Check.ReassignImmutable = &v
	}
	if m.Check.Cache == nil {
		v := true
		m.Check.Cache = &v
	}
}
