package version

import (
	"strings"
	"testing"
)

func TestVersionCarriesSemverParts(t *testing.T) {
	if Version == "" {
		t.Fatal("Version must have a default value")
	}
	// The string is color-decorated; the dotted structure must survive.
	if strings.Count(Version, ".") != 2 {
		t.Fatalf("Version %q should have three dotted parts", Version)
	}
}

func TestBuildMetadataOverridable(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() {
		GitCommit, BuildDate = origCommit, origDate
	}()

	// Simulate -ldflags overrides.
	GitCommit = "abc123def456"
	BuildDate = "2026-08-06T10:30:00Z"

	if GitCommit != "abc123def456" || BuildDate != "2026-08-06T10:30:00Z" {
		t.Fatalf("build metadata must be overridable: %q %q", GitCommit, BuildDate)
	}
}
