// Package driver wires the borrow checker pipeline for whole facts
// files and directories: load, decode, check, cache, collect
// diagnostics.
package driver

import (
	"context"
	"fmt"
	"os"

	"ferrous/internal/borrowck"
	"ferrous/internal/diag"
	"ferrous/internal/facts"
	"ferrous/internal/observ"
	"ferrous/internal/project"
	"ferrous/internal/source"
)

// FactsExt is the extension of exported body facts files.
const FactsExt = ".fctb"

// BodyResult is the outcome of checking one facts file.
type BodyResult struct {
	Path   string
	Name   string
	Digest facts.Digest
	Bag    *diag.Bag
	// Files resolves diagnostic spans back to the front end's
	// file/line/column positions; nil on cache hits and file-table-free
	// exports, in which case raw spans are rendered.
	Files  *source.FileSet
	Result *borrowck.Result
	Timing *observ.Report
	Cached bool
}

// Options configure a driver run, typically resolved from the manifest
// plus CLI flags.
type Options struct {
	MaxDiagnostics int
	Jobs           int
	Check          borrowck.Config
	Cache          *DiskCache
}

// OptionsFromManifest resolves driver options.
func OptionsFromManifest(m *project.Manifest) Options {
	return Options{
		MaxDiagnostics: m.Check.MaxDiagnostics,
		Jobs:           m.Check.Jobs,
		Check: borrowck.Config{
			ReassignImmutable: m.Check.ReassignImmutable == nil || *m.Check.ReassignImmutable,
		},
	}
}

// CheckFile loads, decodes and checks one facts file.
func CheckFile(ctx context.Context, path string, opts Options) (*BodyResult, error) {
	timer := observ.NewTimer()

	phase := timer.Begin("load")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: read %s: %w", path, err)
	}
	digest := facts.DigestOf(data)

	if cached, ok := opts.Cache.Lookup(digest, opts.MaxDiagnostics); ok {
		timer.End(phase, "cache hit")
		report := timer.Report()
		cached.Path = path
		cached.Timing = &report
		cached.Cached = true
		return cached, nil
	}

	payload, err := facts.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("driver: %s: %w", path, err)
	}
	body, err := payload.Body()
	if err != nil {
		return nil, fmt.Errorf("driver: %s: %w", path, err)
	}
	timer.End(phase, payload.Name)

	phase = timer.Begin("check")
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	result, err := borrowck.Check(ctx, body, reporter, opts.Check)
	if err != nil {
		return nil, err
	}
	timer.End(phase, fmt.Sprintf("%d loans, %d moves", result.Loans, result.Moves))

	bag.Sort()
	report := timer.Report()
	out := &BodyResult{
		Path:   path,
		Name:   payload.Name,
		Digest: digest,
		Bag:    bag,
		Files:  payload.FileSet(),
		Result: result,
		Timing: &report,
	}
	opts.Cache.Store(out)
	return out, nil
}
