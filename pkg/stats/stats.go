package stats

import (
	"fmt"
	"strings"
	"time"
)

// Registry identifies a package registry tracked by the tally.
type Registry string

// The tracked registries, in report column order.
const (
	RegistryNPM   Registry = "npm"
	RegistryPyPI  Registry = "pypi"
	RegistryJava  Registry = "java"
	RegistryNuGet Registry = "nuget"
	RegistryGo    Registry = "go"
)

// AllRegistries lists every registry in report column order.
var AllRegistries = []Registry{RegistryNPM, RegistryPyPI, RegistryJava, RegistryNuGet, RegistryGo}

var displayNames = map[Registry]string{
	RegistryNPM:   "NPM",
	RegistryPyPI:  "PyPI",
	RegistryJava:  "Java",
	RegistryNuGet: "NuGet",
	RegistryGo:    "Go",
}

// DisplayName returns the human-readable registry name used in reports.
func (r Registry) DisplayName() string {
	if name, ok := displayNames[r]; ok {
		return name
	}
	return string(r)
}

// Advisory reports whether counts from this registry are low-confidence.
// The Go ecosystem exposes no real download metric, so its numbers are an
// adoption proxy (imports plus repository clones), not downloads.
func (r Registry) Advisory() bool { return r == RegistryGo }

// ParseRegistry converts a user-supplied registry name to a Registry.
// Matching is case-insensitive.
func ParseRegistry(s string) (Registry, error) {
	r := Registry(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := displayNames[r]; !ok {
		return "", fmt.Errorf("unknown registry %q (known: npm, pypi, java, nuget, go)", s)
	}
	return r, nil
}

// Source records how a count was obtained.
type Source string

const (
	// SourceLive marks counts fetched from a registry API during this run.
	SourceLive Source = "live"
	// SourceImported marks counts read from local CSV exports.
	SourceImported Source = "imported"
	// SourceStale marks last-known cached counts used after a failed fetch.
	SourceStale Source = "stale"
	// SourceMissing marks cells with no recorded observation (count zero).
	SourceMissing Source = "missing"
)

// Entry is a single observed download count for one (package, registry) cell.
type Entry struct {
	Package  string    // Construct name (canonical, not registry-local)
	Registry Registry  // Registry the count was observed on
	Count    int64     // Observed count; never negative
	AsOf     time.Time // Observation time
	Source   Source    // How the count was obtained
	Advisory bool      // Low-confidence signal (Go imports + clones)
}

// Validate checks the entry invariants.
func (e Entry) Validate() error {
	if e.Package == "" {
		return fmt.Errorf("entry has empty package name")
	}
	if _, ok := displayNames[e.Registry]; !ok {
		return fmt.Errorf("entry for %s has unknown registry %q", e.Package, e.Registry)
	}
	if e.Count < 0 {
		return fmt.Errorf("entry for %s/%s has negative count %d", e.Package, e.Registry, e.Count)
	}
	return nil
}
