// Package pipeline runs the import → fetch → aggregate sequence that
// produces a statistics table.
//
// The pipeline is built to degrade, not fail: a registry that times out or
// rejects a request costs one cell, filled from the last-known cached
// value when one exists and zero otherwise. The only operation allowed to
// abort a run is writing the final report, which belongs to the caller.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner, err := pipeline.NewRunner(cfg, logger, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx)
//	table := result.Table
package pipeline

import (
	"time"

	"github.com/matzehuels/pkgtally/pkg/stats"
)

const (
	// DefaultFetchTimeout bounds a single registry call.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultCacheTTL is how long fetched counts stay fresh on disk.
	DefaultCacheTTL = 6 * time.Hour
)

// Options tunes a pipeline run. The zero value is usable.
type Options struct {
	// Registries limits which columns are fetched. Empty means all.
	Registries []stats.Registry

	// Refresh bypasses the HTTP cache on every fetch.
	Refresh bool

	// Export runs the browser export before importing CSVs. Requires a
	// Supplier on the Runner.
	Export bool

	// GitHubToken enables the advisory clone-traffic fetch.
	GitHubToken string

	// FetchTimeout bounds each registry call. Zero means DefaultFetchTimeout.
	FetchTimeout time.Duration

	// CacheTTL overrides DefaultCacheTTL for the HTTP cache.
	CacheTTL time.Duration
}

func (o *Options) setDefaults() {
	if len(o.Registries) == 0 {
		o.Registries = stats.AllRegistries
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
}

// Stats records per-stage timing for a run.
type Stats struct {
	ExportTime time.Duration
	ImportTime time.Duration
	FetchTime  time.Duration
}

// Result is the outcome of a pipeline run.
type Result struct {
	Table *stats.Table
	Stats Stats

	// Warnings lists the non-fatal failures hit during the run, one line
	// per degraded cell or skipped export.
	Warnings []string
}
