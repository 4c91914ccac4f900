// Package pkg provides the core libraries for pkgtally download statistics.
//
// # Overview
//
// pkgtally aggregates download counts for packages published to several
// registries at once and renders them as a single table. The pkg directory
// is organized into five main areas:
//
//  1. [integrations] - Registry API clients (npm, PyPI, NuGet, pkg.go.dev, GitHub)
//  2. [importer] - CSV imports and the Maven accumulation ledger
//  3. [export] - Browser-automation export from the Sonatype statistics UI
//  4. [stats] / [report] - The aggregated table and its renderers
//  5. [pipeline] - Orchestration (export → import → fetch → aggregate)
//
// # Architecture
//
// The typical data flow through pkgtally:
//
//	Registry APIs          Sonatype statistics UI
//	      ↓                          ↓
//	 [integrations]            [export/sonatype]
//	      ↓                          ↓
//	      ↓                     [importer] (accumulation ledger)
//	      ↓                          ↓
//	          [pipeline] → [stats.Table]
//	                             ↓
//	                         [report] (markdown / terminal)
//
// Supporting packages: [config] for the package list and registry name
// derivations, [httputil] for the file cache and retries, [errors] for the
// coded error taxonomy, and [buildinfo] for version metadata.
package pkg
