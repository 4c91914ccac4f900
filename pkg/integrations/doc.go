// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// This package contains low-level API clients for fetching download
// statistics from various registries. Each registry has its own subpackage:
//
//   - [npm]: npm downloads API (api.npmjs.org)
//   - [pypi]: PyPI metadata plus pepy.tech download totals
//   - [nuget]: NuGet search API download totals
//   - [godev]: pkg.go.dev imported-by counts (advisory only)
//   - [github]: GitHub traffic API for repository clone counts
//
// # Client Pattern
//
// All registry clients follow a consistent pattern:
//
//	client, err := npm.NewClient(24 * time.Hour)  // Cache TTL
//	stat, err := client.FetchDownloads(ctx, "lodash", false)  // false = use cache
//
// Clients handle:
//   - HTTP requests with retry and timeouts
//   - Response caching (file-based, configurable TTL)
//   - API-specific parsing and normalization
//
// When a live fetch fails, clients fall back to the last cached value via
// [Client.LastKnown] before the caller degrades the cell to zero. Partial
// results are expected; no fetcher failure aborts a run.
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all registry
// clients, including response caching via [httputil.Cache] and retry with
// backoff. HTTP errors map to the sentinels [ErrNotFound] and [ErrNetwork].
//
// # Adding a New Registry
//
// To add support for a new package registry:
//
//  1. Create a subpackage: pkg/integrations/<registry>/
//  2. Define response structs matching the API schema
//  3. Implement a Client with a FetchDownloads method returning [DownloadStat]
//  4. Use [NewClient] for HTTP with caching
//  5. Wire the fetcher into the pipeline's registry set
//
// [npm]: github.com/matzehuels/pkgtally/pkg/integrations/npm
// [pypi]: github.com/matzehuels/pkgtally/pkg/integrations/pypi
// [nuget]: github.com/matzehuels/pkgtally/pkg/integrations/nuget
// [godev]: github.com/matzehuels/pkgtally/pkg/integrations/godev
// [github]: github.com/matzehuels/pkgtally/pkg/integrations/github
// [httputil.Cache]: github.com/matzehuels/pkgtally/pkg/httputil.Cache
package integrations
