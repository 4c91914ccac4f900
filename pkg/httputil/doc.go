// Package httputil provides HTTP utilities for package registry clients.
//
// # Overview
//
// This package provides infrastructure used by all registry API clients:
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores HTTP responses in the filesystem (~/.cache/pkgtally/)
// with configurable TTL. Download counts change slowly, so caching avoids
// hammering registry APIs when iterating on a report.
//
// Cache keys should be namespaced by registry to avoid collisions.
// [Cache.GetStale] reads past the TTL, which backs the "last-known value"
// policy when a live fetch fails.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures
// (network errors, 5xx responses) using exponential backoff. Errors must
// be wrapped in [RetryableError] to be retried; everything else fails fast.
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/pkgtally/
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `pkgtally cache clear` or by deleting the
// cache directory.
package httputil
