package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/pkgtally/pkg/httputil"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// DownloadStat is a single observed download count from one registry.
// Registry clients return it so the aggregator can track when and how
// a number was obtained.
type DownloadStat struct {
	Package  string    `json:"package"`  // Registry-local package name
	Count    int64     `json:"count"`    // Observed download count (never negative)
	AsOf     time.Time `json:"as_of"`    // When the count was observed
	From     string    `json:"from"`     // Start of the covered window, "" for cumulative totals
	Stale    bool      `json:"stale"`    // True when served from an expired cache entry
	Advisory bool      `json:"advisory"` // True for low-confidence signals (Go imports)
}

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewCacheWithNamespace creates a file-based cache in the default cache
// directory whose keys are all prefixed with the given namespace (e.g.
// "npm:").
func NewCacheWithNamespace(namespace string, ttl time.Duration) (*httputil.Cache, error) {
	c, err := httputil.NewCache("", ttl)
	if err != nil {
		return nil, err
	}
	return c.Namespace(namespace), nil
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI and other registries.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }

// DateOnly formats t as "YYYY-MM-DD", the date format the download-stats
// endpoints expect in range queries.
func DateOnly(t time.Time) string { return t.Format("2006-01-02") }
