package pypi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/pkgtally/pkg/integrations"
)

// Client provides access to PyPI metadata and pepy.tech download totals.
//
// PyPI itself exposes no cumulative download endpoint, so totals come from
// pepy.tech, a public aggregator over PyPI's download dataset. PyPI's JSON
// API is still used for release metadata (first release date).
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	pypiURL string
	pepyURL string
	now     func() time.Time
}

// NewClient creates a PyPI client with the specified cache TTL.
//
// Returns an error if the cache directory cannot be created or accessed.
func NewClient(cacheTTL time.Duration) (*Client, error) {
	cache, err := integrations.NewCacheWithNamespace("pypi:", cacheTTL)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		pypiURL: "https://pypi.org/pypi",
		pepyURL: "https://pepy.tech/api/v2",
		now:     time.Now,
	}, nil
}

// FetchDownloads retrieves the total download count for a Python package.
//
// The pkg parameter is normalized following PEP 503 (lowercase,
// underscores to hyphens). If refresh is true, the cache is bypassed.
//
// Returns [integrations.ErrNotFound] if the package doesn't exist and
// [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchDownloads(ctx context.Context, pkg string, refresh bool) (*integrations.DownloadStat, error) {
	pkg = integrations.NormalizePkgName(pkg)
	key := "downloads:" + pkg

	var stat integrations.DownloadStat
	err := c.Cached(ctx, key, refresh, &stat, func() error {
		return c.fetch(ctx, pkg, &stat)
	})
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// LastKnownDownloads returns the most recent cached figure for pkg, even
// past its TTL. Used as a fallback when a live fetch fails.
func (c *Client) LastKnownDownloads(pkg string) (*integrations.DownloadStat, bool) {
	pkg = integrations.NormalizePkgName(pkg)
	var stat integrations.DownloadStat
	if !c.LastKnown("downloads:"+pkg, &stat) {
		return nil, false
	}
	stat.Stale = true
	return &stat, true
}

// FirstReleased returns the package's earliest release upload date in
// "YYYY-MM-DD" form, or "" when it cannot be determined.
func (c *Client) FirstReleased(ctx context.Context, pkg string) string {
	var data pypiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.pypiURL, pkg), &data); err != nil {
		return ""
	}

	var earliest time.Time
	for _, files := range data.Releases {
		for _, f := range files {
			t, err := time.Parse("2006-01-02T15:04:05", f.UploadTime)
			if err != nil {
				continue
			}
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
		}
	}
	if earliest.IsZero() {
		return ""
	}
	return integrations.DateOnly(earliest)
}

func (c *Client) fetch(ctx context.Context, pkg string, stat *integrations.DownloadStat) error {
	var data pepyResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/projects/%s", c.pepyURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}

	*stat = integrations.DownloadStat{
		Package: pkg,
		Count:   data.TotalDownloads,
		AsOf:    c.now(),
		From:    c.FirstReleased(ctx, pkg),
	}
	return nil
}

type pepyResponse struct {
	ID             string `json:"id"`
	TotalDownloads int64  `json:"total_downloads"`
}

type pypiResponse struct {
	Releases map[string][]releaseFile `json:"releases"`
}

type releaseFile struct {
	UploadTime string `json:"upload_time"`
}
