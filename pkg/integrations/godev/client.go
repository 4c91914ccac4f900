package godev

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/matzehuels/pkgtally/pkg/integrations"
)

// Client scrapes pkg.go.dev for "Imported By" counts.
//
// The Go module proxy exposes no download metric, so the imported-by count
// is the closest public signal for Go adoption. It is NOT a download count:
// callers should treat it as advisory, and [integrations.DownloadStat]
// returned from this client always carries Advisory=true.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates a pkg.go.dev client with the specified cache TTL.
//
// Returns an error if the cache directory cannot be created or accessed.
func NewClient(cacheTTL time.Duration) (*Client, error) {
	cache, err := integrations.NewCacheWithNamespace("godev:", cacheTTL)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		baseURL: "https://pkg.go.dev",
		now:     time.Now,
	}, nil
}

// FetchImportedBy retrieves the imported-by count for a Go package page.
//
// The importPath parameter is the full page path on pkg.go.dev, e.g.
// "github.com/owner/repo/pkg/v2". If refresh is true, the cache is bypassed.
//
// Returns [integrations.ErrNotFound] if the page doesn't exist, a parse
// error when the page layout changed, and [integrations.ErrNetwork] for
// HTTP failures.
func (c *Client) FetchImportedBy(ctx context.Context, importPath string, refresh bool) (*integrations.DownloadStat, error) {
	importPath = strings.Trim(strings.TrimSpace(importPath), "/")
	key := "importedby:" + importPath

	var stat integrations.DownloadStat
	err := c.Cached(ctx, key, refresh, &stat, func() error {
		return c.fetch(ctx, importPath, &stat)
	})
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// LastKnownImportedBy returns the most recent cached figure for
// importPath, even past its TTL. Used as a fallback when a live fetch
// fails.
func (c *Client) LastKnownImportedBy(importPath string) (*integrations.DownloadStat, bool) {
	importPath = strings.Trim(strings.TrimSpace(importPath), "/")
	var stat integrations.DownloadStat
	if !c.LastKnown("importedby:"+importPath, &stat) {
		return nil, false
	}
	stat.Stale = true
	return &stat, true
}

func (c *Client) fetch(ctx context.Context, importPath string, stat *integrations.DownloadStat) error {
	html, err := c.GetText(ctx, c.baseURL+"/"+importPath)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pkg.go.dev page %s", err, importPath)
		}
		return err
	}

	count, err := parseImportedBy(html)
	if err != nil {
		return fmt.Errorf("pkg.go.dev page %s: %w", importPath, err)
	}

	*stat = integrations.DownloadStat{
		Package:  importPath,
		Count:    count,
		AsOf:     c.now(),
		Advisory: true,
	}
	return nil
}

// parseImportedBy extracts the imported-by count from a pkg.go.dev unit page.
// The count lives in the header as a link whose aria-label reads
// "Imported By: N".
func parseImportedBy(html string) (int64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, err
	}

	var label string
	doc.Find(`span[data-test-id="UnitHeader-importedby"] a`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("aria-label"); ok && strings.Contains(v, "Imported By") {
			label = v
			return false
		}
		return true
	})
	if label == "" {
		return 0, errors.New("imported-by link not found")
	}

	_, raw, ok := strings.Cut(label, ":")
	if !ok {
		return 0, fmt.Errorf("unexpected aria-label %q", label)
	}
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected imported-by count %q", raw)
	}
	return count, nil
}
