package nuget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/pkgtally/pkg/integrations"
)

// Client provides access to the NuGet search API for download totals.
//
// The search service reports a cumulative totalDownloads per package, so a
// single query answers what the nuget.org package page shows.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	searchURL string
	now       func() time.Time
}

// NewClient creates a NuGet client with the specified cache TTL.
//
// Returns an error if the cache directory cannot be created or accessed.
func NewClient(cacheTTL time.Duration) (*Client, error) {
	cache, err := integrations.NewCacheWithNamespace("nuget:", cacheTTL)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:    integrations.NewClient(cache, nil),
		searchURL: "https://azuresearch-usnc.nuget.org/query",
		now:       time.Now,
	}, nil
}

// FetchDownloads retrieves the total download count for a NuGet package.
//
// The id parameter is the .NET package identity (e.g. "Comprehend.S3olap"),
// matched case-insensitively by the search service. If refresh is true,
// the cache is bypassed.
//
// Returns [integrations.ErrNotFound] if the package doesn't exist and
// [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchDownloads(ctx context.Context, id string, refresh bool) (*integrations.DownloadStat, error) {
	id = strings.TrimSpace(id)
	key := "downloads:" + strings.ToLower(id)

	var stat integrations.DownloadStat
	err := c.Cached(ctx, key, refresh, &stat, func() error {
		return c.fetch(ctx, id, &stat)
	})
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// LastKnownDownloads returns the most recent cached figure for id, even
// past its TTL. Used as a fallback when a live fetch fails.
func (c *Client) LastKnownDownloads(id string) (*integrations.DownloadStat, bool) {
	var stat integrations.DownloadStat
	if !c.LastKnown("downloads:"+strings.ToLower(strings.TrimSpace(id)), &stat) {
		return nil, false
	}
	stat.Stale = true
	return &stat, true
}

func (c *Client) fetch(ctx context.Context, id string, stat *integrations.DownloadStat) error {
	url := fmt.Sprintf("%s?q=packageid:%s&prerelease=true", c.searchURL, integrations.URLEncode(id))

	var data searchResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: nuget package %s", err, id)
		}
		return err
	}

	if len(data.Data) == 0 {
		return fmt.Errorf("%w: nuget package %s", integrations.ErrNotFound, id)
	}

	*stat = integrations.DownloadStat{
		Package: data.Data[0].ID,
		Count:   data.Data[0].TotalDownloads,
		AsOf:    c.now(),
	}
	return nil
}

type searchResponse struct {
	TotalHits int         `json:"totalHits"`
	Data      []searchDoc `json:"data"`
}

type searchDoc struct {
	ID             string `json:"id"`
	Version        string `json:"version"`
	TotalDownloads int64  `json:"totalDownloads"`
}
