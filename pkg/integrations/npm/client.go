package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/pkgtally/pkg/integrations"
)

// maxRangeDays is the widest window the npm downloads API accepts per
// range query (the API caps ranges at 18 months).
const maxRangeDays = 540

// defaultStartDate is used when the package's first publication date
// cannot be determined. Early enough to cover any real package.
const defaultStartDate = "2000-01-01"

// Client provides access to the npm registry and downloads APIs.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	registryURL string
	apiURL      string
	now         func() time.Time
}

// NewClient creates an npm client with the specified cache TTL.
//
// Returns an error if the cache directory cannot be created or accessed.
func NewClient(cacheTTL time.Duration) (*Client, error) {
	cache, err := integrations.NewCacheWithNamespace("npm:", cacheTTL)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:      integrations.NewClient(cache, nil),
		registryURL: "https://registry.npmjs.org",
		apiURL:      "https://api.npmjs.org",
		now:         time.Now,
	}, nil
}

// FetchDownloads retrieves the cumulative download count for an npm package,
// summed from its first publication date through today.
//
// If refresh is true, the cache is bypassed and fresh API calls are made.
//
// The downloads API only answers 18 months per query, so the full history
// is assembled from consecutive range windows. A window with no recorded
// data contributes zero rather than failing the whole fetch.
//
// Returns [integrations.ErrNotFound] if the package doesn't exist and
// [integrations.ErrNetwork] for HTTP failures.
func (c *Client) FetchDownloads(ctx context.Context, pkg string, refresh bool) (*integrations.DownloadStat, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
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
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	var stat integrations.DownloadStat
	if !c.LastKnown("downloads:"+pkg, &stat) {
		return nil, false
	}
	stat.Stale = true
	return &stat, true
}

// FirstPublished returns the package's first publication date in
// "YYYY-MM-DD" form, falling back to a fixed early date when the registry
// does not answer.
func (c *Client) FirstPublished(ctx context.Context, pkg string) string {
	var data registryResponse
	if err := c.Get(ctx, c.registryURL+"/"+pkg, &data); err != nil {
		return defaultStartDate
	}
	created := data.Time.Created
	if created == "" {
		return defaultStartDate
	}
	date, _, _ := strings.Cut(created, "T")
	return date
}

func (c *Client) fetch(ctx context.Context, pkg string, stat *integrations.DownloadStat) error {
	start := c.FirstPublished(ctx, pkg)
	end := integrations.DateOnly(c.now())

	total, err := c.sumRange(ctx, pkg, start, end)
	if err != nil {
		return err
	}

	*stat = integrations.DownloadStat{
		Package: pkg,
		Count:   total,
		AsOf:    c.now(),
		From:    start,
	}
	return nil
}

func (c *Client) sumRange(ctx context.Context, pkg, start, end string) (int64, error) {
	startT, err := time.Parse("2006-01-02", start)
	if err != nil {
		return 0, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endT, err := time.Parse("2006-01-02", end)
	if err != nil {
		return 0, fmt.Errorf("invalid end date %q: %w", end, err)
	}

	var total int64
	for cur := startT; !cur.After(endT); cur = cur.AddDate(0, 0, maxRangeDays) {
		windowEnd := cur.AddDate(0, 0, maxRangeDays-1)
		if windowEnd.After(endT) {
			windowEnd = endT
		}

		n, err := c.fetchWindow(ctx, pkg, integrations.DateOnly(cur), integrations.DateOnly(windowEnd))
		if err != nil {
			// Windows before the first recorded day 404; they contribute nothing.
			if errors.Is(err, integrations.ErrNotFound) {
				continue
			}
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (c *Client) fetchWindow(ctx context.Context, pkg, start, end string) (int64, error) {
	url := fmt.Sprintf("%s/downloads/range/%s:%s/%s", c.apiURL, start, end, pkg)

	var data rangeResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return 0, fmt.Errorf("%w: npm downloads %s %s:%s", err, pkg, start, end)
		}
		return 0, err
	}

	var sum int64
	for _, day := range data.Downloads {
		sum += day.Downloads
	}
	return sum, nil
}

type registryResponse struct {
	Name string        `json:"name"`
	Time registryTimes `json:"time"`
}

type registryTimes struct {
	Created string `json:"created"`
}

type rangeResponse struct {
	Start     string        `json:"start"`
	End       string        `json:"end"`
	Package   string        `json:"package"`
	Downloads []dayDownload `json:"downloads"`
}

type dayDownload struct {
	Downloads int64  `json:"downloads"`
	Day       string `json:"day"`
}
