package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/pkgtally/pkg/integrations"
)

// CloneStats holds repository clone counts from the GitHub traffic API.
//
// The traffic API only covers the trailing 14 days, so these numbers are
// a rolling-window signal, not a cumulative total.
type CloneStats struct {
	Total  int64 `json:"count"`   // Total clones in the window
	Unique int64 `json:"uniques"` // Unique cloners in the window
}

// Client provides access to the GitHub traffic API for clone statistics.
// It handles HTTP requests with caching, automatic retries, and
// authentication (the traffic endpoints require push access).
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client. The token is required: the
// traffic endpoints reject unauthenticated requests.
//
// Returns an error if the cache directory cannot be created or accessed.
func NewClient(token string, cacheTTL time.Duration) (*Client, error) {
	cache, err := integrations.NewCacheWithNamespace("github:", cacheTTL)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return &Client{
		Client:  integrations.NewClient(cache, headers),
		baseURL: "https://api.github.com",
	}, nil
}

// FetchClones retrieves clone statistics for a repository.
// If refresh is true, cached data is bypassed.
//
// Returns [integrations.ErrNotFound] when the repository doesn't exist or
// the token lacks access (GitHub answers 404 for both).
func (c *Client) FetchClones(ctx context.Context, owner, repo string, refresh bool) (*CloneStats, error) {
	key := "clones:" + owner + "/" + repo

	var stats CloneStats
	err := c.Cached(ctx, key, refresh, &stats, func() error {
		return c.fetch(ctx, owner, repo, &stats)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) fetch(ctx context.Context, owner, repo string, stats *CloneStats) error {
	url := fmt.Sprintf("%s/repos/%s/%s/traffic/clones", c.baseURL, owner, repo)
	if err := c.Get(ctx, url, stats); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: github repo %s/%s (missing or token lacks push access)", err, owner, repo)
		}
		return err
	}
	return nil
}
