package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/pkgtally/pkg/httputil"
	"github.com/matzehuels/pkgtally/pkg/integrations"
)

func testClient(t *testing.T, serverURL, token string) *Client {
	t.Helper()
	cache, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(cache, headers),
		baseURL: serverURL,
	}
}

func TestClient_FetchClones(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/traffic/clones" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", got)
		}
		json.NewEncoder(w).Encode(CloneStats{Total: 87, Unique: 34})
	}))
	defer server.Close()

	c := testClient(t, server.URL, "test-token")

	stats, err := c.FetchClones(context.Background(), "owner", "repo", true)
	if err != nil {
		t.Fatalf("FetchClones failed: %v", err)
	}
	if stats.Total != 87 || stats.Unique != 34 {
		t.Errorf("stats = %+v, want Total=87 Unique=34", stats)
	}
}

func TestClient_FetchClones_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(t, server.URL, "")

	_, err := c.FetchClones(context.Background(), "owner", "private-repo", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
