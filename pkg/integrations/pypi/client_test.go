package pypi

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

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cache, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		pypiURL: serverURL + "/pypi",
		pepyURL: serverURL + "/api/v2",
		now:     func() time.Time { return time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestClient_FetchDownloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/projects/scotthsieh-projen-statemachine":
			json.NewEncoder(w).Encode(pepyResponse{
				ID:             "scotthsieh-projen-statemachine",
				TotalDownloads: 123456,
			})
		case "/pypi/scotthsieh-projen-statemachine/json":
			json.NewEncoder(w).Encode(pypiResponse{
				Releases: map[string][]releaseFile{
					"0.1.0": {{UploadTime: "2021-05-07T03:12:44"}},
					"0.2.0": {{UploadTime: "2021-08-19T11:00:00"}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	stat, err := c.FetchDownloads(context.Background(), "Scotthsieh_Projen_Statemachine", true)
	if err != nil {
		t.Fatalf("FetchDownloads failed: %v", err)
	}
	if stat.Count != 123456 {
		t.Errorf("Count = %d, want 123456", stat.Count)
	}
	if stat.From != "2021-05-07" {
		t.Errorf("From = %q, want 2021-05-07", stat.From)
	}
	if stat.Package != "scotthsieh-projen-statemachine" {
		t.Errorf("Package = %q, want normalized name", stat.Package)
	}
}

func TestClient_FetchDownloads_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.FetchDownloads(context.Background(), "no-such-package", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestClient_FirstReleased_NoReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pypiResponse{Releases: map[string][]releaseFile{}})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	if got := c.FirstReleased(context.Background(), "empty-package"); got != "" {
		t.Errorf("FirstReleased = %q, want empty", got)
	}
}
