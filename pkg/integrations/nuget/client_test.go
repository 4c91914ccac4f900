package nuget

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
		Client:    integrations.NewClient(cache, nil),
		searchURL: serverURL + "/query",
		now:       func() time.Time { return time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestClient_FetchDownloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "packageid:Comprehend.S3olap" {
			t.Errorf("query q = %q, want packageid:Comprehend.S3olap", got)
		}
		json.NewEncoder(w).Encode(searchResponse{
			TotalHits: 1,
			Data: []searchDoc{
				{ID: "Comprehend.S3olap", Version: "2.0.0", TotalDownloads: 132200},
			},
		})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	stat, err := c.FetchDownloads(context.Background(), "Comprehend.S3olap", true)
	if err != nil {
		t.Fatalf("FetchDownloads failed: %v", err)
	}
	if stat.Count != 132200 {
		t.Errorf("Count = %d, want 132200", stat.Count)
	}
	if stat.Package != "Comprehend.S3olap" {
		t.Errorf("Package = %q, want Comprehend.S3olap", stat.Package)
	}
}

func TestClient_FetchDownloads_NoHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{TotalHits: 0})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.FetchDownloads(context.Background(), "No.Such.Package", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
