package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/pkgtally/pkg/httputil"
)

func newTestCache(t *testing.T, ttl time.Duration) *httputil.Cache {
	t.Helper()
	c, err := httputil.NewCache(t.TempDir(), ttl)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": 42}`)
	}))
	defer server.Close()

	c := NewClient(newTestCache(t, time.Hour), nil)

	var result struct {
		Value int `json:"value"`
	}
	if err := c.Get(context.Background(), server.URL, &result); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if result.Value != 42 {
		t.Errorf("Value = %d, want 42", result.Value)
	}
}

func TestClient_Get_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := NewClient(newTestCache(t, time.Hour), nil)

	var result any
	err := c.Get(context.Background(), server.URL, &result)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestClient_Get_ServerErrorIsRetryable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "oops", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer server.Close()

	c := NewClient(newTestCache(t, time.Hour), nil)

	var result struct {
		OK bool `json:"ok"`
	}
	err := c.Cached(context.Background(), "key", true, &result, func() error {
		return c.Get(context.Background(), server.URL, &result)
	})
	if err != nil {
		t.Fatalf("Cached() failed: %v", err)
	}
	if !result.OK {
		t.Error("expected retried request to succeed")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClient_Cached(t *testing.T) {
	fetches := 0
	c := NewClient(newTestCache(t, time.Hour), nil)

	var v int
	fetch := func() error {
		fetches++
		v = 7
		return nil
	}

	if err := c.Cached(context.Background(), "k", false, &v, fetch); err != nil {
		t.Fatalf("Cached() failed: %v", err)
	}
	v = 0
	if err := c.Cached(context.Background(), "k", false, &v, fetch); err != nil {
		t.Fatalf("Cached() failed: %v", err)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1 (second call should hit cache)", fetches)
	}
	if v != 7 {
		t.Errorf("v = %d, want 7", v)
	}
}

func TestClient_LastKnown(t *testing.T) {
	cache := newTestCache(t, time.Millisecond)
	c := NewClient(cache, nil)

	if err := cache.Set("k", 99); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	var v int
	if !c.LastKnown("k", &v) {
		t.Fatal("LastKnown() = false, want true for expired entry")
	}
	if v != 99 {
		t.Errorf("v = %d, want 99", v)
	}

	if c.LastKnown("never-set", &v) {
		t.Error("LastKnown() = true for missing key")
	}
}

func TestNormalizePkgName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FastAPI", "fastapi"},
		{"my_package", "my-package"},
		{"  spaced  ", "spaced"},
		{"Already-Normal", "already-normal"},
	}
	for _, tt := range tests {
		if got := NormalizePkgName(tt.in); got != tt.want {
			t.Errorf("NormalizePkgName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
