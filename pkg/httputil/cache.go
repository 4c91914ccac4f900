package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when a cached entry exists but has
// exceeded its time-to-live. The data is still on disk: callers refresh it
// with [Cache.Set] after a live fetch, or read it anyway with
// [Cache.GetStale] when the fetch fails and a last-known value beats zero.
// Check with errors.Is.
var ErrExpired = errors.New("cache entry expired")

// Cache provides file-based caching of JSON-marshalable data.
//
// Each entry is a JSON file whose name is the SHA-256 hash of the cache
// key, so any string is a safe key. Expiry is based on file modification
// time; a TTL of 0 means entries never expire. Cache operations are not
// goroutine-safe on one instance, but instances in separate processes can
// share a directory. [Cache.Namespace] scopes keys per registry ("npm:",
// "pypi:") so the clients never collide.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// NewCache creates a Cache that stores entries in dir with the given TTL.
// An empty dir means ~/.cache/pkgtally/; the directory is created when it
// doesn't exist. A TTL of 0 disables expiration.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".cache", "pkgtally")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl, prefix: ""}, nil
}

// Dir returns the absolute path to the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the time-to-live duration for cache entries.
// A TTL of 0 means cache entries never expire.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves a cached value by key and unmarshals it into v.
//
//   - (true, nil): hit, fresh, unmarshaled into v
//   - (false, nil): no entry for this key
//   - (false, ErrExpired): entry exists but exceeded its TTL
//   - (false, other): I/O or unmarshal error
//
// Keys may be any string; they are hashed before use. Reads never touch
// modification times.
func (c *Cache) Get(key string, v any) (bool, error) {
	path := c.keyPath(c.prefix + key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	return true, c.read(path, v)
}

// GetStale retrieves a cached value by key regardless of TTL.
//
// This is the "last-known value" read used when a live fetch fails: a
// stale download count is more useful in the final report than a zero.
// Returns (false, nil) when no entry exists at all.
func (c *Cache) GetStale(key string, v any) (bool, error) {
	path := c.keyPath(c.prefix + key)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, c.read(path, v)
}

// Set stores a value in the cache under the given key.
//
// The value v is marshaled to JSON and written to disk. Set overwrites any
// existing entry for key, resetting its modification time to the current
// time. This effectively refreshes the TTL.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(c.prefix+key), data, 0o644)
}

// Namespace returns a scoped view of the cache that prefixes all keys with
// prefix, sharing the parent's directory and TTL. Calls can be chained; an
// empty prefix leaves keys untouched.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		dir:    c.dir,
		ttl:    c.ttl,
		prefix: c.prefix + prefix,
	}
}

func (c *Cache) read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (c *Cache) keyPath(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
