package options

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 5 * time.Minute
	cacheKey        = "options:payload"
	maxBodyBytes    = 8 << 20
)

// ErrFetch marks a failure to obtain a usable catalogue.
var ErrFetch = errors.New("fetch options")

// Source returns the options catalogue.
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Snapshot is a decoded catalogue together with its raw body.
type Snapshot struct {
	Payload Payload
	Body    []byte
	ETag    string
}

// ByteCache stores the raw catalogue between fetches.
type ByteCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Client fetches the catalogue over HTTP.
type Client struct {
	url      string
	client   *http.Client
	cache    ByteCache
	cacheTTL time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithCache keeps fetched bodies in cache for ttl.
func WithCache(cache ByteCache, ttl time.Duration) ClientOption {
	return func(cl *Client) {
		cl.cache = cache
		if ttl > 0 {
			cl.cacheTTL = ttl
		}
	}
}

// NewClient creates a catalogue client for url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:      url,
		client:   &http.Client{Timeout: defaultTimeout},
		cacheTTL: defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the catalogue, from cache when a fresh copy is held.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	if c.cache != nil {
		body, ok, err := c.cache.GetBytes(ctx, cacheKey)
		if err != nil {
			slog.Warn("options cache read failed", "error", err)
		}
		if ok {
			snap, err := Decode(body)
			if err == nil {
				return snap, nil
			}
			slog.Warn("discarding cached options payload", "error", err)
		}
	}

	body, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := Decode(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetBytes(ctx, cacheKey, body, c.cacheTTL); err != nil {
			slog.Warn("options cache write failed", "error", err)
		}
	}
	return snap, nil
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d", ErrFetch, resp.StatusCode)
	}
	return body, nil
}

// Decode validates and decodes a raw catalogue body.
func Decode(body []byte) (*Snapshot, error) {
	if err := Validate(body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payload: %w", ErrFetch, err)
	}
	return &Snapshot{Payload: p, Body: body, ETag: Fingerprint(body)}, nil
}

// Fingerprint returns a quoted entity tag for body.
func Fingerprint(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// FileSource reads the catalogue from a local JSON file on every fetch.
type FileSource struct {
	Path string
}

// Fetch reads and decodes the file.
func (f FileSource) Fetch(_ context.Context) (*Snapshot, error) {
	body, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrFetch, f.Path, err)
	}
	return Decode(body)
}
