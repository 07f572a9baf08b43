// Package realtime holds the thin clients for the arrival data
// feeds: Seoul city bus, Gyeonggi regional bus, and the subway
// realtime feed. Each client swallows upstream failures into empty
// results; a broken feed degrades the dashboard, it never breaks it.
package realtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bluele/gcache"
)

const (
	DefaultTTL     = 20 * time.Second
	DefaultTimeout = 10 * time.Second
	DefaultMaxSize = 1 << 20 // 1 MB
	cacheSize      = 512
)

type GetOptions struct {
	MaxSize int
	Timeout time.Duration
	Cache   bool
}

// A thing capable of fetching a feed URL, optionally with caching.
type Fetcher interface {
	Get(ctx context.Context, url string, options GetOptions) ([]byte, error)
}

// Gets a URL. Doesn't cache. Provided as convenience for
// implementing custom Fetchers.
func HTTPGet(ctx context.Context, url string, options GetOptions) ([]byte, error) {
	client := &http.Client{
		Timeout: options.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if options.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, int64(options.MaxSize))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return body, nil
}

// CachingFetcher serves repeated requests for the same URL from a
// short-TTL in-memory cache. Concurrent dashboard refreshes hitting
// the same stop collapse into a single upstream call (within the
// TTL). Entries are immutable value replacements, so racing writers
// are harmless.
type CachingFetcher struct {
	TTL   time.Duration
	cache gcache.Cache
}

func NewCachingFetcher(ttl time.Duration) *CachingFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingFetcher{
		TTL:   ttl,
		cache: gcache.New(cacheSize).LRU().Build(),
	}
}

func (f *CachingFetcher) Get(ctx context.Context, url string, options GetOptions) ([]byte, error) {
	if options.Cache {
		if cached, err := f.cache.Get(url); err == nil {
			return cached.([]byte), nil
		}
	}

	body, err := HTTPGet(ctx, url, options)
	if err != nil {
		return nil, err
	}

	if options.Cache {
		// A failed cache write costs a future upstream call, nothing more.
		_ = f.cache.SetWithExpire(url, body, f.TTL)
	}

	return body, nil
}
