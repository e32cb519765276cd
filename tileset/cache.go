package tileset

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// CacheOptions sizes a Cache. Zero fields take defaults.
type CacheOptions struct {
	Size         int           // entries per table, default 256
	MetadataTTL  time.Duration // default 24h
	ListingTTL   time.Duration // default 1m
	FetchTimeout time.Duration // bounds a shared upstream request, default 10s
}

// Cache is a Source that remembers another Source's answers. Concurrent
// misses for the same key share one upstream request.
type Cache struct {
	src      Source
	metadata *expirable.LRU[string, *Metadata]
	listings *expirable.LRU[string, *Listing]
	flight   singleflight.Group
	timeout  time.Duration
}

var _ Source = (*Cache)(nil)

func NewCache(src Source, o CacheOptions) *Cache {
	if o.Size <= 0 {
		o.Size = 256
	}
	if o.MetadataTTL <= 0 {
		o.MetadataTTL = 24 * time.Hour
	}
	if o.ListingTTL <= 0 {
		o.ListingTTL = time.Minute
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 10 * time.Second
	}
	return &Cache{
		src:      src,
		timeout:  o.FetchTimeout,
		metadata: expirable.NewLRU[string, *Metadata](o.Size, nil, o.MetadataTTL),
		listings: expirable.NewLRU[string, *Listing](o.Size, nil, o.ListingTTL),
	}
}

// Cached returns metadata without going upstream
func (c *Cache) Cached(path string) (*Metadata, bool) {
	return c.metadata.Get(NormalizePath(path))
}

// Metadata returns the cached tile set or fetches it
func (c *Cache) Metadata(ctx context.Context, path string) (*Metadata, error) {
	key := NormalizePath(path)
	if m, ok := c.metadata.Get(key); ok {
		return m, nil
	}
	v, err := c.share(ctx, "m:"+key, func(ctx context.Context) (any, error) {
		m, err := c.src.Metadata(ctx, key)
		if err != nil {
			return nil, err
		}
		c.metadata.Add(key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metadata), nil
}

// List returns the cached directory or fetches it
func (c *Cache) List(ctx context.Context, prefix string) (*Listing, error) {
	key := NormalizePath(prefix)
	if l, ok := c.listings.Get(key); ok {
		return l, nil
	}
	v, err := c.share(ctx, "l:"+key, func(ctx context.Context) (any, error) {
		l, err := c.src.List(ctx, key)
		if err != nil {
			return nil, err
		}
		c.listings.Add(key, l)
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Listing), nil
}

// share runs fetch once for all concurrent callers of key. The upstream
// request is detached from the caller that started it and bounded by
// FetchTimeout. Each caller stops waiting when its own ctx is done.
func (c *Cache) share(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	ch := c.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return fetch(fctx)
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Prefetch loads path in the background and reports the outcome to done,
// which runs on the fetching goroutine.
func (c *Cache) Prefetch(ctx context.Context, path string, done func(*Metadata, error)) {
	go func() {
		m, err := c.Metadata(ctx, path)
		if done != nil {
			done(m, err)
		}
	}()
}

// Purge drops every cached entry
func (c *Cache) Purge() {
	c.metadata.Purge()
	c.listings.Purge()
}
