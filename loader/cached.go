package loader

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// DefaultCacheSize is the number of responses kept by Default.
const DefaultCacheSize = 1024

// Cached wraps a Loader with an LRU of successful responses and collapses
// concurrent loads of the same specifier into one call.
// Errors are not cached.
type Cached struct {
	inner Loader
	cache *lru.Cache[specifier.Specifier, *Response]
	group singleflight.Group
}

// NewCached wraps inner. A size of zero or less uses DefaultCacheSize.
func NewCached(inner Loader, size int) (*Cached, error) {
	if inner == nil {
		return nil, fmt.Errorf("cached loader: nil inner loader")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[specifier.Specifier, *Response](size)
	if err != nil {
		return nil, fmt.Errorf("cached loader: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Load returns a cached response or loads spec through the inner loader.
//
// Concurrent callers share one inner load, which is detached from any single
// caller's cancellation. A caller whose ctx ends stops waiting and gets
// ctx.Err(); the load continues for the others.
func (c *Cached) Load(ctx context.Context, spec specifier.Specifier) (*Response, error) {
	if resp, ok := c.cache.Get(spec); ok {
		return resp, nil
	}

	ch := c.group.DoChan(spec.String(), func() (any, error) {
		if resp, ok := c.cache.Get(spec); ok {
			return resp, nil
		}
		resp, err := c.inner.Load(context.WithoutCancel(ctx), spec)
		if err != nil {
			return nil, err
		}
		c.cache.Add(spec, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Response), nil
	}
}

// Len returns the number of cached responses.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// Purge drops every cached response.
func (c *Cached) Purge() {
	c.cache.Purge()
}
