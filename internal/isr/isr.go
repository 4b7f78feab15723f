// Package isr holds rendered pages and decides when they need to be produced
// again.
//
// A page rendered with a revalidation window is served from memory until the
// window passes. After that, the stale copy is still served while a single
// background render replaces it. A failed background render leaves the stale
// copy in place. Render failures are never stored.
package isr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"impractical.co/blogster/internal/logging"
)

// Mode is how a route produces its HTML.
type Mode int

const (
	// ModeServer renders on every request.
	ModeServer Mode = iota

	// ModeStatic renders once, ahead of requests, and serves that render
	// until its revalidation window passes.
	ModeStatic

	// ModeIncremental pre-renders a known set of parameters and renders
	// any other parameter on first request, then treats every render
	// like ModeStatic.
	ModeIncremental

	// ModeClient serves a page with no server-side data; scripts in the
	// page produce its dynamic content in the browser.
	ModeClient
)

func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeStatic:
		return "static"
	case ModeIncremental:
		return "incremental"
	case ModeClient:
		return "client"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Cached reports whether pages in this mode are kept between requests.
func (m Mode) Cached() bool {
	return m != ModeServer
}

// Outcome is how a Get was served.
type Outcome string

const (
	OutcomeHit   Outcome = "hit"
	OutcomeStale Outcome = "stale"
	OutcomeMiss  Outcome = "miss"
)

// RenderFunc produces a page body.
type RenderFunc func(ctx context.Context) ([]byte, error)

// RegenerationObserver is told how every background regeneration ended.
// *metrics.Metrics implements it.
type RegenerationObserver interface {
	ObserveRegeneration(err error)
}

type entry struct {
	body        []byte
	renderedAt  time.Time
	revalidate  time.Duration
	regenerates bool
}

// Cache stores rendered pages by key. Its zero value is not usable; build
// one with NewCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	group    singleflight.Group
	inflight sync.WaitGroup

	now      func() time.Time
	observer RegenerationObserver
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithObserver reports background regenerations to o.
func WithObserver(o RegenerationObserver) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// NewCache returns an empty Cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: map[string]*entry{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the page stored under key, rendering it with render when there
// is none. A revalidate of zero or less means the page never goes stale.
//
// Concurrent misses for the same key share one render. A stale page starts
// at most one background regeneration at a time, detached from ctx's
// cancellation so it outlives the request that noticed the page was stale.
func (c *Cache) Get(ctx context.Context, key string, revalidate time.Duration, render RenderFunc) ([]byte, Outcome, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		body, err := c.renderAndStore(ctx, key, revalidate, render)
		if err != nil {
			return nil, OutcomeMiss, err
		}
		return body, OutcomeMiss, nil
	}

	if !c.isStale(e) {
		return e.body, OutcomeHit, nil
	}

	c.regenerate(ctx, key, revalidate, render)
	return e.body, OutcomeStale, nil
}

// Prime stores body under key as if it had just been rendered. It's used to
// serve pages rendered ahead of any request.
func (c *Cache) Prime(key string, revalidate time.Duration, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		body:       body,
		renderedAt: c.now(),
		revalidate: revalidate,
	}
}

// Len returns how many pages are stored.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Wait blocks until every background regeneration started so far is done.
func (c *Cache) Wait() {
	c.inflight.Wait()
}

func (c *Cache) isStale(e *entry) bool {
	if e.revalidate <= 0 {
		return false
	}
	return c.now().Sub(e.renderedAt) >= e.revalidate
}

func (c *Cache) renderAndStore(ctx context.Context, key string, revalidate time.Duration, render RenderFunc) ([]byte, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		body, err := render(ctx)
		if err != nil {
			return nil, err
		}
		c.Prime(key, revalidate, body)
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) regenerate(ctx context.Context, key string, revalidate time.Duration, render RenderFunc) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.regenerates {
		c.mu.Unlock()
		return
	}
	e.regenerates = true
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		_, err := c.renderAndStore(ctx, key, revalidate, render)
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "error regenerating stale page, keeping previous render",
				"key", key, "error", err)
			c.mu.Lock()
			e.regenerates = false
			c.mu.Unlock()
		}
		if c.observer != nil {
			c.observer.ObserveRegeneration(err)
		}
	}()
}
