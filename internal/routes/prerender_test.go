package routes

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impractical.co/blogster/internal/content"
	"impractical.co/blogster/internal/pages"
)

type collected struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
}

func (c *collected) fn(_ context.Context, _ Route, path string, body []byte, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs[path] = err
		return nil
	}
	c.bodies[path] = body
	return nil
}

func (c *collected) paths() []string {
	var out []string
	for path := range c.bodies {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func TestPrerender(t *testing.T) {
	t.Parallel()

	site := pages.NewSite(content.DefaultBaseURL)
	src := newFakeSource(11)
	got := &collected{bodies: map[string][]byte{}, errs: map[string]error{}}

	err := Prerender(context.Background(), site, Table(site, src, DefaultRevalidate), 3, got.fn)
	require.NoError(t, err)
	assert.Empty(t, got.errs)
	assert.Equal(t, []string{
		"/", "/blog", "/blog/1", "/blog/10", "/blog/2", "/blog/3", "/blog/4",
		"/blog/5", "/blog/6", "/blog/7", "/blog/8", "/blog/9",
	}, got.paths())
	assert.Contains(t, string(got.bodies["/blog/7"]), "<title>post 7 - Blogster</title>")
	assert.NotContains(t, src.calls, "/posts/11")
}

func TestPrerenderReportsEnumerationFailure(t *testing.T) {
	t.Parallel()

	site := pages.NewSite(content.DefaultBaseURL)
	src := newFakeSource(3)
	src.listErr = &content.FetchFailure{Resource: "/posts", StatusCode: 500}
	got := &collected{bodies: map[string][]byte{}, errs: map[string]error{}}

	err := Prerender(context.Background(), site, Table(site, src, DefaultRevalidate), 2, got.fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, got.paths())
	assert.True(t, errors.Is(got.errs["/blog"], content.ErrFetchFailure))
	assert.True(t, errors.Is(got.errs["/blog/:id"], content.ErrFetchFailure))
}

func TestPrerenderStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	site := pages.NewSite(content.DefaultBaseURL)
	stop := errors.New("disk full")
	err := Prerender(context.Background(), site, Table(site, newFakeSource(3), DefaultRevalidate), 1,
		func(context.Context, Route, string, []byte, error) error {
			return stop
		})
	assert.ErrorIs(t, err, stop)
}
