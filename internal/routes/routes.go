// Package routes lists Blogster's pages, how each one is produced, and which
// of them can be rendered ahead of any request.
package routes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"impractical.co/blogster/internal/isr"
	"impractical.co/blogster/internal/pages"
	"impractical.co/blogster/internal/pipeline"
	"impractical.co/blogster/internal/render"
)

// DefaultRevalidate is how long a static or incremental page is served
// before it's regenerated.
const DefaultRevalidate = 60 * time.Second

// Params are the values of a route's path parameters, keyed by name.
type Params map[string]string

// LoadFunc fetches whatever a page needs and returns the page, ready to
// render.
type LoadFunc func(ctx context.Context, params Params) (render.Page, error)

// Route is one page of the site.
type Route struct {
	// Name identifies the route in logs and metrics.
	Name string

	// Pattern is the route's path. Segments starting with ":" are
	// parameters.
	Pattern string

	Mode isr.Mode

	// Revalidate is how long a cached render is fresh. Zero means it
	// never goes stale.
	Revalidate time.Duration

	Load LoadFunc

	// StaticParams lists the parameters to render ahead of requests. It's
	// only set for routes with parameters.
	StaticParams func(ctx context.Context) ([]Params, error)
}

// Path fills the route's parameters in from params.
func (r Route) Path(params Params) string {
	segments := strings.Split(r.Pattern, "/")
	for i, segment := range segments {
		if name, ok := strings.CutPrefix(segment, ":"); ok {
			segments[i] = params[name]
		}
	}
	return strings.Join(segments, "/")
}

// PrerenderParams lists the parameters of every page of the route that can
// be rendered ahead of requests. Routes without parameters have one entry.
// Routes rendered per request have none.
func (r Route) PrerenderParams(ctx context.Context) ([]Params, error) {
	if !r.Mode.Cached() {
		return nil, nil
	}
	if r.StaticParams == nil {
		return []Params{{}}, nil
	}
	list, err := r.StaticParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages for %s: %w", r.Name, err)
	}
	return list, nil
}

// Render loads the route's page and renders it. It never falls back to an
// error page; callers decide what to do with the error.
func Render(ctx context.Context, site *pages.Site, r Route, params Params) ([]byte, error) {
	page, err := r.Load(ctx, params)
	if err != nil {
		return nil, err
	}
	return render.Bytes(ctx, site, page)
}

// Table returns every route of the site. Pages read content from src, and
// the list and detail pages go stale after revalidate.
func Table(site *pages.Site, src pipeline.Source, revalidate time.Duration) []Route {
	return []Route{
		{
			Name:    "home",
			Pattern: "/",
			Mode:    isr.ModeClient,
			Load: func(_ context.Context, _ Params) (render.Page, error) {
				return pages.HomePage{}, nil
			},
		},
		{
			Name:    "about",
			Pattern: "/about",
			Mode:    isr.ModeServer,
			Load: func(ctx context.Context, _ Params) (render.Page, error) {
				view, err := pipeline.LoadProfile(ctx, src)
				if err != nil {
					return nil, err
				}
				return pages.AboutPage{View: view}, nil
			},
		},
		{
			Name:       "blog",
			Pattern:    "/blog",
			Mode:       isr.ModeStatic,
			Revalidate: revalidate,
			Load: func(ctx context.Context, _ Params) (render.Page, error) {
				view, err := pipeline.LoadList(ctx, src)
				if err != nil {
					return nil, err
				}
				return pages.BlogListPage{Blog: pages.NewBlogLayout(site.APIBaseURL), View: view, Revalidate: revalidate}, nil
			},
		},
		{
			Name:       "post",
			Pattern:    "/blog/:id",
			Mode:       isr.ModeIncremental,
			Revalidate: revalidate,
			Load: func(ctx context.Context, params Params) (render.Page, error) {
				view, err := pipeline.LoadDetail(ctx, src, params["id"])
				if err != nil {
					return nil, err
				}
				return pages.PostPage{Blog: pages.NewBlogLayout(site.APIBaseURL), View: view, Revalidate: revalidate}, nil
			},
			StaticParams: func(ctx context.Context) ([]Params, error) {
				ids, err := pipeline.StaticPostIDs(ctx, src)
				if err != nil {
					return nil, err
				}
				params := make([]Params, 0, len(ids))
				for _, id := range ids {
					params = append(params, Params{"id": id})
				}
				return params, nil
			},
		},
	}
}
