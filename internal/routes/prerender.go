package routes

import (
	"context"

	"golang.org/x/sync/errgroup"

	"impractical.co/blogster/internal/pages"
)

// PrerenderFunc receives each page Prerender renders. path is the page's
// path, or the route's Pattern when listing the route's pages failed. err is
// why the page couldn't be rendered, and body is nil whenever err isn't.
//
// Returning an error stops Prerender; returning nil carries on.
type PrerenderFunc func(ctx context.Context, r Route, path string, body []byte, err error) error

// Prerender renders every page of table that can be rendered ahead of
// requests, with at most limit renders in flight, and hands each result to
// fn. It returns the first error fn returns.
func Prerender(ctx context.Context, site *pages.Site, table []Route, limit int, fn PrerenderFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, r := range table {
		list, err := r.PrerenderParams(ctx)
		if err != nil {
			if err := fn(ctx, r, r.Pattern, nil, err); err != nil {
				// let in-flight renders finish before returning
				_ = g.Wait()
				return err
			}
			continue
		}
		for _, params := range list {
			g.Go(func() error {
				body, err := Render(ctx, site, r, params)
				return fn(ctx, r, r.Path(params), body, err)
			})
		}
	}
	return g.Wait()
}
