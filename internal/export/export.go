// Package export writes every page that can be rendered ahead of requests
// to a directory, as a static copy of the site.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"impractical.co/blogster/internal/logging"
	"impractical.co/blogster/internal/pages"
	"impractical.co/blogster/internal/routes"
)

// DefaultConcurrency is how many pages Export renders at once unless told
// otherwise.
const DefaultConcurrency = 4

// Result lists what Export wrote.
type Result struct {
	// Files are the written files, relative to the export directory.
	Files []string

	// Skipped are the patterns of routes that can't be exported because
	// they render on every request.
	Skipped []string
}

// Export renders every prerenderable page of table into dir, one
// index.html per path: "/" becomes "index.html" and "/blog/3" becomes
// "blog/3/index.html". Any page failing to render or write fails the
// export.
func Export(ctx context.Context, site *pages.Site, table []routes.Route, dir string, concurrency int) (Result, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	var res Result
	for _, r := range table {
		if !r.Mode.Cached() {
			res.Skipped = append(res.Skipped, r.Pattern)
		}
	}

	var mu sync.Mutex
	err := routes.Prerender(ctx, site, table, concurrency,
		func(ctx context.Context, r routes.Route, path string, body []byte, err error) error {
			if err != nil {
				return fmt.Errorf("rendering %s: %w", path, err)
			}
			rel := File(path)
			if err := write(filepath.Join(dir, rel), body); err != nil {
				return err
			}
			logging.FromContext(ctx).DebugContext(ctx, "exported page", "route", r.Name, "file", rel)
			mu.Lock()
			res.Files = append(res.Files, rel)
			mu.Unlock()
			return nil
		})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// File is where path is written, relative to the export directory.
func File(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(trimmed), "index.html")
}

func write(file string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", file, err)
	}
	if err := os.WriteFile(file, body, 0o644); err != nil { //nolint:gosec // exported pages are public
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}
