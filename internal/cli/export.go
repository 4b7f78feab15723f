package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"impractical.co/blogster/internal/export"
	"impractical.co/blogster/internal/pages"
	"impractical.co/blogster/internal/routes"
)

func newExportCommand(a *app) *cobra.Command {
	var out string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a static copy of the site",
		Long: `export renders the home page, the blog listing, and the first ten posts into
a directory of index.html files. Pages that render on every request are
skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src := a.client()
			site := pages.NewSite(src.BaseURL())
			table := routes.Table(site, src, a.cfg.Render.Revalidate)

			res, err := export.Export(ctx, site, table, out, concurrency)
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}
			for _, pattern := range res.Skipped {
				a.logger.InfoContext(ctx, "skipped page rendered per request", "route", pattern)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d pages to %s\n", len(res.Files), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "dist", "directory to write pages to")
	cmd.Flags().IntVar(&concurrency, "concurrency", export.DefaultConcurrency, "pages to render at once")
	return cmd
}
