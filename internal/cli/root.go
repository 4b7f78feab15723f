// Package cli holds the blogster command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"impractical.co/blogster/internal/config"
	"impractical.co/blogster/internal/content"
	"impractical.co/blogster/internal/logging"
)

// app is the state shared by every command: the flags on the root command
// and what PersistentPreRunE builds from them.
type app struct {
	version string
	cfgFile string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand returns the blogster command with every subcommand
// attached.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version}

	root := &cobra.Command{
		Use:   "blogster",
		Short: "A small blog rendering its pages four different ways",
		Long: `blogster serves a blog whose content comes from a JSONPlaceholder-style API.

Each page is produced differently: the home page is a static shell whose
dynamic content runs in the browser, the about page renders on every
request, the blog listing is generated ahead of time and revalidated, and
post pages are pre-rendered for the first ten posts and rendered on demand for
the rest.

Example usage:
  blogster serve                 # serve the site on :8080
  blogster export --out dist     # write a static copy of the site
  blogster search                # search posts from the terminal`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./blogster.yaml)")

	root.AddCommand(
		newServeCommand(a),
		newExportCommand(a),
		newSearchCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the blogster command with os.Args.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return a.setLogger(cmd, cmd.ErrOrStderr())
}

// setLogger builds the logger from configuration, writing to out, and puts
// it in cmd's context.
func (a *app) setLogger(cmd *cobra.Command, out io.Writer) error {
	logger, err := logging.New(out, a.cfg.Log.Level, logging.Format(a.cfg.Log.Format))
	if err != nil {
		return err
	}
	a.logger = logger
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, logger))
	return nil
}

// client builds the content client every command reads through.
func (a *app) client(opts ...content.Option) *content.Client {
	opts = append([]content.Option{
		content.WithUserAgent(fmt.Sprintf("%s/%s", a.cfg.API.UserAgent, a.version)),
		content.WithLimiter(limiter(a.cfg.API.RateLimit)),
	}, opts...)
	return content.NewClient(a.cfg.API.BaseURL, opts...)
}

// limiter allows perSecond requests per second with an equal burst. Zero
// means no limit.
func limiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(1, int(math.Ceil(perSecond))))
}

func openLogFile(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
