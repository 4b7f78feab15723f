package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"impractical.co/blogster/internal/content"
	"impractical.co/blogster/internal/isr"
	"impractical.co/blogster/internal/metrics"
	"impractical.co/blogster/internal/pages"
	"impractical.co/blogster/internal/routes"
	"impractical.co/blogster/internal/server"
	"impractical.co/blogster/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string
	var skipPrerender bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.serve(cmd.Context(), addr, !skipPrerender)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default from server.addr)")
	cmd.Flags().BoolVar(&skipPrerender, "skip-prerender", false, "render every page on its first request instead of at startup")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string, prerender bool) (err error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, a.cfg.Telemetry, a.version)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		err = errors.Join(err, shutdownTelemetry(shutdownCtx))
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	src := a.client(content.WithRecorder(m))
	site := pages.NewSite(src.BaseURL())
	table := routes.Table(site, src, a.cfg.Render.Revalidate)
	srv := server.New(site, table,
		server.WithLogger(a.logger),
		server.WithMetrics(m, reg),
		server.WithCache(isr.NewCache(isr.WithObserver(m))),
	)

	if prerender {
		if err := srv.Prerender(ctx); err != nil {
			return fmt.Errorf("pre-rendering: %w", err)
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start(addr)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errs
}
