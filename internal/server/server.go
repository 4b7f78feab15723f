// Package server serves Blogster's routes over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"impractical.co/blogster/internal/isr"
	"impractical.co/blogster/internal/logging"
	"impractical.co/blogster/internal/metrics"
	"impractical.co/blogster/internal/pages"
	"impractical.co/blogster/internal/render"
	"impractical.co/blogster/internal/routes"
)

const (
	serviceName = "blogster"

	// prerenderLimit caps concurrent renders during Prerender.
	prerenderLimit = 4

	// HeaderCache reports how a cached page was served: hit, stale, or
	// miss.
	HeaderCache = "X-Blogster-Cache"
)

// Server serves a route table, keeping cached routes in an isr.Cache.
type Server struct {
	echo   *echo.Echo
	site   *pages.Site
	table  []routes.Route
	cache  *isr.Cache
	logger *slog.Logger

	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger requests log through. Without it, nothing is
// logged.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records page outcomes to m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithCache replaces the page cache.
func WithCache(cache *isr.Cache) Option {
	return func(s *Server) {
		s.cache = cache
	}
}

// New returns a Server for table.
func New(site *pages.Site, table []routes.Route, opts ...Option) *Server {
	s := &Server{
		site:   site,
		table:  table,
		logger: logging.FromContext(context.Background()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = isr.NewCache(isr.WithObserver(s.metrics))
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(otelecho.Middleware(serviceName, otelecho.WithSkipper(skipInternal)))
	e.Use(s.contextLogger)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:      skipInternal,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			logging.FromContext(ctx).InfoContext(ctx, "request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))

	for _, r := range table {
		e.GET(r.Pattern, s.handle(r))
	}
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.echo = e
	return s
}

func skipInternal(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/healthz" || path == "/metrics"
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr and serves until Shutdown is called, returning nil
// in that case.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, waits for in-flight ones, then waits
// for background regenerations to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	s.cache.Wait()
	return err
}

// Prerender renders every page that can be rendered ahead of requests and
// stores it in the cache. Pages that fail are logged and left to render on
// their first request.
func (s *Server) Prerender(ctx context.Context) error {
	ctx = logging.WithLogger(ctx, s.logger)
	return routes.Prerender(ctx, s.site, s.table, prerenderLimit,
		func(ctx context.Context, r routes.Route, path string, body []byte, err error) error {
			if err != nil {
				logging.FromContext(ctx).WarnContext(ctx, "error pre-rendering page, it will render on first request",
					"route", r.Name, "path", path, "error", err)
				return nil
			}
			s.cache.Prime(path, r.Revalidate, body)
			logging.FromContext(ctx).DebugContext(ctx, "pre-rendered page", "route", r.Name, "path", path)
			return nil
		})
}

// contextLogger puts a logger tagged with the request id in the request's
// context.
func (s *Server) contextLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		logger := s.logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), logger)))
		return next(c)
	}
}

func (s *Server) handle(r routes.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		params := routes.Params{}
		for _, name := range c.ParamNames() {
			params[name] = c.Param(name)
		}
		renderPage := func(ctx context.Context) ([]byte, error) {
			start := time.Now()
			defer func() {
				s.metrics.ObserveRender(r.Name, time.Since(start).Seconds())
			}()
			return routes.Render(ctx, s.site, r, params)
		}

		var body []byte
		var err error
		outcome := "bypass"
		if r.Mode.Cached() {
			var o isr.Outcome
			body, o, err = s.cache.Get(ctx, r.Path(params), r.Revalidate, renderPage)
			outcome = string(o)
			c.Response().Header().Set(HeaderCache, outcome)
		} else {
			body, err = renderPage(ctx)
		}
		if err != nil {
			s.metrics.ObservePage(r.Name, "error")
			logging.FromContext(ctx).ErrorContext(ctx, "error rendering page",
				"route", r.Name, "path", c.Request().URL.Path, "error", err)
			return s.serverError(c)
		}
		s.metrics.ObservePage(r.Name, outcome)
		return c.HTMLBlob(http.StatusOK, body)
	}
}

func (s *Server) serverError(c echo.Context) error {
	ctx := c.Request().Context()
	var buf bytes.Buffer
	if err := render.RenderServerError(ctx, &buf, s.site); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "error rendering server error page", "error", err)
	}
	c.Response().Header().Del(HeaderCache)
	return c.HTMLBlob(http.StatusInternalServerError, buf.Bytes())
}

// handleError renders the not found page for unknown paths and defers to
// echo for everything else.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusNotFound {
		ctx := c.Request().Context()
		body, renderErr := render.Bytes(ctx, s.site, pages.NotFoundPage{})
		if renderErr == nil {
			_ = c.HTMLBlob(http.StatusNotFound, body)
			return
		}
		logging.FromContext(ctx).ErrorContext(ctx, "error rendering not found page", "error", renderErr)
	}
	s.echo.DefaultHTTPErrorHandler(err, c)
}
