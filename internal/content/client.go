package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"impractical.co/blogster/internal/logging"
)

const tracerName = "impractical.co/blogster/internal/content"

// Recorder observes every completed fetch. *metrics.Metrics implements it.
type Recorder interface {
	ObserveFetch(resource string, statusCode int, err error)
}

// Client fetches records from the content API. Its zero value is not usable;
// build one with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	recorder   Recorder
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter makes every call wait for a token before going out. A nil
// limiter means no limit.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithUserAgent sets the User-Agent header on outbound requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRecorder reports every fetch to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient returns a Client reading from baseURL, e.g. DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client reads from.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Posts returns the full post collection.
func (c *Client) Posts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.get(ctx, "/posts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Post returns the post with the given id. The id is textual, as it arrives
// from a URL; an id the API doesn't know yields a *FetchFailure carrying the
// API's 404.
func (c *Client) Post(ctx context.Context, id string) (Post, error) {
	var post Post
	if err := c.get(ctx, "/posts/"+url.PathEscape(id), &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// User returns the user with the given id.
func (c *Client) User(ctx context.Context, id int) (User, error) {
	var user User
	if err := c.get(ctx, "/users/"+strconv.Itoa(id), &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) get(ctx context.Context, resource string, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "content.get", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	target := c.baseURL + resource
	span.SetAttributes(
		semconv.HTTPRequestMethodGet,
		semconv.URLFull(target),
		attribute.String("content.resource", resource),
	)

	status := 0
	defer func() {
		if c.recorder != nil {
			c.recorder.ObserveFetch(resource, status, err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &FetchFailure{Resource: resource, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &FetchFailure{Resource: resource, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchFailure{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	logging.FromContext(ctx).DebugContext(ctx, "fetched content", "resource", resource, "status", status)

	if status < 200 || status > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &FetchFailure{Resource: resource, StatusCode: status}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchFailure{Resource: resource, StatusCode: status, Err: fmt.Errorf("decoding body: %w", err)}
	}
	return nil
}
