// Package search implements the blog's search widget: a pool of posts
// loaded once when the widget mounts, then filtered locally as the query
// changes.
//
// The widget is a three-state machine:
//
//	Loading   -> Ready      on Mount, success or failure
//	Ready     -> Filtering  on a non-blank query
//	Filtering -> Ready      on a blank query
//
// A failed pool load is logged and presented as an empty Ready pool, which a
// user can't tell apart from a source with no posts. State.LoadErr keeps the
// difference visible to code.
package search

import (
	"context"
	"strings"
	"sync"

	"impractical.co/blogster/internal/content"
	"impractical.co/blogster/internal/logging"
)

const (
	// PoolLimit caps how many posts the widget loads.
	PoolLimit = 20

	// MatchLimit caps how many matches the widget shows.
	MatchLimit = 5
)

// Kind tags which state a State is in.
type Kind int

const (
	Loading Kind = iota
	Ready
	Filtering
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Filtering:
		return "filtering"
	default:
		return "unknown"
	}
}

// State is a snapshot of the widget.
//
// Pool is empty while Loading. Matches is non-empty only while Filtering.
// Query is kept in every state, so typing during Loading is applied once
// the pool arrives.
type State struct {
	Kind    Kind
	Pool    []content.Post
	Query   string
	Matches []content.Post

	// LoadErr is the error that emptied the pool, if the load failed.
	LoadErr error
}

// PoolSource supplies the candidate pool. *content.Client implements it.
type PoolSource interface {
	Posts(ctx context.Context) ([]content.Post, error)
}

// Widget holds the search state. It is safe for concurrent use, so a mount
// running in the background can't race with keystrokes.
type Widget struct {
	source PoolSource

	mu    sync.Mutex
	state State
}

// NewWidget returns a widget in the Loading state.
func NewWidget(source PoolSource) *Widget {
	return &Widget{
		source: source,
		state:  State{Kind: Loading},
	}
}

// Mount loads the candidate pool with one fetch and moves the widget to
// Ready, or to Filtering if a query was typed while loading. It returns the
// resulting state. Load failures are logged and swallowed.
func (w *Widget) Mount(ctx context.Context) State {
	posts, err := w.source.Posts(ctx)
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "error fetching posts for search", "error", err)
		posts = nil
	}
	pool := make([]content.Post, 0, min(len(posts), PoolLimit))
	pool = append(pool, posts[:min(len(posts), PoolLimit)]...)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Pool = pool
	w.state.LoadErr = err
	w.apply()
	return w.snapshot()
}

// Type sets the query to the full current contents of the search box and
// recomputes matches against the already-loaded pool. It never fetches.
func (w *Widget) Type(query string) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Query = query
	if w.state.Kind != Loading {
		w.apply()
	}
	return w.snapshot()
}

// State returns a snapshot of the widget.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// apply derives Kind and Matches from Pool and Query. Callers hold mu.
func (w *Widget) apply() {
	if strings.TrimSpace(w.state.Query) == "" {
		w.state.Kind = Ready
		w.state.Matches = nil
		return
	}
	w.state.Kind = Filtering
	w.state.Matches = Filter(w.state.Pool, w.state.Query)
}

// snapshot copies the state so callers can't mutate the widget's slices.
// Callers hold mu.
func (w *Widget) snapshot() State {
	s := w.state
	s.Pool = append([]content.Post(nil), s.Pool...)
	s.Matches = append([]content.Post(nil), s.Matches...)
	return s
}

// Filter returns the first MatchLimit posts of pool whose title or body
// contains query, ignoring case, in pool order. A blank query matches
// nothing.
func Filter(pool []content.Post, query string) []content.Post {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	needle := strings.ToLower(query)
	var matches []content.Post
	for _, post := range pool {
		if len(matches) == MatchLimit {
			break
		}
		if strings.Contains(strings.ToLower(post.Title), needle) ||
			strings.Contains(strings.ToLower(post.Body), needle) {
			matches = append(matches, post)
		}
	}
	return matches
}
