package routes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impractical.co/blogster/internal/content"
	"impractical.co/blogster/internal/isr"
	"impractical.co/blogster/internal/pages"
)

type fakeSource struct {
	posts   []content.Post
	users   map[int]content.User
	listErr error

	mu    sync.Mutex
	calls []string
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSource) Posts(_ context.Context) ([]content.Post, error) {
	f.record("/posts")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.posts, nil
}

func (f *fakeSource) Post(_ context.Context, id string) (content.Post, error) {
	f.record("/posts/" + id)
	for _, p := range f.posts {
		if strconv.Itoa(p.ID) == id {
			return p, nil
		}
	}
	return content.Post{}, &content.FetchFailure{Resource: "/posts/" + id, StatusCode: 404}
}

func (f *fakeSource) User(_ context.Context, id int) (content.User, error) {
	f.record(fmt.Sprintf("/users/%d", id))
	u, ok := f.users[id]
	if !ok {
		return content.User{}, &content.FetchFailure{Resource: fmt.Sprintf("/users/%d", id), StatusCode: 404}
	}
	return u, nil
}

func newFakeSource(n int) *fakeSource {
	src := &fakeSource{users: map[int]content.User{
		1: {ID: 1, Name: "Leanne Graham", Username: "Bret", Website: "hildegard.org"},
		2: {ID: 2, Name: "Ervin Howell", Username: "Antonette", Website: "anastasia.net"},
	}}
	for i := 1; i <= n; i++ {
		src.posts = append(src.posts, content.Post{ID: i, Title: fmt.Sprintf("post %d", i), Body: "body", UserID: i%2 + 1})
	}
	return src
}

func route(t *testing.T, table []Route, name string) Route {
	t.Helper()
	for _, r := range table {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no route named %q", name)
	return Route{}
}

func TestPath(t *testing.T) {
	t.Parallel()

	r := Route{Pattern: "/blog/:id"}
	assert.Equal(t, "/blog/42", r.Path(Params{"id": "42"}))
	assert.Equal(t, "/about", Route{Pattern: "/about"}.Path(nil))
}

func TestTableModes(t *testing.T) {
	t.Parallel()

	table := Table(pages.NewSite(content.DefaultBaseURL), newFakeSource(1), DefaultRevalidate)
	want := map[string]isr.Mode{
		"/":         isr.ModeClient,
		"/about":    isr.ModeServer,
		"/blog":     isr.ModeStatic,
		"/blog/:id": isr.ModeIncremental,
	}
	got := map[string]isr.Mode{}
	for _, r := range table {
		got[r.Pattern] = r.Mode
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 60*time.Second, route(t, table, "blog").Revalidate)
	assert.Equal(t, 60*time.Second, route(t, table, "post").Revalidate)
}

func paths(t *testing.T, r Route) []string {
	t.Helper()

	list, err := r.PrerenderParams(context.Background())
	require.NoError(t, err)
	var out []string
	for _, params := range list {
		out = append(out, r.Path(params))
	}
	return out
}

func TestPrerenderParams(t *testing.T) {
	t.Parallel()

	src := newFakeSource(12)
	table := Table(pages.NewSite(content.DefaultBaseURL), src, DefaultRevalidate)

	assert.Equal(t, []string{"/"}, paths(t, route(t, table, "home")))
	assert.Empty(t, paths(t, route(t, table, "about")))
	assert.Equal(t, []string{"/blog"}, paths(t, route(t, table, "blog")))
	assert.Equal(t, []string{
		"/blog/1", "/blog/2", "/blog/3", "/blog/4", "/blog/5",
		"/blog/6", "/blog/7", "/blog/8", "/blog/9", "/blog/10",
	}, paths(t, route(t, table, "post")))
}

func TestRenderPostFetchesPostThenAuthor(t *testing.T) {
	t.Parallel()

	src := newFakeSource(3)
	table := Table(pages.NewSite(content.DefaultBaseURL), src, DefaultRevalidate)

	body, err := Render(context.Background(), pages.NewSite(content.DefaultBaseURL), route(t, table, "post"), Params{"id": "2"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "<title>post 2 - Blogster</title>")
	assert.Contains(t, string(body), "By Leanne Graham (@Bret)")
	assert.Equal(t, []string{"/posts/2", "/users/1"}, src.calls)
}

func TestRenderUnknownPostFails(t *testing.T) {
	t.Parallel()

	src := newFakeSource(3)
	site := pages.NewSite(content.DefaultBaseURL)
	table := Table(site, src, DefaultRevalidate)

	body, err := Render(context.Background(), site, route(t, table, "post"), Params{"id": "9999"})
	assert.True(t, errors.Is(err, content.ErrFetchFailure))
	assert.Nil(t, body)
	assert.Equal(t, []string{"/posts/9999"}, src.calls, "no author fetch after a failed post fetch")
}

func TestRenderAboutUsesProfileAuthor(t *testing.T) {
	t.Parallel()

	site := pages.NewSite(content.DefaultBaseURL)
	src := newFakeSource(0)
	body, err := Render(context.Background(), site, route(t, Table(site, src, DefaultRevalidate), "about"), nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), `href="https://hildegard.org"`)
	assert.Equal(t, []string{"/users/1"}, src.calls)
}

func TestRenderShowsConfiguredRevalidate(t *testing.T) {
	t.Parallel()

	site := pages.NewSite(content.DefaultBaseURL)
	table := Table(site, newFakeSource(3), 2*time.Minute)

	body, err := Render(context.Background(), site, route(t, table, "blog"), nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), "revalidated every 120 seconds.")

	body, err = Render(context.Background(), site, route(t, table, "post"), Params{"id": "2"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "regenerated at most every 120 seconds.")
}
