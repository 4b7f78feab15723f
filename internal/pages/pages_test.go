package pages

import (
	"bytes"
	"context"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impractical.co/blogster/internal/content"
	"impractical.co/blogster/internal/pipeline"
	"impractical.co/blogster/internal/render"
)

const apiBase = "https://api.example.test"

func renderPage[P render.Page](t *testing.T, page P) string {
	t.Helper()

	body, err := render.Bytes(context.Background(), NewSite(apiBase+"/"), page)
	require.NoError(t, err)
	return string(body)
}

func leanne() content.Author {
	return content.Author{
		ID:       1,
		Name:     "Leanne Graham",
		Username: "Bret",
		Email:    "Sincere@april.biz",
		Phone:    "1-770-736-8031 x56442",
		Website:  "hildegard.org",
		Address:  content.Address{Street: "Kulas Light", City: "Gwenborough"},
		Company:  content.Company{Name: "Romaguera-Crona", CatchPhrase: "Multi-layered client-server neural-net"},
	}
}

func TestHomePage(t *testing.T) {
	t.Parallel()

	out := renderPage(t, HomePage{})
	assert.Contains(t, out, "<title>Blogster</title>")
	assert.Contains(t, out, "Welcome to Blogster")
	assert.Contains(t, out, "data-clock")
	assert.Contains(t, out, "setInterval(tick, 1000)")
	assert.Contains(t, out, "<style>\n")
	assert.NotContains(t, out, "data-search")
}

func TestAboutPage(t *testing.T) {
	t.Parallel()

	out := renderPage(t, AboutPage{View: pipeline.ProfileView{Author: leanne()}})
	assert.Contains(t, out, "<title>About - Blogster</title>")
	assert.Contains(t, out, `<a href="https://hildegard.org" target="_blank" rel="noopener noreferrer">hildegard.org</a>`)
	assert.Contains(t, out, "Kulas Light, Gwenborough")
	assert.Contains(t, out, `<a href="/about" class="active" aria-current="page">About</a>`)
}

func TestBlogListPage(t *testing.T) {
	t.Parallel()

	view := pipeline.ShapeList([]content.Post{
		{ID: 1, Title: "first", Body: "one", UserID: 1},
		{ID: 2, Title: "second", Body: "two", UserID: 2},
	})
	out := renderPage(t, BlogListPage{Blog: NewBlogLayout(apiBase), View: view, Revalidate: 60 * time.Second})

	assert.Contains(t, out, `<h2><a href="/blog/1">first</a></h2>`)
	assert.Contains(t, out, `<h2><a href="/blog/2">second</a></h2>`)
	assert.Contains(t, out, "Author ID: 2")
	assert.Contains(t, out, `data-source="https://api.example.test/posts"`)
	assert.Contains(t, out, `data-pool-limit="20"`)
	assert.Contains(t, out, `data-match-limit="5"`)
	assert.Contains(t, out, `<a href="/blog?category=lifestyle">Lifestyle</a>`)
	assert.Contains(t, out, `<a href="/blog" class="active" aria-current="page">Articles</a>`)
	assert.Contains(t, out, "statically generated and revalidated every 60 seconds.")

	// the search script runs after the widget's markup
	widget := bytes.Index([]byte(out), []byte("data-search-input"))
	script := bytes.Index([]byte(out), []byte(`document.querySelector("[data-search]")`))
	assert.Greater(t, script, widget)
}

func TestPostPage(t *testing.T) {
	t.Parallel()

	post := content.Post{ID: 3, Title: "ea molestias", Body: "line one\nline two", UserID: 1}
	out := renderPage(t, PostPage{Blog: NewBlogLayout(apiBase), View: pipeline.ShapeDetail(post, leanne())})

	assert.Contains(t, out, "<title>ea molestias - Blogster</title>")
	assert.Contains(t, out, `<meta name="description" content="line one`)
	assert.Contains(t, out, "line one<br>\nline two")
	assert.Contains(t, out, "By Leanne Graham (@Bret)")
	assert.Contains(t, out, `<a class="back" href="/blog">`)
}

func TestRevalidateWindowNotes(t *testing.T) {
	t.Parallel()

	post := content.Post{ID: 3, Title: "ea molestias", Body: "x", UserID: 1}
	out := renderPage(t, PostPage{Blog: NewBlogLayout(apiBase), View: pipeline.ShapeDetail(post, leanne()), Revalidate: 90 * time.Second})
	assert.Contains(t, out, "pre-rendered for the first ten posts and regenerated at most every 90 seconds.")

	out = renderPage(t, PostPage{Blog: NewBlogLayout(apiBase), View: pipeline.ShapeDetail(post, leanne())})
	assert.Contains(t, out, "pre-rendered for the first ten posts and never regenerated.")

	out = renderPage(t, BlogListPage{Blog: NewBlogLayout(apiBase), Revalidate: 1500 * time.Millisecond})
	assert.Contains(t, out, "statically generated and revalidated every 1.5 seconds.")
}

func TestPostPageEscapesContent(t *testing.T) {
	t.Parallel()

	post := content.Post{ID: 4, Title: "<script>alert(1)</script>", Body: "x", UserID: 1}
	out := renderPage(t, PostPage{Blog: NewBlogLayout(apiBase), View: pipeline.ShapeDetail(post, leanne())})

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestNotFoundPage(t *testing.T) {
	t.Parallel()

	out := renderPage(t, NotFoundPage{})
	assert.Contains(t, out, "<h1>Page Not Found</h1>")
}

func TestBrokenPageRendersErrorPage(t *testing.T) {
	t.Parallel()

	contents, err := fs.ReadFile(Templates(), "error.html.tmpl")
	require.NoError(t, err)

	// a site that only knows the error page can't render anything else
	site := NewSiteFromFS(fstest.MapFS{
		"error.html.tmpl": {Data: contents},
	}, apiBase)

	var buf bytes.Buffer
	err = render.Render(context.Background(), &buf, site, HomePage{})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "<h1>Something went wrong</h1>")
	assert.Contains(t, buf.String(), "<title>Something went wrong - Blogster</title>")
}
