package pages

import (
	"context"
	"html/template"
	"strconv"
	"strings"
	"time"

	"impractical.co/blogster/internal/pipeline"
	"impractical.co/blogster/internal/render"
)

var (
	_ render.Page = HomePage{}
	_ render.Page = AboutPage{}
	_ render.Page = BlogListPage{}
	_ render.Page = PostPage{}
	_ render.Page = NotFoundPage{}
	_ render.Page = ErrorPage{}
)

// HomePage is the landing page. Everything dynamic on it runs in the
// browser.
type HomePage struct{}

func (HomePage) Title() string { return "Blogster" }

func (HomePage) Description() string {
	return "A blog built to show server rendering, static generation, incremental regeneration, and client rendering side by side."
}

func (HomePage) ActiveNav() string { return "" }

func (HomePage) Templates(_ context.Context) []string {
	return []string{"home.html.tmpl"}
}

func (HomePage) UseComponents(_ context.Context) []render.Component {
	return []render.Component{Layout{}, Clock{}}
}

func (HomePage) Key(_ context.Context) string { return "home" }

func (HomePage) ExecutedTemplate(_ context.Context) string { return "layout.html.tmpl" }

// AboutPage shows the profile author. It's rendered on every request.
type AboutPage struct {
	View pipeline.ProfileView
}

func (AboutPage) Title() string { return "About - Blogster" }

func (AboutPage) Description() string { return "About page with author information" }

func (AboutPage) ActiveNav() string { return "about" }

func (AboutPage) Templates(_ context.Context) []string {
	return []string{"about.html.tmpl"}
}

func (AboutPage) UseComponents(_ context.Context) []render.Component {
	return []render.Component{Layout{}}
}

func (AboutPage) Key(_ context.Context) string { return "about" }

func (AboutPage) ExecutedTemplate(_ context.Context) string { return "layout.html.tmpl" }

// BlogListPage lists the first posts of the collection.
type BlogListPage struct {
	Blog BlogLayout
	View pipeline.ListView

	// Revalidate is how long a render of the page stays fresh.
	Revalidate time.Duration
}

func (BlogListPage) Title() string { return "Blog Posts - Blogster" }

func (BlogListPage) Description() string { return "Blog posts page with list of all posts" }

func (BlogListPage) ActiveNav() string { return "blog" }

func (BlogListPage) Templates(_ context.Context) []string {
	return []string{"blog_list.html.tmpl"}
}

func (p BlogListPage) UseComponents(_ context.Context) []render.Component {
	return []render.Component{p.Blog}
}

// FuncMap adds "revalidated", which describes the revalidation window.
func (BlogListPage) FuncMap(_ context.Context) template.FuncMap {
	return template.FuncMap{
		"revalidated": func(d time.Duration) string {
			if d <= 0 {
				return "never revalidated"
			}
			return "revalidated every " + seconds(d)
		},
	}
}

func (BlogListPage) Key(_ context.Context) string { return "blog_list" }

func (BlogListPage) ExecutedTemplate(_ context.Context) string { return "layout.html.tmpl" }

// PostPage shows one post and its author.
type PostPage struct {
	Blog BlogLayout
	View pipeline.DetailView

	// Revalidate is how long a render of the page stays fresh.
	Revalidate time.Duration
}

func (p PostPage) Title() string { return p.View.Post.Title + " - Blogster" }

func (p PostPage) Description() string { return p.View.Description }

func (PostPage) ActiveNav() string { return "blog" }

func (PostPage) Templates(_ context.Context) []string {
	return []string{"post.html.tmpl"}
}

func (p PostPage) UseComponents(_ context.Context) []render.Component {
	return []render.Component{p.Blog}
}

// FuncMap adds "lines", which splits a post body on its newlines so the
// template can break them, and "regenerated", which describes the
// regeneration window.
func (PostPage) FuncMap(_ context.Context) template.FuncMap {
	return template.FuncMap{
		"lines": func(s string) []string {
			return strings.Split(s, "\n")
		},
		"regenerated": func(d time.Duration) string {
			if d <= 0 {
				return "never regenerated"
			}
			return "regenerated at most every " + seconds(d)
		},
	}
}

func (PostPage) Key(_ context.Context) string { return "post" }

func (PostPage) ExecutedTemplate(_ context.Context) string { return "layout.html.tmpl" }

func seconds(d time.Duration) string {
	n := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if n == "1" {
		return "second"
	}
	return n + " seconds"
}

// NotFoundPage is rendered for paths no route matches.
type NotFoundPage struct{}

func (NotFoundPage) Title() string { return "Not Found - Blogster" }

func (NotFoundPage) Description() string { return "This page could not be found." }

func (NotFoundPage) ActiveNav() string { return "" }

func (NotFoundPage) Templates(_ context.Context) []string {
	return []string{"not_found.html.tmpl"}
}

func (NotFoundPage) UseComponents(_ context.Context) []render.Component {
	return []render.Component{Layout{}}
}

func (NotFoundPage) Key(_ context.Context) string { return "not_found" }

func (NotFoundPage) ExecutedTemplate(_ context.Context) string { return "layout.html.tmpl" }

// ErrorPage is the generic error page. It stands alone so it still renders
// when something in the shared layout is what broke.
type ErrorPage struct{}

func (ErrorPage) Templates(_ context.Context) []string {
	return []string{"error.html.tmpl"}
}

func (ErrorPage) Key(_ context.Context) string { return "error" }

func (ErrorPage) ExecutedTemplate(_ context.Context) string { return "error.html.tmpl" }
