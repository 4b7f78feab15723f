package pages

import (
	"context"

	"impractical.co/blogster/internal/render"
	"impractical.co/blogster/internal/search"
)

// Layout is the chrome shared by every page: header navigation, footer, and
// the site stylesheet. Pages fill its "main" block.
type Layout struct{}

func (Layout) Templates(_ context.Context) []string {
	return []string{"layout.html.tmpl"}
}

func (Layout) EmbedCSS(_ context.Context) []render.CSSInline {
	return []render.CSSInline{{TemplatePath: "site.css.tmpl", Static: true}}
}

// Category is a sidebar link.
type Category struct {
	Name string
	Href string
}

// BlogLayout fills Layout's "main" block with a sidebar holding the search
// widget and the category list. Pages using it fill its "content" block.
type BlogLayout struct {
	Search     SearchWidget
	Categories []Category
}

// NewBlogLayout returns the blog layout with a search widget reading from
// apiBaseURL.
func NewBlogLayout(apiBaseURL string) BlogLayout {
	return BlogLayout{
		Search: NewSearchWidget(apiBaseURL),
		Categories: []Category{
			{Name: "Tech", Href: "/blog?category=tech"},
			{Name: "Lifestyle", Href: "/blog?category=lifestyle"},
			{Name: "Education", Href: "/blog?category=education"},
		},
	}
}

func (BlogLayout) Templates(_ context.Context) []string {
	return []string{"blog_layout.html.tmpl"}
}

func (b BlogLayout) UseComponents(_ context.Context) []render.Component {
	return []render.Component{Layout{}, b.Search}
}

// SearchWidget is the sidebar's search box. It loads its pool in the
// browser, from Source, and filters it as the visitor types.
type SearchWidget struct {
	Source     string
	PoolLimit  int
	MatchLimit int
}

// NewSearchWidget returns a widget loading posts from apiBaseURL with the
// same limits as search.Widget.
func NewSearchWidget(apiBaseURL string) SearchWidget {
	return SearchWidget{
		Source:     apiBaseURL + "/posts",
		PoolLimit:  search.PoolLimit,
		MatchLimit: search.MatchLimit,
	}
}

func (SearchWidget) Templates(_ context.Context) []string {
	return []string{"search.html.tmpl"}
}

func (SearchWidget) EmbedJS(_ context.Context) []render.JSInline {
	return []render.JSInline{{TemplatePath: "search.js.tmpl", Static: true, PlaceInFooter: true}}
}

// Clock shows the visitor's local date and time, updated every second.
type Clock struct{}

func (Clock) Templates(_ context.Context) []string {
	return []string{"clock.html.tmpl"}
}

func (Clock) EmbedJS(_ context.Context) []render.JSInline {
	return []render.JSInline{{TemplatePath: "clock.js.tmpl", Static: true, PlaceInFooter: true}}
}
