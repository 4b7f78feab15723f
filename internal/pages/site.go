// Package pages defines Blogster's Site and every page and component it
// renders.
package pages

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"strings"

	"impractical.co/blogster/internal/pipeline"
	"impractical.co/blogster/internal/render"
)

//go:embed templates
var templateFS embed.FS

// Templates returns the embedded template directory, rooted so that paths
// look like "layout.html.tmpl".
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return sub
}

var _ render.Site = &Site{}
var _ render.ServerErrorPager = &Site{}
var _ render.FuncMapExtender = &Site{}

// Site holds what every page needs to know about Blogster.
type Site struct {
	*render.CachedSite

	// Name is the brand shown in the header, footer, and titles.
	Name string

	// Copyright is the footer's copyright line.
	Copyright string

	// APIBaseURL is where browser-side components fetch content from.
	APIBaseURL string
}

// NewSite returns a Site using the embedded templates.
func NewSite(apiBaseURL string) *Site {
	return NewSiteFromFS(Templates(), apiBaseURL)
}

// NewSiteFromFS returns a Site reading templates from fsys.
func NewSiteFromFS(fsys fs.FS, apiBaseURL string) *Site {
	return &Site{
		CachedSite: render.NewCachedSite(fsys),
		Name:       "Blogster",
		Copyright:  "© 2025 All rights reserved.",
		APIBaseURL: strings.TrimRight(apiBaseURL, "/"),
	}
}

// ServerErrorPage is rendered whenever a page can't be.
func (*Site) ServerErrorPage(_ context.Context) render.Page {
	return ErrorPage{}
}

// FuncMap makes helpers available to every template.
func (*Site) FuncMap(_ context.Context) template.FuncMap {
	return template.FuncMap{
		"postHref": pipeline.PostHref,
	}
}

// NavLink is an entry in the header or footer navigation.
type NavLink struct {
	Name string
	Href string
	Key  string
}

// HeaderNav is the header's navigation.
func (*Site) HeaderNav() []NavLink {
	return []NavLink{
		{Name: "Articles", Href: "/blog", Key: "blog"},
		{Name: "About", Href: "/about", Key: "about"},
	}
}

// FooterNav is the footer's navigation.
func (*Site) FooterNav() []NavLink {
	return []NavLink{
		{Name: "Articles", Href: "/blog", Key: "blog"},
		{Name: "About", Href: "/about", Key: "about"},
		{Name: "Contact", Href: "/contact", Key: "contact"},
	}
}
