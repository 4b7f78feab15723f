package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"slices"
	"strings"
)

// CSSInline is a CSS resource whose contents come from executing a template
// in the Site's template directory. The template is executed with the same
// RenderData as the page, and the result is wrapped in a <style> element.
type CSSInline struct {
	TemplatePath string

	// Static marks contents that don't use the RenderData, so a Site
	// implementing ResourceCacher only executes the template once.
	Static bool
}

// CSSLink is a CSS resource loaded through a <link> element.
type CSSLink struct {
	Href string
}

// JSInline is a JavaScript resource whose contents come from executing a
// template in the Site's template directory. The result is wrapped in a
// <script> element.
type JSInline struct {
	TemplatePath string

	// Static marks contents that don't use the RenderData, so a Site
	// implementing ResourceCacher only executes the template once.
	Static bool

	// PlaceInFooter puts the script at the end of the body instead of in
	// the document head.
	PlaceInFooter bool
}

// JSLink is a JavaScript resource loaded through a <script> element with a
// src attribute.
type JSLink struct {
	Src string

	// PlaceInFooter puts the script at the end of the body instead of in
	// the document head.
	PlaceInFooter bool

	// Defer sets the defer attribute on the script element.
	Defer bool
}

// CSSEmbedder is an interface that Components can fulfill to include CSS
// that should be embedded directly into the rendered HTML.
type CSSEmbedder interface {
	EmbedCSS(context.Context) []CSSInline
}

// CSSLinker is an interface that Components can fulfill to include CSS that
// should be loaded through a <link> element.
type CSSLinker interface {
	LinkCSS(context.Context) []CSSLink
}

// JSEmbedder is an interface that Components can fulfill to include
// JavaScript that should be embedded directly into the rendered HTML.
type JSEmbedder interface {
	EmbedJS(context.Context) []JSInline
}

// JSLinker is an interface that Components can fulfill to include JavaScript
// that should be loaded separately from the HTML document.
type JSLinker interface {
	LinkJS(context.Context) []JSLink
}

// resources holds every resource a page declares, deduplicated, in the order
// the page's Components were walked.
type resources struct {
	cssLinks    []CSSLink
	cssInlines  []CSSInline
	headLinks   []JSLink
	headInlines []JSInline
	footLinks   []JSLink
	footInlines []JSInline
}

func collectResources(ctx context.Context, page Component) resources {
	var res resources
	for _, comp := range getRecursiveComponents(ctx, page) {
		if linker, ok := comp.(CSSLinker); ok {
			res.cssLinks = appendUnique(res.cssLinks, linker.LinkCSS(ctx)...)
		}
		if embedder, ok := comp.(CSSEmbedder); ok {
			res.cssInlines = appendUnique(res.cssInlines, embedder.EmbedCSS(ctx)...)
		}
		if linker, ok := comp.(JSLinker); ok {
			for _, link := range linker.LinkJS(ctx) {
				if link.PlaceInFooter {
					res.footLinks = appendUnique(res.footLinks, link)
				} else {
					res.headLinks = appendUnique(res.headLinks, link)
				}
			}
		}
		if embedder, ok := comp.(JSEmbedder); ok {
			for _, block := range embedder.EmbedJS(ctx) {
				if block.PlaceInFooter {
					res.footInlines = appendUnique(res.footInlines, block)
				} else {
					res.headInlines = appendUnique(res.headInlines, block)
				}
			}
		}
	}
	return res
}

func appendUnique[T comparable](list []T, items ...T) []T {
	for _, item := range items {
		if slices.Contains(list, item) {
			continue
		}
		list = append(list, item)
	}
	return list
}

func (r resources) templatePaths() []string {
	var paths []string
	for _, inline := range r.cssInlines {
		paths = append(paths, inline.TemplatePath)
	}
	for _, inline := range r.headInlines {
		paths = append(paths, inline.TemplatePath)
	}
	for _, inline := range r.footInlines {
		paths = append(paths, inline.TemplatePath)
	}
	return paths
}

// css renders links first, then inline blocks, so inline rules win ties
// against linked stylesheets.
func (r resources) css(exec inlineFunc) (template.HTML, error) {
	var out strings.Builder
	for _, link := range r.cssLinks {
		fmt.Fprintf(&out, "<link rel=\"stylesheet\" href=\"%s\">\n", template.HTMLEscapeString(link.Href))
	}
	for _, inline := range r.cssInlines {
		body, err := exec(inline.TemplatePath, inline.Static)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&out, "<style>\n%s\n</style>\n", body)
	}
	return template.HTML(out.String()), nil // #nosec G203
}

func (r resources) headerJS(exec inlineFunc) (template.HTML, error) {
	return scripts(exec, r.headLinks, r.headInlines)
}

func (r resources) footerJS(exec inlineFunc) (template.HTML, error) {
	return scripts(exec, r.footLinks, r.footInlines)
}

func scripts(exec inlineFunc, links []JSLink, inlines []JSInline) (template.HTML, error) {
	var out strings.Builder
	for _, link := range links {
		deferAttr := ""
		if link.Defer {
			deferAttr = " defer"
		}
		fmt.Fprintf(&out, "<script src=\"%s\"%s></script>\n", template.HTMLEscapeString(link.Src), deferAttr)
	}
	for _, inline := range inlines {
		body, err := exec(inline.TemplatePath, inline.Static)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&out, "<script>\n%s\n</script>\n", body)
	}
	return template.HTML(out.String()), nil // #nosec G203
}

// inlineFunc returns the contents of an inline resource template.
type inlineFunc func(path string, static bool) (string, error)

// inliner executes inline resource templates with data. Static ones are
// looked up in and stored to the Site's resource cache, if it has one.
func inliner(ctx context.Context, site Site, key string, tmpl *template.Template, data any) inlineFunc {
	cache, canCache := site.(ResourceCacher)
	return func(path string, static bool) (string, error) {
		if !static || !canCache {
			return executeInline(tmpl, path, data)
		}
		cacheKey := key + "/" + path
		if cached := cache.GetCachedResource(ctx, cacheKey); cached != nil {
			return *cached, nil
		}
		body, err := executeInline(tmpl, path, data)
		if err != nil {
			return "", err
		}
		cache.SetCachedResource(ctx, cacheKey, body)
		return body, nil
	}
}

func executeInline(tmpl *template.Template, path string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, path, data); err != nil {
		return "", fmt.Errorf("error executing resource template %q: %w", path, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
