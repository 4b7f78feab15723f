package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"impractical.co/blogster/internal/logging"
)

const tracerName = "impractical.co/blogster/internal/render"

var (
	// ErrNoTemplatePath is returned when a template path is needed, but
	// none are supplied.
	ErrNoTemplatePath = errors.New("need at least one template path")

	// ErrTemplatePatternMatchesNoFiles is returned when a template path is
	// a pattern, but that pattern doesn't match any files.
	ErrTemplatePatternMatchesNoFiles = errors.New("pattern matches no files")
)

// Component is an interface for a UI component that can be rendered to HTML.
type Component interface {
	// Templates returns a list of filepaths to html/template contents
	// that need to be parsed before the component can be rendered.
	Templates(context.Context) []string
}

// ComponentUser is an interface that a Component can optionally implement to
// list the Components that it relies upon. These Components will automatically
// have the appropriate methods called if they implement any of the optional
// interfaces.
type ComponentUser interface {
	// UseComponents returns the Components that this Component relies on.
	UseComponents(context.Context) []Component
}

// FuncMapExtender is an interface that Components and Sites can fulfill to
// add to the map of functions available to them when rendering.
type FuncMapExtender interface {
	// FuncMap returns an html/template.FuncMap containing all the
	// functions that the Component is adding to the FuncMap.
	FuncMap(context.Context) template.FuncMap
}

// Page is an interface for a Component that can be passed to Render. It
// defines a single logical page of the application, composed of one or more
// Components. It should contain all the information needed to render the
// Components to HTML.
type Page interface {
	Component

	// Key is a unique key to use when caching this page's parsed templates
	// so they don't need to be re-parsed. A good key is consistent, but
	// unique per Page type.
	Key(context.Context) string

	// ExecutedTemplate is the template that needs to actually be executed
	// when rendering the page.
	//
	// This is usually not the template for the Component defining the
	// page; it's usually the "base" template that Component defining the
	// page fills blocks in.
	ExecutedTemplate(context.Context) string
}

// RenderData is the data that is passed to a page when rendering it.
type RenderData[SiteType Site, PageType Page] struct {
	// Site is the Site the page is rendered for, holding configuration
	// shared by every page.
	Site SiteType

	// Page is the information for a specific page.
	Page PageType

	// CSS holds the <link> and <style> elements for every CSS resource
	// the page's Components declared.
	CSS template.HTML

	// HeaderJS holds the <script> elements that belong in the document
	// head.
	HeaderJS template.HTML

	// FooterJS holds the <script> elements that belong at the end of the
	// document body.
	FooterJS template.HTML
}

// Render renders the passed Page to out. If it can't, a server error page is
// written instead and the error that prevented rendering the Page is
// returned. If the Site implements ServerErrorPager, that page will be
// rendered; if not, a simple text body indicating a server error will be
// written.
//
// Output is buffered, so out never receives a partially rendered page.
func Render[SiteType Site, PageType Page](ctx context.Context, out io.Writer, site SiteType, page PageType) error {
	body, err := Bytes(ctx, site, page)
	if err == nil {
		if _, err := out.Write(body); err != nil {
			return fmt.Errorf("error writing %T: %w", page, err)
		}
		return nil
	}

	logging.FromContext(ctx).
		ErrorContext(ctx, "error rendering page", "page", fmt.Sprintf("%T", page), "error", err)

	if renderErr := RenderServerError(ctx, out, site); renderErr != nil {
		logging.FromContext(ctx).
			ErrorContext(ctx, "error rendering server error page", "error", renderErr)
	}
	return err
}

// RenderServerError writes the Site's server error page to out, or a plain
// "Server error." body when the Site doesn't implement ServerErrorPager or
// its error page can't be rendered.
func RenderServerError[SiteType Site](ctx context.Context, out io.Writer, site SiteType) error {
	var renderErr error
	if pager, ok := Site(site).(ServerErrorPager); ok {
		body, err := Bytes(ctx, site, pager.ServerErrorPage(ctx))
		if err == nil {
			_, err = out.Write(body)
			return err
		}
		// everything's doomed, fall through to the plain message
		renderErr = err
	}
	if _, err := out.Write([]byte("Server error.")); err != nil {
		return errors.Join(renderErr, err)
	}
	return renderErr
}

// Bytes renders the passed Page and returns the resulting HTML. Unlike
// Render, it never falls back to an error page.
func Bytes[SiteType Site, PageType Page](ctx context.Context, site SiteType, page PageType) ([]byte, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "render.page")
	defer span.End()

	key := page.Key(ctx)
	span.SetAttributes(
		attribute.String("render.page.key", key),
		attribute.String("render.page.type", fmt.Sprintf("%T", page)),
	)

	body, err := basicRender(ctx, site, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return nil, err
	}
	return body, nil
}

func basicRender[SiteType Site, PageType Page](ctx context.Context, site SiteType, page PageType) ([]byte, error) {
	tmpl, err := getTemplate(ctx, site, page)
	if err != nil {
		return nil, err
	}

	data := RenderData[SiteType, PageType]{
		Site: site,
		Page: page,
	}
	resources := collectResources(ctx, page)
	exec := inliner(ctx, site, page.Key(ctx), tmpl, data)
	data.CSS, err = resources.css(exec)
	if err != nil {
		return nil, err
	}
	data.HeaderJS, err = resources.headerJS(exec)
	if err != nil {
		return nil, err
	}
	data.FooterJS, err = resources.footerJS(exec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	executed := page.ExecutedTemplate(ctx)
	err = tmpl.ExecuteTemplate(&buf, executed, data)
	if err != nil {
		return nil, fmt.Errorf("error executing template %q for %T: %w", executed, page, err)
	}
	return buf.Bytes(), nil
}

func getTemplate(ctx context.Context, site Site, page Page) (*template.Template, error) {
	key := page.Key(ctx)
	if cache, ok := site.(TemplateCacher); ok {
		cached := cache.GetCachedTemplate(ctx, key)
		if cached != nil {
			return cached, nil
		}
	}
	tmplPaths := getComponentTemplatePaths(ctx, page)
	if len(tmplPaths) < 1 {
		return nil, fmt.Errorf("error rendering %T: %w", page, ErrNoTemplatePath)
	}
	funcMap := getComponentFuncMap(ctx, site, page)
	parsed, err := parseTemplates(site.TemplateDir(ctx), funcMap, tmplPaths...)
	if err != nil {
		return nil, fmt.Errorf("error parsing templates %v for page %T: %w", tmplPaths, page, err)
	}
	if cache, ok := site.(TemplateCacher); ok {
		cache.SetCachedTemplate(ctx, key, parsed)
	}
	return parsed, nil
}

// getRecursiveComponents lists component and everything it uses, with every
// Component appearing after the Components it uses.
func getRecursiveComponents(ctx context.Context, component Component) []Component {
	var results []Component
	if uses, ok := component.(ComponentUser); ok {
		for _, child := range uses.UseComponents(ctx) {
			results = append(results, getRecursiveComponents(ctx, child)...)
		}
	}
	return append(results, component)
}

func getComponentTemplatePaths(ctx context.Context, component Component) []string {
	var results []string
	seen := map[string]struct{}{}
	for _, comp := range getRecursiveComponents(ctx, component) {
		for _, path := range comp.Templates(ctx) {
			if _, ok := seen[path]; ok {
				continue
			}
			results = append(results, path)
			seen[path] = struct{}{}
		}
	}
	// inline resources are executed out of the same template set
	for _, path := range collectResources(ctx, component).templatePaths() {
		if _, ok := seen[path]; ok {
			continue
		}
		results = append(results, path)
		seen[path] = struct{}{}
	}
	return results
}

func getComponentFuncMap(ctx context.Context, site Site, component Component) template.FuncMap {
	results := template.FuncMap{}
	if fm, ok := site.(FuncMapExtender); ok {
		maps.Copy(results, fm.FuncMap(ctx))
	}
	for _, comp := range getRecursiveComponents(ctx, component) {
		fm, ok := comp.(FuncMapExtender)
		if !ok {
			continue
		}
		maps.Copy(results, fm.FuncMap(ctx))
	}
	return results
}

func parseTemplates(fsys fs.FS, funcs template.FuncMap, patterns ...string) (*template.Template, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, pattern := range patterns {
		list, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error listing files for %q: %w", pattern, err)
		}
		if len(list) < 1 {
			return nil, fmt.Errorf("error parsing %q: %w", pattern, ErrTemplatePatternMatchesNoFiles)
		}
		for _, file := range list {
			if _, ok := seen[file]; ok {
				continue
			}
			seen[file] = struct{}{}
			files = append(files, file)
		}
	}
	if len(files) < 1 {
		return nil, ErrNoTemplatePath
	}
	tmpl := template.New("").Funcs(funcs)
	for _, file := range files {
		contents, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("error reading %q: %w", file, err)
		}
		_, err = tmpl.New(file).Parse(string(contents))
		if err != nil {
			return nil, fmt.Errorf("error parsing %q: %w", file, err)
		}
	}
	return tmpl, nil
}
