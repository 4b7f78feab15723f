// Package render turns Pages into HTML using the html/template package.
//
// render is organized around Components and Pages. A Component is some piece
// of the HTML document that you want included in the page's output. A Page is
// a Component that gets rendered itself rather than being included in another
// Component. The blog listing is a Page; the navigation shell wrapping every
// page is a Component, as is the search widget in the blog sidebar.
//
// Each server has one Site, which provides the fs.FS containing the templates
// that Components use. The Site is available at render time as .Site, so it
// can hold configuration shared by every page. The Page being rendered is
// available as .Page.
//
// Components tend to be structs carrying whatever data their templates need.
// When a Component relies on another Component, it returns it from
// UseComponents so that the templates, CSS, and JavaScript the child declares
// are collected whenever the parent is rendered.
//
// CSS and JavaScript are collected from every Component reachable from the
// Page, deduplicated, and exposed to templates as .CSS, .HeaderJS, and
// .FooterJS. A Component's own resources come after the resources of the
// Components it uses, so a page's styles can override its layout's.
package render
