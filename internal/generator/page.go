package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/buildr-dev/buildr/internal/types"
)

// rowTolerance is the Y-distance in pixels within which two components are
// treated as sitting on the same visual row and ordered left to right.
const rowTolerance = 20.0

// PageGenerator assembles one page's component list into a complete HTML
// document, stylesheet, and script. Given the same input it produces
// byte-identical output on every call.
type PageGenerator struct {
	registry *Registry
}

// NewPageGenerator creates a page generator over the given registry. A nil
// registry means the built-in default.
func NewPageGenerator(registry *Registry) *PageGenerator {
	if registry == nil {
		registry = Default()
	}
	return &PageGenerator{registry: registry}
}

// Registry exposes the underlying registry so callers can add types.
func (g *PageGenerator) Registry() *Registry { return g.registry }

// orderComponents returns the components in emission order without mutating
// the input. Explicit Order wins; components without one fall back to their
// canvas position, grouped into 20px rows top to bottom and sorted left to
// right within a row. The sort is stable, so equal keys keep input order.
func orderComponents(components []types.Component) []types.Component {
	ordered := make([]types.Component, len(components))
	copy(ordered, components)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case a.Order != nil && b.Order != nil:
			return *a.Order < *b.Order
		case a.Order != nil:
			return true
		case b.Order != nil:
			return false
		}
		dy := a.Position.Y - b.Position.Y
		if dy < -rowTolerance {
			return true
		}
		if dy > rowTolerance {
			return false
		}
		return a.Position.X < b.Position.X
	})
	return ordered
}

// GenerateHTML produces the page's full HTML document.
func (g *PageGenerator) GenerateHTML(page types.Page) string {
	title := page.Metadata.Title
	if title == "" {
		title = pageTitle(page.Name)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	if page.Metadata.Description != "" {
		fmt.Fprintf(&b, "<meta name=\"description\" content=\"%s\">\n", escape(page.Metadata.Description))
	}
	if page.Metadata.Keywords != "" {
		fmt.Fprintf(&b, "<meta name=\"keywords\" content=\"%s\">\n", escape(page.Metadata.Keywords))
	}
	fmt.Fprintf(&b, "<title>%s</title>\n", escape(title))
	fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"../css/%s.css\">\n", page.Name)
	b.WriteString("<style>\n" + basePageStyle + "</style>\n")
	b.WriteString("</head>\n<body>\n")

	for _, c := range orderComponents(page.Components) {
		b.WriteString(renderHTML(g.registry, &c))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "<script src=\"../js/%s.js\"></script>\n", page.Name)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// GenerateCSS produces the page's stylesheet: per-component rules followed
// by the responsive and utility tails shared by every page of a site.
func (g *PageGenerator) GenerateCSS(page types.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* Styles for %s */\n\n", page.Name)

	for _, c := range orderComponents(page.Components) {
		if css := renderCSS(g.registry, &c); css != "" {
			b.WriteString(css)
			b.WriteString("\n\n")
		}
	}

	b.WriteString(responsiveTail)
	b.WriteString("\n")
	b.WriteString(utilityTail)
	return b.String()
}

// GenerateJS produces the page's script: a DOMContentLoaded bootstrap
// wrapping the per-component behavior, plus the page-level resize and
// smooth-scroll handlers.
func (g *PageGenerator) GenerateJS(page types.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// Scripts for %s\n", page.Name)
	b.WriteString("document.addEventListener('DOMContentLoaded', function () {\n")
	fmt.Fprintf(&b, "  console.log('page ready:', %q);\n\n", page.Name)

	for _, c := range orderComponents(page.Components) {
		if js := renderJS(g.registry, &c); js != "" {
			b.WriteString(js)
			b.WriteString("\n")
		}
	}

	b.WriteString(pageBootstrapJS)
	b.WriteString("});\n")
	return b.String()
}

// basePageStyle is the inline reset and keyframe block every page carries
// regardless of which components are present.
const basePageStyle = `* { margin: 0; padding: 0; box-sizing: border-box; }
html { scroll-behavior: smooth; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #1f2937; background: #fff; }
img { max-width: 100%; }
@keyframes bldr-fade-in {
  from { opacity: 0; transform: translateY(12px); }
  to { opacity: 1; transform: translateY(0); }
}
`

// responsiveTail reduces the base font size at the standard breakpoints. It
// is identical on every page; the site generator also ships it in the shared
// global stylesheet.
const responsiveTail = `@media (max-width: 768px) {
  html { font-size: 15px; }
}
@media (max-width: 480px) {
  html { font-size: 14px; }
}
`

// utilityTail provides the spacing/flex/grid helper classes generated markup
// may reference.
const utilityTail = `.bldr-flex { display: flex; }
.bldr-flex-col { display: flex; flex-direction: column; }
.bldr-grid { display: grid; }
.bldr-gap-sm { gap: 8px; }
.bldr-gap-md { gap: 16px; }
.bldr-gap-lg { gap: 32px; }
.bldr-mt-sm { margin-top: 8px; }
.bldr-mt-md { margin-top: 16px; }
.bldr-mt-lg { margin-top: 32px; }
.bldr-p-sm { padding: 8px; }
.bldr-p-md { padding: 16px; }
.bldr-p-lg { padding: 32px; }
.bldr-text-center { text-align: center; }
`

// pageBootstrapJS carries the page-level handlers: a debounced window-resize
// log and delegated smooth scrolling for in-page anchors.
const pageBootstrapJS = `
  var resizeTimer = null;
  window.addEventListener('resize', function () {
    if (resizeTimer) { clearTimeout(resizeTimer); }
    resizeTimer = setTimeout(function () {
      console.log('viewport resized:', window.innerWidth, 'x', window.innerHeight);
    }, 250);
  });

  document.addEventListener('click', function (event) {
    var anchor = event.target.closest('a[href^="#"]');
    if (!anchor || anchor.getAttribute('href') === '#') { return; }
    var target = document.querySelector(anchor.getAttribute('href'));
    if (target) {
      event.preventDefault();
      target.scrollIntoView({ behavior: 'smooth' });
    }
  });
`
