package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/buildr-dev/buildr/internal/types"
)

var titleCaser = cases.Title(language.English)

// pageTitle derives a display title from a page's base filename.
func pageTitle(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(cleaned)
}

// SiteOptions configures site generation. Nil pointer fields mean "use the
// default"; unrecognized or absent options never change behavior from the
// documented defaults.
type SiteOptions struct {
	// ProjectName names the site in package.json and the README
	ProjectName string
	// IncludeReadme controls README.md emission (default true)
	IncludeReadme *bool
	// IncludePackageJSON controls package.json emission (default true)
	IncludePackageJSON *bool
	// MinifyCSS and MinifyJS are advisory and currently no-ops
	MinifyCSS bool
	MinifyJS  bool
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// SiteGenerator turns a list of pages into the complete static-site file
// map. It performs no network or filesystem access; all I/O belongs to the
// exporter.
type SiteGenerator struct {
	pages *PageGenerator
}

// NewSiteGenerator creates a site generator. A nil registry means the
// built-in default.
func NewSiteGenerator(registry *Registry) *SiteGenerator {
	return &SiteGenerator{pages: NewPageGenerator(registry)}
}

// PageGenerator exposes the underlying page generator.
func (g *SiteGenerator) PageGenerator() *PageGenerator { return g.pages }

// GenerateSiteFiles produces the full {relativePath: content} file map for a
// site. Keys use forward-slash segments. Page names are reduced to
// filesystem-safe tokens before they become path segments; a page whose name
// is empty or sanitizes away is emitted as "page-N" by input position so
// nothing is silently dropped.
func (g *SiteGenerator) GenerateSiteFiles(pages []types.Page, opts *SiteOptions) map[string]string {
	if opts == nil {
		opts = &SiteOptions{}
	}
	projectName := opts.ProjectName
	if projectName == "" {
		projectName = "buildr-site"
	}

	files := make(map[string]string)

	named := make([]types.Page, len(pages))
	copy(named, pages)
	for i := range named {
		named[i].Name = pageFileName(named[i].Name, i)
	}

	for _, page := range named {
		files["html/"+page.Name+".html"] = g.pages.GenerateHTML(page)
		files["css/"+page.Name+".css"] = g.pages.GenerateCSS(page)
		files["js/"+page.Name+".js"] = g.pages.GenerateJS(page)
	}

	files["shared/global.css"] = globalCSS
	files["shared/utilities.js"] = utilitiesJS
	files["shared/components.json"] = componentSnapshot(named)
	files["index.html"] = siteIndex(projectName, named)

	if boolOr(opts.IncludePackageJSON, true) {
		files["package.json"] = packageJSON(projectName)
	}
	if boolOr(opts.IncludeReadme, true) {
		files["README.md"] = readme(projectName, named)
	}

	return files
}

// componentSnapshot serializes the first page's component list for
// round-trip and debugging purposes.
func componentSnapshot(pages []types.Page) string {
	components := []types.Component{}
	if len(pages) > 0 && pages[0].Components != nil {
		components = pages[0].Components
	}
	data, err := json.MarshalIndent(components, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data) + "\n"
}

func siteIndex(projectName string, pages []types.Page) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", escape(pageTitle(projectName)))
	b.WriteString("<link rel=\"stylesheet\" href=\"shared/global.css\">\n")
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n<ul>\n", escape(pageTitle(projectName)))
	for _, page := range pages {
		fmt.Fprintf(&b, "<li><a href=\"html/%s.html\">%s</a></li>\n", page.Name, escape(pageTitle(page.Name)))
	}
	b.WriteString("</ul>\n</body>\n</html>\n")
	return b.String()
}

func packageJSON(projectName string) string {
	manifest := map[string]any{
		"name":        SanitizeName(projectName),
		"version":     "1.0.0",
		"description": "Static site generated with buildr",
		"scripts": map[string]string{
			"dev": "npx serve .",
		},
		"private": true,
	}
	data, _ := json.MarshalIndent(manifest, "", "  ")
	return string(data) + "\n"
}

func readme(projectName string, pages []types.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", pageTitle(projectName))
	b.WriteString("Static site generated with buildr.\n\n## Pages\n\n")
	for _, page := range pages {
		fmt.Fprintf(&b, "- [%s](html/%s.html)\n", pageTitle(page.Name), page.Name)
	}
	b.WriteString(`
## Layout

` + "```" + `
index.html        site map linking every page
html/             one HTML document per page
css/              one stylesheet per page
js/               one script per page
shared/           global stylesheet, utility script, component snapshot
` + "```" + `

## Serving

The site is fully static. Any file server works:

` + "```" + `
npx serve .
` + "```" + `

Or deploy the directory as-is to Netlify, Vercel, GitHub Pages, or an
S3 bucket behind a CDN.
`)
	return b.String()
}

// sanitizeToken reduces a name to lowercase alphanumerics and hyphens.
// Dots and path separators fall away entirely, so the result can never
// escape the directory it is joined under.
func sanitizeToken(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// SanitizeName reduces a project name to a filesystem-safe token: lowercase
// alphanumerics and hyphens.
func SanitizeName(name string) string {
	if out := sanitizeToken(name); out != "" {
		return out
	}
	return "site"
}

// pageFileName derives the path-safe base filename for a page.
func pageFileName(name string, index int) string {
	if out := sanitizeToken(name); out != "" {
		return out
	}
	return fmt.Sprintf("page-%d", index+1)
}

// SortedPaths returns a file map's keys in sorted order, for deterministic
// iteration when writing archives or directories.
func SortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// globalCSS is the shared reset and typography sheet emitted once per site.
const globalCSS = `/* Global reset and typography */
* { margin: 0; padding: 0; box-sizing: border-box; }
html { scroll-behavior: smooth; font-size: 16px; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1f2937; background: #fff; }
h1, h2, h3, h4, h5, h6 { line-height: 1.25; }
a { color: #3b82f6; }
img { max-width: 100%; height: auto; }
` + responsiveTail

// utilitiesJS is the shared utility module: DOM helpers, debounce, a
// local-storage wrapper, and a minimal pub/sub event helper.
const utilitiesJS = `// Shared utilities
window.bldr = (function () {
  function qs(selector, root) { return (root || document).querySelector(selector); }
  function qsa(selector, root) { return Array.prototype.slice.call((root || document).querySelectorAll(selector)); }

  function debounce(fn, wait) {
    var timer = null;
    return function () {
      var args = arguments;
      if (timer) { clearTimeout(timer); }
      timer = setTimeout(function () { fn.apply(null, args); }, wait);
    };
  }

  var storage = {
    get: function (key, fallback) {
      try {
        var raw = localStorage.getItem(key);
        return raw === null ? fallback : JSON.parse(raw);
      } catch (err) { return fallback; }
    },
    set: function (key, value) {
      try { localStorage.setItem(key, JSON.stringify(value)); } catch (err) { /* quota */ }
    },
    remove: function (key) {
      try { localStorage.removeItem(key); } catch (err) { /* ignore */ }
    }
  };

  var listeners = {};
  function on(event, handler) {
    (listeners[event] = listeners[event] || []).push(handler);
    return function () {
      listeners[event] = (listeners[event] || []).filter(function (h) { return h !== handler; });
    };
  }
  function emit(event, payload) {
    (listeners[event] || []).forEach(function (handler) { handler(payload); });
  }

  return { qs: qs, qsa: qsa, debounce: debounce, storage: storage, on: on, emit: emit };
})();
`
