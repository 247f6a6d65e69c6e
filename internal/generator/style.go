package generator

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode"

	"github.com/buildr-dev/buildr/internal/types"
)

// cssKey converts a camelCase style key to its kebab-case CSS property name.
// Keys that already contain hyphens pass through unchanged.
func cssKey(key string) string {
	if strings.Contains(key, "-") {
		return strings.ToLower(key)
	}
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// styleDeclarations serializes a style map as CSS declarations in sorted key
// order so repeated generation passes produce identical output.
func styleDeclarations(style map[string]string) string {
	if len(style) == 0 {
		return ""
	}
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(cssKey(k))
		b.WriteString(": ")
		b.WriteString(style[k])
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}

// styleAttr renders a component's style map as an inline style attribute,
// or an empty string when there is nothing to emit. Declarations are
// HTML-escaped so a quote in a style value cannot terminate the attribute.
func styleAttr(c *types.Component) string {
	decls := styleDeclarations(c.Style)
	if decls == "" {
		return ""
	}
	return fmt.Sprintf(` style="%s"`, escape(decls))
}

// escape HTML-escapes free-text content taken from component props before it
// is injected into markup.
func escape(s string) string {
	return html.EscapeString(s)
}

// jsString produces a double-quoted JavaScript string literal.
func jsString(s string) string {
	return fmt.Sprintf("%q", s)
}

// stringProp reads a string-valued prop, falling back when the key is absent
// or holds a non-string. Props carry no schema, so every read goes through
// here.
func stringProp(c *types.Component, key, fallback string) string {
	if c.Props == nil {
		return fallback
	}
	v, ok := c.Props[key]
	if !ok {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fallback
	}
}

// intProp reads a numeric prop. JSON decoding yields float64, YAML yields
// int, so both are accepted.
func intProp(c *types.Component, key string, fallback int) int {
	if c.Props == nil {
		return fallback
	}
	switch v := c.Props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// navLink is one entry of a navbar/footer link list prop.
type navLink struct {
	Label string
	Href  string
}

// linksProp reads a list-of-links prop. Entries may be maps with label/href
// keys or bare strings (label doubling as an in-page anchor).
func linksProp(c *types.Component, key string) []navLink {
	if c.Props == nil {
		return nil
	}
	raw, ok := c.Props[key].([]any)
	if !ok {
		return nil
	}
	links := make([]navLink, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			links = append(links, navLink{Label: v, Href: "#" + strings.ToLower(strings.ReplaceAll(v, " ", "-"))})
		case map[string]any:
			link := navLink{}
			if label, ok := v["label"].(string); ok {
				link.Label = label
			}
			if href, ok := v["href"].(string); ok {
				link.Href = href
			}
			if link.Href == "" {
				link.Href = "#"
			}
			if link.Label != "" {
				links = append(links, link)
			}
		}
	}
	return links
}
