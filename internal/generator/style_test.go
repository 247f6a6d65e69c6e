package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buildr-dev/buildr/internal/types"
)

func TestCSSKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"camelCase", "backgroundColor", "background-color"},
		{"multiple humps", "borderTopLeftRadius", "border-top-left-radius"},
		{"already lowercase", "color", "color"},
		{"already kebab", "font-size", "font-size"},
		{"kebab with upper", "Font-Size", "font-size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cssKey(tt.input))
		})
	}
}

func TestStyleDeclarations_SortedAndStable(t *testing.T) {
	style := map[string]string{
		"fontSize":        "18px",
		"backgroundColor": "#fff",
		"color":           "#111",
	}

	first := styleDeclarations(style)
	assert.Equal(t, "background-color: #fff; color: #111; font-size: 18px;", first)

	// Map iteration order must not leak into the output.
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, styleDeclarations(style))
	}
}

func TestStyleDeclarations_Empty(t *testing.T) {
	assert.Equal(t, "", styleDeclarations(nil))
	assert.Equal(t, "", styleDeclarations(map[string]string{}))
}

func TestStyleAttr(t *testing.T) {
	c := &types.Component{ID: "c1", Style: map[string]string{"color": "red"}}
	assert.Equal(t, ` style="color: red;"`, styleAttr(c))

	bare := &types.Component{ID: "c2"}
	assert.Equal(t, "", styleAttr(bare))
}

func TestStyleAttr_EscapesQuotes(t *testing.T) {
	c := &types.Component{ID: "c1", Style: map[string]string{
		"fontFamily": `"Inter", sans-serif`,
	}}

	attr := styleAttr(c)
	assert.Equal(t, ` style="font-family: &#34;Inter&#34;, sans-serif;"`, attr)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", escape("<script>alert(1)</script>"))
	assert.Equal(t, "a &amp; b", escape("a & b"))
}

func TestStringProp(t *testing.T) {
	c := &types.Component{Props: map[string]any{
		"content": "hello",
		"level":   3,
	}}

	assert.Equal(t, "hello", stringProp(c, "content", "fallback"))
	assert.Equal(t, "fallback", stringProp(c, "missing", "fallback"))
	// Non-string values fall back rather than stringify.
	assert.Equal(t, "fallback", stringProp(c, "level", "fallback"))
	assert.Equal(t, "fallback", stringProp(&types.Component{}, "content", "fallback"))
}

func TestIntProp(t *testing.T) {
	c := &types.Component{Props: map[string]any{
		"fromJSON": float64(3), // JSON numbers decode as float64
		"fromYAML": 4,
		"wide":     int64(5),
		"bogus":    "nope",
	}}

	assert.Equal(t, 3, intProp(c, "fromJSON", 0))
	assert.Equal(t, 4, intProp(c, "fromYAML", 0))
	assert.Equal(t, 5, intProp(c, "wide", 0))
	assert.Equal(t, 9, intProp(c, "bogus", 9))
	assert.Equal(t, 9, intProp(c, "missing", 9))
}

func TestLinksProp(t *testing.T) {
	c := &types.Component{Props: map[string]any{
		"links": []any{
			map[string]any{"label": "Docs", "href": "/docs"},
			map[string]any{"label": "Pricing"}, // href defaults to "#"
			"About Us",                         // bare string becomes an anchor
			map[string]any{"href": "/hidden"},  // no label, dropped
		},
	}}

	links := linksProp(c, "links")
	assert.Equal(t, []navLink{
		{Label: "Docs", Href: "/docs"},
		{Label: "Pricing", Href: "#"},
		{Label: "About Us", Href: "#about-us"},
	}, links)

	assert.Nil(t, linksProp(&types.Component{}, "links"))
	assert.Nil(t, linksProp(&types.Component{Props: map[string]any{"links": "not-a-list"}}, "links"))
}
