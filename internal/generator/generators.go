package generator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/buildr-dev/buildr/internal/types"
)

// markdown renders text components whose props declare format: markdown.
// Raw HTML inside the source is filtered by goldmark's default renderer, so
// markdown content cannot smuggle executable markup into the output.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderHTML resolves a component through the registry and falls back to a
// commented placeholder for unknown types. Generation never aborts on a type
// the registry has not seen.
func renderHTML(r *Registry, c *types.Component) string {
	if triple, ok := r.Lookup(c.Type); ok {
		return triple.HTML(c)
	}
	return fmt.Sprintf("<!-- unknown component type %q (id %s) -->", c.Type, c.ID)
}

func renderCSS(r *Registry, c *types.Component) string {
	if triple, ok := r.Lookup(c.Type); ok {
		return triple.CSS(c)
	}
	return fmt.Sprintf("/* unknown component type %q (id %s) */", c.Type, c.ID)
}

func renderJS(r *Registry, c *types.Component) string {
	if triple, ok := r.Lookup(c.Type); ok {
		return triple.JS(c)
	}
	return fmt.Sprintf("// unknown component type %q (id %s)", c.Type, c.ID)
}

// renderChildrenHTML renders the ordered child list of a nesting-capable
// component.
func renderChildrenHTML(r *Registry, c *types.Component) string {
	var b strings.Builder
	for i := range c.Children {
		b.WriteString(renderHTML(r, &c.Children[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func renderChildrenCSS(r *Registry, c *types.Component) string {
	var b strings.Builder
	for i := range c.Children {
		if css := renderCSS(r, &c.Children[i]); css != "" {
			b.WriteString(css)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderChildrenJS(r *Registry, c *types.Component) string {
	var b strings.Builder
	for i := range c.Children {
		if js := renderJS(r, &c.Children[i]); js != "" {
			b.WriteString(js)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// selector returns the id-scoped CSS selector every builtin uses. Scoping by
// the data attribute keeps component rules from leaking into the base reset.
func selector(c *types.Component) string {
	return fmt.Sprintf(`[data-component-id="%s"]`, c.ID)
}

func openTag(tag string, c *types.Component) string {
	return fmt.Sprintf(`<%s class="bldr-%s" data-component-id="%s"%s>`, tag, c.Type, c.ID, styleAttr(c))
}

// registerBuiltins populates a registry with the full built-in component
// vocabulary. Generators that need to render children close over the
// registry so user-registered types nest the same way builtins do.
func registerBuiltins(r *Registry) {
	r.Register("text", Triple{HTML: textHTML, CSS: textCSS})
	r.Register("heading", Triple{HTML: headingHTML, CSS: headingCSS})
	r.Register("button", Triple{HTML: buttonHTML, CSS: buttonCSS, JS: buttonJS})
	r.Register("image", Triple{HTML: imageHTML, CSS: imageCSS})
	r.Register("navbar", Triple{HTML: navbarHTML, CSS: navbarCSS, JS: navbarJS})
	r.Register("hero", Triple{HTML: heroHTML, CSS: heroCSS})
	r.Register("footer", Triple{HTML: footerHTML, CSS: footerCSS})
	r.Register("input", Triple{HTML: inputHTML, CSS: inputCSS})
	r.Register("textarea", Triple{HTML: textareaHTML, CSS: inputCSS})
	r.Register("form", Triple{
		HTML: func(c *types.Component) string { return formHTML(r, c) },
		CSS: func(c *types.Component) string {
			return formCSS(c) + "\n" + renderChildrenCSS(r, c)
		},
		JS: func(c *types.Component) string {
			return formJS(c) + "\n" + renderChildrenJS(r, c)
		},
	})

	r.Register("container", Triple{
		HTML: func(c *types.Component) string {
			return openTag("div", c) + "\n" + renderChildrenHTML(r, c) + "</div>"
		},
		CSS: func(c *types.Component) string {
			return fmt.Sprintf("%s { width: 100%%; }\n%s", selector(c), renderChildrenCSS(r, c))
		},
		JS: func(c *types.Component) string {
			return renderChildrenJS(r, c)
		},
	})

	r.Register("grid", Triple{
		HTML: func(c *types.Component) string {
			return openTag("div", c) + "\n" + renderChildrenHTML(r, c) + "</div>"
		},
		CSS: func(c *types.Component) string {
			columns := intProp(c, "columns", 3)
			if columns < 1 {
				columns = 1
			}
			gap := stringProp(c, "gap", "16px")
			return fmt.Sprintf("%s { display: grid; grid-template-columns: repeat(%d, 1fr); gap: %s; }\n%s",
				selector(c), columns, gap, renderChildrenCSS(r, c))
		},
		JS: func(c *types.Component) string {
			return renderChildrenJS(r, c)
		},
	})

	r.Register("card", Triple{
		HTML: func(c *types.Component) string {
			var b strings.Builder
			b.WriteString(openTag("div", c))
			b.WriteString("\n")
			if title := stringProp(c, "title", ""); title != "" {
				b.WriteString("<h3>" + escape(title) + "</h3>\n")
			}
			if content := stringProp(c, "content", ""); content != "" {
				b.WriteString("<p>" + escape(content) + "</p>\n")
			}
			b.WriteString(renderChildrenHTML(r, c))
			b.WriteString("</div>")
			return b.String()
		},
		CSS: func(c *types.Component) string {
			return fmt.Sprintf(
				"%s { background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,0.1); padding: 24px; }\n%s",
				selector(c), renderChildrenCSS(r, c))
		},
		JS: func(c *types.Component) string {
			return renderChildrenJS(r, c)
		},
	})
}

func textHTML(c *types.Component) string {
	content := stringProp(c, "content", "Text")
	if stringProp(c, "format", "") == "markdown" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(content), &buf); err == nil {
			return openTag("div", c) + "\n" + buf.String() + "</div>"
		}
	}
	return openTag("p", c) + escape(content) + "</p>"
}

func textCSS(c *types.Component) string {
	return fmt.Sprintf("%s { line-height: 1.6; }", selector(c))
}

func headingHTML(c *types.Component) string {
	level := intProp(c, "level", 2)
	if level < 1 || level > 6 {
		level = 2
	}
	content := stringProp(c, "content", "Heading")
	tag := fmt.Sprintf("h%d", level)
	return openTag(tag, c) + escape(content) + "</" + tag + ">"
}

func headingCSS(c *types.Component) string {
	return fmt.Sprintf("%s { margin: 0 0 0.5em; font-weight: 700; }", selector(c))
}

func buttonHTML(c *types.Component) string {
	label := stringProp(c, "label", stringProp(c, "content", "Click me"))
	if href := stringProp(c, "href", ""); href != "" {
		return fmt.Sprintf(`<a href="%s" class="bldr-button" data-component-id="%s"%s>%s</a>`,
			escape(href), c.ID, styleAttr(c), escape(label))
	}
	return openTag("button", c) + escape(label) + "</button>"
}

func buttonCSS(c *types.Component) string {
	return fmt.Sprintf(`%[1]s { display: inline-block; padding: 10px 24px; border: none; border-radius: 6px; background: #3b82f6; color: #fff; cursor: pointer; text-decoration: none; }
%[1]s:hover { background: #2563eb; }`, selector(c))
}

func buttonJS(c *types.Component) string {
	message := stringProp(c, "onClickMessage", "")
	var action string
	if message != "" {
		action = "alert(" + jsString(message) + ");"
	} else {
		action = "console.log('button clicked:', " + jsString(c.ID) + ");"
	}
	return fmt.Sprintf(`(function () {
  var el = document.querySelector('[data-component-id=%q]');
  if (el) { el.addEventListener('click', function () { %s }); }
})();`, c.ID, action)
}

func imageHTML(c *types.Component) string {
	src := stringProp(c, "src", "https://via.placeholder.com/400x300")
	alt := stringProp(c, "alt", "")
	return fmt.Sprintf(`<img class="bldr-image" data-component-id="%s" src="%s" alt="%s" loading="lazy"%s>`,
		c.ID, escape(src), escape(alt), styleAttr(c))
}

func imageCSS(c *types.Component) string {
	return fmt.Sprintf("%s { max-width: 100%%; height: auto; display: block; }", selector(c))
}

func navbarHTML(c *types.Component) string {
	brand := stringProp(c, "brand", "My Site")
	links := linksProp(c, "links")
	if len(links) == 0 {
		links = []navLink{{Label: "Home", Href: "#"}, {Label: "About", Href: "#about"}, {Label: "Contact", Href: "#contact"}}
	}

	var b strings.Builder
	b.WriteString(openTag("nav", c))
	b.WriteString("\n<span class=\"bldr-navbar-brand\">" + escape(brand) + "</span>\n<ul>\n")
	for _, link := range links {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`+"\n", escape(link.Href), escape(link.Label))
	}
	b.WriteString("</ul>\n")
	b.WriteString(`<button class="bldr-navbar-toggle" aria-label="Toggle navigation">&#9776;</button>` + "\n")
	b.WriteString("</nav>")
	return b.String()
}

func navbarCSS(c *types.Component) string {
	return fmt.Sprintf(`%[1]s { display: flex; align-items: center; justify-content: space-between; padding: 12px 24px; }
%[1]s ul { display: flex; gap: 20px; list-style: none; margin: 0; padding: 0; }
%[1]s a { text-decoration: none; color: inherit; }
%[1]s .bldr-navbar-toggle { display: none; background: none; border: none; font-size: 1.4em; cursor: pointer; }
@media (max-width: 768px) {
  %[1]s ul { display: none; }
  %[1]s.bldr-navbar-open ul { display: flex; flex-direction: column; width: 100%%; }
  %[1]s .bldr-navbar-toggle { display: block; }
}`, selector(c))
}

func navbarJS(c *types.Component) string {
	return fmt.Sprintf(`(function () {
  var nav = document.querySelector('[data-component-id=%q]');
  if (!nav) { return; }
  var toggle = nav.querySelector('.bldr-navbar-toggle');
  if (toggle) {
    toggle.addEventListener('click', function () { nav.classList.toggle('bldr-navbar-open'); });
  }
})();`, c.ID)
}

func heroHTML(c *types.Component) string {
	title := stringProp(c, "title", "Welcome")
	subtitle := stringProp(c, "subtitle", "")
	buttonText := stringProp(c, "buttonText", "")
	buttonHref := stringProp(c, "buttonHref", "#")

	var b strings.Builder
	b.WriteString(openTag("section", c))
	b.WriteString("\n<h1>" + escape(title) + "</h1>\n")
	if subtitle != "" {
		b.WriteString("<p>" + escape(subtitle) + "</p>\n")
	}
	if buttonText != "" {
		fmt.Fprintf(&b, `<a class="bldr-hero-cta" href="%s">%s</a>`+"\n", escape(buttonHref), escape(buttonText))
	}
	b.WriteString("</section>")
	return b.String()
}

func heroCSS(c *types.Component) string {
	return fmt.Sprintf(`%[1]s { text-align: center; padding: 80px 24px; }
%[1]s h1 { font-size: 2.5em; margin: 0 0 0.4em; animation: bldr-fade-in 0.6s ease-out; }
%[1]s .bldr-hero-cta { display: inline-block; margin-top: 16px; padding: 12px 28px; border-radius: 6px; background: #3b82f6; color: #fff; text-decoration: none; }`, selector(c))
}

func footerHTML(c *types.Component) string {
	text := stringProp(c, "text", "")
	links := linksProp(c, "links")

	var b strings.Builder
	b.WriteString(openTag("footer", c))
	b.WriteString("\n")
	if len(links) > 0 {
		b.WriteString("<ul>\n")
		for _, link := range links {
			fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`+"\n", escape(link.Href), escape(link.Label))
		}
		b.WriteString("</ul>\n")
	}
	if text != "" {
		b.WriteString("<p>" + escape(text) + "</p>\n")
	}
	b.WriteString("</footer>")
	return b.String()
}

func footerCSS(c *types.Component) string {
	return fmt.Sprintf(`%[1]s { padding: 32px 24px; text-align: center; font-size: 0.9em; }
%[1]s ul { display: flex; justify-content: center; gap: 16px; list-style: none; margin: 0 0 12px; padding: 0; }
%[1]s a { color: inherit; }`, selector(c))
}

func inputHTML(c *types.Component) string {
	placeholder := stringProp(c, "placeholder", "")
	inputType := stringProp(c, "inputType", "text")
	name := stringProp(c, "name", c.ID)
	label := stringProp(c, "label", "")

	var b strings.Builder
	if label != "" {
		fmt.Fprintf(&b, `<label for="field-%s">%s</label>`+"\n", escape(c.ID), escape(label))
	}
	fmt.Fprintf(&b, `<input id="field-%s" class="bldr-%s" data-component-id="%s" type="%s" name="%s" placeholder="%s"%s>`,
		escape(c.ID), c.Type, c.ID, escape(inputType), escape(name), escape(placeholder), styleAttr(c))
	return b.String()
}

func textareaHTML(c *types.Component) string {
	placeholder := stringProp(c, "placeholder", "")
	name := stringProp(c, "name", c.ID)
	rows := intProp(c, "rows", 4)
	if rows < 1 {
		rows = 4
	}
	return fmt.Sprintf(`<textarea class="bldr-%s" data-component-id="%s" name="%s" rows="%d" placeholder="%s"%s></textarea>`,
		c.Type, c.ID, escape(name), rows, escape(placeholder), styleAttr(c))
}

func inputCSS(c *types.Component) string {
	return fmt.Sprintf(`%[1]s { width: 100%%; padding: 10px 12px; border: 1px solid #d1d5db; border-radius: 6px; font: inherit; }
%[1]s:focus { outline: 2px solid #3b82f6; outline-offset: 1px; }`, selector(c))
}

func formHTML(r *Registry, c *types.Component) string {
	title := stringProp(c, "title", "")

	var b strings.Builder
	b.WriteString(openTag("form", c))
	b.WriteString("\n")
	if title != "" {
		b.WriteString("<h2>" + escape(title) + "</h2>\n")
	}
	// Default contact fields when the form has no explicit children.
	if len(c.Children) == 0 {
		b.WriteString(`<input type="text" name="name" placeholder="Your name">` + "\n")
		b.WriteString(`<input type="email" name="email" placeholder="Your email">` + "\n")
		b.WriteString(`<textarea name="message" rows="4" placeholder="Your message"></textarea>` + "\n")
	} else {
		b.WriteString(renderChildrenHTML(r, c))
	}
	submit := stringProp(c, "submitLabel", "Send")
	b.WriteString(`<button type="submit">` + escape(submit) + "</button>\n")
	b.WriteString("</form>")
	return b.String()
}

func formCSS(c *types.Component) string {
	return fmt.Sprintf(`%[1]s { display: flex; flex-direction: column; gap: 12px; max-width: 480px; }
%[1]s input, %[1]s textarea { padding: 10px 12px; border: 1px solid #d1d5db; border-radius: 6px; font: inherit; }
%[1]s button[type="submit"] { align-self: flex-start; padding: 10px 24px; border: none; border-radius: 6px; background: #3b82f6; color: #fff; cursor: pointer; }`, selector(c))
}

func formJS(c *types.Component) string {
	return fmt.Sprintf(`(function () {
  var form = document.querySelector('[data-component-id=%q]');
  if (!form) { return; }
  form.addEventListener('submit', function (event) {
    event.preventDefault();
    var data = {};
    new FormData(form).forEach(function (value, key) { data[key] = value; });
    console.log('form submitted:', data);
    form.reset();
  });
})();`, c.ID)
}
