// Package project loads builder project documents from disk. A document
// declares its pages either explicitly or as one flat component list whose
// entries carry page ids.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/buildr-dev/buildr/internal/types"
)

// DefaultPage is the page a component belongs to when its page id is empty
// or one of the sentinel values.
const DefaultPage = "home"

// Document is a builder project file.
type Document struct {
	Name string `json:"name" yaml:"name"`
	// Pages declares the site page by page
	Pages []types.Page `json:"pages,omitempty" yaml:"pages,omitempty"`
	// Components is the flat alternative: one list, grouped into pages by
	// each component's page_id
	Components []types.Component `json:"components,omitempty" yaml:"components,omitempty"`
}

// Load reads a project document from a JSON or YAML file and normalizes it
// to page form.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing project file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing project file %s: %w", path, err)
		}
	}

	doc.normalize(path)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) normalize(path string) {
	if d.Name == "" {
		base := filepath.Base(path)
		d.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if len(d.Pages) == 0 {
		d.Pages = groupByPage(d.Components)
		d.Components = nil
	}
}

// groupByPage splits a flat component list into pages, preserving relative
// order within each page. Page order follows first appearance, with the
// default page always first when present.
func groupByPage(components []types.Component) []types.Page {
	byPage := make(map[string][]types.Component)
	var order []string

	for _, c := range components {
		name := c.PageID
		if name == "" || name == "all" || name == DefaultPage {
			name = DefaultPage
		}
		if _, seen := byPage[name]; !seen {
			order = append(order, name)
		}
		byPage[name] = append(byPage[name], c)
	}

	for i, name := range order {
		if name == DefaultPage && i != 0 {
			copy(order[1:i+1], order[:i])
			order[0] = DefaultPage
			break
		}
	}

	pages := make([]types.Page, 0, len(order))
	for _, name := range order {
		pages = append(pages, types.Page{Name: name, Components: byPage[name]})
	}
	if len(pages) == 0 {
		pages = append(pages, types.Page{Name: DefaultPage})
	}
	return pages
}

// Validate checks the structural invariants a document must satisfy before
// generation: unique page names and unique component ids within each page.
// Component types are deliberately not validated; unknown types degrade
// gracefully during generation.
func (d *Document) Validate() error {
	pageNames := make(map[string]bool, len(d.Pages))
	for _, page := range d.Pages {
		if page.Name == "" {
			continue // the site generator assigns positional names
		}
		if pageNames[page.Name] {
			return fmt.Errorf("duplicate page name %q", page.Name)
		}
		pageNames[page.Name] = true

		ids := make(map[string]bool, len(page.Components))
		for _, c := range page.Components {
			if c.ID == "" {
				continue
			}
			if ids[c.ID] {
				return fmt.Errorf("duplicate component id %q on page %q", c.ID, page.Name)
			}
			ids[c.ID] = true
		}
	}
	return nil
}
