package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ledgerflow/internal/domain"
)

type categoryDocument struct {
	Categories []categoryEntry `yaml:"categories"`
}

type categoryEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
}

// LoadCategories reads the categories YAML file into a flat map keyed by
// id, with parent resolved by a plain id lookup rather than a pointer —
// matching bank/runtime.py's load_config pattern of decoding flat YAML
// lists into id-keyed dicts, and the "no parent pointers" design note
// carried into SPEC_FULL.md §9. The file holds a top-level `categories`
// list of {id, name, parent} entries; nested `subcategories` lists are not
// read.
func LoadCategories(path string) (map[string]domain.Category, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: reading categories file: %w", err)
	}
	var doc categoryDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("rules: parsing categories file: %w", err)
	}
	categories := make(map[string]domain.Category, len(doc.Categories))
	for _, entry := range doc.Categories {
		categories[entry.ID] = domain.Category{ID: entry.ID, Name: entry.Name, Parent: entry.Parent}
	}
	return categories, nil
}

// ResolveParent looks the immediate parent category of cat up in the flat
// tree, returning ok=false at the root.
func ResolveParent(categories map[string]domain.Category, cat domain.Category) (domain.Category, bool) {
	if cat.Parent == "" {
		return domain.Category{}, false
	}
	parent, ok := categories[cat.Parent]
	return parent, ok
}
