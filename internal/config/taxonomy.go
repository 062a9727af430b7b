package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Subcategory is one leaf of the taxonomy. Tags match article tags
// exactly (case-insensitive); Keywords match as substrings of the title.
type Subcategory struct {
	Key      string
	Name     string
	Tags     []string
	Keywords []string
}

type Category struct {
	Key           string
	Name          string
	Description   string
	Subcategories []Subcategory
}

// Taxonomy is the category tree loaded once at startup and never mutated.
// Categories keep the document order of the yaml file: rule matching
// iterates them in order and the first hit wins, so the order is part of
// the classification behavior.
type Taxonomy struct {
	Categories []Category
}

// CategoryInfo carries the display metadata used by the markdown
// renderers. Unknown keys echo themselves so the sentinel category still
// renders.
type CategoryInfo struct {
	Category            string
	CategoryName        string
	CategoryDescription string
	Subcategory         string
	SubcategoryName     string
}

// LoadTaxonomy parses categories.yaml. Any schema problem is a startup
// error.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}

	tax, err := ParseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	return tax, nil
}

// ParseTaxonomy decodes the category tree from a yaml document. Decoding
// goes through yaml.Node rather than a map so the document order of
// categories and subcategories survives.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var doc struct {
		Categories yaml.Node `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Categories.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("categories must be a mapping")
	}

	tax := &Taxonomy{}
	for i := 0; i+1 < len(doc.Categories.Content); i += 2 {
		keyNode := doc.Categories.Content[i]
		valNode := doc.Categories.Content[i+1]

		var raw struct {
			Name          string    `yaml:"name"`
			Description   string    `yaml:"description"`
			Subcategories yaml.Node `yaml:"subcategories"`
		}
		if err := valNode.Decode(&raw); err != nil {
			return nil, fmt.Errorf("category %q: %w", keyNode.Value, err)
		}
		if raw.Name == "" {
			return nil, fmt.Errorf("category %q: name is required", keyNode.Value)
		}
		if raw.Subcategories.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("category %q: subcategories must be a mapping", keyNode.Value)
		}

		cat := Category{
			Key:         keyNode.Value,
			Name:        raw.Name,
			Description: raw.Description,
		}
		for j := 0; j+1 < len(raw.Subcategories.Content); j += 2 {
			subKey := raw.Subcategories.Content[j]
			subVal := raw.Subcategories.Content[j+1]

			var sub struct {
				Name     string   `yaml:"name"`
				Tags     []string `yaml:"tags"`
				Keywords []string `yaml:"keywords"`
			}
			if err := subVal.Decode(&sub); err != nil {
				return nil, fmt.Errorf("subcategory %s/%s: %w", keyNode.Value, subKey.Value, err)
			}
			if sub.Name == "" {
				return nil, fmt.Errorf("subcategory %s/%s: name is required", keyNode.Value, subKey.Value)
			}
			cat.Subcategories = append(cat.Subcategories, Subcategory{
				Key:      subKey.Value,
				Name:     sub.Name,
				Tags:     sub.Tags,
				Keywords: sub.Keywords,
			})
		}
		if len(cat.Subcategories) == 0 {
			return nil, fmt.Errorf("category %q: at least one subcategory is required", keyNode.Value)
		}
		tax.Categories = append(tax.Categories, cat)
	}
	if len(tax.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy defines no categories")
	}
	return tax, nil
}

// Lookup reports whether the pair exists in the taxonomy.
func (t *Taxonomy) Lookup(category, subcategory string) (Category, Subcategory, bool) {
	for _, c := range t.Categories {
		if c.Key != category {
			continue
		}
		for _, s := range c.Subcategories {
			if s.Key == subcategory {
				return c, s, true
			}
		}
	}
	return Category{}, Subcategory{}, false
}

// Info resolves display metadata for a pair, echoing the keys for pairs
// outside the taxonomy (the "other"/"general" sentinel among them).
func (t *Taxonomy) Info(category, subcategory string) CategoryInfo {
	if c, s, ok := t.Lookup(category, subcategory); ok {
		return CategoryInfo{
			Category:            c.Key,
			CategoryName:        c.Name,
			CategoryDescription: c.Description,
			Subcategory:         s.Key,
			SubcategoryName:     s.Name,
		}
	}
	return CategoryInfo{
		Category:        category,
		CategoryName:    category,
		Subcategory:     subcategory,
		SubcategoryName: subcategory,
	}
}

// PairLabels lists every category/subcategory pair with its display name,
// in taxonomy order. The categorizer feeds this to the AI fallback so the
// model can only pick from real pairs.
func (t *Taxonomy) PairLabels() []string {
	var out []string
	for _, c := range t.Categories {
		for _, s := range c.Subcategories {
			out = append(out, fmt.Sprintf("%s/%s - %s", c.Key, s.Key, s.Name))
		}
	}
	return out
}
