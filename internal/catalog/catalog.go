// Package catalog holds the declarative listing-resource table: the field schema each category
// form collects, the display table the details viewer renders, and the seed categories for the
// signup picker. The table is embedded YAML so adding a category is a data change.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Widgets
const (
	WidgetText     = "text"
	WidgetTextarea = "textarea"
	WidgetTel      = "tel"
	WidgetNumber   = "number"
	WidgetSelect   = "select"
	WidgetCheckbox = "checkbox"
	WidgetDate     = "date"
)

// TitleMaxLen bounds every listing title.
const TitleMaxLen = 160

var validate = validator.New()

// Field describes one input of a category form.
type Field struct {
	Key      string   `yaml:"key" json:"key"`
	Label    string   `yaml:"label" json:"label"`
	Widget   string   `yaml:"widget" json:"widget"`
	Required bool     `yaml:"required" json:"required"`
	Rules    string   `yaml:"rules" json:"rules,omitempty"`
	Options  []string `yaml:"options" json:"options,omitempty"`
}

// Display is one row of the details viewer table.
type Display struct {
	Label  string `yaml:"label" json:"label"`
	Key    string `yaml:"key" json:"key"`
	Format string `yaml:"format" json:"format,omitempty"`
	Unit   string `yaml:"unit" json:"unit,omitempty"`
}

// Resource is one listing category (the REST path segment).
type Resource struct {
	Slug    string    `yaml:"slug" json:"slug"`
	Name    string    `yaml:"name" json:"name"`
	Fields  []Field   `yaml:"fields" json:"fields"`
	Display []Display `yaml:"display" json:"display"`
}

// SeedCategory seeds the categories table.
type SeedCategory struct {
	Name          string   `yaml:"name"`
	Color         string   `yaml:"color"`
	Subcategories []string `yaml:"subcategories"`
}

type document struct {
	Resources  []Resource     `yaml:"resources"`
	Fallback   []Display      `yaml:"fallback"`
	Categories []SeedCategory `yaml:"categories"`
}

// Catalog indexes resources by slug.
type Catalog struct {
	resources []Resource
	bySlug    map[string]int
	fallback  []Display
	seed      []SeedCategory
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// MustLoad is Load for program start-up and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic("catalog: " + err.Error())
	}
	return c
}

// Parse builds a catalog from YAML and checks it is self-consistent.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		resources: doc.Resources,
		bySlug:    make(map[string]int, len(doc.Resources)),
		fallback:  doc.Fallback,
		seed:      doc.Categories,
	}
	for i, r := range doc.Resources {
		if r.Slug == "" {
			return nil, fmt.Errorf("resource #%d has no slug", i)
		}
		if _, dup := c.bySlug[r.Slug]; dup {
			return nil, fmt.Errorf("duplicate resource %q", r.Slug)
		}
		seen := map[string]bool{}
		for _, f := range r.Fields {
			if seen[f.Key] {
				return nil, fmt.Errorf("resource %q: duplicate field %q", r.Slug, f.Key)
			}
			seen[f.Key] = true
			if f.Widget == WidgetSelect && len(f.Options) == 0 {
				return nil, fmt.Errorf("resource %q: select field %q has no options", r.Slug, f.Key)
			}
		}
		c.bySlug[r.Slug] = i
	}
	return c, nil
}

// Lookup returns the resource for slug.
func (c *Catalog) Lookup(slug string) (*Resource, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return nil, false
	}
	return &c.resources[i], true
}

// Resources returns every resource in catalog order.
func (c *Catalog) Resources() []Resource {
	return slices.Clone(c.resources)
}

// Fallback is the display table for categories without one.
func (c *Catalog) Fallback() []Display {
	return slices.Clone(c.fallback)
}

// SeedCategories returns the picker categories to seed.
func (c *Catalog) SeedCategories() []SeedCategory {
	return slices.Clone(c.seed)
}

// Field returns the field with key.
func (r *Resource) Field(key string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks a listing title and attribute set against the schema and returns
// field-level messages keyed by attribute key ("title" for the title). Empty means valid.
func (r *Resource) Validate(title string, attrs map[string]any) map[string]string {
	errs := map[string]string{}

	title = strings.TrimSpace(title)
	switch {
	case title == "":
		errs["title"] = "Title is required"
	case utf8.RuneCountInString(title) > TitleMaxLen:
		errs["title"] = fmt.Sprintf("Title must be at most %d characters", TitleMaxLen)
	}

	for key := range attrs {
		if _, ok := r.Field(key); !ok {
			errs[key] = "Unknown field"
		}
	}

	for _, f := range r.Fields {
		v, present := attrs[f.Key]
		if !present || isEmpty(v) {
			if f.Required {
				errs[f.Key] = f.Label + " is required"
			}
			continue
		}
		if msg := f.check(v); msg != "" {
			errs[f.Key] = msg
		}
	}
	return errs
}

func (f Field) check(v any) string {
	switch f.Widget {
	case WidgetNumber:
		n, ok := ToFloat(v)
		if !ok {
			return f.Label + " must be a number"
		}
		if f.Rules != "" && validate.Var(n, f.Rules) != nil {
			return f.Label + " is out of range"
		}
	case WidgetCheckbox:
		if _, ok := v.(bool); !ok {
			return f.Label + " must be true or false"
		}
	case WidgetSelect:
		s, ok := v.(string)
		if !ok || !slices.Contains(f.Options, s) {
			return f.Label + " must be one of " + strings.Join(f.Options, ", ")
		}
	default:
		s, ok := v.(string)
		if !ok {
			return f.Label + " must be text"
		}
		if f.Rules != "" && validate.Var(s, f.Rules) != nil {
			return f.Label + " is invalid"
		}
	}
	return ""
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// ToFloat converts the numeric shapes a JSON attribute can take.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
