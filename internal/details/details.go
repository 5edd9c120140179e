// Package details renders a listing as the labelled rows of its category's display table.
package details

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/duynhne/classifieds-service/internal/catalog"
	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// Formats understood in display tables. An empty format prints the value as text.
const (
	FormatCurrency = "currency"
	FormatYesNo    = "yesno"
	FormatUnit     = "unit"
	FormatDate     = "date"
)

// CurrencySymbol prefixes currency values.
const CurrencySymbol = "₹"

// Field is one rendered row.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// View is the details page of one listing.
type View struct {
	ID         string   `json:"id"`
	Resource   string   `json:"resource"`
	Title      string   `json:"title"`
	Images     []string `json:"images"`
	IsActive   bool     `json:"isActive"`
	IsFeatured bool     `json:"isFeatured"`
	Fields     []Field  `json:"fields"`
}

// Renderer maps records through the catalog display tables.
type Renderer struct {
	catalog *catalog.Catalog
	printer *message.Printer
}

// NewRenderer creates a renderer over cat.
func NewRenderer(cat *catalog.Catalog) *Renderer {
	return &Renderer{catalog: cat, printer: message.NewPrinter(language.English)}
}

// Render returns the populated rows of record in display order. Unknown categories,
// and categories without a display table, use the catalog fallback.
func (r *Renderer) Render(record map[string]any, category string) []Field {
	table := r.catalog.Fallback()
	if res, ok := r.catalog.Lookup(category); ok && len(res.Display) > 0 {
		table = res.Display
	}

	fields := make([]Field, 0, len(table))
	for _, d := range table {
		v, ok := record[d.Key]
		if !ok || !populated(v) {
			continue
		}
		fields = append(fields, Field{Label: d.Label, Value: r.format(v, d)})
	}
	return fields
}

// View renders a listing. Attributes are the record; top-level fields are not repeated.
func (r *Renderer) View(l *domain.Listing) View {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return View{
		ID:         l.ID,
		Resource:   l.Resource,
		Title:      l.Title,
		Images:     images,
		IsActive:   l.IsActive,
		IsFeatured: l.IsFeatured,
		Fields:     r.Render(l.Attributes, l.Resource),
	}
}

func populated(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	}
	return true
}

func (r *Renderer) format(v any, d catalog.Display) string {
	switch d.Format {
	case FormatCurrency:
		if n, ok := number(v); ok {
			return CurrencySymbol + r.grouped(n)
		}
	case FormatYesNo:
		if b, ok := boolean(v); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	case FormatUnit:
		s := r.text(v)
		if n, ok := number(v); ok {
			s = r.grouped(n)
		}
		if d.Unit == "" {
			return s
		}
		return s + " " + d.Unit
	case FormatDate:
		if s, ok := v.(string); ok {
			for _, layout := range []string{time.RFC3339, time.DateOnly} {
				if t, err := time.Parse(layout, s); err == nil {
					return t.Format("2 Jan 2006")
				}
			}
		}
	}
	return r.text(v)
}

// grouped prints n with thousands separators, keeping two decimals only when n has a fraction.
func (r *Renderer) grouped(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return r.printer.Sprintf("%d", int64(n))
	}
	return r.printer.Sprintf("%.2f", n)
}

func (r *Renderer) text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, r.text(item))
		}
		return strings.Join(parts, ", ")
	}
	if n, ok := number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func number(v any) (float64, bool) {
	if n, ok := catalog.ToFloat(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
		return n, err == nil
	}
	return 0, false
}

func boolean(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	}
	return false, false
}
