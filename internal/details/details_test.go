package details

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duynhne/classifieds-service/internal/catalog"
	"github.com/duynhne/classifieds-service/internal/core/domain"
)

func TestRender_CategoryTable(t *testing.T) {
	r := NewRenderer(catalog.MustLoad())

	record := map[string]any{
		"brand":    "Tata",
		"model":    "",
		"year":     float64(2021),
		"kmDriven": float64(42000),
		"price":    float64(850000),
		"city":     "Pune",
	}
	got := r.Render(record, "vehicles")

	assert.Equal(t, []Field{
		{Label: "Brand", Value: "Tata"},
		{Label: "Year", Value: "2021"},
		{Label: "Driven", Value: "42,000 km"},
		{Label: "Price", Value: "₹850,000"},
		{Label: "City", Value: "Pune"},
	}, got)
}

func TestRender_UnknownCategoryUsesFallback(t *testing.T) {
	r := NewRenderer(catalog.MustLoad())

	got := r.Render(map[string]any{
		"price":   "1200.5",
		"contact": "98765",
		"brand":   "ignored",
	}, "spaceships")

	assert.Equal(t, []Field{
		{Label: "Price", Value: "₹1,200.50"},
		{Label: "Contact", Value: "98765"},
	}, got)
}

func TestFormat(t *testing.T) {
	r := NewRenderer(catalog.MustLoad())

	tests := []struct {
		name string
		v    any
		d    catalog.Display
		want string
	}{
		{"yes", true, catalog.Display{Format: FormatYesNo}, "Yes"},
		{"no from text", "false", catalog.Display{Format: FormatYesNo}, "No"},
		{"unit without number", "two", catalog.Display{Format: FormatUnit, Unit: "sqft"}, "two sqft"},
		{"date", "2026-12-31", catalog.Display{Format: FormatDate}, "31 Dec 2026"},
		{"bad date passes through", "soon", catalog.Display{Format: FormatDate}, "soon"},
		{"currency of text", "abc", catalog.Display{Format: FormatCurrency}, "abc"},
		{"plain float", 2.5, catalog.Display{}, "2.5"},
		{"list", []any{"wifi", "ac"}, catalog.Display{}, "wifi, ac"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.format(tt.v, tt.d))
		})
	}
}

func TestView(t *testing.T) {
	r := NewRenderer(catalog.MustLoad())
	v := r.View(&domain.Listing{ID: "1", Resource: "pets", Title: "Labrador", Attributes: map[string]any{"city": "Goa"}})

	assert.Equal(t, "Labrador", v.Title)
	assert.NotNil(t, v.Images)
	assert.Contains(t, v.Fields, Field{Label: "City", Value: "Goa"})
}
