package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Resources(), 20)
	for _, slug := range []string{"vehicles", "heavy-equipment", "second-hand-cars-bikes", "rentals", "services", "education", "electronics"} {
		_, ok := c.Lookup(slug)
		assert.True(t, ok, slug)
	}
	_, ok := c.Lookup("spaceships")
	assert.False(t, ok)

	assert.NotEmpty(t, c.Fallback())
	assert.NotEmpty(t, c.SeedCategories())
}

func TestParse_RejectsInconsistentCatalog(t *testing.T) {
	_, err := Parse([]byte(`
resources:
  - slug: a
  - slug: a
`))
	assert.ErrorContains(t, err, "duplicate resource")

	_, err = Parse([]byte(`
resources:
  - slug: a
    fields:
      - {key: kind, label: Kind, widget: select}
`))
	assert.ErrorContains(t, err, "has no options")
}

func TestResource_Validate(t *testing.T) {
	c := MustLoad()
	r, ok := c.Lookup("vehicles")
	require.True(t, ok)

	valid := map[string]any{
		"brand":    "Tata",
		"model":    "Nexon",
		"year":     float64(2021),
		"fuelType": "diesel",
		"price":    float64(850000),
		"city":     "Pune",
		"contact":  "9876543210",
	}
	assert.Empty(t, r.Validate("Tata Nexon XZ+", valid))

	tests := []struct {
		name  string
		title string
		edit  func(m map[string]any)
		field string
	}{
		{"missing title", "  ", func(map[string]any) {}, "title"},
		{"missing required", "t", func(m map[string]any) { delete(m, "brand") }, "brand"},
		{"blank required", "t", func(m map[string]any) { m["city"] = " " }, "city"},
		{"number as text", "t", func(m map[string]any) { m["year"] = "2021" }, "year"},
		{"number out of range", "t", func(m map[string]any) { m["year"] = float64(1800) }, "year"},
		{"select outside options", "t", func(m map[string]any) { m["fuelType"] = "steam" }, "fuelType"},
		{"unknown key", "t", func(m map[string]any) { m["wings"] = 2 }, "wings"},
		{"text too long", "t", func(m map[string]any) { m["contact"] = "012345678901234567890123" }, "contact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := map[string]any{}
			for k, v := range valid {
				attrs[k] = v
			}
			tt.edit(attrs)
			errs := r.Validate(tt.title, attrs)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestResource_ValidateTitleCountsCharacters(t *testing.T) {
	r, ok := MustLoad().Lookup("vehicles")
	require.True(t, ok)
	attrs := map[string]any{
		"brand": "Tata", "model": "Nexon", "year": float64(2021), "fuelType": "diesel",
		"price": float64(850000), "city": "Pune", "contact": "9876543210",
	}

	atLimit := strings.Repeat("क", TitleMaxLen)
	assert.NotContains(t, r.Validate(atLimit, attrs), "title")
	assert.Contains(t, r.Validate(atLimit+"₹", attrs), "title")
}

func TestResource_ValidateOptionalAndCheckbox(t *testing.T) {
	r, ok := MustLoad().Lookup("rentals")
	require.True(t, ok)

	attrs := map[string]any{
		"propertyType": "apartment",
		"rentPerMonth": 18000,
		"city":         "Kochi",
		"contact":      "9000000000",
	}
	assert.Empty(t, r.Validate("2BHK near metro", attrs))

	attrs["furnished"] = "yes"
	assert.Contains(t, r.Validate("2BHK near metro", attrs), "furnished")

	attrs["furnished"] = true
	attrs["deposit"] = nil
	assert.Empty(t, r.Validate("2BHK near metro", attrs))
}

func TestResource_ValidateDate(t *testing.T) {
	r, ok := MustLoad().Lookup("events")
	require.True(t, ok)

	attrs := map[string]any{"eventType": "Concert", "eventDate": "2026-12-31", "city": "Goa", "contact": "1"}
	assert.Empty(t, r.Validate("NYE", attrs))

	attrs["eventDate"] = "31/12/2026"
	assert.Contains(t, r.Validate("NYE", attrs), "eventDate")
}
