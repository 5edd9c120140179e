// Package dashboard is the admin shell: a fixed set of sections, one selected at a time,
// each loading only its own data.
package dashboard

import (
	"context"
	"fmt"
	"slices"

	"github.com/duynhne/classifieds-service/internal/client"
	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// Section names a dashboard page.
type Section string

const (
	SectionDashboard  Section = "dashboard"
	SectionCategories Section = "categories"
	SectionUsers      Section = "users"
	SectionProperties Section = "properties"
	SectionAgencies   Section = "agencies"
	SectionAnalytics  Section = "analytics"
	SectionSettings   Section = "settings"
)

// PropertiesResource is the listing resource behind the properties section.
const PropertiesResource = "property-deals"

var sections = []Section{
	SectionDashboard,
	SectionCategories,
	SectionUsers,
	SectionProperties,
	SectionAgencies,
	SectionAnalytics,
	SectionSettings,
}

// Sections lists the navigation entries in display order.
func Sections() []Section { return slices.Clone(sections) }

// Shell tracks the selected section.
type Shell struct {
	client   *client.Client
	selected Section
}

// New opens the shell on the dashboard section.
func New(c *client.Client) *Shell {
	return &Shell{client: c, selected: SectionDashboard}
}

// Selected is the current section.
func (s *Shell) Selected() Section { return s.selected }

// Select switches sections.
func (s *Shell) Select(section Section) error {
	if !slices.Contains(sections, section) {
		return fmt.Errorf("unknown section %q", section)
	}
	s.selected = section
	return nil
}

// Load fetches the selected section's data:
//
//	dashboard, analytics  *domain.Stats
//	categories            []domain.Category
//	users                 []domain.User
//	properties            []domain.Listing
//	agencies              []domain.User (pro accounts)
//	settings              []domain.ProField
func (s *Shell) Load(ctx context.Context) (any, error) {
	switch s.selected {
	case SectionDashboard, SectionAnalytics:
		return s.client.Stats(ctx)
	case SectionCategories:
		return s.client.Categories(ctx, false)
	case SectionUsers:
		return s.client.Users(ctx, "")
	case SectionProperties:
		return client.NewResource[domain.Listing](s.client, PropertiesResource).List(ctx, domain.ListingFilter{})
	case SectionAgencies:
		return s.client.Users(ctx, domain.AccountPro)
	case SectionSettings:
		return s.client.ProFields(ctx)
	}
	return nil, fmt.Errorf("unknown section %q", s.selected)
}
