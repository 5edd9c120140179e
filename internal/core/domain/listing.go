package domain

import "time"

// MaxListingImages caps the images attached to one listing.
const MaxListingImages = 10

// Listing is one classified-ad record of a catalog resource (vehicles, rentals, services, ...).
// Attributes hold the category-specific field set described by the catalog.
type Listing struct {
	ID         string         `json:"id"`
	Resource   string         `json:"resource"`
	Title      string         `json:"title"`
	Attributes map[string]any `json:"attributes"`
	Images     []string       `json:"images"`
	IsActive   bool           `json:"isActive"`
	IsFeatured bool           `json:"isFeatured"`
	UserID     string         `json:"userId"`
	Role       string         `json:"role"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// ListingFilter narrows a resource listing query. Empty fields do not filter.
type ListingFilter struct {
	UserID string
	Role   string
}

// ListingInput is the create/update payload: the full record without its id.
type ListingInput struct {
	Title      string         `json:"title"`
	Attributes map[string]any `json:"attributes"`
	Images     []string       `json:"images"`
	IsActive   *bool          `json:"isActive,omitempty"`
	IsFeatured *bool          `json:"isFeatured,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	Role       string         `json:"role,omitempty"`
}

// ListingPatch is a partial update. Nil fields are left untouched; attributes are merged by key.
type ListingPatch struct {
	Title      *string        `json:"title,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Images     *[]string      `json:"images,omitempty"`
	IsActive   *bool          `json:"isActive,omitempty"`
	IsFeatured *bool          `json:"isFeatured,omitempty"`
}

// ListingFlag names one of the independently toggled booleans.
type ListingFlag string

const (
	FlagActive   ListingFlag = "active"
	FlagFeatured ListingFlag = "featured"
)

// ToggleResult is returned by the toggle sub-routes.
type ToggleResult struct {
	ID         string `json:"id"`
	IsActive   bool   `json:"isActive"`
	IsFeatured bool   `json:"isFeatured"`
}

// ResourceCount is one row of the analytics breakdown.
type ResourceCount struct {
	Resource string `json:"resource"`
	Total    int    `json:"total"`
	Active   int    `json:"active"`
	Featured int    `json:"featured"`
}

// Stats backs the admin dashboard and analytics sections.
type Stats struct {
	Users       int             `json:"users"`
	ProUsers    int             `json:"proUsers"`
	Categories  int             `json:"categories"`
	Listings    int             `json:"listings"`
	ByResource  []ResourceCount `json:"byResource"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
