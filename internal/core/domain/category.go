package domain

import "time"

// Category groups subcategories offered in the signup picker and admin dialogs.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Color         string        `json:"color"`
	IsActive      bool          `json:"isActive"`
	SortOrder     int           `json:"sortOrder"`
	Subcategories []Subcategory `json:"subcategories"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Subcategory belongs to exactly one Category through ParentCategoryID.
type Subcategory struct {
	ID               string    `json:"id"`
	ParentCategoryID string    `json:"parentCategoryId"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	Color            string    `json:"color"`
	IsActive         bool      `json:"isActive"`
	SortOrder        int       `json:"sortOrder"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CategoryInput creates or replaces a category. Slug defaults to a slugified name.
type CategoryInput struct {
	Name      string `json:"name" binding:"required,max=120"`
	Slug      string `json:"slug" binding:"omitempty,max=120"`
	Color     string `json:"color" binding:"omitempty,max=32"`
	IsActive  *bool  `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// SubcategoryInput creates or replaces a subcategory under a category.
type SubcategoryInput struct {
	Name      string `json:"name" binding:"required,max=120"`
	Slug      string `json:"slug" binding:"omitempty,max=120"`
	Color     string `json:"color" binding:"omitempty,max=32"`
	IsActive  *bool  `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}
