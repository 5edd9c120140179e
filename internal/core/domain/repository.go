package domain

import "context"

// ListingRepository persists listings of every catalog resource
type ListingRepository interface {
	List(ctx context.Context, resource string, filter ListingFilter) ([]Listing, error)
	Get(ctx context.Context, resource, id string) (*Listing, error)
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, resource, id string) error
	// Toggle flips one flag server-side and returns the listing after the flip.
	Toggle(ctx context.Context, resource, id string, flag ListingFlag) (*Listing, error)
	CountByResource(ctx context.Context) ([]ResourceCount, error)
}

// CategoryRepository persists categories and their subcategories
type CategoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]Category, error)
	Get(ctx context.Context, id string) (*Category, error)
	Create(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id string) error
	GetSubcategory(ctx context.Context, id string) (*Subcategory, error)
	CreateSubcategory(ctx context.Context, sub *Subcategory) error
	UpdateSubcategory(ctx context.Context, sub *Subcategory) error
	DeleteSubcategory(ctx context.Context, id string) error
}

// UserRepository persists marketplace users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]User, error)
}

// ProFieldRepository persists the pro profile schema
type ProFieldRepository interface {
	List(ctx context.Context) ([]ProField, error)
	Upsert(ctx context.Context, field *ProField) error
	Delete(ctx context.Context, key string) error
}
