package domain

import "time"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account types chosen in the signup wizard
const (
	AccountUser   = "user"
	AccountBuyer  = "buyer"
	AccountSeller = "seller"
	AccountPro    = "pro"
)

type User struct {
	ID             string            `json:"id"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone,omitempty"`
	Role           string            `json:"role"`
	AccountType    string            `json:"accountType"`
	Country        string            `json:"country,omitempty"`
	State          string            `json:"state,omitempty"`
	City           string            `json:"city,omitempty"`
	Address        string            `json:"address,omitempty"`
	Pincode        string            `json:"pincode,omitempty"`
	CategoryIDs    []string          `json:"categoryIds"`
	SubcategoryIDs []string          `json:"subcategoryIds"`
	Documents      []string          `json:"documents"`
	ProProfile     map[string]string `json:"proProfile,omitempty"`
	PasswordHash   string            `json:"-"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// SignupRequest is the merged wizard payload posted to /api/auth/signup.
type SignupRequest struct {
	FirstName      string            `json:"firstName" binding:"required,max=80"`
	LastName       string            `json:"lastName" binding:"omitempty,max=80"`
	Email          string            `json:"email" binding:"required,email"`
	Phone          string            `json:"phone" binding:"required,max=20"`
	Password       string            `json:"password" binding:"required,min=8,max=72"`
	AccountType    string            `json:"accountType" binding:"required,oneof=user buyer seller pro"`
	CategoryIDs    []string          `json:"categoryIds"`
	SubcategoryIDs []string          `json:"subcategoryIds"`
	Country        string            `json:"country" binding:"required,max=80"`
	State          string            `json:"state" binding:"omitempty,max=80"`
	City           string            `json:"city" binding:"required,max=80"`
	Address        string            `json:"address" binding:"omitempty,max=255"`
	Pincode        string            `json:"pincode" binding:"omitempty,max=12"`
	Documents      []string          `json:"documents"`
	ProProfile     map[string]string `json:"proProfile"`
}

// LoginRequest authenticates an existing user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Session is returned by login and identifies the caller for every later request.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// SignupResult tells the client where to go after a successful signup.
type SignupResult struct {
	User     *User  `json:"user"`
	Redirect string `json:"redirect"`
}

// UserFilter narrows the admin users list.
type UserFilter struct {
	AccountType string
	Role        string
}

// ProField is one admin-defined entry of the pro profile schema.
type ProField struct {
	Key       string    `json:"key" binding:"required,max=64"`
	Label     string    `json:"label" binding:"required,max=120"`
	Required  bool      `json:"required"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the caller may change a record owned by userID.
func (a Actor) Owns(userID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == userID)
}
