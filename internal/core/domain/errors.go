package domain

import "errors"

// Sentinel errors for marketplace operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	// HTTP Status: 404 Not Found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates a user with the same email already exists.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidEmail indicates the provided email address is invalid.
	// HTTP Status: 400 Bad Request
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidCredentials indicates a login with an unknown email or a wrong password.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized indicates the user is not authorized to perform the operation.
	// HTTP Status: 403 Forbidden
	ErrUnauthorized = errors.New("unauthorized access")

	// ErrUnknownResource indicates a listing resource slug that is not in the catalog.
	// HTTP Status: 404 Not Found
	ErrUnknownResource = errors.New("unknown resource")

	// ErrListingNotFound indicates the requested listing does not exist in the resource.
	// HTTP Status: 404 Not Found
	ErrListingNotFound = errors.New("listing not found")

	// ErrCategoryNotFound indicates the requested category does not exist.
	// HTTP Status: 404 Not Found
	ErrCategoryNotFound = errors.New("category not found")

	// ErrSubcategoryNotFound indicates the requested subcategory does not exist.
	// HTTP Status: 404 Not Found
	ErrSubcategoryNotFound = errors.New("subcategory not found")

	// ErrSlugTaken indicates a category or subcategory slug collision.
	// HTTP Status: 409 Conflict
	ErrSlugTaken = errors.New("slug already in use")

	// ErrProFieldNotFound indicates the requested pro-profile field does not exist.
	// HTTP Status: 404 Not Found
	ErrProFieldNotFound = errors.New("pro field not found")

	// ErrFileNotFound indicates an upload key that storage does not know.
	// HTTP Status: 404 Not Found
	ErrFileNotFound = errors.New("file not found")
)

// ValidationError carries field-level messages for a rejected payload.
// HTTP Status: 400 Bad Request
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError returns nil when fields is empty so callers can return it directly.
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
