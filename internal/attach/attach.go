// Package attach holds the rules for files attached to listings and signup documents.
// The client checks them before uploading and the upload endpoint checks them again
// against the sniffed content.
package attach

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// MaxFileSize is the per-file ceiling (5 MiB).
const MaxFileSize int64 = 5 << 20

// MaxImages caps the images array of one listing.
const MaxImages = domain.MaxListingImages

// AllowedTypes lists the accepted MIME types.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrEmptyFile       = errors.New("empty file")
	ErrLimitReached    = errors.New("image limit reached")
)

// Check validates one file before it is uploaded.
func Check(contentType string, size int64) error {
	if !Allowed(contentType) {
		return fmt.Errorf("%w: %q (allowed: jpeg, png, webp, gif)", ErrUnsupportedType, contentType)
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, MaxFileSize)
	}
	return nil
}

// Allowed reports whether contentType (parameters ignored) is accepted.
func Allowed(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return slices.Contains(AllowedTypes, strings.ToLower(strings.TrimSpace(mediaType)))
}

// Images is the ordered, capped list of image URLs a form is building.
type Images struct {
	urls []string
}

// NewImages starts from existing URLs (edit mode). Anything past the cap is dropped.
func NewImages(urls []string) *Images {
	if len(urls) > MaxImages {
		urls = urls[:MaxImages]
	}
	return &Images{urls: slices.Clone(urls)}
}

// Add appends url. Existing entries are never replaced.
func (im *Images) Add(url string) error {
	if len(im.urls) >= MaxImages {
		return ErrLimitReached
	}
	im.urls = append(im.urls, url)
	return nil
}

// Remove drops the entry at index i; out of range is a no-op.
func (im *Images) Remove(i int) {
	if i < 0 || i >= len(im.urls) {
		return
	}
	im.urls = slices.Delete(im.urls, i, i+1)
}

// Remaining is how many more images fit.
func (im *Images) Remaining() int {
	return MaxImages - len(im.urls)
}

func (im *Images) Len() int { return len(im.urls) }

// URLs returns a copy, never nil.
func (im *Images) URLs() []string {
	if im.urls == nil {
		return []string{}
	}
	return slices.Clone(im.urls)
}

var stablePrefixes = []string{"https://", "http://", "/api/files/"}

// IsStableURL reports whether ref can be resolved by a server later: an absolute http(s)
// URL or a path served by this API. Browser-local blob: and data: references are not.
func IsStableURL(ref string) bool {
	for _, prefix := range stablePrefixes {
		if rest, ok := strings.CutPrefix(ref, prefix); ok {
			return rest != ""
		}
	}
	return false
}
