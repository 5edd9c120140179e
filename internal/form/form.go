// Package form is the schema-driven create/edit form of one listing resource. It validates
// against the catalog before any request is sent and submits through client.Resource.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/duynhne/classifieds-service/internal/attach"
	"github.com/duynhne/classifieds-service/internal/catalog"
	"github.com/duynhne/classifieds-service/internal/client"
	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// ErrUnknownField is returned by Set for keys outside the resource schema.
var ErrUnknownField = errors.New("unknown field")

// Form holds the values being entered for one listing. Not safe for concurrent use.
type Form struct {
	client   *client.Client
	schema   *catalog.Resource
	api      *client.Resource[domain.Listing]
	title    string
	values   map[string]any
	images   *attach.Images
	original *domain.Listing
	errors   map[string]string
}

// New binds a form to the resource schema.
func New(c *client.Client, schema *catalog.Resource) *Form {
	f := &Form{
		client: c,
		schema: schema,
		api:    client.NewResource[domain.Listing](c, schema.Slug),
	}
	f.Reset()
	return f
}

// Fields is the schema the form renders.
func (f *Form) Fields() []catalog.Field { return f.schema.Fields }

// API is the CRUD resource the form submits to.
func (f *Form) API() *client.Resource[domain.Listing] { return f.api }

// Reset clears every value and leaves edit mode.
func (f *Form) Reset() {
	f.title = ""
	f.values = map[string]any{}
	f.images = attach.NewImages(nil)
	f.original = nil
	f.errors = nil
}

// Edit pre-populates the form from an existing record and switches Submit to PUT.
func (f *Form) Edit(l *domain.Listing) {
	f.Reset()
	cp := *l
	cp.Attributes = maps.Clone(l.Attributes)
	cp.Images = slices.Clone(l.Images)
	f.original = &cp
	f.title = l.Title
	f.values = maps.Clone(l.Attributes)
	if f.values == nil {
		f.values = map[string]any{}
	}
	f.images = attach.NewImages(l.Images)
}

// Load fetches a record by id and calls Edit with it.
func (f *Form) Load(ctx context.Context, id string) error {
	l, err := f.api.Get(ctx, id)
	if err != nil {
		return err
	}
	f.Edit(l)
	return nil
}

// Editing is the id of the record under edit, empty in create mode.
func (f *Form) Editing() string {
	if f.original == nil {
		return ""
	}
	return f.original.ID
}

// Title is the entered title.
func (f *Form) Title() string { return f.title }

// SetTitle sets the title.
func (f *Form) SetTitle(title string) { f.title = title }

// Value returns the entered value for key.
func (f *Form) Value(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set stores a value for a schema field. A nil value clears it.
func (f *Form) Set(key string, v any) error {
	if _, ok := f.schema.Field(key); !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, key)
	}
	if v == nil {
		delete(f.values, key)
		return nil
	}
	f.values[key] = v
	return nil
}

// SetText stores text as entered in an input, converted for the field's widget:
// numbers become float64, checkboxes become bool, blank clears the value.
func (f *Form) SetText(key, text string) error {
	field, ok := f.schema.Field(key)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, key)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		delete(f.values, key)
		return nil
	}
	switch field.Widget {
	case catalog.WidgetNumber:
		n, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
		if err != nil {
			return fmt.Errorf("%s must be a number", field.Label)
		}
		f.values[key] = n
	case catalog.WidgetCheckbox:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("%s must be true or false", field.Label)
		}
		f.values[key] = b
	default:
		f.values[key] = text
	}
	return nil
}

// Images are the attached image URLs in order.
func (f *Form) Images() []string { return f.images.URLs() }

// AttachImage checks a picked file, uploads it and appends the returned URL.
// Nothing is uploaded when the file is rejected or the image list is full.
func (f *Form) AttachImage(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if err := attach.Check(contentType, size); err != nil {
		return "", err
	}
	if f.images.Remaining() <= 0 {
		return "", attach.ErrLimitReached
	}
	url, err := f.client.Upload(ctx, filename, contentType, r)
	if err != nil {
		return "", err
	}
	if err := f.images.Add(url); err != nil {
		return "", err
	}
	return url, nil
}

// RemoveImage drops the image at index i.
func (f *Form) RemoveImage(i int) {
	f.images.Remove(i)
}

// Errors are the field messages from the last Validate or rejected Submit.
func (f *Form) Errors() map[string]string { return f.errors }

// Validate checks the entered values against the schema.
func (f *Form) Validate() map[string]string {
	f.errors = f.schema.Validate(f.title, f.values)
	return f.errors
}

// Payload is the request body Submit sends. In edit mode the owner, flags and timestamps of
// the original record are kept; in create mode the session identity owns the new record.
func (f *Form) Payload() domain.ListingInput {
	in := domain.ListingInput{
		Title:      f.title,
		Attributes: maps.Clone(f.values),
		Images:     f.images.URLs(),
	}
	if f.original != nil {
		active, featured := f.original.IsActive, f.original.IsFeatured
		in.IsActive = &active
		in.IsFeatured = &featured
		in.UserID = f.original.UserID
		in.Role = f.original.Role
		return in
	}
	in.UserID, in.Role = f.client.Session().Identity()
	return in
}

// Submit validates and sends exactly one POST (create) or PUT (edit). On success the form is
// cleared; on failure the values stay and the error is returned.
func (f *Form) Submit(ctx context.Context) (*domain.Listing, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return nil, domain.NewValidationError(errs)
	}

	var (
		saved *domain.Listing
		err   error
	)
	if id := f.Editing(); id != "" {
		saved, err = f.api.Update(ctx, id, f.Payload())
	} else {
		saved, err = f.api.Create(ctx, f.Payload())
	}
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			f.errors = apiErr.Fields
		}
		return nil, err
	}
	f.Reset()
	return saved, nil
}

// Delete removes a record after confirm returns true. It reports whether a request was sent.
func (f *Form) Delete(ctx context.Context, id string, confirm func() bool) (bool, error) {
	if confirm != nil && !confirm() {
		return false, nil
	}
	if err := f.api.Delete(ctx, id); err != nil {
		return true, err
	}
	if f.Editing() == id {
		f.Reset()
	}
	return true, nil
}

// ToggleActive flips the record's active badge with a single PATCH.
func (f *Form) ToggleActive(ctx context.Context, id string) (*domain.ToggleResult, error) {
	return f.api.ToggleActive(ctx, id)
}

// ToggleFeatured flips the record's featured badge with a single PATCH.
func (f *Form) ToggleFeatured(ctx context.Context, id string) (*domain.ToggleResult, error) {
	return f.api.ToggleFeatured(ctx, id)
}
