// Package wizard drives the four-step signup flow: identity, account type, category picker
// and location. Each step validates only its own fields; the draft is sent once on Submit.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/duynhne/classifieds-service/internal/attach"
	"github.com/duynhne/classifieds-service/internal/client"
	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// Step is a wizard page.
type Step int

const (
	StepIdentity Step = iota + 1
	StepAccountType
	StepCategories
	StepLocation
)

func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepAccountType:
		return "account-type"
	case StepCategories:
		return "categories"
	case StepLocation:
		return "location"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// MaxDocuments caps the documents attached at signup.
const MaxDocuments = 5

var (
	ErrWrongStep         = errors.New("not available on this step")
	ErrCategoryNotLoaded = errors.New("category not offered")
	ErrParentNotSelected = errors.New("parent category not selected")
	ErrTooManyDocuments  = errors.New("document limit reached")
)

// StepError lists the fields that keep the current step from advancing.
type StepError struct {
	Step   Step
	Fields map[string]string
}

func (e *StepError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return fmt.Sprintf("%s step incomplete: %s", e.Step, strings.Join(keys, ", "))
}

// Identity is step 1.
type Identity struct {
	FirstName       string `json:"firstName" validate:"required,max=80"`
	LastName        string `json:"lastName" validate:"omitempty,max=80"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,max=20"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Location is step 4. Documents are collected with AttachDocument.
type Location struct {
	Country string `json:"country" validate:"required,max=80"`
	State   string `json:"state" validate:"omitempty,max=80"`
	City    string `json:"city" validate:"required,max=80"`
	Address string `json:"address" validate:"omitempty,max=255"`
	Pincode string `json:"pincode" validate:"omitempty,max=12,numeric"`
}

type accountStep struct {
	AccountType string `json:"accountType" validate:"required,oneof=user buyer seller pro"`
}

type categoriesStep struct {
	CategoryIDs    []string `json:"categoryIds" validate:"min=1"`
	SubcategoryIDs []string `json:"subcategoryIds" validate:"min=1"`
}

// Draft accumulates every step until Submit. It is never sent partially.
type Draft struct {
	Identity       Identity
	AccountType    string
	CategoryIDs    []string
	SubcategoryIDs []string
	Location       Location
	Documents      []string
	ProProfile     map[string]string
}

// Wizard is not safe for concurrent use.
type Wizard struct {
	client     *client.Client
	validate   *validator.Validate
	step       Step
	draft      Draft
	categories []domain.Category
	loaded     bool
}

// New starts a wizard at the identity step.
func New(c *client.Client) *Wizard {
	return &Wizard{
		client:   c,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		step:     StepIdentity,
	}
}

// Step is the current page.
func (w *Wizard) Step() Step { return w.step }

// Draft returns a copy of the accumulated values.
func (w *Wizard) Draft() Draft {
	d := w.draft
	d.CategoryIDs = slices.Clone(w.draft.CategoryIDs)
	d.SubcategoryIDs = slices.Clone(w.draft.SubcategoryIDs)
	d.Documents = slices.Clone(w.draft.Documents)
	return d
}

// SetIdentity fills step 1.
func (w *Wizard) SetIdentity(id Identity) {
	id.Email = strings.TrimSpace(id.Email)
	w.draft.Identity = id
}

// SetAccountType fills step 2.
func (w *Wizard) SetAccountType(accountType string) {
	w.draft.AccountType = strings.ToLower(strings.TrimSpace(accountType))
}

// SetLocation fills step 4.
func (w *Wizard) SetLocation(loc Location) {
	w.draft.Location = loc
}

// SetProProfile fills the pro profile answers sent with pro accounts.
func (w *Wizard) SetProProfile(profile map[string]string) {
	w.draft.ProProfile = profile
}

// skipsCategories reports whether the account type bypasses the category picker.
func (w *Wizard) skipsCategories() bool {
	return w.draft.AccountType == domain.AccountUser
}

// Next validates the current step and advances. Leaving AccountType loads the category
// picker unless the account type skips it.
func (w *Wizard) Next(ctx context.Context) error {
	switch w.step {
	case StepIdentity:
		if err := w.check(w.draft.Identity); err != nil {
			return err
		}
		w.step = StepAccountType
	case StepAccountType:
		if err := w.check(accountStep{AccountType: w.draft.AccountType}); err != nil {
			return err
		}
		if w.skipsCategories() {
			w.step = StepLocation
			return nil
		}
		if err := w.LoadCategories(ctx); err != nil {
			return err
		}
		w.step = StepCategories
	case StepCategories:
		if err := w.check(categoriesStep{CategoryIDs: w.draft.CategoryIDs, SubcategoryIDs: w.draft.SubcategoryIDs}); err != nil {
			return err
		}
		w.step = StepLocation
	case StepLocation:
		return fmt.Errorf("next: %w; use Submit", ErrWrongStep)
	}
	return nil
}

// Back returns to the previous step without re-validating. From Location it skips the
// category picker for accounts that skipped it going forward.
func (w *Wizard) Back() {
	switch w.step {
	case StepAccountType:
		w.step = StepIdentity
	case StepCategories:
		w.step = StepAccountType
	case StepLocation:
		if w.skipsCategories() {
			w.step = StepAccountType
		} else {
			w.step = StepCategories
		}
	}
}

func (w *Wizard) check(v any) error {
	err := w.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[jsonName(fe.Field())] = message(fe)
	}
	return &StepError{Step: w.step, Fields: fields}
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	name := strings.ToLower(field[:1]) + field[1:]
	return strings.ReplaceAll(name, "IDs", "Ids")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		if fe.Kind().String() == "slice" {
			return "Select at least " + fe.Param()
		}
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "numeric":
		return "Must contain digits only"
	}
	return "Invalid value"
}

// LoadCategories fetches active categories with their active subcategories once.
func (w *Wizard) LoadCategories(ctx context.Context) error {
	if w.loaded {
		return nil
	}
	cats, err := w.client.Categories(ctx, true)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	w.categories = cats
	w.loaded = true
	return nil
}

// Categories are the picker options.
func (w *Wizard) Categories() []domain.Category { return w.categories }

func (w *Wizard) findCategory(id string) (*domain.Category, bool) {
	for i := range w.categories {
		if w.categories[i].ID == id {
			return &w.categories[i], true
		}
	}
	return nil, false
}

func (w *Wizard) findSubcategory(id string) (*domain.Subcategory, bool) {
	for i := range w.categories {
		for j := range w.categories[i].Subcategories {
			if w.categories[i].Subcategories[j].ID == id {
				return &w.categories[i].Subcategories[j], true
			}
		}
	}
	return nil, false
}

// ToggleCategory selects or deselects a category. Deselecting removes exactly the selected
// subcategories whose parent is that category.
func (w *Wizard) ToggleCategory(id string) error {
	if w.step != StepCategories {
		return fmt.Errorf("toggle category: %w", ErrWrongStep)
	}
	if _, ok := w.findCategory(id); !ok {
		return fmt.Errorf("category %q: %w", id, ErrCategoryNotLoaded)
	}
	if i := slices.Index(w.draft.CategoryIDs, id); i >= 0 {
		w.draft.CategoryIDs = slices.Delete(w.draft.CategoryIDs, i, i+1)
		w.draft.SubcategoryIDs = slices.DeleteFunc(w.draft.SubcategoryIDs, func(subID string) bool {
			sub, ok := w.findSubcategory(subID)
			return ok && sub.ParentCategoryID == id
		})
		return nil
	}
	w.draft.CategoryIDs = append(w.draft.CategoryIDs, id)
	return nil
}

// ToggleSubcategory selects or deselects a subcategory of a selected category.
func (w *Wizard) ToggleSubcategory(id string) error {
	if w.step != StepCategories {
		return fmt.Errorf("toggle subcategory: %w", ErrWrongStep)
	}
	if i := slices.Index(w.draft.SubcategoryIDs, id); i >= 0 {
		w.draft.SubcategoryIDs = slices.Delete(w.draft.SubcategoryIDs, i, i+1)
		return nil
	}
	sub, ok := w.findSubcategory(id)
	if !ok {
		return fmt.Errorf("subcategory %q: %w", id, ErrCategoryNotLoaded)
	}
	if !slices.Contains(w.draft.CategoryIDs, sub.ParentCategoryID) {
		return fmt.Errorf("subcategory %q: %w", id, ErrParentNotSelected)
	}
	w.draft.SubcategoryIDs = append(w.draft.SubcategoryIDs, id)
	return nil
}

// AttachDocument checks and uploads a document, storing the returned URL in the draft.
func (w *Wizard) AttachDocument(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if w.step != StepLocation {
		return "", fmt.Errorf("attach document: %w", ErrWrongStep)
	}
	if err := attach.Check(contentType, size); err != nil {
		return "", err
	}
	if len(w.draft.Documents) >= MaxDocuments {
		return "", ErrTooManyDocuments
	}
	url, err := w.client.Upload(ctx, filename, contentType, r)
	if err != nil {
		return "", err
	}
	w.draft.Documents = append(w.draft.Documents, url)
	return url, nil
}

// RemoveDocument drops the document at index i.
func (w *Wizard) RemoveDocument(i int) {
	if i >= 0 && i < len(w.draft.Documents) {
		w.draft.Documents = slices.Delete(w.draft.Documents, i, i+1)
	}
}

// Request merges the draft into the signup payload. User accounts carry no category
// selections even if some were made before switching account type.
func (w *Wizard) Request() domain.SignupRequest {
	d := w.Draft()
	req := domain.SignupRequest{
		FirstName:      d.Identity.FirstName,
		LastName:       d.Identity.LastName,
		Email:          d.Identity.Email,
		Phone:          d.Identity.Phone,
		Password:       d.Identity.Password,
		AccountType:    d.AccountType,
		CategoryIDs:    d.CategoryIDs,
		SubcategoryIDs: d.SubcategoryIDs,
		Country:        d.Location.Country,
		State:          d.Location.State,
		City:           d.Location.City,
		Address:        d.Location.Address,
		Pincode:        d.Location.Pincode,
		Documents:      d.Documents,
		ProProfile:     d.ProProfile,
	}
	if w.skipsCategories() {
		req.CategoryIDs = []string{}
		req.SubcategoryIDs = []string{}
	}
	if req.Documents == nil {
		req.Documents = []string{}
	}
	return req
}

// Submit validates the location step and posts the merged draft once. The returned
// result carries the route to continue to (login).
func (w *Wizard) Submit(ctx context.Context) (*domain.SignupResult, error) {
	if w.step != StepLocation {
		return nil, fmt.Errorf("submit: %w", ErrWrongStep)
	}
	if err := w.check(w.draft.Location); err != nil {
		return nil, err
	}
	return w.client.Signup(ctx, w.Request())
}
