package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/duynhne/classifieds-service/internal/catalog"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/middleware"
)

// CategoryService manages the category tree used by the signup picker and admin dialogs
type CategoryService struct {
	repo domain.CategoryRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Slugify lowercases s, strips accents and joins the remaining words with hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == '&':
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
			}
			b.WriteString("and")
			dash = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func slugFor(name, slug string) string {
	if slug = strings.TrimSpace(slug); slug != "" {
		return Slugify(slug)
	}
	return Slugify(name)
}

func activeOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// List returns every category with nested subcategories; activeOnly keeps only active ones at both levels
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	ctx, span := middleware.StartSpan(ctx, "category.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Bool("category.active_only", activeOnly),
	))
	defer span.End()

	categories, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list categories: %w", err)
	}
	span.SetAttributes(attribute.Int("category.count", len(categories)))
	return categories, nil
}

// Get retrieves one category
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", id, err)
	}
	return c, nil
}

// Create adds a category
func (s *CategoryService) Create(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	ctx, span := middleware.StartSpan(ctx, "category.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("category.name", in.Name),
	))
	defer span.End()

	now := time.Now().UTC()
	c := &domain.Category{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Slug:          slugFor(in.Name, in.Slug),
		Color:         in.Color,
		IsActive:      activeOr(in.IsActive, true),
		SortOrder:     in.SortOrder,
		Subcategories: []domain.Subcategory{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if c.Slug == "" {
		return nil, domain.NewValidationError(map[string]string{"name": "Name must contain letters or digits"})
	}
	if err := s.repo.Create(ctx, c); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create category %q: %w", c.Slug, err)
	}
	return c, nil
}

// Update replaces a category's fields. An omitted isActive keeps the current value.
func (s *CategoryService) Update(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	ctx, span := middleware.StartSpan(ctx, "category.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("category.id", id),
	))
	defer span.End()

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", id, err)
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Slug = slugFor(in.Name, in.Slug)
	c.Color = in.Color
	c.IsActive = activeOr(in.IsActive, c.IsActive)
	c.SortOrder = in.SortOrder
	c.UpdatedAt = time.Now().UTC()
	if c.Slug == "" {
		return nil, domain.NewValidationError(map[string]string{"name": "Name must contain letters or digits"})
	}
	if err := s.repo.Update(ctx, c); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update category %q: %w", id, err)
	}
	return c, nil
}

// Delete removes a category with its subcategories
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category %q: %w", id, err)
	}
	return nil
}

// CreateSubcategory adds a subcategory under parentID
func (s *CategoryService) CreateSubcategory(ctx context.Context, parentID string, in domain.SubcategoryInput) (*domain.Subcategory, error) {
	ctx, span := middleware.StartSpan(ctx, "subcategory.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("category.id", parentID),
	))
	defer span.End()

	parent, err := s.repo.Get(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", parentID, err)
	}

	now := time.Now().UTC()
	sub := &domain.Subcategory{
		ID:               uuid.NewString(),
		ParentCategoryID: parent.ID,
		Name:             strings.TrimSpace(in.Name),
		Slug:             slugFor(in.Name, in.Slug),
		Color:            in.Color,
		IsActive:         activeOr(in.IsActive, true),
		SortOrder:        in.SortOrder,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if sub.Color == "" {
		sub.Color = parent.Color
	}
	if sub.Slug == "" {
		return nil, domain.NewValidationError(map[string]string{"name": "Name must contain letters or digits"})
	}
	if err := s.repo.CreateSubcategory(ctx, sub); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create subcategory %q: %w", sub.Slug, err)
	}
	return sub, nil
}

// UpdateSubcategory replaces a subcategory's fields; it stays under its parent
func (s *CategoryService) UpdateSubcategory(ctx context.Context, id string, in domain.SubcategoryInput) (*domain.Subcategory, error) {
	sub, err := s.repo.GetSubcategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get subcategory %q: %w", id, err)
	}
	sub.Name = strings.TrimSpace(in.Name)
	sub.Slug = slugFor(in.Name, in.Slug)
	if in.Color != "" {
		sub.Color = in.Color
	}
	sub.IsActive = activeOr(in.IsActive, sub.IsActive)
	sub.SortOrder = in.SortOrder
	sub.UpdatedAt = time.Now().UTC()
	if sub.Slug == "" {
		return nil, domain.NewValidationError(map[string]string{"name": "Name must contain letters or digits"})
	}
	if err := s.repo.UpdateSubcategory(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subcategory %q: %w", id, err)
	}
	return sub, nil
}

// DeleteSubcategory removes a subcategory
func (s *CategoryService) DeleteSubcategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteSubcategory(ctx, id); err != nil {
		return fmt.Errorf("delete subcategory %q: %w", id, err)
	}
	return nil
}

// Seed creates the catalog's picker categories that are missing, matched by slug.
// It returns how many categories were created.
func (s *CategoryService) Seed(ctx context.Context, seeds []catalog.SeedCategory) (int, error) {
	existing, err := s.repo.List(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Slug] = true
	}

	created := 0
	for i, seed := range seeds {
		if have[Slugify(seed.Name)] {
			continue
		}
		c, err := s.Create(ctx, domain.CategoryInput{Name: seed.Name, Color: seed.Color, SortOrder: i})
		if err != nil {
			if errors.Is(err, domain.ErrSlugTaken) {
				continue
			}
			return created, err
		}
		for j, name := range seed.Subcategories {
			if _, err := s.CreateSubcategory(ctx, c.ID, domain.SubcategoryInput{Name: name, SortOrder: j}); err != nil {
				return created, err
			}
		}
		created++
	}
	return created, nil
}
