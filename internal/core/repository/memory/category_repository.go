package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// CategoryRepository implements domain.CategoryRepository in memory
type CategoryRepository struct {
	mu            sync.RWMutex
	categories    map[string]domain.Category
	subcategories map[string]domain.Subcategory
}

// NewCategoryRepository creates an empty category repository
func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{
		categories:    map[string]domain.Category{},
		subcategories: map[string]domain.Subcategory{},
	}
}

func sortCategories(cs []domain.Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].SortOrder != cs[j].SortOrder {
			return cs[i].SortOrder < cs[j].SortOrder
		}
		return cs[i].Name < cs[j].Name
	})
}

func sortSubcategories(ss []domain.Subcategory) {
	sort.SliceStable(ss, func(i, j int) bool {
		if ss[i].SortOrder != ss[j].SortOrder {
			return ss[i].SortOrder < ss[j].SortOrder
		}
		return ss[i].Name < ss[j].Name
	})
}

// children must be called with the lock held
func (r *CategoryRepository) children(parentID string, activeOnly bool) []domain.Subcategory {
	subs := []domain.Subcategory{}
	for _, s := range r.subcategories {
		if s.ParentCategoryID != parentID || (activeOnly && !s.IsActive) {
			continue
		}
		subs = append(subs, s)
	}
	sortSubcategories(subs)
	return subs
}

// List returns categories with their subcategories in display order
func (r *CategoryRepository) List(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Category{}
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		c.Subcategories = r.children(c.ID, activeOnly)
		out = append(out, c)
	}
	sortCategories(out)
	return out, nil
}

// Get retrieves a category with all of its subcategories
func (r *CategoryRepository) Get(_ context.Context, id string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	c.Subcategories = r.children(id, false)
	return &c, nil
}

func (r *CategoryRepository) slugTaken(slug, exceptID string) bool {
	for id, c := range r.categories {
		if id != exceptID && c.Slug == slug {
			return true
		}
	}
	return false
}

// Create stores a category; slugs are unique
func (r *CategoryRepository) Create(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(c.Slug, "") {
		return domain.ErrSlugTaken
	}
	stored := *c
	stored.Subcategories = nil
	r.categories[c.ID] = stored
	return nil
}

// Update replaces a category's own fields
func (r *CategoryRepository) Update(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.categories[c.ID]
	if !ok {
		return domain.ErrCategoryNotFound
	}
	if r.slugTaken(c.Slug, c.ID) {
		return domain.ErrSlugTaken
	}
	stored := *c
	stored.Subcategories = nil
	stored.CreatedAt = cur.CreatedAt
	r.categories[c.ID] = stored
	return nil
}

// Delete removes a category and its subcategories
func (r *CategoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.categories, id)
	for sid, s := range r.subcategories {
		if s.ParentCategoryID == id {
			delete(r.subcategories, sid)
		}
	}
	return nil
}

// GetSubcategory retrieves one subcategory
func (r *CategoryRepository) GetSubcategory(_ context.Context, id string) (*domain.Subcategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subcategories[id]
	if !ok {
		return nil, domain.ErrSubcategoryNotFound
	}
	return &s, nil
}

func (r *CategoryRepository) subSlugTaken(parentID, slug, exceptID string) bool {
	return slices.ContainsFunc(r.children(parentID, false), func(s domain.Subcategory) bool {
		return s.ID != exceptID && s.Slug == slug
	})
}

// CreateSubcategory stores a subcategory under an existing parent
func (r *CategoryRepository) CreateSubcategory(_ context.Context, s *domain.Subcategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[s.ParentCategoryID]; !ok {
		return domain.ErrCategoryNotFound
	}
	if r.subSlugTaken(s.ParentCategoryID, s.Slug, "") {
		return domain.ErrSlugTaken
	}
	r.subcategories[s.ID] = *s
	return nil
}

// UpdateSubcategory replaces a subcategory's fields; the parent is kept
func (r *CategoryRepository) UpdateSubcategory(_ context.Context, s *domain.Subcategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.subcategories[s.ID]
	if !ok {
		return domain.ErrSubcategoryNotFound
	}
	if r.subSlugTaken(cur.ParentCategoryID, s.Slug, s.ID) {
		return domain.ErrSlugTaken
	}
	next := *s
	next.ParentCategoryID = cur.ParentCategoryID
	next.CreatedAt = cur.CreatedAt
	r.subcategories[s.ID] = next
	return nil
}

// DeleteSubcategory removes a subcategory
func (r *CategoryRepository) DeleteSubcategory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subcategories[id]; !ok {
		return domain.ErrSubcategoryNotFound
	}
	delete(r.subcategories, id)
	return nil
}
