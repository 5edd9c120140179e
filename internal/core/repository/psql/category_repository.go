package psql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	db DB
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(db DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns categories ordered for display, each with its subcategories.
// activeOnly drops inactive categories and inactive subcategories.
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active"
	}

	rows, err := r.db.Query(ctx, `SELECT id, name, slug, color, is_active, sort_order, created_at, updated_at
		FROM categories`+where+` ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	categories := []domain.Category{}
	index := map[string]int{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Subcategories = []domain.Subcategory{}
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	subs, err := r.querySubcategories(ctx, "", activeOnly)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		if i, ok := index[s.ParentCategoryID]; ok {
			categories[i].Subcategories = append(categories[i].Subcategories, s)
		}
	}
	return categories, nil
}

func (r *CategoryRepository) querySubcategories(ctx context.Context, parentID string, activeOnly bool) ([]domain.Subcategory, error) {
	query := `SELECT id, parent_category_id, name, slug, color, is_active, sort_order, created_at, updated_at
		FROM subcategories WHERE TRUE`
	var args []any
	if parentID != "" {
		query += " AND parent_category_id = $1"
		args = append(args, parentID)
	}
	if activeOnly {
		query += " AND is_active"
	}
	query += " ORDER BY sort_order, name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subcategories: %w", err)
	}
	defer rows.Close()

	subs := []domain.Subcategory{}
	for rows.Next() {
		var s domain.Subcategory
		if err := rows.Scan(&s.ID, &s.ParentCategoryID, &s.Name, &s.Slug, &s.Color, &s.IsActive, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Get retrieves a category with all of its subcategories
func (r *CategoryRepository) Get(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRow(ctx, `SELECT id, name, slug, color, is_active, sort_order, created_at, updated_at
		FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	c.Subcategories, err = r.querySubcategories(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a category
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.db.Exec(ctx, `INSERT INTO categories (id, name, slug, color, is_active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Slug, c.Color, c.IsActive, c.SortOrder, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update replaces a category's own columns (subcategories are managed separately)
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	tag, err := r.db.Exec(ctx, `UPDATE categories
		SET name = $2, slug = $3, color = $4, is_active = $5, sort_order = $6, updated_at = $7
		WHERE id = $1`,
		c.ID, c.Name, c.Slug, c.Color, c.IsActive, c.SortOrder, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category; its subcategories go with it (ON DELETE CASCADE)
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// GetSubcategory retrieves one subcategory
func (r *CategoryRepository) GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error) {
	var s domain.Subcategory
	err := r.db.QueryRow(ctx, `SELECT id, parent_category_id, name, slug, color, is_active, sort_order, created_at, updated_at
		FROM subcategories WHERE id = $1`, id).
		Scan(&s.ID, &s.ParentCategoryID, &s.Name, &s.Slug, &s.Color, &s.IsActive, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("query subcategory: %w", err)
	}
	return &s, nil
}

// CreateSubcategory inserts a subcategory under its parent
func (r *CategoryRepository) CreateSubcategory(ctx context.Context, s *domain.Subcategory) error {
	_, err := r.db.Exec(ctx, `INSERT INTO subcategories
		(id, parent_category_id, name, slug, color, is_active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.ParentCategoryID, s.Name, s.Slug, s.Color, s.IsActive, s.SortOrder, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("insert subcategory: %w", err)
	}
	return nil
}

// UpdateSubcategory replaces a subcategory's columns; the parent never changes
func (r *CategoryRepository) UpdateSubcategory(ctx context.Context, s *domain.Subcategory) error {
	tag, err := r.db.Exec(ctx, `UPDATE subcategories
		SET name = $2, slug = $3, color = $4, is_active = $5, sort_order = $6, updated_at = $7
		WHERE id = $1`,
		s.ID, s.Name, s.Slug, s.Color, s.IsActive, s.SortOrder, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("update subcategory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubcategoryNotFound
	}
	return nil
}

// DeleteSubcategory removes a subcategory
func (r *CategoryRepository) DeleteSubcategory(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubcategoryNotFound
	}
	return nil
}
