package psql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

const listingColumns = `id, resource, title, attributes, images, is_active, is_featured, user_id, role, created_at, updated_at`

// ListingRepository implements domain.ListingRepository using PostgreSQL
type ListingRepository struct {
	db DB
}

// NewListingRepository creates a new PostgreSQL listing repository
func NewListingRepository(db DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	var attrs []byte
	err := row.Scan(&l.ID, &l.Resource, &l.Title, &attrs, &l.Images, &l.IsActive, &l.IsFeatured,
		&l.UserID, &l.Role, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Attributes = map[string]any{}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &l.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of listing %s: %w", l.ID, err)
		}
	}
	l.Images = nonNil(l.Images)
	return &l, nil
}

// List returns the listings of one resource, newest first
func (r *ListingRepository) List(ctx context.Context, resource string, filter domain.ListingFilter) ([]domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE resource = $1`
	args := []any{resource}
	idx := 2

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, filter.UserID)
		idx++
	}
	if filter.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", idx)
		args = append(args, filter.Role)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

// Get retrieves one listing of a resource
func (r *ListingRepository) Get(ctx context.Context, resource, id string) (*domain.Listing, error) {
	row := r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE resource = $1 AND id = $2`, resource, id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("query listing: %w", err)
	}
	return l, nil
}

// Create inserts a listing whose id and timestamps are already set
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	attrs, err := jsonText(l.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO listings (id, resource, title, attributes, images, is_active, is_featured, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::text[], $6, $7, $8, $9, $10, $11)`,
		l.ID, l.Resource, l.Title, attrs, nonNil(l.Images), l.IsActive, l.IsFeatured, l.UserID, l.Role, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// Update replaces every mutable column of a listing
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	attrs, err := jsonText(l.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE listings SET
			title       = $3,
			attributes  = $4::jsonb,
			images      = $5::text[],
			is_active   = $6,
			is_featured = $7,
			user_id     = $8,
			role        = $9,
			updated_at  = $10
		WHERE resource = $1 AND id = $2`,
		l.Resource, l.ID, l.Title, attrs, nonNil(l.Images), l.IsActive, l.IsFeatured, l.UserID, l.Role, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// Delete removes a listing
func (r *ListingRepository) Delete(ctx context.Context, resource, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM listings WHERE resource = $1 AND id = $2`, resource, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// Toggle flips is_active or is_featured in a single statement
func (r *ListingRepository) Toggle(ctx context.Context, resource, id string, flag domain.ListingFlag) (*domain.Listing, error) {
	var column string
	switch flag {
	case domain.FlagActive:
		column = "is_active"
	case domain.FlagFeatured:
		column = "is_featured"
	default:
		return nil, fmt.Errorf("unknown listing flag %q", flag)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE listings SET `+column+` = NOT `+column+`, updated_at = now()
		WHERE resource = $1 AND id = $2
		RETURNING `+listingColumns, resource, id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("toggle %s: %w", column, err)
	}
	return l, nil
}

// CountByResource aggregates listing counts for analytics
func (r *ListingRepository) CountByResource(ctx context.Context) ([]domain.ResourceCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT resource,
		       count(*),
		       count(*) FILTER (WHERE is_active),
		       count(*) FILTER (WHERE is_featured)
		FROM listings
		GROUP BY resource
		ORDER BY resource`)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	defer rows.Close()

	counts := []domain.ResourceCount{}
	for rows.Next() {
		var c domain.ResourceCount
		if err := rows.Scan(&c.Resource, &c.Total, &c.Active, &c.Featured); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
