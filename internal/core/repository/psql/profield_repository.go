package psql

import (
	"context"
	"fmt"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// ProFieldRepository implements domain.ProFieldRepository using PostgreSQL
type ProFieldRepository struct {
	db DB
}

// NewProFieldRepository creates a new PostgreSQL pro field repository
func NewProFieldRepository(db DB) *ProFieldRepository {
	return &ProFieldRepository{db: db}
}

// List returns the pro profile schema in display order
func (r *ProFieldRepository) List(ctx context.Context) ([]domain.ProField, error) {
	rows, err := r.db.Query(ctx, `SELECT key, label, required, sort_order, created_at FROM pro_fields ORDER BY sort_order, key`)
	if err != nil {
		return nil, fmt.Errorf("query pro fields: %w", err)
	}
	defer rows.Close()

	fields := []domain.ProField{}
	for rows.Next() {
		var f domain.ProField
		if err := rows.Scan(&f.Key, &f.Label, &f.Required, &f.SortOrder, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pro field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// Upsert creates or replaces a field by key
func (r *ProFieldRepository) Upsert(ctx context.Context, f *domain.ProField) error {
	_, err := r.db.Exec(ctx, `INSERT INTO pro_fields (key, label, required, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET label = EXCLUDED.label, required = EXCLUDED.required, sort_order = EXCLUDED.sort_order`,
		f.Key, f.Label, f.Required, f.SortOrder, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert pro field: %w", err)
	}
	return nil
}

// Delete removes a field by key
func (r *ProFieldRepository) Delete(ctx context.Context, key string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pro_fields WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete pro field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProFieldNotFound
	}
	return nil
}
