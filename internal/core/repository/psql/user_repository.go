package psql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

const userColumns = `id, first_name, last_name, email, phone, password_hash, role, account_type,
	country, state, city, address, pincode, category_ids, subcategory_ids, documents, pro_profile,
	created_at, updated_at`

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var proProfile []byte
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.AccountType,
		&u.Country, &u.State, &u.City, &u.Address, &u.Pincode, &u.CategoryIDs, &u.SubcategoryIDs, &u.Documents,
		&proProfile, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(proProfile) > 0 {
		if err := json.Unmarshal(proProfile, &u.ProProfile); err != nil {
			return nil, fmt.Errorf("decode pro profile of user %s: %w", u.ID, err)
		}
	}
	u.CategoryIDs = nonNil(u.CategoryIDs)
	u.SubcategoryIDs = nonNil(u.SubcategoryIDs)
	u.Documents = nonNil(u.Documents)
	return &u, nil
}

// Create inserts a user; a duplicate email maps to domain.ErrUserExists
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	var proProfile *string
	if len(u.ProProfile) > 0 {
		text, err := jsonText(u.ProProfile)
		if err != nil {
			return fmt.Errorf("encode pro profile: %w", err)
		}
		proProfile = &text
	}

	_, err := r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14::text[], $15::text[], $16::text[], $17::jsonb, $18, $19)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.Role, u.AccountType,
		u.Country, u.State, u.City, u.Address, u.Pincode,
		nonNil(u.CategoryIDs), nonNil(u.SubcategoryIDs), nonNil(u.Documents), proProfile,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by case-insensitive email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return u, nil
}

// List returns users newest first, optionally narrowed by account type and role
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE TRUE`
	var args []any
	if filter.AccountType != "" {
		args = append(args, filter.AccountType)
		query += fmt.Sprintf(" AND account_type = $%d", len(args))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
