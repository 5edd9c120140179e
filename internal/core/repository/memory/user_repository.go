package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// UserRepository implements domain.UserRepository in memory
type UserRepository struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	byEmail map[string]string
}

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]domain.User{}, byEmail: map[string]string{}}
}

func cloneUser(u domain.User) domain.User {
	u.CategoryIDs = append([]string{}, u.CategoryIDs...)
	u.SubcategoryIDs = append([]string{}, u.SubcategoryIDs...)
	u.Documents = append([]string{}, u.Documents...)
	u.ProProfile = maps.Clone(u.ProProfile)
	return u
}

// Create stores a user; emails are unique case-insensitively
func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.byEmail[key]; exists {
		return domain.ErrUserExists
	}
	r.users[u.ID] = cloneUser(*u)
	r.byEmail[key] = u.ID
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

// GetByEmail retrieves a user by case-insensitive email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// List returns users newest first
func (r *UserRepository) List(_ context.Context, filter domain.UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.User{}
	for _, u := range r.users {
		if filter.AccountType != "" && u.AccountType != filter.AccountType {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return slices.Clip(out), nil
}
