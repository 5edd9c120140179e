package v1

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/classifieds-service/internal/attach"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/middleware"
)

// LoginRoute is where a client goes after a successful signup
const LoginRoute = "/login"

// AuthService handles signup, login and the current-user lookup
type AuthService struct {
	users      domain.UserRepository
	categories domain.CategoryRepository
	proFields  domain.ProFieldRepository
	tokens     *middleware.TokenIssuer
}

// NewAuthService creates a new auth service
func NewAuthService(users domain.UserRepository, categories domain.CategoryRepository, proFields domain.ProFieldRepository, tokens *middleware.TokenIssuer) *AuthService {
	return &AuthService{users: users, categories: categories, proFields: proFields, tokens: tokens}
}

// Signup creates a user account from the merged wizard payload
func (s *AuthService) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signup", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("account_type", req.AccountType),
	))
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("validate email %q: %w", req.Email, domain.ErrInvalidEmail)
	}

	// User accounts do not pick interests; anything carried over from a back-and-forth is dropped.
	if req.AccountType == domain.AccountUser {
		req.CategoryIDs = nil
		req.SubcategoryIDs = nil
	}

	fields := map[string]string{}
	if err := s.checkSelections(ctx, req, fields); err != nil {
		return nil, err
	}
	for i, doc := range req.Documents {
		if !attach.IsStableURL(doc) {
			fields[fmt.Sprintf("documents[%d]", i)] = "Document must be uploaded before signup"
		}
	}
	if req.AccountType == domain.AccountPro {
		if err := s.checkProProfile(ctx, req.ProProfile, fields); err != nil {
			return nil, err
		}
	} else {
		req.ProProfile = nil
	}
	if err := domain.NewValidationError(fields); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.NewString(),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          req.Email,
		Phone:          strings.TrimSpace(req.Phone),
		Role:           domain.RoleUser,
		AccountType:    req.AccountType,
		Country:        req.Country,
		State:          req.State,
		City:           req.City,
		Address:        req.Address,
		Pincode:        req.Pincode,
		CategoryIDs:    nonNilIDs(req.CategoryIDs),
		SubcategoryIDs: nonNilIDs(req.SubcategoryIDs),
		Documents:      nonNilIDs(req.Documents),
		ProProfile:     req.ProProfile,
		PasswordHash:   string(hash),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create user %q: %w", req.Email, err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID), attribute.Bool("user.created", true))
	span.AddEvent("user.created")
	return &domain.SignupResult{User: user, Redirect: LoginRoute}, nil
}

// checkSelections requires non-user accounts to pick existing, active categories and
// subcategories that belong to one of the picked categories.
func (s *AuthService) checkSelections(ctx context.Context, req domain.SignupRequest, fields map[string]string) error {
	if req.AccountType == domain.AccountUser {
		return nil
	}
	if len(req.CategoryIDs) == 0 {
		fields["categoryIds"] = "Select at least one category"
	}
	if len(req.SubcategoryIDs) == 0 {
		fields["subcategoryIds"] = "Select at least one subcategory"
	}
	if len(fields) > 0 {
		return nil
	}

	categories, err := s.categories.List(ctx, true)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	parentOf := map[string]string{}
	known := map[string]bool{}
	for _, c := range categories {
		known[c.ID] = true
		for _, sub := range c.Subcategories {
			parentOf[sub.ID] = c.ID
		}
	}
	for _, id := range req.CategoryIDs {
		if !known[id] {
			fields["categoryIds"] = fmt.Sprintf("Unknown category %q", id)
			return nil
		}
	}
	for _, id := range req.SubcategoryIDs {
		parent, ok := parentOf[id]
		if !ok {
			fields["subcategoryIds"] = fmt.Sprintf("Unknown subcategory %q", id)
			return nil
		}
		if !slices.Contains(req.CategoryIDs, parent) {
			fields["subcategoryIds"] = fmt.Sprintf("Subcategory %q does not belong to a selected category", id)
			return nil
		}
	}
	return nil
}

func (s *AuthService) checkProProfile(ctx context.Context, profile map[string]string, fields map[string]string) error {
	schema, err := s.proFields.List(ctx)
	if err != nil {
		return fmt.Errorf("list pro fields: %w", err)
	}
	for _, f := range schema {
		if f.Required && strings.TrimSpace(profile[f.Key]) == "" {
			fields["proProfile."+f.Key] = f.Label + " is required"
		}
	}
	return nil
}

// Login checks credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID), attribute.Bool("auth.success", true))
	return &domain.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.me", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", userID, err)
	}
	return user, nil
}

// CreateAdmin creates an admin account, used by the CLI to bootstrap a deployment
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, firstName string) (*domain.User, error) {
	if len(password) < 8 {
		return nil, domain.NewValidationError(map[string]string{"password": "Password must be at least 8 characters"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.NewString(),
		FirstName:      firstName,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Role:           domain.RoleAdmin,
		AccountType:    domain.AccountUser,
		CategoryIDs:    []string{},
		SubcategoryIDs: []string{},
		Documents:      []string{},
		PasswordHash:   string(hash),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin %q: %w", user.Email, err)
	}
	return user, nil
}

func nonNilIDs(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
