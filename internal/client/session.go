package client

import (
	"sync"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

// Session holds the authenticated identity. It is populated once at login and read by
// every form that stamps userId/role into its payloads.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *domain.User
}

// NewSession returns an anonymous session.
func NewSession() *Session {
	return &Session{}
}

// Set stores a login result.
func (s *Session) Set(ls *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ls.Token
	s.user = ls.User
}

// Clear forgets the identity.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

// Token is the bearer token, empty when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the logged-in user, or nil.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Identity returns the user id and role, empty when anonymous.
func (s *Session) Identity() (userID, role string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return "", ""
	}
	return s.user.ID, s.user.Role
}

// IsAdmin reports whether the logged-in user is an admin.
func (s *Session) IsAdmin() bool {
	_, role := s.Identity()
	return role == domain.RoleAdmin
}
