package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/core/domain"
)

const testSecret = "test-secret-0123456789abcdef0123456789"

func testUser() *domain.User {
	return &domain.User{ID: "u1", Role: domain.RoleUser, AccountType: domain.AccountSeller}
}

func TestTokenIssuer_IssueParse(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour, "classifieds")

	token, expiresAt, err := tokens.Issue(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, domain.AccountSeller, claims.AccountType)
}

func TestTokenIssuer_ParseRejects(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour, "classifieds")

	other, _, err := NewTokenIssuer("another-secret-0123456789abcdef0123", time.Hour, "classifieds").Issue(testUser())
	require.NoError(t, err)
	_, err = tokens.Parse(other)
	assert.Error(t, err, "wrong secret")

	foreign, _, err := NewTokenIssuer(testSecret, time.Hour, "someone-else").Issue(testUser())
	require.NoError(t, err)
	_, err = tokens.Parse(foreign)
	assert.Error(t, err, "wrong issuer")

	expired, _, err := NewTokenIssuer(testSecret, -time.Minute, "classifieds").Issue(testUser())
	require.NoError(t, err)
	_, err = tokens.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1", Issuer: "classifieds"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(none)
	assert.Error(t, err, "alg none")
}

func newAuthRouter(tokens *TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	identity := func(c *gin.Context) {
		actor := ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": actor.UserID, "role": actor.Role})
	}
	r.GET("/private", AuthMiddleware(tokens, zap.NewNop()), identity)
	r.GET("/admin", AuthMiddleware(tokens, zap.NewNop()), RequireRole(domain.RoleAdmin), identity)
	r.GET("/public", OptionalAuth(tokens), identity)
	return r
}

func get(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour, "classifieds")
	r := newAuthRouter(tokens)
	token, _, err := tokens.Issue(testUser())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authentication required"},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "Invalid authorization header"},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
		{"valid", "Bearer " + token, http.StatusOK, `"userId":"u1"`},
		{"lowercase scheme", "bearer " + token, http.StatusOK, `"userId":"u1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/private", tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour, "classifieds")
	r := newAuthRouter(tokens)

	userToken, _, err := tokens.Issue(testUser())
	require.NoError(t, err)
	adminToken, _, err := tokens.Issue(&domain.User{ID: "a1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", "Bearer "+adminToken).Code)
}

func TestOptionalAuth(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, time.Hour, "classifieds")
	r := newAuthRouter(tokens)
	token, _, err := tokens.Issue(testUser())
	require.NoError(t, err)

	w := get(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"","role":""}`, w.Body.String())

	w = get(r, "/public", "Bearer broken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"","role":""}`, w.Body.String())

	w = get(r, "/public", "Bearer "+token)
	assert.JSONEq(t, `{"userId":"u1","role":"user"}`, w.Body.String())
}
