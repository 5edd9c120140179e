// Package client talks to the classifieds REST API: the HTTP plumbing, the session that
// identifies the caller, a query cache, and a generic CRUD resource per listing category.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/details"
)

// APIError is a non-2xx response. Message is the body's "message" or "error" field,
// or the raw body text when it is not JSON.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	cache   *Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession shares a session between clients.
func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

// New creates a client for the API at baseURL (scheme and host, no /api suffix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: NewSession(),
		cache:   NewCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session is the caller identity attached to every request.
func (c *Client) Session() *Session { return c.session }

// Cache is the query cache shared by the client's resources.
func (c *Client) Cache() *Cache { return c.cache }

// Do sends a JSON request and decodes a JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload struct {
		Message string            `json:"message"`
		Error   string            `json:"error"`
		Fields  map[string]string `json:"fields"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Fields = payload.Fields
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// Upload posts one file to /api/upload and returns its stable URL.
func (c *Client) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Login authenticates and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var s domain.Session
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", domain.LoginRequest{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	c.session.Set(&s)
	c.cache.Invalidate("")
	return &s, nil
}

// Logout forgets the session and every cached query.
func (c *Client) Logout() {
	c.session.Clear()
	c.cache.Invalidate("")
}

// Signup posts the merged wizard payload.
func (c *Client) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResult, error) {
	var res domain.SignupResult
	if err := c.Do(ctx, http.MethodPost, "/api/auth/signup", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CategoriesKey prefixes every cached category query.
const CategoriesKey = "categories"

// Categories lists categories with nested subcategories through the cache.
func (c *Client) Categories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	path := "/api/admin/categories"
	if activeOnly {
		path += "?active=true"
	}
	return Cached(ctx, c.cache, CategoriesKey+path, func(ctx context.Context) ([]domain.Category, error) {
		var out []domain.Category
		err := c.Do(ctx, http.MethodGet, path, nil, &out)
		return out, err
	})
}

// CreateCategory adds a category (admin).
func (c *Client) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	var out domain.Category
	if err := c.Do(ctx, http.MethodPost, "/api/admin/categories", in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(CategoriesKey)
	return &out, nil
}

// CreateSubcategory adds a subcategory under categoryID (admin).
func (c *Client) CreateSubcategory(ctx context.Context, categoryID string, in domain.SubcategoryInput) (*domain.Subcategory, error) {
	var out domain.Subcategory
	if err := c.Do(ctx, http.MethodPost, "/api/admin/categories/"+categoryID+"/subcategories", in, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate(CategoriesKey)
	return &out, nil
}

// Users lists users, optionally by account type (admin).
func (c *Client) Users(ctx context.Context, accountType string) ([]domain.User, error) {
	path := "/api/admin/users"
	if accountType != "" {
		path += "?accountType=" + accountType
	}
	return Cached(ctx, c.cache, "users"+path, func(ctx context.Context) ([]domain.User, error) {
		var out []domain.User
		err := c.Do(ctx, http.MethodGet, path, nil, &out)
		return out, err
	})
}

// Stats fetches the dashboard counters (admin). Not cached.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.Do(ctx, http.MethodGet, "/api/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProFields fetches the pro profile schema.
func (c *Client) ProFields(ctx context.Context) ([]domain.ProField, error) {
	return Cached(ctx, c.cache, "pro-fields", func(ctx context.Context) ([]domain.ProField, error) {
		var out []domain.ProField
		err := c.Do(ctx, http.MethodGet, "/api/admin/pro-fields", nil, &out)
		return out, err
	})
}

// SaveProField creates or replaces a pro profile field (admin).
func (c *Client) SaveProField(ctx context.Context, f domain.ProField) (*domain.ProField, error) {
	var out domain.ProField
	if err := c.Do(ctx, http.MethodPost, "/api/admin/pro-fields", f, &out); err != nil {
		return nil, err
	}
	c.cache.Invalidate("pro-fields")
	return &out, nil
}

// Details fetches the rendered details view of a listing.
func (c *Client) Details(ctx context.Context, resource, id string) (*details.View, error) {
	var out details.View
	if err := c.Do(ctx, http.MethodGet, "/api/listings/"+resource+"/"+id+"/details", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
