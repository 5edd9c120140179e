// Package servertest runs the full HTTP service on in-memory repositories for tests of the
// packages that talk to it, and records the requests their clients send.
package servertest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/config"
	"github.com/duynhne/classifieds-service/internal/client"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/server"
	"github.com/duynhne/classifieds-service/internal/storage"
)

// Password is used for every account the helpers create.
const Password = "correct-horse-battery"

// Config returns a valid configuration with tracing and profiling off.
func Config(t testing.TB) *config.Config {
	t.Helper()
	return &config.Config{
		Service:   config.ServiceConfig{Name: "classifieds-test", Port: "0", Version: "test", Env: "development"},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Auth:      config.AuthConfig{JWTSecret: "test-secret-0123456789abcdef0123456789", TokenTTL: 1, Issuer: "classifieds-test"},
		Upload:    config.UploadConfig{MaxWidth: 1600},
		Storage:   config.StorageConfig{Driver: config.StorageLocal, LocalDir: t.TempDir()},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Tracing:   config.TracingConfig{Enabled: false},
		Profiling: config.ProfilingConfig{Enabled: false},
	}
}

// Env is a running service.
type Env struct {
	HTTP     *httptest.Server
	Server   *server.Server
	Deps     server.Deps
	Config   *config.Config
	Requests *Recorder
}

// New starts the service and stops it when the test ends.
func New(t testing.TB) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := Config(t)
	store, err := storage.NewLocal(cfg.Storage.LocalDir)
	require.NoError(t, err)

	deps := server.MemoryDeps(store)
	srv := server.New(cfg, zap.NewNop(), deps)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &Env{HTTP: ts, Server: srv, Deps: deps, Config: cfg, Requests: &Recorder{}}
}

// Client returns an anonymous client whose requests are recorded.
func (e *Env) Client() *client.Client {
	return client.New(e.HTTP.URL, client.WithHTTPClient(&http.Client{
		Transport: &recordingTransport{next: http.DefaultTransport, rec: e.Requests},
	}))
}

// Admin creates an admin account and returns a client logged in as it.
func (e *Env) Admin(t testing.TB, email string) *client.Client {
	t.Helper()
	_, err := e.Server.Services.Auth.CreateAdmin(context.Background(), email, Password, "Admin")
	require.NoError(t, err)
	return e.login(t, email)
}

// User signs up a plain user account and returns a client logged in as it.
func (e *Env) User(t testing.TB, email string) *client.Client {
	t.Helper()
	_, err := e.Server.Services.Auth.Signup(context.Background(), domain.SignupRequest{
		FirstName:   "Test",
		Email:       email,
		Phone:       "9000000000",
		Password:    Password,
		AccountType: domain.AccountUser,
		Country:     "India",
		City:        "Pune",
	})
	require.NoError(t, err)
	return e.login(t, email)
}

func (e *Env) login(t testing.TB, email string) *client.Client {
	t.Helper()
	c := e.Client()
	_, err := c.Login(context.Background(), email, Password)
	require.NoError(t, err)
	e.Requests.Reset()
	return c
}

// SeedCategories loads the catalog's picker categories into the repository.
func (e *Env) SeedCategories(t testing.TB) []domain.Category {
	t.Helper()
	ctx := context.Background()
	_, err := e.Server.Services.Categories.Seed(ctx, e.Deps.Catalog.SeedCategories())
	require.NoError(t, err)
	cats, err := e.Server.Services.Categories.List(ctx, false)
	require.NoError(t, err)
	return cats
}

// Request is one recorded HTTP request.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Recorder keeps the requests sent by the Env's clients.
type Recorder struct {
	mu   sync.Mutex
	reqs []Request
}

// All returns the recorded requests in order.
func (r *Recorder) All() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.reqs)
}

// Writes returns the recorded non-GET requests.
func (r *Recorder) Writes() []Request {
	return slices.DeleteFunc(r.All(), func(req Request) bool { return req.Method == http.MethodGet })
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = nil
}

func (r *Recorder) add(req Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

type recordingTransport struct {
	next http.RoundTripper
	rec  *Recorder
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	t.rec.add(Request{Method: req.Method, Path: req.URL.RequestURI(), Body: body})
	return t.next.RoundTrip(req)
}
