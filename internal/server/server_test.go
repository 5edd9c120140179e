package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/classifieds-service/internal/attach"
	"github.com/duynhne/classifieds-service/internal/client"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/server/servertest"
)

func vehicle() domain.ListingInput {
	return domain.ListingInput{
		Title: "Tata Nexon XZ+",
		Attributes: map[string]any{
			"brand":   "Tata",
			"model":   "Nexon",
			"year":    2021,
			"price":   850000,
			"city":    "Pune",
			"contact": "9876543210",
		},
		Images: []string{},
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func rawRequest(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestServer_HealthReadyMetrics(t *testing.T) {
	env := servertest.New(t)

	resp, _ := rawRequest(t, http.MethodGet, env.HTTP.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = rawRequest(t, http.MethodGet, env.HTTP.URL+"/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	rawRequest(t, http.MethodGet, env.HTTP.URL+"/api/admin/vehicles", "", nil)
	resp, body := rawRequest(t, http.MethodGet, env.HTTP.URL+"/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `path="/api/admin/:resource"`)

	env.Server.StartDraining()
	resp, _ = rawRequest(t, http.MethodGet, env.HTTP.URL+"/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	env := servertest.New(t)

	req, err := http.NewRequest(http.MethodOptions, env.HTTP.URL+"/api/admin/vehicles", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestServer_ListingLifecycle(t *testing.T) {
	env := servertest.New(t)
	ctx := context.Background()
	alice := env.User(t, "alice@example.com")
	bob := env.User(t, "bob@example.com")

	api := client.NewResource[domain.Listing](alice, "vehicles")
	created, err := api.Create(ctx, vehicle())
	require.NoError(t, err)
	aliceID, _ := alice.Session().Identity()
	assert.Equal(t, aliceID, created.UserID)
	assert.True(t, created.IsActive)

	list, err := api.List(ctx, domain.ListingFilter{UserID: aliceID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	toggled, err := api.ToggleFeatured(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsFeatured)
	assert.True(t, toggled.IsActive)

	// someone else's listing
	bobAPI := client.NewResource[domain.Listing](bob, "vehicles")
	_, err = bobAPI.ToggleActive(ctx, created.ID)
	assert.True(t, client.IsStatus(err, http.StatusForbidden), "got %v", err)
	err = bobAPI.Delete(ctx, created.ID)
	assert.True(t, client.IsStatus(err, http.StatusForbidden), "got %v", err)

	view, err := alice.Details(ctx, "vehicles", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, view.Title)
	assert.NotEmpty(t, view.Fields)

	require.NoError(t, api.Delete(ctx, created.ID))
	_, err = api.Get(ctx, created.ID)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestServer_Errors(t *testing.T) {
	env := servertest.New(t)
	alice := env.User(t, "alice@example.com")
	token := alice.Session().Token()

	resp, body := rawRequest(t, http.MethodGet, env.HTTP.URL+"/api/admin/spaceships", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unknown resource"}`, string(body))

	resp, _ = rawRequest(t, http.MethodPost, env.HTTP.URL+"/api/admin/vehicles", "", vehicle())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bad := vehicle()
	delete(bad.Attributes, "brand")
	resp, body = rawRequest(t, http.MethodPost, env.HTTP.URL+"/api/admin/vehicles", token, bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `"brand"`)

	resp, _ = rawRequest(t, http.MethodGet, env.HTTP.URL+"/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = rawRequest(t, http.MethodPost, env.HTTP.URL+"/api/admin/categories", token, domain.CategoryInput{Name: "Boats"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = rawRequest(t, http.MethodPost, env.HTTP.URL+"/api/auth/login", "", domain.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = rawRequest(t, http.MethodGet, env.HTTP.URL+"/api/files/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_AdminCategoriesAndStats(t *testing.T) {
	env := servertest.New(t)
	ctx := context.Background()
	admin := env.Admin(t, "admin@example.com")

	cat, err := admin.CreateCategory(ctx, domain.CategoryInput{Name: "Boats & Yachts", Color: "#0ea5e9"})
	require.NoError(t, err)
	assert.Equal(t, "boats-and-yachts", cat.Slug)

	inactive := false
	_, err = admin.CreateSubcategory(ctx, cat.ID, domain.SubcategoryInput{Name: "Sailboats"})
	require.NoError(t, err)
	_, err = admin.CreateSubcategory(ctx, cat.ID, domain.SubcategoryInput{Name: "Jet skis", IsActive: &inactive})
	require.NoError(t, err)

	all, err := admin.Categories(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Subcategories, 2)

	active, err := admin.Categories(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Len(t, active[0].Subcategories, 1)
	assert.Equal(t, "Sailboats", active[0].Subcategories[0].Name)

	_, err = admin.CreateCategory(ctx, domain.CategoryInput{Name: "Boats and Yachts"})
	assert.True(t, client.IsStatus(err, http.StatusConflict))

	env.User(t, "alice@example.com")
	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.Categories)
}

func TestServer_UploadAndServe(t *testing.T) {
	env := servertest.New(t)
	ctx := context.Background()
	anon := env.Client()

	data := pngBytes(t)
	url, err := anon.Upload(ctx, "photo.png", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/api/files/"), url)

	resp, body := rawRequest(t, http.MethodGet, env.HTTP.URL+url, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, data, body)

	_, err = anon.Upload(ctx, "notes.txt", "text/plain", strings.NewReader("hello"))
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestServer_UploadBodyOverLimit(t *testing.T) {
	env := servertest.New(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	_, err = part.Write(make([]byte, attach.MaxFileSize+2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.Server.Engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"File exceeds 5 MB"}`, rec.Body.String())
}
