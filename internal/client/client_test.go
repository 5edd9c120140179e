package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/classifieds-service/internal/client"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/server/servertest"
)

func TestAPIError_Message(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Email already registered"}`, "Email already registered"},
		{"error field", http.StatusConflict, `{"error":"User already exists"}`, "User already exists"},
		{"raw text", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "", http.StatusText(http.StatusServiceUnavailable)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			err := client.New(ts.URL).Do(context.Background(), http.MethodGet, "/x", nil, nil)
			var apiErr *client.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Error())
		})
	}
}

func TestAPIError_Fields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Validation failed","fields":{"title":"Title is required"}}`))
	}))
	defer ts.Close()

	err := client.New(ts.URL).Do(context.Background(), http.MethodPost, "/x", map[string]string{}, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, map[string]string{"title": "Title is required"}, apiErr.Fields)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := client.New(ts.URL)
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/x", nil, nil))
	assert.Empty(t, got)

	c.Session().Set(&domain.Session{Token: "tok", User: &domain.User{ID: "u1", Role: domain.RoleAdmin}})
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/x", nil, nil))
	assert.Equal(t, "Bearer tok", got)
	assert.True(t, c.Session().IsAdmin())

	c.Logout()
	id, role := c.Session().Identity()
	assert.Empty(t, id)
	assert.Empty(t, role)
}

func TestCache_FetchAndInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := client.NewCache()
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	v, err := client.Cached(ctx, cache, "resource:vehicles/list", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, _ = client.Cached(ctx, cache, "resource:vehicles/list", fetch)
	assert.Equal(t, 1, v, "served from cache")

	_, _ = client.Cached(ctx, cache, "resource:rentals/list", fetch)
	cache.Invalidate("resource:vehicles")
	assert.Equal(t, 1, cache.Len())

	v, _ = client.Cached(ctx, cache, "resource:vehicles/list", fetch)
	assert.Equal(t, 3, v)
}

func TestCache_DoesNotStoreErrors(t *testing.T) {
	ctx := context.Background()
	cache := client.NewCache()
	boom := errors.New("boom")

	_, err := client.Cached(ctx, cache, "k", func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_SharesInFlightFetch(t *testing.T) {
	ctx := context.Background()
	cache := client.NewCache()
	release := make(chan struct{})
	var calls atomic.Int32

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Cached(ctx, cache, "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
		}()
	}
	// Let the first caller enter fn before the others arrive.
	for calls.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	v, err := client.Cached(ctx, cache, "k", func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.LessOrEqual(t, calls.Load(), int32(5))
}

func TestCache_FetchAfterInvalidateDoesNotJoinOlderFetch(t *testing.T) {
	ctx := context.Background()
	cache := client.NewCache()
	entered := make(chan struct{})
	release := make(chan struct{})

	oldDone := make(chan string)
	go func() {
		v, _ := client.Cached(ctx, cache, "list", func(context.Context) (string, error) {
			close(entered)
			<-release
			return "old-list", nil
		})
		oldDone <- v
	}()
	<-entered

	cache.Invalidate("list")

	v, err := client.Cached(ctx, cache, "list", func(context.Context) (string, error) {
		return "new-list", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new-list", v)

	close(release)
	assert.Equal(t, "old-list", <-oldDone)

	// The overlapping result must not replace the fresh one.
	v, err = client.Cached(ctx, cache, "list", func(context.Context) (string, error) {
		return "refetched", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new-list", v)
}

func TestResource_MutationInvalidatesList(t *testing.T) {
	env := servertest.New(t)
	ctx := context.Background()
	c := env.User(t, "alice@example.com")
	api := client.NewResource[domain.Listing](c, "rentals")

	list, err := api.List(ctx, domain.ListingFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = api.List(ctx, domain.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, env.Requests.All(), 1, "second list served from cache")

	created, err := api.Create(ctx, map[string]any{
		"title": "2BHK near metro",
		"attributes": map[string]any{
			"propertyType": "apartment",
			"rentPerMonth": 18000,
			"city":         "Kochi",
			"contact":      "9000000000",
		},
	})
	require.NoError(t, err)

	list, err = api.List(ctx, domain.ListingFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	patched, err := api.Patch(ctx, created.ID, map[string]any{"attributes": map[string]any{"furnished": true}})
	require.NoError(t, err)
	assert.Equal(t, true, patched.Attributes["furnished"])
	assert.Equal(t, "Kochi", patched.Attributes["city"])
}
