package dashboard_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/classifieds-service/internal/client"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/dashboard"
	"github.com/duynhne/classifieds-service/internal/server/servertest"
)

func TestShell_Select(t *testing.T) {
	s := dashboard.New(servertest.New(t).Client())
	assert.Equal(t, dashboard.SectionDashboard, s.Selected())
	assert.Len(t, dashboard.Sections(), 7)

	require.NoError(t, s.Select(dashboard.SectionUsers))
	assert.Equal(t, dashboard.SectionUsers, s.Selected())

	assert.Error(t, s.Select("billing"))
	assert.Equal(t, dashboard.SectionUsers, s.Selected())
}

func TestShell_LoadFetchesOnlySelectedSection(t *testing.T) {
	env := servertest.New(t)
	env.SeedCategories(t)
	admin := env.Admin(t, "admin@example.com")
	env.User(t, "alice@example.com")
	env.Requests.Reset()

	s := dashboard.New(admin)
	tests := []struct {
		section dashboard.Section
		path    string
		check   func(t *testing.T, v any)
	}{
		{dashboard.SectionDashboard, "/api/admin/stats", func(t *testing.T, v any) {
			stats, ok := v.(*domain.Stats)
			require.True(t, ok)
			assert.Equal(t, 2, stats.Users)
		}},
		{dashboard.SectionCategories, "/api/admin/categories", func(t *testing.T, v any) {
			cats, ok := v.([]domain.Category)
			require.True(t, ok)
			assert.NotEmpty(t, cats)
		}},
		{dashboard.SectionUsers, "/api/admin/users", func(t *testing.T, v any) {
			users, ok := v.([]domain.User)
			require.True(t, ok)
			assert.Len(t, users, 2)
		}},
		{dashboard.SectionProperties, "/api/admin/property-deals", func(t *testing.T, v any) {
			_, ok := v.([]domain.Listing)
			assert.True(t, ok)
		}},
		{dashboard.SectionAgencies, "/api/admin/users?accountType=pro", func(t *testing.T, v any) {
			users, ok := v.([]domain.User)
			require.True(t, ok)
			assert.Empty(t, users)
		}},
		{dashboard.SectionSettings, "/api/admin/pro-fields", func(t *testing.T, v any) {
			_, ok := v.([]domain.ProField)
			assert.True(t, ok)
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			env.Requests.Reset()
			require.NoError(t, s.Select(tt.section))
			v, err := s.Load(context.Background())
			require.NoError(t, err)
			tt.check(t, v)

			reqs := env.Requests.All()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.path, reqs[0].Path)
		})
	}
}

func TestShell_NonAdminIsRefused(t *testing.T) {
	env := servertest.New(t)
	s := dashboard.New(env.User(t, "alice@example.com"))
	require.NoError(t, s.Select(dashboard.SectionUsers))

	_, err := s.Load(context.Background())
	assert.True(t, client.IsStatus(err, http.StatusForbidden), "got %v", err)
}
