package server_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/server"
	"github.com/duynhne/classifieds-service/internal/server/servertest"
)

func TestOpenDeps_InMemorySeedsCategoriesAndAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := servertest.Config(t)
	cfg.Auth.AdminEmail = "root@example.com"
	cfg.Auth.AdminPassword = servertest.Password

	deps, err := server.OpenDeps(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close(context.Background(), zap.NewNop()) })

	categories, err := deps.Categories.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, categories, len(deps.Catalog.SeedCategories()))
	for _, c := range categories {
		assert.NotEmpty(t, c.Subcategories, c.Name)
	}

	admin, err := deps.Users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestOpenDeps_InMemoryWithoutAdminEmail(t *testing.T) {
	ctx := context.Background()
	deps, err := server.OpenDeps(ctx, servertest.Config(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close(context.Background(), zap.NewNop()) })

	users, err := deps.Users.List(ctx, domain.UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, users)
}
