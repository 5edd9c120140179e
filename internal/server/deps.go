package server

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/config"
	"github.com/duynhne/classifieds-service/internal/catalog"
	database "github.com/duynhne/classifieds-service/internal/core"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/core/repository/memory"
	"github.com/duynhne/classifieds-service/internal/core/repository/psql"
	"github.com/duynhne/classifieds-service/internal/events"
	logicv1 "github.com/duynhne/classifieds-service/internal/logic/v1"
	"github.com/duynhne/classifieds-service/internal/storage"
)

// Deps are the stateful collaborators the services run on
type Deps struct {
	Listings   domain.ListingRepository
	Categories domain.CategoryRepository
	Users      domain.UserRepository
	ProFields  domain.ProFieldRepository
	Store      storage.Store
	Events     events.Publisher
	Catalog    *catalog.Catalog

	pool *pgxpool.Pool
}

// MemoryDeps returns in-memory repositories over store
func MemoryDeps(store storage.Store) Deps {
	return Deps{
		Listings:   memory.NewListingRepository(),
		Categories: memory.NewCategoryRepository(),
		Users:      memory.NewUserRepository(),
		ProFields:  memory.NewProFieldRepository(),
		Store:      store,
		Events:     events.Nop{},
		Catalog:    catalog.MustLoad(),
	}
}

// PostgresDeps returns repositories backed by pool
func PostgresDeps(pool *pgxpool.Pool, store storage.Store) Deps {
	return Deps{
		Listings:   psql.NewListingRepository(pool),
		Categories: psql.NewCategoryRepository(pool),
		Users:      psql.NewUserRepository(pool),
		ProFields:  psql.NewProFieldRepository(pool),
		Store:      store,
		Events:     events.Nop{},
		Catalog:    catalog.MustLoad(),
		pool:       pool,
	}
}

// OpenDeps connects everything cfg describes: PostgreSQL (migrated) when a host is
// configured, in-memory repositories otherwise, the upload store and the event publisher.
// Close releases them.
func OpenDeps(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Deps, error) {
	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return Deps{}, fmt.Errorf("open storage: %w", err)
	}

	var deps Deps
	if cfg.HasDatabase() {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			_ = store.Close(ctx)
			return Deps{}, fmt.Errorf("connect database: %w", err)
		}
		logger.Info("Database connection pool established")

		applied, err := database.Migrate(ctx, pool, logger)
		if err != nil {
			pool.Close()
			_ = store.Close(ctx)
			return Deps{}, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Database migrated", zap.Strings("applied", applied))
		deps = PostgresDeps(pool, store)
	} else {
		logger.Warn("DB_HOST not set, using in-memory repositories")
		deps = MemoryDeps(store)
		if err := bootstrapMemory(ctx, cfg, deps, logger); err != nil {
			_ = store.Close(ctx)
			return Deps{}, fmt.Errorf("bootstrap in-memory repositories: %w", err)
		}
	}

	pub, err := events.New(cfg.Events, logger)
	if err != nil {
		deps.Close(ctx, logger)
		return Deps{}, fmt.Errorf("open events: %w", err)
	}
	deps.Events = pub
	return deps, nil
}

// bootstrapMemory seeds the picker categories and, when ADMIN_EMAIL is set, an admin
// account. The CLI cannot reach an in-memory store from its own process.
func bootstrapMemory(ctx context.Context, cfg *config.Config, deps Deps, logger *zap.Logger) error {
	created, err := logicv1.NewCategoryService(deps.Categories).Seed(ctx, deps.Catalog.SeedCategories())
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	logger.Info("Categories seeded", zap.Int("created", created))

	if cfg.Auth.AdminEmail == "" {
		return nil
	}
	auth := logicv1.NewAuthService(deps.Users, deps.Categories, deps.ProFields, nil)
	admin, err := auth.CreateAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, "Admin")
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("Admin created", zap.String("email", admin.Email))
	return nil
}

// Close releases the publisher, the store and the database pool, in that order.
func (d Deps) Close(ctx context.Context, logger *zap.Logger) {
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			logger.Error("Event publisher close error", zap.Error(err))
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(ctx); err != nil {
			logger.Error("Storage close error", zap.Error(err))
		}
	}
	if d.pool != nil {
		d.pool.Close()
		logger.Info("Database pool closed")
	}
}
