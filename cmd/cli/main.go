// Command cli administers a classifieds deployment: schema migrations, the first admin
// account, category seeding, and smoke checks plus dashboard reads against a running API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/duynhne/classifieds-service/config"
	"github.com/duynhne/classifieds-service/internal/catalog"
	"github.com/duynhne/classifieds-service/internal/client"
	database "github.com/duynhne/classifieds-service/internal/core"
	"github.com/duynhne/classifieds-service/internal/dashboard"
	"github.com/duynhne/classifieds-service/internal/form"
	"github.com/duynhne/classifieds-service/internal/server"
	"github.com/duynhne/classifieds-service/middleware"
)

const usage = `usage: cli <command> [flags]

commands:
  migrate        apply pending database migrations
  create-admin   create an admin account (-email, -password, -name)
  seed           create the catalog's picker categories that are missing
  smoke          create, toggle and delete a listing through a running API
  dashboard      print one dashboard section from a running API as YAML
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg := config.Load()
	logger, err := middleware.NewLogger(config.LoggingConfig{Level: cfg.Logging.Level, Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		err = runMigrate(ctx, cfg, logger)
	case "create-admin":
		err = runCreateAdmin(ctx, cfg, logger, args)
	case "seed":
		err = runSeed(ctx, cfg, logger)
	case "smoke":
		err = runSmoke(ctx, logger, args)
	case "dashboard":
		err = runDashboard(ctx, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", zap.String("command", cmd), zap.Error(err))
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if !cfg.HasDatabase() {
		return errors.New("DB_HOST is not set")
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := database.Migrate(ctx, pool, logger)
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", zap.Strings("versions", applied))
	return nil
}

// openServices connects the configured backends. Without DB_HOST the in-memory
// repositories are used, which is only useful for trying the commands out.
func openServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*server.Services, server.Deps, error) {
	deps, err := server.OpenDeps(ctx, cfg, logger)
	if err != nil {
		return nil, server.Deps{}, err
	}
	return server.NewServices(cfg, logger, deps), deps, nil
}

func runCreateAdmin(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (default $ADMIN_PASSWORD)")
	name := fs.String("name", "Admin", "first name")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}

	services, deps, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background(), logger)

	user, err := services.Auth.CreateAdmin(ctx, *email, *password, *name)
	if err != nil {
		return err
	}
	logger.Info("Admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	services, deps, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background(), logger)

	created, err := services.Categories.Seed(ctx, deps.Catalog.SeedCategories())
	if err != nil {
		return err
	}
	logger.Info("Categories seeded", zap.Int("created", created))
	return nil
}

type apiFlags struct {
	baseURL  string
	email    string
	password string
}

func (f *apiFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.baseURL, "url", "http://localhost:8080", "API base URL")
	fs.StringVar(&f.email, "email", os.Getenv("ADMIN_EMAIL"), "login email (default $ADMIN_EMAIL)")
	fs.StringVar(&f.password, "password", os.Getenv("ADMIN_PASSWORD"), "login password (default $ADMIN_PASSWORD)")
}

func (f *apiFlags) login(ctx context.Context) (*client.Client, error) {
	c := client.New(f.baseURL)
	if f.email == "" || f.password == "" {
		return nil, errors.New("-email and -password are required")
	}
	if _, err := c.Login(ctx, f.email, f.password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return c, nil
}

// runSmoke walks one listing through create, details, toggle and delete using the same
// form code a UI would use.
func runSmoke(ctx context.Context, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("smoke", flag.ExitOnError)
	var api apiFlags
	api.register(fs)
	resource := fs.String("resource", "services", "listing resource to exercise")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	c, err := api.login(ctx)
	if err != nil {
		return err
	}
	schema, ok := catalog.MustLoad().Lookup(*resource)
	if !ok {
		return fmt.Errorf("unknown resource %q", *resource)
	}

	f := form.New(c, schema)
	f.SetTitle("Smoke test " + time.Now().UTC().Format(time.RFC3339))
	for _, field := range schema.Fields {
		if !field.Required {
			continue
		}
		if err := f.Set(field.Key, sampleValue(field)); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		return err
	}
	if _, err := f.AttachImage(ctx, "smoke.png", "image/png", int64(buf.Len()), &buf); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	created, err := f.Submit(ctx)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	logger.Info("Listing created", zap.String("id", created.ID))

	view, err := c.Details(ctx, *resource, created.ID)
	if err != nil {
		return fmt.Errorf("details: %w", err)
	}
	for _, field := range view.Fields {
		logger.Info("Detail", zap.String("label", field.Label), zap.String("value", field.Value))
	}

	toggled, err := f.ToggleActive(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	if toggled.IsActive == created.IsActive {
		return errors.New("toggle-active did not flip isActive")
	}

	if _, err := f.Delete(ctx, created.ID, nil); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	logger.Info("Smoke test passed", zap.String("resource", *resource))
	return nil
}

func sampleValue(field catalog.Field) any {
	switch field.Widget {
	case catalog.WidgetNumber:
		return float64(2020)
	case catalog.WidgetCheckbox:
		return true
	case catalog.WidgetSelect:
		return field.Options[0]
	case catalog.WidgetDate:
		return time.Now().UTC().Format(time.DateOnly)
	case catalog.WidgetTel:
		return "9000000000"
	}
	return "smoke"
}

func runDashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	var api apiFlags
	api.register(fs)
	section := fs.String("section", string(dashboard.SectionDashboard), "section to print")
	_ = fs.Parse(args)

	c, err := api.login(ctx)
	if err != nil {
		return err
	}
	shell := dashboard.New(c)
	if err := shell.Select(dashboard.Section(*section)); err != nil {
		return err
	}
	data, err := shell.Load(ctx)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(toPlain(data))
}

// toPlain turns API types into maps so the YAML keys match the JSON field names.
func toPlain(v any) any {
	var out any
	if err := roundTrip(v, &out); err != nil {
		return v
	}
	return out
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
