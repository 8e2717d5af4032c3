package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
	"github.com/wanderlog/journal-gate/pkg/journalgate/api"
	"github.com/wanderlog/journal-gate/pkg/journalgate/repo/memory"
	repopg "github.com/wanderlog/journal-gate/pkg/journalgate/repo/postgres"
	memorystorage "github.com/wanderlog/journal-gate/pkg/journalgate/storage/memory"
	s3storage "github.com/wanderlog/journal-gate/pkg/journalgate/storage/s3"
)

// ServerConfig is the environment-driven configuration of the server binary.
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL  string `env:"DATABASE_URL"`

	JWTSecret string `env:"JWT_SECRET" env-default:"dev-secret"`

	PhotoBackend      string `env:"PHOTO_BACKEND" env-default:"memory"`
	S3Region          string `env:"S3_REGION"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`

	LogNotifications bool `env:"LOG_NOTIFICATIONS" env-default:"true"`
}

// Load reads the server configuration from the environment.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints the env tags cannot express.
func (c *ServerConfig) Validate() error {
	switch c.DatabaseType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database type %q", c.DatabaseType)
	}

	switch c.PhotoBackend {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 photo backend")
		}
	default:
		return fmt.Errorf("unknown photo backend %q", c.PhotoBackend)
	}
	return nil
}

// BuildRepository constructs the configured repository.
func (c *ServerConfig) BuildRepository(ctx context.Context) (journalgate.Repository, error) {
	switch c.DatabaseType {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return memory.New(), nil
	}
}

// BuildService constructs the engine from the configuration. The repository
// is returned alongside the service because the identity resolver needs
// direct principal lookups.
func (c *ServerConfig) BuildService(ctx context.Context) (journalgate.Service, journalgate.Repository, error) {
	repo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	var photoStore journalgate.BlobStore
	switch c.PhotoBackend {
	case "s3":
		photoStore, err = s3storage.New(s3storage.Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3UsePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("building s3 photo store: %w", err)
		}
	default:
		photoStore = memorystorage.New()
	}

	sink := journalgate.NewNoopEventSink()
	if c.LogNotifications {
		sink = journalgate.NewLoggingEventSink(slog.Default())
	}

	svc, err := journalgate.New(
		journalgate.WithRepository(repo),
		journalgate.WithEventSink(sink),
		journalgate.WithPhotoStore(photoStore),
	)
	if err != nil {
		return nil, nil, err
	}
	return svc, repo, nil
}

// BuildHandler assembles the full HTTP surface: standard chi middleware, the
// principal resolver, and the engine routes mounted under /api.
func (c *ServerConfig) BuildHandler(svc journalgate.Service, repo journalgate.Repository) http.Handler {
	tokenAuth := jwtauth.New("HS256", []byte(c.JWTSecret), nil)
	identity := api.NewJWTIdentity(tokenAuth, repo)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.PrincipalCtx(identity))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Mount("/api", api.NewHandler(svc).Routes())

	return r
}
