package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"legal-fee-tracker-go/internal/backend"
	"legal-fee-tracker-go/internal/database"
	"legal-fee-tracker-go/internal/identity"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/session"
	"legal-fee-tracker-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	Config  *models.Config
	Session *session.Context
	Backend *backend.HTTPClient
	Catalog *Catalog
}

// InitializeLogger installs a production logger as the global zap logger.
// LOG_LEVEL=debug switches to a development logger.
func InitializeLogger(level string) (*zap.Logger, func()) {
	var (
		logger *zap.Logger
		err    error
	)
	if strings.EqualFold(level, "debug") {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		if lvl, perr := zapcore.ParseLevel(level); perr == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the session store, restores any persisted
// session and builds the backend client. The catalog is optional: a
// missing file only disables suggestions.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	sessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpClient, err := NewHttpClient(cfg.Backend.Timeout)
	if err != nil {
		sessions.Close()
		return nil, err
	}

	provider := identity.NewKeyFileProvider(cfg.Identity.Dir, httpClient)
	sess, err := session.New(provider, sessions, session.Options{
		IdentityProvider: cfg.Identity.ProviderURL,
		MaxTimeToLive:    cfg.Identity.MaxTimeToLive,
		IdleTimeout:      cfg.Session.IdleTimeout,
		InitTimeout:      cfg.Session.InitTimeout,
	})
	if err != nil {
		sessions.Close()
		return nil, err
	}

	if err := sess.Initialize(ctx); err != nil {
		// An expired or unreadable session leaves the user logged out.
		zap.L().Warn("Session not restored", zap.Error(err))
	}

	client, err := backend.NewHTTPClient(cfg.Backend, httpClient)
	if err != nil {
		sess.Close()
		return nil, err
	}

	catalog, err := LoadCatalog(cfg.CatalogFile)
	if err != nil {
		zap.L().Debug("Catalog not loaded", zap.String("file", cfg.CatalogFile), zap.Error(err))
		catalog = &Catalog{}
	}

	zap.L().Info("Services initialized",
		zap.String("backend_url", cfg.Backend.URL),
		zap.String("canister_id", cfg.Backend.CanisterId),
		zap.String("session_backend", cfg.Session.Backend))

	return &Services{
		Config:  cfg,
		Session: sess,
		Backend: client,
		Catalog: catalog,
	}, nil
}

func openSessionStore(ctx context.Context, cfg *models.Config) (store.SessionStore, error) {
	switch cfg.Session.Backend {
	case "", SessionBackendSQLite:
		return database.NewService(ctx, cfg.Database)
	case SessionBackendRedis:
		return database.NewRedisService(ctx, cfg.Redis, cfg.Identity.MaxTimeToLive)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Session != nil {
		cs.Session.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
