// Package appctx provides application context helpers.
package appctx

import (
	"context"
	"log/slog"
	"os"

	"github.com/transitnet/transitnet-cli/internal/api"
	"github.com/transitnet/transitnet-cli/internal/auth"
	"github.com/transitnet/transitnet-cli/internal/config"
	"github.com/transitnet/transitnet-cli/internal/prefs"
)

// contextKey is a private type for context keys.
type contextKey string

const appKey contextKey = "app"

// App holds the shared application context for all commands.
type App struct {
	Config   *config.Config
	Auth     *auth.Manager
	API      *api.Client
	Prefs    *prefs.Store
	Registry *api.Registry
	Logger   *slog.Logger

	// Flags holds the global flag values
	Flags GlobalFlags
}

// GlobalFlags holds values for global CLI flags.
type GlobalFlags struct {
	// Config overrides
	Domain   string
	ClientID string
	APIBase  string

	// Behavior flags
	Verbose int // 0=off, 1=debug logging
}

// NewApp creates a new App with the given configuration.
func NewApp(cfg *config.Config) *App {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	configDir := config.GlobalConfigDir()
	keys := auth.NewKeySet(cfg.JWKSURL(), nil, logger)
	validator := auth.NewValidator(cfg.IssuerURL(), cfg.APIBase, keys, logger)
	authMgr := auth.NewManager(auth.NewStore(configDir), validator, auth.NewRedirectBuilder(cfg), auth.BrowserNavigator{}, logger)

	return &App{
		Config:   cfg,
		Auth:     authMgr,
		API:      api.NewClient(cfg, authMgr, logger),
		Prefs:    prefs.NewStore(configDir),
		Registry: api.NewRegistry(configDir),
		Logger:   logger,
	}
}

// ApplyFlags applies global flag values to the app.
func (a *App) ApplyFlags() {
	verbose := a.Flags.Verbose
	if verbose == 0 && a.Config.Verbose != nil {
		verbose = *a.Config.Verbose
	}
	if os.Getenv("TRANSITNET_DEBUG") != "" {
		verbose = 1
	}
	if verbose > 0 {
		a.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		// Rebuild the stack over the debug logger so request tracing shows up.
		configDir := config.GlobalConfigDir()
		keys := auth.NewKeySet(a.Config.JWKSURL(), nil, a.Logger)
		validator := auth.NewValidator(a.Config.IssuerURL(), a.Config.APIBase, keys, a.Logger)
		a.Auth = auth.NewManager(auth.NewStore(configDir), validator, auth.NewRedirectBuilder(a.Config), auth.BrowserNavigator{}, a.Logger)
		a.API = api.NewClient(a.Config, a.Auth, a.Logger)
	}
}

// WithApp stores the app in the context.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey, app)
}

// FromContext retrieves the app from the context.
func FromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey).(*App)
	return app
}
