package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/compiler"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/providers"
	"github.com/km-arc/go-autowire/framework/routing"
	"github.com/km-arc/go-autowire/framework/types"
	"github.com/km-arc/go-autowire/framework/verify"
)

// Application is the top-level application container. It embeds the
// Container and ProviderRegistry so user code can call app.Wire(),
// app.Set(), app.Providers.Register() directly, like $app in Laravel's
// bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	config   *config.Repository
	logger   *zap.Logger
	resolver container.Resolver
}

// Option configures New.
type Option func(*options)

type options struct {
	envFiles []string
	config   *config.Repository
	logger   *zap.Logger
}

// WithEnvFiles loads these .env files instead of ".env".
func WithEnvFiles(files ...string) Option { return func(o *options) { o.envFiles = files } }

// WithConfig uses cfg instead of loading the environment.
func WithConfig(cfg *config.Repository) Option { return func(o *options) { o.config = cfg } }

// WithLogger uses l instead of building one from app.env.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// New creates the application over reg and registers the framework
// providers. When container.plan names a plan file, controllers and services
// resolve through the compiled plan.
func New(reg *types.Registry, opts ...Option) (*Application, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.config
	if cfg == nil {
		cfg = config.Load(o.envFiles...)
	}
	if path := cfg.String("config.file", ""); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = newLogger(cfg.String("app.env", "local")); err != nil {
			return nil, err
		}
	}

	verifier := verify.New()
	c := container.New(reg,
		container.WithConfig(cfg),
		container.WithVerifier(verifier),
		container.WithLogger(logger.Named("container")))

	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		config:    cfg,
		logger:    logger,
		resolver:  c,
	}

	if path := cfg.String("container.plan", ""); path != "" {
		plan, err := ReadPlan(path)
		if err != nil {
			return nil, err
		}
		app.resolver = compiler.Load(plan, c)
		logger.Info("using compiled plan", zap.String("path", path), zap.Int("routines", len(plan.Routines)))
	}

	// Framework core providers, in Laravel's order.
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LogServiceProvider{Logger: logger},
		&providers.VerifyServiceProvider{Engine: verifier},
		&providers.RoutingServiceProvider{Resolver: app.resolver, Logger: logger, Debug: app.IsDebug()},
	} {
		if err := app.Providers.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// newLogger picks the zap preset for env.
func newLogger(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	switch env {
	case "production":
		logger, err = zap.NewProduction()
	case "testing":
		logger = zap.NewNop()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config returns the configuration repository.
func (a *Application) Config() *config.Repository { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *zap.Logger { return a.logger }

// Resolver returns what controllers are resolved through: the compiled plan
// when one was loaded, else the container.
func (a *Application) Resolver() container.Resolver { return a.resolver }

// Router resolves the router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, "router")
}

// Compile boots the application and compiles everything registered so far.
func (a *Application) Compile() (*compiler.Plan, error) {
	if err := a.Boot(); err != nil {
		return nil, err
	}
	return compiler.Compile(a.Container)
}

// Run boots the application (if needed) and starts the HTTP server.
func (a *Application) Run() error {
	if err := a.Boot(); err != nil {
		return err
	}
	addr := ":" + a.config.String("app.port", "8000")
	a.logger.Info("listening",
		zap.String("app", a.config.String("app.name", "")),
		zap.String("addr", addr),
		zap.String("env", a.Environment()))
	if err := http.ListenAndServe(addr, a.Router()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Environment returns the app.env value.
func (a *Application) Environment() string { return a.config.String("app.env", "local") }

func (a *Application) IsLocal() bool      { return a.Environment() == "local" }
func (a *Application) IsProduction() bool { return a.Environment() == "production" }
func (a *Application) IsTesting() bool    { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool      { return a.config.Bool("app.debug", false) }

// ── Plans ─────────────────────────────────────────────────────────────────────

// WritePlan encodes plan to path. The extension picks the format: .json,
// .yaml/.yml, or .go for generated source in package main.
func WritePlan(plan *compiler.Plan, path string) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = plan.EncodeJSON(&buf)
	case ".yaml", ".yml":
		err = plan.EncodeYAML(&buf)
	case ".go":
		err = compiler.Render(&buf, plan, "main")
	default:
		return fmt.Errorf("app: unsupported plan file %s", path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadPlan decodes a .json or .yaml/.yml plan file.
func ReadPlan(path string) (*compiler.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	defer f.Close()

	var decode func(io.Reader) (*compiler.Plan, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decode = compiler.DecodeJSON
	case ".yaml", ".yml":
		decode = compiler.DecodeYAML
	default:
		return nil, fmt.Errorf("app: unsupported plan file %s", path)
	}
	plan, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("app: reading plan %s: %w", path, err)
	}
	return plan, nil
}
