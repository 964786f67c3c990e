package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/routing"
	"github.com/km-arc/go-autowire/framework/verify"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider exposes the configuration repository the container
// was built with.
//
// Registered ids:
//   - "config"        → *config.Repository
//   - "configuration" → alias of "config"
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->instance('config', $config = new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Repository
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if err := app.Set("config", p.Config, nil); err != nil {
		return err
	}
	return app.Alias("configuration", "config")
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider registers the application logger as "logger" and "log".
type LogServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LogServiceProvider) Register(app *container.Container) error {
	if err := app.Set("logger", p.Logger, nil); err != nil {
		return err
	}
	return app.Alias("log", "logger")
}

// ── VerifyServiceProvider ─────────────────────────────────────────────────────

// VerifyServiceProvider is deferred: "verifier" is only registered once
// something asks for it.
//
// Laravel equivalent:
//
//	// Illuminate\Validation\ValidationServiceProvider (deferred)
type VerifyServiceProvider struct {
	container.BaseProvider
	Engine *verify.Engine
}

func (p *VerifyServiceProvider) Register(app *container.Container) error {
	engine := p.Engine
	if engine == nil {
		engine = verify.New()
	}
	return app.Set("verifier", engine, nil)
}

func (p *VerifyServiceProvider) Provides() []string { return []string{"verifier"} }
func (p *VerifyServiceProvider) IsDeferred() bool   { return true }

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. Controllers are resolved
// through Resolver, which may be the container itself or a compiled plan.
//
// Registered ids:
//   - "router" → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
	Resolver container.Resolver
	Logger   *zap.Logger
	Debug    bool
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	resolver := p.Resolver
	if resolver == nil {
		resolver = app
	}
	logger := p.Logger
	if logger == nil {
		logger = app.Logger()
	}
	router := routing.New(
		routing.WithResolver(resolver),
		routing.WithLogger(logger.Named("http")),
		routing.WithDebug(p.Debug),
	)
	return app.Set("router", router, nil)
}
