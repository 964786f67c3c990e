package container

import (
	"fmt"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register wires classes and services into the container. Boot runs after
// every eager provider has registered, so it may resolve anything.
//
//	// Laravel:
//	// class MailServiceProvider extends ServiceProvider {
//	//     public function register(): void { $this->app->bind(Mailer::class, SmtpMailer::class); }
//	// }
//
//	type MailServiceProvider struct{ container.BaseProvider }
//
//	func (p *MailServiceProvider) Register(app *container.Container) error {
//	    return app.Wire("SMTPMailer", nil, "Mailer")
//	}
type ServiceProvider interface {
	// Register records wiring. Do not resolve services here; use Boot.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides lists the ids and abstracts this provider registers. Only
	// deferred providers need it.
	//
	//	// Laravel: public function provides(): array { return [Cache::class]; }
	Provides() []string

	// IsDeferred reports whether registration waits until one of Provides()
	// is first needed.
	//
	//	// Laravel: implements DeferrableProvider
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders, deferring the lazy
// ones through Container.Defer.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	registered map[ServiceProvider]bool
	loaded     map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
		loaded:     make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and runs its Register unless it is deferred.
// Registering the same provider twice is a no-op.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		provides := provider.Provides()
		if len(provides) == 0 {
			return fmt.Errorf("provider %T is deferred but provides nothing", provider)
		}
		r.app.Defer(provides, func(c *Container) error { return r.load(provider) })
		r.app.logger.Debug("provider deferred", zap.String("provider", fmt.Sprintf("%T", provider)), zap.Strings("provides", provides))
		return nil
	}

	if err := r.load(provider); err != nil {
		return err
	}
	r.eager = append(r.eager, provider)
	return nil
}

// load registers the provider and, once the registry is booted, boots it.
func (r *ProviderRegistry) load(provider ServiceProvider) error {
	if r.loaded[provider] {
		return nil
	}
	r.loaded[provider] = true
	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("register %T: %w", provider, err)
	}
	r.app.logger.Debug("provider registered", zap.String("provider", fmt.Sprintf("%T", provider)))
	if r.booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// Boot calls Boot on every eager provider, in registration order. Deferred
// providers boot when they load.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the eager providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

// Loaded reports whether provider has run its Register.
func (r *ProviderRegistry) Loaded(provider ServiceProvider) bool { return r.loaded[provider] }
