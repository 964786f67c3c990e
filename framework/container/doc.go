// Package container is an autowiring IoC container in the spirit of
// Laravel's Illuminate\Container\Container.
//
// # Overview
//
// Classes are described once in a types.Registry: a name, a constructor and
// one ParamSpec per constructor parameter. The container builds object
// graphs from those descriptors by resolving each parameter through a fixed
// chain of ParamProviders:
//
//  1. Forward    a supplied arg that already has the declared type
//  2. ConfigItem a config-bound parameter, read from the ConfigStore
//  3. Injector   a service named like the parameter, else Instance(type)
//
// Parameters nothing resolves receive their default, or nil when nullable.
//
// # Registering
//
//	reg := types.NewRegistry()
//	reg.MustAbstract("Mailer", (*Mailer)(nil))
//	reg.MustDefine("SMTPMailer", NewSMTPMailer, types.Param("host").Config("mail.host"))
//
//	c := container.New(reg, container.WithConfig(cfg), container.WithLogger(logger))
//
//	// Laravel: $app->bind(Mailer::class, SmtpMailer::class)
//	c.Contract("Mailer", "SMTPMailer")
//
//	// Laravel: $app->singleton('mailer', SmtpMailer::class)
//	c.Set("mailer", container.ClassName("SMTPMailer"), nil)
//
//	// Laravel: $app->instance('clock', $clock)
//	c.Set("clock", clock, nil)
//
//	// Laravel: $app->when(SmtpMailer::class)->needs('$port')->give(2525)
//	c.When("SMTPMailer").Needs("port").Give(2525)
//
// # Resolving
//
//	// Singleton by id
//	m, err := c.Get("mailer")
//
//	// By type: the one registered id's singleton, else a new object
//	m, err := c.Instance("Mailer", nil)
//
//	// Typed
//	m, err := container.Resolve[Mailer](c, "mailer")
//
// Several ids registered for one class make Instance ambiguous; ask for the
// id instead, or name the constructor parameter after it.
//
// # Factories
//
// A class embedding types.Factory stands for the result of its Provide
// method. Wiring it makes that result type resolvable:
//
//	c.Wire("PoolFactory", map[string]any{"dsn": dsn}, "")
//	db, err := c.Instance("*sql.DB", nil)
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&MailServiceProvider{})
//	registry.Boot()
//
// Deferred providers register on the first Get, Instance or Resolve of a
// name they provide.
//
// The container is not safe for concurrent use. The compiler package turns a
// populated container into a Plan that replays the same construction without
// the provider chain.
package container
