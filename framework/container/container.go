package container

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/types"
	"github.com/km-arc/go-autowire/framework/verify"
)

// ── Collaborators ─────────────────────────────────────────────────────────────

// ConfigStore is the configuration the ConfigItem provider reads from.
// *config.Repository satisfies it.
type ConfigStore interface {
	Get(key string) (any, bool)
	Has(key string) bool
	Set(key string, value any)
}

// Verifier validates config-built data objects. *verify.Engine satisfies it.
type Verifier interface {
	Verify(subject any) verify.Proof
}

// ClassName marks a Set value as a class to construct on first Get, as
// opposed to a ready-made value.
//
//	c.Set("db.primary", container.ClassName("Postgres"), map[string]any{"dsn": "..."})
type ClassName string

// Option configures a Container.
type Option func(*Container)

// WithConfig sets the configuration store.
func WithConfig(store ConfigStore) Option { return func(c *Container) { c.config = store } }

// WithVerifier sets the validation engine for verified config parameters.
func WithVerifier(v Verifier) Option { return func(c *Container) { c.verifier = v } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option { return func(c *Container) { c.logger = l } }

// WithProviders replaces the parameter provider chain.
func WithProviders(p ...ParamProvider) Option { return func(c *Container) { c.providers = p } }

// ── Container ─────────────────────────────────────────────────────────────────

// service is a registered id: either a ready value or a class to construct.
type service struct {
	class string // as given to Set; empty for values
	live  bool
	typ   string // type name of a live value
	args  map[string]any
}

// Container builds object graphs by autowiring constructor parameters.
//
// It is not safe for concurrent use; synchronise externally when shared.
type Container struct {
	types     *types.Registry
	config    ConfigStore
	verifier  Verifier
	logger    *zap.Logger
	providers []ParamProvider

	// id → singleton
	instances map[string]any
	// id → definition
	services map[string]*service
	// alias → abstract
	aliases map[string]string
	// abstract → concrete
	contracts map[string]string
	// concrete → extra constructor args
	wiring map[string]map[string]any
	// factory product type → factory class
	factories map[string]string
	// abstract or id → lazy registration
	deferred map[string]*deferral

	// service ids and aliases in registration order
	names []string
	// ids and abstracts currently being constructed
	stack []string
}

// New creates an empty container over a type registry. The container is
// registered as a service of itself under "container".
func New(reg *types.Registry, opts ...Option) *Container {
	c := &Container{
		types:     reg,
		logger:    zap.NewNop(),
		providers: DefaultProviders(),
		instances: make(map[string]any),
		services:  make(map[string]*service),
		aliases:   make(map[string]string),
		contracts: make(map[string]string),
		wiring:    make(map[string]map[string]any),
		factories: make(map[string]string),
		deferred:  make(map[string]*deferral),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.config == nil {
		c.config = config.New(nil)
	}
	if c.verifier == nil {
		c.verifier = verify.New()
	}
	_ = c.Set("container", c, nil)
	return c
}

// Registry returns the type registry.
func (c *Container) Registry() *types.Registry { return c.types }

// Config returns the configuration store.
func (c *Container) Config() ConfigStore { return c.config }

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// ── Registration ──────────────────────────────────────────────────────────────

// Set registers a named service. A ClassName is constructed on first Get with
// args merged over the class wiring; anything else is cached as is.
//
//	// Laravel: $app->instance('config', $config)
//	c.Set("config", cfg, nil)
func (c *Container) Set(id string, value any, args map[string]any) error {
	if id == "" {
		return &InvalidRegistrationError{Subject: id, Reason: "empty service id"}
	}
	if class, ok := value.(ClassName); ok {
		if _, err := c.Resolve(string(class)); err != nil {
			return &InvalidRegistrationError{Subject: id, Reason: "unknown class", Err: err}
		}
		c.remember(id)
		delete(c.instances, id)
		c.services[id] = &service{class: string(class), args: copyArgs(args)}
		c.logger.Debug("service defined", zap.String("id", id), zap.String("class", string(class)))
		return nil
	}
	if value == nil {
		return &InvalidRegistrationError{Subject: id, Reason: "nil value"}
	}
	c.remember(id)
	c.instances[id] = value
	c.services[id] = &service{live: true, typ: c.types.NameOf(reflect.TypeOf(value))}
	c.logger.Debug("service set", zap.String("id", id), zap.String("type", c.services[id].typ))
	return nil
}

// Wire records extra constructor args for concrete. A name that is a
// registered type becomes a contract name → concrete; any other name becomes
// an alias, and so a service id.
//
//	c.Wire("SMTPMailer", map[string]any{"host": "mail"}, "Mailer")
func (c *Container) Wire(concrete string, args map[string]any, name string) error {
	class, ok := c.types.Class(concrete)
	if !ok {
		return &InvalidRegistrationError{Subject: concrete, Reason: "class does not exist"}
	}
	if class.IsFactory() {
		if class.FactoryErr != nil {
			return &InvalidRegistrationError{Subject: concrete, Reason: "malformed factory", Err: class.FactoryErr}
		}
		product := c.types.NameOf(class.Factory.Returns)
		c.factories[product] = concrete
		c.logger.Debug("factory wired", zap.String("factory", concrete), zap.String("product", product))
	}
	if len(args) > 0 {
		merged := c.wiring[concrete]
		if merged == nil {
			merged = make(map[string]any, len(args))
		}
		for k, v := range args {
			merged[k] = v
		}
		c.wiring[concrete] = merged
	} else if _, seen := c.wiring[concrete]; !seen {
		c.wiring[concrete] = map[string]any{}
	}
	c.logger.Debug("class wired", zap.String("class", concrete), zap.Int("args", len(args)))

	switch {
	case name == "" || name == concrete:
		return nil
	case c.types.Exists(name):
		return c.Contract(name, concrete)
	default:
		return c.Alias(name, concrete)
	}
}

// Alias makes name resolve to abstract. Aliasing a name to itself is a no-op.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "RedisCache")
func (c *Container) Alias(name, abstract string) error {
	if name == "" || abstract == "" {
		return &InvalidRegistrationError{Subject: name, Reason: "empty alias"}
	}
	if name == abstract {
		return nil
	}
	for cur, hops := abstract, 0; ; hops++ {
		next, ok := c.aliases[cur]
		if !ok {
			break
		}
		if next == name || hops > len(c.aliases) {
			return &InvalidRegistrationError{Subject: name, Reason: fmt.Sprintf("alias to [%s] would form a loop", abstract)}
		}
		cur = next
	}
	c.remember(name)
	c.aliases[name] = abstract
	c.logger.Debug("alias", zap.String("name", name), zap.String("abstract", abstract))
	return nil
}

// Contract binds an interface (or class) to the concrete class implementing
// it.
//
//	// Laravel: $app->bind(Mailer::class, SmtpMailer::class)
//	c.Contract("Mailer", "SMTPMailer")
func (c *Container) Contract(abstract, concrete string) error {
	if abstract == concrete {
		return nil
	}
	if !c.types.Exists(abstract) {
		return &InvalidRegistrationError{Subject: abstract, Reason: "abstract is not a registered type"}
	}
	class, ok := c.types.Class(concrete)
	if !ok {
		return &InvalidRegistrationError{Subject: concrete, Reason: "class does not exist"}
	}
	if !c.satisfies(class, abstract) {
		return &InvalidRegistrationError{Subject: concrete, Reason: fmt.Sprintf("not a subtype of [%s]", abstract)}
	}
	c.contracts[abstract] = concrete
	c.logger.Debug("contract", zap.String("abstract", abstract), zap.String("concrete", concrete))
	return nil
}

type deferral struct {
	register func(*Container) error
}

// Defer registers a callback run the first time one of names is needed and
// not otherwise known. Deferred service providers use it.
func (c *Container) Defer(names []string, register func(*Container) error) {
	d := &deferral{register: register}
	for _, n := range names {
		c.deferred[n] = d
	}
}

func (c *Container) remember(name string) {
	if _, isService := c.services[name]; isService {
		return
	}
	if _, isAlias := c.aliases[name]; isAlias {
		return
	}
	c.names = append(c.names, name)
}

// LoadDeferred runs the deferred registration for name, if any, and reports
// whether it ran.
func (c *Container) LoadDeferred(name string) (bool, error) {
	d, ok := c.deferred[name]
	if !ok {
		return false, nil
	}
	for n, other := range c.deferred {
		if other == d {
			delete(c.deferred, n)
		}
	}
	c.logger.Debug("loading deferred registration", zap.String("name", name))
	if err := d.register(c); err != nil {
		return false, fmt.Errorf("container: deferred registration of [%s]: %w", name, err)
	}
	return true, nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve maps an abstract to the concrete class that builds it: alias chain,
// then contract, then the class itself, then a factory producing it.
func (c *Container) Resolve(abstract string) (string, error) {
	name := abstract
	for hops := 0; ; hops++ {
		next, ok := c.aliases[name]
		if !ok {
			break
		}
		if hops > len(c.aliases) {
			return "", &InvalidAbstractError{Abstract: abstract, Reason: "alias loop"}
		}
		name = next
	}
	if concrete, ok := c.contracts[name]; ok {
		return concrete, nil
	}
	if c.types.IsClass(name) {
		return name, nil
	}
	if factory, ok := c.factories[name]; ok {
		return factory, nil
	}
	if loaded, err := c.LoadDeferred(name); err != nil {
		return "", err
	} else if loaded {
		return c.Resolve(abstract)
	}
	return "", &InvalidAbstractError{Abstract: abstract}
}

// ReverseResolve returns the id a concrete class is registered under, or ""
// when there is none. A hint naming one of the candidate ids selects it;
// otherwise several candidates are ambiguous.
func (c *Container) ReverseResolve(concrete, hint string) (string, error) {
	ids := c.idsFor(concrete)
	for _, id := range ids {
		if id == hint {
			return id, nil
		}
	}
	switch len(ids) {
	case 0:
		return "", nil
	case 1:
		return ids[0], nil
	}
	return "", &AmbiguousError{Concrete: concrete, IDs: ids}
}

// idsFor lists service ids and direct aliases that produce concrete.
func (c *Container) idsFor(concrete string) []string {
	var ids []string
	for _, name := range c.names {
		if svc, ok := c.services[name]; ok {
			got := svc.typ
			if !svc.live {
				got, _ = c.Resolve(svc.class)
			}
			if got == concrete {
				ids = append(ids, name)
			}
			continue
		}
		if c.aliases[name] == concrete {
			ids = append(ids, name)
		}
	}
	return ids
}

// Has reports whether id can be passed to Get.
func (c *Container) Has(id string) bool {
	if _, ok := c.services[id]; ok {
		return true
	}
	if _, ok := c.aliases[id]; ok {
		return true
	}
	_, ok := c.deferred[id]
	return ok
}

// hinted reports whether a service named like a parameter can satisfy it.
func (c *Container) hinted(name string, t types.Named) bool {
	if !c.Has(name) {
		return false
	}
	if _, err := c.LoadDeferred(name); err != nil {
		return false
	}
	if v, ok := c.instances[name]; ok {
		return c.types.Accepts(t, v)
	}
	concrete, err := c.ConcreteOf(name)
	if err != nil {
		return false
	}
	class, _ := c.types.Class(concrete)
	return c.satisfies(class, t.Name)
}

// ConcreteOf resolves a service id or alias to its concrete class, or to the
// type name of a ready-made value.
func (c *Container) ConcreteOf(id string) (string, error) {
	if s := c.ServiceFor(id); s != "" {
		svc := c.services[s]
		if svc.live {
			return svc.typ, nil
		}
		return c.Resolve(svc.class)
	}
	return c.Resolve(id)
}

// ServiceFor follows the alias chain from name to the first registered
// service id, or returns "".
func (c *Container) ServiceFor(name string) string {
	for hops := 0; hops <= len(c.aliases); hops++ {
		if _, ok := c.services[name]; ok {
			return name
		}
		next, ok := c.aliases[name]
		if !ok {
			return ""
		}
		name = next
	}
	return ""
}

// satisfies reports whether what class builds (its product, for factories)
// can stand in for abstract.
func (c *Container) satisfies(class *types.Class, abstract string) bool {
	if class == nil {
		return false
	}
	if class.Factory == nil {
		return c.types.Subtype(class.Name, abstract)
	}
	produced := class.Factory.Returns
	if c.types.NameOf(produced) == abstract {
		return true
	}
	at, ok := c.types.TypeOf(abstract)
	if !ok {
		return false
	}
	if at.Kind() == reflect.Interface {
		return produced.Implements(at)
	}
	return produced.AssignableTo(at)
}

// Target is what Instance(abstract) does without args: return the singleton
// ID, or build Concrete afresh when ID is empty.
type Target struct {
	ID       string
	Concrete string
}

// Target computes the static part of Instance.
func (c *Container) Target(abstract string) (Target, error) {
	if _, err := c.LoadDeferred(abstract); err != nil {
		return Target{}, err
	}
	if _, isService := c.services[abstract]; isService {
		return Target{ID: abstract}, nil
	}
	if _, isAlias := c.aliases[abstract]; isAlias {
		return Target{ID: abstract}, nil
	}
	concrete, err := c.Resolve(abstract)
	if err != nil {
		return Target{}, err
	}
	id, err := c.ReverseResolve(concrete, "")
	if err != nil {
		return Target{}, err
	}
	return Target{ID: id, Concrete: concrete}, nil
}

// ── Retrieval ─────────────────────────────────────────────────────────────────

// Get returns the singleton registered under id, constructing it on first
// use.
//
//	// Laravel: $app->make('cache')
//	cache, err := c.Get("cache")
func (c *Container) Get(id string) (any, error) {
	if v, ok := c.instances[id]; ok {
		return v, nil
	}
	if !c.Has(id) {
		return nil, &NotFoundError{ID: id}
	}
	if loaded, err := c.LoadDeferred(id); err != nil {
		return nil, err
	} else if loaded {
		return c.Get(id)
	}
	// An alias of a service shares its singleton.
	if s := c.ServiceFor(id); s != "" && s != id {
		return c.Get(s)
	}

	concrete, err := c.ConcreteOf(id)
	if err != nil {
		return nil, err
	}
	if err := c.enter(id); err != nil {
		return nil, err
	}
	defer c.leave()

	var args map[string]any
	if svc, ok := c.services[id]; ok {
		args = svc.args
	}
	v, err := c.build(concrete, args)
	if err != nil {
		return nil, err
	}
	c.instances[id] = v
	c.logger.Debug("service resolved", zap.String("id", id), zap.String("class", concrete))
	return v, nil
}

// Instance returns an object of type abstract. Without args it returns the
// singleton of the one id registered for the resolved class, or a new
// object per call when there is none; with args it always builds a new one.
//
//	// Laravel: $app->make(Report::class, ['month' => 3])
//	report, err := c.Instance("Report", map[string]any{"month": 3})
func (c *Container) Instance(abstract string, args map[string]any) (any, error) {
	if len(args) > 0 {
		return c.make(abstract, args)
	}
	target, err := c.Target(abstract)
	if err != nil {
		return nil, err
	}
	if target.ID != "" {
		return c.Get(target.ID)
	}
	return c.construct(abstract, target.Concrete, nil)
}

// Cached returns the singleton stored under id without building anything.
func (c *Container) Cached(id string) (any, bool) {
	v, ok := c.instances[id]
	return v, ok
}

// Store records v as the singleton of id. A compiled resolver builds
// services itself and stores them here, so Get returns the same object.
func (c *Container) Store(id string, v any) {
	c.instances[id] = v
}

func (c *Container) make(abstract string, args map[string]any) (any, error) {
	concrete, err := c.Resolve(abstract)
	if err != nil {
		return nil, err
	}
	return c.construct(abstract, concrete, args)
}

func (c *Container) construct(abstract, concrete string, args map[string]any) (any, error) {
	if err := c.enter(abstract); err != nil {
		return nil, err
	}
	defer c.leave()
	return c.build(concrete, args)
}

// build constructs concrete, delegating to Provide for factory classes.
func (c *Container) build(concrete string, args map[string]any) (any, error) {
	class, ok := c.types.Class(concrete)
	if !ok {
		return nil, &InvalidAbstractError{Abstract: concrete, Reason: "not a class"}
	}
	merged := c.Args(concrete, args)

	var values []any
	if class.Constructor != nil {
		var err error
		if values, err = c.AutoWire(class.Constructor, merged); err != nil {
			return nil, err
		}
	}
	v, err := class.New(values)
	if err != nil {
		return nil, &BuildError{Class: concrete, Err: err}
	}
	if class.Factory != nil {
		if v, err = class.Produce(v); err != nil {
			return nil, &BuildError{Class: concrete, Err: err}
		}
	}
	c.logger.Debug("built", zap.String("class", concrete))
	return v, nil
}

// Args merges the wiring of concrete with args; args win.
func (c *Container) Args(concrete string, args map[string]any) map[string]any {
	wired := c.wiring[concrete]
	if len(wired) == 0 {
		return args
	}
	merged := make(map[string]any, len(wired)+len(args))
	for k, v := range wired {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v
	}
	return merged
}

// ── Recursion guard ───────────────────────────────────────────────────────────

func (c *Container) enter(key string) error {
	for _, k := range c.stack {
		if k == key {
			return &RecursiveDependencyError{Chain: append([]string(nil), c.stack...), Next: key}
		}
	}
	c.stack = append(c.stack, key)
	return nil
}

func (c *Container) leave() {
	c.stack = c.stack[:len(c.stack)-1]
}

// Building returns the ids and abstracts currently under construction.
func (c *Container) Building() []string {
	return append([]string(nil), c.stack...)
}

// ── Introspection ─────────────────────────────────────────────────────────────

// ServiceInfo describes a registered id.
type ServiceInfo struct {
	ID    string
	Class string // empty for ready-made values and aliases
	Alias string // target of an alias
	Live  bool
	Args  map[string]any
}

// Services lists service ids and aliases in registration order.
func (c *Container) Services() []ServiceInfo {
	out := make([]ServiceInfo, 0, len(c.names))
	for _, name := range c.names {
		if svc, ok := c.services[name]; ok {
			out = append(out, ServiceInfo{ID: name, Class: svc.class, Live: svc.live, Args: copyArgs(svc.args)})
			continue
		}
		out = append(out, ServiceInfo{ID: name, Alias: c.aliases[name]})
	}
	return out
}

// Service describes the service registered under id itself, without
// following aliases.
func (c *Container) Service(id string) (ServiceInfo, bool) {
	svc, ok := c.services[id]
	if !ok {
		return ServiceInfo{}, false
	}
	return ServiceInfo{ID: id, Class: svc.class, Live: svc.live, Args: copyArgs(svc.args)}, true
}

// Wired lists wired concrete classes in registry order.
func (c *Container) Wired() []string {
	var out []string
	for _, name := range c.types.Classes() {
		if _, ok := c.wiring[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Contracts returns a copy of the abstract → concrete map.
func (c *Container) Contracts() map[string]string { return copyStrings(c.contracts) }

// Aliases returns a copy of the alias map.
func (c *Container) Aliases() map[string]string { return copyStrings(c.aliases) }

// Factories returns a copy of the product → factory class map.
func (c *Container) Factories() map[string]string { return copyStrings(c.factories) }

func copyArgs(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsRecursive reports whether err stems from a construction cycle.
func IsRecursive(err error) bool { return errors.Is(err, ErrRecursiveDependency) }
