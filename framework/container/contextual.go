package container

// ContextualBuilder implements the fluent contextual wiring API. It records
// constructor args for one concrete class, the same as Wire.
//
//	// Laravel: $app->when(PhotoController::class)->needs('$storagePath')->give('/tmp/photos')
//	c.When("PhotoController").Needs("storagePath").Give("/tmp/photos")
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// When starts a contextual wiring for concrete.
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// Needs names the constructor parameter being wired.
func (b *ContextualBuilder) Needs(param string) *ContextualBuilder {
	b.needs = param
	return b
}

// Give sets the value passed for the parameter. The value goes through the
// provider chain like any supplied arg: a string for a config-bound parameter
// is a key, a value of the declared type is forwarded.
func (b *ContextualBuilder) Give(value any) error {
	if b.needs == "" {
		return &InvalidRegistrationError{Subject: b.concrete, Reason: "Give called before Needs"}
	}
	return b.container.Wire(b.concrete, map[string]any{b.needs: value}, "")
}

// GiveService passes the singleton registered under id, resolved when Give
// runs.
//
//	// Laravel: ->giveConfig / ->give(fn ($app) => $app->make('cache.redis'))
//	c.When("ReportJob").Needs("cache").GiveService("cache.redis")
func (b *ContextualBuilder) GiveService(id string) error {
	v, err := b.container.Get(id)
	if err != nil {
		return err
	}
	return b.Give(v)
}
