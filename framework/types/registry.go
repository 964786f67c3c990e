package types

import (
	"fmt"
	"reflect"
)

// ── Factories ─────────────────────────────────────────────────────────────────

// Factory is embedded by classes whose construction yields another type.
// Such a class declares a single Provide method; its result type is what the
// factory stands for.
//
//	type PoolFactory struct {
//	    types.Factory
//	    dsn string
//	}
//
//	func (f *PoolFactory) Provide() (*sql.DB, error) { return sql.Open("pgx", f.dsn) }
type Factory struct{}

func (Factory) isFactory() {}

type factoryMarker interface{ isFactory() }

var factoryMarkerType = reflect.TypeOf((*factoryMarker)(nil)).Elem()

// FactoryMethod describes the Provide method of a factory class.
type FactoryMethod struct {
	Returns      reflect.Type
	returnsError bool
}

func inspectFactory(t reflect.Type) (*FactoryMethod, error) {
	m, ok := t.MethodByName("Provide")
	if !ok {
		return nil, fmt.Errorf("factory %s has no Provide method", t)
	}
	mt := m.Type // receiver is In(0)
	if mt.NumIn() != 1 {
		return nil, fmt.Errorf("factory %s: Provide must not take arguments", t)
	}
	if err := validateConstructor(t.String()+".Provide", mt); err != nil {
		return nil, err
	}
	out := mt.Out(0)
	if out.Kind() == reflect.Interface && out.NumMethod() == 0 {
		return nil, fmt.Errorf("factory %s: Provide has no typed result", t)
	}
	return &FactoryMethod{Returns: out, returnsError: mt.NumOut() == 2}, nil
}

// ── Class ─────────────────────────────────────────────────────────────────────

// Class is something the container can construct.
type Class struct {
	Name string
	// Type is the Go type of constructed values.
	Type reflect.Type
	// Constructor is nil for classes built as zero values.
	Constructor *Function
	// Factory is set when the class embeds Factory and declares a valid
	// Provide method; FactoryErr explains a malformed one.
	Factory    *FactoryMethod
	FactoryErr error
}

// IsFactory reports whether the class embeds Factory, valid or not.
func (c *Class) IsFactory() bool { return c.Factory != nil || c.FactoryErr != nil }

// New builds an instance from one argument per constructor parameter.
func (c *Class) New(args []any) (any, error) {
	if c.Constructor == nil {
		if c.Type.Kind() == reflect.Pointer {
			return reflect.New(c.Type.Elem()).Interface(), nil
		}
		return reflect.New(c.Type).Elem().Interface(), nil
	}
	out, err := c.Constructor.Call(args)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Produce calls Provide on an instance of this factory class.
func (c *Class) Produce(factory any) (any, error) {
	if c.Factory == nil {
		return nil, fmt.Errorf("%s is not a factory", c.Name)
	}
	out := reflect.ValueOf(factory).MethodByName("Provide").Call(nil)
	if c.Factory.returnsError {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry maps names to classes, abstracts and Go types.
type Registry struct {
	classes   map[string]*Class
	abstracts map[string]reflect.Type
	names     map[reflect.Type]string
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes:   make(map[string]*Class),
		abstracts: make(map[string]reflect.Type),
		names:     make(map[reflect.Type]string),
	}
}

// Define registers a class built by ctor. ctor must be func(...) T or
// func(...) (T, error), with one ParamSpec per parameter.
func (r *Registry) Define(name string, ctor any, params ...*ParamSpec) (*Class, error) {
	if err := r.claim(name); err != nil {
		return nil, err
	}
	f, err := newFunction(r, name+".New", ctor, params)
	if err != nil {
		return nil, err
	}
	if err := validateConstructor(f.Identity, f.typ); err != nil {
		return nil, err
	}
	return r.add(name, f.typ.Out(0), f), nil
}

// MustDefine is like Define but panics on error.
func (r *Registry) MustDefine(name string, ctor any, params ...*ParamSpec) *Class {
	c, err := r.Define(name, ctor, params...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefineType registers a class without a constructor; it is built as a zero
// value of sample's type (a fresh pointer when sample is a pointer).
func (r *Registry) DefineType(name string, sample any) (*Class, error) {
	if err := r.claim(name); err != nil {
		return nil, err
	}
	if sample == nil {
		return nil, fmt.Errorf("%s: sample cannot be nil", name)
	}
	return r.add(name, reflect.TypeOf(sample), nil), nil
}

// Abstract registers an interface under name. sample is a nil pointer to the
// interface, e.g. (*Logger)(nil).
func (r *Registry) Abstract(name string, sample any) error {
	if err := r.claim(name); err != nil {
		return err
	}
	t := reflect.TypeOf(sample)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		return fmt.Errorf("%s: expected a nil pointer to an interface, got %T", name, sample)
	}
	r.abstracts[name] = t.Elem()
	r.names[t.Elem()] = name
	return nil
}

// MustAbstract is like Abstract but panics on error.
func (r *Registry) MustAbstract(name string, sample any) {
	if err := r.Abstract(name, sample); err != nil {
		panic(err)
	}
}

// Func describes an arbitrary function so it can be called with autowiring.
func (r *Registry) Func(identity string, fn any, params ...*ParamSpec) (*Function, error) {
	return newFunction(r, identity, fn, params)
}

func (r *Registry) claim(name string) error {
	if name == "" {
		return fmt.Errorf("types: empty name")
	}
	if IsBuiltin(name) {
		return fmt.Errorf("types: %q is a builtin type name", name)
	}
	if r.Exists(name) {
		return fmt.Errorf("types: %q is already registered", name)
	}
	return nil
}

func (r *Registry) add(name string, t reflect.Type, ctor *Function) *Class {
	c := &Class{Name: name, Type: t, Constructor: ctor}
	if t.Implements(factoryMarkerType) {
		c.Factory, c.FactoryErr = inspectFactory(t)
	}
	r.classes[name] = c
	if _, taken := r.names[t]; !taken {
		r.names[t] = name
	}
	r.order = append(r.order, name)
	return c
}

// Class returns the class registered under name.
func (r *Registry) Class(name string) (*Class, bool) {
	c, ok := r.classes[name]
	return c, ok
}

// IsClass reports whether name is a constructible class.
func (r *Registry) IsClass(name string) bool {
	_, ok := r.classes[name]
	return ok
}

// IsAbstract reports whether name is a registered interface.
func (r *Registry) IsAbstract(name string) bool {
	_, ok := r.abstracts[name]
	return ok
}

// Exists reports whether name is a registered class or interface.
func (r *Registry) Exists(name string) bool {
	return r.IsClass(name) || r.IsAbstract(name)
}

// Classes lists class names in registration order.
func (r *Registry) Classes() []string {
	return append([]string(nil), r.order...)
}

// TypeOf returns the Go type registered under name.
func (r *Registry) TypeOf(name string) (reflect.Type, bool) {
	if c, ok := r.classes[name]; ok {
		return c.Type, true
	}
	t, ok := r.abstracts[name]
	return t, ok
}

// NameOf returns the registered name for t, its builtin name, or t.String().
func (r *Registry) NameOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if n, ok := r.names[t]; ok {
		return n
	}
	if b := builtinOf(t); b != "" {
		return b
	}
	return t.String()
}

// Subtype reports whether values of concrete can stand in for abstract.
func (r *Registry) Subtype(concrete, abstract string) bool {
	if concrete == abstract {
		return true
	}
	ct, ok := r.TypeOf(concrete)
	if !ok {
		return false
	}
	at, ok := r.TypeOf(abstract)
	if !ok {
		return false
	}
	if at.Kind() == reflect.Interface {
		return ct.Implements(at)
	}
	return ct.AssignableTo(at)
}

// Accepts reports whether v is an instance of the named type, without any
// coercion. nil is never accepted.
func (r *Registry) Accepts(n Named, v any) bool {
	if v == nil {
		return false
	}
	vt := reflect.TypeOf(v)
	if n.Builtin {
		return MatchesBuiltin(n.Name, vt)
	}
	t, ok := r.TypeOf(n.Name)
	if !ok {
		return vt.String() == n.Name
	}
	if t.Kind() == reflect.Interface {
		return vt.Implements(t)
	}
	return vt.AssignableTo(t)
}
