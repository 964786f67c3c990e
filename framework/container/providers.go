package container

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/km-arc/go-autowire/framework/types"
)

// Arg is the caller-supplied value for one parameter. Set distinguishes an
// explicit nil from no value at all.
type Arg struct {
	Value any
	Set   bool
}

func argFor(args map[string]any, name string) Arg {
	v, ok := args[name]
	return Arg{Value: v, Set: ok}
}

// ParamProvider is one strategy of the resolution chain. Provide resolves a
// value at runtime; Compile returns the equivalent expression for a compiled
// plan. Both report "not handled" (false / nil) when the parameter is not
// theirs, and an error only when it is theirs and cannot be satisfied.
type ParamProvider interface {
	Provide(c *Container, p *types.Parameter, t types.Named, arg Arg) (any, bool, error)
	Compile(ctx CompileContext, p *types.Parameter, t types.Named, arg Arg) (*Expr, error)
}

// CompileContext is what providers see while a plan is being compiled.
type CompileContext interface {
	Container() *Container
	// Require statically expands what Instance(abstract) would construct.
	Require(abstract string) (*Expr, error)
	// RequireService statically expands what Get(id) would construct.
	RequireService(id string) (*Expr, error)
}

// DefaultProviders is the fixed precedence order.
func DefaultProviders() []ParamProvider {
	return []ParamProvider{Forward{}, ConfigItem{}, Injector{}}
}

// ── Forward ───────────────────────────────────────────────────────────────────

// Forward passes a supplied value through when it already has the declared
// type. An explicit nil is forwarded to a nullable parameter.
type Forward struct{}

func (Forward) accepts(c *Container, p *types.Parameter, t types.Named, arg Arg) bool {
	if !arg.Set {
		return false
	}
	if arg.Value == nil {
		return p.Nullable
	}
	return c.types.Accepts(t, arg.Value)
}

func (f Forward) Provide(c *Container, p *types.Parameter, t types.Named, arg Arg) (any, bool, error) {
	if !f.accepts(c, p, t, arg) {
		return nil, false, nil
	}
	return arg.Value, true, nil
}

func (f Forward) Compile(ctx CompileContext, p *types.Parameter, t types.Named, arg Arg) (*Expr, error) {
	if !f.accepts(ctx.Container(), p, t, arg) {
		return nil, nil
	}
	if arg.Value == nil {
		return &Expr{Kind: ExprNull}, nil
	}
	return &Expr{Kind: ExprLiteral, Value: arg.Value, GoType: fmt.Sprintf("%T", arg.Value), Type: t.Name}, nil
}

// ── ConfigItem ────────────────────────────────────────────────────────────────

// ConfigItem resolves parameters carrying a config marker from the
// configuration store.
type ConfigItem struct{}

func configKey(p *types.Parameter, arg Arg) string {
	if arg.Set {
		if s, ok := arg.Value.(string); ok && s != "" {
			return s
		}
	}
	return p.Config.Key
}

func (ConfigItem) Provide(c *Container, p *types.Parameter, t types.Named, arg Arg) (any, bool, error) {
	if p.Config == nil {
		return nil, false, nil
	}
	return c.ResolveConfig(p, t, configKey(p, arg))
}

func (ConfigItem) Compile(ctx CompileContext, p *types.Parameter, t types.Named, arg Arg) (*Expr, error) {
	if p.Config == nil {
		return nil, nil
	}
	c := ctx.Container()
	key := configKey(p, arg)
	if key == "" {
		return nil, &ConfigError{Message: fmt.Sprintf("parameter $%s has no configuration key", p.Name)}
	}
	raw, ok := c.config.Get(key)
	if !ok {
		if p.Optional || p.Nullable {
			return nil, nil
		}
		return nil, &ConfigError{Key: key, Message: "is not set"}
	}
	if t.Builtin {
		if _, err := configScalar(key, t, raw); err != nil {
			return nil, err
		}
	} else if sub, isMap := raw.(map[string]any); isMap {
		if err := c.compileDataObject(ctx, t, sub); err != nil {
			return nil, &ConfigError{Key: key, Err: err}
		}
	} else if !c.types.Accepts(t, raw) {
		return nil, &ConfigError{Key: key, Message: fmt.Sprintf("expected a map for %s, got %T", t.Name, raw)}
	}
	return &Expr{Kind: ExprConfig, Ref: key, Type: t.Name}, nil
}

// compileDataObject expands the construction ResolveConfig performs for a
// class-typed config parameter. Verification only happens at runtime.
func (c *Container) compileDataObject(ctx CompileContext, t types.Named, sub map[string]any) error {
	concrete, err := c.Resolve(t.Name)
	if err != nil {
		return err
	}
	class, ok := c.types.Class(concrete)
	if !ok {
		return &InvalidAbstractError{Abstract: concrete, Reason: "not a class"}
	}
	if class.Constructor == nil {
		return nil
	}
	_, err = c.CompileArgs(ctx, class.Constructor, c.Args(concrete, sub))
	return err
}

// ResolveConfig reads key and turns it into a value of type t: the raw value
// for builtin types, a data object built from the sub-tree otherwise.
func (c *Container) ResolveConfig(p *types.Parameter, t types.Named, key string) (any, bool, error) {
	if key == "" {
		return nil, false, &ConfigError{Message: fmt.Sprintf("parameter $%s has no configuration key", p.Name)}
	}
	raw, ok := c.config.Get(key)
	if !ok {
		if p.Optional || p.Nullable {
			return nil, false, nil
		}
		return nil, false, &ConfigError{Key: key, Message: "is not set"}
	}
	if t.Builtin {
		v, err := configScalar(key, t, raw)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}

	sub, isMap := raw.(map[string]any)
	if !isMap {
		if c.types.Accepts(t, raw) {
			return raw, true, nil
		}
		return nil, false, &ConfigError{Key: key, Message: fmt.Sprintf("expected a map for %s, got %T", t.Name, raw)}
	}
	obj, err := c.make(t.Name, sub)
	if err != nil {
		return nil, false, &ConfigError{Key: key, Err: err}
	}
	if p.Config.Verified {
		proof := c.verifier.Verify(obj)
		if v, failed := proof.First(); failed {
			return nil, false, &ConfigError{Key: key, Attribute: v.Attribute, Message: v.Message}
		}
	}
	return obj, true, nil
}

// configScalar checks a raw config value against a builtin type. Decoders
// produce float64 for every JSON number, so integral floats satisfy int.
func configScalar(key string, t types.Named, raw any) (any, error) {
	if raw != nil && types.MatchesBuiltin(t.Name, reflect.TypeOf(raw)) {
		return raw, nil
	}
	if f, ok := raw.(float64); ok && t.Name == types.Int && f == math.Trunc(f) {
		return int(f), nil
	}
	return nil, &ConfigError{Key: key, Message: fmt.Sprintf("expected %s, got %T", t.Name, raw)}
}

// ── Injector ──────────────────────────────────────────────────────────────────

// Injector resolves class and interface parameters from the container: a
// service named like the parameter wins when its type fits, otherwise the
// declared type is instantiated.
type Injector struct{}

func (Injector) Provide(c *Container, p *types.Parameter, t types.Named, arg Arg) (any, bool, error) {
	if t.Builtin {
		return nil, false, nil
	}
	var (
		v   any
		err error
	)
	if c.hinted(p.Name, t) {
		v, err = c.Get(p.Name)
	} else {
		v, err = c.Instance(t.Name, nil)
	}
	if err != nil {
		return nil, false, swallow(p, err)
	}
	return v, true, nil
}

func (Injector) Compile(ctx CompileContext, p *types.Parameter, t types.Named, arg Arg) (*Expr, error) {
	if t.Builtin {
		return nil, nil
	}
	var (
		e   *Expr
		err error
	)
	if ctx.Container().hinted(p.Name, t) {
		e, err = ctx.RequireService(p.Name)
	} else {
		e, err = ctx.Require(t.Name)
	}
	if err != nil {
		return nil, swallow(p, err)
	}
	return e, nil
}

// swallow turns a failure into "not handled" for optional and nullable
// parameters. Recursion is never swallowed.
func swallow(p *types.Parameter, err error) error {
	if errors.Is(err, ErrRecursiveDependency) {
		return err
	}
	if p.Optional || p.Nullable {
		return nil
	}
	return err
}
