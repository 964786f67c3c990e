package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/types"
)

// Compiled resolves through a Plan, falling back to the reflective container
// for anything the plan does not cover. Singletons live in the container
// cache, so both paths hand out the same object per id.
type Compiled struct {
	plan   *Plan
	c      *container.Container
	logger *zap.Logger
}

var _ container.Resolver = (*Compiled)(nil)

// Load binds a plan to the container it was compiled from, or to one
// populated the same way.
func Load(plan *Plan, c *container.Container) *Compiled {
	return &Compiled{
		plan:   plan,
		c:      c,
		logger: c.Logger().Named("compiled"),
	}
}

// Plan returns the underlying plan.
func (x *Compiled) Plan() *Plan { return x.plan }

// Has reports whether id can be passed to Get.
func (x *Compiled) Has(id string) bool {
	_, ok := x.plan.Services[id]
	return ok || x.c.Has(id)
}

// Get returns the singleton registered under id.
func (x *Compiled) Get(id string) (any, error) {
	key, ok := x.plan.Services[id]
	if !ok {
		return x.c.Get(id)
	}
	// An alias of a service shares the service's cache entry.
	owner := x.c.ServiceFor(id)
	if owner == "" {
		owner = id
	}
	if v, ok := x.c.Cached(owner); ok {
		return v, nil
	}
	v, err := x.run(key)
	if err != nil {
		return nil, err
	}
	x.c.Store(owner, v)
	return v, nil
}

// Instance returns what Container.Instance would. Calls with args are not
// planned and go to the container.
func (x *Compiled) Instance(abstract string, args map[string]any) (any, error) {
	e, ok := x.plan.Instances[abstract]
	if !ok || len(args) > 0 {
		x.logger.Debug("not planned, using container", zap.String("abstract", abstract))
		return x.c.Instance(abstract, args)
	}
	return x.eval(e, nil)
}

// run executes the routine under key.
func (x *Compiled) run(key string) (any, error) {
	r, ok := x.plan.Routines[key]
	if !ok {
		return nil, fmt.Errorf("compiler: plan has no routine %q", key)
	}
	class, ok := x.c.Registry().Class(r.Class)
	if !ok {
		return nil, &container.InvalidAbstractError{Abstract: r.Class, Reason: "not a class"}
	}

	var values []any
	if class.Constructor != nil {
		params := class.Constructor.Params
		if len(params) != len(r.Args) {
			return nil, fmt.Errorf("compiler: routine %q has %d args, %s takes %d; recompile the plan",
				key, len(r.Args), class.Constructor.Identity, len(params))
		}
		values = make([]any, len(params))
		for i, e := range r.Args {
			v, err := x.eval(e, params[i])
			if err != nil {
				return nil, &container.AutoWireError{
					Function: class.Constructor.Identity,
					Position: i + 1,
					Name:     params[i].Name,
					Err:      err,
				}
			}
			values[i] = v
		}
	}

	v, err := class.New(values)
	if err != nil {
		return nil, &container.BuildError{Class: r.Class, Err: err}
	}
	if class.Factory != nil {
		if v, err = class.Produce(v); err != nil {
			return nil, &container.BuildError{Class: r.Class, Err: err}
		}
	}
	return v, nil
}

// eval computes one expression. p is nil for top-level instance entries.
func (x *Compiled) eval(e *container.Expr, p *types.Parameter) (any, error) {
	switch e.Kind {
	case container.ExprLiteral:
		return e.Value, nil
	case container.ExprNull:
		return nil, nil
	case container.ExprDefault:
		if p == nil {
			return nil, fmt.Errorf("compiler: default expression outside a routine")
		}
		return p.Default, nil
	case container.ExprService:
		return x.Get(e.Ref)
	case container.ExprInstance:
		return x.run(e.Ref)
	case container.ExprConfig:
		if p == nil {
			return nil, fmt.Errorf("compiler: config expression outside a routine")
		}
		t := types.Named{Name: e.Type, Builtin: types.IsBuiltin(e.Type)}
		v, ok, err := x.c.ResolveConfig(p, t, e.Ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			if p.Optional {
				return p.Default, nil
			}
			return nil, nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("compiler: unknown expression kind %q", e.Kind)
}
