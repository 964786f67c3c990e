package container

import (
	"errors"
	"fmt"

	"github.com/km-arc/go-autowire/framework/types"
)

// attempt asks one provider about one member type of a parameter.
type attempt func(prov ParamProvider, t types.Named) (bool, error)

// walkParam runs the provider chain over the declared type of p, calling try
// until a provider handles the parameter. It returns false without error when
// nothing handled it and the caller should fall back to defaults.
func (c *Container) walkParam(p *types.Parameter, try attempt) (bool, error) {
	declared := p.Type()
	switch declared.Kind {
	case types.KindIntersection:
		return false, &unresolvedError{reason: fmt.Sprintf("intersection type %s cannot be autowired", declared)}

	case types.KindNone:
		if p.Optional {
			return false, nil
		}
		return false, &unresolvedError{reason: "parameter has no declared type and no default value"}

	case types.KindNamed:
		t := declared.Members[0]
		for _, prov := range c.providers {
			ok, err := try(prov, t)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}

	// Union: members left to right, each against the whole chain.
	u := &unionError{typ: declared.String()}
	for _, t := range declared.Members {
		var memberErr error
		for _, prov := range c.providers {
			ok, err := try(prov, t)
			if err != nil {
				if errors.Is(err, ErrRecursiveDependency) {
					return false, err
				}
				memberErr = err
				break
			}
			if ok {
				return true, nil
			}
		}
		if memberErr == nil {
			memberErr = &unresolvedError{reason: "no provider could resolve it"}
		}
		u.reasons = append(u.reasons, fmt.Sprintf("%s: %v", t.Name, memberErr))
		u.causes = append(u.causes, memberErr)
	}
	if p.Optional || p.Nullable {
		return false, nil
	}
	return false, u
}

func (c *Container) autowireError(fn *types.Function, p *types.Parameter, err error) error {
	e := &AutoWireError{Function: fn.Identity, Position: p.Position + 1, Name: p.Name, Err: err}
	var u *unionError
	if errors.As(err, &u) {
		e.Reasons = append([]string(nil), u.reasons...)
	}
	return e
}

func unresolvable(p *types.Parameter) error {
	return &unresolvedError{reason: fmt.Sprintf("no provider could resolve type %s", p.Type())}
}

// AutoWire resolves every parameter of fn, in declaration order, merging the
// caller-supplied args. Parameters nothing resolved receive their default, or
// nil when nullable.
func (c *Container) AutoWire(fn *types.Function, args map[string]any) ([]any, error) {
	out := make([]any, 0, len(fn.Params))
	for _, p := range fn.Params {
		var value any
		ok, err := c.walkParam(p, func(prov ParamProvider, t types.Named) (bool, error) {
			v, handled, err := prov.Provide(c, p, t, argFor(args, p.Name))
			if handled {
				value = v
			}
			return handled, err
		})
		if err != nil {
			return nil, c.autowireError(fn, p, err)
		}
		if !ok || value == nil {
			switch {
			case p.Optional:
				value = p.Default
			case p.Nullable:
				value = nil
			default:
				return nil, c.autowireError(fn, p, unresolvable(p))
			}
		}
		out = append(out, value)
	}
	return out, nil
}

// CompileArgs is the static counterpart of AutoWire: one expression per
// parameter, or the error AutoWire would have returned.
func (c *Container) CompileArgs(ctx CompileContext, fn *types.Function, args map[string]any) ([]*Expr, error) {
	out := make([]*Expr, 0, len(fn.Params))
	for _, p := range fn.Params {
		var expr *Expr
		ok, err := c.walkParam(p, func(prov ParamProvider, t types.Named) (bool, error) {
			e, err := prov.Compile(ctx, p, t, argFor(args, p.Name))
			if e != nil {
				expr = e
			}
			return e != nil, err
		})
		if err != nil {
			return nil, c.autowireError(fn, p, err)
		}
		if !ok || expr.Kind == ExprNull {
			switch {
			case p.Optional:
				expr = &Expr{Kind: ExprDefault}
			case p.Nullable:
				expr = &Expr{Kind: ExprNull}
			default:
				return nil, c.autowireError(fn, p, unresolvable(p))
			}
		}
		out = append(out, expr)
	}
	return out, nil
}

// Call invokes fn with autowired arguments and returns its results, minus a
// trailing error.
//
//	// Laravel: $app->call([$report, 'generate'])
//	out, err := c.Call(generate, map[string]any{"month": 3})
func (c *Container) Call(fn *types.Function, args map[string]any) ([]any, error) {
	values, err := c.AutoWire(fn, args)
	if err != nil {
		return nil, err
	}
	return fn.Call(values)
}
