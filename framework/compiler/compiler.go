package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/container"
)

// compilation walks the container tables the way Get and Instance would,
// recording expressions instead of building objects.
type compilation struct {
	c      *container.Container
	plan   *Plan
	stack  []string
	done   map[string]bool
	logger *zap.Logger
}

// Compile expands every service, wired class, contract and factory product
// of c into a Plan. Nothing is constructed. Whatever Get or Instance would
// reject is rejected here with the same error.
func Compile(c *container.Container) (*Plan, error) {
	x := &compilation{
		c:      c,
		plan:   newPlan(),
		done:   make(map[string]bool),
		logger: c.Logger().Named("compiler"),
	}

	for _, svc := range c.Services() {
		if svc.Live {
			continue
		}
		if _, err := x.RequireService(svc.ID); err != nil {
			return nil, fmt.Errorf("compiling service %q: %w", svc.ID, err)
		}
	}

	var abstracts []string
	abstracts = append(abstracts, c.Wired()...)
	abstracts = append(abstracts, sortedKeys(c.Contracts())...)
	abstracts = append(abstracts, sortedKeys(c.Factories())...)
	for _, abstract := range abstracts {
		if _, seen := x.plan.Instances[abstract]; seen {
			continue
		}
		e, err := x.Require(abstract)
		if err != nil {
			return nil, fmt.Errorf("compiling [%s]: %w", abstract, err)
		}
		x.plan.Instances[abstract] = e
	}

	x.logger.Debug("plan compiled",
		zap.Int("routines", len(x.plan.Routines)),
		zap.Int("services", len(x.plan.Services)),
		zap.Int("instances", len(x.plan.Instances)))
	return x.plan, nil
}

// Container implements container.CompileContext.
func (x *compilation) Container() *container.Container { return x.c }

// Require expands Instance(abstract, nil).
func (x *compilation) Require(abstract string) (*container.Expr, error) {
	target, err := x.c.Target(abstract)
	if err != nil {
		return nil, err
	}
	if target.ID != "" {
		return x.RequireService(target.ID)
	}
	if err := x.enter(abstract); err != nil {
		return nil, err
	}
	defer x.leave()

	if err := x.routine(target.Concrete, target.Concrete, nil); err != nil {
		return nil, err
	}
	return &container.Expr{Kind: container.ExprInstance, Ref: target.Concrete}, nil
}

// RequireService expands Get(id).
func (x *compilation) RequireService(id string) (*container.Expr, error) {
	ref := &container.Expr{Kind: container.ExprService, Ref: id}
	if _, built := x.c.Cached(id); built {
		return ref, nil
	}
	if !x.c.Has(id) {
		return nil, &container.NotFoundError{ID: id}
	}
	if loaded, err := x.c.LoadDeferred(id); err != nil {
		return nil, err
	} else if loaded {
		return x.RequireService(id)
	}
	if s := x.c.ServiceFor(id); s != "" && s != id {
		if _, err := x.RequireService(s); err != nil {
			return nil, err
		}
		if key, ok := x.plan.Services[s]; ok {
			x.plan.Services[id] = key
		}
		return ref, nil
	}
	if svc, ok := x.c.Service(id); ok && svc.Live {
		return ref, nil
	}

	concrete, err := x.c.ConcreteOf(id)
	if err != nil {
		return nil, err
	}
	if err := x.enter(id); err != nil {
		return nil, err
	}
	defer x.leave()

	var args map[string]any
	if svc, ok := x.c.Service(id); ok {
		args = svc.Args
	}
	key := serviceKey(id)
	if err := x.routine(key, concrete, args); err != nil {
		return nil, err
	}
	x.plan.Services[id] = key
	return ref, nil
}

// routine compiles the construction of concrete under key. Completed
// routines are reused; one still being expanded is expanded again so that a
// cycle surfaces on the stack exactly as it would at runtime.
func (x *compilation) routine(key, concrete string, args map[string]any) error {
	if x.done[key] {
		return nil
	}
	reg := x.c.Registry()
	class, ok := reg.Class(concrete)
	if !ok {
		return &container.InvalidAbstractError{Abstract: concrete, Reason: "not a class"}
	}
	r := &Routine{Class: concrete}
	if class.Constructor != nil {
		exprs, err := x.c.CompileArgs(x, class.Constructor, x.c.Args(concrete, args))
		if err != nil {
			return err
		}
		r.Args = exprs
	}
	x.plan.Routines[key] = r
	x.done[key] = true
	x.logger.Debug("routine compiled", zap.String("key", key), zap.String("class", concrete))
	return nil
}

func (x *compilation) enter(key string) error {
	for _, k := range x.stack {
		if k == key {
			return &container.RecursiveDependencyError{Chain: append([]string(nil), x.stack...), Next: key}
		}
	}
	x.stack = append(x.stack, key)
	return nil
}

func (x *compilation) leave() { x.stack = x.stack[:len(x.stack)-1] }
