package types

import (
	"fmt"
	"reflect"
)

// ConfigMarker binds a parameter to the configuration store.
type ConfigMarker struct {
	// Key is used when the caller does not supply a key of its own.
	Key string
	// Verified asks for the constructed data object to be validated.
	Verified bool
}

// Parameter describes one parameter of a Function.
type Parameter struct {
	Name     string
	Position int // zero-based
	Go       reflect.Type
	Nullable bool
	Optional bool // a default value is available
	Default  any
	Config   *ConfigMarker

	declared Type
	explicit bool
	registry *Registry
}

// Type returns the declared type. Unless the parameter was described with an
// explicit type it is derived from the Go parameter type at call time, so
// classes registered after this function are still recognised.
func (p *Parameter) Type() Type {
	if p.explicit {
		return p.declared
	}
	return Single(p.registry.NameOf(p.Go))
}

// Value converts v into a reflect.Value assignable to the Go parameter type.
// nil becomes the zero value. Integer and float kinds convert among
// themselves; nothing else is coerced.
func (p *Parameter) Value(v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(p.Go), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(p.Go) {
		return rv, nil
	}
	from, to := builtinOf(rv.Type()), builtinOf(p.Go)
	if from != "" && from == to && (from == Int || from == Float) && rv.Type().ConvertibleTo(p.Go) {
		return rv.Convert(p.Go), nil
	}
	return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s", rv.Type(), p.Go)
}

// ── ParamSpec ─────────────────────────────────────────────────────────────────

// ParamSpec is the builder used to describe a constructor parameter at
// registration time. Go reflection does not expose parameter names, so every
// parameter is described by name, in declaration order.
//
//	types.Param("dsn").Config("db.dsn")
//	types.Param("timeout").Default(30)
//	types.Param("value").Union("string", "Stringer")
type ParamSpec struct {
	name       string
	kind       Kind
	members    []string
	explicit   bool
	nullable   bool
	hasDefault bool
	def        any
	config     *ConfigMarker
}

// Param starts describing a parameter named name.
func Param(name string) *ParamSpec {
	return &ParamSpec{name: name}
}

// Params is shorthand for describing plain parameters by name only.
func Params(names ...string) []*ParamSpec {
	out := make([]*ParamSpec, len(names))
	for i, n := range names {
		out[i] = Param(n)
	}
	return out
}

// Is declares a single named type instead of the one derived from Go.
func (s *ParamSpec) Is(name string) *ParamSpec {
	s.kind, s.members, s.explicit = KindNamed, []string{name}, true
	return s
}

// Union declares a union type; members are tried left to right.
func (s *ParamSpec) Union(names ...string) *ParamSpec {
	s.kind, s.members, s.explicit = KindUnion, names, true
	return s
}

// Intersection declares an intersection type. Intersections never autowire.
func (s *ParamSpec) Intersection(names ...string) *ParamSpec {
	s.kind, s.members, s.explicit = KindIntersection, names, true
	return s
}

// Untyped declares that the parameter has no type at all.
func (s *ParamSpec) Untyped() *ParamSpec {
	s.kind, s.members, s.explicit = KindNone, nil, true
	return s
}

// Nullable allows nil to be bound when nothing else resolves.
func (s *ParamSpec) Nullable() *ParamSpec {
	s.nullable = true
	return s
}

// Default records the value passed when the parameter resolves to nothing.
func (s *ParamSpec) Default(v any) *ParamSpec {
	s.hasDefault, s.def = true, v
	return s
}

// Config binds the parameter to a configuration key.
func (s *ParamSpec) Config(key string) *ParamSpec {
	if s.config == nil {
		s.config = &ConfigMarker{}
	}
	s.config.Key = key
	return s
}

// Verified validates the config-built data object. Implies Config.
func (s *ParamSpec) Verified() *ParamSpec {
	if s.config == nil {
		s.config = &ConfigMarker{}
	}
	s.config.Verified = true
	return s
}

func (s *ParamSpec) build(r *Registry, pos int, goType reflect.Type) (*Parameter, error) {
	if s.name == "" {
		return nil, fmt.Errorf("parameter #%d has no name", pos+1)
	}
	if s.explicit && s.kind != KindNone && len(s.members) == 0 {
		return nil, fmt.Errorf("parameter $%s declares an empty type", s.name)
	}
	if (s.kind == KindUnion || s.kind == KindIntersection) && len(s.members) < 2 {
		return nil, fmt.Errorf("parameter $%s: a union or intersection needs at least two members", s.name)
	}
	p := &Parameter{
		Name:     s.name,
		Position: pos,
		Go:       goType,
		Nullable: s.nullable,
		Optional: s.hasDefault,
		Default:  s.def,
		explicit: s.explicit,
		registry: r,
	}
	if s.config != nil {
		marker := *s.config
		p.Config = &marker
	}
	if s.explicit {
		p.declared = Type{Kind: s.kind}
		for _, m := range s.members {
			p.declared.Members = append(p.declared.Members, named(m))
		}
	}
	if s.hasDefault && s.def != nil {
		if _, err := p.Value(s.def); err != nil {
			return nil, fmt.Errorf("parameter $%s: default: %w", s.name, err)
		}
	}
	return p, nil
}
