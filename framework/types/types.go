// Package types describes constructors and their parameters independently of
// Go's reflection API, so the container can reason about declared types that
// Go itself cannot express (unions, intersections, untyped parameters).
//
// A Registry is the single source of type information for a container: every
// class (something that can be constructed), every abstract (an interface used
// as a resolution key) and every free function that should be autowired is
// registered once, under a stable string name.
//
//	reg := types.NewRegistry()
//	reg.MustAbstract("Logger", (*Logger)(nil))
//	reg.MustDefine("FileLogger", NewFileLogger,
//	    types.Param("path").Config("log.path"),
//	)
package types

import (
	"reflect"
	"strings"
)

// ── Declared types ────────────────────────────────────────────────────────────

// Kind classifies the declared type of a parameter.
type Kind int

const (
	// KindNone means the parameter has no declared type.
	KindNone Kind = iota
	// KindNamed is a single named type.
	KindNamed
	// KindUnion accepts any of its members (A|B).
	KindUnion
	// KindIntersection requires all of its members (A&B).
	KindIntersection
)

// Builtin type names.
const (
	String   = "string"
	Int      = "int"
	Float    = "float"
	Bool     = "bool"
	Array    = "array"
	Callable = "callable"
	Mixed    = "mixed"
)

var builtins = map[string]bool{
	String: true, Int: true, Float: true, Bool: true,
	Array: true, Callable: true, Mixed: true,
}

// IsBuiltin reports whether name is one of the scalar/builtin type names.
func IsBuiltin(name string) bool { return builtins[name] }

// Named is one member of a declared type.
type Named struct {
	Name    string
	Builtin bool
}

func (n Named) String() string { return n.Name }

// Type is the declared type of a parameter.
type Type struct {
	Kind    Kind
	Members []Named
}

// Single returns a Type with exactly one named member.
func Single(name string) Type {
	return Type{Kind: KindNamed, Members: []Named{named(name)}}
}

func named(name string) Named {
	return Named{Name: name, Builtin: IsBuiltin(name)}
}

func (t Type) String() string {
	names := make([]string, len(t.Members))
	for i, m := range t.Members {
		names[i] = m.Name
	}
	switch t.Kind {
	case KindUnion:
		return strings.Join(names, "|")
	case KindIntersection:
		return strings.Join(names, "&")
	case KindNamed:
		return names[0]
	}
	return ""
}

// ── Kind matching ─────────────────────────────────────────────────────────────

// builtinOf maps a Go type to a builtin name, or "" for object types.
func builtinOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return String
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.Bool:
		return Bool
	case reflect.Slice, reflect.Array, reflect.Map:
		return Array
	case reflect.Func:
		return Callable
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return Mixed
		}
	}
	return ""
}

// MatchesBuiltin reports whether a value of Go type t satisfies the builtin
// type name without any coercion.
func MatchesBuiltin(name string, t reflect.Type) bool {
	if t == nil {
		return false
	}
	if name == Mixed {
		return true
	}
	got := builtinOf(t)
	if got == Mixed {
		return false
	}
	return got == name
}
