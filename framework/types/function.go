package types

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Function is an autowirable function: a constructor or any other callable
// whose parameters have been described.
type Function struct {
	Identity string
	Params   []*Parameter

	fn  reflect.Value
	typ reflect.Type
}

// Returns is the Go type of the first result, or nil when there is none.
func (f *Function) Returns() reflect.Type {
	if f.typ.NumOut() == 0 || f.typ.Out(0) == errorType {
		return nil
	}
	return f.typ.Out(0)
}

// Call invokes the function with one value per parameter. A trailing error
// result is split off and returned as err.
func (f *Function) Call(args []any) ([]any, error) {
	if len(args) != len(f.Params) {
		return nil, fmt.Errorf("%s(): expected %d arguments, got %d", f.Identity, len(f.Params), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, err := f.Params[i].Value(a)
		if err != nil {
			return nil, fmt.Errorf("%s(): argument #%d $%s: %w", f.Identity, i+1, f.Params[i].Name, err)
		}
		in[i] = v
	}
	out := f.fn.Call(in)
	if n := len(out); n > 0 && f.typ.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, err
		}
		out = out[:n-1]
	}
	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}
	return results, nil
}

func newFunction(r *Registry, identity string, fn any, specs []*ParamSpec) (*Function, error) {
	if fn == nil {
		return nil, fmt.Errorf("%s: function cannot be nil", identity)
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s: expected a function, got %s", identity, t)
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("%s: variadic functions cannot be autowired", identity)
	}
	if t.NumIn() != len(specs) {
		return nil, fmt.Errorf("%s: function has %d parameters but %d were described", identity, t.NumIn(), len(specs))
	}
	f := &Function{Identity: identity, fn: v, typ: t}
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		if s == nil {
			return nil, fmt.Errorf("%s: parameter #%d is nil", identity, i+1)
		}
		p, err := s.build(r, i, t.In(i))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", identity, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%s: duplicate parameter $%s", identity, p.Name)
		}
		seen[p.Name] = true
		f.Params = append(f.Params, p)
	}
	return f, nil
}

// validateConstructor enforces func(...) T or func(...) (T, error).
func validateConstructor(identity string, t reflect.Type) error {
	switch t.NumOut() {
	case 1:
		if t.Out(0) == errorType {
			return fmt.Errorf("%s: constructor must return a value", identity)
		}
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("%s: constructor's second result must be error, got %s", identity, t.Out(1))
		}
	default:
		return fmt.Errorf("%s: constructor must return T or (T, error), got %d results", identity, t.NumOut())
	}
	return nil
}
