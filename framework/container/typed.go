package container

import (
	"fmt"
	"reflect"
)

// Resolver is satisfied by *Container and by a compiled container.
type Resolver interface {
	Get(id string) (any, error)
	Instance(abstract string, args map[string]any) (any, error)
	Has(id string) bool
}

// Resolve fetches the service id and asserts its type.
//
//	// Laravel: app('mailer')
//	mailer, err := container.Resolve[Mailer](c, "mailer")
func Resolve[T any](r Resolver, id string) (T, error) {
	var zero T
	v, err := r.Get(id)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: service %q is %T, not %s", id, v, typeName[T]())
	}
	return t, nil
}

// MustResolve is like Resolve but panics on error. Use it in Boot methods and
// main, where a missing service is a programming error.
func MustResolve[T any](r Resolver, id string) T {
	t, err := Resolve[T](r, id)
	if err != nil {
		panic(err)
	}
	return t
}

// Make builds an instance of abstract and asserts its type.
func Make[T any](r Resolver, abstract string, args map[string]any) (T, error) {
	var zero T
	v, err := r.Instance(abstract, args)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: [%s] built %T, not %s", abstract, v, typeName[T]())
	}
	return t, nil
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
