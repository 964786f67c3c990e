package container

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds, matched with errors.Is.
var (
	ErrNotFound            = errors.New("service not found")
	ErrInvalidAbstract     = errors.New("invalid abstract")
	ErrAmbiguous           = errors.New("ambiguous service")
	ErrAutoWire            = errors.New("autowire failed")
	ErrRecursiveDependency = errors.New("recursive dependency")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrConfig              = errors.New("configuration error")
)

// NotFoundError is returned by Get for an id that was never registered.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container: service %q is not registered", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidAbstractError means a name is neither an alias, a contract, a class
// nor a factory product.
type InvalidAbstractError struct {
	Abstract string
	Reason   string
}

func (e *InvalidAbstractError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("container: cannot resolve [%s]: %s", e.Abstract, e.Reason)
	}
	return fmt.Sprintf("container: [%s] is not a class, alias or contract", e.Abstract)
}

func (e *InvalidAbstractError) Is(target error) bool { return target == ErrInvalidAbstract }

// AmbiguousError lists the ids registered for one concrete class, in
// registration order.
type AmbiguousError struct {
	Concrete string
	IDs      []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("container: [%s] is registered under several ids (%s); request one of them by id",
		e.Concrete, strings.Join(e.IDs, ", "))
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }

// AutoWireError names the parameter that could not be resolved. Err is the
// cause, which may itself be an AutoWireError of a dependency.
type AutoWireError struct {
	Function string
	Position int // one-based
	Name     string
	// Reasons holds one message per rejected member of a union type.
	Reasons []string
	Err     error
}

func (e *AutoWireError) Error() string {
	return fmt.Sprintf("cannot autowire argument #%d $%s of %s(): %v", e.Position, e.Name, e.Function, e.Err)
}

func (e *AutoWireError) Unwrap() error { return e.Err }

func (e *AutoWireError) Is(target error) bool { return target == ErrAutoWire }

// RecursiveDependencyError carries the construction chain in visit order,
// without the repeated entry.
type RecursiveDependencyError struct {
	Chain []string
	Next  string
}

func (e *RecursiveDependencyError) Error() string {
	return fmt.Sprintf("container: recursive dependency on [%s]: %s", e.Next, strings.Join(e.Chain, " => "))
}

func (e *RecursiveDependencyError) Is(target error) bool { return target == ErrRecursiveDependency }

// InvalidRegistrationError rejects a Set, Wire, Alias or Contract call.
type InvalidRegistrationError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *InvalidRegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("container: cannot register [%s]: %s: %v", e.Subject, e.Reason, e.Err)
	}
	return fmt.Sprintf("container: cannot register [%s]: %s", e.Subject, e.Reason)
}

func (e *InvalidRegistrationError) Unwrap() error { return e.Err }

func (e *InvalidRegistrationError) Is(target error) bool { return target == ErrInvalidRegistration }

// ConfigError reports a config-bound parameter that could not be satisfied.
// Attribute is set when a verified data object failed validation.
type ConfigError struct {
	Key       string
	Attribute string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config [%s]", e.Key)
	if e.Attribute != "" {
		fmt.Fprintf(&b, " attribute %q", e.Attribute)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// BuildError wraps an error returned by a constructor or a factory.
type BuildError struct {
	Class string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("container: building [%s]: %v", e.Class, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// unresolvedError is the cause of an AutoWireError when no provider handled
// the parameter.
type unresolvedError struct {
	reason string
}

func (e *unresolvedError) Error() string { return e.reason }

// unionError collects one message per rejected union member.
type unionError struct {
	typ     string
	reasons []string
	causes  []error
}

func (e *unionError) Error() string {
	return fmt.Sprintf("no member of %s could be resolved: %s", e.typ, strings.Join(e.reasons, "; "))
}

func (e *unionError) Unwrap() []error { return e.causes }
