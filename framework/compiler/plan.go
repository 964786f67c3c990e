package compiler

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/types"
)

// Routine constructs one class from precomputed argument expressions.
type Routine struct {
	Class string            `json:"class" yaml:"class"`
	Args  []*container.Expr `json:"args,omitempty" yaml:"args,omitempty"`
}

// Plan is the compiled form of a container.
type Plan struct {
	// Routines are keyed by concrete class for transient construction and
	// by "@id" for services.
	Routines map[string]*Routine `json:"routines" yaml:"routines"`
	// Services maps service ids and aliases to the routine building their
	// singleton. Ids absent here are ready-made values.
	Services map[string]string `json:"services" yaml:"services"`
	// Instances maps abstracts to what Instance(abstract) returns.
	Instances map[string]*container.Expr `json:"instances" yaml:"instances"`
}

func newPlan() *Plan {
	return &Plan{
		Routines:  make(map[string]*Routine),
		Services:  make(map[string]string),
		Instances: make(map[string]*container.Expr),
	}
}

func serviceKey(id string) string { return "@" + id }

// RoutineKeys returns the routine keys in sorted order.
func (p *Plan) RoutineKeys() []string { return sortedKeys(p.Routines) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// exprs visits every expression in the plan.
func (p *Plan) exprs(visit func(where string, e *container.Expr) error) error {
	for _, key := range p.RoutineKeys() {
		r := p.Routines[key]
		if r == nil {
			return fmt.Errorf("compiler: routine %s is empty", key)
		}
		for i, e := range r.Args {
			if err := visit(fmt.Sprintf("routine %s arg #%d", key, i+1), e); err != nil {
				return err
			}
		}
	}
	for _, abstract := range sortedKeys(p.Instances) {
		if err := visit("instance "+abstract, p.Instances[abstract]); err != nil {
			return err
		}
	}
	return nil
}

// Portable reports whether every literal in the plan survives encoding:
// strings, booleans and numbers only.
func (p *Plan) Portable() error {
	return p.exprs(func(where string, e *container.Expr) error {
		if e == nil || e.Kind != container.ExprLiteral {
			return nil
		}
		switch e.Value.(type) {
		case nil, string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return nil
		}
		return fmt.Errorf("compiler: %s: literal of type %T cannot be serialized", where, e.Value)
	})
}

// restore undoes what decoders do to literals: JSON widens every number to
// float64, YAML may read an integral float back as int. Literals carry their
// Go type; plans written without one fall back to the declared type.
func (p *Plan) restore() error {
	if p.Routines == nil {
		p.Routines = make(map[string]*Routine)
	}
	if p.Services == nil {
		p.Services = make(map[string]string)
	}
	if p.Instances == nil {
		p.Instances = make(map[string]*container.Expr)
	}
	return p.exprs(func(where string, e *container.Expr) error {
		if e == nil {
			return fmt.Errorf("compiler: %s: empty expression", where)
		}
		if e.Kind != container.ExprLiteral {
			return nil
		}
		if e.GoType != "" {
			v, err := literal(e.GoType, e.Value)
			if err != nil {
				return fmt.Errorf("compiler: %s: %w", where, err)
			}
			e.Value = v
			return nil
		}
		switch v := e.Value.(type) {
		case float64:
			if e.Type == types.Int {
				if v != math.Trunc(v) {
					return fmt.Errorf("compiler: %s: %v is not an integer", where, v)
				}
				e.Value = int(v)
			}
		case int:
			if e.Type == types.Float {
				e.Value = float64(v)
			}
		}
		return nil
	})
}

var literalTypes = map[string]reflect.Type{}

func init() {
	for _, v := range []any{"", false, 0, int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0), float32(0), float64(0)} {
		t := reflect.TypeOf(v)
		literalTypes[t.String()] = t
	}
}

// literal converts a decoded value back to the Go type named by goType.
// A missing value is the zero value of that type.
func literal(goType string, v any) (any, error) {
	to, ok := literalTypes[goType]
	if !ok {
		return nil, fmt.Errorf("literal of type %s cannot be restored", goType)
	}
	if v == nil {
		return reflect.Zero(to).Interface(), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == to {
		return v, nil
	}
	if !isNumber(rv.Kind()) || !isNumber(to.Kind()) {
		return nil, fmt.Errorf("expected %s, got %T", goType, v)
	}
	if to.Kind() < reflect.Float32 && rv.Kind() >= reflect.Float32 {
		if f := rv.Float(); f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
	}
	return rv.Convert(to).Interface(), nil
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64 && k != reflect.Uintptr
}

// ── Codecs ────────────────────────────────────────────────────────────────────

// EncodeJSON writes the plan as indented JSON.
func (p *Plan) EncodeJSON(w io.Writer) error {
	if err := p.Portable(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// DecodeJSON reads a plan written by EncodeJSON.
func DecodeJSON(r io.Reader) (*Plan, error) {
	var p Plan
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("compiler: decoding plan: %w", err)
	}
	if err := p.restore(); err != nil {
		return nil, err
	}
	return &p, nil
}

// EncodeYAML writes the plan as YAML.
func (p *Plan) EncodeYAML(w io.Writer) error {
	if err := p.Portable(); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeYAML reads a plan written by EncodeYAML.
func DecodeYAML(r io.Reader) (*Plan, error) {
	var p Plan
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("compiler: decoding plan: %w", err)
	}
	if err := p.restore(); err != nil {
		return nil, err
	}
	return &p, nil
}
