package compiler

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"text/template"

	"github.com/km-arc/go-autowire/framework/container"
)

type renderRoutine struct {
	Key   string
	Func  string
	Class string
	Args  []string
}

type renderEntry struct {
	Key   string
	Value string
}

type renderData struct {
	Package   string
	Routines  []renderRoutine
	Services  []renderEntry
	Instances []renderEntry
}

// Render writes plan as a Go source file in package pkg: one function per
// routine, a Routine dispatch switch keyed by routine key, and a Plan
// function that rebuilds the whole table. Load the result with
// compiler.Load(generated.Plan(), c).
func Render(w io.Writer, plan *Plan, pkg string) error {
	if err := plan.Portable(); err != nil {
		return err
	}
	data := renderData{Package: pkg}
	for i, key := range plan.RoutineKeys() {
		r := plan.Routines[key]
		rr := renderRoutine{Key: key, Func: fmt.Sprintf("routine%d", i), Class: r.Class}
		for _, e := range r.Args {
			rr.Args = append(rr.Args, exprSource(e))
		}
		data.Routines = append(data.Routines, rr)
	}
	for _, id := range sortedKeys(plan.Services) {
		data.Services = append(data.Services, renderEntry{Key: id, Value: fmt.Sprintf("%q", plan.Services[id])})
	}
	for _, abstract := range sortedKeys(plan.Instances) {
		data.Instances = append(data.Instances, renderEntry{Key: abstract, Value: exprSource(plan.Instances[abstract])})
	}

	var buf bytes.Buffer
	if err := planTpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("compiler: rendering plan: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("compiler: formatting generated source: %w", err)
	}
	_, err = w.Write(src)
	return err
}

var exprKinds = map[container.ExprKind]string{
	container.ExprLiteral:  "container.ExprLiteral",
	container.ExprNull:     "container.ExprNull",
	container.ExprDefault:  "container.ExprDefault",
	container.ExprService:  "container.ExprService",
	container.ExprInstance: "container.ExprInstance",
	container.ExprConfig:   "container.ExprConfig",
}

// exprSource renders e as a composite literal of type *container.Expr.
func exprSource(e *container.Expr) string {
	kind, ok := exprKinds[e.Kind]
	if !ok {
		kind = fmt.Sprintf("container.ExprKind(%q)", e.Kind)
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "&container.Expr{Kind: %s", kind)
	if e.Kind == container.ExprLiteral {
		fmt.Fprintf(&b, ", Value: %s", literalSource(e.Value))
		if e.GoType != "" {
			fmt.Fprintf(&b, ", GoType: %q", e.GoType)
		}
	}
	if e.Ref != "" {
		fmt.Fprintf(&b, ", Ref: %q", e.Ref)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, ", Type: %q", e.Type)
	}
	b.WriteString("}")
	return b.String()
}

// literalSource keeps the dynamic type of v when it is stored in an any.
func literalSource(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string, bool, int:
		return fmt.Sprintf("%#v", v)
	}
	return fmt.Sprintf("%T(%#v)", v, v)
}

var planTpl = template.Must(template.New("plan").Parse(`// Code generated by go-autowire; DO NOT EDIT.

package {{.Package}}

import (
	"github.com/km-arc/go-autowire/framework/compiler"
	"github.com/km-arc/go-autowire/framework/container"
)

// Routine returns the construction routine stored under key.
func Routine(key string) (*compiler.Routine, bool) {
	switch key {
{{- range .Routines}}
	case {{printf "%q" .Key}}:
		return {{.Func}}(), true
{{- end}}
	}
	return nil, false
}
{{range .Routines}}
// {{.Func}} builds {{.Class}} for {{printf "%q" .Key}}.
func {{.Func}}() *compiler.Routine {
	return &compiler.Routine{
		Class: {{printf "%q" .Class}},
{{- if .Args}}
		Args: []*container.Expr{
{{- range .Args}}
			{{.}},
{{- end}}
		},
{{- end}}
	}
}
{{end}}
var routineKeys = []string{
{{- range .Routines}}
	{{printf "%q" .Key}},
{{- end}}
}

// Plan rebuilds the compiled plan.
func Plan() *compiler.Plan {
	p := &compiler.Plan{
		Routines: make(map[string]*compiler.Routine, len(routineKeys)),
		Services: map[string]string{
{{- range .Services}}
			{{printf "%q" .Key}}: {{.Value}},
{{- end}}
		},
		Instances: map[string]*container.Expr{
{{- range .Instances}}
			{{printf "%q" .Key}}: {{.Value}},
{{- end}}
		},
	}
	for _, key := range routineKeys {
		p.Routines[key], _ = Routine(key)
	}
	return p
}
`))
