package verify

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Violation is one failed rule.
type Violation struct {
	Attribute string
	Rule      string
	Message   string
}

// Proof is the outcome of verifying a subject.
type Proof struct {
	Subject    string
	Violations []Violation
}

// Valid reports whether no rule failed.
func (p Proof) Valid() bool { return len(p.Violations) == 0 }

// First returns the first violation, if any.
func (p Proof) First() (Violation, bool) {
	if len(p.Violations) == 0 {
		return Violation{}, false
	}
	return p.Violations[0], true
}

// Messages groups violation messages by attribute.
// JSON-friendly: {"field": ["msg1", "msg2"]}
func (p Proof) Messages() map[string][]string {
	out := make(map[string][]string)
	for _, v := range p.Violations {
		out[v.Attribute] = append(out[v.Attribute], v.Message)
	}
	return out
}

// Rules is a map of attribute → pipe-separated rule string.
// e.g. Rules{"email": "required|email", "age": "required|numeric|gte:18"}
type Rules map[string]string

// Engine runs rules against flat data or tagged structs.
type Engine struct {
	rules map[string]Rule
}

// New returns an engine with the built-in rule set.
func New() *Engine {
	return &Engine{rules: defaultRules()}
}

// Extend registers or replaces a rule.
func (e *Engine) Extend(name string, r Rule) {
	e.rules[name] = r
}

// Check validates data against rules. Attributes are visited in sorted
// order; the first failing rule of an attribute stops the others.
func (e *Engine) Check(data map[string]string, rules Rules) Proof {
	attrs := make([]string, 0, len(rules))
	for a := range rules {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	var p Proof
	for _, a := range attrs {
		if v, failed := e.attribute(a, rules[a], data); failed {
			p.Violations = append(p.Violations, v)
		}
	}
	return p
}

// Verify validates the exported fields of a struct (or pointer to struct)
// that carry a `verify:"rule|rule"` tag. The attribute name is the field's
// `config` tag, then its `json` tag, then the field name.
//
//	type Mailer struct {
//	    Host string `verify:"required"`
//	    Port int    `verify:"required|integer|gt:0"`
//	}
func (e *Engine) Verify(subject any) Proof {
	v := reflect.ValueOf(subject)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Proof{Violations: []Violation{{Rule: "required", Message: "The subject is nil."}}}
		}
		v = v.Elem()
	}
	p := Proof{Subject: fmt.Sprintf("%T", subject)}
	if v.Kind() != reflect.Struct {
		return p
	}

	t := v.Type()
	data := make(map[string]string, t.NumField())
	var attrs, rules []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := attributeName(f)
		data[name] = stringify(v.Field(i))
		if tag, ok := f.Tag.Lookup("verify"); ok && tag != "" {
			attrs = append(attrs, name)
			rules = append(rules, tag)
		}
	}
	for i, a := range attrs {
		if viol, failed := e.attribute(a, rules[i], data); failed {
			p.Violations = append(p.Violations, viol)
		}
	}
	return p
}

func (e *Engine) attribute(attr, ruleStr string, data map[string]string) (Violation, bool) {
	value := data[attr]
	for _, rule := range strings.Split(ruleStr, "|") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		name, param, _ := strings.Cut(rule, ":")
		switch name {
		case "nullable", "sometimes":
			if value == "" {
				return Violation{}, false
			}
			continue
		}
		r, ok := e.rules[name]
		if !ok {
			return Violation{Attribute: attr, Rule: name, Message: fmt.Sprintf("Unknown rule %q on %s.", name, attr)}, true
		}
		if msg := r(Input{Attribute: attr, Value: value, Param: param, Data: data}); msg != "" {
			return Violation{Attribute: attr, Rule: name, Message: msg}, true
		}
	}
	return Violation{}, false
}

func attributeName(f reflect.StructField) string {
	for _, key := range []string{"config", "json"} {
		if tag, ok := f.Tag.Lookup(key); ok {
			if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
				return name
			}
		}
	}
	return f.Name
}

func stringify(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return ""
		}
		return stringify(v.Elem())
	case reflect.Slice, reflect.Map:
		if v.Len() == 0 {
			return ""
		}
	case reflect.String:
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}
