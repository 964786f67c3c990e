package container

// ExprKind tags a compiled argument expression.
type ExprKind string

const (
	// ExprLiteral passes Value as is.
	ExprLiteral ExprKind = "literal"
	// ExprNull passes nil.
	ExprNull ExprKind = "null"
	// ExprDefault passes the parameter's default value.
	ExprDefault ExprKind = "default"
	// ExprService is the singleton registered under Ref.
	ExprService ExprKind = "service"
	// ExprInstance is a fresh object built by the routine Ref.
	ExprInstance ExprKind = "instance"
	// ExprConfig reads Ref from the configuration store as Type.
	ExprConfig ExprKind = "config"
)

// Expr is the compiled form of one constructor argument. GoType is the
// dynamic Go type of a literal Value, kept so decoders can restore it.
type Expr struct {
	Kind   ExprKind `json:"kind" yaml:"kind"`
	Value  any      `json:"value" yaml:"value"`
	GoType string   `json:"go_type,omitempty" yaml:"go_type,omitempty"`
	Ref    string   `json:"ref,omitempty" yaml:"ref,omitempty"`
	Type   string   `json:"type,omitempty" yaml:"type,omitempty"`
}
