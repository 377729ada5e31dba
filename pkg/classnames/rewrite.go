package classnames

import "github.com/gnana997/classwrap/pkg/jsx"

// BindingProvider introduces default imports into a unit.
//
// Each call creates a new import whose local name is derived from nameHint
// and free in the unit. Callers wanting one shared binding call it once.
type BindingProvider interface {
	EnsureDefaultImport(source, nameHint string) jsx.Binding
}

// State is the per-unit state of the rule. The zero value is the state of
// a unit with no import yet.
type State struct {
	importInserted bool
	binding        jsx.Binding
}

// ImportInserted reports whether a shared import exists in the unit.
func (s *State) ImportInserted() bool { return s.importInserted }

// Binding returns the shared binding, zero until the first rewrite.
func (s *State) Binding() jsx.Binding { return s.binding }

// Rewrite wraps the value of a matching attribute in a call to the helper
// and reports whether it did. Non-matching attributes are left untouched.
func Rewrite(attr *jsx.Attribute, cfg Config, state *State, provider BindingProvider) bool {
	if !Matches(attr, cfg) {
		return false
	}

	var callee *jsx.Identifier
	switch {
	case !cfg.NameHint.Shared():
		callee = provider.EnsureDefaultImport(ImportSource, DefaultNameHint).Ref()
	case !state.importInserted:
		state.binding = provider.EnsureDefaultImport(ImportSource, cfg.NameHint.Name())
		state.importInserted = true
		callee = state.binding.Ref()
	default:
		callee = state.binding.Ref()
	}

	wrap(attr, callee)
	return true
}

// wrap replaces {expr} with {callee(expr)}. The original expression node
// becomes the only argument.
func wrap(attr *jsx.Attribute, callee *jsx.Identifier) {
	orig := attr.Value.(*jsx.ExpressionContainer).Expression
	attr.Value = &jsx.ExpressionContainer{
		Expression: &jsx.CallExpr{
			Callee: callee,
			Args:   []jsx.Expr{orig},
		},
	}
}
