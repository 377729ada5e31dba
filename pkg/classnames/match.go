package classnames

import (
	"slices"

	"github.com/gnana997/classwrap/pkg/jsx"
)

// Matches reports whether attr qualifies for rewriting under cfg: its name
// is one of cfg.AttributeNames and its value is a {...} container holding
// anything but a string literal, a spread, a member expression (unless
// IgnoreMemberExpression is off) or an identifier (unless IgnoreIdentifier
// is off).
func Matches(attr *jsx.Attribute, cfg Config) bool {
	if attr == nil || attr.Namespace != "" {
		return false
	}
	if !slices.Contains(cfg.AttributeNames, attr.Name) {
		return false
	}

	container, ok := attr.Value.(*jsx.ExpressionContainer)
	if !ok || container.Expression == nil {
		return false
	}

	switch container.Expression.(type) {
	case *jsx.StringLiteral:
		return false
	case *jsx.EmptyExpr, *jsx.SpreadElement:
		// {} and {...x} cannot be passed as an argument
		return false
	case *jsx.MemberExpr:
		return !cfg.IgnoreMemberExpression
	case *jsx.Identifier:
		return !cfg.IgnoreIdentifier
	}
	return true
}
