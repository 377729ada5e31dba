// Package classnames implements the class-name wrapping rule: a dynamic
// {...} value of a class-name attribute is wrapped in a call to the default
// export of the "classnames" package, imported on first use in each unit.
package classnames

import (
	"slices"

	"github.com/spf13/cast"
)

const (
	// ImportSource is the module whose default export wraps attribute values.
	ImportSource = "classnames"

	// DefaultNameHint is the suggested local name of the imported helper. It
	// is also the hint used at every site when sharing is disabled.
	DefaultNameHint = "_babel_plugin_jsx_classnames_advanced"
)

// Option keys recognized by Resolve.
const (
	KeyAttributeNames         = "attributeNames"
	KeyNameHint               = "nameHint"
	KeyIgnoreMemberExpression = "ignoreMemberExpression"
	KeyIgnoreIdentifier       = "ignoreIdentifier"
)

var defaultAttributeNames = []string{
	"className",
	"dropdownClassName",
	"wrapperClassName",
	"wrapClassName",
	"overlayClassName",
}

// DefaultAttributeNames returns the attribute names rewritten by default.
func DefaultAttributeNames() []string {
	return slices.Clone(defaultAttributeNames)
}

// NameHint is either a suggested binding name shared by every rewrite in a
// unit, or NoSharing.
type NameHint struct {
	name   string
	shared bool
}

// Hint returns a shared name hint.
func Hint(name string) NameHint {
	return NameHint{name: name, shared: true}
}

// NoSharing gives every rewritten attribute its own import.
var NoSharing = NameHint{}

// Shared reports whether one binding is shared across a unit.
func (h NameHint) Shared() bool { return h.shared }

// Name returns the hint, or "" for NoSharing.
func (h NameHint) Name() string { return h.name }

func (h NameHint) String() string {
	if !h.shared {
		return "false"
	}
	return h.name
}

// Config is the resolved rule configuration. It is not modified after
// Resolve returns.
type Config struct {
	AttributeNames         []string
	NameHint               NameHint
	IgnoreMemberExpression bool
	IgnoreIdentifier       bool
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		AttributeNames:         DefaultAttributeNames(),
		NameHint:               Hint(DefaultNameHint),
		IgnoreMemberExpression: true,
		IgnoreIdentifier:       true,
	}
}

// Options is a plugin options object as decoded from YAML, JSON or built
// from command-line flags.
type Options map[string]any

// Resolve merges opts over the defaults. Unknown keys are ignored; absent
// or nil keys keep their default. Values of the wrong type are coerced where
// a coercion exists ("false" → false, a single string → one-name list) and
// otherwise leave the default in place.
func Resolve(opts Options) Config {
	cfg := DefaultConfig()

	if v, ok := opts[KeyAttributeNames]; ok && v != nil {
		if name, ok := v.(string); ok {
			cfg.AttributeNames = []string{name}
		} else if names, err := cast.ToStringSliceE(v); err == nil {
			cfg.AttributeNames = names
		}
	}

	if v, ok := opts[KeyNameHint]; ok && v != nil {
		cfg.NameHint = resolveNameHint(v, cfg.NameHint)
	}

	if v, ok := opts[KeyIgnoreMemberExpression]; ok && v != nil {
		if b, err := cast.ToBoolE(v); err == nil {
			cfg.IgnoreMemberExpression = b
		}
	}

	if v, ok := opts[KeyIgnoreIdentifier]; ok && v != nil {
		if b, err := cast.ToBoolE(v); err == nil {
			cfg.IgnoreIdentifier = b
		}
	}

	return cfg
}

// resolveNameHint maps false to NoSharing and a string to a hint. true has
// no meaning as a hint and keeps the default.
func resolveNameHint(v any, def NameHint) NameHint {
	switch v := v.(type) {
	case bool:
		if !v {
			return NoSharing
		}
		return def
	case string:
		return Hint(v)
	}

	if s, err := cast.ToStringE(v); err == nil {
		return Hint(s)
	}
	return def
}

// Options returns cfg as an options object; Resolve(cfg.Options()) equals
// cfg.
func (cfg Config) Options() Options {
	var hint any = false
	if cfg.NameHint.Shared() {
		hint = cfg.NameHint.Name()
	}
	return Options{
		KeyAttributeNames:         slices.Clone(cfg.AttributeNames),
		KeyNameHint:               hint,
		KeyIgnoreMemberExpression: cfg.IgnoreMemberExpression,
		KeyIgnoreIdentifier:       cfg.IgnoreIdentifier,
	}
}
