package classnames

import (
	"github.com/gnana997/classwrap/pkg/jsx"
	"github.com/gnana997/classwrap/pkg/transform"
)

// RuleName identifies the rule in logs and reports.
const RuleName = "jsx-classnames"

// Rule registers Rewrite with a transform.Host.
type Rule struct {
	cfg Config
}

// NewRule creates a rule with a resolved configuration.
func NewRule(cfg Config) *Rule {
	return &Rule{cfg: cfg}
}

// Name implements transform.Rule.
func (r *Rule) Name() string { return RuleName }

// Config returns the rule's configuration.
func (r *Rule) Config() Config { return r.cfg }

// Begin implements transform.Rule. Each unit gets its own State.
func (r *Rule) Begin(u *transform.Unit) transform.Visitor {
	return &visitor{cfg: r.cfg, unit: u}
}

type visitor struct {
	cfg   Config
	unit  *transform.Unit
	state State
}

func (v *visitor) VisitAttribute(attr *jsx.Attribute) {
	Rewrite(attr, v.cfg, &v.state, v.unit)
}
