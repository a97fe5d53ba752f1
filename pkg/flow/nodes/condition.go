package nodes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"loom/pkg/flow"
)

// condExpr is one (left, operator, right) comparison. Operands may be
// literals, bare variable paths, or inline references.
type condExpr struct {
	Left  string
	Op    string
	Right string
}

// conditionCase is an ordered group of comparisons joined by and/or logic,
// routing to its target when it matches.
type conditionCase struct {
	ID     string
	Target string
	Logic  string
	Exprs  []condExpr
}

type conditionNode struct {
	base
	cases         []conditionCase
	defaultTarget string
	targets       []string
}

func newCondition(bc flow.BuildContext) (flow.Behavior, error) {
	cases, err := decodeCases(bc.Config.List("cases"))
	if err != nil {
		return nil, err
	}
	declared := map[string]bool{}
	for _, t := range bc.Targets {
		declared[t] = true
	}
	for _, c := range cases {
		if !declared[c.Target] {
			return nil, fmt.Errorf("%w: case %q routes to %q", flow.ErrUnknownTarget, c.ID, c.Target)
		}
	}
	def := bc.Config.String("default_target", "")
	if def != "" && !declared[def] {
		return nil, fmt.Errorf("%w: default target %q", flow.ErrUnknownTarget, def)
	}
	return &conditionNode{
		base:          base{bc.Node.ID, "condition"},
		cases:         cases,
		defaultTarget: def,
		targets:       bc.Targets,
	}, nil
}

func decodeCases(raw []any) ([]conditionCase, error) {
	var cases []conditionCase
	for i, rc := range raw {
		m, ok := rc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("case %d is not a mapping", i)
		}
		cfg := flow.Config(m)
		c := conditionCase{
			ID:     cfg.String("id", fmt.Sprintf("case_%d", i)),
			Target: cfg.String("target", ""),
			Logic:  strings.ToLower(cfg.String("logic", "and")),
		}
		if c.Target == "" {
			c.Target = c.ID
		}
		for j, re := range cfg.List("conditions") {
			em, ok := re.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("case %q condition %d is not a mapping", c.ID, j)
			}
			ecfg := flow.Config(em)
			c.Exprs = append(c.Exprs, condExpr{
				Left:  ecfg.String("left", ""),
				Op:    ecfg.String("operator", "equals"),
				Right: ecfg.String("right", ""),
			})
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Execute is a no-op: condition nodes are pure routers.
func (n *conditionNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	return flow.Update{}, nil
}

// Route returns the target of the first matching case, then the configured
// default, then the last declared target.
func (n *conditionNode) Route(ctx context.Context, s *flow.State) (string, error) {
	for _, c := range n.cases {
		if c.matches(s) {
			return c.Target, nil
		}
	}
	if n.defaultTarget != "" {
		return n.defaultTarget, nil
	}
	return lastTarget(n.targets, flow.End), nil
}

func (c conditionCase) matches(s *flow.State) bool {
	if len(c.Exprs) == 0 {
		return false
	}
	if c.Logic == "or" {
		for _, e := range c.Exprs {
			if e.eval(s) {
				return true
			}
		}
		return false
	}
	for _, e := range c.Exprs {
		if !e.eval(s) {
			return false
		}
	}
	return true
}

func (e condExpr) eval(s *flow.State) bool {
	l := flow.ResolveOperand(s, e.Left)
	r := flow.ResolveOperand(s, e.Right)
	switch e.Op {
	case "equals":
		return l == r
	case "not_equals":
		return l != r
	case "contains":
		return strings.Contains(l, r)
	case "not_contains":
		return !strings.Contains(l, r)
	case "greater_than":
		return numeric(l, r, func(a, b float64) bool { return a > b })
	case "less_than":
		return numeric(l, r, func(a, b float64) bool { return a < b })
	case "greater_equal":
		return numeric(l, r, func(a, b float64) bool { return a >= b })
	case "less_equal":
		return numeric(l, r, func(a, b float64) bool { return a <= b })
	case "is_empty":
		return strings.TrimSpace(l) == ""
	case "is_not_empty":
		return strings.TrimSpace(l) != ""
	case "starts_with":
		return strings.HasPrefix(l, r)
	case "ends_with":
		return strings.HasSuffix(l, r)
	}
	return false
}

// numeric parses both operands as floats; either failing makes the
// comparison false.
func numeric(l, r string, cmp func(a, b float64) bool) bool {
	a, err := strconv.ParseFloat(strings.TrimSpace(l), 64)
	if err != nil {
		return false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
	if err != nil {
		return false
	}
	return cmp(a, b)
}
