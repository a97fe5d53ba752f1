package nodes

import (
	"context"

	"loom/pkg/flow"
)

const defaultMaxIterations = 10

type loopNode struct {
	base
	bodyTarget    string
	exitTarget    string
	maxIterations int
	exitCondition string
	exitValue     string
}

func newLoop(bc flow.BuildContext) (flow.Behavior, error) {
	body := bc.Config.String("loop_target", bc.Config.String("body_target", ""))
	if body == "" {
		body = firstTarget(bc.Targets, flow.End)
	}
	exit := bc.Config.String("exit_target", "")
	if exit == "" {
		exit = lastTarget(bc.Targets, flow.End)
	}
	return &loopNode{
		base:          base{bc.Node.ID, "loop"},
		bodyTarget:    body,
		exitTarget:    exit,
		maxIterations: bc.Config.Int("max_iterations", defaultMaxIterations),
		exitCondition: bc.Config.String("exit_condition", ""),
		exitValue:     bc.Config.String("exit_value", "true"),
	}, nil
}

// Execute counts the visit; the additive reducer accumulates it.
func (n *loopNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	return flow.Update{IterationCount: 1}, nil
}

// Route keeps sending control to the loop body until the iteration cap or
// the exit condition is met, then takes the exit target. The cap is
// checked first, so it always wins.
func (n *loopNode) Route(ctx context.Context, s *flow.State) (string, error) {
	if s.IterationCount >= n.maxIterations {
		return n.exitTarget, nil
	}
	if n.exitCondition != "" && resolveText(s, n.exitCondition) == n.exitValue {
		return n.exitTarget, nil
	}
	return n.bodyTarget, nil
}
