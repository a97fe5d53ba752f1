package nodes

import (
	"context"

	"loom/pkg/flow"
)

// humanNode is the interrupt-gated kind: the engine suspends the run before
// executing it whenever no feedback is pending. Execute therefore only runs
// on resume, with injected feedback present.
type humanNode struct {
	base
	interactionType string
	prompt          string
	outputKey       string
}

func newHuman(bc flow.BuildContext) (flow.Behavior, error) {
	return &humanNode{
		base:            base{bc.Node.ID, "human"},
		interactionType: bc.Config.String("interaction_type", "approve"),
		prompt:          bc.Config.String("prompt", ""),
		outputKey:       bc.Config.String("output_key", "feedback"),
	}, nil
}

// InterruptRequest describes the interaction the run is waiting for. The
// engine emits it with the human-input-request event before suspending.
func (n *humanNode) InterruptRequest(s *flow.State) map[string]any {
	return map[string]any{
		"interaction_type": n.interactionType,
		"prompt":           flow.Interpolate(n.prompt, s),
		"output_key":       n.outputKey,
	}
}

// Execute consumes the injected feedback exactly once into this node's
// output variable and clears it, so later nodes never see stale feedback
// and a later visit suspends again.
func (n *humanNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	if s.HumanFeedback == "" {
		return flow.Update{}, nil
	}
	return flow.Update{
		Messages: []flow.Message{flow.NewMessage("user", s.HumanFeedback)},
		Variables: map[string]map[string]any{n.id: {
			n.outputKey: s.HumanFeedback,
		}},
		HumanFeedback: flow.StringPtr(""),
	}, nil
}
