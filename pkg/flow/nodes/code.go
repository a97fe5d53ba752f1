package nodes

import (
	"context"
	"fmt"

	"loom/pkg/flow"
)

// codeNode hands a code snippet and its resolved inputs to the configured
// CodeRunner and merges the returned named outputs into its namespace.
type codeNode struct {
	base
	code   string
	inputs map[string]any
	runner flow.CodeRunner
}

func newCode(bc flow.BuildContext) (flow.Behavior, error) {
	code := bc.Config.String("code", "")
	if code == "" {
		return nil, fmt.Errorf("code node %q: code is required", bc.Node.ID)
	}
	return &codeNode{
		base:   base{bc.Node.ID, "code"},
		code:   code,
		inputs: bc.Config.Map("inputs"),
		runner: bc.Services.Code,
	}, nil
}

func (n *codeNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	if n.runner == nil {
		return flow.Update{}, fmt.Errorf("node %q: no code runner configured", n.id)
	}

	inputs := make(map[string]any, len(n.inputs))
	for k, v := range n.inputs {
		if str, ok := v.(string); ok {
			inputs[k] = resolveText(s, str)
		} else {
			inputs[k] = v
		}
	}

	outputs, err := n.runner.Run(ctx, n.code, inputs)
	if err != nil {
		return flow.Update{}, fmt.Errorf("code node %q: %w", n.id, err)
	}

	ns := make(map[string]any, len(outputs))
	for k, v := range outputs {
		ns[k] = v
	}
	return flow.Update{Variables: map[string]map[string]any{n.id: ns}}, nil
}
