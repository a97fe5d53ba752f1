package nodes

import (
	"context"
	"strings"
	"time"

	"loom/pkg/flow"
)

type endNode struct {
	base
	outputRef string
}

func newEnd(bc flow.BuildContext) (flow.Behavior, error) {
	ref := bc.Config.String("output", "")
	if ref == "" {
		ref = bc.Config.String("output_key", "")
	}
	return &endNode{base: base{bc.Node.ID, "end"}, outputRef: ref}, nil
}

// Execute resolves the run's final output from the configured reference,
// falling back to the last message, and stamps completion metadata.
func (n *endNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	var out string
	if n.outputRef != "" {
		out = resolveText(s, n.outputRef)
		if out == n.outputRef && !strings.Contains(n.outputRef, "{{#") {
			// The reference named no variable; it is not itself the output.
			out = ""
		}
	}
	if out == "" {
		if m, ok := s.LastMessage(); ok {
			out = m.Content
		}
	}
	return flow.Update{
		FinalOutput: flow.StringPtr(out),
		Metadata:    map[string]any{"completed_at": time.Now().Format(time.RFC3339)},
	}, nil
}
