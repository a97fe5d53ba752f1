package nodes

import (
	"context"
	"strings"

	"loom/pkg/flow"
)

const defaultMaxReflections = 3

// reflectionNode delegates quality judgment to the model: the evaluator
// answers "ACCEPT" or "RETRY: <feedback>". The retry target is expected to
// loop back to the producing node via a back-edge.
type reflectionNode struct {
	base
	evalPrompt     string
	inputRef       string
	maxReflections int
	acceptTarget   string
	retryTarget    string
	model          flow.ModelInvoker
}

func newReflection(bc flow.BuildContext) (flow.Behavior, error) {
	accept := bc.Config.String("accept_target", "")
	if accept == "" {
		accept = firstTarget(bc.Targets, flow.End)
	}
	retry := bc.Config.String("retry_target", "")
	if retry == "" {
		retry = lastTarget(bc.Targets, accept)
	}
	return &reflectionNode{
		base:           base{bc.Node.ID, "reflection"},
		evalPrompt:     bc.Config.String("evaluation_prompt", "Evaluate the work below. Reply ACCEPT if it is good enough, or RETRY: <feedback> if it needs another pass."),
		inputRef:       bc.Config.String("input", ""),
		maxReflections: bc.Config.Int("max_reflections", defaultMaxReflections),
		acceptTarget:   accept,
		retryTarget:    retry,
		model:          bc.Services.Model,
	}, nil
}

// Execute asks the evaluator for a verdict and records it, together with
// the running reflection count, in this node's namespace. An evaluator
// error counts as acceptance rather than failing the run.
func (n *reflectionNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	count := nsInt(s, n.id, "reflections")

	work := resolveText(s, n.inputRef)
	if work == "" || work == n.inputRef {
		if m, ok := s.LastMessage(); ok {
			work = m.Content
		}
	}

	accepted := true
	feedback := ""
	if n.model != nil {
		prompt := flow.Interpolate(n.evalPrompt, s) + "\n\n" + work
		verdict, err := n.model.Invoke(ctx, prompt)
		if err == nil {
			verdict = strings.TrimSpace(verdict)
			if rest, ok := strings.CutPrefix(verdict, "RETRY:"); ok {
				accepted = false
				feedback = strings.TrimSpace(rest)
			}
		}
	}

	return flow.Update{
		Variables: map[string]map[string]any{n.id: {
			"reflections": count + 1,
			"accepted":    accepted,
			"feedback":    feedback,
		}},
	}, nil
}

// Route sends accepted work forward. The reflection cap overrides the
// verdict: once reached, the accept target is taken no matter what the
// evaluator said.
func (n *reflectionNode) Route(ctx context.Context, s *flow.State) (string, error) {
	count := nsInt(s, n.id, "reflections")
	if count >= n.maxReflections {
		return n.acceptTarget, nil
	}
	if accepted, ok := s.Variables[n.id]["accepted"].(bool); ok && accepted {
		return n.acceptTarget, nil
	}
	return n.retryTarget, nil
}
