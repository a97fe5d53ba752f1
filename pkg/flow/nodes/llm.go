package nodes

import (
	"context"
	"fmt"

	"loom/pkg/flow"
)

// llmNode invokes the model with an interpolated prompt and merges the
// reply into the conversation and its own namespace. agentNode is the same
// invocation that additionally takes over as the current agent.
type llmNode struct {
	base
	prompt       string
	systemPrompt string
	outputKey    string
	asAgent      bool
	model        flow.ModelInvoker
	stream       *flow.Stream
}

func newLLM(bc flow.BuildContext) (flow.Behavior, error) {
	return newModelNode(bc, "llm", false), nil
}

func newAgent(bc flow.BuildContext) (flow.Behavior, error) {
	return newModelNode(bc, "agent", true), nil
}

func newModelNode(bc flow.BuildContext, kind string, asAgent bool) *llmNode {
	return &llmNode{
		base:         base{bc.Node.ID, kind},
		prompt:       bc.Config.String("prompt", bc.Config.String("user_prompt", "")),
		systemPrompt: bc.Config.String("system_prompt", ""),
		outputKey:    bc.Config.String("output_key", "output"),
		asAgent:      asAgent,
		model:        bc.Services.Model,
		stream:       bc.Stream,
	}
}

func (n *llmNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	if n.model == nil {
		return flow.Update{}, fmt.Errorf("node %q: no model invoker configured", n.id)
	}

	prompt := flow.Interpolate(n.prompt, s)
	if sys := flow.Interpolate(n.systemPrompt, s); sys != "" {
		prompt = sys + "\n\n" + prompt
	}

	text, err := n.invoke(ctx, prompt)
	if err != nil {
		return flow.Update{}, err
	}

	u := flow.Update{
		Messages:  []flow.Message{flow.NewMessage("assistant", text)},
		Variables: map[string]map[string]any{n.id: {n.outputKey: text}},
	}
	if n.asAgent {
		u.CurrentAgent = flow.StringPtr(n.id)
	}
	return u, nil
}

// invoke streams token events when the backend supports it, otherwise
// falls back to a single blocking call.
func (n *llmNode) invoke(ctx context.Context, prompt string) (string, error) {
	if sm, ok := n.model.(flow.StreamingModelInvoker); ok && n.stream != nil {
		return sm.InvokeStream(ctx, prompt, func(chunk string) {
			n.stream.Emit(flow.Event{
				Type:    flow.EventToken,
				NodeID:  n.id,
				Payload: map[string]any{"text": chunk},
			})
		})
	}
	return n.model.Invoke(ctx, prompt)
}
