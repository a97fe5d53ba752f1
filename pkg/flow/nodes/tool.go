package nodes

import (
	"context"
	"fmt"

	"loom/pkg/flow"
)

type toolNode struct {
	base
	toolName  string
	args      map[string]any
	outputKey string
	tools     flow.ToolInvoker
	stream    *flow.Stream
}

func newTool(bc flow.BuildContext) (flow.Behavior, error) {
	name := bc.Config.String("tool_name", bc.Config.String("tool", ""))
	if name == "" {
		return nil, fmt.Errorf("tool node %q: tool_name is required", bc.Node.ID)
	}
	return &toolNode{
		base:      base{bc.Node.ID, "tool"},
		toolName:  name,
		args:      bc.Config.Map("args"),
		outputKey: bc.Config.String("output_key", "output"),
		tools:     bc.Services.Tools,
		stream:    bc.Stream,
	}, nil
}

func (n *toolNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	if n.tools == nil {
		return flow.Update{}, fmt.Errorf("node %q: no tool invoker configured", n.id)
	}

	args := make(map[string]any, len(n.args))
	for k, v := range n.args {
		if str, ok := v.(string); ok {
			args[k] = flow.Interpolate(str, s)
		} else {
			args[k] = v
		}
	}

	n.emit(flow.EventToolCall, map[string]any{"tool": n.toolName, "args": args})
	result, err := n.tools.CallTool(ctx, n.toolName, args)
	if err != nil {
		return flow.Update{}, fmt.Errorf("tool %q: %w", n.toolName, err)
	}
	n.emit(flow.EventToolResult, map[string]any{"tool": n.toolName, "result": result})

	return flow.Update{
		Messages:  []flow.Message{flow.NewMessage("tool", result)},
		Variables: map[string]map[string]any{n.id: {n.outputKey: result}},
	}, nil
}

func (n *toolNode) emit(t flow.EventType, payload map[string]any) {
	if n.stream != nil {
		n.stream.Emit(flow.Event{Type: t, NodeID: n.id, Payload: payload})
	}
}
