package nodes

import (
	"context"
	"fmt"
	"log/slog"

	"loom/pkg/flow"
)

// subgraphNode runs a nested workflow synchronously inside the parent
// step, in its own checkpoint scope. Child failures never abort the
// parent: they surface as a textual error value in this node's namespace.
type subgraphNode struct {
	base
	workflowID    string
	inputMapping  map[string]any // child input key -> parent reference
	outputMapping map[string]any // parent key -> child "nodeId.key" reference
	services      *flow.Services
	stream        *flow.Stream
	registry      flow.Registry
	log           *slog.Logger
}

func newSubgraph(bc flow.BuildContext) (flow.Behavior, error) {
	wfID := bc.Config.String("workflow_id", "")
	if wfID == "" {
		return nil, fmt.Errorf("subgraph node %q: workflow_id is required", bc.Node.ID)
	}
	return &subgraphNode{
		base:          base{bc.Node.ID, "subgraph"},
		workflowID:    wfID,
		inputMapping:  bc.Config.Map("input_mapping"),
		outputMapping: bc.Config.Map("output_mapping"),
		services:      bc.Services,
		stream:        bc.Stream,
		registry:      bc.Registry,
		log:           bc.Log,
	}, nil
}

func (n *subgraphNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	if n.services.Workflows == nil {
		return n.failure(fmt.Errorf("no workflow lookup configured")), nil
	}
	spec, err := n.services.Workflows.Lookup(ctx, n.workflowID)
	if err != nil {
		return n.failure(fmt.Errorf("lookup %q: %w", n.workflowID, err)), nil
	}

	child, err := flow.Compile(spec, n.registry,
		flow.WithServices(n.services),
		flow.WithStream(n.stream),
		flow.WithLogger(n.log),
	)
	if err != nil {
		return n.failure(fmt.Errorf("compile %q: %w", n.workflowID, err)), nil
	}

	inputs := map[string]any{}
	for childKey, ref := range n.inputMapping {
		inputs[childKey] = resolveText(s, fmt.Sprint(ref))
	}

	// The composite thread id keeps the child's checkpoint history apart
	// from the parent's while remaining discoverable from it.
	ri, _ := flow.RunInfoFrom(ctx)
	childThread := fmt.Sprintf("%s_sub_%s", ri.ThreadID, n.id)

	eng := flow.NewEngine(child, flow.WithStore(n.services.Store))
	res, err := eng.Run(ctx, childThread, inputs)
	if err != nil {
		return n.failure(err), nil
	}
	if res.Status != flow.StatusCompleted {
		return n.failure(fmt.Errorf("nested workflow %q finished %s", n.workflowID, res.Status)), nil
	}

	ns := map[string]any{
		"output":    res.Output,
		"thread_id": childThread,
	}
	for parentKey, childRef := range n.outputMapping {
		ns[parentKey] = res.State.VarString(fmt.Sprint(childRef))
	}
	return flow.Update{Variables: map[string]map[string]any{n.id: ns}}, nil
}

// failure converts any child-side error into a value in this node's
// namespace, keeping the parent run alive.
func (n *subgraphNode) failure(err error) flow.Update {
	n.log.Warn("subgraph failed", "node", n.id, "workflow", n.workflowID, "error", err)
	return flow.Update{
		Variables: map[string]map[string]any{n.id: {
			"error": err.Error(),
		}},
	}
}
