package nodes

import (
	"context"
	"time"

	"loom/pkg/flow"
)

// currentTimeKey is the one reserved start-node config key: its value is
// replaced with the run's start timestamp.
const currentTimeKey = "current_time"

type startNode struct {
	base
	cfg        flow.Config
	workflowID string
	user       string
}

func newStart(bc flow.BuildContext) (flow.Behavior, error) {
	return &startNode{
		base:       base{bc.Node.ID, "start"},
		cfg:        bc.Config,
		workflowID: bc.WorkflowID,
		user:       bc.User,
	}, nil
}

// Execute seeds the start node's namespace from literal configuration and
// stamps run metadata. Inputs supplied to Run already live in this
// namespace and survive the merge unless the config names the same key.
func (n *startNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	now := time.Now().Format(time.RFC3339)
	ns := make(map[string]any, len(n.cfg)+1)
	for k, v := range n.cfg {
		ns[k] = v
	}
	ns[currentTimeKey] = now
	return flow.Update{
		Variables: map[string]map[string]any{n.id: ns},
		Metadata: map[string]any{
			"workflow_id": n.workflowID,
			"user":        n.user,
			"started_at":  now,
		},
	}, nil
}
