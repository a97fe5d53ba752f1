package nodes

import (
	"context"
	"fmt"
	"strings"

	"loom/pkg/flow"
)

const (
	defaultMaxRounds = 10
	finishDecision   = "FINISH"
	recentMessages   = 6
)

// supervisorNode coordinates a roster of managed agents: each round the
// model is shown the recent conversation and asked which agent should act
// next, or FINISH.
type supervisorNode struct {
	base
	prompt    string
	agents    []string
	maxRounds int
	targets   []string
	declared  map[string]bool
	model     flow.ModelInvoker
}

func newSupervisor(bc flow.BuildContext) (flow.Behavior, error) {
	agents := bc.Config.Strings("agents")
	if len(agents) == 0 {
		agents = bc.Targets
	}
	declared := map[string]bool{}
	for _, t := range bc.Targets {
		declared[t] = true
	}
	return &supervisorNode{
		base:      base{bc.Node.ID, "supervisor"},
		prompt:    bc.Config.String("prompt", "You coordinate a team of agents."),
		agents:    agents,
		maxRounds: bc.Config.Int("max_rounds", defaultMaxRounds),
		targets:   bc.Targets,
		declared:  declared,
		model:     bc.Services.Model,
	}, nil
}

// Execute asks the model for the next delegation decision and records it
// with the round count. A model error ends the delegation rather than
// failing the run.
func (n *supervisorNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	rounds := nsInt(s, n.id, "rounds")

	decision := finishDecision
	if n.model != nil {
		var b strings.Builder
		b.WriteString(flow.Interpolate(n.prompt, s))
		fmt.Fprintf(&b, "\nManaged agents: %s.\n", strings.Join(n.agents, ", "))
		b.WriteString("Recent conversation:\n")
		msgs := s.Messages
		if len(msgs) > recentMessages {
			msgs = msgs[len(msgs)-recentMessages:]
		}
		for _, m := range msgs {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		fmt.Fprintf(&b, "Reply with the id of the agent to act next, or %s when done.", finishDecision)

		if d, err := n.model.Invoke(ctx, b.String()); err == nil {
			decision = strings.TrimSpace(d)
		}
	}

	u := flow.Update{
		Variables: map[string]map[string]any{n.id: {
			"rounds":   rounds + 1,
			"decision": decision,
		}},
	}
	if !n.isFinish(decision) {
		u.CurrentAgent = flow.StringPtr(n.pick(decision))
	}
	return u, nil
}

// Route ends the run on a FINISH decision or when the round cap is hit;
// otherwise it routes to the chosen agent, falling back to the first
// declared target when the decision matches no roster entry.
func (n *supervisorNode) Route(ctx context.Context, s *flow.State) (string, error) {
	rounds := nsInt(s, n.id, "rounds")
	decision := nsString(s, n.id, "decision")
	if rounds >= n.maxRounds || n.isFinish(decision) {
		return flow.End, nil
	}
	return n.pick(decision), nil
}

func (n *supervisorNode) isFinish(decision string) bool {
	return decision == flow.End ||
		strings.Contains(strings.ToUpper(decision), finishDecision)
}

// pick matches the free-text decision against the roster by substring and
// keeps only declared targets, falling back to the first declared target.
func (n *supervisorNode) pick(decision string) string {
	for _, a := range n.agents {
		if strings.Contains(decision, a) && n.declared[a] {
			return a
		}
	}
	return firstTarget(n.targets, flow.End)
}
