package nodes

import (
	"sort"

	"loom/pkg/flow"
)

// DefaultRegistry returns the full node-kind registry. The registry is the
// compiler's closed dispatch table; a spec node whose type tag is not here
// is dropped at parse time.
func DefaultRegistry() flow.Registry {
	return flow.Registry{
		"start":      newStart,
		"end":        newEnd,
		"condition":  newCondition,
		"loop":       newLoop,
		"reflection": newReflection,
		"supervisor": newSupervisor,
		"human":      newHuman,
		"map_reduce": newMapReduce,
		"subgraph":   newSubgraph,
		"agent":      newAgent,
		"llm":        newLLM,
		"tool":       newTool,
		"code":       newCode,
	}
}

// KindInfo describes one registered node kind for catalog listings.
type KindInfo struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	ConfigKeys  []string `json:"config_keys,omitempty"`
}

// Catalog enumerates the registered node kinds with their recognized
// configuration keys, sorted by kind.
func Catalog() []KindInfo {
	kinds := []KindInfo{
		{"agent", "invokes the model and takes over as current agent", []string{"prompt", "system_prompt", "output_key"}},
		{"code", "runs an isolated code snippet over named inputs", []string{"code", "inputs", "output_key"}},
		{"condition", "routes to the first matching case", []string{"cases", "default_target"}},
		{"end", "resolves the final output and completes the run", []string{"output"}},
		{"human", "pauses for external input, consumed exactly once", []string{"interaction_type", "prompt", "output_key"}},
		{"llm", "invokes the model with an interpolated prompt", []string{"prompt", "system_prompt", "output_key"}},
		{"loop", "routes back to its body until the exit condition or cap", []string{"loop_target", "exit_target", "max_iterations", "exit_condition", "exit_value"}},
		{"map_reduce", "fans items out over a bounded pool and aggregates", []string{"input", "map_prompt", "reduce_prompt", "max_concurrency", "fail_fast", "output_key"}},
		{"reflection", "evaluates work, retrying until accepted or capped", []string{"evaluation_prompt", "input", "max_reflections", "accept_target", "retry_target"}},
		{"start", "seeds run variables and metadata", []string{"current_time"}},
		{"subgraph", "runs a nested workflow in its own checkpoint scope", []string{"workflow_id", "input_mapping", "output_mapping"}},
		{"supervisor", "delegates to managed agents round by round", []string{"agents", "prompt", "max_rounds"}},
		{"tool", "invokes an external tool with interpolated arguments", []string{"tool_name", "args", "output_key"}},
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Kind < kinds[j].Kind })
	return kinds
}
