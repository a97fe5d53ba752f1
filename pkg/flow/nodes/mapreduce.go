package nodes

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"loom/pkg/flow"
)

const (
	defaultMaxConcurrency = 5
	itemPlaceholder       = "{{item}}"
	resultsPlaceholder    = "{{results}}"
	resultSeparator       = "\n---\n"
)

// mapReduceNode fans a collection out over a bounded worker pool, one model
// call per item, then aggregates the order-preserved results in a single
// reduce pass.
type mapReduceNode struct {
	base
	inputRef       string
	mapPrompt      string
	reducePrompt   string
	maxConcurrency int
	failFast       bool
	outputKey      string
	model          flow.ModelInvoker
}

func newMapReduce(bc flow.BuildContext) (flow.Behavior, error) {
	return &mapReduceNode{
		base:           base{bc.Node.ID, "map_reduce"},
		inputRef:       bc.Config.String("input", ""),
		mapPrompt:      bc.Config.String("map_prompt", ""),
		reducePrompt:   bc.Config.String("reduce_prompt", ""),
		maxConcurrency: bc.Config.Int("max_concurrency", defaultMaxConcurrency),
		failFast:       bc.Config.Bool("fail_fast", false),
		outputKey:      bc.Config.String("output_key", "output"),
		model:          bc.Services.Model,
	}, nil
}

func (n *mapReduceNode) Execute(ctx context.Context, s *flow.State) (flow.Update, error) {
	items := n.items(s)
	if len(items) == 0 {
		return flow.Update{
			Variables: map[string]map[string]any{n.id: {n.outputKey: "", "items": 0}},
		}, nil
	}

	results := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(n.maxConcurrency, len(items)))
	for i, item := range items {
		g.Go(func() error {
			out, err := n.mapItem(gctx, s, item)
			if err != nil {
				if n.failFast {
					return fmt.Errorf("item %d: %w", i, err)
				}
				out = fmt.Sprintf("[error: %v]", err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return flow.Update{}, err
	}

	labeled := make([]string, len(results))
	for i, r := range results {
		labeled[i] = fmt.Sprintf("[%d] %s", i, r)
	}
	joined := strings.Join(labeled, resultSeparator)

	final := joined
	if n.reducePrompt != "" && n.model != nil {
		prompt := strings.ReplaceAll(n.reducePrompt, resultsPlaceholder, joined)
		out, err := n.model.Invoke(ctx, flow.Interpolate(prompt, s))
		if err != nil {
			return flow.Update{}, fmt.Errorf("reduce: %w", err)
		}
		final = out
	}

	return flow.Update{
		Variables: map[string]map[string]any{n.id: {
			n.outputKey: final,
			"items":     len(items),
		}},
		IntermediateResults: labeled,
	}, nil
}

// mapItem transforms one item: through the model when a map prompt is
// configured, identity otherwise.
func (n *mapReduceNode) mapItem(ctx context.Context, s *flow.State, item string) (string, error) {
	if n.mapPrompt == "" || n.model == nil {
		return item, nil
	}
	prompt := strings.ReplaceAll(n.mapPrompt, itemPlaceholder, item)
	return n.model.Invoke(ctx, flow.Interpolate(prompt, s))
}

// items resolves the input collection: a list as-is, text split on
// newlines, any other scalar wrapped as a single item.
func (n *mapReduceNode) items(s *flow.State) []string {
	v, ok := s.Variable(n.inputRef)
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		var out []string
		for _, line := range strings.Split(vv, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	default:
		return []string{fmt.Sprint(vv)}
	}
}
