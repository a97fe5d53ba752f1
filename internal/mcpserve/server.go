// Package mcpserve exposes the workflow engine over MCP: running,
// resuming, and inspecting workflows become tools any MCP client can call.
package mcpserve

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"loom/internal/logging"
	"loom/internal/specfile"
	"loom/pkg/flow"
	"loom/pkg/flow/nodes"
)

// Options configures the server.
type Options struct {
	Services *flow.Services
	Store    flow.Store
	Registry flow.Registry
	Version  string
}

// Server wraps an MCP server with the engine tool set. Engines are kept
// per thread id so suspended runs can be resumed in a later call.
type Server struct {
	MCPServer *sdkmcp.Server

	services *flow.Services
	store    flow.Store
	registry flow.Registry
	log      *slog.Logger

	mu      sync.Mutex
	engines map[string]*flow.Engine
}

func New(opts Options) *Server {
	if opts.Services == nil {
		opts.Services = &flow.Services{}
	}
	if opts.Store == nil {
		opts.Store = flow.NewMemoryStore()
	}
	if opts.Registry == nil {
		opts.Registry = nodes.DefaultRegistry()
	}
	if opts.Version == "" {
		opts.Version = "v0.0.1"
	}

	s := &Server{
		services: opts.Services,
		store:    opts.Store,
		registry: opts.Registry,
		log:      logging.New("mcpserve"),
		engines:  map[string]*flow.Engine{},
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "loom", Version: opts.Version}, nil)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "run_workflow",
		Description: "Run a workflow spec (inline YAML/JSON or a preset template) to completion or suspension",
	}, s.runWorkflow)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "resume_workflow",
		Description: "Resume a suspended workflow thread with human feedback",
	}, s.resumeWorkflow)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "get_state",
		Description: "Get the latest checkpointed state of a workflow thread",
	}, s.getState)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "get_history",
		Description: "List a workflow thread's checkpoints, newest first",
	}, s.getHistory)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "validate_workflow",
		Description: "Structurally validate a workflow spec without running it",
	}, s.validateWorkflow)
	sdkmcp.AddTool(srv, &sdkmcp.Tool{
		Name:        "list_templates",
		Description: "List embedded preset workflow templates and registered node kinds",
	}, s.listTemplates)
	s.MCPServer = srv
	return s
}

// Serve runs the server over stdio until the context ends.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("serving engine tools over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

type RunInput struct {
	Spec     string         `json:"spec,omitempty" jsonschema:"inline YAML or JSON workflow spec"`
	Template string         `json:"template,omitempty" jsonschema:"name of an embedded preset template"`
	ThreadID string         `json:"thread_id,omitempty" jsonschema:"thread id, generated when empty"`
	Inputs   map[string]any `json:"inputs,omitempty" jsonschema:"values seeded into the start node namespace"`
}

type RunOutput struct {
	Status   string `json:"status"`
	Output   string `json:"output,omitempty"`
	ThreadID string `json:"thread_id"`
	Steps    int    `json:"steps"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) runWorkflow(ctx context.Context, req *sdkmcp.CallToolRequest, in RunInput) (*sdkmcp.CallToolResult, RunOutput, error) {
	spec, err := s.loadSpec(in.Spec, in.Template)
	if err != nil {
		return nil, RunOutput{}, err
	}
	graph, err := flow.Compile(spec, s.registry,
		flow.WithServices(s.services),
		flow.WithLogger(s.log),
	)
	if err != nil {
		return nil, RunOutput{}, fmt.Errorf("compile: %w", err)
	}
	eng := flow.NewEngine(graph, flow.WithStore(s.store))
	res, runErr := eng.Run(ctx, in.ThreadID, in.Inputs)

	s.mu.Lock()
	s.engines[res.ThreadID] = eng
	s.mu.Unlock()

	out := RunOutput{
		Status:   string(res.Status),
		Output:   res.Output,
		ThreadID: res.ThreadID,
		Steps:    res.Steps,
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return nil, out, nil
}

type ResumeInput struct {
	ThreadID string `json:"thread_id" jsonschema:"thread id of the suspended run"`
	Feedback string `json:"feedback" jsonschema:"human feedback to inject"`
}

func (s *Server) resumeWorkflow(ctx context.Context, req *sdkmcp.CallToolRequest, in ResumeInput) (*sdkmcp.CallToolResult, RunOutput, error) {
	eng, err := s.engine(in.ThreadID)
	if err != nil {
		return nil, RunOutput{}, err
	}
	res, runErr := eng.Resume(ctx, in.ThreadID, in.Feedback)
	if res == nil {
		return nil, RunOutput{}, runErr
	}
	out := RunOutput{
		Status:   string(res.Status),
		Output:   res.Output,
		ThreadID: res.ThreadID,
		Steps:    res.Steps,
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return nil, out, nil
}

type ThreadInput struct {
	ThreadID string `json:"thread_id" jsonschema:"thread id to inspect"`
}

type StateOutput struct {
	ThreadID  string                    `json:"thread_id"`
	Step      int                       `json:"step"`
	Variables map[string]map[string]any `json:"variables"`
	Pending   []string                  `json:"next_pending_nodes,omitempty"`
}

func (s *Server) getState(ctx context.Context, req *sdkmcp.CallToolRequest, in ThreadInput) (*sdkmcp.CallToolResult, StateOutput, error) {
	eng, err := s.engine(in.ThreadID)
	if err != nil {
		return nil, StateOutput{}, err
	}
	snap, err := eng.StateOf(ctx, in.ThreadID)
	if err != nil {
		return nil, StateOutput{}, err
	}
	return nil, StateOutput{
		ThreadID:  snap.ThreadID,
		Step:      snap.Step,
		Variables: snap.Variables,
		Pending:   snap.Pending,
	}, nil
}

type HistoryEntry struct {
	Step      int       `json:"step"`
	Pending   []string  `json:"pending,omitempty"`
	Iteration int       `json:"iteration_count"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryOutput struct {
	ThreadID    string         `json:"thread_id"`
	Checkpoints []HistoryEntry `json:"checkpoints"`
}

func (s *Server) getHistory(ctx context.Context, req *sdkmcp.CallToolRequest, in ThreadInput) (*sdkmcp.CallToolResult, HistoryOutput, error) {
	eng, err := s.engine(in.ThreadID)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	cps, err := eng.History(ctx, in.ThreadID)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	out := HistoryOutput{ThreadID: in.ThreadID}
	for _, cp := range cps {
		out.Checkpoints = append(out.Checkpoints, HistoryEntry{
			Step:      cp.Step,
			Pending:   cp.Pending,
			Iteration: cp.State.IterationCount,
			CreatedAt: cp.CreatedAt,
		})
	}
	return nil, out, nil
}

type ValidateInput struct {
	Spec     string `json:"spec,omitempty" jsonschema:"inline YAML or JSON workflow spec"`
	Template string `json:"template,omitempty" jsonschema:"name of an embedded preset template"`
}

type ValidateOutput struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) validateWorkflow(ctx context.Context, req *sdkmcp.CallToolRequest, in ValidateInput) (*sdkmcp.CallToolResult, ValidateOutput, error) {
	spec, err := s.loadSpec(in.Spec, in.Template)
	if err != nil {
		return nil, ValidateOutput{}, err
	}
	v := flow.Validate(spec, s.registry)
	return nil, ValidateOutput{Valid: v.Valid, Errors: v.Errors, Warnings: v.Warnings}, nil
}

type ListInput struct{}

type ListOutput struct {
	Templates []string         `json:"templates"`
	NodeKinds []nodes.KindInfo `json:"node_kinds"`
}

func (s *Server) listTemplates(ctx context.Context, req *sdkmcp.CallToolRequest, in ListInput) (*sdkmcp.CallToolResult, ListOutput, error) {
	return nil, ListOutput{
		Templates: specfile.Templates(),
		NodeKinds: nodes.Catalog(),
	}, nil
}

func (s *Server) loadSpec(inline, template string) (*flow.GraphSpec, error) {
	switch {
	case inline != "":
		return specfile.Decode([]byte(inline), ".yaml")
	case template != "":
		return specfile.Template(template)
	default:
		return nil, fmt.Errorf("either spec or template is required")
	}
}

func (s *Server) engine(threadID string) (*flow.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eng, ok := s.engines[threadID]
	if !ok {
		return nil, fmt.Errorf("unknown thread id %q, run a workflow first", threadID)
	}
	return eng, nil
}
