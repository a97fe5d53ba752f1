// Package flow is a graph-based execution engine for agentic workflows.
// A declarative specification of typed nodes and directed, possibly cyclic
// edges is compiled into a resumable state machine: node behaviors consume
// the shared execution state and return partial updates, routers pick the
// next node at run time, and every step is checkpointed so a run can pause
// at human-in-the-loop nodes and continue later.
//
// The package deliberately knows nothing about models or tools. Node
// behaviors delegate to collaborator interfaces (ModelInvoker, ToolInvoker,
// WorkflowLookup, CodeRunner); adapters provide concrete implementations.
package flow
