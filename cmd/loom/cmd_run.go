package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/logging"
	"loom/pkg/flow"
	"loom/pkg/flow/nodes"
)

var runFlags struct {
	spec      string
	template  string
	thread    string
	db        string
	workflows string
	user      string
	inputs    []string
	replies   []string
	events    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workflow to completion, suspension, or failure",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.spec, "spec", "", "Path to a YAML/JSON workflow spec")
	f.StringVar(&runFlags.template, "template", "", "Name of an embedded preset template")
	f.StringVar(&runFlags.thread, "thread", "", "Thread id (generated when empty)")
	f.StringVar(&runFlags.db, "db", "", "SQLite checkpoint file (in-memory when empty)")
	f.StringVar(&runFlags.workflows, "workflows", "", "Directory of specs resolvable by subgraph nodes")
	f.StringVar(&runFlags.user, "user", "", "Initiating user recorded in run metadata")
	f.StringArrayVar(&runFlags.inputs, "input", nil, "Start-node input as key=value (repeatable)")
	f.StringArrayVar(&runFlags.replies, "reply", nil, "Scripted model reply, in order (repeatable)")
	f.BoolVar(&runFlags.events, "events", false, "Print the event trace after the run")
}

func runRun(cmd *cobra.Command, _ []string) error {
	spec, err := loadSpec(runFlags.spec, runFlags.template)
	if err != nil {
		return err
	}
	inputs, err := parseInputs(runFlags.inputs)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(runFlags.db)
	if err != nil {
		return err
	}
	defer closeStore()

	log := logging.New("run")
	graph, err := flow.Compile(spec, nodes.DefaultRegistry(),
		flow.WithServices(buildServices(store, runFlags.replies, runFlags.workflows)),
		flow.WithUser(runFlags.user),
		flow.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	eng := flow.NewEngine(graph, flow.WithStore(store))
	res, runErr := eng.Run(cmd.Context(), runFlags.thread, inputs)
	printResult(cmd, res)
	if runFlags.events {
		printEvents(cmd, res.Events)
	}
	return runErr
}

func printResult(cmd *cobra.Command, res *flow.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status:  %s\n", res.Status)
	fmt.Fprintf(out, "Thread:  %s\n", res.ThreadID)
	fmt.Fprintf(out, "Steps:   %d\n", res.Steps)
	if res.Output != "" {
		fmt.Fprintf(out, "Output:  %s\n", res.Output)
	}
	if res.Status == flow.StatusSuspended {
		fmt.Fprintf(out, "Run is waiting for input. Continue with:\n")
		fmt.Fprintf(out, "  loom resume --thread %s --feedback <text>\n", res.ThreadID)
	}
}

func printEvents(cmd *cobra.Command, events []flow.Event) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Events: (%d)\n", len(events))
	for _, e := range events {
		if e.NodeID != "" {
			fmt.Fprintf(out, "  %-20s %s\n", e.Type, e.NodeID)
		} else {
			fmt.Fprintf(out, "  %-20s\n", e.Type)
		}
	}
}
