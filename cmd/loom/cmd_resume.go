package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/logging"
	"loom/pkg/flow"
	"loom/pkg/flow/nodes"
)

var resumeFlags struct {
	spec      string
	template  string
	thread    string
	feedback  string
	db        string
	workflows string
	replies   []string
	events    bool
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a suspended run with human feedback",
	RunE:  runResume,
}

func init() {
	f := resumeCmd.Flags()
	f.StringVar(&resumeFlags.spec, "spec", "", "Path to the YAML/JSON spec the thread was started from")
	f.StringVar(&resumeFlags.template, "template", "", "Name of the preset template the thread was started from")
	f.StringVar(&resumeFlags.thread, "thread", "", "Thread id of the suspended run (required)")
	f.StringVar(&resumeFlags.feedback, "feedback", "", "Feedback to inject (required)")
	f.StringVar(&resumeFlags.db, "db", "", "SQLite checkpoint file the run was checkpointed to")
	f.StringVar(&resumeFlags.workflows, "workflows", "", "Directory of specs resolvable by subgraph nodes")
	f.StringArrayVar(&resumeFlags.replies, "reply", nil, "Scripted model reply, in order (repeatable)")
	f.BoolVar(&resumeFlags.events, "events", false, "Print the event trace after the run")

	_ = resumeCmd.MarkFlagRequired("thread")
	_ = resumeCmd.MarkFlagRequired("feedback")
}

func runResume(cmd *cobra.Command, _ []string) error {
	spec, err := loadSpec(resumeFlags.spec, resumeFlags.template)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(resumeFlags.db)
	if err != nil {
		return err
	}
	defer closeStore()

	log := logging.New("resume")
	graph, err := flow.Compile(spec, nodes.DefaultRegistry(),
		flow.WithServices(buildServices(store, resumeFlags.replies, resumeFlags.workflows)),
		flow.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	eng := flow.NewEngine(graph, flow.WithStore(store))
	res, runErr := eng.Resume(cmd.Context(), resumeFlags.thread, resumeFlags.feedback)
	if res == nil {
		return runErr
	}
	printResult(cmd, res)
	if resumeFlags.events {
		printEvents(cmd, res.Events)
	}
	return runErr
}
