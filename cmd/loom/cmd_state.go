package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var stateFlags struct {
	spec     string
	template string
	thread   string
	db       string
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show a thread's latest checkpointed state",
	RunE:  runState,
}

func init() {
	f := stateCmd.Flags()
	f.StringVar(&stateFlags.spec, "spec", "", "Path to the YAML/JSON spec the thread was started from")
	f.StringVar(&stateFlags.template, "template", "", "Name of the preset template the thread was started from")
	f.StringVar(&stateFlags.thread, "thread", "", "Thread id (required)")
	f.StringVar(&stateFlags.db, "db", "", "SQLite checkpoint file the run was checkpointed to")

	_ = stateCmd.MarkFlagRequired("thread")
}

func runState(cmd *cobra.Command, _ []string) error {
	spec, err := loadSpec(stateFlags.spec, stateFlags.template)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(stateFlags.db)
	if err != nil {
		return err
	}
	defer closeStore()

	cp, err := store.Latest(cmd.Context(), spec.ID, stateFlags.thread)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Thread:   %s\n", stateFlags.thread)
	fmt.Fprintf(out, "Step:     %d\n", cp.Step)
	if len(cp.Pending) > 0 {
		fmt.Fprintf(out, "Pending:  %v\n", cp.Pending)
	}
	vars, err := json.MarshalIndent(cp.State.Variables, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Variables:\n%s\n", vars)
	return nil
}
