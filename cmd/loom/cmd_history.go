package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyFlags struct {
	spec     string
	template string
	thread   string
	db       string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a thread's checkpoints, newest first",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.spec, "spec", "", "Path to the YAML/JSON spec the thread was started from")
	f.StringVar(&historyFlags.template, "template", "", "Name of the preset template the thread was started from")
	f.StringVar(&historyFlags.thread, "thread", "", "Thread id (required)")
	f.StringVar(&historyFlags.db, "db", "", "SQLite checkpoint file the run was checkpointed to")

	_ = historyCmd.MarkFlagRequired("thread")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	spec, err := loadSpec(historyFlags.spec, historyFlags.template)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(historyFlags.db)
	if err != nil {
		return err
	}
	defer closeStore()

	cps, err := store.History(cmd.Context(), spec.ID, historyFlags.thread)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checkpoints: (%d)\n", len(cps))
	for _, cp := range cps {
		pending := "-"
		if len(cp.Pending) > 0 {
			pending = fmt.Sprint(cp.Pending)
		}
		fmt.Fprintf(out, "  step %-4d iterations %-3d pending %-20s %s\n",
			cp.Step, cp.State.IterationCount, pending, cp.CreatedAt.Format("15:04:05.000"))
	}
	return nil
}
