package main

import (
	"github.com/spf13/cobra"

	"loom/internal/mcpserve"
)

var serveFlags struct {
	db        string
	workflows string
	replies   []string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine as MCP tools over stdio",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.db, "db", "", "SQLite checkpoint file (in-memory when empty)")
	f.StringVar(&serveFlags.workflows, "workflows", "", "Directory of specs resolvable by subgraph nodes")
	f.StringArrayVar(&serveFlags.replies, "reply", nil, "Scripted model reply, in order (repeatable)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, closeStore, err := openStore(serveFlags.db)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := mcpserve.New(mcpserve.Options{
		Services: buildServices(store, serveFlags.replies, serveFlags.workflows),
		Store:    store,
		Version:  version,
	})
	return srv.Serve(cmd.Context())
}
