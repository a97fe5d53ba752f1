package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/specfile"
	"loom/pkg/flow/nodes"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List embedded preset workflows and registered node kinds",
	RunE:  runTemplates,
}

func runTemplates(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Templates:\n")
	for _, name := range specfile.Templates() {
		spec, err := specfile.Template(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-14s %s (%d nodes)\n", name, spec.Name, len(spec.Nodes))
	}
	fmt.Fprintf(out, "Node kinds:\n")
	for _, k := range nodes.Catalog() {
		fmt.Fprintf(out, "  %-12s %s\n", k.Kind, k.Description)
		if len(k.ConfigKeys) > 0 {
			fmt.Fprintf(out, "  %-12s config: %s\n", "", strings.Join(k.ConfigKeys, ", "))
		}
	}
	return nil
}
