package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/pkg/flow"
	"loom/pkg/flow/nodes"
)

var validateFlags struct {
	spec     string
	template string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Structurally validate a workflow spec without running it",
	RunE:  runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateFlags.spec, "spec", "", "Path to a YAML/JSON workflow spec")
	f.StringVar(&validateFlags.template, "template", "", "Name of an embedded preset template")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	spec, err := loadSpec(validateFlags.spec, validateFlags.template)
	if err != nil {
		return err
	}
	v := flow.Validate(spec, nodes.DefaultRegistry())

	out := cmd.OutOrStdout()
	for _, e := range v.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if !v.Valid {
		return fmt.Errorf("spec %q is invalid", spec.ID)
	}
	fmt.Fprintf(out, "Spec %q is valid (%d nodes, %d edges)\n", spec.ID, len(spec.Nodes), len(spec.Edges))
	return nil
}
