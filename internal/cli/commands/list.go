package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cliconfig "github.com/flowcraft-dev/flowcraft/internal/cli/config"
	"github.com/flowcraft-dev/flowcraft/internal/script"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var pipelineName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a pipeline's nodes",
		Long: `Print the pipeline's flattened node list (name, tags, inputs, outputs):
a read-only view over the composed pipeline, before any selector filter
is applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := cliconfig.FromContext(cmd.Context())
			logger := cliconfig.LoggerFromContext(cmd.Context())

			p, err := script.Orchestrate(cfg.ProjectDir, pipelineName, logger)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Node", "Tags", "Inputs", "Outputs"})
			for i, n := range p.Nodes {
				t.AppendRow(table.Row{i + 1, n.Name, strings.Join(n.Tags, ", "), formatBinding(n.Inputs), formatBinding(n.Outputs)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&pipelineName, "pipeline", defaultPipelineName, "name registered via register() in pipeline.star")
	return cmd
}

// formatBinding renders a pipeline.Binding deterministically for display
// (Go map iteration order is random, CLI output must not be).
func formatBinding(b map[string]string) string {
	if len(b) == 0 {
		return ""
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, b[k])
	}
	return strings.Join(parts, ", ")
}
