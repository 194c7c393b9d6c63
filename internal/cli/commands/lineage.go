package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	cliconfig "github.com/flowcraft-dev/flowcraft/internal/cli/config"
	"github.com/flowcraft-dev/flowcraft/internal/dag"
	"github.com/flowcraft-dev/flowcraft/internal/script"
)

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	var pipelineName string

	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Print the pipeline's implicit DataRef dependency graph",
		Long: `Build the producer/consumer graph implied by each node's input/output
DataRefs and print it. This is diagnostic only: pipeline construction
deliberately performs no DAG validity check, so a node reading ahead of
its producer is flagged here as a hint, never rejected.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := cliconfig.FromContext(cmd.Context())
			logger := cliconfig.LoggerFromContext(cmd.Context())

			p, err := script.Orchestrate(cfg.ProjectDir, pipelineName, logger)
			if err != nil {
				return fmt.Errorf("lineage: %w", err)
			}

			g := dag.BuildFromPipeline(p)
			out := cmd.OutOrStdout()

			position := make(map[string]int, len(p.Nodes))
			producers := map[string][]string{} // DataRef -> every node writing it
			for i, n := range p.Nodes {
				position[n.Name] = i
				for _, ref := range n.Outputs {
					producers[ref] = append(producers[ref], n.Name)
				}
			}

			for _, n := range p.Nodes {
				parents := g.GetParents(n.Name)
				if len(parents) == 0 {
					fmt.Fprintf(out, "%s\n", n.Name)
				} else {
					fmt.Fprintf(out, "%s <- %v\n", n.Name, parents)
				}
				for _, ref := range n.Inputs {
					for _, producer := range producers[ref] {
						if position[producer] > position[n.Name] {
							fmt.Fprintf(out, "  warning: %s runs before its producer %s\n", n.Name, producer)
						}
					}
				}
			}

			if hasCycle, cycle := g.HasCycle(); hasCycle {
				fmt.Fprintf(out, "warning: dependency cycle detected: %v\n", cycle)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&pipelineName, "pipeline", defaultPipelineName, "name registered via register() in pipeline.star")
	return cmd
}
