package commands

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cliconfig "github.com/flowcraft-dev/flowcraft/internal/cli/config"
	"github.com/flowcraft-dev/flowcraft/internal/ledger"
)

// NewHistoryCommand creates the history command: a read-only view over
// the run ledger. It never replays or caches into a run; it only reports
// what already happened.
func NewHistoryCommand() *cobra.Command {
	var limit int
	var nodeRunsFor string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs recorded in the run ledger",
		Long: `List past runs from the ledger database, newest first, or (with
--run) the node-by-node breakdown of a single run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := cliconfig.FromContext(cmd.Context())
			logger := cliconfig.LoggerFromContext(cmd.Context())

			led, err := ledger.Open(cfg.LedgerPath, logger)
			if err != nil {
				return fmt.Errorf("history: opening ledger: %w", err)
			}
			defer led.Close()

			ctx := cmd.Context()
			if nodeRunsFor != "" {
				return printNodeRuns(cmd, ctx, led, nodeRunsFor)
			}
			return printRuns(cmd, ctx, led, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&nodeRunsFor, "run", "", "show the node-run breakdown for this run id instead")
	return cmd
}

func printRuns(cmd *cobra.Command, ctx context.Context, led *ledger.Ledger, limit int) error {
	runs, err := led.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Run ID", "Pipeline", "Status", "Started", "Finished", "Error"})
	for _, r := range runs {
		finished := ""
		if r.FinishedAt.Valid {
			finished = r.FinishedAt.Time.Format("2006-01-02T15:04:05Z")
		}
		errMsg := ""
		if r.Error.Valid {
			errMsg = r.Error.String
		}
		t.AppendRow(table.Row{r.ID, r.Pipeline, string(r.Status), r.StartedAt.Format("2006-01-02T15:04:05Z"), finished, errMsg})
	}
	t.Render()
	return nil
}

func printNodeRuns(cmd *cobra.Command, ctx context.Context, led *ledger.Ledger, runID string) error {
	nodeRuns, err := led.NodeRunsForRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Node", "Status", "Started", "Finished", "Error"})
	for _, nr := range nodeRuns {
		finished := ""
		if nr.FinishedAt.Valid {
			finished = nr.FinishedAt.Time.Format("2006-01-02T15:04:05Z")
		}
		errMsg := ""
		if nr.Error.Valid {
			errMsg = nr.Error.String
		}
		t.AppendRow(table.Row{nr.NodeName, string(nr.Status), nr.StartedAt.Format("2006-01-02T15:04:05Z"), finished, errMsg})
	}
	t.Render()
	return nil
}
