package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cliconfig "github.com/flowcraft-dev/flowcraft/internal/cli/config"
	catalogpkg "github.com/flowcraft-dev/flowcraft/pkg/catalog"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the data catalog",
	}
	cmd.AddCommand(newCatalogListCommand())
	cmd.AddCommand(newCatalogDescribeCommand())
	return cmd
}

func newCatalogListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every dataset name declared in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := cliconfig.FromContext(cmd.Context())
			cat, err := catalogpkg.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			names := cat.Names()
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newCatalogDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Resolve and pretty-print one catalog entry, without loading data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cliconfig.FromContext(cmd.Context())
			cat, err := catalogpkg.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}

			entry, err := cat.Lookup(args[0])
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Field", "Value"})
			t.AppendRow(table.Row{"name", entry.Name})
			t.AppendRow(table.Row{"type", string(entry.Kind)})

			switch entry.Kind {
			case catalogpkg.KindCSV:
				appendCSVRows(t, entry.CSV)
			case catalogpkg.KindExcel:
				t.AppendRow(table.Row{"path", entry.Excel.Path})
				t.AppendRow(table.Row{"sheet", entry.Excel.Sheet})
			case catalogpkg.KindSQL:
				t.AppendRow(table.Row{"databaseKind", entry.SQL.DatabaseKind})
				t.AppendRow(table.Row{"sqlPath", entry.SQL.SQLPath})
				t.AppendRow(table.Row{"credentialsKey", entry.SQL.CredentialsKey})
			}

			t.Render()
			return nil
		},
	}
}

func appendCSVRows(t table.Writer, csv *catalogpkg.CSVEntry) {
	t.AppendRow(table.Row{"path", csv.Path})
	t.AppendRow(table.Row{"separator", csv.Separator})
	t.AppendRow(table.Row{"quote", csv.Quote})
	t.AppendRow(table.Row{"skipRows", csv.SkipRows})
	t.AppendRow(table.Row{"maxRows", csv.MaxRows})
	t.AppendRow(table.Row{"naTokens", strings.Join(csv.NATokens, ", ")})
	t.AppendRow(table.Row{"trimWhitespace", csv.TrimWhitespace})
	t.AppendRow(table.Row{"columnNames", fmt.Sprintf("%v", csv.ColumnNames)})
}
