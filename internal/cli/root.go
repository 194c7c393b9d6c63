// Package cli provides the command-line interface for flowcraft.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowcraft-dev/flowcraft/internal/cli/commands"
	cliconfig "github.com/flowcraft-dev/flowcraft/internal/cli/config"
)

var (
	projectDirFlag      string
	parametersPathFlag  string
	catalogPathFlag     string
	credentialsPathFlag string
	ledgerPathFlag      string
	outputFormatFlag    string
	verboseFlag         bool
)

// Version information (set at build time via -ldflags).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowcraft",
		Short: "flowcraft - a DAG pipeline execution core",
		Long: `flowcraft declares data-processing nodes and pipelines (in Go, or via an
embedded Starlark manifest) and resolves catalog, parameters and
credentials to run them in the order a selector chooses.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg := cliconfig.Default()
			cfg.ProjectDir = projectDirFlag
			if cmd.Flags().Changed("parameters") {
				cfg.ParametersPath = parametersPathFlag
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogPath = catalogPathFlag
			}
			if cmd.Flags().Changed("credentials") {
				cfg.CredentialsPath = credentialsPathFlag
			}
			if cmd.Flags().Changed("ledger") {
				cfg.LedgerPath = ledgerPathFlag
			}
			cfg.OutputFormat = outputFormatFlag
			cfg.Verbose = verboseFlag
			cfg.Resolve()

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := cliconfig.WithConfig(cmd.Context(), cfg)
			ctx = cliconfig.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&projectDirFlag, "project-dir", ".", "project root directory (holds conf/ and pipeline.star)")
	rootCmd.PersistentFlags().StringVar(&parametersPathFlag, "parameters", cliconfig.DefaultParametersPath, "path to parameters.yaml, relative to --project-dir")
	rootCmd.PersistentFlags().StringVar(&catalogPathFlag, "catalog", cliconfig.DefaultCatalogPath, "path to catalog.yaml, relative to --project-dir")
	rootCmd.PersistentFlags().StringVar(&credentialsPathFlag, "credentials", cliconfig.DefaultCredentialsPath, "path to credentials.yaml, relative to --project-dir")
	rootCmd.PersistentFlags().StringVar(&ledgerPathFlag, "ledger", cliconfig.DefaultLedgerPath, "path to the run ledger database (\":memory:\" to disable persistence)")
	rootCmd.PersistentFlags().StringVarP(&outputFormatFlag, "output", "o", "text", "output format (text|json)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewCatalogCommand())
	rootCmd.AddCommand(commands.NewLineageCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
