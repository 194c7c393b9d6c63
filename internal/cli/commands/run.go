package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cliconfig "github.com/flowcraft-dev/flowcraft/internal/cli/config"
	"github.com/flowcraft-dev/flowcraft/internal/cli/progress"
	"github.com/flowcraft-dev/flowcraft/internal/ledger"
	"github.com/flowcraft-dev/flowcraft/internal/script"
	"github.com/flowcraft-dev/flowcraft/pkg/catalog"
	"github.com/flowcraft-dev/flowcraft/pkg/params"
	"github.com/flowcraft-dev/flowcraft/pkg/runner"
	"github.com/flowcraft-dev/flowcraft/pkg/selector"
)

// defaultPipelineName is the register() name flowcraft looks for when
// --pipeline isn't given.
const defaultPipelineName = "__default__"

// RunOptions holds options for the run command. The koanf tags let these
// bind from parameters.yaml's optional top-level "run" section (project-
// declared defaults), with CLI flags overriding per-field.
type RunOptions struct {
	Pipeline string   `koanf:"pipeline"`
	Tags     []string `koanf:"tags"`
	Nodes    []string `koanf:"nodes"`
	From     string   `koanf:"from"`
	To       string   `koanf:"to"`
	Watch    bool     `koanf:"watch"`
	Parallel bool     `koanf:"parallel"`
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline",
		Long: `Evaluate the project's pipeline.star manifest, select nodes per the
given filters, and execute them in order, resolving each node's inputs
from memory or the data catalog.`,
		Example: `  # Run the default pipeline
  flowcraft run

  # Run a named pipeline, only nodes tagged "prep"
  flowcraft run --pipeline demo --tags prep

  # Run a slice of the node sequence
  flowcraft run --from load_data --to train_model

  # Re-run on every manifest change
  flowcraft run --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Pipeline, "pipeline", defaultPipelineName, "name registered via register() in pipeline.star")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "run only nodes carrying at least one of these tags")
	cmd.Flags().StringSliceVar(&opts.Nodes, "nodes", nil, "run only these node names, in pipeline order")
	cmd.Flags().StringVar(&opts.From, "from", "", "start the run at this node (inclusive)")
	cmd.Flags().StringVar(&opts.To, "to", "", "end the run at this node (inclusive)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "re-run on every change to the pipeline manifest")
	cmd.Flags().BoolVar(&opts.Parallel, "parallel", false, "run each dependency level's nodes concurrently")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := cliconfig.FromContext(ctx)
	logger := cliconfig.LoggerFromContext(ctx)

	runOnce := func() error {
		return executeRun(ctx, cfg, logger, cmd.Flags(), opts)
	}

	if !opts.Watch {
		return runOnce()
	}

	return watchAndRun(ctx, cfg, logger, runOnce)
}

// resolveRunOptions layers two sources into one koanf instance, lowest
// priority first: the project's parameters.yaml "run" section (defaults
// the project author wants baked in), then the command's flags; the
// result is unmarshalled over defaults. Because k is passed in,
// posflag.Provider skips an unchanged flag whose key the "run" section
// already set (an unchanged flag with no such key contributes its
// default), so an unset flag never clobbers a parameters.yaml default.
func resolveRunOptions(flags *pflag.FlagSet, defaults *RunOptions, paramStore *params.Store) (*RunOptions, error) {
	k := koanf.New(".")

	if raw, ok := paramStore.Raw()["run"].(map[string]any); ok {
		if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
			return nil, err
		}
	}
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, err
	}

	merged := *defaults
	if err := k.Unmarshal("", &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func executeRun(ctx context.Context, cfg *cliconfig.Config, logger *slog.Logger, flags *pflag.FlagSet, opts *RunOptions) error {
	paramStore, err := params.Load(cfg.ParametersPath)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	merged, err := resolveRunOptions(flags, opts, paramStore)
	if err != nil {
		return fmt.Errorf("run: resolving options: %w", err)
	}
	filter := selector.Filter{Tags: merged.Tags, NodeNames: merged.Nodes, FromNodes: nonEmpty(merged.From), ToNodes: nonEmpty(merged.To)}

	p, err := script.Orchestrate(cfg.ProjectDir, merged.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	led, err := ledger.Open(cfg.LedgerPath, logger)
	if err != nil {
		return fmt.Errorf("run: opening ledger: %w", err)
	}
	defer led.Close()

	runID, err := led.StartRun(ctx, p.Name)
	if err != nil {
		return fmt.Errorf("run: recording run start: %w", err)
	}

	reporter := progress.New(os.Stdout, logger)
	nodeRunIDs := map[string]string{}
	var nodeRunMu sync.Mutex // RunParallel reports from several goroutines

	r := runner.New(cat, cfg.CredentialsPath, paramStore, logger)
	r.Progress = func(event runner.ProgressEvent) {
		nodeRunMu.Lock()
		defer nodeRunMu.Unlock()
		reporter.Update(event)
		switch event.Status {
		case runner.NodeRunning:
			if id, err := led.StartNodeRun(ctx, runID, event.NodeName); err == nil {
				nodeRunIDs[event.NodeName] = id
			}
		case runner.NodeOK:
			if id, ok := nodeRunIDs[event.NodeName]; ok {
				_ = led.FinishNodeRun(ctx, id, ledger.StatusSucceeded, nil)
			}
		case runner.NodeFailed:
			if id, ok := nodeRunIDs[event.NodeName]; ok {
				_ = led.FinishNodeRun(ctx, id, ledger.StatusFailed, event.Err)
			}
		}
	}

	selected := selector.Select(logger, p, filter)
	nodeNames := make([]string, len(selected))
	for i, n := range selected {
		nodeNames[i] = n.Name
	}
	reporter.Start(nodeNames)

	var runErr error
	if merged.Parallel {
		_, runErr = r.RunParallel(ctx, p, filter, nil)
	} else {
		_, runErr = r.Run(ctx, p, filter, nil)
	}
	reporter.Finish(runErr)

	status := ledger.StatusSucceeded
	if runErr != nil {
		status = ledger.StatusFailed
	}
	if err := led.FinishRun(ctx, runID, status, runErr); err != nil {
		logger.Warn("failed to record run completion", "error", err)
	}

	return runErr
}

func watchAndRun(ctx context.Context, cfg *cliconfig.Config, logger *slog.Logger, runOnce func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("run --watch: %w", err)
	}
	defer watcher.Close()

	manifest := cfg.ProjectDir + "/" + script.ManifestFile
	if err := watcher.Add(manifest); err != nil {
		return fmt.Errorf("run --watch: %w", err)
	}

	logger.Info("watching for changes", "manifest", manifest)
	if err := runOnce(); err != nil {
		logger.Error("run failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Info("manifest changed, re-running", "event", event.Name)
			if err := runOnce(); err != nil {
				logger.Error("run failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
