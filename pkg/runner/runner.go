package runner

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/flowcraft-dev/flowcraft/internal/dag"
	"github.com/flowcraft-dev/flowcraft/internal/errs"
	"github.com/flowcraft-dev/flowcraft/internal/loader"
	"github.com/flowcraft-dev/flowcraft/pkg/catalog"
	"github.com/flowcraft-dev/flowcraft/pkg/params"
	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
	"github.com/flowcraft-dev/flowcraft/pkg/selector"
)

// NodeStatus is one node's progress state within a Run, reported through
// Runner.Progress for the CLI's TUI and plain-log renderers alike. The
// Runner has no opinion on how it's displayed.
type NodeStatus string

const (
	NodeRunning NodeStatus = "running"
	NodeOK      NodeStatus = "ok"
	NodeFailed  NodeStatus = "failed"
)

// ProgressEvent is one node-status transition emitted during Run.
type ProgressEvent struct {
	NodeName string
	Status   NodeStatus
	Err      error
}

// Runner sequences a pipeline's selected nodes. It holds no state across
// runs; every field here is read-only input for one invocation of Run.
type Runner struct {
	Catalog         *catalog.Catalog
	CredentialsPath string
	Parameters      *params.Store
	Logger          *slog.Logger

	// Progress, if set, is called synchronously on every node-status
	// transition. Under RunParallel it is called from every goroutine
	// running a node of the current level, possibly at the same time.
	// Optional; nil means no one is listening.
	Progress func(ProgressEvent)
}

// New builds a Runner. credentialsPath and logger may be left zero-valued;
// a nil logger silently drops progress/warning lines.
func New(cat *catalog.Catalog, credentialsPath string, parameters *params.Store, logger *slog.Logger) *Runner {
	return &Runner{Catalog: cat, CredentialsPath: credentialsPath, Parameters: parameters, Logger: logger}
}

// Run selects nodes per filter, then for each in order resolves
// parameters, resolves inputs (memory hit or catalog+loader fallback),
// assembles call arguments, checks them against the node's declared
// required arguments, invokes its func, and captures outputs. On failure
// it returns the partial environment alongside an error naming the
// offending node, so callers can inspect what completed before the abort.
func (r *Runner) Run(ctx context.Context, p pipeline.Pipeline, filter selector.Filter, initialEnv map[string]any) (*DataEnvironment, error) {
	env := NewDataEnvironment(initialEnv)
	nodes := selector.Select(r.Logger, p, filter)

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return env, &errs.Cancelled{NodeName: node.Name, Cause: err}
		}
		if err := r.runOne(ctx, node, env); err != nil {
			return env, err
		}
	}

	return env, nil
}

// RunParallel selects nodes exactly as Run does, but groups them into
// execution levels via the implicit DataRef dependency graph
// (internal/dag) and runs each level's nodes concurrently, advancing to
// the next level only once the current one finishes. Cross-level ordering
// never changes, so the serial runner's happens-before guarantee holds;
// only nodes the graph shows have no dependency relationship run
// concurrently.
func (r *Runner) RunParallel(ctx context.Context, p pipeline.Pipeline, filter selector.Filter, initialEnv map[string]any) (*DataEnvironment, error) {
	env := NewDataEnvironment(initialEnv)
	nodes := selector.Select(r.Logger, p, filter)

	byName := make(map[string]pipeline.Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	graph := dag.BuildFromNodes(nodes)
	levels, err := graph.ExecutionLevels()
	if err != nil {
		return env, fmt.Errorf("runner: cannot parallelize: %w", err)
	}

	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return env, &errs.Cancelled{Cause: err}
		}

		eg, egCtx := errgroup.WithContext(ctx)
		for _, name := range level {
			node, ok := byName[name]
			if !ok {
				continue
			}
			eg.Go(func() error {
				return r.runOne(egCtx, node, env)
			})
		}
		if err := eg.Wait(); err != nil {
			return env, err
		}
	}

	return env, nil
}

// runOne executes a single node end to end, emitting progress events
// around it. Safe to call concurrently for nodes that share env, since
// DataEnvironment guards its map with a mutex.
func (r *Runner) runOne(ctx context.Context, node pipeline.Node, env *DataEnvironment) error {
	if err := ctx.Err(); err != nil {
		return &errs.Cancelled{NodeName: node.Name, Cause: err}
	}

	r.emitProgress(ProgressEvent{NodeName: node.Name, Status: NodeRunning})

	resolvedParams := r.resolveParameters(node)
	resolvedInputs, err := r.resolveInputs(ctx, node, env)
	if err != nil {
		r.emitProgress(ProgressEvent{NodeName: node.Name, Status: NodeFailed, Err: err})
		return err
	}

	callArgs := mergeArguments(resolvedInputs, resolvedParams, node.Name, r.Logger)

	if err := checkRequiredArgs(node, callArgs); err != nil {
		r.emitProgress(ProgressEvent{NodeName: node.Name, Status: NodeFailed, Err: err})
		return err
	}

	out, err := node.Func(callArgs)
	if err != nil {
		wrapped := fmt.Errorf("node %q: %w", node.Name, err)
		r.emitProgress(ProgressEvent{NodeName: node.Name, Status: NodeFailed, Err: wrapped})
		return wrapped
	}

	if err := captureOutputs(node, out, env, r.Logger); err != nil {
		r.emitProgress(ProgressEvent{NodeName: node.Name, Status: NodeFailed, Err: err})
		return err
	}

	r.logProgress(node, resolvedInputs)
	r.emitProgress(ProgressEvent{NodeName: node.Name, Status: NodeOK})
	return nil
}

func (r *Runner) resolveParameters(node pipeline.Node) map[string]any {
	resolved := make(map[string]any, len(node.Parameters))
	for argName, binding := range node.Parameters {
		resolved[argName] = r.Parameters.Resolve(binding)
	}
	return resolved
}

func (r *Runner) resolveInputs(ctx context.Context, node pipeline.Node, env *DataEnvironment) (map[string]any, error) {
	resolved := make(map[string]any, len(node.Inputs))
	for argName, dataRef := range node.Inputs {
		if v, ok := env.Get(dataRef); ok {
			resolved[argName] = v
			continue
		}

		value, err := r.loadFromCatalog(ctx, dataRef)
		if err != nil {
			return nil, &errs.InputResolutionFailed{NodeName: node.Name, DataRef: dataRef, Cause: err}
		}
		env.Set(dataRef, value)
		resolved[argName] = value
	}
	return resolved, nil
}

func (r *Runner) loadFromCatalog(ctx context.Context, dataRef string) (any, error) {
	if r.Catalog == nil {
		return nil, fmt.Errorf("no catalog configured")
	}
	entry, err := r.Catalog.Lookup(dataRef)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, entry, r.CredentialsPath)
}

// mergeArguments unions inputs and parameters; on key collision, the
// parameter value shadows the input with a warning.
func mergeArguments(inputs, params map[string]any, nodeName string, logger *slog.Logger) pipeline.Args {
	args := make(pipeline.Args, len(inputs)+len(params))
	for k, v := range inputs {
		args[k] = v
	}
	for k, v := range params {
		if _, collided := args[k]; collided && logger != nil {
			logger.Warn("parameter shadows input argument", "node", nodeName, "arg", k)
		}
		args[k] = v
	}
	return args
}

// checkRequiredArgs enforces the node's declared argument set: a
// RequiredArgs name that failed to resolve fails MissingArgument. An
// empty RequiredArgs means every input/parameter key is required, which
// the merge already guarantees.
func checkRequiredArgs(node pipeline.Node, args pipeline.Args) error {
	for _, name := range node.RequiredArgs {
		if _, ok := args[name]; !ok {
			return &errs.MissingArgument{NodeName: node.Name, ArgName: name}
		}
	}
	return nil
}

func captureOutputs(node pipeline.Node, out pipeline.Outputs, env *DataEnvironment, logger *slog.Logger) error {
	if out == nil {
		return nil
	}

	if !node.OutputsIsMapping {
		for _, dataRef := range node.Outputs {
			env.Set(dataRef, out)
		}
		return nil
	}

	named, ok := out.(pipeline.NamedOutputs)
	if !ok {
		return &errs.OutputShapeError{NodeName: node.Name}
	}
	for returnKey, dataRef := range node.Outputs {
		v, present := named[returnKey]
		if !present {
			if logger != nil {
				logger.Warn("declared output key absent from return value", "node", node.Name, "key", returnKey)
			}
			continue
		}
		env.Set(dataRef, v)
	}
	return nil
}

func (r *Runner) emitProgress(e ProgressEvent) {
	if r.Progress != nil {
		r.Progress(e)
	}
}

func (r *Runner) logProgress(node pipeline.Node, inputs map[string]any) {
	if r.Logger == nil {
		return
	}
	outputKeys := make([]string, 0, len(node.Outputs))
	for _, ref := range node.Outputs {
		outputKeys = append(outputKeys, ref)
	}
	r.Logger.Info("node executed", "node", node.Name, "inputs", len(inputs), "outputs", outputKeys)
}
