// Package script implements the pipeline manifest layer: a Starlark file
// (conventionally pipeline.star) that calls node()/pipeline()/register()
// to build and name Pipeline values, loaded through an explicit
// Orchestrate(projectDir, name) entry point. There is no implicit
// working-directory chdir or "source the main script" convenience; the
// project directory is threaded through explicitly end to end.
package script

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"go.starlark.net/starlark"

	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

// ManifestFile is the conventional filename orchestrate looks for inside
// projectDir.
const ManifestFile = "pipeline.star"

// Orchestrate evaluates projectDir's pipeline manifest script and returns
// the Pipeline registered under name. Every node() call in the manifest
// must reference a function name already registered via RegisterFunc:
// manifests declare wiring, they never define the functions themselves.
func Orchestrate(projectDir, name string, logger *slog.Logger) (pipeline.Pipeline, error) {
	pipelines, err := EvalManifest(projectDir, logger)
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	p, ok := pipelines[name]
	if !ok {
		return pipeline.Pipeline{}, fmt.Errorf("script: no pipeline registered under name %q", name)
	}
	return p, nil
}

// EvalManifest evaluates projectDir's manifest script and returns every
// pipeline it registered, keyed by the name passed to register().
func EvalManifest(projectDir string, logger *slog.Logger) (map[string]pipeline.Pipeline, error) {
	path := filepath.Join(projectDir, ManifestFile)

	coll := &collector{pipelines: map[string]pipeline.Pipeline{}}
	thread := &starlark.Thread{
		Name: "flowcraft-manifest",
		Print: func(_ *starlark.Thread, msg string) {
			if logger != nil {
				logger.Info("manifest print", "message", msg)
			}
		},
	}

	if _, err := starlark.ExecFile(thread, path, nil, predeclared(logger, coll)); err != nil {
		return nil, fmt.Errorf("script: evaluating %s: %w", path, err)
	}

	return coll.pipelines, nil
}
