// Package progress renders a pipeline run's node-by-node status, either
// as a small live bubbletea view when stdout is a terminal, or as plain
// slog lines otherwise. It is a pure renderer over
// pkg/runner.ProgressEvent; it never influences run semantics.
package progress

import (
	"log/slog"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/flowcraft-dev/flowcraft/pkg/runner"
)

// Reporter receives a run's node-status transitions as they happen.
type Reporter interface {
	// Start is called once, with the node names in selection order.
	Start(nodeNames []string)
	// Update is called on every progress event, in order.
	Update(event runner.ProgressEvent)
	// Finish is called once the run returns, successfully or not.
	Finish(runErr error)
}

// New picks a TUI reporter when out is an interactive terminal, and a
// plain-log reporter otherwise (CI logs, piped output, non-TTY).
func New(out *os.File, logger *slog.Logger) Reporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if isInteractive(out) {
		return newTUIReporter(out, logger)
	}
	return &PlainReporter{logger: logger}
}

// isInteractive reports whether out is a terminal capable of rendering
// the live TUI. A dumb (no-color) terminal falls back to plain logging
// too, since the bubbletea view leans on lipgloss styling to read
// correctly.
func isInteractive(out *os.File) bool {
	if !term.IsTerminal(int(out.Fd())) {
		return false
	}
	return termenv.NewOutput(out).Profile != termenv.Ascii
}

// PlainReporter logs one line per node-status transition, for non-TTY
// runs (CI logs, piped output).
type PlainReporter struct {
	logger *slog.Logger
}

func (p *PlainReporter) Start(nodeNames []string) {
	p.logger.Info("run starting", "nodes", nodeNames)
}

func (p *PlainReporter) Update(event runner.ProgressEvent) {
	switch event.Status {
	case runner.NodeRunning:
		p.logger.Info("node running", "node", event.NodeName)
	case runner.NodeOK:
		p.logger.Info("node ok", "node", event.NodeName)
	case runner.NodeFailed:
		p.logger.Error("node failed", "node", event.NodeName, "error", event.Err)
	}
}

func (p *PlainReporter) Finish(runErr error) {
	if runErr != nil {
		p.logger.Error("run failed", "error", runErr)
		return
	}
	p.logger.Info("run complete")
}
