package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

// Pipeline is an ordered, flattened collection of Nodes. Nodes is
// guaranteed flat: no nested Pipeline values remain after CreatePipeline
// returns.
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Item is anything CreatePipeline accepts in its item list: a Node, a
// Pipeline, or a []Item (a single sequence passed as the sole item is
// unwrapped one level).
type Item any

// PipelineOption configures optional Pipeline fields.
type PipelineOption func(*Pipeline)

// WithPipelineName sets the pipeline's optional name.
func WithPipelineName(name string) PipelineOption {
	return func(p *Pipeline) { p.Name = name }
}

// CreatePipeline flattens a mixed sequence of Nodes and Pipelines into one
// ordered Pipeline. A single []Item passed as the sole argument is
// unwrapped one level, so callers can pass a pre-built slice without an
// extra splice.
//
// Duplicate node names are permitted; CreatePipeline logs a warning
// naming every duplicate exactly once, preserving discovery order, and
// does not fail the construction.
func CreatePipeline(logger *slog.Logger, items []Item, opts ...PipelineOption) (Pipeline, error) {
	if len(items) == 1 {
		if nested, ok := items[0].([]Item); ok {
			items = nested
		}
	}

	var nodes []Node
	for _, item := range items {
		switch v := item.(type) {
		case Node:
			nodes = append(nodes, v)
		case Pipeline:
			nodes = append(nodes, v.Nodes...)
		default:
			return Pipeline{}, &errs.InvalidPipeline{Reason: fmt.Sprintf("item must be a Node or Pipeline, got %T", v)}
		}
	}

	p := Pipeline{Nodes: nodes}
	for _, opt := range opts {
		opt(&p)
	}

	warnDuplicateNames(logger, nodes)
	return p, nil
}

func warnDuplicateNames(logger *slog.Logger, nodes []Node) {
	seen := map[string]int{}
	var dupOrder []string
	for _, n := range nodes {
		if seen[n.Name] == 1 {
			dupOrder = append(dupOrder, n.Name)
		}
		seen[n.Name]++
	}
	if len(dupOrder) == 0 {
		return
	}
	if logger != nil {
		logger.Warn("duplicate node names in pipeline", "names", dupOrder)
	}
}

