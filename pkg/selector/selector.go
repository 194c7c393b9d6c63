// Package selector reduces a Pipeline's node list to the set the Runner
// executes: a pure filter by tag, by explicit name, or by a from/to
// range, always preserving the pipeline's original order.
package selector

import (
	"log/slog"

	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

// Filter is the selection request passed to Select. Zero-valued fields
// are simply not applied.
type Filter struct {
	Tags      []string
	NodeNames []string
	FromNodes []string
	ToNodes   []string
}

// Select reduces p's node list per Filter, applying the tag filter, then
// nodeNames precedence, then the from/to range, in that order. It never
// reorders nodes: the output is always a subsequence of p.Nodes, and
// reapplying the same Filter to it is a no-op.
func Select(logger *slog.Logger, p pipeline.Pipeline, f Filter) []pipeline.Node {
	nodes := p.Nodes

	if len(f.Tags) > 0 {
		nodes = filterByTags(nodes, f.Tags)
	}

	if len(f.NodeNames) > 0 {
		if len(f.FromNodes) > 0 || len(f.ToNodes) > 0 {
			warn(logger, "nodeNames set; ignoring fromNodes/toNodes")
		}
		return filterByNames(nodes, f.NodeNames)
	}

	return filterByRange(logger, nodes, f.FromNodes, f.ToNodes)
}

func filterByTags(nodes []pipeline.Node, tags []string) []pipeline.Node {
	want := toSet(tags)
	var out []pipeline.Node
	for _, n := range nodes {
		if intersects(n.Tags, want) {
			out = append(out, n)
		}
	}
	return out
}

func filterByNames(nodes []pipeline.Node, names []string) []pipeline.Node {
	want := toSet(names)
	var out []pipeline.Node
	for _, n := range nodes {
		if want[n.Name] {
			out = append(out, n)
		}
	}
	return out
}

func filterByRange(logger *slog.Logger, nodes []pipeline.Node, fromNodes, toNodes []string) []pipeline.Node {
	start := 0
	if len(fromNodes) > 0 {
		idx := firstIndexOfAny(nodes, fromNodes)
		if idx < 0 {
			warn(logger, "fromNodes matched no node in the current selection")
			return nil
		}
		start = idx
	}

	end := len(nodes) - 1
	if len(toNodes) > 0 {
		idx := lastIndexOfAny(nodes, toNodes)
		if idx < 0 {
			warn(logger, "toNodes matched no node in the current selection")
			return nil
		}
		end = idx
	}

	if start > end {
		return nil
	}
	return nodes[start : end+1]
}

func firstIndexOfAny(nodes []pipeline.Node, names []string) int {
	want := toSet(names)
	for i, n := range nodes {
		if want[n.Name] {
			return i
		}
	}
	return -1
}

func lastIndexOfAny(nodes []pipeline.Node, names []string) int {
	want := toSet(names)
	for i := len(nodes) - 1; i >= 0; i-- {
		if want[nodes[i].Name] {
			return i
		}
	}
	return -1
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

func intersects(tags []string, want map[string]bool) bool {
	for _, t := range tags {
		if want[t] {
			return true
		}
	}
	return false
}

func warn(logger *slog.Logger, msg string) {
	if logger != nil {
		logger.Warn(msg)
	}
}
