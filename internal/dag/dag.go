// Package dag builds the implicit dependency graph a Pipeline's node
// input/output bindings describe. Two surfaces consume it: the lineage
// command's producer/consumer diagnostics and the parallel runner's
// execution-level grouping. The serial runner never consults this graph;
// selection and sequencing stay the selector's pure, order-preserving
// job, and this package is layered on top.
package dag

import (
	"fmt"
	"sort"

	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

// Node is one vertex of the graph. BuildFromNodes keys it by the pipeline
// node's name and stores the pipeline.Node itself as Data.
type Node struct {
	ID   string
	Data any
}

// Graph is a directed graph over pipeline nodes: an edge producer->consumer
// means consumer reads a DataRef that producer writes.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string
	parents map[string][]string
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode registers id, attaching or replacing its Data.
func (g *Graph) AddNode(id string, data any) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.edges[id] = []string{}
		g.parents[id] = []string{}
		return
	}
	g.nodes[id].Data = data
}

// AddEdge records a directed edge from parentID to childID (childID
// depends on parentID). Both ends must already be registered via AddNode.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("dag: unknown node %q", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("dag: unknown node %q", childID)
	}
	if parentID == childID {
		return fmt.Errorf("dag: self-loop at %q", parentID)
	}
	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// BuildFromPipeline derives a node graph keyed by pipeline.Node.Name,
// connecting node A -> node B whenever B reads a DataRef that A writes.
// Nodes sharing an output DataRef (last writer wins by pipeline order) and
// nodes with no producer for an input (catalog-sourced) are both legal;
// the latter simply get no inbound edge for that input.
func BuildFromPipeline(p pipeline.Pipeline) *Graph {
	return BuildFromNodes(p.Nodes)
}

// BuildFromNodes is BuildFromPipeline over an arbitrary node slice, used
// by the parallel runner to graph just the nodes a selector filter chose,
// rather than the whole pipeline.
func BuildFromNodes(nodes []pipeline.Node) *Graph {
	g := NewGraph()
	producerOf := map[string]string{} // DataRef -> node name that last wrote it

	for _, n := range nodes {
		g.AddNode(n.Name, n)
	}
	for _, n := range nodes {
		for _, ref := range n.Inputs {
			if producer, ok := producerOf[ref]; ok {
				_ = g.AddEdge(producer, n.Name)
			}
		}
		for _, ref := range n.Outputs {
			producerOf[ref] = n.Name
		}
	}
	return g
}

// GetParents returns id's direct dependencies.
func (g *Graph) GetParents(id string) []string { return g.parents[id] }

// GetChildren returns id's direct dependents.
func (g *Graph) GetChildren(id string) []string { return g.edges[id] }

// HasCycle reports whether the graph contains a cycle, and the cycle path
// if so (a flattened pipeline built from DAG-shaped node bindings should
// never have one; this exists purely as a lineage-command sanity check).
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	backEdge := make(map[string]string)

	var cycle []string
	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true
		for _, child := range g.edges[id] {
			if !visited[child] {
				backEdge[child] = id
				if dfs(child) {
					return true
				}
			} else if onStack[child] {
				cycle = []string{child}
				for curr := id; curr != child; curr = backEdge[curr] {
					cycle = append([]string{curr}, cycle...)
				}
				cycle = append([]string{child}, cycle...)
				return true
			}
		}
		onStack[id] = false
		return false
	}

	ids := g.sortedIDs()
	for _, id := range ids {
		if !visited[id] {
			if dfs(id) {
				return true, cycle
			}
		}
	}
	return false, nil
}

// ExecutionLevels groups nodes so that every node in level N depends only
// on nodes in levels < N. The parallel runner executes one level at a
// time, running every node within a level concurrently; cross-level order
// never changes, so every producer still finishes before its consumers
// start.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	if hasCycle, cycle := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("dag: cycle detected: %v", cycle)
	}

	assigned := make(map[string]int)
	var levelOf func(id string) int
	levelOf = func(id string) int {
		if lvl, ok := assigned[id]; ok {
			return lvl
		}
		parents := g.parents[id]
		if len(parents) == 0 {
			assigned[id] = 0
			return 0
		}
		max := 0
		for _, p := range parents {
			if lvl := levelOf(p); lvl > max {
				max = lvl
			}
		}
		assigned[id] = max + 1
		return max + 1
	}

	maxLevel := 0
	for id := range g.nodes {
		if lvl := levelOf(id); lvl > maxLevel {
			maxLevel = lvl
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, lvl := range assigned {
		levels[lvl] = append(levels[lvl], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Upstream returns every node id transitively depends on.
func (g *Graph) Upstream(id string) []string {
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(cur string) {
		for _, p := range g.parents[cur] {
			if !seen[p] {
				seen[p] = true
				walk(p)
			}
		}
	}
	walk(id)
	return sortedKeys(seen)
}

// Downstream returns every node transitively depending on id.
func (g *Graph) Downstream(id string) []string {
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(cur string) {
		for _, c := range g.edges[cur] {
			if !seen[c] {
				seen[c] = true
				walk(c)
			}
		}
	}
	walk(id)
	return sortedKeys(seen)
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
