package selector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

func noop(args pipeline.Args) (pipeline.Outputs, error) { return nil, nil }

func node(t *testing.T, name string, tags ...string) pipeline.Node {
	t.Helper()
	opts := []pipeline.NodeOption{pipeline.WithName(name)}
	if len(tags) > 0 {
		opts = append(opts, pipeline.WithTags(tags...))
	}
	n, err := pipeline.CreateNode(name, noop, nil, "out", opts...)
	require.NoError(t, err)
	return n
}

func buildPipeline(t *testing.T, nodes ...pipeline.Node) pipeline.Pipeline {
	t.Helper()
	items := make([]pipeline.Item, len(nodes))
	for i, n := range nodes {
		items[i] = n
	}
	p, err := pipeline.CreatePipeline(nil, items)
	require.NoError(t, err)
	return p
}

// names flattens a selection to node names; Node values hold func fields,
// which never compare equal under reflect.DeepEqual.
func names(nodes []pipeline.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestSelect_TagFilter(t *testing.T) {
	a := node(t, "a", "prep")
	b := node(t, "b", "train")
	c := node(t, "c", "prep", "eval")
	p := buildPipeline(t, a, b, c)

	got := Select(nil, p, Filter{Tags: []string{"prep"}})
	require.Equal(t, []string{"a", "c"}, names(got))
}

func TestSelect_RangeFilter(t *testing.T) {
	a, b, c, d, e := node(t, "a"), node(t, "b"), node(t, "c"), node(t, "d"), node(t, "e")
	p := buildPipeline(t, a, b, c, d, e)

	got := Select(nil, p, Filter{FromNodes: []string{"b"}, ToNodes: []string{"d"}})
	require.Equal(t, []string{"b", "c", "d"}, names(got))

	got = Select(nil, p, Filter{FromNodes: []string{"z"}})
	require.Empty(t, got)
}

func TestSelect_NodeNamesPrecedence(t *testing.T) {
	a, b, c := node(t, "a"), node(t, "b"), node(t, "c")
	p := buildPipeline(t, a, b, c)

	got := Select(nil, p, Filter{NodeNames: []string{"c", "a"}, FromNodes: []string{"b"}})
	require.Equal(t, []string{"a", "c"}, names(got))
}

func TestSelect_NodeNamesDropsUnmatched(t *testing.T) {
	a, b := node(t, "a"), node(t, "b")
	p := buildPipeline(t, a, b)

	got := Select(nil, p, Filter{NodeNames: []string{"a", "ghost"}})
	require.Equal(t, []string{"a"}, names(got))
}

func TestSelect_RangeStartAfterEndIsEmpty(t *testing.T) {
	a, b, c := node(t, "a"), node(t, "b"), node(t, "c")
	p := buildPipeline(t, a, b, c)

	got := Select(nil, p, Filter{FromNodes: []string{"c"}, ToNodes: []string{"a"}})
	require.Empty(t, got)
}

// Reapplying the same filter to its own output selects the same nodes.
func TestSelect_Idempotence(t *testing.T) {
	a := node(t, "a", "prep")
	b := node(t, "b", "train")
	c := node(t, "c", "prep")
	p := buildPipeline(t, a, b, c)

	f := Filter{Tags: []string{"prep"}}
	once := Select(nil, p, f)

	oncePipeline := buildPipeline(t, once...)
	twice := Select(nil, oncePipeline, f)

	require.Equal(t, names(once), names(twice))
}

func TestSelect_NoFilterReturnsAll(t *testing.T) {
	a, b := node(t, "a"), node(t, "b")
	p := buildPipeline(t, a, b)

	got := Select(nil, p, Filter{})
	require.Equal(t, names(p.Nodes), names(got))
}
