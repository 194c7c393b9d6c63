package pipeline

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

func mustNode(t *testing.T, name string) Node {
	t.Helper()
	n, err := CreateNode(name, identityFunc, nil, "out", WithName(name))
	require.NoError(t, err)
	return n
}

// Composing a pipeline from a node and a nested pipeline splices the
// nested nodes flat, in order.
func TestCreatePipeline_Flatness(t *testing.T) {
	a := mustNode(t, "a")
	b := mustNode(t, "b")
	c := mustNode(t, "c")

	inner, err := CreatePipeline(nil, []Item{b, c})
	require.NoError(t, err)

	outer, err := CreatePipeline(nil, []Item{a, inner})
	require.NoError(t, err)

	require.Len(t, outer.Nodes, 3)
	got := make([]string, len(outer.Nodes))
	for i, n := range outer.Nodes {
		got[i] = n.Name
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestCreatePipeline_UnwrapsSoleSequence(t *testing.T) {
	a := mustNode(t, "a")
	b := mustNode(t, "b")

	p, err := CreatePipeline(nil, []Item{[]Item{a, b}})
	require.NoError(t, err)
	require.Len(t, p.Nodes, 2)
}

func TestCreatePipeline_InvalidItem(t *testing.T) {
	_, err := CreatePipeline(nil, []Item{42})
	var invalid *errs.InvalidPipeline
	require.ErrorAs(t, err, &invalid)
}

// Duplicate node names are a warning, not a failure: the constructor
// succeeds and logs the duplicated name exactly once.
func TestCreatePipeline_DuplicateNamesWarning(t *testing.T) {
	n1 := mustNode(t, "X")
	n2 := mustNode(t, "Y")
	n3 := mustNode(t, "X")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p, err := CreatePipeline(logger, []Item{n1, n2, n3})
	require.NoError(t, err)
	require.Len(t, p.Nodes, 3)

	out := buf.String()
	require.Contains(t, out, "duplicate node names")
	require.Equal(t, 1, countOccurrences(out, "X"))
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}

func TestCreatePipeline_WithName(t *testing.T) {
	p, err := CreatePipeline(nil, []Item{mustNode(t, "a")}, WithPipelineName("demo"))
	require.NoError(t, err)
	require.Equal(t, "demo", p.Name)
}
