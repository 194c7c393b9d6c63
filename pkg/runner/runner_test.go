package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
	"github.com/flowcraft-dev/flowcraft/internal/loader"
	"github.com/flowcraft-dev/flowcraft/internal/testutil"
	"github.com/flowcraft-dev/flowcraft/pkg/catalog"
	"github.com/flowcraft-dev/flowcraft/pkg/params"
	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
	"github.com/flowcraft-dev/flowcraft/pkg/selector"
)

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

func TestRun_SingleNodeWithParameterBinding(t *testing.T) {
	var sawParam any
	gen := func(args pipeline.Args) (pipeline.Outputs, error) {
		sawParam = args["p"]
		return loader.NewTable([]string{"c"}, make([][]any, 150)), nil
	}

	node, err := pipeline.CreateNode("gen", gen, nil, "iris", pipeline.WithParameters(map[string]any{"p": "params.generation.setting"}))
	require.NoError(t, err)
	p := buildPipeline(t, node)

	store := params.NewFromMap(map[string]any{"params.generation.setting": "hello"})
	r := New(nil, "", store, testutil.NewTestLogger(t))

	env, err := r.Run(context.Background(), p, selector.Filter{}, nil)
	require.NoError(t, err)

	tbl, ok := env.Get("iris")
	require.True(t, ok)
	require.Equal(t, 150, tbl.(loader.Table).NumRows())
	require.Equal(t, "hello", sawParam)
}

// A two-node chain: n1's output feeds n2's input entirely from memory,
// the catalog is never consulted.
func TestRun_TwoNodeChain(t *testing.T) {
	n1Func := func(args pipeline.Args) (pipeline.Outputs, error) {
		return loader.NewTable([]string{"x"}, [][]any{{1}, {2}}), nil
	}
	n2Func := func(args pipeline.Args) (pipeline.Outputs, error) {
		x := args["x"].(loader.Table)
		return x.WithColumn("c", 7), nil
	}

	n1, err := pipeline.CreateNode("n1", n1Func, nil, "mid")
	require.NoError(t, err)
	n2, err := pipeline.CreateNode("n2", n2Func, map[string]string{"x": "mid"}, "final")
	require.NoError(t, err)

	p := buildPipeline(t, n1, n2)
	r := New(nil, "", params.NewFromMap(nil), testutil.NewTestLogger(t))

	env, err := r.Run(context.Background(), p, selector.Filter{}, nil)
	require.NoError(t, err)

	_, ok := env.Get("mid")
	require.True(t, ok)

	final, ok := env.Get("final")
	require.True(t, ok)
	col, _ := final.(loader.Table).Column("c")
	require.Equal(t, []any{7, 7}, col)
}

// An input absent from memory falls back to the catalog loader, and the
// loaded value is cached in the environment for later nodes.
func TestRun_MissingInputFallsBackToCatalog(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a;b\n1;2\n3;4\n"), 0o644))

	catalogMap := map[string]map[string]any{
		"raw": {
			"type":      "CSVDataset",
			"path":      csvPath,
			"separator": ";",
		},
	}
	cat := catalog.NewFromMap("", catalogMap)

	nFunc := func(args pipeline.Args) (pipeline.Outputs, error) {
		d := args["d"].(loader.Table)
		return d, nil
	}
	node, err := pipeline.CreateNode("n", nFunc, map[string]string{"d": "raw"}, "out")
	require.NoError(t, err)

	p := buildPipeline(t, node)
	r := New(cat, "", params.NewFromMap(nil), testutil.NewTestLogger(t))

	env, err := r.Run(context.Background(), p, selector.Filter{}, nil)
	require.NoError(t, err)

	raw, ok := env.Get("raw")
	require.True(t, ok)
	require.Equal(t, 2, raw.(loader.Table).NumRows())
	require.Equal(t, []string{"a", "b"}, raw.(loader.Table).Columns)

	_, ok = env.Get("out")
	require.True(t, ok)
}

func TestRun_MissingArgument(t *testing.T) {
	fn := func(args pipeline.Args) (pipeline.Outputs, error) { return nil, nil }
	node, err := pipeline.CreateNode("n", fn, nil, "out", pipeline.WithRequiredArgs("x"))
	require.NoError(t, err)

	p := buildPipeline(t, node)
	r := New(nil, "", params.NewFromMap(nil), testutil.NewTestLogger(t))

	_, err = r.Run(context.Background(), p, selector.Filter{}, nil)
	var missing *errs.MissingArgument
	require.ErrorAs(t, err, &missing)
}

// TestRun_SingleKeyNamedMappingOutput covers the regression where a
// one-entry outputs mapping ({"predictions": "model_output"}) was
// mistaken for the bare single-DataRef surface form and had the whole
// NamedOutputs value stored instead of the named return value.
func TestRun_SingleKeyNamedMappingOutput(t *testing.T) {
	fn := func(args pipeline.Args) (pipeline.Outputs, error) {
		return pipeline.NamedOutputs{"predictions": 42}, nil
	}
	node, err := pipeline.CreateNode("n", fn, nil, map[string]string{"predictions": "model_output"})
	require.NoError(t, err)
	require.True(t, node.OutputsIsMapping)

	p := buildPipeline(t, node)
	r := New(nil, "", params.NewFromMap(nil), testutil.NewTestLogger(t))

	env, err := r.Run(context.Background(), p, selector.Filter{}, nil)
	require.NoError(t, err)

	v, ok := env.Get("model_output")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

// TestRun_MultiKeyNamedMappingOutput covers the unambiguous multi-entry
// named-mapping case, to pin the behavior TestRun_SingleKeyNamedMappingOutput
// is a regression of.
func TestRun_MultiKeyNamedMappingOutput(t *testing.T) {
	fn := func(args pipeline.Args) (pipeline.Outputs, error) {
		return pipeline.NamedOutputs{"train": 1, "test": 2}, nil
	}
	node, err := pipeline.CreateNode("n", fn, nil, map[string]string{"train": "train_set", "test": "test_set"})
	require.NoError(t, err)

	p := buildPipeline(t, node)
	r := New(nil, "", params.NewFromMap(nil), testutil.NewTestLogger(t))

	env, err := r.Run(context.Background(), p, selector.Filter{}, nil)
	require.NoError(t, err)

	train, ok := env.Get("train_set")
	require.True(t, ok)
	require.Equal(t, 1, train)

	test, ok := env.Get("test_set")
	require.True(t, ok)
	require.Equal(t, 2, test)
}

// A named-mapping outputs declaration whose func returns a non-mapping
// value is an error, not a silent raw store.
func TestRun_OutputShapeError(t *testing.T) {
	fn := func(args pipeline.Args) (pipeline.Outputs, error) {
		return 42, nil
	}
	node, err := pipeline.CreateNode("n", fn, nil, map[string]string{"predictions": "model_output"})
	require.NoError(t, err)

	p := buildPipeline(t, node)
	r := New(nil, "", params.NewFromMap(nil), testutil.NewTestLogger(t))

	_, err = r.Run(context.Background(), p, selector.Filter{}, nil)
	var shapeErr *errs.OutputShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestRun_InputResolutionFailed(t *testing.T) {
	fn := func(args pipeline.Args) (pipeline.Outputs, error) { return nil, nil }
	node, err := pipeline.CreateNode("n", fn, "nonexistent", "out")
	require.NoError(t, err)

	p := buildPipeline(t, node)
	r := New(catalog.NewFromMap("", map[string]map[string]any{}), "", params.NewFromMap(nil), testutil.NewTestLogger(t))

	_, err = r.Run(context.Background(), p, selector.Filter{}, nil)
	var failed *errs.InputResolutionFailed
	require.ErrorAs(t, err, &failed)
}
