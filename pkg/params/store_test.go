package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "parameters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
	var missing *errs.ConfigMissing
	require.ErrorAs(t, err, &missing)
}

func TestLoad_ParseError(t *testing.T) {
	path := writeTempFile(t, "param2: [missing_quote\n")
	_, err := Load(path)
	require.Error(t, err)
	var parseErr *errs.ConfigParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, parseErr.Error(), path)
}

func TestLoad_ReturnsHierarchy(t *testing.T) {
	path := writeTempFile(t, "generation:\n  setting: hello\ncount: 3\n")
	store, err := Load(path)
	require.NoError(t, err)

	v, ok := store.Get("generation")
	require.True(t, ok)
	nested, ok := v.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "hello", nested["setting"])

	v, ok = store.Get("count")
	require.True(t, ok)
	require.EqualValues(t, 3, v)
}

func TestResolve_ParamRefSemantics(t *testing.T) {
	store := NewFromMap(map[string]any{"params.generation.setting": "hello"})

	require.Equal(t, "hello", store.Resolve("params.generation.setting"))
	require.Equal(t, "literal-passthrough", store.Resolve("literal-passthrough"))
	require.Equal(t, 42, store.Resolve(42))
}

// A literal dotted top-level key in the document must survive loading as
// one flat key, not be split into nested maps.
func TestLoad_DottedTopLevelKeyStaysFlat(t *testing.T) {
	path := writeTempFile(t, "params.generation.setting: hello\n")
	store, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "hello", store.Resolve("params.generation.setting"))
}

func TestResolve_DottedKeysAreFlat(t *testing.T) {
	store := NewFromMap(map[string]any{
		"params": map[string]any{"x": map[string]any{"y": "nested"}},
	})
	// "params.x.y" is not descended into; it is not a literal top-level key
	// either, so it passes through unchanged.
	require.Equal(t, "params.x.y", store.Resolve("params.x.y"))
}
