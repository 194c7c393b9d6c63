package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/flowcraft-dev/flowcraft/internal/loader"
)

// goToStarlark converts a Go value into its Starlark equivalent, for
// passing parameter/catalog values into manifest-script evaluation.
// Supported types: nil, string, int, int64, float64, bool, []string,
// []any, map[string]any, loader.Table.
func goToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case bool:
		return starlark.Bool(val), nil
	case []string:
		items := make([]starlark.Value, len(val))
		for i, s := range val {
			items[i] = starlark.String(s)
		}
		return starlark.NewList(items), nil
	case []any:
		items := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := goToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			sv, err := goToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	case loader.Table:
		return tableToStarlark(val), nil
	default:
		return nil, fmt.Errorf("script: unsupported Go value type %T", v)
	}
}

// tableToStarlark renders a Table as a dict of {"columns": [...], "rows":
// [[...], ...]}. Manifest scripts inspect tables read-only, they never
// construct one (node funcs produce Tables in Go).
func tableToStarlark(t loader.Table) starlark.Value {
	dict := starlark.NewDict(2)
	cols := make([]starlark.Value, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = starlark.String(c)
	}
	_ = dict.SetKey(starlark.String("columns"), starlark.NewList(cols))

	rows := make([]starlark.Value, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]starlark.Value, len(row))
		for j, cell := range row {
			sv, err := goToStarlark(cell)
			if err != nil {
				sv = starlark.String(fmt.Sprint(cell))
			}
			cells[j] = sv
		}
		rows[i] = starlark.NewList(cells)
	}
	_ = dict.SetKey(starlark.String("rows"), starlark.NewList(rows))
	return dict
}

// starlarkToGo converts a Starlark value back into a plain Go value
// (string, int64, float64, bool, []any, map[string]any, or nil).
func starlarkToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		if i64, ok := val.Int64(); ok {
			return i64, nil
		}
		return val.String(), nil
	case starlark.Float:
		return float64(val), nil
	case starlark.Bool:
		return bool(val), nil
	case *starlark.List:
		out := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := starlarkToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			out[i] = gv
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("script: dict key must be string, got %T", item[0])
			}
			gv, err := starlarkToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			out[string(key)] = gv
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := starlarkToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			out[i] = gv
		}
		return out, nil
	default:
		return val.String(), nil
	}
}
