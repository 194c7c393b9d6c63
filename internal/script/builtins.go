package script

import (
	"fmt"
	"log/slog"

	"go.starlark.net/starlark"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

// collector accumulates named pipelines registered by a manifest script's
// register() calls, for orchestrate() to hand back to the caller.
type collector struct {
	pipelines map[string]pipeline.Pipeline
}

// predeclared returns the node()/pipeline()/register() builtins bound to
// logger (for pipeline construction warnings) and coll (to record
// register() calls).
func predeclared(logger *slog.Logger, coll *collector) starlark.StringDict {
	return starlark.StringDict{
		"node":     starlark.NewBuiltin("node", builtinNode),
		"pipeline": builtinPipelineClosure(logger),
		"register": builtinRegisterClosure(coll),
	}
}

func builtinNode(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		funcName   starlark.String
		inputs     starlark.Value = starlark.None
		outputs    starlark.Value = starlark.None
		name       starlark.String
		tags       *starlark.List
		parameters starlark.Value = starlark.None
	)
	if err := starlark.UnpackArgs("node", args, kwargs,
		"func", &funcName, "inputs?", &inputs, "outputs?", &outputs,
		"name?", &name, "tags?", &tags, "parameters?", &parameters,
	); err != nil {
		return nil, err
	}

	fn, err := lookupFunc(string(funcName))
	if err != nil {
		return nil, err
	}

	goInputs, err := starlarkBindingToGo(inputs)
	if err != nil {
		return nil, &errs.InvalidNode{Reason: fmt.Sprintf("inputs: %v", err)}
	}
	goOutputs, err := starlarkBindingToGo(outputs)
	if err != nil {
		return nil, &errs.InvalidNode{Reason: fmt.Sprintf("outputs: %v", err)}
	}

	var opts []pipeline.NodeOption
	if name != "" {
		opts = append(opts, pipeline.WithName(string(name)))
	}
	if tags != nil {
		tagValues := make([]string, 0, tags.Len())
		for i := 0; i < tags.Len(); i++ {
			if s, ok := tags.Index(i).(starlark.String); ok {
				tagValues = append(tagValues, string(s))
			}
		}
		opts = append(opts, pipeline.WithTags(tagValues...))
	}
	if parameters != starlark.None {
		goParams, err := starlarkToGo(parameters)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithParameters(goParams))
	}

	n, err := pipeline.CreateNode(string(funcName), fn, goInputs, goOutputs, opts...)
	if err != nil {
		return nil, err
	}
	return &nodeValue{node: n}, nil
}

func builtinPipelineClosure(logger *slog.Logger) *starlark.Builtin {
	return starlark.NewBuiltin("pipeline", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name starlark.String
		positional, err := splitNameKwarg(kwargs, &name)
		if err != nil {
			return nil, err
		}
		_ = positional

		items := make([]pipeline.Item, 0, len(args))
		for _, a := range args {
			switch v := a.(type) {
			case *nodeValue:
				items = append(items, v.node)
			case *pipelineValue:
				items = append(items, v.pipeline)
			default:
				return nil, &errs.InvalidPipeline{Reason: fmt.Sprintf("item must be a node or pipeline value, got %s", a.Type())}
			}
		}

		var opts []pipeline.PipelineOption
		if name != "" {
			opts = append(opts, pipeline.WithPipelineName(string(name)))
		}

		p, err := pipeline.CreatePipeline(logger, items, opts...)
		if err != nil {
			return nil, err
		}
		return &pipelineValue{pipeline: p}, nil
	})
}

func builtinRegisterClosure(coll *collector) *starlark.Builtin {
	return starlark.NewBuiltin("register", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name starlark.String
		var p *pipelineValue
		if err := starlark.UnpackArgs("register", args, kwargs, "name", &name, "pipeline", &p); err != nil {
			return nil, err
		}
		coll.pipelines[string(name)] = p.pipeline
		return starlark.None, nil
	})
}

// starlarkBindingToGo converts a node()'s inputs/outputs argument (string,
// list of strings, dict, or None) into the any CreateNode accepts.
func starlarkBindingToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		out := make([]string, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			s, ok := val.Index(i).(starlark.String)
			if !ok {
				return nil, fmt.Errorf("list element %d must be a string", i)
			}
			out = append(out, string(s))
		}
		return out, nil
	case *starlark.Dict:
		out := map[string]string{}
		for _, item := range val.Items() {
			k, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be a string")
			}
			sv, ok := item[1].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict value for %q must be a string", string(k))
			}
			out[string(k)] = string(sv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("must be a string, list of strings, dict, or None, got %s", v.Type())
	}
}

// splitNameKwarg pulls a "name" kwarg out of kwargs, for builtins
// (pipeline()) that take it alongside a variadic positional list that
// starlark.UnpackArgs can't express directly.
func splitNameKwarg(kwargs []starlark.Tuple, name *starlark.String) ([]starlark.Tuple, error) {
	var rest []starlark.Tuple
	for _, kv := range kwargs {
		key, ok := kv[0].(starlark.String)
		if ok && string(key) == "name" {
			s, ok := kv[1].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("pipeline: name must be a string")
			}
			*name = s
			continue
		}
		rest = append(rest, kv)
	}
	return rest, nil
}
