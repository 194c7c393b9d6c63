// Package pipeline implements Node and Pipeline: immutable descriptors
// binding a user function to named inputs, outputs, parameter bindings
// and tags, composed into a flattened, ordered pipeline.
package pipeline

import (
	"fmt"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

// Args is the call-argument map a NodeFunc receives: argument name →
// resolved value (either an input's loaded data or a resolved parameter).
type Args map[string]any

// Outputs is whatever a NodeFunc returns. A single-output node returns the
// bare value directly; a multi-output node returns NamedOutputs.
type Outputs any

// NamedOutputs is the return shape for a node whose outputs are declared as
// a returnKey → DataRef mapping.
type NamedOutputs map[string]any

// NodeFunc is the Go shape a node's function takes. There is no reflection
// over its formal parameters (Go closures don't expose argument names);
// Node.RequiredArgs stands in for that, see the doc comment on Node.
type NodeFunc func(args Args) (Outputs, error)

// Binding is the normalized argument-name → DataRef (or literal parameter
// value) shape that inputs/outputs/parameters reduce to. Surface forms
// accepted by CreateNode: a bare string, a slice of strings, or a
// map[string]string already in this shape.
type Binding map[string]string

// Node is an immutable descriptor binding a function to named inputs,
// outputs, parameter bindings and tags. Go offers no way to introspect a
// closure's formal argument names, so RequiredArgs carries that
// declaration explicitly: it names which resolved call-argument keys must
// be present or MissingArgument fires. When empty, every input/parameter
// key is implicitly required.
type Node struct {
	Name         string
	Func         NodeFunc
	FuncName     string
	Inputs       Binding
	Outputs      Binding
	Parameters   map[string]any
	Tags         []string
	RequiredArgs []string
	AcceptsExtra bool

	// OutputsIsMapping records which surface form Outputs was declared
	// with: true for a map[string]string (returnKey -> DataRef), false
	// for a bare string or []string. A map[string]string with exactly
	// one entry is still a named mapping; Binding alone can't tell the
	// two apart once both have collapsed to a length-1 map, so
	// captureOutputs consults this field instead of len(node.Outputs).
	OutputsIsMapping bool
}

// CreateNode validates and builds a Node. inputs and outputs may be a
// string, a []string, or a map[string]string; parameters are attached
// through WithParameters (a map[string]any, a string, or nil). name
// defaults to funcName: a Go func
// value has no useful human-readable identifier to derive one from, so
// callers supply funcName explicitly.
func CreateNode(funcName string, fn NodeFunc, inputs, outputs any, opts ...NodeOption) (Node, error) {
	if fn == nil {
		return Node{}, &errs.InvalidNode{Reason: "func must be callable, got nil"}
	}

	inBinding, err := normalizeBinding("inputs", inputs)
	if err != nil {
		return Node{}, err
	}
	outBinding, err := normalizeBinding("outputs", outputs)
	if err != nil {
		return Node{}, err
	}
	_, outputsIsMapping := outputs.(map[string]string)

	n := Node{
		Name:             funcName,
		Func:             fn,
		FuncName:         funcName,
		Inputs:           inBinding,
		Outputs:          outBinding,
		Parameters:       map[string]any{},
		OutputsIsMapping: outputsIsMapping,
	}
	for _, opt := range opts {
		opt(&n)
	}
	if n.Name == "" {
		n.Name = funcName
	}
	return n, nil
}

// NodeOption configures optional Node fields.
type NodeOption func(*Node)

// WithName overrides the derived node name.
func WithName(name string) NodeOption {
	return func(n *Node) { n.Name = name }
}

// WithTags attaches a tag set used by the Selector's tag filter.
func WithTags(tags ...string) NodeOption {
	return func(n *Node) { n.Tags = tags }
}

// WithParameters attaches parameter bindings (argName → ParamRef or
// literal). A bare string is treated as a single binding named "param"
// for callers with exactly one parameter.
func WithParameters(parameters any) NodeOption {
	return func(n *Node) {
		switch p := parameters.(type) {
		case nil:
			return
		case map[string]any:
			n.Parameters = p
		case string:
			n.Parameters = map[string]any{"param": p}
		}
	}
}

// WithRequiredArgs declares which resolved call-argument keys are
// mandatory at invocation time.
func WithRequiredArgs(args ...string) NodeOption {
	return func(n *Node) { n.RequiredArgs = args }
}

// WithAcceptsExtra marks the node's func as accepting call-argument keys
// beyond its declared set, the way a variadic-rest formal would.
func WithAcceptsExtra(accepts bool) NodeOption {
	return func(n *Node) { n.AcceptsExtra = accepts }
}

func normalizeBinding(field string, v any) (Binding, error) {
	b := Binding{}
	switch x := v.(type) {
	case nil:
		return b, nil
	case string:
		b[x] = x
	case []string:
		for _, s := range x {
			b[s] = s
		}
	case map[string]string:
		for k, val := range x {
			b[k] = val
		}
	default:
		return nil, &errs.InvalidNode{Reason: fmt.Sprintf("%s must be a string, []string, or map[string]string, got %T", field, v)}
	}
	return b, nil
}
