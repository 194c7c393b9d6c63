package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

// nodeValue wraps a pipeline.Node so it can flow through Starlark as an
// opaque value between node(...) and pipeline(...) calls.
type nodeValue struct {
	node pipeline.Node
}

func (n *nodeValue) String() string        { return fmt.Sprintf("<node %s>", n.node.Name) }
func (n *nodeValue) Type() string          { return "node" }
func (n *nodeValue) Freeze()               {}
func (n *nodeValue) Truth() starlark.Bool  { return starlark.True }
func (n *nodeValue) Hash() (uint32, error) { return 0, fmt.Errorf("node is unhashable") }

// pipelineValue wraps a pipeline.Pipeline so register() can accept it and
// pipeline(...) can splice a nested one's nodes.
type pipelineValue struct {
	pipeline pipeline.Pipeline
}

func (p *pipelineValue) String() string        { return fmt.Sprintf("<pipeline %s, %d nodes>", p.pipeline.Name, len(p.pipeline.Nodes)) }
func (p *pipelineValue) Type() string          { return "pipeline" }
func (p *pipelineValue) Freeze()               {}
func (p *pipelineValue) Truth() starlark.Bool  { return starlark.True }
func (p *pipelineValue) Hash() (uint32, error) { return 0, fmt.Errorf("pipeline is unhashable") }
