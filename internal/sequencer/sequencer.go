// Package sequencer walks a built DAG and compiles every operator node
// exactly once, in dependency order, so the execution layer can dispatch
// kernels as their inputs become ready.
package sequencer

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kiln-ml/kiln/internal/compiler"
	"github.com/kiln-ml/kiln/internal/ir"
	"github.com/kiln-ml/kiln/internal/onnx"
	"github.com/kiln-ml/kiln/internal/templates"
)

// CompiledOp couples a DAG operator node with its compiled kernel.
type CompiledOp struct {
	Node   *ir.Node
	Kernel *compiler.Kernel
}

// Plan returns the operator nodes reachable from root in dependency order:
// every producer precedes its consumers. Nodes shared by several consumers
// appear exactly once, keyed by referential identity.
func Plan(root *ir.Node) ([]*ir.Node, error) {
	g := simple.NewDirectedGraph()
	ids := make(map[ir.Identifier]int64)
	byID := make(map[int64]*ir.Node)

	var visit func(n *ir.Node) int64
	visit = func(n *ir.Node) int64 {
		if id, ok := ids[n.Identifier()]; ok {
			return id
		}
		id := int64(len(ids))
		ids[n.Identifier()] = id
		byID[id] = n
		g.AddNode(simple.Node(id))
		for _, input := range n.Inputs {
			source := visit(input.Source)
			g.SetEdge(simple.Edge{F: simple.Node(source), T: simple.Node(id)})
		}
		return id
	}
	visit(root)

	sorted, err := topo.Sort(g)
	if err != nil {
		// Acyclicity is inherited from the source description; a cycle
		// means the description itself is malformed.
		return nil, fmt.Errorf("sequencer: %w", err)
	}

	var ops []*ir.Node
	for _, gn := range sorted {
		node := byID[gn.ID()]
		if _, ok := node.Definition.(*ir.OperatorDefinition); ok {
			ops = append(ops, node)
		}
	}
	return ops, nil
}

// Compile plans the DAG and compiles each operator node once. A node that
// fails to compile aborts the sequence; previously compiled kernels and the
// DAG itself are unaffected.
func Compile(root *ir.Node, shapes *onnx.ShapeTable, set *templates.Set) ([]CompiledOp, error) {
	nodes, err := Plan(root)
	if err != nil {
		return nil, err
	}

	compiled := make([]CompiledOp, 0, len(nodes))
	for _, node := range nodes {
		def := node.Definition.(*ir.OperatorDefinition)
		kernel, err := compiler.Compile(def.Proto, shapes, set)
		if err != nil {
			return compiled, fmt.Errorf("sequencer: node %s: %w", def.UniqueName(), err)
		}
		compiled = append(compiled, CompiledOp{Node: node, Kernel: kernel})
	}
	return compiled, nil
}
