// Package graph builds the shared, deduplicated DAG of computation nodes
// from a decoded model description.
//
// Nodes are immutable after construction and may be referenced by multiple
// consumers; two requested outputs that share an upstream operator reuse the
// identical node instance.
//
// # Example Usage
//
//	model, _ := onnx.ParseFile("model.onnx")
//	shapes, _ := onnx.NewShapeTable(model.Graph)
//
//	root, err := graph.FromModel(model, shapes, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, edge := range root.Inputs {
//	    fmt.Println(edge.Source, edge.OutputIndex)
//	}
package graph

import (
	"github.com/kiln-ml/kiln/internal/ir"
	internalonnx "github.com/kiln-ml/kiln/internal/onnx"
)

// Node is a graph vertex: a definition plus ordered edges to producers.
type Node = ir.Node

// Input is an edge to a producer node and the index of the consumed output.
type Input = ir.Input

// NodeDefinition is the tagged variant a Node wraps.
type NodeDefinition = ir.NodeDefinition

// OperatorDefinition wraps an operator record plus resolved output shapes.
type OperatorDefinition = ir.OperatorDefinition

// TensorDefinition is a constant tensor definition.
type TensorDefinition = ir.TensorDefinition

// InputDefinition is a declared network input placeholder.
type InputDefinition = ir.InputDefinition

// OutputsDefinition is the synthetic terminal listing requested outputs.
type OutputsDefinition = ir.OutputsDefinition

// MissingDefinition marks an absent optional operator input.
type MissingDefinition = ir.MissingDefinition

// Identifier compares nodes by referential identity; usable as a map key.
type Identifier = ir.Identifier

// OutputNotFoundError reports an unresolvable requested output.
type OutputNotFoundError = ir.OutputNotFoundError

// InputNotFoundError reports an unresolvable operator input reference.
type InputNotFoundError = ir.InputNotFoundError

// FromModel builds the DAG rooted at a synthetic Outputs node for the
// requested output names, defaulting to the model's declared outputs.
func FromModel(model *internalonnx.ModelProto, shapes *internalonnx.ShapeTable, outputs []string) (*Node, error) {
	return ir.FromModel(model, shapes, outputs)
}
