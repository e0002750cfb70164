// Package ir builds the shared, deduplicated DAG of computation nodes that
// the kernel compiler walks. Nodes are immutable once constructed and may be
// referenced by multiple consumers; repeated resolution of the same unique
// name yields the same *Node instance.
package ir

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/onnx"
)

// NodeDefinition is the tagged variant a Node wraps: an operator record, a
// constant tensor, a declared graph input, the synthetic outputs terminal,
// or the missing-optional-input sentinel.
type NodeDefinition interface {
	// UniqueName identifies the definition in the memoization map. For
	// operators it is the first output's name (node names are optional in
	// the ONNX IR, output names are required and unique).
	UniqueName() string

	isDefinition()
}

// OperatorDefinition wraps an operator record together with its resolved
// output shapes, one per declared output.
type OperatorDefinition struct {
	Proto        *onnx.NodeProto
	OutputShapes []onnx.Shape
}

// NewOperatorDefinition resolves the output shapes of an operator record.
// Every declared output must have a shape in the table.
func NewOperatorDefinition(proto *onnx.NodeProto, shapes *onnx.ShapeTable) (*OperatorDefinition, error) {
	outputShapes := make([]onnx.Shape, 0, len(proto.Outputs))
	for _, name := range proto.Outputs {
		shape, err := shapes.Lookup(name)
		if err != nil {
			return nil, &OutputNotFoundError{Name: name}
		}
		outputShapes = append(outputShapes, shape)
	}
	return &OperatorDefinition{Proto: proto, OutputShapes: outputShapes}, nil
}

func (d *OperatorDefinition) UniqueName() string { return d.Proto.UniqueName() }
func (d *OperatorDefinition) isDefinition()      {}

// TensorDefinition is a constant tensor (initializer/weight).
type TensorDefinition struct {
	Proto *onnx.TensorProto
}

func (d *TensorDefinition) UniqueName() string { return d.Proto.Name }
func (d *TensorDefinition) isDefinition()      {}

// InputDefinition is a declared network input placeholder.
type InputDefinition struct {
	Proto *onnx.ValueInfoProto
}

func (d *InputDefinition) UniqueName() string { return d.Proto.Name }
func (d *InputDefinition) isDefinition()      {}

// OutputsDefinition is the synthetic terminal node listing the requested
// output names; its node's inputs are the resolved producer edges.
type OutputsDefinition struct {
	Names []string
}

func (d *OutputsDefinition) UniqueName() string { return " " }
func (d *OutputsDefinition) isDefinition()      {}

// MissingDefinition marks an absent optional operator input. It carries no
// data, so a fresh value is constructed wherever one is needed.
type MissingDefinition struct{}

func (MissingDefinition) UniqueName() string { return "" }
func (MissingDefinition) isDefinition()      {}

// Input is an edge to a producer node plus which of its possibly-multiple
// outputs is consumed.
type Input struct {
	Source      *Node
	OutputIndex int
}

// Node is a graph vertex: a definition plus the ordered edges to the nodes
// producing its inputs. Nodes are immutable after construction and shared
// between all consumers.
type Node struct {
	Definition NodeDefinition
	Inputs     []Input
}

// IsDynamic reports whether the node's value depends on runtime input.
func (n *Node) IsDynamic() bool {
	switch n.Definition.(type) {
	case *OperatorDefinition, *InputDefinition:
		return true
	default:
		return false
	}
}

// IsConstant reports whether the node's value depends only on constants:
// either the node is not dynamic, or it is an operator whose inputs are all
// transitively constant.
func (n *Node) IsConstant() bool {
	if !n.IsDynamic() {
		return true
	}
	if _, ok := n.Definition.(*OperatorDefinition); !ok {
		return false
	}
	for _, input := range n.Inputs {
		if !input.Source.IsConstant() {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	switch def := n.Definition.(type) {
	case *OperatorDefinition:
		return fmt.Sprintf("op %s (%s)", def.Proto.Name, def.Proto.OpType)
	case *TensorDefinition:
		return fmt.Sprintf("tensor %s", def.Proto.Name)
	case *InputDefinition:
		return fmt.Sprintf("input %s", def.Proto.Name)
	case *OutputsDefinition:
		return "outputs"
	case MissingDefinition:
		return "missing (optional)"
	default:
		return "unknown"
	}
}

// Identifier compares and hashes by the referential identity of the
// underlying node, not its contents. Two structurally identical nodes built
// at different times stay distinguishable, while the same node reached via
// different consumer paths collapses to one map entry.
type Identifier struct {
	node *Node
}

// Identifier returns the identity key for this node.
func (n *Node) Identifier() Identifier { return Identifier{node: n} }

// Node returns the identified node.
func (id Identifier) Node() *Node { return id.node }
