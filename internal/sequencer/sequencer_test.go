package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-ml/kiln/internal/ir"
	"github.com/kiln-ml/kiln/internal/onnx"
	"github.com/kiln-ml/kiln/internal/templates"
)

func testShapes(t *testing.T, shapes map[string]onnx.Shape) *onnx.ShapeTable {
	t.Helper()
	table, err := onnx.NewShapeTable(&onnx.GraphProto{})
	require.NoError(t, err)
	for name, shape := range shapes {
		table.Set(name, shape)
	}
	return table
}

// fanModel is a diamond: x -> relu -> {exp, log} -> add. The relu must be
// planned once and before both of its consumers.
func fanModel() *onnx.ModelProto {
	return &onnx.ModelProto{Graph: &onnx.GraphProto{
		Nodes: []onnx.NodeProto{
			{Name: "relu", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"r"}},
			{Name: "exp", OpType: "Exp", Inputs: []string{"r"}, Outputs: []string{"e"}},
			{Name: "log", OpType: "Log", Inputs: []string{"r"}, Outputs: []string{"l"}},
			{Name: "add", OpType: "Add", Inputs: []string{"e", "l"}, Outputs: []string{"y"}},
		},
		Inputs:  []onnx.ValueInfoProto{{Name: "x"}},
		Outputs: []onnx.ValueInfoProto{{Name: "y"}},
	}}
}

func fanShapes(t *testing.T) *onnx.ShapeTable {
	return testShapes(t, map[string]onnx.Shape{
		"x": {1, 64}, "r": {1, 64}, "e": {1, 64}, "l": {1, 64}, "y": {1, 64},
	})
}

func opType(node *ir.Node) string {
	return node.Definition.(*ir.OperatorDefinition).Proto.OpType
}

func TestPlanOrdersProducersFirst(t *testing.T) {
	root, err := ir.FromModel(fanModel(), fanShapes(t), nil)
	require.NoError(t, err)

	nodes, err := Plan(root)
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	position := make(map[string]int, len(nodes))
	for i, node := range nodes {
		position[opType(node)] = i
	}
	assert.Less(t, position["Relu"], position["Exp"])
	assert.Less(t, position["Relu"], position["Log"])
	assert.Less(t, position["Exp"], position["Add"])
	assert.Less(t, position["Log"], position["Add"])
}

func TestPlanDeduplicatesSharedNodes(t *testing.T) {
	root, err := ir.FromModel(fanModel(), fanShapes(t), nil)
	require.NoError(t, err)

	nodes, err := Plan(root)
	require.NoError(t, err)

	seen := make(map[ir.Identifier]bool)
	for _, node := range nodes {
		assert.False(t, seen[node.Identifier()], "node planned twice: %s", node)
		seen[node.Identifier()] = true
	}
}

func TestCompileSequence(t *testing.T) {
	set, err := templates.NewSet()
	require.NoError(t, err)
	root, err := ir.FromModel(fanModel(), fanShapes(t), nil)
	require.NoError(t, err)

	compiled, err := Compile(root, fanShapes(t), set)
	require.NoError(t, err)
	require.Len(t, compiled, 4)

	for _, op := range compiled {
		require.NotNil(t, op.Kernel, opType(op.Node))
		assert.NotEmpty(t, op.Kernel.Source)
		assert.NotZero(t, op.Kernel.X)
	}
}

func TestCompileSequenceStopsOnUnsupported(t *testing.T) {
	model := &onnx.ModelProto{Graph: &onnx.GraphProto{
		Nodes: []onnx.NodeProto{
			{Name: "relu", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"r"}},
			{Name: "sum", OpType: "Sum", Inputs: []string{"r", "r"}, Outputs: []string{"y"}},
		},
		Inputs:  []onnx.ValueInfoProto{{Name: "x"}},
		Outputs: []onnx.ValueInfoProto{{Name: "y"}},
	}}
	shapes := testShapes(t, map[string]onnx.Shape{"x": {1, 64}, "r": {1, 64}, "y": {1, 64}})

	set, err := templates.NewSet()
	require.NoError(t, err)
	root, err := ir.FromModel(model, shapes, nil)
	require.NoError(t, err)

	compiled, err := Compile(root, shapes, set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sum")
	// The Relu compiled before the failure is retained.
	require.Len(t, compiled, 1)
	assert.Equal(t, "Relu", opType(compiled[0].Node))
}
