package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-ml/kiln/internal/onnx"
)

func TestIsDynamic(t *testing.T) {
	opNode := &Node{Definition: &OperatorDefinition{Proto: &onnx.NodeProto{OpType: "Relu", Outputs: []string{"y"}}}}
	inputNode := &Node{Definition: &InputDefinition{Proto: &onnx.ValueInfoProto{Name: "x"}}}
	tensorNode := &Node{Definition: &TensorDefinition{Proto: &onnx.TensorProto{Name: "w"}}}
	missingNode := &Node{Definition: MissingDefinition{}}

	assert.True(t, opNode.IsDynamic())
	assert.True(t, inputNode.IsDynamic())
	assert.False(t, tensorNode.IsDynamic())
	assert.False(t, missingNode.IsDynamic())
}

func TestIsConstantPropagation(t *testing.T) {
	// y = Add(w1, w2) over two initializers is constant; z = Add(x, w1)
	// over a graph input is not. The property must hold transitively.
	model := &onnx.ModelProto{Graph: &onnx.GraphProto{
		Nodes: []onnx.NodeProto{
			{Name: "const_add", OpType: "Add", Inputs: []string{"w1", "w2"}, Outputs: []string{"y"}},
			{Name: "dyn_add", OpType: "Add", Inputs: []string{"x", "y"}, Outputs: []string{"z"}},
		},
		Inputs: []onnx.ValueInfoProto{{Name: "x"}},
		Initializers: []onnx.TensorProto{
			{Name: "w1", Dims: []int64{4}},
			{Name: "w2", Dims: []int64{4}},
		},
		Outputs: []onnx.ValueInfoProto{{Name: "z"}},
	}}
	shapes := testShapeTable(t, map[string]onnx.Shape{"y": {4}, "z": {4}})

	root, err := FromModel(model, shapes, nil)
	require.NoError(t, err)

	dynAdd := root.Inputs[0].Source
	assert.False(t, dynAdd.IsConstant())

	constAdd := dynAdd.Inputs[1].Source
	assert.True(t, constAdd.IsConstant())
	assert.True(t, constAdd.Inputs[0].Source.IsConstant())
}

func TestOperatorDefinitionShapes(t *testing.T) {
	shapes := testShapeTable(t, map[string]onnx.Shape{"y": {1, 4, 8, 8}})
	proto := &onnx.NodeProto{OpType: "Relu", Outputs: []string{"y"}}

	def, err := NewOperatorDefinition(proto, shapes)
	require.NoError(t, err)
	assert.Equal(t, "y", def.UniqueName())
	require.Len(t, def.OutputShapes, 1)
	assert.Equal(t, int64(256), def.OutputShapes[0].NumElements())

	_, err = NewOperatorDefinition(&onnx.NodeProto{OpType: "Relu", Outputs: []string{"missing"}}, shapes)
	var notFound *OutputNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestNodeString(t *testing.T) {
	node := &Node{Definition: &OperatorDefinition{Proto: &onnx.NodeProto{Name: "conv0", OpType: "Conv", Outputs: []string{"y"}}}}
	assert.Equal(t, "op conv0 (Conv)", node.String())
	assert.Equal(t, "missing (optional)", (&Node{Definition: MissingDefinition{}}).String())
}
