package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-ml/kiln/compiler"
	"github.com/kiln-ml/kiln/onnx"
)

// mlpModel is a two-layer perceptron with static shape annotations, the
// smallest model that exercises graph building, shape resolution and two
// template families end to end.
func mlpModel() *onnx.ModelProto {
	static := func(name string, dims ...int64) onnx.ValueInfoProto {
		vi := onnx.ValueInfoProto{Name: name}
		shapeDims := make([]onnx.DimensionProto, len(dims))
		for i, d := range dims {
			shapeDims[i] = onnx.DimensionProto{DimValue: d}
		}
		vi.Type = &onnx.TypeProto{TensorType: &onnx.TensorTypeProto{
			ElemType: 1,
			Shape:    &onnx.TensorShapeProto{Dims: shapeDims},
		}}
		return vi
	}

	return &onnx.ModelProto{Graph: &onnx.GraphProto{
		Nodes: []onnx.NodeProto{
			{Name: "fc1", OpType: "Gemm", Inputs: []string{"x", "w1"}, Outputs: []string{"h"}},
			{Name: "act", OpType: "Relu", Inputs: []string{"h"}, Outputs: []string{"a"}},
			{Name: "fc2", OpType: "Gemm", Inputs: []string{"a", "w2"}, Outputs: []string{"y"}},
		},
		Inputs: []onnx.ValueInfoProto{static("x", 1, 64)},
		Initializers: []onnx.TensorProto{
			{Name: "w1", Dims: []int64{64, 32}},
			{Name: "w2", Dims: []int64{32, 16}},
		},
		ValueInfo: []onnx.ValueInfoProto{static("h", 1, 32), static("a", 1, 32)},
		Outputs:   []onnx.ValueInfoProto{static("y", 1, 16)},
	}}
}

func TestCompileModel(t *testing.T) {
	model := mlpModel()
	shapes, err := onnx.NewShapeTable(model.Graph)
	require.NoError(t, err)

	ops, err := compiler.CompileModel(model, shapes)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	templates := make([]string, len(ops))
	for i, op := range ops {
		templates[i] = op.Kernel.Template
		assert.NotEmpty(t, op.Kernel.Source)
	}
	assert.Equal(t, []string{
		"matrix/gemm_1.wgsl",
		"endomorphism/activation.wgsl",
		"matrix/gemm_1.wgsl",
	}, templates)
}

func TestCompileModelExplicitOutputs(t *testing.T) {
	model := mlpModel()
	shapes, err := onnx.NewShapeTable(model.Graph)
	require.NoError(t, err)

	// Compiling up to the hidden activation must not compile fc2.
	ops, err := compiler.CompileModel(model, shapes, compiler.Options{Outputs: []string{"a"}})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "matrix/gemm_1.wgsl", ops[0].Kernel.Template)
	assert.Equal(t, "endomorphism/activation.wgsl", ops[1].Kernel.Template)
}

func TestCompileNode(t *testing.T) {
	model := mlpModel()
	shapes, err := onnx.NewShapeTable(model.Graph)
	require.NoError(t, err)

	kernel, err := compiler.CompileNode(&model.Graph.Nodes[1], shapes)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), kernel.X)
	assert.Equal(t, uint32(1), kernel.Y)
	assert.Equal(t, uint32(1), kernel.Z)
}

func TestCompileModelUnsupportedOperator(t *testing.T) {
	model := mlpModel()
	model.Graph.Nodes[1].OpType = "Sum"
	shapes, err := onnx.NewShapeTable(model.Graph)
	require.NoError(t, err)

	_, err = compiler.CompileModel(model, shapes)
	var unsupported *compiler.UnsupportedOpError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "Sum", unsupported.OpType)
}
