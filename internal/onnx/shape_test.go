package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticValueInfo(name string, dims ...int64) ValueInfoProto {
	shapeDims := make([]DimensionProto, len(dims))
	for i, d := range dims {
		shapeDims[i] = DimensionProto{DimValue: d}
	}
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{TensorType: &TensorTypeProto{
			ElemType: 1,
			Shape:    &TensorShapeProto{Dims: shapeDims},
		}},
	}
}

func TestShapeTableLookup(t *testing.T) {
	g := &GraphProto{
		Inputs:       []ValueInfoProto{staticValueInfo("x", 1, 3, 8, 8)},
		Initializers: []TensorProto{{Name: "w", Dims: []int64{4, 3, 3, 3}}},
		ValueInfo:    []ValueInfoProto{staticValueInfo("h", 1, 4, 8, 8)},
		Outputs:      []ValueInfoProto{staticValueInfo("y", 1, 4, 4, 4)},
	}
	table, err := NewShapeTable(g)
	require.NoError(t, err)

	for name, want := range map[string]Shape{
		"x": {1, 3, 8, 8},
		"w": {4, 3, 3, 3},
		"h": {1, 4, 8, 8},
		"y": {1, 4, 4, 4},
	} {
		shape, err := table.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, shape, name)
	}

	_, err = table.Lookup("unknown")
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "unknown", shapeErr.Name)
}

func TestShapeTableRejectsSymbolicDims(t *testing.T) {
	vi := staticValueInfo("x", 0, 3)
	vi.Type.TensorType.Shape.Dims[0] = DimensionProto{DimParam: "batch"}

	g := &GraphProto{Inputs: []ValueInfoProto{vi}}
	_, err := NewShapeTable(g)
	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "x", shapeErr.Name)
	assert.Contains(t, shapeErr.Reason, "symbolic")
}

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, int64(192), Shape{1, 3, 8, 8}.NumElements())
	assert.Equal(t, int64(1), Shape{}.NumElements())
}
