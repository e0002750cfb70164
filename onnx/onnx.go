// Package onnx provides ONNX model decoding for the kiln shader compiler.
//
// It parses the ONNX protobuf format into a read-only typed description and
// builds the per-model shape table the kernel compiler consumes.
//
// # Example Usage
//
//	model, err := onnx.ParseFile("model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	shapes, err := onnx.NewShapeTable(model.Graph)
//	if err != nil {
//	    log.Fatal(err)
//	}
package onnx

import (
	internalonnx "github.com/kiln-ml/kiln/internal/onnx"
)

// ModelProto is the decoded top-level model message.
type ModelProto = internalonnx.ModelProto

// GraphProto is the decoded computation graph.
type GraphProto = internalonnx.GraphProto

// NodeProto is a single operator record.
type NodeProto = internalonnx.NodeProto

// TensorProto is a constant tensor (initializer/weight).
type TensorProto = internalonnx.TensorProto

// ValueInfoProto declares a named value and its type.
type ValueInfoProto = internalonnx.ValueInfoProto

// TypeProto is the declared type of a value.
type TypeProto = internalonnx.TypeProto

// TensorTypeProto is a tensor type: element type plus shape.
type TensorTypeProto = internalonnx.TensorTypeProto

// TensorShapeProto is the declared shape of a tensor type.
type TensorShapeProto = internalonnx.TensorShapeProto

// DimensionProto is one dimension of a declared shape, either a static
// size or a symbolic parameter.
type DimensionProto = internalonnx.DimensionProto

// AttributeProto is one named operator attribute.
type AttributeProto = internalonnx.AttributeProto

// Shape is the ordered list of dimension sizes of a tensor.
type Shape = internalonnx.Shape

// ShapeTable maps tensor names to shapes; lookups of absent names fail.
type ShapeTable = internalonnx.ShapeTable

// ModelInfo is lightweight model metadata.
type ModelInfo = internalonnx.ModelInfo

// Parse decodes an ONNX model from raw protobuf bytes.
func Parse(data []byte) (*ModelProto, error) {
	return internalonnx.Parse(data)
}

// ParseFile decodes an ONNX model from a file on disk.
func ParseFile(path string) (*ModelProto, error) {
	return internalonnx.ParseFile(path)
}

// NewShapeTable builds the shape table for a graph from its value-info,
// input/output annotations and initializer dims.
func NewShapeTable(g *GraphProto) (*ShapeTable, error) {
	return internalonnx.NewShapeTable(g)
}
