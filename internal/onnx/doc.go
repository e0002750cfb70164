// Package onnx decodes ONNX model files into a typed, read-only model
// description and builds the shape table the compiler works from.
//
// The decoder is a minimal hand-written protobuf wire-format reader: it only
// understands the subset of the ONNX schema the compiler consumes (graph
// topology, initializers, value shapes, node attributes) and skips everything
// else. This keeps the module free of a protobuf runtime dependency.
package onnx
