// Package compiler compiles operator nodes into parameterized WGSL kernels
// with concrete dispatch sizes, and sequences whole models into
// dependency-ordered kernel lists.
//
// # Example Usage
//
//	model, _ := onnx.ParseFile("model.onnx")
//	shapes, _ := onnx.NewShapeTable(model.Graph)
//
//	ops, err := compiler.CompileModel(model, shapes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, op := range ops {
//	    fmt.Println(op.Kernel.Template, op.Kernel.X, op.Kernel.Y, op.Kernel.Z)
//	}
package compiler

import (
	internalcompiler "github.com/kiln-ml/kiln/internal/compiler"
	"github.com/kiln-ml/kiln/internal/ir"
	internalonnx "github.com/kiln-ml/kiln/internal/onnx"
	"github.com/kiln-ml/kiln/internal/sequencer"
	"github.com/kiln-ml/kiln/internal/templates"
)

// Kernel is the compiled artifact: rendered WGSL source plus the dispatch
// grid. Y and Z are 1 for every operator currently supported.
type Kernel = internalcompiler.Kernel

// CompiledOp couples a DAG node with its compiled kernel.
type CompiledOp = sequencer.CompiledOp

// UnsupportedOpError reports an operator the decision table does not cover.
type UnsupportedOpError = internalcompiler.UnsupportedOpError

// PreconditionError reports a structural shape violation.
type PreconditionError = internalcompiler.PreconditionError

// Options configures model compilation.
type Options struct {
	// Outputs restricts compilation to the subgraph producing the named
	// outputs. Empty means the model's declared outputs.
	Outputs []string
}

// DefaultOptions returns the default compilation options.
func DefaultOptions() Options {
	return Options{}
}

// CompileNode compiles a single operator record against a shape table.
func CompileNode(node *internalonnx.NodeProto, shapes *internalonnx.ShapeTable) (*Kernel, error) {
	set, err := templates.NewSet()
	if err != nil {
		return nil, err
	}
	return internalcompiler.Compile(node, shapes, set)
}

// CompileModel builds the DAG for a model and compiles every reachable
// operator node exactly once, in dependency order.
func CompileModel(model *internalonnx.ModelProto, shapes *internalonnx.ShapeTable, opts ...Options) ([]CompiledOp, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	root, err := ir.FromModel(model, shapes, opt.Outputs)
	if err != nil {
		return nil, err
	}

	set, err := templates.NewSet()
	if err != nil {
		return nil, err
	}
	return sequencer.Compile(root, shapes, set)
}
