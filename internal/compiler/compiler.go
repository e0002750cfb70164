// Package compiler turns a single operator node plus the model's shape
// table into a parameterized WGSL kernel with a concrete dispatch size. It
// is a pure function of its inputs and safe to invoke concurrently for
// independent nodes.
package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kiln-ml/kiln/internal/onnx"
	"github.com/kiln-ml/kiln/internal/templates"
)

// Kernel is the compiled artifact handed to the execution layer: rendered
// shader source and the number of workgroups along each dispatch axis.
// Y and Z are 1 for every operator currently supported.
type Kernel struct {
	Template string
	Source   string
	X, Y, Z  uint32
}

// identifierSanitizer strips characters that are illegal in generated WGSL
// identifiers. Applying it twice is a no-op.
var identifierSanitizer = strings.NewReplacer(
	"(", "", ")", "", ",", "", `"`, "", ".", "", ";", "", ":", "", "'", "", "/", "",
)

// SanitizeName removes characters from a tensor name that cannot appear in
// a generated identifier.
func SanitizeName(name string) string {
	return identifierSanitizer.Replace(name)
}

// ceilDiv returns the number of size-k groups needed to cover n elements.
func ceilDiv(n, k int64) int64 {
	return (n + k - 1) / k
}

// binarySymbols maps binary arithmetic/compare/logic operator types to the
// WGSL operator substituted into the arithmetic template.
var binarySymbols = map[string]string{
	"Add":            "+",
	"And":            "&",
	"Div":            "/",
	"Equal":          "==",
	"Greater":        ">",
	"GreaterOrEqual": ">=",
	"Less":           "<",
	"LessOrEqual":    "<=",
	"Mod":            "%",
	"Mul":            "*",
	"Or":             "|",
	"Sub":            "-",
}

// unaryOps are mapped element-wise through the corresponding WGSL builtin.
var unaryOps = map[string]bool{
	"Abs": true, "Acos": true, "Asin": true, "Atan": true, "Ceil": true,
	"Cos": true, "Cosh": true, "Exp": true, "Floor": true, "Log": true,
	"Round": true, "Sign": true, "Sin": true, "Sinh": true, "Sqrt": true,
	"Tan": true, "Tanh": true,
}

// copyOps only reinterpret their input buffer; the kernel is a plain copy.
var copyOps = map[string]bool{
	"Reshape": true, "Dropout": true, "Flatten": true, "Squeeze": true, "Softmax": true,
}

const maxFloat32 float32 = 3.402823e+38

// Compile selects the template family and dispatch size for one operator
// node, populates the rendering context, and renders the kernel source.
func Compile(node *onnx.NodeProto, shapes *onnx.ShapeTable, set *templates.Set) (*Kernel, error) {
	inputDims := make([]onnx.Shape, len(node.Inputs))
	for i, name := range node.Inputs {
		shape, err := shapes.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: input %d: %w", node.OpType, i, err)
		}
		inputDims[i] = shape
	}
	outputDims := make([]onnx.Shape, len(node.Outputs))
	for i, name := range node.Outputs {
		shape, err := shapes.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: output %d: %w", node.OpType, i, err)
		}
		outputDims[i] = shape
	}

	inputLengths := make([]int64, len(inputDims))
	ctx := templates.Context{}
	for i, dims := range inputDims {
		inputLengths[i] = dims.NumElements()
		ctx[fmt.Sprintf("i_dims_%d", i)] = []int64(dims)
		ctx[fmt.Sprintf("i_len_%d", i)] = inputLengths[i]
	}
	outputLengths := make([]int64, len(outputDims))
	for i, dims := range outputDims {
		outputLengths[i] = dims.NumElements()
		ctx[fmt.Sprintf("o_dims_%d", i)] = []int64(dims)
		ctx[fmt.Sprintf("o_len_%d", i)] = outputLengths[i]
	}

	inputs := make([]string, len(node.Inputs))
	for i, name := range node.Inputs {
		inputs[i] = SanitizeName(name)
	}
	outputs := make([]string, len(node.Outputs))
	for i, name := range node.Outputs {
		outputs[i] = SanitizeName(name)
	}
	ctx["input"] = inputs
	ctx["output"] = outputs
	ctx["op_type"] = strings.ToLower(node.OpType)

	template, x, err := plan(node, inputDims, outputDims, inputLengths, outputLengths, ctx)
	if err != nil {
		return nil, err
	}

	source, err := set.Render(template, ctx)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", node.OpType, err)
	}

	return &Kernel{
		Template: template,
		Source:   source,
		X:        uint32(x), //nolint:gosec // G115: dispatch counts fit in uint32 for supported models
		Y:        1,
		Z:        1,
	}, nil
}

// plan is the operator decision table: it picks the template family and the
// x dispatch size, and finishes populating the rendering context with
// op-specific values.
//
//nolint:gocyclo,cyclop,funlen // the decision table is a single wide dispatch by design
func plan(node *onnx.NodeProto, inputDims, outputDims []onnx.Shape, inputLengths, outputLengths []int64, ctx templates.Context) (string, int64, error) {
	opType := node.OpType

	switch {
	case unaryOps[opType]:
		return "endomorphism/map.wgsl", outputLengths[0] / 4, nil

	case copyOps[opType]:
		return "endomorphism/copy.wgsl", outputLengths[0] / 16, nil

	case binarySymbols[opType] != "":
		ctx["op_type"] = binarySymbols[opType]
		return "endomorphism/arithmetic.wgsl", outputLengths[0] / 4, nil
	}

	switch opType {
	case "Celu", "Elu":
		ctx["alpha"] = node.AttrFloat("alpha", 1.0)
		return "endomorphism/activation.wgsl", outputLengths[0] / 4, nil

	case "Relu", "Sigmoid", "Softsign", "Softplus", "Clip":
		if opType == "Clip" {
			ctx["min_clip"] = node.AttrFloat("min", -maxFloat32)
			ctx["max_clip"] = node.AttrFloat("max", maxFloat32)
		}
		return "endomorphism/activation.wgsl", 1, nil

	case "BatchNormalization":
		return planBatchNormalization(node, inputDims, outputLengths, ctx)

	case "Concat":
		offsets := make([]int64, len(inputLengths))
		var total int64
		for i, length := range inputLengths {
			offsets[i] = total
			total += length
		}
		ctx["offsets"] = offsets
		ctx["lengths"] = inputLengths
		return "matrix/concat.wgsl", ceilDiv(outputLengths[0], 256), nil

	case "MaxPool", "AveragePool":
		attrs, err := resolveSpatialAttrs(node)
		if err != nil {
			return "", 0, err
		}
		if err := populateSpatialContext(node, attrs, inputDims[0], outputDims[0], ctx); err != nil {
			return "", 0, err
		}
		return "pool/aggregate.wgsl", ceilDiv(outputLengths[0], 1024), nil

	case "Conv", "ConvRelu":
		attrs, err := resolveSpatialAttrs(node)
		if err != nil {
			return "", 0, err
		}
		if err := populateSpatialContext(node, attrs, inputDims[0], outputDims[0], ctx); err != nil {
			return "", 0, err
		}
		ctx["conv_relu"] = opType == "ConvRelu"
		return planConv(attrs, inputDims[0], outputDims[0], outputLengths[0])

	case "Gemm", "MatMul":
		return planGemm(node, inputDims, outputDims, ctx)

	case "Transpose":
		if len(inputDims[0]) != 2 {
			return "", 0, &PreconditionError{OpType: opType, Reason: fmt.Sprintf("expected a 2-dimensional input, got %d dimensions", len(inputDims[0]))}
		}
		return "matrix/transpose.wgsl", outputLengths[0] / 4, nil

	case "Sum":
		return "", 0, &UnsupportedOpError{OpType: opType}

	default:
		return "", 0, &UnsupportedOpError{OpType: opType}
	}
}

// populateSpatialContext inserts the derived NxCxHxW quantities shared by
// the pooling and convolution templates.
func populateSpatialContext(node *onnx.NodeProto, attrs *spatialAttrs, inputDims, outputDims onnx.Shape, ctx templates.Context) error {
	if len(inputDims) != 4 {
		return &PreconditionError{OpType: node.OpType, Reason: fmt.Sprintf("expected an NxCxHxW input, got %d dimensions", len(inputDims))}
	}

	ctx["M_x_H_x_W"] = outputDims[1] * outputDims[2] * outputDims[3]
	ctx["H_x_W"] = outputDims[2] * outputDims[3]
	ctx["original_C_x_H_x_W"] = inputDims[1] * inputDims[2] * inputDims[3]
	ctx["original_H_x_W"] = inputDims[2] * inputDims[3]
	ctx["original_width"] = inputDims[3]
	ctx["original_height"] = inputDims[2]
	ctx["width"] = outputDims[3]
	ctx["height"] = outputDims[2]
	ctx["channel"] = inputDims[1]
	ctx["stride"] = attrs.strides
	ctx["kernel_shape"] = attrs.kernelShape
	ctx["kernel_len"] = attrs.kernelShape[0] * attrs.kernelShape[1]
	ctx["kernel_channel_len"] = attrs.kernelShape[0] * attrs.kernelShape[1] * inputDims[1]
	ctx["pad"] = attrs.pads
	ctx["dilation"] = attrs.dilations
	return nil
}

// planConv selects between the specialized 1x1 kernel, the specialized 3x3
// kernel, and the generic convolution, in that priority order.
func planConv(attrs *spatialAttrs, inputDims, outputDims onnx.Shape, outputLength int64) (string, int64, error) {
	unitStride := slices.Equal(attrs.strides, []int64{1, 1})
	unitDilation := slices.Equal(attrs.dilations, []int64{1, 1})
	noPadding := slices.Equal(attrs.pads, []int64{0, 0, 0, 0})

	switch {
	case unitStride && unitDilation && noPadding &&
		slices.Equal(attrs.kernelShape, []int64{1, 1}) &&
		inputDims[1]%16 == 0 && outputDims[1]%4 == 0:
		return "pool/conv_kernel_1.wgsl", ceilDiv(outputLength, 1024), nil

	case unitStride && unitDilation &&
		slices.Equal(attrs.kernelShape, []int64{3, 3}) &&
		outputDims[1]%4 == 0:
		return "pool/conv_kernel_3.wgsl", ceilDiv(outputLength, 1024), nil

	default:
		return "pool/conv.wgsl", ceilDiv(outputLength, 256), nil
	}
}

// planGemm dispatches one thread per output column when the left operand is
// a single row, and a 4x4-tiled kernel otherwise.
func planGemm(node *onnx.NodeProto, inputDims, outputDims []onnx.Shape, ctx templates.Context) (string, int64, error) {
	if len(inputDims) < 2 || len(inputDims[0]) != 2 || len(inputDims[1]) != 2 || len(outputDims[0]) != 2 {
		return "", 0, &PreconditionError{OpType: node.OpType, Reason: "expected 2-dimensional left, right and output matrices"}
	}

	ctx["alpha"] = node.AttrFloat("alpha", 1.0)
	ctx["beta"] = node.AttrFloat("beta", 1.0)

	leftColumns := inputDims[0][1]
	rightColumns := inputDims[1][1]
	ctx["left_columns"] = leftColumns
	ctx["right_columns"] = rightColumns

	if inputDims[0][0] == 1 {
		return "matrix/gemm_1.wgsl", outputDims[0][1], nil
	}
	return "matrix/gemm.wgsl", (inputDims[0][0] / 4) * rightColumns / 4, nil
}

// planBatchNormalization compiles the inference-form affine normalization
// y = scale * (x - mean) / sqrt(var + epsilon) + bias with precomputed
// running statistics.
func planBatchNormalization(node *onnx.NodeProto, inputDims []onnx.Shape, outputLengths []int64, ctx templates.Context) (string, int64, error) {
	if len(node.Inputs) != 5 {
		return "", 0, &UnsupportedOpError{
			OpType: node.OpType,
			Reason: fmt.Sprintf("expected inputs X, scale, B, mean, var; got %d inputs", len(node.Inputs)),
		}
	}
	if len(inputDims[0]) < 2 {
		return "", 0, &PreconditionError{OpType: node.OpType, Reason: "input must have a channel dimension"}
	}

	spatial := int64(1)
	for _, dim := range inputDims[0][2:] {
		spatial *= dim
	}
	ctx["channel"] = inputDims[0][1]
	ctx["spatial"] = spatial
	ctx["epsilon"] = node.AttrFloat("epsilon", 1e-5)
	return "endomorphism/batchnorm.wgsl", ceilDiv(outputLengths[0], 256), nil
}
