package compiler

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/onnx"
)

// spatialAttrs are the resolved window attributes shared by pooling and
// convolution operators.
type spatialAttrs struct {
	strides     []int64
	kernelShape []int64
	dilations   []int64
	pads        []int64 // resolved: [top, left, bottom, right]
}

// resolveSpatialAttrs reads the window attributes of a pooling/convolution
// record and resolves the auto_pad policy into explicit pads.
func resolveSpatialAttrs(node *onnx.NodeProto) (*spatialAttrs, error) {
	autoPad := node.AttrString("auto_pad", "NOTSET")
	dilations := node.AttrInts("dilations", []int64{1, 1})
	strides := node.AttrInts("strides", []int64{1, 1})
	pads := node.AttrInts("pads", []int64{0, 0, 0, 0})
	kernelShape, err := node.AttrIntsRequired("kernel_shape")
	if err != nil {
		return nil, err
	}

	switch autoPad {
	case "NOTSET":
		// pads taken verbatim
	case "SAME_UPPER", "SAME_LOWER":
		pads = samePads(autoPad, strides, kernelShape, dilations)
	default:
		return nil, &UnsupportedOpError{OpType: node.OpType, Reason: fmt.Sprintf("auto_pad %q", autoPad)}
	}

	return &spatialAttrs{
		strides:     strides,
		kernelShape: kernelShape,
		dilations:   dilations,
		pads:        pads,
	}, nil
}

// samePads computes the padding that keeps the output spatial size equal to
// ceil(input/stride). The slack per axis is split in half; SAME_UPPER puts
// the odd remainder on the high side, SAME_LOWER on the low side.
func samePads(autoPad string, strides, kernelShape, dilations []int64) []int64 {
	var half, rem [2]int64
	for a := 0; a < 2; a++ {
		slack := -strides[a] + (kernelShape[a]-1)*dilations[a] + 1
		half[a] = slack / 2
		rem[a] = slack % 2
	}
	if autoPad == "SAME_UPPER" {
		return []int64{half[0], half[1], half[0] + rem[0], half[1] + rem[1]}
	}
	return []int64{half[0] + rem[0], half[1] + rem[1], half[0], half[1]}
}
