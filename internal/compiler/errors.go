package compiler

import "fmt"

// UnsupportedOpError reports an operator type, or an attribute combination
// of a covered type, that the decision table does not implement. Compilation
// of that node fails explicitly; there is no fallback kernel.
type UnsupportedOpError struct {
	OpType string
	Reason string
}

func (e *UnsupportedOpError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operator %s is not implemented (%s)", e.OpType, e.Reason)
	}
	return fmt.Sprintf("operator %s is not implemented", e.OpType)
}

// PreconditionError reports a shape that violates a structural requirement
// of an operator's kernels, e.g. a non-4-dimensional tensor fed to a
// convolution. This is a programmer-error class distinct from an
// unsupported operator.
type PreconditionError struct {
	OpType string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("operator %s: precondition violated: %s", e.OpType, e.Reason)
}
