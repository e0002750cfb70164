package ir

import "fmt"

// OutputNotFoundError reports a requested output that no operator declares,
// or an operator output whose shape could not be resolved.
type OutputNotFoundError struct {
	Name string
}

func (e *OutputNotFoundError) Error() string {
	return fmt.Sprintf("output node for output %q not found", e.Name)
}

// InputNotFoundError reports an operator input reference that cannot be
// resolved to an output index of its declared producer.
type InputNotFoundError struct {
	Node  string
	Input string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("could not find node corresponding to input %q of node %q", e.Input, e.Node)
}
