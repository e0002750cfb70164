package onnx

import "fmt"

// AttributeError reports a required attribute that is absent from a node.
type AttributeError struct {
	Node string
	Name string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("node %q: required attribute %q not found", e.Node, e.Name)
}

func (n *NodeProto) attribute(name string) *AttributeProto {
	for i := range n.Attributes {
		if n.Attributes[i].Name == name {
			return &n.Attributes[i]
		}
	}
	return nil
}

// AttrFloat returns a float attribute, or defaultVal when absent.
func (n *NodeProto) AttrFloat(name string, defaultVal float32) float32 {
	if a := n.attribute(name); a != nil {
		return a.F
	}
	return defaultVal
}

// AttrInts returns an integer-list attribute, or defaultVal when absent.
// The returned slice aliases the node's attribute storage and must not be
// mutated.
func (n *NodeProto) AttrInts(name string, defaultVal []int64) []int64 {
	if a := n.attribute(name); a != nil {
		return a.Ints
	}
	return defaultVal
}

// AttrIntsRequired returns an integer-list attribute, failing when absent.
func (n *NodeProto) AttrIntsRequired(name string) ([]int64, error) {
	if a := n.attribute(name); a != nil {
		return a.Ints, nil
	}
	return nil, &AttributeError{Node: n.Name, Name: name}
}

// AttrString returns a string attribute, or defaultVal when absent.
func (n *NodeProto) AttrString(name, defaultVal string) string {
	if a := n.attribute(name); a != nil {
		return string(a.S)
	}
	return defaultVal
}
