package onnx

import "sort"

// ModelInfo is lightweight metadata about a model, extracted without
// building the graph or the shape table.
type ModelInfo struct {
	ProducerName    string
	ProducerVersion string
	OpsetVersion    int64
	InputNames      []string
	OutputNames     []string
	Operators       []string // distinct op types, sorted
}

// OpsetVersion returns the model's default-domain opset version.
func (m *ModelProto) OpsetVersion() int64 {
	for _, opset := range m.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			return opset.Version
		}
	}
	return 0
}

// Info summarizes a parsed model.
func (m *ModelProto) Info() *ModelInfo {
	info := &ModelInfo{
		ProducerName:    m.ProducerName,
		ProducerVersion: m.ProducerVersion,
		OpsetVersion:    m.OpsetVersion(),
	}
	if m.Graph == nil {
		return info
	}

	// Graph inputs that are backed by an initializer are weights, not
	// runtime inputs.
	initializers := make(map[string]bool, len(m.Graph.Initializers))
	for i := range m.Graph.Initializers {
		initializers[m.Graph.Initializers[i].Name] = true
	}
	for i := range m.Graph.Inputs {
		if name := m.Graph.Inputs[i].Name; !initializers[name] {
			info.InputNames = append(info.InputNames, name)
		}
	}
	for i := range m.Graph.Outputs {
		info.OutputNames = append(info.OutputNames, m.Graph.Outputs[i].Name)
	}

	seen := make(map[string]bool)
	for i := range m.Graph.Nodes {
		op := m.Graph.Nodes[i].OpType
		if !seen[op] {
			seen[op] = true
			info.Operators = append(info.Operators, op)
		}
	}
	sort.Strings(info.Operators)
	return info
}
