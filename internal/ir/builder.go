package ir

import (
	"fmt"
	"slices"

	"github.com/kiln-ml/kiln/internal/onnx"
)

// builder carries the per-build state of one graph construction: the
// producer definition for every known tensor name, and the memoization map
// guaranteeing each unique name is translated into a Node exactly once.
type builder struct {
	defs  map[string]NodeDefinition
	nodes map[string]*Node
}

// FromModel builds the DAG rooted at a synthetic Outputs node for the
// requested output names, defaulting to the model's declared outputs.
// Construction is demand-driven: no node unreachable from the requested
// outputs is built.
func FromModel(model *onnx.ModelProto, shapes *onnx.ShapeTable, outputs []string) (*Node, error) {
	graph := model.Graph
	if graph == nil {
		return nil, fmt.Errorf("ir: model has no graph")
	}

	b := &builder{
		defs:  make(map[string]NodeDefinition),
		nodes: make(map[string]*Node),
	}

	// Map every produced tensor name to its defining record: operator
	// outputs first, then initializers, then declared inputs. Producers
	// take precedence over a graph input of the same name.
	for i := range graph.Nodes {
		def, err := NewOperatorDefinition(&graph.Nodes[i], shapes)
		if err != nil {
			return nil, err
		}
		for _, output := range def.Proto.Outputs {
			if output != "" {
				b.defs[output] = def
			}
		}
	}
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		b.defs[init.Name] = &TensorDefinition{Proto: init}
	}
	for i := range graph.Inputs {
		input := &graph.Inputs[i]
		if _, defined := b.defs[input.Name]; !defined {
			b.defs[input.Name] = &InputDefinition{Proto: input}
		}
	}

	if outputs == nil {
		outputs = make([]string, 0, len(graph.Outputs))
		for i := range graph.Outputs {
			outputs = append(outputs, graph.Outputs[i].Name)
		}
	}

	edges := make([]Input, 0, len(outputs))
	for _, name := range outputs {
		def, ok := b.defs[name].(*OperatorDefinition)
		if !ok {
			return nil, &OutputNotFoundError{Name: name}
		}
		source, err := b.resolve(def)
		if err != nil {
			return nil, err
		}
		index := slices.Index(def.Proto.Outputs, name)
		if index < 0 {
			return nil, &OutputNotFoundError{Name: name}
		}
		edges = append(edges, Input{Source: source, OutputIndex: index})
	}

	return &Node{
		Definition: &OutputsDefinition{Names: outputs},
		Inputs:     edges,
	}, nil
}

// resolve translates an operator definition into a Node, building its
// producers first. Already-translated names return the shared instance.
func (b *builder) resolve(def *OperatorDefinition) (*Node, error) {
	name := def.UniqueName()
	if node, ok := b.nodes[name]; ok {
		return node, nil
	}

	inputs := make([]Input, 0, len(def.Proto.Inputs))
	for _, inputName := range def.Proto.Inputs {
		sourceDef, ok := b.defs[inputName]
		if !ok {
			sourceDef = MissingDefinition{}
		}

		if opDef, isOp := sourceDef.(*OperatorDefinition); isOp {
			// The producer is itself an operator: continue translating.
			source, err := b.resolve(opDef)
			if err != nil {
				return nil, err
			}
			index := slices.Index(opDef.Proto.Outputs, inputName)
			if index < 0 {
				return nil, &InputNotFoundError{Node: def.UniqueName(), Input: inputName}
			}
			inputs = append(inputs, Input{Source: source, OutputIndex: index})
			continue
		}

		inputs = append(inputs, Input{Source: b.leaf(sourceDef), OutputIndex: 0})
	}

	node := &Node{Definition: def, Inputs: inputs}
	b.nodes[name] = node
	return node, nil
}

// leaf fetches or creates the input-less node for a tensor, input or
// missing definition. The missing sentinel carries no state, so it is
// constructed fresh rather than memoized.
func (b *builder) leaf(def NodeDefinition) *Node {
	if _, missing := def.(MissingDefinition); missing {
		return &Node{Definition: def}
	}
	name := def.UniqueName()
	if node, ok := b.nodes[name]; ok {
		return node
	}
	node := &Node{Definition: def}
	b.nodes[name] = node
	return node
}
