package onnx

import "fmt"

// Shape is the ordered list of dimension sizes of a tensor.
type Shape []int64

// NumElements returns the flattened element count (product of dimensions).
func (s Shape) NumElements() int64 {
	n := int64(1)
	for _, dim := range s {
		n *= dim
	}
	return n
}

// ShapeError reports a malformed or missing shape annotation.
type ShapeError struct {
	Name   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape for %q: %s", e.Name, e.Reason)
}

// Shape resolves the declared tensor shape of a value. Every dimension must
// be a static size; symbolic dimensions are reported as shape errors since
// the compiler needs concrete dispatch geometry.
func (vi *ValueInfoProto) Shape() (Shape, error) {
	if vi.Type == nil || vi.Type.TensorType == nil || vi.Type.TensorType.Shape == nil {
		return nil, &ShapeError{Name: vi.Name, Reason: "no tensor shape declared"}
	}
	dims := vi.Type.TensorType.Shape.Dims
	shape := make(Shape, len(dims))
	for i, dim := range dims {
		if dim.DimValue <= 0 {
			if dim.DimParam != "" {
				return nil, &ShapeError{Name: vi.Name, Reason: fmt.Sprintf("dimension %d is symbolic (%s)", i, dim.DimParam)}
			}
			return nil, &ShapeError{Name: vi.Name, Reason: fmt.Sprintf("dimension %d has no static size", i)}
		}
		shape[i] = dim.DimValue
	}
	return shape, nil
}

// ShapeTable maps tensor names to their shapes. It is built once per model
// and read-only afterwards.
type ShapeTable struct {
	shapes map[string]Shape
}

// NewShapeTable builds the shape table for a graph from its value-info and
// output annotations, its declared inputs, and initializer dims. Producing
// annotations win on name collision; the shapes are identical in valid
// models anyway.
func NewShapeTable(g *GraphProto) (*ShapeTable, error) {
	t := &ShapeTable{shapes: make(map[string]Shape)}

	for i := range g.Inputs {
		if err := t.addValueInfo(&g.Inputs[i]); err != nil {
			return nil, err
		}
	}
	for i := range g.Initializers {
		init := &g.Initializers[i]
		t.shapes[init.Name] = Shape(init.Dims)
	}
	for i := range g.ValueInfo {
		if err := t.addValueInfo(&g.ValueInfo[i]); err != nil {
			return nil, err
		}
	}
	for i := range g.Outputs {
		if g.Outputs[i].Name == "" {
			continue
		}
		if err := t.addValueInfo(&g.Outputs[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *ShapeTable) addValueInfo(vi *ValueInfoProto) error {
	shape, err := vi.Shape()
	if err != nil {
		return err
	}
	t.shapes[vi.Name] = shape
	return nil
}

// Lookup returns the shape declared for a tensor name. Absence is a hard
// failure: the compiler cannot size a dispatch grid without it.
func (t *ShapeTable) Lookup(name string) (Shape, error) {
	shape, ok := t.shapes[name]
	if !ok {
		return nil, &ShapeError{Name: name, Reason: "not found"}
	}
	return shape, nil
}

// Set records a shape under a name. Exercised by tests and by callers that
// know shapes from a source other than the model annotations.
func (t *ShapeTable) Set(name string, shape Shape) {
	t.shapes[name] = shape
}
