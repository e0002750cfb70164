package onnx

// Hand-written ONNX protobuf message types. Only the fields the graph
// builder and kernel compiler consume are decoded; unknown fields are
// skipped during decoding.

// ModelProto is the top-level ONNX model message.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

// GraphProto is the computation graph: ordered operator records plus the
// declared inputs, outputs, initializers and intermediate value shapes.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
	ValueInfo    []ValueInfoProto
}

// NodeProto is a single operator record.
type NodeProto struct {
	Name       string
	OpType     string
	Inputs     []string // input tensor names; "" marks an omitted optional input
	Outputs    []string // output tensor names; required and unique
	Attributes []AttributeProto
	Domain     string
}

// UniqueName identifies an operator record by its first output's name.
// Node names are optional in the ONNX IR specification ("only to be used for
// diagnostic purposes") whereas output names are required and unique.
func (n *NodeProto) UniqueName() string {
	return n.Outputs[0]
}

// TensorProto is a constant tensor (initializer/weight).
type TensorProto struct {
	Name      string
	DataType  int32
	Dims      []int64
	RawData   []byte
	FloatData []float32
	Int64Data []int64
}

// ValueInfoProto declares a named value and its type.
type ValueInfoProto struct {
	Name string
	Type *TypeProto
}

// TypeProto describes a value's type. Only tensor types are decoded.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto carries the element type and shape of a tensor value.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto is an ordered list of dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is one dimension: either a static value or a symbolic name.
type DimensionProto struct {
	DimValue int64
	DimParam string
}

// AttributeProto is one named operator attribute.
type AttributeProto struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

// OperatorSetID identifies an opset a model was built against.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// StringStringEntry is a key-value metadata pair.
type StringStringEntry struct {
	Key   string
	Value string
}

// Attribute types (AttributeProto.Type).
const (
	AttributeUndefined = 0
	AttributeFloat     = 1
	AttributeInt       = 2
	AttributeString    = 3
	AttributeTensor    = 4
	AttributeGraph     = 5
	AttributeFloats    = 6
	AttributeInts      = 7
	AttributeStrings   = 8
)
