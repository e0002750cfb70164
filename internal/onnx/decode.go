package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile decodes an ONNX model from a file on disk.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path) //nolint:gosec // model path is caller-supplied by design
	if err != nil {
		return nil, fmt.Errorf("onnx: read model: %w", err)
	}
	return Parse(data)
}

// Parse decodes an ONNX model from raw protobuf bytes.
func Parse(data []byte) (*ModelProto, error) {
	m := &ModelProto{}
	if err := decodeModel(&decoder{data: data}, m); err != nil {
		return nil, fmt.Errorf("onnx: decode model: %w", err)
	}
	return m, nil
}

// Protobuf wire types.
const (
	wireVarint = 0
	wire64Bit  = 1
	wireBytes  = 2
	wire32Bit  = 5
)

// decoder reads protobuf wire-format primitives from a byte slice.
type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) done() bool { return d.pos >= len(d.data) }

func (d *decoder) readTag() (fieldNum, wireType int, err error) {
	tag, err := d.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(tag >> 3), int(tag & 0x7), nil
}

func (d *decoder) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if d.done() {
			return 0, io.ErrUnexpectedEOF
		}
		b := d.data[d.pos]
		d.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return int64(result), nil //nolint:gosec // G115: varints in valid models fit in int64
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
}

func (d *decoder) readBytes() ([]byte, error) {
	length, err := d.readVarint()
	if err != nil {
		return nil, err
	}
	// Compare in int64 so a crafted huge length cannot wrap the bound.
	if length < 0 || length > int64(len(d.data)-d.pos) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.data[d.pos : d.pos+int(length)]
	d.pos += int(length)
	return b, nil
}

func (d *decoder) readString() (string, error) {
	b, err := d.readBytes()
	return string(b), err
}

func (d *decoder) readFloat32() (float32, error) {
	if d.pos+4 > len(d.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return math.Float32frombits(bits), nil
}

// readPackedInt64 decodes a packed repeated varint field. Pre-packing
// encoders emit single varints instead, so both wire shapes are accepted.
func (d *decoder) readPackedInt64(wireType int, dst []int64) ([]int64, error) {
	if wireType != wireBytes {
		v, err := d.readVarint()
		if err != nil {
			return dst, err
		}
		return append(dst, v), nil
	}
	data, err := d.readBytes()
	if err != nil {
		return dst, err
	}
	sub := &decoder{data: data}
	for !sub.done() {
		v, err := sub.readVarint()
		if err != nil {
			return dst, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

// readPackedFloat32 decodes a packed repeated float field.
func (d *decoder) readPackedFloat32(dst []float32) ([]float32, error) {
	data, err := d.readBytes()
	if err != nil {
		return dst, err
	}
	for i := 0; i+4 <= len(data); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(data[i:])))
	}
	return dst, nil
}

func (d *decoder) skip(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := d.readVarint()
		return err
	case wire64Bit:
		if d.pos+8 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 8
		return nil
	case wireBytes:
		_, err := d.readBytes()
		return err
	case wire32Bit:
		if d.pos+4 > len(d.data) {
			return io.ErrUnexpectedEOF
		}
		d.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type %d", wireType)
	}
}

// sub returns a decoder over an embedded message field.
func (d *decoder) sub() (*decoder, error) {
	data, err := d.readBytes()
	if err != nil {
		return nil, err
	}
	return &decoder{data: data}, nil
}

func decodeModel(d *decoder, m *ModelProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // ir_version
			m.IRVersion, err = d.readVarint()
		case 2: // producer_name
			m.ProducerName, err = d.readString()
		case 3: // producer_version
			m.ProducerVersion, err = d.readString()
		case 4: // domain
			m.Domain, err = d.readString()
		case 5: // model_version
			m.ModelVersion, err = d.readVarint()
		case 7: // graph
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				m.Graph = &GraphProto{}
				err = decodeGraph(sub, m.Graph)
			}
		case 8: // opset_import
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				var opset OperatorSetID
				if err = decodeOperatorSetID(sub, &opset); err == nil {
					m.OpsetImport = append(m.OpsetImport, opset)
				}
			}
		case 14: // metadata_props
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				var entry StringStringEntry
				if err = decodeStringStringEntry(sub, &entry); err == nil {
					m.MetadataProps = append(m.MetadataProps, entry)
				}
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeGraph(d *decoder, g *GraphProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // node
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				var node NodeProto
				if err = decodeNode(sub, &node); err == nil {
					g.Nodes = append(g.Nodes, node)
				}
			}
		case 2: // name
			g.Name, err = d.readString()
		case 5: // initializer
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				var t TensorProto
				if err = decodeTensor(sub, &t); err == nil {
					g.Initializers = append(g.Initializers, t)
				}
			}
		case 11: // input
			g.Inputs, err = appendValueInfo(d, g.Inputs)
		case 12: // output
			g.Outputs, err = appendValueInfo(d, g.Outputs)
		case 13: // value_info
			g.ValueInfo, err = appendValueInfo(d, g.ValueInfo)
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func appendValueInfo(d *decoder, dst []ValueInfoProto) ([]ValueInfoProto, error) {
	sub, err := d.sub()
	if err != nil {
		return dst, err
	}
	var vi ValueInfoProto
	if err := decodeValueInfo(sub, &vi); err != nil {
		return dst, err
	}
	return append(dst, vi), nil
}

func decodeNode(d *decoder, n *NodeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // input
			var s string
			if s, err = d.readString(); err == nil {
				n.Inputs = append(n.Inputs, s)
			}
		case 2: // output
			var s string
			if s, err = d.readString(); err == nil {
				n.Outputs = append(n.Outputs, s)
			}
		case 3: // name
			n.Name, err = d.readString()
		case 4: // op_type
			n.OpType, err = d.readString()
		case 5: // attribute
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				var attr AttributeProto
				if err = decodeAttribute(sub, &attr); err == nil {
					n.Attributes = append(n.Attributes, attr)
				}
			}
		case 7: // domain
			n.Domain, err = d.readString()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensor(d *decoder, t *TensorProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // dims
			t.Dims, err = d.readPackedInt64(wireType, t.Dims)
		case 2: // data_type
			var v int64
			if v, err = d.readVarint(); err == nil {
				t.DataType = int32(v) //nolint:gosec // G115: data_type enum fits in int32
			}
		case 4: // float_data
			t.FloatData, err = d.readPackedFloat32(t.FloatData)
		case 7: // int64_data
			t.Int64Data, err = d.readPackedInt64(wireType, t.Int64Data)
		case 8: // name
			t.Name, err = d.readString()
		case 9: // raw_data
			t.RawData, err = d.readBytes()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeValueInfo(d *decoder, vi *ValueInfoProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // name
			vi.Name, err = d.readString()
		case 2: // type
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				vi.Type = &TypeProto{}
				err = decodeType(sub, vi.Type)
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeType(d *decoder, t *TypeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		if fieldNum == 1 { // tensor_type
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				t.TensorType = &TensorTypeProto{}
				err = decodeTensorType(sub, t.TensorType)
			}
		} else {
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensorType(d *decoder, t *TensorTypeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // elem_type
			var v int64
			if v, err = d.readVarint(); err == nil {
				t.ElemType = int32(v) //nolint:gosec // G115: elem_type enum fits in int32
			}
		case 2: // shape
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				t.Shape = &TensorShapeProto{}
				err = decodeTensorShape(sub, t.Shape)
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTensorShape(d *decoder, t *TensorShapeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		if fieldNum == 1 { // dim
			var sub *decoder
			if sub, err = d.sub(); err == nil {
				var dim DimensionProto
				if err = decodeDimension(sub, &dim); err == nil {
					t.Dims = append(t.Dims, dim)
				}
			}
		} else {
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeDimension(d *decoder, dim *DimensionProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // dim_value
			dim.DimValue, err = d.readVarint()
		case 2: // dim_param
			dim.DimParam, err = d.readString()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeAttribute(d *decoder, a *AttributeProto) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // name
			a.Name, err = d.readString()
		case 2: // f
			a.F, err = d.readFloat32()
		case 3: // i
			a.I, err = d.readVarint()
		case 4: // s
			a.S, err = d.readBytes()
		case 6: // floats
			a.Floats, err = d.readPackedFloat32(a.Floats)
		case 7: // ints
			a.Ints, err = d.readPackedInt64(wireType, a.Ints)
		case 8: // strings
			var b []byte
			if b, err = d.readBytes(); err == nil {
				a.Strings = append(a.Strings, b)
			}
		case 20: // type
			var v int64
			if v, err = d.readVarint(); err == nil {
				a.Type = int32(v) //nolint:gosec // G115: attribute type enum fits in int32
			}
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeOperatorSetID(d *decoder, o *OperatorSetID) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // domain
			o.Domain, err = d.readString()
		case 2: // version
			o.Version, err = d.readVarint()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeStringStringEntry(d *decoder, e *StringStringEntry) error {
	for !d.done() {
		fieldNum, wireType, err := d.readTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1: // key
			e.Key, err = d.readString()
		case 2: // value
			e.Value, err = d.readString()
		default:
			err = d.skip(wireType)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
