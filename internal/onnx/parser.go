package onnx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: Path is provided by the caller, file inclusion is intentional.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	p := &parser{data: data}
	model := &ModelProto{}
	if err := p.readModelProto(model); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// parser implements a minimal protobuf wire format decoder.
type parser struct {
	data []byte
	pos  int
}

// readFields drives the per-message decode loop. fn reports whether it
// consumed the field; unclaimed fields are skipped by wire type.
func (p *parser) readFields(fn func(fieldNum, wireType int) (bool, error)) error {
	for p.pos < len(p.data) {
		fieldNum, wireType, err := p.readTag()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		handled, err := fn(fieldNum, wireType)
		if err != nil {
			return err
		}
		if !handled {
			if err := p.skipField(wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

// readModelProto reads a ModelProto message.
func (p *parser) readModelProto(m *ModelProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // ir_version
			m.IRVersion, err = p.readVarint()
		case 2: // producer_name
			m.ProducerName, err = p.readString()
		case 3: // producer_version
			m.ProducerVersion, err = p.readString()
		case 4: // domain
			m.Domain, err = p.readString()
		case 5: // model_version
			m.ModelVersion, err = p.readVarint()
		case 6: // doc_string
			m.DocString, err = p.readString()
		case 7: // graph
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			m.Graph = &GraphProto{}
			err = sub.readGraphProto(m.Graph)
		case 8: // opset_import
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			var opset OperatorSetID
			if err = sub.readOperatorSetID(&opset); err == nil {
				m.OpsetImport = append(m.OpsetImport, opset)
			}
		case 14: // metadata_props
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			var entry StringStringEntry
			if err = sub.readStringStringEntry(&entry); err == nil {
				m.MetadataProps = append(m.MetadataProps, entry)
			}
		default:
			return false, nil
		}
		return true, err
	})
}

// readGraphProto reads a GraphProto message.
func (p *parser) readGraphProto(g *GraphProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // node
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			var node NodeProto
			if err = sub.readNodeProto(&node); err == nil {
				g.Nodes = append(g.Nodes, node)
			}
		case 2: // name
			g.Name, err = p.readString()
		case 5: // initializer
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			var tensor TensorProto
			if err = sub.readTensorProto(&tensor); err == nil {
				g.Initializers = append(g.Initializers, tensor)
			}
		case 10: // doc_string
			g.DocString, err = p.readString()
		case 11: // input
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			var vi ValueInfoProto
			if err = sub.readValueInfoProto(&vi); err == nil {
				g.Inputs = append(g.Inputs, vi)
			}
		case 12: // output
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			var vi ValueInfoProto
			if err = sub.readValueInfoProto(&vi); err == nil {
				g.Outputs = append(g.Outputs, vi)
			}
		default:
			return false, nil
		}
		return true, err
	})
}

// readNodeProto reads a NodeProto message.
func (p *parser) readNodeProto(n *NodeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // input
			var s string
			if s, err = p.readString(); err == nil {
				n.Inputs = append(n.Inputs, s)
			}
		case 2: // output
			var s string
			if s, err = p.readString(); err == nil {
				n.Outputs = append(n.Outputs, s)
			}
		case 3: // name
			n.Name, err = p.readString()
		case 4: // op_type
			n.OpType, err = p.readString()
		case 5: // attribute
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			var attr AttributeProto
			if err = sub.readAttributeProto(&attr); err == nil {
				n.Attributes = append(n.Attributes, attr)
			}
		case 7: // domain
			n.Domain, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readTensorProto reads a TensorProto message.
func (p *parser) readTensorProto(t *TensorProto) error {
	return p.readFields(func(fieldNum, wireType int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // dims (packed or repeated varint)
			if wireType == wireBytes {
				err = p.readPackedVarints(&t.Dims)
				break
			}
			var v int64
			if v, err = p.readVarint(); err == nil {
				t.Dims = append(t.Dims, v)
			}
		case 2: // data_type
			t.DataType, err = p.readInt32()
		case 4: // float_data (packed)
			err = p.readPackedFloats(&t.FloatData)
		case 5: // int32_data (packed)
			var ints []int64
			if err = p.readPackedVarints(&ints); err == nil {
				for _, v := range ints {
					t.Int32Data = append(t.Int32Data, int32(v)) //nolint:gosec // G115: ONNX int32_data varints fit in int32.
				}
			}
		case 7: // int64_data (packed)
			err = p.readPackedVarints(&t.Int64Data)
		case 8: // name
			t.Name, err = p.readString()
		case 9: // raw_data
			t.RawData, err = p.readBytes()
		default:
			return false, nil
		}
		return true, err
	})
}

// readValueInfoProto reads a ValueInfoProto message.
func (p *parser) readValueInfoProto(vi *ValueInfoProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // name
			vi.Name, err = p.readString()
		case 2: // type
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			vi.Type = &TypeProto{}
			err = sub.readTypeProto(vi.Type)
		default:
			return false, nil
		}
		return true, err
	})
}

// readTypeProto reads a TypeProto message.
func (p *parser) readTypeProto(t *TypeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		if fieldNum != 1 { // tensor_type
			return false, nil
		}
		sub, err := p.embedded()
		if err != nil {
			return true, err
		}
		t.TensorType = &TensorTypeProto{}
		return true, sub.readTensorTypeProto(t.TensorType)
	})
}

// readTensorTypeProto reads a TensorTypeProto message.
func (p *parser) readTensorTypeProto(t *TensorTypeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // elem_type
			t.ElemType, err = p.readInt32()
		case 2: // shape
			sub, subErr := p.embedded()
			if subErr != nil {
				return true, subErr
			}
			t.Shape = &TensorShapeProto{}
			err = sub.readTensorShapeProto(t.Shape)
		default:
			return false, nil
		}
		return true, err
	})
}

// readTensorShapeProto reads a TensorShapeProto message.
func (p *parser) readTensorShapeProto(s *TensorShapeProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		if fieldNum != 1 { // dim
			return false, nil
		}
		sub, err := p.embedded()
		if err != nil {
			return true, err
		}
		var dim DimensionProto
		if err := sub.readDimensionProto(&dim); err != nil {
			return true, err
		}
		s.Dims = append(s.Dims, dim)
		return true, nil
	})
}

// readDimensionProto reads a DimensionProto message.
func (p *parser) readDimensionProto(d *DimensionProto) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // dim_value
			d.DimValue, err = p.readVarint()
		case 2: // dim_param
			d.DimParam, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// readAttributeProto reads an AttributeProto message.
func (p *parser) readAttributeProto(a *AttributeProto) error {
	return p.readFields(func(fieldNum, wireType int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // name
			a.Name, err = p.readString()
		case 2: // f
			a.F, err = p.readFloat32()
		case 3: // i
			a.I, err = p.readVarint()
		case 4: // s
			a.S, err = p.readBytes()
		case 7: // floats (packed)
			err = p.readPackedFloats(&a.Floats)
		case 8: // ints (packed or repeated varint)
			if wireType == wireBytes {
				err = p.readPackedVarints(&a.Ints)
				break
			}
			var v int64
			if v, err = p.readVarint(); err == nil {
				a.Ints = append(a.Ints, v)
			}
		case 9: // strings
			var s []byte
			if s, err = p.readBytes(); err == nil {
				a.Strings = append(a.Strings, s)
			}
		case 20: // type
			a.Type, err = p.readInt32()
		default:
			return false, nil
		}
		return true, err
	})
}

// readOperatorSetID reads an OperatorSetID message.
func (p *parser) readOperatorSetID(o *OperatorSetID) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // domain
			o.Domain, err = p.readString()
		case 2: // version
			o.Version, err = p.readVarint()
		default:
			return false, nil
		}
		return true, err
	})
}

// readStringStringEntry reads a StringStringEntry message.
func (p *parser) readStringStringEntry(e *StringStringEntry) error {
	return p.readFields(func(fieldNum, _ int) (bool, error) {
		var err error
		switch fieldNum {
		case 1: // key
			e.Key, err = p.readString()
		case 2: // value
			e.Value, err = p.readString()
		default:
			return false, nil
		}
		return true, err
	})
}

// embedded returns a sub-parser over a length-delimited field payload.
func (p *parser) embedded() (*parser, error) {
	data, err := p.readBytes()
	if err != nil {
		return nil, err
	}
	return &parser{data: data}, nil
}

// readPackedVarints reads a packed repeated varint field.
func (p *parser) readPackedVarints(dst *[]int64) error {
	sub, err := p.embedded()
	if err != nil {
		return err
	}
	for sub.pos < len(sub.data) {
		v, err := sub.readVarint()
		if err != nil {
			return err
		}
		*dst = append(*dst, v)
	}
	return nil
}

// readPackedFloats reads a packed repeated float field.
func (p *parser) readPackedFloats(dst *[]float32) error {
	data, err := p.readBytes()
	if err != nil {
		return err
	}
	for i := 0; i+4 <= len(data); i += 4 {
		bits := binary.LittleEndian.Uint32(data[i:])
		*dst = append(*dst, math.Float32frombits(bits))
	}
	return nil
}

// readTag reads a protobuf field tag.
func (p *parser) readTag() (fieldNum, wireType int, err error) {
	if p.pos >= len(p.data) {
		return 0, 0, io.EOF
	}
	tag, err := p.readVarint()
	if err != nil {
		return 0, 0, err
	}
	fieldNum = int(tag >> 3)
	wireType = int(tag & 0x7)
	return fieldNum, wireType, nil
}

// readVarint reads a varint-encoded int64.
func (p *parser) readVarint() (int64, error) {
	var result uint64
	var shift uint
	for {
		if p.pos >= len(p.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b := p.data[p.pos]
		p.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.New("varint overflow")
		}
	}
	return int64(result), nil //nolint:gosec // G115: two's complement reinterpretation is the protobuf int64 encoding.
}

// readInt32 reads a varint-encoded int32.
func (p *parser) readInt32() (int32, error) {
	v, err := p.readVarint()
	if err != nil {
		return 0, err
	}
	return int32(v), nil //nolint:gosec // G115: ONNX enum varints fit in int32.
}

// readString reads a length-delimited string.
func (p *parser) readString() (string, error) {
	data, err := p.readBytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readBytes reads a length-delimited byte slice.
func (p *parser) readBytes() ([]byte, error) {
	length, err := p.readVarint()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("negative length")
	}
	end := p.pos + int(length)
	if end > len(p.data) || end < p.pos {
		return nil, io.ErrUnexpectedEOF
	}
	result := p.data[p.pos:end]
	p.pos = end
	return result, nil
}

// readFloat32 reads a 32-bit float.
func (p *parser) readFloat32() (float32, error) {
	if p.pos+4 > len(p.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint32(p.data[p.pos:])
	p.pos += 4
	return math.Float32frombits(bits), nil
}

// skipField skips a field based on wire type.
func (p *parser) skipField(wireType int) error {
	switch wireType {
	case wireVarint:
		_, err := p.readVarint()
		return err
	case wire64Bit:
		if p.pos+8 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 8
		return nil
	case wireBytes:
		_, err := p.readBytes()
		return err
	case wire32Bit:
		if p.pos+4 > len(p.data) {
			return io.ErrUnexpectedEOF
		}
		p.pos += 4
		return nil
	default:
		return fmt.Errorf("unknown wire type: %d", wireType)
	}
}
