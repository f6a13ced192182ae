package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Protobuf wire types.
const (
	wireVarint = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	wire64Bit  = 1 // fixed64, sfixed64, double
	wireBytes  = 2 // string, bytes, embedded messages, packed repeated fields
	wire32Bit  = 5 // fixed32, sfixed32, float
)

// Marshal serializes a model to the ONNX protobuf wire format.
func Marshal(m *ModelProto) []byte {
	e := &encoder{}
	e.putModelProto(m)
	return e.buf
}

// Save serializes the model and writes it to path, overwriting any existing
// file of the same name. The write is not atomic.
func Save(m *ModelProto, path string) error {
	if err := os.WriteFile(path, Marshal(m), 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// encoder implements a minimal protobuf wire format encoder.
// Scalar fields with zero values are omitted, matching proto3 rules.
type encoder struct {
	buf []byte
}

// putModelProto encodes ModelProto.
func (e *encoder) putModelProto(m *ModelProto) {
	e.putVarintField(1, m.IRVersion)
	e.putStringField(2, m.ProducerName)
	e.putStringField(3, m.ProducerVersion)
	e.putStringField(4, m.Domain)
	e.putVarintField(5, m.ModelVersion)
	e.putStringField(6, m.DocString)
	if m.Graph != nil {
		e.putMessage(7, func(sub *encoder) { sub.putGraphProto(m.Graph) })
	}
	for i := range m.OpsetImport {
		opset := &m.OpsetImport[i]
		e.putMessage(8, func(sub *encoder) {
			sub.putStringField(1, opset.Domain)
			sub.putVarintField(2, opset.Version)
		})
	}
	for i := range m.MetadataProps {
		entry := &m.MetadataProps[i]
		e.putMessage(14, func(sub *encoder) {
			sub.putStringField(1, entry.Key)
			sub.putStringField(2, entry.Value)
		})
	}
}

// putGraphProto encodes GraphProto.
func (e *encoder) putGraphProto(g *GraphProto) {
	for i := range g.Nodes {
		node := &g.Nodes[i]
		e.putMessage(1, func(sub *encoder) { sub.putNodeProto(node) })
	}
	e.putStringField(2, g.Name)
	for i := range g.Initializers {
		init := &g.Initializers[i]
		e.putMessage(5, func(sub *encoder) { sub.putTensorProto(init) })
	}
	e.putStringField(10, g.DocString)
	for i := range g.Inputs {
		vi := &g.Inputs[i]
		e.putMessage(11, func(sub *encoder) { sub.putValueInfoProto(vi) })
	}
	for i := range g.Outputs {
		vi := &g.Outputs[i]
		e.putMessage(12, func(sub *encoder) { sub.putValueInfoProto(vi) })
	}
}

// putNodeProto encodes NodeProto.
func (e *encoder) putNodeProto(n *NodeProto) {
	for _, input := range n.Inputs {
		e.putStringField(1, input)
	}
	for _, output := range n.Outputs {
		e.putStringField(2, output)
	}
	e.putStringField(3, n.Name)
	e.putStringField(4, n.OpType)
	for i := range n.Attributes {
		attr := &n.Attributes[i]
		e.putMessage(5, func(sub *encoder) { sub.putAttributeProto(attr) })
	}
	e.putStringField(7, n.Domain)
}

// putTensorProto encodes TensorProto.
func (e *encoder) putTensorProto(t *TensorProto) {
	e.putPackedVarints(1, t.Dims)
	e.putVarintField(2, int64(t.DataType))
	e.putPackedFloats(4, t.FloatData)
	if len(t.Int32Data) > 0 {
		ints := make([]int64, len(t.Int32Data))
		for i, v := range t.Int32Data {
			ints[i] = int64(v)
		}
		e.putPackedVarints(5, ints)
	}
	e.putPackedVarints(7, t.Int64Data)
	e.putStringField(8, t.Name)
	if len(t.RawData) > 0 {
		e.putTag(9, wireBytes)
		e.putBytes(t.RawData)
	}
}

// putValueInfoProto encodes ValueInfoProto.
func (e *encoder) putValueInfoProto(vi *ValueInfoProto) {
	e.putStringField(1, vi.Name)
	if vi.Type == nil || vi.Type.TensorType == nil {
		return
	}
	tt := vi.Type.TensorType
	e.putMessage(2, func(typeEnc *encoder) {
		typeEnc.putMessage(1, func(ttEnc *encoder) {
			ttEnc.putVarintField(1, int64(tt.ElemType))
			if tt.Shape != nil {
				ttEnc.putMessage(2, func(shapeEnc *encoder) { shapeEnc.putTensorShapeProto(tt.Shape) })
			}
		})
	})
}

// putTensorShapeProto encodes TensorShapeProto. A dimension with neither a
// value nor a symbolic name is emitted as an empty message, which ONNX reads
// as a dynamic dimension.
func (e *encoder) putTensorShapeProto(s *TensorShapeProto) {
	for i := range s.Dims {
		dim := &s.Dims[i]
		e.putMessage(1, func(sub *encoder) {
			if dim.DimValue > 0 {
				sub.putVarintField(1, dim.DimValue)
			} else {
				sub.putStringField(2, dim.DimParam)
			}
		})
	}
}

// putAttributeProto encodes AttributeProto.
func (e *encoder) putAttributeProto(a *AttributeProto) {
	e.putStringField(1, a.Name)
	if a.F != 0 {
		e.putTag(2, wire32Bit)
		e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(a.F))
	}
	e.putVarintField(3, a.I)
	if len(a.S) > 0 {
		e.putTag(4, wireBytes)
		e.putBytes(a.S)
	}
	e.putPackedFloats(7, a.Floats)
	e.putPackedVarints(8, a.Ints)
	for _, s := range a.Strings {
		e.putTag(9, wireBytes)
		e.putBytes(s)
	}
	e.putVarintField(20, int64(a.Type))
}

// putMessage encodes an embedded message field via a sub-encoder.
func (e *encoder) putMessage(fieldNum int, encode func(*encoder)) {
	sub := &encoder{}
	encode(sub)
	e.putTag(fieldNum, wireBytes)
	e.putBytes(sub.buf)
}

// putStringField encodes a string field, omitting empty strings.
func (e *encoder) putStringField(fieldNum int, s string) {
	if s == "" {
		return
	}
	e.putTag(fieldNum, wireBytes)
	e.putBytes([]byte(s))
}

// putVarintField encodes a varint field, omitting zero values.
func (e *encoder) putVarintField(fieldNum int, v int64) {
	if v == 0 {
		return
	}
	e.putTag(fieldNum, wireVarint)
	e.putVarint(v)
}

// putPackedVarints encodes a packed repeated varint field.
func (e *encoder) putPackedVarints(fieldNum int, values []int64) {
	if len(values) == 0 {
		return
	}
	sub := &encoder{}
	for _, v := range values {
		sub.putVarint(v)
	}
	e.putTag(fieldNum, wireBytes)
	e.putBytes(sub.buf)
}

// putPackedFloats encodes a packed repeated float field.
func (e *encoder) putPackedFloats(fieldNum int, values []float32) {
	if len(values) == 0 {
		return
	}
	e.putTag(fieldNum, wireBytes)
	e.putVarint(int64(len(values) * 4))
	for _, v := range values {
		e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
	}
}

// putTag encodes a field tag.
func (e *encoder) putTag(fieldNum, wireType int) {
	e.putVarint(int64(fieldNum)<<3 | int64(wireType))
}

// putVarint encodes a varint. Negative values take ten bytes, per the
// protobuf int64 encoding.
func (e *encoder) putVarint(v int64) {
	u := uint64(v) //nolint:gosec // G115: two's complement reinterpretation is the protobuf int64 encoding.
	for u >= 0x80 {
		e.buf = append(e.buf, byte(u)|0x80)
		u >>= 7
	}
	e.buf = append(e.buf, byte(u))
}

// putBytes encodes a length-delimited byte slice.
func (e *encoder) putBytes(data []byte) {
	e.putVarint(int64(len(data)))
	e.buf = append(e.buf, data...)
}
