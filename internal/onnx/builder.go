package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/x448/float16"
)

// DynamicDim marks a dimension whose size is unknown at model-build time,
// such as a variable sequence length.
const DynamicDim int64 = -1

// TensorValueInfo builds a ValueInfoProto describing a graph input or output.
// Dimensions <= 0 are encoded as dynamic.
func TensorValueInfo(name string, elemType int32, dims ...int64) ValueInfoProto {
	shape := &TensorShapeProto{Dims: make([]DimensionProto, len(dims))}
	for i, dim := range dims {
		if dim > 0 {
			shape.Dims[i].DimValue = dim
		}
	}
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{
			TensorType: &TensorTypeProto{ElemType: elemType, Shape: shape},
		},
	}
}

// FloatTensor builds a float32 initializer with a raw little-endian payload.
func FloatTensor(name string, dims []int64, values []float32) (TensorProto, error) {
	if err := checkElementCount(name, dims, len(values)); err != nil {
		return TensorProto{}, err
	}
	raw := make([]byte, 0, len(values)*4)
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	return TensorProto{Name: name, DataType: TensorProtoFloat, Dims: dims, RawData: raw}, nil
}

// Float16Tensor builds a float16 initializer from float32 values, converting
// each element with IEEE 754 round-to-nearest-even.
func Float16Tensor(name string, dims []int64, values []float32) (TensorProto, error) {
	if err := checkElementCount(name, dims, len(values)); err != nil {
		return TensorProto{}, err
	}
	raw := make([]byte, 0, len(values)*2)
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint16(raw, float16.Fromfloat32(v).Bits())
	}
	return TensorProto{Name: name, DataType: TensorProtoFloat16, Dims: dims, RawData: raw}, nil
}

// Int64Tensor builds an int64 initializer with a raw little-endian payload.
func Int64Tensor(name string, dims []int64, values []int64) (TensorProto, error) {
	if err := checkElementCount(name, dims, len(values)); err != nil {
		return TensorProto{}, err
	}
	raw := make([]byte, 0, len(values)*8)
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint64(raw, uint64(v)) //nolint:gosec // G115: two's complement reinterpretation is the wire encoding.
	}
	return TensorProto{Name: name, DataType: TensorProtoInt64, Dims: dims, RawData: raw}, nil
}

// checkElementCount verifies that the value count matches the shape.
func checkElementCount(name string, dims []int64, count int) error {
	expected := int64(1)
	for _, dim := range dims {
		if dim < 0 {
			return fmt.Errorf("tensor %s: initializer shape must be static, got dim %d", name, dim)
		}
		expected *= dim
	}
	if int64(count) != expected {
		return fmt.Errorf("tensor %s: shape %v requires %d values, got %d", name, dims, expected, count)
	}
	return nil
}

// MakeNode builds an operation node with explicit input/output bindings.
func MakeNode(opType string, inputs, outputs []string, name string, attrs ...AttributeProto) NodeProto {
	return NodeProto{
		Name:       name,
		OpType:     opType,
		Inputs:     inputs,
		Outputs:    outputs,
		Attributes: attrs,
	}
}

// IntAttr builds an INT attribute (e.g., axis=0).
func IntAttr(name string, value int64) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoInt, I: value}
}

// IntsAttr builds an INTS attribute (e.g., axes=[1]).
func IntsAttr(name string, values ...int64) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoInts, Ints: values}
}

// FloatAttr builds a FLOAT attribute.
func FloatAttr(name string, value float32) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoFloat, F: value}
}

// StringAttr builds a STRING attribute.
func StringAttr(name, value string) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoString, S: []byte(value)}
}

// MakeGraph assembles nodes, inputs, outputs, and initializers into a named
// graph. Declaration order of nodes is taken as topological order.
func MakeGraph(name string, nodes []NodeProto, inputs, outputs []ValueInfoProto, initializers ...TensorProto) *GraphProto {
	return &GraphProto{
		Name:         name,
		Nodes:        nodes,
		Inputs:       inputs,
		Outputs:      outputs,
		Initializers: initializers,
	}
}

// modelIRVersion is the ONNX IR format version stamped on generated models.
const modelIRVersion = 8

// MakeModel wraps a graph in a model container with the given producer name
// and a single default-domain opset import.
func MakeModel(graph *GraphProto, producerName string, opsetVersion int64) *ModelProto {
	return &ModelProto{
		IRVersion:    modelIRVersion,
		ProducerName: producerName,
		OpsetImport:  []OperatorSetID{{Version: opsetVersion}},
		Graph:        graph,
	}
}

// Randn returns n values drawn from the standard normal distribution, using
// the Box-Muller transform. Unseeded: values differ across runs.
func Randn(n int) []float32 {
	values := make([]float32, n)
	for i := 0; i < n; i += 2 {
		u1 := rand.Float64() //nolint:gosec // G404: math/rand is intentional for weight initialization.
		u2 := rand.Float64() //nolint:gosec // G404: math/rand is intentional for weight initialization.
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		values[i] = float32(z0)
		if i+1 < n {
			values[i+1] = float32(z1)
		}
	}
	return values
}
