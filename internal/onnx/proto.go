package onnx

// ONNX protobuf data structures (hand-written). Field numbers used by the
// codec follow the upstream onnx.proto definition.

// ModelProto represents an ONNX model: a versioned container wrapping one graph.
type ModelProto struct {
	IRVersion       int64               // IR format version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID     // Operator set version(s)
	ProducerName    string              // Tool that produced the model
	ProducerVersion string              // Tool version
	Domain          string              // Model domain
	ModelVersion    int64               // Model version number
	DocString       string              // Model description
	Graph           *GraphProto         // Computation graph
	MetadataProps   []StringStringEntry // Key-value metadata
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string           // Graph name
	Nodes        []NodeProto      // Operation nodes, in topological order
	Inputs       []ValueInfoProto // Graph inputs
	Outputs      []ValueInfoProto // Graph outputs
	Initializers []TensorProto    // Constant tensors embedded in the graph
	DocString    string           // Graph description
}

// NodeProto represents a single operation.
type NodeProto struct {
	Name       string           // Node name (optional)
	OpType     string           // Operation type (e.g., "Gather", "MatMul", "Add")
	Inputs     []string         // Input tensor names
	Outputs    []string         // Output tensor names
	Attributes []AttributeProto // Operation attributes
	Domain     string           // Custom domain (empty for default)
}

// TensorProto represents a constant tensor (weights/initializers).
//
// The generator always emits RawData; the legacy typed fields exist so that
// models produced by other tooling still parse.
type TensorProto struct {
	Name      string    // Tensor name
	DataType  int32     // Element data type
	Dims      []int64   // Tensor shape
	RawData   []byte    // Raw little-endian binary data (most common)
	FloatData []float32 // Float32 data (legacy)
	Int32Data []int32   // Int32 data (legacy)
	Int64Data []int64   // Int64 data (legacy)
}

// ValueInfoProto describes an input/output tensor specification.
type ValueInfoProto struct {
	Name string     // Tensor name
	Type *TypeProto // Tensor type information
}

// TypeProto describes tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto // Tensor type (the only variant used here)
}

// TensorTypeProto describes tensor shape and element type.
type TensorTypeProto struct {
	ElemType int32             // Element data type
	Shape    *TensorShapeProto // Tensor shape
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto // Dimensions
}

// DimensionProto describes a single dimension. A dimension with neither
// DimValue nor DimParam set is dynamic (unknown at model-build time).
type DimensionProto struct {
	DimValue int64  // Static dimension value
	DimParam string // Symbolic dimension name (e.g., "batch_size")
}

// AttributeProto represents a node attribute (e.g., axis, keepdims).
type AttributeProto struct {
	Name    string    // Attribute name
	Type    int32     // Attribute type
	F       float32   // FLOAT value
	I       int64     // INT value
	S       []byte    // STRING value
	Floats  []float32 // FLOATS array
	Ints    []int64   // INTS array
	Strings [][]byte  // STRINGS array
}

// OperatorSetID identifies an opset version.
type OperatorSetID struct {
	Domain  string // Operator domain (empty for the default ai.onnx domain)
	Version int64  // Opset version number
}

// StringStringEntry represents key-value metadata.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined  = 0
	TensorProtoFloat      = 1  // float32
	TensorProtoUint8      = 2  // uint8
	TensorProtoInt8       = 3  // int8
	TensorProtoUint16     = 4  // uint16
	TensorProtoInt16      = 5  // int16
	TensorProtoInt32      = 6  // int32
	TensorProtoInt64      = 7  // int64
	TensorProtoString     = 8  // string
	TensorProtoBool       = 9  // bool
	TensorProtoFloat16    = 10 // float16
	TensorProtoDouble     = 11 // float64
	TensorProtoUint32     = 12 // uint32
	TensorProtoUint64     = 13 // uint64
	TensorProtoComplex64  = 14 // complex64
	TensorProtoComplex128 = 15 // complex128
	TensorProtoBfloat16   = 16 // bfloat16
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1 // FLOAT
	AttributeProtoInt       = 2 // INT
	AttributeProtoString    = 3 // STRING
	AttributeProtoTensor    = 4 // TENSOR
	AttributeProtoGraph     = 5 // GRAPH
	AttributeProtoFloats    = 6 // FLOATS
	AttributeProtoInts      = 7 // INTS
	AttributeProtoStrings   = 8 // STRINGS
)

// elemSize returns the byte size of one element of the given ONNX data type,
// or false for types the generator does not handle.
func elemSize(dataType int32) (int, bool) {
	switch dataType {
	case TensorProtoFloat, TensorProtoInt32, TensorProtoUint32:
		return 4, true
	case TensorProtoDouble, TensorProtoInt64, TensorProtoUint64:
		return 8, true
	case TensorProtoFloat16, TensorProtoBfloat16, TensorProtoInt16, TensorProtoUint16:
		return 2, true
	case TensorProtoInt8, TensorProtoUint8, TensorProtoBool:
		return 1, true
	default:
		return 0, false
	}
}
