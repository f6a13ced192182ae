// Package onnx builds, validates, and serializes ONNX model files.
//
// ONNX (Open Neural Network Exchange) is an open format for representing deep
// learning models. This package implements a hand-written protobuf wire codec
// for .onnx files without external dependencies, plus small constructors that
// mirror the shape of the official helper API.
//
// Key components:
//   - ModelProto: Top-level ONNX model structure with metadata and graph
//   - GraphProto: Computation graph with nodes, inputs, outputs, and initializers
//   - NodeProto: Single operation in the graph (e.g., Identity, MatMul, Gather)
//   - TensorProto: Weight/initializer tensor with data and shape
//   - ValueInfoProto: Input/output tensor type information
//
// Example usage:
//
//	graph := onnx.MakeGraph("identity-model",
//	    []onnx.NodeProto{onnx.MakeNode("Identity", []string{"input"}, []string{"output"}, "identity")},
//	    []onnx.ValueInfoProto{onnx.TensorValueInfo("input", onnx.TensorProtoFloat, 1, 10)},
//	    []onnx.ValueInfoProto{onnx.TensorValueInfo("output", onnx.TensorProtoFloat, 1, 10)})
//
//	model := onnx.MakeModel(graph, "test-model-generator", 13)
//	if err := onnx.Check(model); err != nil {
//	    log.Fatal(err)
//	}
//	if err := onnx.Save(model, "identity.onnx"); err != nil {
//	    log.Fatal(err)
//	}
package onnx
