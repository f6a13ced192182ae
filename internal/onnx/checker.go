package onnx

import (
	"errors"
	"fmt"
)

// Check validates the structural consistency of a model: opset presence,
// known element types, initializer payload sizes, unique tensor names, and
// that every name a node or graph output references is produced by a graph
// input, an initializer, or an earlier node.
//
// A model that fails Check must not be written to disk; a broken fixture is
// worse than a crashed generator.
func Check(m *ModelProto) error {
	if m == nil {
		return errors.New("model is nil")
	}
	if m.Graph == nil {
		return errors.New("model has no graph")
	}
	if m.IRVersion == 0 {
		return errors.New("model has no IR version")
	}
	if err := checkOpset(m.OpsetImport); err != nil {
		return err
	}
	return checkGraph(m.Graph)
}

// CheckFile parses and validates a model file.
func CheckFile(path string) error {
	model, err := ParseFile(path)
	if err != nil {
		return err
	}
	return Check(model)
}

// checkOpset verifies a default-domain opset import is declared.
func checkOpset(opsets []OperatorSetID) error {
	for _, opset := range opsets {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			if opset.Version <= 0 {
				return fmt.Errorf("invalid opset version %d", opset.Version)
			}
			return nil
		}
	}
	return errors.New("model declares no default-domain opset import")
}

//nolint:gocognit,gocyclo,cyclop // Validation walks every graph element; the checks are flat and independent.
func checkGraph(g *GraphProto) error {
	// Known names: graph inputs and initializers, then node outputs as they
	// are produced. Declaration order of nodes equals topological order.
	known := make(map[string]bool)

	for i := range g.Inputs {
		vi := &g.Inputs[i]
		if err := checkValueInfo(vi); err != nil {
			return err
		}
		if known[vi.Name] {
			return fmt.Errorf("duplicate tensor name %q", vi.Name)
		}
		known[vi.Name] = true
	}

	for i := range g.Initializers {
		init := &g.Initializers[i]
		if err := checkInitializer(init); err != nil {
			return err
		}
		if known[init.Name] {
			return fmt.Errorf("duplicate tensor name %q", init.Name)
		}
		known[init.Name] = true
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.OpType == "" {
			return fmt.Errorf("node %d has no op_type", i)
		}
		for _, input := range node.Inputs {
			if input == "" {
				continue // optional input
			}
			if !known[input] {
				return fmt.Errorf("node %s (%s): input %q is not produced by any graph input, initializer, or earlier node",
					nodeLabel(node, i), node.OpType, input)
			}
		}
		for _, output := range node.Outputs {
			if output == "" {
				return fmt.Errorf("node %s (%s): empty output name", nodeLabel(node, i), node.OpType)
			}
			if known[output] {
				return fmt.Errorf("node %s (%s): output %q redefines an existing tensor",
					nodeLabel(node, i), node.OpType, output)
			}
			known[output] = true
		}
	}

	if len(g.Outputs) == 0 {
		return fmt.Errorf("graph %s has no outputs", g.Name)
	}
	for i := range g.Outputs {
		vi := &g.Outputs[i]
		if err := checkValueInfo(vi); err != nil {
			return err
		}
		if !known[vi.Name] {
			return fmt.Errorf("graph output %q is not produced by any node, input, or initializer", vi.Name)
		}
	}
	return nil
}

// checkValueInfo verifies an input/output descriptor carries tensor type info
// with a known element type.
func checkValueInfo(vi *ValueInfoProto) error {
	if vi.Name == "" {
		return errors.New("value info has no name")
	}
	if vi.Type == nil || vi.Type.TensorType == nil {
		return fmt.Errorf("tensor %q has no type information", vi.Name)
	}
	if _, ok := elemSize(vi.Type.TensorType.ElemType); !ok {
		return fmt.Errorf("tensor %q has unsupported element type %d", vi.Name, vi.Type.TensorType.ElemType)
	}
	return nil
}

// checkInitializer verifies shape and payload consistency of a constant tensor.
func checkInitializer(t *TensorProto) error {
	if t.Name == "" {
		return errors.New("initializer has no name")
	}
	size, ok := elemSize(t.DataType)
	if !ok {
		return fmt.Errorf("initializer %q has unsupported element type %d", t.Name, t.DataType)
	}
	count := int64(1)
	for _, dim := range t.Dims {
		if dim < 0 {
			return fmt.Errorf("initializer %q has negative dimension %d", t.Name, dim)
		}
		count *= dim
	}
	if len(t.RawData) > 0 {
		if int64(len(t.RawData)) != count*int64(size) {
			return fmt.Errorf("initializer %q: raw data is %d bytes, shape %v requires %d",
				t.Name, len(t.RawData), t.Dims, count*int64(size))
		}
		return nil
	}
	// Legacy typed data fields.
	var typed int64
	switch {
	case len(t.FloatData) > 0:
		typed = int64(len(t.FloatData))
	case len(t.Int32Data) > 0:
		typed = int64(len(t.Int32Data))
	case len(t.Int64Data) > 0:
		typed = int64(len(t.Int64Data))
	default:
		if count != 0 {
			return fmt.Errorf("initializer %q has no data", t.Name)
		}
		return nil
	}
	if typed != count {
		return fmt.Errorf("initializer %q: %d values for shape %v (want %d)", t.Name, typed, t.Dims, count)
	}
	return nil
}

// nodeLabel names a node for error messages, falling back to its index.
func nodeLabel(n *NodeProto, index int) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("#%d", index)
}
