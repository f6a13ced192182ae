package fixtures

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HarperFast/harper-edge-ai-example/internal/onnx"
)

// staticDims extracts the declared shape of a value info, 0 meaning dynamic.
func staticDims(t *testing.T, vi onnx.ValueInfoProto) []int64 {
	t.Helper()
	require.NotNil(t, vi.Type)
	require.NotNil(t, vi.Type.TensorType)
	require.NotNil(t, vi.Type.TensorType.Shape)
	dims := make([]int64, len(vi.Type.TensorType.Shape.Dims))
	for i, d := range vi.Type.TensorType.Shape.Dims {
		dims[i] = d.DimValue
	}
	return dims
}

func TestIdentityModelStructure(t *testing.T) {
	model, err := Identity()
	require.NoError(t, err)
	require.NoError(t, onnx.Check(model))

	assert.Equal(t, producerName, model.ProducerName)
	require.Len(t, model.OpsetImport, 1)
	assert.Equal(t, int64(opsetVersion), model.OpsetImport[0].Version)

	graph := model.Graph
	assert.Equal(t, "identity-model", graph.Name)
	assert.Empty(t, graph.Initializers)

	require.Len(t, graph.Inputs, 1)
	assert.Equal(t, "input", graph.Inputs[0].Name)
	assert.Equal(t, int32(onnx.TensorProtoFloat), graph.Inputs[0].Type.TensorType.ElemType)
	assert.Equal(t, []int64{1, 10}, staticDims(t, graph.Inputs[0]))

	require.Len(t, graph.Outputs, 1)
	assert.Equal(t, "output", graph.Outputs[0].Name)
	assert.Equal(t, []int64{1, 10}, staticDims(t, graph.Outputs[0]))

	require.Len(t, graph.Nodes, 1)
	node := graph.Nodes[0]
	assert.Equal(t, "Identity", node.OpType)
	assert.Equal(t, "identity", node.Name)
	assert.Equal(t, []string{"input"}, node.Inputs)
	assert.Equal(t, []string{"output"}, node.Outputs)
}

func TestRandomEmbeddingsStructure(t *testing.T) {
	model, err := RandomEmbeddings()
	require.NoError(t, err)
	require.NoError(t, onnx.Check(model))

	graph := model.Graph
	assert.Equal(t, "random-embedding-model", graph.Name)

	require.Len(t, graph.Inputs, 1)
	assert.Equal(t, "input_ids", graph.Inputs[0].Name)
	assert.Equal(t, int32(onnx.TensorProtoInt64), graph.Inputs[0].Type.TensorType.ElemType)
	assert.Equal(t, []int64{1, 0}, staticDims(t, graph.Inputs[0]), "second dim is dynamic")

	require.Len(t, graph.Outputs, 1)
	assert.Equal(t, "embeddings", graph.Outputs[0].Name)
	assert.Equal(t, []int64{1, embeddingDim}, staticDims(t, graph.Outputs[0]))

	require.Len(t, graph.Initializers, 1)
	weights := graph.Initializers[0]
	assert.Equal(t, "embedding_weights", weights.Name)
	assert.Equal(t, []int64{vocabSize, embeddingDim}, weights.Dims)
	assert.Len(t, weights.RawData, vocabSize*embeddingDim*4)

	require.Len(t, graph.Nodes, 2)

	gather := graph.Nodes[0]
	assert.Equal(t, "Gather", gather.OpType)
	assert.Equal(t, []string{"embedding_weights", "input_ids"}, gather.Inputs)
	assert.Equal(t, []string{"gathered"}, gather.Outputs)
	require.Len(t, gather.Attributes, 1)
	assert.Equal(t, "axis", gather.Attributes[0].Name)
	assert.Equal(t, int64(0), gather.Attributes[0].I)

	reduce := graph.Nodes[1]
	assert.Equal(t, "ReduceMean", reduce.OpType)
	assert.Equal(t, []string{"gathered"}, reduce.Inputs)
	assert.Equal(t, []string{"embeddings"}, reduce.Outputs)
	require.Len(t, reduce.Attributes, 2)
	assert.Equal(t, "axes", reduce.Attributes[0].Name)
	assert.Equal(t, []int64{1}, reduce.Attributes[0].Ints)
	assert.Equal(t, "keepdims", reduce.Attributes[1].Name)
	assert.Equal(t, int64(0), reduce.Attributes[1].I)
}

func TestSimpleClassifierStructure(t *testing.T) {
	model, err := SimpleClassifier()
	require.NoError(t, err)
	require.NoError(t, onnx.Check(model))

	graph := model.Graph
	assert.Equal(t, "simple-classifier", graph.Name)

	require.Len(t, graph.Inputs, 1)
	assert.Equal(t, "features", graph.Inputs[0].Name)
	assert.Equal(t, []int64{1, embeddingDim}, staticDims(t, graph.Inputs[0]))

	require.Len(t, graph.Outputs, 1)
	assert.Equal(t, "logits", graph.Outputs[0].Name)
	assert.Equal(t, []int64{1, numClasses}, staticDims(t, graph.Outputs[0]))

	require.Len(t, graph.Initializers, 2)
	assert.Equal(t, "weights", graph.Initializers[0].Name)
	assert.Equal(t, []int64{embeddingDim, numClasses}, graph.Initializers[0].Dims)
	assert.Equal(t, "bias", graph.Initializers[1].Name)
	assert.Equal(t, []int64{numClasses}, graph.Initializers[1].Dims)

	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "MatMul", graph.Nodes[0].OpType)
	assert.Equal(t, []string{"features", "weights"}, graph.Nodes[0].Inputs)
	assert.Equal(t, []string{"matmul_out"}, graph.Nodes[0].Outputs)
	assert.Equal(t, "Add", graph.Nodes[1].OpType)
	assert.Equal(t, []string{"matmul_out", "bias"}, graph.Nodes[1].Inputs)
	assert.Equal(t, []string{"logits"}, graph.Nodes[1].Outputs)
}

// TestStructuralDeterminism verifies two runs build the same graph shape
// even though the weight values are drawn fresh each time.
func TestStructuralDeterminism(t *testing.T) {
	for _, build := range []func() (*onnx.ModelProto, error){Identity, RandomEmbeddings, SimpleClassifier} {
		first, err := build()
		require.NoError(t, err)
		second, err := build()
		require.NoError(t, err)

		assert.Equal(t, first.Graph.Name, second.Graph.Name)
		require.Len(t, second.Graph.Nodes, len(first.Graph.Nodes))
		for i := range first.Graph.Nodes {
			assert.Equal(t, first.Graph.Nodes[i].OpType, second.Graph.Nodes[i].OpType)
			assert.Equal(t, first.Graph.Nodes[i].Inputs, second.Graph.Nodes[i].Inputs)
			assert.Equal(t, first.Graph.Nodes[i].Outputs, second.Graph.Nodes[i].Outputs)
		}
		require.Len(t, second.Graph.Initializers, len(first.Graph.Initializers))
		for i := range first.Graph.Initializers {
			assert.Equal(t, first.Graph.Initializers[i].Name, second.Graph.Initializers[i].Name)
			assert.Equal(t, first.Graph.Initializers[i].Dims, second.Graph.Initializers[i].Dims)
			assert.Len(t, second.Graph.Initializers[i].RawData, len(first.Graph.Initializers[i].RawData))
		}
	}
}

func TestGenerateAll(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, GenerateAll(dir, &out))

	for _, file := range []string{IdentityFile, EmbeddingsFile, ClassifierFile} {
		path := filepath.Join(dir, file)

		info, err := os.Stat(path)
		require.NoError(t, err, "expected %s to exist", file)
		assert.Positive(t, info.Size(), "%s should be non-empty", file)

		require.NoError(t, onnx.CheckFile(path), "%s should parse and validate", file)

		assert.Contains(t, out.String(), "✓ Created "+file)
	}

	assert.Contains(t, out.String(), "All test models generated successfully!")
	assert.Contains(t, out.String(), "File sizes:")
}

// TestGenerateAllOverwrites verifies a second run replaces the previous files.
func TestGenerateAllOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, GenerateAll(dir, &bytes.Buffer{}))
	require.NoError(t, GenerateAll(dir, &bytes.Buffer{}))

	model, err := onnx.ParseFile(filepath.Join(dir, IdentityFile))
	require.NoError(t, err)
	assert.Equal(t, "identity-model", model.Graph.Name)
}

// TestGenerateAllBadDir verifies write failures propagate as errors.
func TestGenerateAllBadDir(t *testing.T) {
	err := GenerateAll(filepath.Join(t.TempDir(), "does", "not", "exist"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), IdentityFile)
}

// TestSummarySkipsMissingFile verifies a deleted model is omitted from the
// size listing without raising an error.
func TestSummarySkipsMissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, GenerateAll(dir, &bytes.Buffer{}))
	require.NoError(t, os.Remove(filepath.Join(dir, EmbeddingsFile)))

	var out bytes.Buffer
	Summary(dir, &out)

	// Purpose lines always list every model; only the size line disappears.
	assert.Contains(t, out.String(), EmbeddingsFile+" - ")
	assert.NotContains(t, out.String(), EmbeddingsFile+":")
	assert.Contains(t, out.String(), IdentityFile+":")
	assert.Contains(t, out.String(), ClassifierFile+":")
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{54321, "54,321"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, groupDigits(tt.n), "groupDigits(%d)", tt.n)
	}
}

// TestOutputOrder verifies the progress lines appear in generation order.
func TestOutputOrder(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, GenerateAll(t.TempDir(), &out))

	text := out.String()
	identity := strings.Index(text, IdentityFile)
	embeddings := strings.Index(text, EmbeddingsFile)
	classifier := strings.Index(text, ClassifierFile)
	require.GreaterOrEqual(t, identity, 0)
	assert.Less(t, identity, embeddings)
	assert.Less(t, embeddings, classifier)
}
