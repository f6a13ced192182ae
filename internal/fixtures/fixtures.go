// Package fixtures generates the minimal ONNX models used to exercise
// inference infrastructure: an identity pass-through, a random embedding
// lookup, and a linear classifier. The models are structurally fixed;
// weight values are drawn fresh on every run.
package fixtures

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/HarperFast/harper-edge-ai-example/internal/onnx"
)

// Output filenames, written to the invocation directory.
const (
	IdentityFile   = "identity.onnx"
	EmbeddingsFile = "random-embeddings.onnx"
	ClassifierFile = "simple-classifier.onnx"
)

const (
	producerName = "test-model-generator"
	opsetVersion = 13

	vocabSize    = 1000
	embeddingDim = 384
	numClasses   = 3
)

// Identity builds a model that outputs its input unchanged.
// Input: float32[1,10]. Output: float32[1,10].
func Identity() (*onnx.ModelProto, error) {
	graph := onnx.MakeGraph("identity-model",
		[]onnx.NodeProto{
			onnx.MakeNode("Identity", []string{"input"}, []string{"output"}, "identity"),
		},
		[]onnx.ValueInfoProto{onnx.TensorValueInfo("input", onnx.TensorProtoFloat, 1, 10)},
		[]onnx.ValueInfoProto{onnx.TensorValueInfo("output", onnx.TensorProtoFloat, 1, 10)},
	)
	return onnx.MakeModel(graph, producerName, opsetVersion), nil
}

// RandomEmbeddings builds an embedding model with random weights: a Gather
// lookup into a [vocab, dim] table followed by a ReduceMean over the
// sequence axis.
// Input: int64[1,*] token IDs. Output: float32[1,384].
func RandomEmbeddings() (*onnx.ModelProto, error) {
	weights, err := onnx.FloatTensor("embedding_weights",
		[]int64{vocabSize, embeddingDim}, onnx.Randn(vocabSize*embeddingDim))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding weights: %w", err)
	}

	graph := onnx.MakeGraph("random-embedding-model",
		[]onnx.NodeProto{
			onnx.MakeNode("Gather",
				[]string{"embedding_weights", "input_ids"}, []string{"gathered"}, "",
				onnx.IntAttr("axis", 0)),
			onnx.MakeNode("ReduceMean",
				[]string{"gathered"}, []string{"embeddings"}, "",
				onnx.IntsAttr("axes", 1), onnx.IntAttr("keepdims", 0)),
		},
		[]onnx.ValueInfoProto{onnx.TensorValueInfo("input_ids", onnx.TensorProtoInt64, 1, onnx.DynamicDim)},
		[]onnx.ValueInfoProto{onnx.TensorValueInfo("embeddings", onnx.TensorProtoFloat, 1, embeddingDim)},
		weights,
	)
	return onnx.MakeModel(graph, producerName, opsetVersion), nil
}

// SimpleClassifier builds a linear classifier: MatMul with a random weight
// matrix followed by a bias Add.
// Input: float32[1,384] features. Output: float32[1,3] logits.
func SimpleClassifier() (*onnx.ModelProto, error) {
	weights, err := onnx.FloatTensor("weights",
		[]int64{embeddingDim, numClasses}, onnx.Randn(embeddingDim*numClasses))
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier weights: %w", err)
	}
	bias, err := onnx.FloatTensor("bias", []int64{numClasses}, onnx.Randn(numClasses))
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier bias: %w", err)
	}

	graph := onnx.MakeGraph("simple-classifier",
		[]onnx.NodeProto{
			onnx.MakeNode("MatMul", []string{"features", "weights"}, []string{"matmul_out"}, ""),
			onnx.MakeNode("Add", []string{"matmul_out", "bias"}, []string{"logits"}, ""),
		},
		[]onnx.ValueInfoProto{onnx.TensorValueInfo("features", onnx.TensorProtoFloat, 1, embeddingDim)},
		[]onnx.ValueInfoProto{onnx.TensorValueInfo("logits", onnx.TensorProtoFloat, 1, numClasses)},
		weights, bias,
	)
	return onnx.MakeModel(graph, producerName, opsetVersion), nil
}

// fixture pairs an output filename with its builder and summary line.
type fixture struct {
	file    string
	purpose string
	build   func() (*onnx.ModelProto, error)
}

// all lists the fixtures in generation order.
func all() []fixture {
	return []fixture{
		{IdentityFile, "Simple identity model for testing", Identity},
		{EmbeddingsFile, "Random embedding model", RandomEmbeddings},
		{ClassifierFile, "Simple linear classifier", SimpleClassifier},
	}
}

// GenerateAll builds, validates, and writes all fixture models into dir,
// overwriting existing files, then prints the closing summary to out.
// It aborts on the first build, validation, or write failure.
func GenerateAll(dir string, out io.Writer) error {
	fmt.Fprintln(out, "Generating ONNX test models...")
	fmt.Fprintln(out)

	for _, f := range all() {
		model, err := f.build()
		if err != nil {
			return fmt.Errorf("failed to build %s: %w", f.file, err)
		}
		if err := onnx.Check(model); err != nil {
			return fmt.Errorf("model %s failed validation: %w", f.file, err)
		}
		if err := onnx.Save(model, filepath.Join(dir, f.file)); err != nil {
			return fmt.Errorf("failed to save %s: %w", f.file, err)
		}
		fmt.Fprintf(out, "✓ Created %s\n", f.file)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ All test models generated successfully!")
	fmt.Fprintln(out)
	Summary(dir, out)
	return nil
}

// Summary prints each fixture's purpose and, for files present on disk,
// the size in bytes. Missing files are skipped, not reported as errors.
func Summary(dir string, out io.Writer) {
	fmt.Fprintln(out, "Models created:")
	for _, f := range all() {
		fmt.Fprintf(out, "  • %s - %s\n", f.file, f.purpose)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "File sizes:")
	for _, f := range all() {
		info, err := os.Stat(filepath.Join(dir, f.file))
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "  • %s: %s bytes\n", f.file, groupDigits(info.Size()))
	}
}

// groupDigits formats n with thousands separators (1234567 -> "1,234,567").
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var grouped []byte
	lead := len(s) % 3
	if lead > 0 {
		grouped = append(grouped, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(grouped) > 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, s[i:i+3]...)
	}
	return string(grouped)
}
