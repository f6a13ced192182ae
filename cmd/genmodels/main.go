// Command genmodels generates the minimal ONNX fixture models used for
// testing inference infrastructure. It takes no arguments and writes
// identity.onnx, random-embeddings.onnx, and simple-classifier.onnx into the
// current directory.
package main

import (
	"fmt"
	"os"

	"github.com/HarperFast/harper-edge-ai-example/internal/fixtures"
)

func main() {
	if err := fixtures.GenerateAll(".", os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "genmodels: %v\n", err)
		os.Exit(1)
	}
}
