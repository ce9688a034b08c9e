//go:build cgo

package main

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/memoryd/internal/embeddings"
)

// ensureONNXRuntime downloads the ONNX runtime when missing and exports its
// location through ONNX_PATH for the fastembed provider.
func ensureONNXRuntime(ctx context.Context) (string, error) {
	return embeddings.EnsureONNXRuntime(ctx)
}

// requireONNXRuntime fails when the runtime is not already installed.
// Stdio mode cannot download it: progress output would land on stdout and
// corrupt the protocol stream.
func requireONNXRuntime(ctx context.Context) (string, error) {
	if !embeddings.ONNXRuntimeExists() {
		return "", fmt.Errorf("ONNX runtime not installed; run 'memoryd init' first")
	}
	return embeddings.EnsureONNXRuntime(ctx)
}
