//go:build !cgo

package main

import (
	"context"
	"errors"
)

var errFastEmbedRequiresCGO = errors.New("local embeddings require a cgo build; use the tei embeddings provider instead")

func ensureONNXRuntime(_ context.Context) (string, error) {
	return "", errFastEmbedRequiresCGO
}

func requireONNXRuntime(_ context.Context) (string, error) {
	return "", errFastEmbedRequiresCGO
}
