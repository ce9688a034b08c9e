package vectorstore_test

import (
	"context"
	"hash/fnv"
	"strings"
)

const testVectorSize = 64

// bagOfWordsEmbedder produces deterministic normalized vectors where each
// distinct token maps to one axis. Cosine similarity then behaves like token
// overlap, which makes ranking assertions stable.
type bagOfWordsEmbedder struct{}

func (e *bagOfWordsEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.makeEmbedding(text)
	}
	return embeddings, nil
}

func (e *bagOfWordsEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.makeEmbedding(text), nil
}

func (e *bagOfWordsEmbedder) Dimension() int {
	return testVectorSize
}

func (e *bagOfWordsEmbedder) makeEmbedding(text string) []float32 {
	embedding := make([]float32, testVectorSize)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		embedding[h.Sum32()%testVectorSize] += 1
	}

	// Normalize to unit vector (chromem expects normalized vectors).
	var sumSq float32
	for _, v := range embedding {
		sumSq += v * v
	}
	if sumSq > 0 {
		norm := sqrt32(sumSq)
		for i := range embedding {
			embedding[i] /= norm
		}
	}
	return embedding
}

func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}
	// Newton's method
	z := x / 2
	for i := 0; i < 10; i++ {
		z = (z + x/z) / 2
	}
	return z
}
