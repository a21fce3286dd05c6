/*
Package knowledge - embedding helpers for dense retrieval.
*/
package knowledge

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// EmbedQuery turns text into a query vector using embedder.
func EmbedQuery(ctx context.Context, embedder embedding.Embedder, text string) ([]float32, error) {
	// Eino returns [][]float64
	embeddings64, err := embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}

	if len(embeddings64) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	embedding32 := make([]float32, len(embeddings64[0]))
	for i, v := range embeddings64[0] {
		embedding32[i] = float32(v)
	}

	return embedding32, nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical. Mismatched
// lengths and zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DenseRetrieve scores every entry of snap by cosine similarity to query.
// A nil or zero query vector scores every entry 0.
func DenseRetrieve(snap *Snapshot, query []float32) ([]Candidate, error) {
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	scores := make([]float64, len(snap.entries))
	for i, e := range snap.entries {
		scores[i] = CosineSimilarity(query, e.Embedding)
	}
	return sortCandidates(snap, scores), nil
}
