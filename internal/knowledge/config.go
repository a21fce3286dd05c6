// Package knowledge holds the knowledge base snapshot and the retrieval
// pipeline that ranks its entries against a question.
package knowledge

// BM25 parameters used by the lexical index.
const (
	// BM25K1 controls term-frequency saturation.
	BM25K1 = 1.2

	// BM25B controls how strongly scores are normalized by document length.
	// 0 disables length normalization, 1 applies it fully.
	BM25B = 0.75
)

// Ranking defaults. They seed the process-wide Tuning until an operator
// changes them.
const (
	// DefaultAlpha weights the dense signal against the sparse one.
	// 1.0 ranks purely by embedding similarity, 0.0 purely by BM25.
	DefaultAlpha = 0.5

	// DefaultMinConfidence is the combined score the top candidate must reach.
	// Zero disables the confidence gate, so only an empty ranking falls back.
	DefaultMinConfidence = 0.0

	// DefaultTopKMax caps how many results a single request may receive.
	DefaultTopKMax = 10
)

// FallbackAnswer is returned verbatim when no candidate clears the gate.
const FallbackAnswer = "Sorry, I could not find a confident answer to that. Please try rephrasing your question or adding more detail about your crop and conditions."
