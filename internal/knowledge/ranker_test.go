package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(scores ...float64) []Candidate {
	out := make([]Candidate, len(scores))
	for i, s := range scores {
		out[i] = Candidate{EntryID: string(rune('a' + i)), Position: i, Score: s}
	}
	return out
}

func ids(r Ranking) []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.EntryID
	}
	return out
}

func TestRank_SortedByCombinedScore(t *testing.T) {
	dense := candidates(0.1, 0.9, 0.4, 0.3, 0.7)
	sparse := candidates(2.0, 0.0, 5.5, 1.0, 0.2)

	got := Rank(dense, sparse, Tuning{Alpha: 0.3, TopKMax: 10}, 10)
	require.False(t, got.Fallback)
	require.Len(t, got.Candidates, 5)

	for i := 1; i < len(got.Candidates); i++ {
		assert.GreaterOrEqual(t, got.Candidates[i-1].CombinedScore, got.Candidates[i].CombinedScore)
	}
}

func TestRank_AlphaOneIsDenseOrder(t *testing.T) {
	dense := candidates(0.1, 0.9, 0.4, 0.3, 0.7)
	sparse := candidates(2.0, 0.0, 5.5, 1.0, 0.2)

	got := Rank(dense, sparse, Tuning{Alpha: 1, TopKMax: 10}, 10)
	assert.Equal(t, []string{"b", "e", "c", "d", "a"}, ids(got))
}

func TestRank_AlphaZeroIsSparseOrder(t *testing.T) {
	dense := candidates(0.1, 0.9, 0.4, 0.3, 0.7)
	sparse := candidates(2.0, 0.0, 5.5, 1.0, 0.2)

	got := Rank(dense, sparse, Tuning{Alpha: 0, TopKMax: 10}, 10)
	assert.Equal(t, []string{"c", "a", "d", "e", "b"}, ids(got))
}

func TestRank_Normalization(t *testing.T) {
	dense := candidates(0.2, 0.6, 1.0)
	sparse := candidates(3, 3, 3)

	got := Rank(dense, sparse, Tuning{Alpha: 0.5, TopKMax: 10}, 10)
	require.Len(t, got.Candidates, 3)

	top := got.Candidates[0]
	assert.Equal(t, "c", top.EntryID)
	assert.InDelta(t, 1.0, top.DenseScore, 1e-9)
	// A flat list normalizes to zero.
	assert.Zero(t, top.SparseScore)
	assert.InDelta(t, 0.5, top.CombinedScore, 1e-9)
	assert.InDelta(t, 0.5, got.Candidates[1].DenseScore, 1e-9)
	assert.Zero(t, got.Candidates[2].DenseScore)
}

func TestRank_TieBreaksOnDenseThenPosition(t *testing.T) {
	// y is inserted first but x has the stronger dense signal.
	dense := []Candidate{
		{EntryID: "y", Position: 0, Score: 0},
		{EntryID: "x", Position: 1, Score: 1},
		{EntryID: "z", Position: 2, Score: 0},
		{EntryID: "w", Position: 3, Score: 0},
	}
	sparse := []Candidate{
		{EntryID: "y", Position: 0, Score: 1},
		{EntryID: "x", Position: 1, Score: 0},
		{EntryID: "z", Position: 2, Score: 0},
		{EntryID: "w", Position: 3, Score: 0},
	}

	got := Rank(dense, sparse, Tuning{Alpha: 0.5, TopKMax: 10}, 10)
	assert.Equal(t, []string{"x", "y", "z", "w"}, ids(got))
}

func TestRank_Truncation(t *testing.T) {
	dense := candidates(0.1, 0.2, 0.3, 0.4, 0.5)
	sparse := candidates(0, 0, 0, 0, 0)

	assert.Len(t, Rank(dense, sparse, Tuning{Alpha: 1, TopKMax: 10}, 2).Candidates, 2)
	assert.Len(t, Rank(dense, sparse, Tuning{Alpha: 1, TopKMax: 3}, 8).Candidates, 3)
	assert.Len(t, Rank(dense, sparse, Tuning{Alpha: 1, TopKMax: 4}, 0).Candidates, 4)
}

func TestRank_ConfidenceGate(t *testing.T) {
	dense := candidates(0.1, 0.2, 0.3)
	sparse := candidates(0, 0, 0)

	got := Rank(dense, sparse, Tuning{Alpha: 0.5, MinConfidence: 0.99, TopKMax: 10}, 3)
	assert.True(t, got.Fallback)
	assert.Empty(t, got.Candidates)

	got = Rank(dense, sparse, Tuning{Alpha: 0.5, MinConfidence: 0.5, TopKMax: 10}, 3)
	assert.False(t, got.Fallback)
	assert.Len(t, got.Candidates, 3)
}

func TestRank_EmptyFallsBack(t *testing.T) {
	got := Rank(nil, nil, DefaultTuning(), 3)
	assert.True(t, got.Fallback)
}

func TestRank_SingleEntryScenario(t *testing.T) {
	snap := mustSnapshot(t, []Entry{
		{ID: "tomatoes", Question: "How to grow tomatoes", Answer: "Tomatoes need full sun...", Embedding: []float32{0.3, 0.7}},
	})

	dense, err := DenseRetrieve(snap, []float32{0.2, 0.9})
	require.NoError(t, err)
	sparse, err := SparseRetrieve(snap, "tomato growing tips")
	require.NoError(t, err)
	assert.Greater(t, sparse[0].Score, 0.0)

	got := Rank(dense, sparse, Tuning{Alpha: 0.5, MinConfidence: DefaultMinConfidence, TopKMax: 10}, 3)
	require.False(t, got.Fallback)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, "tomatoes", got.Candidates[0].EntryID)
}
