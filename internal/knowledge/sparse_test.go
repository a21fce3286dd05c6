package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func farmEntries() []Entry {
	return []Entry{
		{ID: "tomato-sun", Question: "How to grow tomatoes", Answer: "Tomatoes need full sun and staking.", Tags: []string{"tomato", "growing"}},
		{ID: "rice-water", Question: "When to water rice", Answer: "Keep paddy fields flooded early in the season.", Tags: []string{"rice", "irrigation"}},
		{ID: "yellow-leaves", Question: "Why are my leaves yellow", Answer: "Yellow leaves often mean nitrogen deficiency.", Tags: []string{"fertilizer"}},
		{ID: "tomato-blight", Question: "Brown spots on tomato leaves", Answer: "Likely early blight. Remove infected leaves.", Tags: []string{"tomato", "disease"}},
	}
}

func TestSparseRetrieve_KeepsNonMatchingEntries(t *testing.T) {
	snap := mustSnapshot(t, farmEntries())

	got, err := SparseRetrieve(snap, "tomato")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Greater(t, got[0].Score, 0.0)
	assert.Greater(t, got[1].Score, 0.0)
	assert.ElementsMatch(t, []string{"tomato-sun", "tomato-blight"}, []string{got[0].EntryID, got[1].EntryID})

	// Non-matching entries score 0 and keep insertion order.
	assert.Equal(t, "rice-water", got[2].EntryID)
	assert.Equal(t, "yellow-leaves", got[3].EntryID)
	assert.Zero(t, got[2].Score)
	assert.Zero(t, got[3].Score)
}

func TestSparseRetrieve_SortedDescending(t *testing.T) {
	snap := mustSnapshot(t, farmEntries())

	got, err := SparseRetrieve(snap, "yellow leaves nitrogen")
	require.NoError(t, err)

	assert.Equal(t, "yellow-leaves", got[0].EntryID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestSparseRetrieve_RepeatedQueryTermsCountOnce(t *testing.T) {
	snap := mustSnapshot(t, farmEntries())

	once, err := SparseRetrieve(snap, "rice")
	require.NoError(t, err)
	twice, err := SparseRetrieve(snap, "rice rice")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestSparseRetrieve_NoOverlap(t *testing.T) {
	snap := mustSnapshot(t, farmEntries())

	got, err := SparseRetrieve(snap, "zzqx blorp")
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, c := range got {
		assert.Zero(t, c.Score)
		assert.Equal(t, i, c.Position)
	}
}

func TestSparseRetrieve_NoSnapshot(t *testing.T) {
	_, err := SparseRetrieve(nil, "tomato")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLexicalIndex_IDFIsNonNegative(t *testing.T) {
	snap := mustSnapshot(t, []Entry{
		{ID: "a", Answer: "tomato tomato"},
		{ID: "b", Answer: "tomato"},
	})

	for term, idf := range snap.index.idf {
		assert.GreaterOrEqual(t, idf, 0.0, term)
	}
}
