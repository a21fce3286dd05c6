package knowledge

import (
	"math"
	"sort"
)

type posting struct {
	doc int
	tf  int
}

// lexicalIndex is the BM25 index derived from a snapshot's entries.
// IDF is computed once at build time.
type lexicalIndex struct {
	postings  map[string][]posting
	idf       map[string]float64
	docLen    []int
	avgDocLen float64
}

func buildLexicalIndex(entries []Entry) *lexicalIndex {
	idx := &lexicalIndex{
		postings: make(map[string][]posting),
		idf:      make(map[string]float64),
		docLen:   make([]int, len(entries)),
	}

	total := 0
	for i, e := range entries {
		terms := Tokenize(e.document())
		idx.docLen[i] = len(terms)
		total += len(terms)

		counts := make(map[string]int, len(terms))
		for _, t := range terms {
			counts[t]++
		}
		for t, tf := range counts {
			idx.postings[t] = append(idx.postings[t], posting{doc: i, tf: tf})
		}
	}

	if len(entries) > 0 {
		idx.avgDocLen = float64(total) / float64(len(entries))
	}

	n := float64(len(entries))
	for t, list := range idx.postings {
		df := float64(len(list))
		// Non-negative IDF variant; common terms never subtract from a score.
		idx.idf[t] = math.Log(1 + (n-df+0.5)/(df+0.5))
	}
	return idx
}

// score returns one BM25 score per document, in document order.
func (idx *lexicalIndex) score(query string) []float64 {
	scores := make([]float64, len(idx.docLen))
	if idx.avgDocLen == 0 {
		return scores
	}

	seen := make(map[string]bool)
	for _, term := range Tokenize(query) {
		if seen[term] {
			continue
		}
		seen[term] = true

		idf := idx.idf[term]
		for _, p := range idx.postings[term] {
			tf := float64(p.tf)
			norm := 1 - BM25B + BM25B*float64(idx.docLen[p.doc])/idx.avgDocLen
			scores[p.doc] += idf * tf * (BM25K1 + 1) / (tf + BM25K1*norm)
		}
	}
	return scores
}

// SparseRetrieve scores every entry of snap against the query text with BM25.
// Entries without any overlapping term keep a score of 0 and stay in the
// result so the dense signal can still rank them.
func SparseRetrieve(snap *Snapshot, query string) ([]Candidate, error) {
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return sortCandidates(snap, snap.index.score(query)), nil
}

// Candidate is one entry scored by a single retriever.
type Candidate struct {
	EntryID  string
	Position int
	Score    float64
}

// sortCandidates pairs scores with entries and orders them by descending
// score. The sort is stable, so ties keep insertion order.
func sortCandidates(snap *Snapshot, scores []float64) []Candidate {
	out := make([]Candidate, len(snap.entries))
	for i, e := range snap.entries {
		out[i] = Candidate{EntryID: e.ID, Position: i, Score: scores[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
