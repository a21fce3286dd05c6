package knowledge

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTuning is returned when a tuning value is out of range.
var ErrInvalidTuning = errors.New("invalid tuning")

// Tuning holds the process-wide ranking parameters.
type Tuning struct {
	Alpha         float64 `json:"alpha"`
	MinConfidence float64 `json:"min_confidence"`
	TopKMax       int     `json:"top_k_max"`
}

// DefaultTuning returns the tuning used until an operator changes it.
func DefaultTuning() Tuning {
	return Tuning{
		Alpha:         DefaultAlpha,
		MinConfidence: DefaultMinConfidence,
		TopKMax:       DefaultTopKMax,
	}
}

// Validate rejects out-of-range values. Values are never clamped.
func (t Tuning) Validate() error {
	if !inUnitInterval(t.Alpha) {
		return fmt.Errorf("%w: alpha %v is outside [0,1]", ErrInvalidTuning, t.Alpha)
	}
	if !inUnitInterval(t.MinConfidence) {
		return fmt.Errorf("%w: min_confidence %v is outside [0,1]", ErrInvalidTuning, t.MinConfidence)
	}
	if t.TopKMax < 1 {
		return fmt.Errorf("%w: top_k_max must be at least 1, got %d", ErrInvalidTuning, t.TopKMax)
	}
	return nil
}

// NaN fails both comparisons and is rejected.
func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

// RankedCandidate is an entry with both normalized signals and their blend.
type RankedCandidate struct {
	EntryID       string  `json:"entry_id"`
	Position      int     `json:"-"`
	DenseScore    float64 `json:"dense_score"`
	SparseScore   float64 `json:"sparse_score"`
	CombinedScore float64 `json:"combined_score"`
}

// Ranking is the outcome of Rank. When Fallback is set, Candidates is empty
// and the caller answers with FallbackAnswer.
type Ranking struct {
	Candidates []RankedCandidate `json:"candidates"`
	Fallback   bool              `json:"fallback"`
}

// Rank blends the dense and sparse candidate lists into one ordering:
//
//  1. min-max normalize each list independently (a flat list normalizes to 0)
//  2. combined = alpha*dense + (1-alpha)*sparse
//  3. sort by combined, then dense, then insertion order
//  4. keep min(topK, tuning.TopKMax) results
//  5. fall back when the best combined score is below tuning.MinConfidence
//
// A non-positive topK means tuning.TopKMax.
func Rank(dense, sparse []Candidate, tuning Tuning, topK int) Ranking {
	merged := make(map[string]*RankedCandidate, len(dense))
	order := make([]*RankedCandidate, 0, len(dense))

	get := func(c Candidate) *RankedCandidate {
		rc, ok := merged[c.EntryID]
		if !ok {
			rc = &RankedCandidate{EntryID: c.EntryID, Position: c.Position}
			merged[c.EntryID] = rc
			order = append(order, rc)
		}
		return rc
	}

	for i, score := range normalize(dense) {
		get(dense[i]).DenseScore = score
	}
	for i, score := range normalize(sparse) {
		get(sparse[i]).SparseScore = score
	}

	out := make([]RankedCandidate, len(order))
	for i, rc := range order {
		rc.CombinedScore = tuning.Alpha*rc.DenseScore + (1-tuning.Alpha)*rc.SparseScore
		out[i] = *rc
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.DenseScore != b.DenseScore {
			return a.DenseScore > b.DenseScore
		}
		return a.Position < b.Position
	})

	limit := tuning.TopKMax
	if topK > 0 && topK < limit {
		limit = topK
	}
	if len(out) > limit {
		out = out[:limit]
	}

	if len(out) == 0 || out[0].CombinedScore < tuning.MinConfidence {
		return Ranking{Fallback: true}
	}
	return Ranking{Candidates: out}
}

// normalize maps scores onto [0,1] by min-max. When every score is equal
// the whole list normalizes to 0.
func normalize(list []Candidate) []float64 {
	out := make([]float64, len(list))
	if len(list) == 0 {
		return out
	}

	lo, hi := list[0].Score, list[0].Score
	for _, c := range list[1:] {
		lo = min(lo, c.Score)
		hi = max(hi, c.Score)
	}
	if hi == lo {
		return out
	}

	for i, c := range list {
		out[i] = (c.Score - lo) / (hi - lo)
	}
	return out
}
