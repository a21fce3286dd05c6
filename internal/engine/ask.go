package engine

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrisense/advisor/internal/cache"
	"github.com/agrisense/advisor/internal/enhance"
	"github.com/agrisense/advisor/internal/knowledge"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/internal/metrics"
	"github.com/agrisense/advisor/internal/session"
)

// AskRequest is a question for the knowledge base.
type AskRequest struct {
	Question  string `json:"question"`
	TopK      int    `json:"top_k"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language"`
}

// Result is one ranked answer.
type Result struct {
	Rank            int      `json:"rank"`
	Score           float64  `json:"score"`
	Answer          string   `json:"answer"`
	OriginalAnswer  string   `json:"original_answer,omitempty"`
	IsFallback      bool     `json:"is_fallback"`
	EntryID         string   `json:"entry_id,omitempty"`
	MatchedQuestion string   `json:"matched_question,omitempty"`
	FollowUps       []string `json:"follow_ups,omitempty"`
}

// AskResponse is the answer to an AskRequest.
type AskResponse struct {
	Question  string   `json:"question"`
	Language  string   `json:"language"`
	SessionID string   `json:"session_id,omitempty"`
	Results   []Result `json:"results"`
	Cached    bool     `json:"cached"`
}

// Ask ranks the knowledge base against a question. The ranking is cached
// per (question, language, top_k) for the current tuning and snapshot; the
// top answer is then wrapped by the conversational enhancer unless the
// ranking fell back.
func (e *Engine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResponse{}, ErrEmptyQuestion
	}
	logger.SetLastQuestion(question)

	lang := enhance.ResolveLanguage(req.Language)
	topK := req.TopK
	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}

	snap, tuning, generation := e.state()
	if snap == nil {
		return AskResponse{}, ErrRetrievalUnavailable
	}

	key := cache.NewKey(question, lang, topK, generation)
	outcome := metrics.OutcomeHit
	cached, hit := e.cache.Get(key)
	ranking := cached.Ranking
	if !hit {
		outcome = metrics.OutcomeMiss
		var err error
		ranking, err = e.rank(ctx, snap, tuning, question, topK)
		if err != nil {
			return AskResponse{}, err
		}
		e.cache.Put(key, ranking)
	}
	if ranking.Fallback {
		outcome = metrics.OutcomeFallback
	}

	var turns []session.Turn
	if req.SessionID != "" {
		turns = e.sessions.AppendTurn(req.SessionID, session.RoleUser, question).Turns
	}

	results := e.buildResults(snap, ranking, question, lang, turns)

	if req.SessionID != "" {
		e.sessions.AppendTurn(req.SessionID, session.RoleAssistant, results[0].Answer)
	}

	e.metrics.ObserveAsk(outcome, time.Since(start))
	e.logger.Debug("question answered",
		"outcome", outcome,
		"results", len(results),
		"snapshot_version", snap.Version,
		"elapsed", time.Since(start))

	return AskResponse{
		Question:  question,
		Language:  lang,
		SessionID: req.SessionID,
		Results:   results,
		Cached:    hit,
	}, nil
}

// rank runs both retrievers in parallel and blends their lists.
func (e *Engine) rank(ctx context.Context, snap *knowledge.Snapshot, tuning knowledge.Tuning, question string, topK int) (knowledge.Ranking, error) {
	var dense, sparse []knowledge.Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dense, err = knowledge.DenseRetrieve(snap, e.embedQuery(gctx, question))
		return err
	})
	g.Go(func() error {
		var err error
		sparse, err = knowledge.SparseRetrieve(snap, question)
		return err
	})
	if err := g.Wait(); err != nil {
		return knowledge.Ranking{}, err
	}

	return knowledge.Rank(dense, sparse, tuning, topK), nil
}

// embedQuery never fails: on error or timeout the query vector is empty and
// the request ranks on the sparse signal alone.
func (e *Engine) embedQuery(ctx context.Context, question string) []float32 {
	if e.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.EmbedTimeout)
		defer cancel()
	}

	vec, err := knowledge.EmbedQuery(ctx, e.embedder, question)
	if err != nil {
		e.logger.Warn("query embedding failed, ranking on keywords only", "error", err)
		return nil
	}
	return vec
}

func (e *Engine) buildResults(snap *knowledge.Snapshot, ranking knowledge.Ranking, question, lang string, turns []session.Turn) []Result {
	if ranking.Fallback {
		return []Result{{Rank: 1, Answer: knowledge.FallbackAnswer, IsFallback: true}}
	}

	results := make([]Result, 0, len(ranking.Candidates))
	for _, c := range ranking.Candidates {
		entry, ok := snap.Entry(c.EntryID)
		if !ok {
			continue
		}
		r := Result{
			Rank:            len(results) + 1,
			Score:           c.CombinedScore,
			Answer:          entry.Answer,
			EntryID:         entry.ID,
			MatchedQuestion: entry.Question,
		}
		if r.Rank == 1 {
			out := enhance.Enhance(enhance.Input{
				Question: question,
				Language: lang,
				Matched:  entry,
				Related:  snap.Entries(),
				Turns:    turns,
			})
			r.OriginalAnswer = entry.Answer
			r.Answer = out.Text
			r.FollowUps = out.FollowUps
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return []Result{{Rank: 1, Answer: knowledge.FallbackAnswer, IsFallback: true}}
	}
	return results
}
