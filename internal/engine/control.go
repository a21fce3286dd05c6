package engine

import (
	"context"
	"fmt"

	"github.com/agrisense/advisor/internal/cache"
	"github.com/agrisense/advisor/internal/knowledge"
)

// TuneRequest changes the ranking parameters. A nil field keeps the
// current value.
type TuneRequest struct {
	Alpha         *float64 `json:"alpha,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	TopKMax       *int     `json:"top_k_max,omitempty"`
}

// Tune merges req into the current tuning, validates the result and installs it, then invalidates the result
// cache before returning. Out-of-range values are rejected and the
// previous tuning stays in effect.
func (e *Engine) Tune(req TuneRequest) (knowledge.Tuning, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.tuning
	if req.Alpha != nil {
		next.Alpha = *req.Alpha
	}
	if req.MinConfidence != nil {
		next.MinConfidence = *req.MinConfidence
	}
	if req.TopKMax != nil {
		next.TopKMax = *req.TopKMax
	}
	if err := next.Validate(); err != nil {
		return e.tuning, err
	}

	prev := e.tuning
	e.tuning = next
	e.invalidateLocked()

	e.logger.Info("tuning updated",
		"alpha", next.Alpha, "previous_alpha", prev.Alpha,
		"min_confidence", next.MinConfidence,
		"top_k_max", next.TopKMax)
	return next, nil
}

// Tuning returns the tuning currently applied to new requests.
func (e *Engine) Tuning() knowledge.Tuning {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tuning
}

// ReloadResult reports the outcome of Reload.
type ReloadResult struct {
	OK       bool                    `json:"ok"`
	Reason   string                  `json:"reason,omitempty"`
	Snapshot *knowledge.SnapshotInfo `json:"snapshot,omitempty"`
}

// Reload rebuilds the snapshot from the configured source. Failures leave
// the active snapshot serving and are reported in the result. Concurrent
// reloads run one at a time, so the last load to start is installed last.
func (e *Engine) Reload(ctx context.Context) ReloadResult {
	if e.source == nil {
		e.metrics.Reload(false)
		return ReloadResult{Reason: ErrNoSource.Error()}
	}

	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	entries, err := e.source.Load(ctx)
	if err != nil {
		e.metrics.Reload(false)
		e.logger.Error("reload failed, keeping active snapshot", "source", e.source.Describe(), "error", err)
		return ReloadResult{Reason: fmt.Sprintf("load %s: %v", e.source.Describe(), err)}
	}

	info, err := e.installLocked(entries)
	if err != nil {
		e.logger.Error("reload failed, keeping active snapshot", "source", e.source.Describe(), "error", err)
		return ReloadResult{Reason: err.Error()}
	}
	return ReloadResult{OK: true, Snapshot: &info}
}

// Install builds a snapshot from entries off to the side and makes it
// active. The cache is invalidated before Install returns. On error the
// previous snapshot stays active.
func (e *Engine) Install(entries []knowledge.Entry) (knowledge.SnapshotInfo, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()
	return e.installLocked(entries)
}

// installLocked must be called with reloadMu held.
func (e *Engine) installLocked(entries []knowledge.Entry) (knowledge.SnapshotInfo, error) {
	snap, err := knowledge.NewSnapshot(e.lastVersion+1, entries)
	if err != nil {
		e.metrics.Reload(false)
		return knowledge.SnapshotInfo{}, err
	}
	e.lastVersion = snap.Version

	e.mu.Lock()
	e.snapshot = snap
	e.invalidateLocked()
	e.mu.Unlock()

	e.metrics.Reload(true)
	e.metrics.SetSnapshotEntries(snap.Len())
	e.logger.Info("knowledge snapshot installed",
		"version", snap.Version, "id", snap.ID, "entries", snap.Len(), "dimension", snap.Dimension)
	return snap.Info(), nil
}

// invalidateLocked must be called with mu held for writing.
func (e *Engine) invalidateLocked() {
	e.generation++
	e.cache.InvalidateAll()
	e.metrics.CacheInvalidated()
}

// Status is an operator view of the engine.
type Status struct {
	Ready      bool                    `json:"ready"`
	Snapshot   *knowledge.SnapshotInfo `json:"snapshot,omitempty"`
	Tuning     knowledge.Tuning        `json:"tuning"`
	Generation uint64                  `json:"generation"`
	Cache      cache.Stats             `json:"cache"`
	Sessions   int                     `json:"sessions"`
	Evicted    uint64                  `json:"sessions_evicted"`
	Source     string                  `json:"source,omitempty"`
	Generator  string                  `json:"generator_breaker"`
}

// Status returns the current operator view.
func (e *Engine) Status() Status {
	snap, tuning, generation := e.state()

	st := Status{
		Ready:      snap != nil,
		Tuning:     tuning,
		Generation: generation,
		Cache:      e.cache.Stats(),
		Sessions:   e.sessions.Len(),
		Evicted:    e.sessions.Evictions(),
		Generator:  e.advisor.BreakerState(),
	}
	if snap != nil {
		info := snap.Info()
		st.Snapshot = &info
	}
	if e.source != nil {
		st.Source = e.source.Describe()
	}
	return st
}
