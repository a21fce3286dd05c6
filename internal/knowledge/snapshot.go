package knowledge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoSnapshot is returned by the retrievers when no snapshot is loaded.
	ErrNoSnapshot = errors.New("no knowledge snapshot loaded")

	// ErrInvalidSnapshot is returned when entries cannot form a consistent snapshot.
	ErrInvalidSnapshot = errors.New("invalid knowledge snapshot")
)

// Snapshot is an immutable, versioned view of the knowledge base together
// with its lexical index. A snapshot is never modified after NewSnapshot
// returns, so it can be shared by concurrent readers without locking.
type Snapshot struct {
	ID        string
	Version   uint64
	BuiltAt   time.Time
	Dimension int

	entries  []Entry
	position map[string]int
	index    *lexicalIndex
}

// SnapshotInfo is the metadata of a snapshot, safe to expose to operators.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Version   uint64    `json:"version"`
	BuiltAt   time.Time `json:"built_at"`
	Entries   int       `json:"entries"`
	Dimension int       `json:"dimension"`
}

// NewSnapshot validates entries and builds a snapshot off to the side.
// Entries are copied; later changes to the input slice are not observed.
//
// Every entry needs a unique non-empty ID and a non-empty answer. Either all
// entries carry an embedding of the same dimension or none do.
func NewSnapshot(version uint64, entries []Entry) (*Snapshot, error) {
	s := &Snapshot{
		ID:       uuid.NewString(),
		Version:  version,
		BuiltAt:  time.Now().UTC(),
		entries:  make([]Entry, 0, len(entries)),
		position: make(map[string]int, len(entries)),
	}

	withVectors := 0
	for i, e := range entries {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidSnapshot, i)
		}
		if _, dup := s.position[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate entry id %q", ErrInvalidSnapshot, e.ID)
		}
		if strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("%w: entry %q has an empty answer", ErrInvalidSnapshot, e.ID)
		}
		if len(e.Embedding) > 0 {
			if withVectors == 0 {
				s.Dimension = len(e.Embedding)
			} else if len(e.Embedding) != s.Dimension {
				return nil, fmt.Errorf("%w: entry %q has dimension %d, expected %d",
					ErrInvalidSnapshot, e.ID, len(e.Embedding), s.Dimension)
			}
			withVectors++
		}
		s.position[e.ID] = len(s.entries)
		s.entries = append(s.entries, e.clone())
	}

	if withVectors != 0 && withVectors != len(s.entries) {
		return nil, fmt.Errorf("%w: %d of %d entries have embeddings",
			ErrInvalidSnapshot, withVectors, len(s.entries))
	}

	s.index = buildLexicalIndex(s.entries)
	return s, nil
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns the entries in insertion order. Callers must not modify them.
func (s *Snapshot) Entries() []Entry {
	return s.entries
}

// Entry looks up an entry by ID.
func (s *Snapshot) Entry(id string) (Entry, bool) {
	pos, ok := s.position[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[pos], true
}

// Info returns the snapshot metadata.
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:        s.ID,
		Version:   s.Version,
		BuiltAt:   s.BuiltAt,
		Entries:   len(s.entries),
		Dimension: s.Dimension,
	}
}
