// Package session keeps a short, bounded memory of recent conversation turns.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Defaults for the store bounds.
const (
	DefaultCapacity = 100
	DefaultMaxTurns = 10
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"message"`
	At   time.Time `json:"at"`
}

// Session is a copy of a conversation's recent turns.
type Session struct {
	ID         string    `json:"session_id"`
	Turns      []Turn    `json:"turns"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// IsNew reports whether the session has no turns yet.
func (s Session) IsNew() bool {
	return len(s.Turns) == 0
}

// Store holds at most capacity sessions of at most maxTurns turns each.
// The LRU evicts the least recently used session when a new one is added
// at capacity; there is no explicit delete.
type Store struct {
	mu        sync.Mutex
	sessions  *simplelru.LRU[string, *Session]
	capacity  int
	maxTurns  int
	evictions uint64
	now       func() time.Time
}

// NewStore creates a session store. Non-positive bounds use the defaults.
func NewStore(capacity, maxTurns int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	s := &Store{
		capacity: capacity,
		maxTurns: maxTurns,
		now:      time.Now,
	}
	// Called from Add with mu already held.
	sessions, err := simplelru.NewLRU[string, *Session](capacity, func(string, *Session) {
		s.evictions++
	})
	if err != nil {
		return nil, err
	}
	s.sessions = sessions
	return s, nil
}

// GetOrCreate returns the session for id, creating it on first contact.
func (s *Store) GetOrCreate(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id).copy()
}

// AppendTurn adds a turn to the session, dropping the oldest turn once the
// session is full. It returns the session state before the append.
func (s *Store) AppendTurn(id string, role Role, text string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookup(id)
	before := sess.copy()

	sess.Turns = append(sess.Turns, Turn{Role: role, Text: text, At: s.now()})
	if len(sess.Turns) > s.maxTurns {
		sess.Turns = slices.Clone(sess.Turns[len(sess.Turns)-s.maxTurns:])
	}
	return before
}

// Evictions returns how many sessions the capacity bound has dropped.
func (s *Store) Evictions() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}

// MaxTurns returns the per-session turn bound.
func (s *Store) MaxTurns() int {
	return s.maxTurns
}

// lookup must be called with mu held.
func (s *Store) lookup(id string) *Session {
	sess, ok := s.sessions.Get(id)
	if !ok {
		sess = &Session{ID: id}
		s.sessions.Add(id, sess)
	}
	sess.LastSeenAt = s.now()
	return sess
}

func (sess *Session) copy() Session {
	return Session{
		ID:         sess.ID,
		Turns:      slices.Clone(sess.Turns),
		LastSeenAt: sess.LastSeenAt,
	}
}
