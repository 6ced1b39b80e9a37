package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Session table defaults
const (
	DefaultMaxSessions = 10000
	DefaultSessionTTL  = 24 * time.Hour
)

// Sessions maps a browser session to the dataset it is currently viewing.
// Supplying a new file replaces the mapping. Entries expire after the TTL and the
// least recently used one is dropped once the table is full.
type Sessions struct {
	current *expirable.LRU[string, string]
	ttl     time.Duration

	mu       sync.RWMutex
	fallback string
}

// NewSessions creates an empty session table; non-positive arguments take the defaults
func NewSessions(size int, ttl time.Duration) *Sessions {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		current: expirable.NewLRU[string, string](size, nil, ttl),
		ttl:     ttl,
	}
}

// NewID returns a fresh session identifier
func NewID() string {
	return uuid.New().String()
}

// TTL is how long a binding survives without a new upload
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Bind points session at datasetID
func (s *Sessions) Bind(session, datasetID string) {
	s.current.Add(session, datasetID)
}

// SetFallback sets the dataset shown to sessions that have not uploaded a file
func (s *Sessions) SetFallback(datasetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = datasetID
}

// Current returns the dataset for session, or the fallback
func (s *Sessions) Current(session string) (string, bool) {
	if id, ok := s.current.Get(session); ok {
		return id, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fallback != "" {
		return s.fallback, true
	}
	return "", false
}

// Forget drops a session, e.g. once its dataset has left the cache
func (s *Sessions) Forget(session string) {
	s.current.Remove(session)
}

// Len returns the number of bound sessions
func (s *Sessions) Len() int {
	return s.current.Len()
}
