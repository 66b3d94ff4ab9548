// Package session holds enumeration progress for the lifetime of a host
// session. A Session is created once by the integration layer and passed to
// every driver loop it starts, so restarting a loop never regenerates the
// keyspace or rewinds the cursor.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/thruflo/keysweep/internal/keyspace"
)

var (
	// ErrExhausted is returned by Next when every value has been handed out.
	ErrExhausted = errors.New("keyspace exhausted")
	// ErrSessionEnded is returned by GetOrCreate after End.
	ErrSessionEnded = errors.New("session ended")
)

// Session is the process-memory context that owns enumeration progress.
type Session struct {
	mu       sync.Mutex
	progress *Progress
	ended    bool
	generate func(min, max int) (*keyspace.Keyspace, error)
}

// New creates an empty session. The keyspace is generated lazily by the
// first GetOrCreate call.
func New() *Session {
	return &Session{generate: keyspace.Generate}
}

// NewWithGenerator creates a session that uses gen to build its keyspace.
func NewWithGenerator(gen func(min, max int) (*keyspace.Keyspace, error)) *Session {
	return &Session{generate: gen}
}

// GetOrCreate returns the session's progress, generating the keyspace on
// first use. Later calls return the same instance and ignore min and max.
func (s *Session) GetOrCreate(min, max int) (*Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return nil, ErrSessionEnded
	}
	if s.progress != nil {
		return s.progress, nil
	}

	ks, err := s.generate(min, max)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keyspace: %w", err)
	}
	s.progress = &Progress{keys: ks}
	return s.progress, nil
}

// Progress returns the current progress, or nil before the first GetOrCreate.
func (s *Session) Progress() *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// End tears the session down. It is not recreated implicitly.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.progress = nil
}

// Ended reports whether End has been called.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}
