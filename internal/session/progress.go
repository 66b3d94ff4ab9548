package session

import (
	"sync"

	"github.com/thruflo/keysweep/internal/keyspace"
)

// Progress is a keyspace plus a monotonic cursor.
// The cursor only moves forward, one value per Next call.
type Progress struct {
	mu     sync.Mutex
	keys   *keyspace.Keyspace
	cursor int
}

// Next returns the value at the cursor and advances it.
func (p *Progress) Next() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cursor >= p.keys.Len() {
		return 0, ErrExhausted
	}
	v := p.keys.At(p.cursor)
	p.cursor++
	return v, nil
}

// Remaining returns how many values have not been handed out.
func (p *Progress) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keys.Len() - p.cursor
}

// Cursor returns the number of values handed out so far.
func (p *Progress) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Len returns the keyspace size.
func (p *Progress) Len() int {
	return p.keys.Len()
}

// Keyspace returns the underlying permutation.
func (p *Progress) Keyspace() *keyspace.Keyspace {
	return p.keys
}
