package session

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/keysweep/internal/keyspace"
)

func TestGetOrCreate_ReturnsSameInstance(t *testing.T) {
	t.Parallel()

	s := New()
	p1, err := s.GetOrCreate(1, 5)
	require.NoError(t, err)

	_, err = p1.Next()
	require.NoError(t, err)
	_, err = p1.Next()
	require.NoError(t, err)

	// Re-initialization, even with a different range, reuses progress.
	p2, err := s.GetOrCreate(1, 1000)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 2, p2.Cursor())
	assert.Equal(t, 5, p2.Len())
}

func TestGetOrCreate_GeneratesOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	s := NewWithGenerator(func(min, max int) (*keyspace.Keyspace, error) {
		calls++
		return keyspace.Generate(min, max)
	})

	for i := 0; i < 3; i++ {
		_, err := s.GetOrCreate(1, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrCreate_InvalidRange(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.GetOrCreate(10, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, keyspace.ErrInvalidRange)
	assert.Nil(t, s.Progress())
}

func TestEnd(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.GetOrCreate(1, 3)
	require.NoError(t, err)

	s.End()
	assert.True(t, s.Ended())
	assert.Nil(t, s.Progress())

	_, err = s.GetOrCreate(1, 3)
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestProgress_NextUntilExhausted(t *testing.T) {
	t.Parallel()

	s := New()
	p, err := s.GetOrCreate(1, 5)
	require.NoError(t, err)

	var seen []int
	for {
		v, err := p.Next()
		if err != nil {
			assert.ErrorIs(t, err, ErrExhausted)
			break
		}
		seen = append(seen, v)
	}

	sort.Ints(seen)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
	assert.Equal(t, 5, p.Cursor())
	assert.Equal(t, 0, p.Remaining())

	// Stays exhausted; cursor never passes the length.
	_, err = p.Next()
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 5, p.Cursor())
}

func TestProgress_ConcurrentNextNeverDuplicates(t *testing.T) {
	t.Parallel()

	s := New()
	p, err := s.GetOrCreate(1, 2000)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen = make(map[int]bool)
		wg   sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, err := p.Next()
				if err != nil {
					return
				}
				mu.Lock()
				assert.False(t, seen[v], "value %d handed out twice", v)
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 2000)
	assert.Equal(t, 2000, p.Cursor())
}
