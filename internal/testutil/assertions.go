package testutil

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertPermutation asserts that values holds every integer in [min, max]
// exactly once.
func AssertPermutation(t *testing.T, min, max int, values []int) {
	t.Helper()

	require.Len(t, values, max-min+1, "permutation length mismatch")

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	for i, v := range sorted {
		if !assert.Equal(t, min+i, v, "sorted[%d] mismatch", i) {
			return
		}
	}
}

// AssertUnique asserts that no value appears twice.
func AssertUnique[T comparable](t *testing.T, values []T) {
	t.Helper()

	seen := make(map[T]int, len(values))
	for i, v := range values {
		if j, ok := seen[v]; ok {
			assert.Failf(t, "duplicate value", "%v at index %d and %d", v, j, i)
			return
		}
		seen[v] = i
	}
}

// WaitFor polls cond every 5ms until it returns true or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, timeout, 5*time.Millisecond, msg)
}
