// Package keyspace generates shuffled permutations of a closed integer range.
package keyspace

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidRange is returned when min is greater than max.
var ErrInvalidRange = errors.New("invalid keyspace range")

// Keyspace is an immutable permutation of every integer in [Min, Max].
type Keyspace struct {
	min    int
	max    int
	values []int
}

// Generate returns a uniformly shuffled permutation of [min, max].
func Generate(min, max int) (*Keyspace, error) {
	return GenerateWith(min, max, nil)
}

// GenerateWith is Generate with an explicit random source.
// A nil rng uses the package-level source.
func GenerateWith(min, max int, rng *rand.Rand) (*Keyspace, error) {
	if min > max {
		return nil, fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, min, max)
	}

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	values := make([]int, max-min+1)
	for i := range values {
		values[i] = min + i
	}

	// Fisher-Yates
	for i := len(values) - 1; i > 0; i-- {
		j := intN(i + 1)
		values[i], values[j] = values[j], values[i]
	}

	return &Keyspace{min: min, max: max, values: values}, nil
}

// Min returns the lower bound of the range.
func (k *Keyspace) Min() int { return k.min }

// Max returns the upper bound of the range.
func (k *Keyspace) Max() int { return k.max }

// Len returns the number of values, always Max-Min+1.
func (k *Keyspace) Len() int { return len(k.values) }

// At returns the value at position i of the permutation.
func (k *Keyspace) At(i int) int { return k.values[i] }

// Values returns a copy of the permutation.
func (k *Keyspace) Values() []int {
	out := make([]int, len(k.values))
	copy(out, k.values)
	return out
}
